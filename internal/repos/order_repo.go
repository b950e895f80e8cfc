package repos

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"minishop/internal/domain"
)

type OrderRepo struct{ db *sqlx.DB }

func NewOrderRepo(db *sqlx.DB) *OrderRepo { return &OrderRepo{db: db} }

type orderRow struct {
	ID               string         `db:"id"`
	ShopID           string         `db:"shop_id"`
	BuyerUserID      string         `db:"buyer_user_id"`
	BuyerDisplayID   string         `db:"buyer_display_id"`
	Status           string         `db:"status"`
	ItemsVersion     int            `db:"items_version"`
	ItemsJSON        string         `db:"items_json"`
	Total            int64          `db:"total"`
	QuestionResponse sql.NullString `db:"question_response"`
	Memo             string         `db:"memo"`
	Closed           bool           `db:"closed"`
	ContactPending   bool           `db:"contact_pending"`
	CreatedAt        int64          `db:"created_at"`
	UpdatedAt        int64          `db:"updated_at"`
	AcceptedAt       sql.NullInt64  `db:"accepted_at"`
	CanceledAt       sql.NullInt64  `db:"canceled_at"`
}

// toDomain is the single read path from storage into the canonical Order.
func (r orderRow) toDomain() (domain.Order, error) {
	items, err := decodeItems(r.ItemsVersion, r.ItemsJSON)
	if err != nil {
		return domain.Order{}, fmt.Errorf("order %s: %w", r.ID, err)
	}
	o := domain.Order{
		ID:             r.ID,
		ShopID:         r.ShopID,
		BuyerUserID:    r.BuyerUserID,
		BuyerDisplayID: r.BuyerDisplayID,
		Status:         domain.OrderStatus(r.Status),
		Items:          items,
		Total:          r.Total,
		Memo:           r.Memo,
		Closed:         r.Closed,
		ContactPending: r.ContactPending,
		CreatedAt:      fromMillis(r.CreatedAt),
		UpdatedAt:      fromMillis(r.UpdatedAt),
		AcceptedAt:     fromNullMillis(r.AcceptedAt),
		CanceledAt:     fromNullMillis(r.CanceledAt),
	}
	if !o.Status.Valid() {
		o.Status = domain.OrderPending
	}
	if r.QuestionResponse.Valid {
		qr := r.QuestionResponse.String
		o.QuestionResponse = &qr
	}
	return o, nil
}

const orderColumns = `id, shop_id, buyer_user_id, buyer_display_id, status, items_version, items_json, total,
    question_response, memo, closed, contact_pending, created_at, updated_at, accepted_at, canceled_at`

func scanOrders(rows []orderRow) ([]domain.Order, error) {
	out := make([]domain.Order, 0, len(rows))
	for _, row := range rows {
		o, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, nil
}

// Create inserts a new order row.
func (r *OrderRepo) Create(ctx context.Context, o domain.Order) error {
	version, items, err := encodeItems(o.Items)
	if err != nil {
		return err
	}
	var qr sql.NullString
	if o.QuestionResponse != nil {
		qr = sql.NullString{String: *o.QuestionResponse, Valid: true}
	}
	_, err = r.db.ExecContext(ctx, r.db.Rebind(`
	  INSERT INTO orders(`+orderColumns+`)
	  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`), o.ID, o.ShopID, o.BuyerUserID, o.BuyerDisplayID, string(o.Status), version, items, o.Total,
		qr, o.Memo, o.Closed, o.ContactPending, millis(o.CreatedAt), millis(o.UpdatedAt),
		nullMillis(o.AcceptedAt), nullMillis(o.CanceledAt))
	return err
}

func (r *OrderRepo) Exists(ctx context.Context, id string) (bool, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, r.db.Rebind(`SELECT COUNT(*) FROM orders WHERE id = ?`), id); err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *OrderRepo) GetTx(ctx context.Context, q Querier, id string) (domain.Order, error) {
	var row orderRow
	err := q.GetContext(ctx, &row, q.Rebind(`SELECT `+orderColumns+` FROM orders WHERE id = ?`), id)
	if isNoRows(err) {
		return domain.Order{}, domain.New(domain.KindNotFound, "order not found")
	}
	if err != nil {
		return domain.Order{}, fmt.Errorf("load order: %w", err)
	}
	return row.toDomain()
}

func (r *OrderRepo) Get(ctx context.Context, id string) (domain.Order, error) {
	return r.GetTx(ctx, r.db, id)
}

// ListByShop returns a shop's orders newest first, optionally filtered by status.
func (r *OrderRepo) ListByShop(ctx context.Context, shopID string, status domain.OrderStatus, limit int) ([]domain.Order, error) {
	if limit <= 0 || limit > 100 {
		limit = 100
	}
	where := `shop_id = ?`
	args := []any{shopID}
	if status != "" {
		where += ` AND status = ?`
		args = append(args, string(status))
	}
	args = append(args, limit)

	var rows []orderRow
	err := r.db.SelectContext(ctx, &rows, r.db.Rebind(`
	  SELECT `+orderColumns+`
	  FROM orders
	  WHERE `+where+`
	  ORDER BY created_at DESC, id
	  LIMIT ?
	`), args...)
	if err != nil {
		return nil, err
	}
	return scanOrders(rows)
}

// CountByBuyerSince counts orders a buyer created at or after since.
func (r *OrderRepo) CountByBuyerSince(ctx context.Context, buyerUserID string, since time.Time) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n, r.db.Rebind(`
	  SELECT COUNT(*) FROM orders WHERE buyer_user_id = ? AND created_at >= ?
	`), buyerUserID, millis(since))
	return n, err
}

// TransitionTx moves a pending order to next. The status guard makes a concurrent
// transition of the same order match zero rows, reported as InvalidState.
func (r *OrderRepo) TransitionTx(ctx context.Context, q Querier, id string, next domain.OrderStatus, now time.Time) error {
	var stampColumn string
	switch next {
	case domain.OrderAccepted:
		stampColumn = "accepted_at"
	case domain.OrderCanceled:
		stampColumn = "canceled_at"
	default:
		return domain.New(domain.KindInvalidState, fmt.Sprintf("cannot transition to %q", next))
	}
	res, err := q.ExecContext(ctx, q.Rebind(`
	  UPDATE orders SET status = ?, `+stampColumn+` = ?, updated_at = ?
	  WHERE id = ? AND status = ?
	`), string(next), millis(now), millis(now), id, string(domain.OrderPending))
	if err != nil {
		return fmt.Errorf("transition order: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.New(domain.KindInvalidState, "order is no longer pending")
	}
	return nil
}

// UpdateMeta writes memo/closed; nil fields are left as they are.
func (r *OrderRepo) UpdateMeta(ctx context.Context, id string, meta domain.OrderMeta, now time.Time) error {
	set := `updated_at = ?`
	args := []any{millis(now)}
	if meta.Memo != nil {
		set += `, memo = ?`
		args = append(args, *meta.Memo)
	}
	if meta.Closed != nil {
		set += `, closed = ?`
		args = append(args, *meta.Closed)
	}
	args = append(args, id)
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`UPDATE orders SET `+set+` WHERE id = ?`), args...)
	return err
}

func (r *OrderRepo) SetContactPendingTx(ctx context.Context, q Querier, id string, pending bool, now time.Time) error {
	_, err := q.ExecContext(ctx, q.Rebind(`UPDATE orders SET contact_pending = ?, updated_at = ? WHERE id = ?`),
		pending, millis(now), id)
	return err
}
