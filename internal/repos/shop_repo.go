package repos

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"minishop/internal/domain"
)

type ShopRepo struct{ db *sqlx.DB }

func NewShopRepo(db *sqlx.DB) *ShopRepo { return &ShopRepo{db: db} }

type shopRow struct {
	OwnerUserID           string         `db:"owner_user_id"`
	ShopID                string         `db:"shop_id"`
	Name                  string         `db:"name"`
	PurchaseMessage       string         `db:"purchase_message"`
	Status                string         `db:"status"`
	ContactPendingOrderID sql.NullString `db:"contact_pending_order_id"`
	CreatedAt             int64          `db:"created_at"`
	UpdatedAt             int64          `db:"updated_at"`
}

func (r shopRow) toDomain() domain.Shop {
	return domain.Shop{
		OwnerUserID:           r.OwnerUserID,
		ShopID:                r.ShopID,
		Name:                  r.Name,
		PurchaseMessage:       r.PurchaseMessage,
		Status:                domain.ShopStatus(r.Status),
		ContactPendingOrderID: r.ContactPendingOrderID.String,
		CreatedAt:             fromMillis(r.CreatedAt),
		UpdatedAt:             fromMillis(r.UpdatedAt),
	}
}

const shopColumns = `owner_user_id, shop_id, name, purchase_message, status, contact_pending_order_id, created_at, updated_at`

func (r *ShopRepo) getOne(ctx context.Context, where string, arg any) (domain.Shop, error) {
	var row shopRow
	err := r.db.GetContext(ctx, &row, r.db.Rebind(`SELECT `+shopColumns+` FROM shops WHERE `+where), arg)
	if isNoRows(err) {
		return domain.Shop{}, domain.New(domain.KindNotFound, "shop not found")
	}
	if err != nil {
		return domain.Shop{}, fmt.Errorf("load shop: %w", err)
	}
	return row.toDomain(), nil
}

// ByOwner returns the shop owned by ownerID.
func (r *ShopRepo) ByOwner(ctx context.Context, ownerID string) (domain.Shop, error) {
	return r.getOne(ctx, `owner_user_id = ?`, ownerID)
}

// ByShopID looks a shop up by its public identifier.
func (r *ShopRepo) ByShopID(ctx context.Context, shopID string) (domain.Shop, error) {
	return r.getOne(ctx, `shop_id = ?`, shopID)
}

func (r *ShopRepo) ShopIDTaken(ctx context.Context, shopID string) (bool, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, r.db.Rebind(`SELECT COUNT(*) FROM shops WHERE shop_id = ?`), shopID); err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *ShopRepo) Insert(ctx context.Context, s domain.Shop) error {
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`
		INSERT INTO shops(owner_user_id, shop_id, name, purchase_message, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`), s.OwnerUserID, s.ShopID, s.Name, s.PurchaseMessage, string(s.Status), millis(s.CreatedAt), millis(s.UpdatedAt))
	return err
}

func (r *ShopRepo) SetShopID(ctx context.Context, ownerID, shopID string, now time.Time) error {
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`UPDATE shops SET shop_id = ?, updated_at = ? WHERE owner_user_id = ?`),
		shopID, millis(now), ownerID)
	return err
}

func (r *ShopRepo) UpdateProfile(ctx context.Context, ownerID, name, purchaseMessage string, now time.Time) error {
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`
		UPDATE shops SET name = ?, purchase_message = ?, updated_at = ? WHERE owner_user_id = ?
	`), name, purchaseMessage, millis(now), ownerID)
	return err
}

func (r *ShopRepo) SetStatus(ctx context.Context, ownerID string, status domain.ShopStatus, now time.Time) error {
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`UPDATE shops SET status = ?, updated_at = ? WHERE owner_user_id = ?`),
		string(status), millis(now), ownerID)
	return err
}

// SetContactPendingOrderTx points the shop at the order awaiting a relay message; "" clears it.
func (r *ShopRepo) SetContactPendingOrderTx(ctx context.Context, q Querier, ownerID, orderID string, now time.Time) error {
	pending := sql.NullString{String: orderID, Valid: orderID != ""}
	_, err := q.ExecContext(ctx, q.Rebind(`
		UPDATE shops SET contact_pending_order_id = ?, updated_at = ? WHERE owner_user_id = ?
	`), pending, millis(now), ownerID)
	return err
}

func (r *ShopRepo) SetContactPendingOrder(ctx context.Context, ownerID, orderID string, now time.Time) error {
	return r.SetContactPendingOrderTx(ctx, r.db, ownerID, orderID, now)
}
