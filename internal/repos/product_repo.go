package repos

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"minishop/internal/domain"
)

type ProductRepo struct{ db *sqlx.DB }

func NewProductRepo(db *sqlx.DB) *ProductRepo { return &ProductRepo{db: db} }

type productRow struct {
	ID              string `db:"id"`
	ShopID          string `db:"shop_id"`
	Name            string `db:"name"`
	Description     string `db:"description"`
	Price           int64  `db:"price"`
	Inventory       int    `db:"inventory"`
	ImageURL        string `db:"image_url"`
	QuestionEnabled bool   `db:"question_enabled"`
	QuestionText    string `db:"question_text"`
	IsArchived      bool   `db:"is_archived"`
	CreatedAt       int64  `db:"created_at"`
	UpdatedAt       int64  `db:"updated_at"`
}

func (r productRow) toDomain() domain.Product {
	return domain.Product{
		ID:              r.ID,
		ShopID:          r.ShopID,
		Name:            r.Name,
		Description:     r.Description,
		Price:           r.Price,
		Inventory:       r.Inventory,
		ImageURL:        r.ImageURL,
		QuestionEnabled: r.QuestionEnabled,
		QuestionText:    r.QuestionText,
		IsArchived:      r.IsArchived,
		CreatedAt:       fromMillis(r.CreatedAt),
		UpdatedAt:       fromMillis(r.UpdatedAt),
	}
}

const productColumns = `id, shop_id, name, description, price, inventory, image_url,
    question_enabled, question_text, is_archived, created_at, updated_at`

// ListByShop returns the shop's non-archived products, newest first.
func (r *ProductRepo) ListByShop(ctx context.Context, shopID string) ([]domain.Product, error) {
	var rows []productRow
	err := r.db.SelectContext(ctx, &rows, r.db.Rebind(`
	  SELECT `+productColumns+`
	  FROM products
	  WHERE shop_id = ? AND is_archived = ?
	  ORDER BY created_at DESC, id
	`), shopID, false)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Product, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (r *ProductRepo) GetTx(ctx context.Context, q Querier, id string) (domain.Product, error) {
	var row productRow
	err := q.GetContext(ctx, &row, q.Rebind(`SELECT `+productColumns+` FROM products WHERE id = ?`), id)
	if isNoRows(err) {
		return domain.Product{}, domain.New(domain.KindNotFound, "product not found")
	}
	if err != nil {
		return domain.Product{}, fmt.Errorf("load product: %w", err)
	}
	return row.toDomain(), nil
}

func (r *ProductRepo) Get(ctx context.Context, id string) (domain.Product, error) {
	return r.GetTx(ctx, r.db, id)
}

func (r *ProductRepo) Insert(ctx context.Context, p domain.Product) error {
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`
	  INSERT INTO products(`+productColumns+`)
	  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`), p.ID, p.ShopID, p.Name, p.Description, p.Price, p.Inventory, p.ImageURL,
		p.QuestionEnabled, p.QuestionText, p.IsArchived, millis(p.CreatedAt), millis(p.UpdatedAt))
	return err
}

// UpdateTx writes the editable fields. Inventory is written only for an explicit
// override; otherwise the ledger's value is left untouched.
func (r *ProductRepo) UpdateTx(ctx context.Context, q Querier, p domain.Product, overrideInventory bool) error {
	set := `name = ?, description = ?, price = ?, image_url = ?, question_enabled = ?, question_text = ?, updated_at = ?`
	args := []any{p.Name, p.Description, p.Price, p.ImageURL, p.QuestionEnabled, p.QuestionText, millis(p.UpdatedAt)}
	if overrideInventory {
		set += `, inventory = ?`
		args = append(args, p.Inventory)
	}
	args = append(args, p.ID)
	_, err := q.ExecContext(ctx, q.Rebind(`UPDATE products SET `+set+` WHERE id = ?`), args...)
	return err
}

func (r *ProductRepo) Archive(ctx context.Context, id string, now time.Time) error {
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`UPDATE products SET is_archived = ?, updated_at = ? WHERE id = ?`),
		true, millis(now), id)
	return err
}
