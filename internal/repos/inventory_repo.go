package repos

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"minishop/internal/domain"
)

// InventoryRepo is the ledger for product quantities. Every quantity change
// except product creation and the preparing-time override goes through Adjust.
type InventoryRepo struct{ db *sqlx.DB }

func NewInventoryRepo(db *sqlx.DB) *InventoryRepo { return &InventoryRepo{db: db} }

// Qty returns the current inventory of a product.
func (r *InventoryRepo) Qty(ctx context.Context, productID string) (int, error) {
	var qty int
	err := r.db.GetContext(ctx, &qty, r.db.Rebind(`SELECT inventory FROM products WHERE id = ?`), productID)
	if isNoRows(err) {
		return 0, domain.New(domain.KindNotFound, "product not found")
	}
	return qty, err
}

// AdjustTx applies delta to the product's inventory on q and returns the new quantity.
// The guarded UPDATE is the floor-at-zero check: it matches no row when the result
// would be negative, so the read and write are one atomic step on either driver.
func (r *InventoryRepo) AdjustTx(ctx context.Context, q Querier, productID string, delta int, now time.Time) (int, error) {
	res, err := q.ExecContext(ctx, q.Rebind(`
		UPDATE products
		SET inventory = inventory + ?, updated_at = ?
		WHERE id = ? AND inventory + ? >= 0
	`), delta, millis(now), productID, delta)
	if err != nil {
		return 0, fmt.Errorf("adjust inventory: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}

	var qty int
	err = q.GetContext(ctx, &qty, q.Rebind(`SELECT inventory FROM products WHERE id = ?`), productID)
	if isNoRows(err) {
		return 0, domain.New(domain.KindNotFound, "product not found")
	}
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return qty, domain.New(domain.KindInsufficientInventory,
			fmt.Sprintf("insufficient stock for %s (have %d, change %d)", productID, qty, delta))
	}
	return qty, nil
}

// Adjust is the standalone form of AdjustTx.
func (r *InventoryRepo) Adjust(ctx context.Context, productID string, delta int, now time.Time) (int, error) {
	var qty int
	err := WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		var err error
		qty, err = r.AdjustTx(ctx, tx, productID, delta, now)
		return err
	})
	return qty, err
}
