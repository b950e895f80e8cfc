package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"minishop/internal/domain"
	"minishop/internal/repos"
	"minishop/internal/validate"
)

type InventoryService struct {
	Inv      *repos.InventoryRepo
	Products *repos.ProductRepo
	Log      *zap.Logger
	Now      func() time.Time
}

func NewInventoryService(inv *repos.InventoryRepo, prods *repos.ProductRepo, logger *zap.Logger) *InventoryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InventoryService{Inv: inv, Products: prods, Log: logger, Now: time.Now}
}

// Adjust applies a relative change to a product the shop owns. Allowed in any shop
// status so an open shop can restock; the ledger refuses to go below zero.
func (s *InventoryService) Adjust(ctx context.Context, shop domain.Shop, productID string, delta int) (int, error) {
	if !validate.Delta(delta) {
		return 0, domain.New(domain.KindInvalidQuantity, fmt.Sprintf("adjustment must be within ±%d", validate.MaxStock))
	}
	p, err := s.Products.Get(ctx, productID)
	if err != nil {
		return 0, err
	}
	if p.ShopID != shop.ShopID {
		return 0, domain.New(domain.KindForbidden, "product belongs to another shop")
	}
	qty, err := s.Inv.Adjust(ctx, productID, delta, s.Now())
	if err != nil {
		return qty, err
	}
	s.Log.Info("inventory adjusted",
		zap.String("product_id", productID),
		zap.Int("delta", delta),
		zap.Int("inventory", qty))
	return qty, nil
}

// CheckAvailability converts qty to IN_STOCK / LOW_STOCK / OUT_OF_STOCK.
func (s *InventoryService) CheckAvailability(ctx context.Context, productID string) (domain.Availability, error) {
	qty, err := s.Inv.Qty(ctx, productID)
	if err != nil {
		return domain.Availability{}, err
	}
	return domain.AvailabilityFor(qty), nil
}
