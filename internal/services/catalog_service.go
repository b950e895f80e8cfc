package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"minishop/internal/domain"
	"minishop/internal/repos"
	"minishop/internal/validate"
)

// CatalogService manages a shop's products. The storefront is editable only while
// the shop is preparing; an open shop changes stock through InventoryService.
type CatalogService struct {
	DB    *sqlx.DB
	Shops *repos.ShopRepo
	Prods *repos.ProductRepo
	Now   func() time.Time
}

func NewCatalogService(db *sqlx.DB, shops *repos.ShopRepo, prods *repos.ProductRepo) *CatalogService {
	return &CatalogService{DB: db, Shops: shops, Prods: prods, Now: time.Now}
}

func requirePreparing(shop domain.Shop) error {
	if shop.Status != domain.ShopPreparing {
		return domain.New(domain.KindShopClosed, "products can only be edited while the shop is preparing")
	}
	return nil
}

func (s *CatalogService) List(ctx context.Context, shopID string) ([]domain.Product, error) {
	return s.Prods.ListByShop(ctx, shopID)
}

// ListPublic lists products of an open shop for buyers.
func (s *CatalogService) ListPublic(ctx context.Context, shopID string) ([]domain.Product, error) {
	shop, err := s.Shops.ByShopID(ctx, shopID)
	if err != nil {
		return nil, err
	}
	if !shop.IsOpen() {
		return nil, domain.New(domain.KindShopClosed, "shop is preparing")
	}
	return s.Prods.ListByShop(ctx, shop.ShopID)
}

func (s *CatalogService) Get(ctx context.Context, shopID, productID string) (domain.Product, error) {
	return s.getTx(ctx, s.DB, shopID, productID)
}

func (s *CatalogService) getTx(ctx context.Context, q repos.Querier, shopID, productID string) (domain.Product, error) {
	p, err := s.Prods.GetTx(ctx, q, productID)
	if err != nil {
		return domain.Product{}, err
	}
	if p.ShopID != shopID {
		return domain.Product{}, domain.New(domain.KindForbidden, "product belongs to another shop")
	}
	if p.IsArchived {
		return domain.Product{}, domain.New(domain.KindNotFound, "product not found")
	}
	return p, nil
}

// apply merges in onto p and validates the result.
func apply(p *domain.Product, in domain.ProductInput) error {
	if in.Name != nil {
		name, ok := validate.ProductName(*in.Name)
		if !ok {
			return domain.New(domain.KindInvalid, "product name is required")
		}
		p.Name = name
	}
	if in.Description != nil {
		d, ok := validate.OptionalText(*in.Description, validate.MaxDescription)
		if !ok {
			return domain.New(domain.KindInvalid, "description is too long")
		}
		p.Description = d
	}
	if in.Price != nil {
		if *in.Price < 0 {
			return domain.New(domain.KindInvalid, "price must be zero or more")
		}
		p.Price = *in.Price
	}
	if in.Inventory != nil {
		if *in.Inventory < 0 || *in.Inventory > validate.MaxStock {
			return domain.New(domain.KindInvalid, fmt.Sprintf("inventory must be between 0 and %d", validate.MaxStock))
		}
		p.Inventory = *in.Inventory
	}
	if in.ImageURL != nil {
		u, ok := validate.ImageURL(*in.ImageURL)
		if !ok {
			return domain.New(domain.KindInvalid, "image url must be https")
		}
		p.ImageURL = u
	}
	if in.QuestionEnabled != nil {
		p.QuestionEnabled = *in.QuestionEnabled
	}
	if in.QuestionText != nil {
		p.QuestionText = strings.TrimSpace(*in.QuestionText)
	}
	if p.QuestionEnabled && p.QuestionText == "" {
		return domain.New(domain.KindInvalid, "question text is required when the question is enabled")
	}
	if p.Name == "" {
		return domain.New(domain.KindInvalid, "product name is required")
	}
	return nil
}

func (s *CatalogService) Create(ctx context.Context, shop domain.Shop, in domain.ProductInput) (domain.Product, error) {
	if err := requirePreparing(shop); err != nil {
		return domain.Product{}, err
	}
	if in.Price == nil {
		return domain.Product{}, domain.New(domain.KindInvalid, "price is required")
	}
	now := s.Now()
	p := domain.Product{ID: uuid.NewString(), ShopID: shop.ShopID, CreatedAt: now, UpdatedAt: now}
	if err := apply(&p, in); err != nil {
		return domain.Product{}, err
	}
	if err := s.Prods.Insert(ctx, p); err != nil {
		return domain.Product{}, fmt.Errorf("create product: %w", err)
	}
	return p, nil
}

// Update edits a product while preparing. Stock is only replaced when the input
// carries an explicit inventory; other edits never write it.
func (s *CatalogService) Update(ctx context.Context, shop domain.Shop, productID string, in domain.ProductInput) (domain.Product, error) {
	if err := requirePreparing(shop); err != nil {
		return domain.Product{}, err
	}
	now := s.Now()
	var out domain.Product
	err := repos.WithTx(ctx, s.DB, func(tx *sqlx.Tx) error {
		p, err := s.getTx(ctx, tx, shop.ShopID, productID)
		if err != nil {
			return err
		}
		if err := apply(&p, in); err != nil {
			return err
		}
		p.UpdatedAt = now
		if err := s.Prods.UpdateTx(ctx, tx, p, in.Inventory != nil); err != nil {
			return fmt.Errorf("update product: %w", err)
		}
		out, err = s.Prods.GetTx(ctx, tx, productID)
		return err
	})
	if err != nil {
		return domain.Product{}, err
	}
	return out, nil
}

// Archive soft-deletes a product; placed orders keep their snapshot.
func (s *CatalogService) Archive(ctx context.Context, shop domain.Shop, productID string) error {
	if err := requirePreparing(shop); err != nil {
		return err
	}
	if _, err := s.Get(ctx, shop.ShopID, productID); err != nil {
		return err
	}
	return s.Prods.Archive(ctx, productID, s.Now())
}
