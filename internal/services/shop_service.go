package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"go.uber.org/zap"

	"minishop/internal/domain"
	"minishop/internal/repos"
	"minishop/internal/validate"
)

const (
	DefaultShopName        = "New shop"
	DefaultPurchaseMessage = "Thank you for your purchase! We will contact you about payment shortly."

	shopIDAlphabet = "23456789abcdefghjkmnpqrstuvwxyz"
	shopIDLength   = 6
	shopIDAttempts = 10
)

var ErrShopIDExhausted = errors.New("could not allocate a shop id, try again later")

type ShopService struct {
	Shops *repos.ShopRepo
	Log   *zap.Logger
	Now   func() time.Time

	// NewShopID draws a candidate public id; replaced in tests.
	NewShopID func() (string, error)
}

func NewShopService(shops *repos.ShopRepo, logger *zap.Logger) *ShopService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ShopService{Shops: shops, Log: logger, Now: time.Now, NewShopID: RandomShopID}
}

func RandomShopID() (string, error) {
	b := make([]byte, shopIDLength)
	max := big.NewInt(int64(len(shopIDAlphabet)))
	for i := range b {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b[i] = shopIDAlphabet[n.Int64()]
	}
	return string(b), nil
}

func (s *ShopService) uniqueShopID(ctx context.Context) (string, error) {
	for attempt := 0; attempt < shopIDAttempts; attempt++ {
		id, err := s.NewShopID()
		if err != nil {
			return "", err
		}
		taken, err := s.Shops.ShopIDTaken(ctx, id)
		if err != nil {
			return "", err
		}
		if !taken {
			return id, nil
		}
	}
	return "", ErrShopIDExhausted
}

// GetOrCreate returns the owner's shop, creating a preparing shop on first use and
// back-filling a missing public id.
func (s *ShopService) GetOrCreate(ctx context.Context, ownerUserID string) (domain.Shop, error) {
	shop, err := s.Shops.ByOwner(ctx, ownerUserID)
	switch {
	case err == nil && shop.ShopID != "":
		return shop, nil
	case err == nil:
		id, err := s.uniqueShopID(ctx)
		if err != nil {
			return domain.Shop{}, err
		}
		if err := s.Shops.SetShopID(ctx, ownerUserID, id, s.Now()); err != nil {
			return domain.Shop{}, fmt.Errorf("backfill shop id: %w", err)
		}
		return s.Shops.ByOwner(ctx, ownerUserID)
	case !errors.Is(err, domain.ErrNotFound):
		return domain.Shop{}, err
	}

	id, err := s.uniqueShopID(ctx)
	if err != nil {
		return domain.Shop{}, err
	}
	now := s.Now()
	shop = domain.Shop{
		OwnerUserID:     ownerUserID,
		ShopID:          id,
		Name:            DefaultShopName,
		PurchaseMessage: DefaultPurchaseMessage,
		Status:          domain.ShopPreparing,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.Shops.Insert(ctx, shop); err != nil {
		return domain.Shop{}, fmt.Errorf("create shop: %w", err)
	}
	s.Log.Info("shop created", zap.String("shop_id", id))
	return s.Shops.ByOwner(ctx, ownerUserID)
}

func (s *ShopService) Get(ctx context.Context, ownerUserID string) (domain.Shop, error) {
	return s.Shops.ByOwner(ctx, ownerUserID)
}

func (s *ShopService) GetByPublicID(ctx context.Context, shopID string) (domain.Shop, error) {
	return s.Shops.ByShopID(ctx, shopID)
}

// GetOpen is the buyer-facing lookup; a preparing shop is reported as closed.
func (s *ShopService) GetOpen(ctx context.Context, shopID string) (domain.Shop, error) {
	shop, err := s.Shops.ByShopID(ctx, shopID)
	if err != nil {
		return domain.Shop{}, err
	}
	if !shop.IsOpen() {
		return domain.Shop{}, domain.New(domain.KindShopClosed, "shop is preparing")
	}
	return shop, nil
}

func (s *ShopService) Update(ctx context.Context, ownerUserID, name, purchaseMessage string) (domain.Shop, error) {
	name, ok := validate.ShopName(name)
	if !ok {
		return domain.Shop{}, domain.New(domain.KindInvalid, "shop name is required")
	}
	msg, ok := validate.Text(purchaseMessage, validate.MaxPurchaseMessage)
	if !ok {
		return domain.Shop{}, domain.New(domain.KindInvalid, "purchase message is required")
	}
	if _, err := s.Shops.ByOwner(ctx, ownerUserID); err != nil {
		return domain.Shop{}, err
	}
	if err := s.Shops.UpdateProfile(ctx, ownerUserID, name, msg, s.Now()); err != nil {
		return domain.Shop{}, fmt.Errorf("update shop: %w", err)
	}
	return s.Shops.ByOwner(ctx, ownerUserID)
}

func (s *ShopService) SetStatus(ctx context.Context, ownerUserID string, status domain.ShopStatus) (domain.Shop, error) {
	if !status.Valid() {
		return domain.Shop{}, domain.New(domain.KindInvalid, fmt.Sprintf("unknown shop status %q", status))
	}
	if _, err := s.Shops.ByOwner(ctx, ownerUserID); err != nil {
		return domain.Shop{}, err
	}
	if err := s.Shops.SetStatus(ctx, ownerUserID, status, s.Now()); err != nil {
		return domain.Shop{}, fmt.Errorf("set shop status: %w", err)
	}
	s.Log.Info("shop status changed", zap.String("owner", ownerUserID), zap.String("status", string(status)))
	return s.Shops.ByOwner(ctx, ownerUserID)
}
