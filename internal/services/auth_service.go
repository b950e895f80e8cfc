package services

import (
	"context"

	"minishop/internal/auth"
	"minishop/internal/domain"
)

// AuthService binds a verified LINE identity to its shop.
type AuthService struct {
	Verifier auth.Verifier
	Shops    *ShopService
}

func NewAuthService(v auth.Verifier, shops *ShopService) *AuthService {
	return &AuthService{Verifier: v, Shops: shops}
}

// Identify verifies an id token and returns the caller.
func (s *AuthService) Identify(ctx context.Context, idToken string) (auth.Identity, error) {
	return s.Verifier.Verify(ctx, idToken)
}

// Session verifies the owner's token and makes sure their shop exists.
func (s *AuthService) Session(ctx context.Context, idToken string) (auth.Identity, domain.Shop, error) {
	id, err := s.Verifier.Verify(ctx, idToken)
	if err != nil {
		return auth.Identity{}, domain.Shop{}, err
	}
	shop, err := s.Shops.GetOrCreate(ctx, id.Subject)
	if err != nil {
		return auth.Identity{}, domain.Shop{}, err
	}
	return id, shop, nil
}
