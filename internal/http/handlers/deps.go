package handlers

import (
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"minishop/internal/auth"
	"minishop/internal/config"
	"minishop/internal/notify"
	"minishop/internal/repos"
	"minishop/internal/services"
)

type Deps struct {
	AuthHandler      *AuthHandler
	ShopHandler      *ShopHandler
	ProductHandler   *ProductHandler
	InventoryHandler *InventoryHandler
	OrderHandler     *OrderHandler
	PublicHandler    *PublicHandler

	Auth  *services.AuthService
	Shops *services.ShopService
	Log   *zap.Logger
}

func NewDeps(db *sqlx.DB, cfg config.Config, verifier auth.Verifier, n notify.Notifier, logger *zap.Logger) *Deps {
	shopRepo := repos.NewShopRepo(db)
	prodRepo := repos.NewProductRepo(db)
	invRepo := repos.NewInventoryRepo(db)
	orderRepo := repos.NewOrderRepo(db)

	shopSvc := services.NewShopService(shopRepo, logger)
	authSvc := services.NewAuthService(verifier, shopSvc)
	catalogSvc := services.NewCatalogService(db, shopRepo, prodRepo)
	invSvc := services.NewInventoryService(invRepo, prodRepo, logger)
	orderSvc := services.NewOrderService(db, shopRepo, prodRepo, invRepo, orderRepo, n, logger)

	admission := services.NewAdmissionService(shopRepo, prodRepo, orderRepo, n, logger)
	admission.DailyLimit = cfg.DailyOrderLimit
	admission.Location = cfg.Location()

	return &Deps{
		AuthHandler:      &AuthHandler{Auth: authSvc},
		ShopHandler:      &ShopHandler{Shops: shopSvc},
		ProductHandler:   &ProductHandler{Catalog: catalogSvc},
		InventoryHandler: &InventoryHandler{Inv: invSvc},
		OrderHandler:     &OrderHandler{Orders: orderSvc},
		PublicHandler: &PublicHandler{
			Shops: shopSvc, Catalog: catalogSvc, Admission: admission, Auth: authSvc,
		},
		Auth:  authSvc,
		Shops: shopSvc,
		Log:   logger,
	}
}
