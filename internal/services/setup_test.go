package services_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"minishop/internal/domain"
	"minishop/internal/notify"
	"minishop/internal/repos"
	"minishop/internal/services"
)

// recorder captures events; set fail to make every delivery error.
type recorder struct {
	mu     sync.Mutex
	events []notify.Event
	fail   error
}

func (r *recorder) Notify(_ context.Context, e notify.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return r.fail
}

func (r *recorder) types() []notify.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]notify.EventType, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

type env struct {
	db        *sqlx.DB
	shops     *repos.ShopRepo
	products  *repos.ProductRepo
	inv       *repos.InventoryRepo
	orders    *repos.OrderRepo
	admission *services.AdmissionService
	orderSvc  *services.OrderService
	invSvc    *services.InventoryService
	shopSvc   *services.ShopService
	catalog   *services.CatalogService
	notes     *recorder
	logs      *observer.ObservedLogs
	now       time.Time
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db, err := repos.OpenDB(repos.DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	core, logs := observer.New(zapcore.DebugLevel)
	logger := zap.New(core)

	e := &env{
		db:       db,
		shops:    repos.NewShopRepo(db),
		products: repos.NewProductRepo(db),
		inv:      repos.NewInventoryRepo(db),
		orders:   repos.NewOrderRepo(db),
		notes:    &recorder{},
		logs:     logs,
		now:      time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC),
	}
	clock := func() time.Time { return e.now }

	e.admission = services.NewAdmissionService(e.shops, e.products, e.orders, e.notes, logger)
	e.admission.Now = clock
	e.admission.Location = time.UTC
	e.orderSvc = services.NewOrderService(db, e.shops, e.products, e.inv, e.orders, e.notes, logger)
	e.orderSvc.Now = clock
	e.invSvc = services.NewInventoryService(e.inv, e.products, logger)
	e.invSvc.Now = clock
	e.shopSvc = services.NewShopService(e.shops, logger)
	e.shopSvc.Now = clock
	e.catalog = services.NewCatalogService(db, e.shops, e.products)
	e.catalog.Now = clock
	return e
}

// openShop creates an owner's shop and switches it to open.
func (e *env) openShop(t *testing.T, owner string) domain.Shop {
	t.Helper()
	ctx := context.Background()
	_, err := e.shopSvc.GetOrCreate(ctx, owner)
	require.NoError(t, err)
	shop, err := e.shopSvc.SetStatus(ctx, owner, domain.ShopOpen)
	require.NoError(t, err)
	return shop
}

func (e *env) product(t *testing.T, shop domain.Shop, name string, price int64, inventory int) domain.Product {
	t.Helper()
	p := domain.Product{
		ID: "p-" + name, ShopID: shop.ShopID, Name: name, Price: price, Inventory: inventory,
		CreatedAt: e.now, UpdatedAt: e.now,
	}
	require.NoError(t, e.products.Insert(context.Background(), p))
	return p
}

func (e *env) qty(t *testing.T, productID string) int {
	t.Helper()
	n, err := e.inv.Qty(context.Background(), productID)
	require.NoError(t, err)
	return n
}

func ptr[T any](v T) *T { return &v }
