package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"minishop/internal/domain"
	"minishop/internal/notify"
	"minishop/internal/repos"
	"minishop/internal/validate"
)

const DefaultDailyOrderLimit = 10

// AdmissionService creates pending orders. Stock is checked here but not taken;
// the decrement happens when the owner accepts.
type AdmissionService struct {
	Shops    *repos.ShopRepo
	Products *repos.ProductRepo
	Orders   *repos.OrderRepo
	Notifier notify.Notifier
	Log      *zap.Logger

	// DailyLimit caps orders per buyer per calendar day in Location; <= 0 disables the cap.
	DailyLimit int
	Location   *time.Location
	Now        func() time.Time
}

func NewAdmissionService(shops *repos.ShopRepo, prods *repos.ProductRepo, orders *repos.OrderRepo,
	n notify.Notifier, logger *zap.Logger) *AdmissionService {
	n, logger = orDefaults(n, logger)
	return &AdmissionService{
		Shops: shops, Products: prods, Orders: orders, Notifier: n, Log: logger,
		DailyLimit: DefaultDailyOrderLimit, Location: time.Local, Now: time.Now,
	}
}

type PlaceOrderInput struct {
	ShopID           string
	ProductID        string
	Quantity         int
	BuyerUserID      string
	QuestionResponse *string
}

// PlaceOrder resolves the public shop and product ids, then admits the order.
func (s *AdmissionService) PlaceOrder(ctx context.Context, in PlaceOrderInput) (domain.Order, error) {
	shop, err := s.Shops.ByShopID(ctx, in.ShopID)
	if err != nil {
		return domain.Order{}, err
	}
	product, err := s.Products.Get(ctx, in.ProductID)
	if err != nil {
		return domain.Order{}, err
	}
	return s.CreatePendingOrder(ctx, shop, product, in.Quantity, in.BuyerUserID, in.QuestionResponse)
}

// CreatePendingOrder validates the storefront rules and the buyer's daily cap, then
// stores a pending order with a snapshot of the product. The cap is read-then-decide
// and two simultaneous requests can both pass it.
func (s *AdmissionService) CreatePendingOrder(ctx context.Context, shop domain.Shop, product domain.Product,
	quantity int, buyerUserID string, questionResponse *string) (domain.Order, error) {
	if buyerUserID == "" {
		return domain.Order{}, domain.New(domain.KindUnauthorized, "buyer identity required")
	}
	if product.ShopID != shop.ShopID {
		return domain.Order{}, domain.New(domain.KindForbidden, "product does not belong to this shop")
	}
	if product.IsArchived {
		return domain.Order{}, domain.New(domain.KindNotFound, "product is no longer sold")
	}
	if !shop.IsOpen() {
		return domain.Order{}, domain.New(domain.KindShopClosed, "shop is not accepting orders")
	}
	if product.Inventory <= 0 {
		return domain.Order{}, domain.ErrOutOfStock
	}
	if quantity <= 0 {
		return domain.Order{}, domain.ErrInvalidQuantity
	}
	if quantity > product.Inventory {
		return domain.Order{}, domain.New(domain.KindInsufficientInventory,
			fmt.Sprintf("requested %d, %d available", quantity, product.Inventory))
	}

	now := s.Now()
	if err := s.checkDailyLimit(ctx, buyerUserID, now); err != nil {
		return domain.Order{}, err
	}

	item := domain.OrderItem{
		ProductID: product.ID,
		Name:      product.Name,
		UnitPrice: product.Price,
		Quantity:  quantity,
	}
	o := domain.Order{
		ID:               uuid.NewString(),
		ShopID:           shop.ShopID,
		BuyerUserID:      buyerUserID,
		BuyerDisplayID:   domain.BuyerDisplayID(buyerUserID),
		Status:           domain.OrderPending,
		Items:            []domain.OrderItem{item},
		Total:            item.Subtotal(),
		QuestionResponse: answer(product, questionResponse),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.Orders.Create(ctx, o); err != nil {
		return domain.Order{}, fmt.Errorf("create order: %w", err)
	}

	s.Log.Info("order created",
		zap.String("order_id", o.ID),
		zap.String("shop_id", o.ShopID),
		zap.String("buyer", o.BuyerDisplayID),
		zap.Int64("total", o.Total))
	publish(ctx, s.Notifier, s.Log, event(notify.EventOrderCreated, shop, o, now))
	return o, nil
}

func (s *AdmissionService) checkDailyLimit(ctx context.Context, buyerUserID string, now time.Time) error {
	if s.DailyLimit <= 0 {
		return nil
	}
	n, err := s.Orders.CountByBuyerSince(ctx, buyerUserID, StartOfDay(now, s.Location))
	if err != nil {
		return fmt.Errorf("count buyer orders: %w", err)
	}
	if n >= s.DailyLimit {
		return domain.New(domain.KindDailyLimitExceeded,
			fmt.Sprintf("daily limit of %d orders reached", s.DailyLimit))
	}
	return nil
}

// StartOfDay is midnight of t's calendar day in loc (nil means time.Local).
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	t = t.In(loc)
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// answer keeps the buyer's reply only when the product asks a question.
func answer(p domain.Product, resp *string) *string {
	if !p.QuestionEnabled || resp == nil {
		return nil
	}
	s := validate.Clip(strings.TrimSpace(*resp), validate.MaxQuestionResponse)
	if s == "" {
		return nil
	}
	return &s
}
