package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"minishop/internal/domain"
	"minishop/internal/notify"
	"minishop/internal/repos"
	"minishop/internal/validate"
)

// OrderService owns the order lifecycle after admission: pending -> accepted | canceled,
// plus the administrative fields and the one-shot contact relay.
type OrderService struct {
	DB       *sqlx.DB
	Shops    *repos.ShopRepo
	Products *repos.ProductRepo
	Inv      *repos.InventoryRepo
	Orders   *repos.OrderRepo
	Notifier notify.Notifier
	Log      *zap.Logger
	Now      func() time.Time
}

func NewOrderService(db *sqlx.DB, shops *repos.ShopRepo, prods *repos.ProductRepo, inv *repos.InventoryRepo,
	orders *repos.OrderRepo, n notify.Notifier, logger *zap.Logger) *OrderService {
	n, logger = orDefaults(n, logger)
	return &OrderService{
		DB: db, Shops: shops, Products: prods, Inv: inv, Orders: orders,
		Notifier: n, Log: logger, Now: time.Now,
	}
}

func ownedBy(o domain.Order, shopID string) error {
	if o.ShopID != shopID {
		return domain.New(domain.KindForbidden, "order belongs to another shop")
	}
	return nil
}

func (s *OrderService) List(ctx context.Context, shopID string, status domain.OrderStatus, limit int) ([]domain.Order, error) {
	if status != "" && !status.Valid() {
		return nil, domain.New(domain.KindInvalid, fmt.Sprintf("unknown status %q", status))
	}
	return s.Orders.ListByShop(ctx, shopID, status, limit)
}

func (s *OrderService) Get(ctx context.Context, shopID, orderID string) (domain.Order, error) {
	o, err := s.Orders.Get(ctx, orderID)
	if err != nil {
		return domain.Order{}, err
	}
	if err := ownedBy(o, shopID); err != nil {
		return domain.Order{}, err
	}
	return o, nil
}

// Accept decrements the ordered product's inventory and marks the order accepted in
// one transaction. Any failure leaves both the order and the product untouched.
func (s *OrderService) Accept(ctx context.Context, shop domain.Shop, orderID string) (domain.Order, error) {
	now := s.Now()
	var out domain.Order
	err := repos.WithTx(ctx, s.DB, func(tx *sqlx.Tx) error {
		o, err := s.Orders.GetTx(ctx, tx, orderID)
		if err != nil {
			return err
		}
		if err := ownedBy(o, shop.ShopID); err != nil {
			return err
		}
		if !o.CanTransitionTo(domain.OrderAccepted) {
			return domain.New(domain.KindInvalidState, fmt.Sprintf("order is %s", o.Status))
		}

		item, ok := o.PrimaryItem()
		if !ok || item.ProductID == "" {
			return domain.New(domain.KindMissingProductReference, "order has no product reference")
		}
		if item.Quantity <= 0 {
			return domain.New(domain.KindInvalidQuantity, "order quantity must be at least 1")
		}
		p, err := s.Products.GetTx(ctx, tx, item.ProductID)
		if errors.Is(err, domain.ErrNotFound) || (err == nil && p.ShopID != o.ShopID) {
			return domain.Wrap(domain.KindMissingProductReference, "ordered product no longer exists", err)
		}
		if err != nil {
			return err
		}

		if err := s.Orders.TransitionTx(ctx, tx, o.ID, domain.OrderAccepted, now); err != nil {
			return err
		}
		if _, err := s.Inv.AdjustTx(ctx, tx, item.ProductID, -item.Quantity, now); err != nil {
			return err
		}
		o.TransitionTo(domain.OrderAccepted, now)
		out = o
		return nil
	})
	if err != nil {
		return domain.Order{}, err
	}

	s.Log.Info("order accepted", zap.String("order_id", out.ID), zap.String("shop_id", shop.ShopID))
	publish(ctx, s.Notifier, s.Log, event(notify.EventOrderAccepted, shop, out, now))
	return out, nil
}

// Cancel moves a pending order to canceled. Nothing was reserved at admission, so
// there is no inventory to give back.
func (s *OrderService) Cancel(ctx context.Context, shop domain.Shop, orderID string) (domain.Order, error) {
	now := s.Now()
	var out domain.Order
	err := repos.WithTx(ctx, s.DB, func(tx *sqlx.Tx) error {
		o, err := s.Orders.GetTx(ctx, tx, orderID)
		if err != nil {
			return err
		}
		if err := ownedBy(o, shop.ShopID); err != nil {
			return err
		}
		if !o.CanTransitionTo(domain.OrderCanceled) {
			return domain.New(domain.KindInvalidState, fmt.Sprintf("order is %s", o.Status))
		}
		if err := s.Orders.TransitionTx(ctx, tx, o.ID, domain.OrderCanceled, now); err != nil {
			return err
		}
		o.TransitionTo(domain.OrderCanceled, now)
		out = o
		return nil
	})
	if err != nil {
		return domain.Order{}, err
	}

	s.Log.Info("order canceled", zap.String("order_id", out.ID), zap.String("shop_id", shop.ShopID))
	publish(ctx, s.Notifier, s.Log, event(notify.EventOrderCanceled, shop, out, now))
	return out, nil
}

// UpdateMeta edits memo and closed in any status; only ownership is checked.
func (s *OrderService) UpdateMeta(ctx context.Context, shopID, orderID string, meta domain.OrderMeta) (domain.Order, error) {
	if _, err := s.Get(ctx, shopID, orderID); err != nil {
		return domain.Order{}, err
	}
	if meta.Memo != nil {
		memo := validate.Memo(*meta.Memo)
		meta.Memo = &memo
	}
	if err := s.Orders.UpdateMeta(ctx, orderID, meta, s.Now()); err != nil {
		return domain.Order{}, fmt.Errorf("update order meta: %w", err)
	}
	return s.Orders.Get(ctx, orderID)
}

// RequestContact opens a one-message channel from the owner to the order's buyer.
// A later request replaces an earlier one that was never used.
func (s *OrderService) RequestContact(ctx context.Context, shop domain.Shop, orderID string) (domain.Order, error) {
	now := s.Now()
	var out domain.Order
	err := repos.WithTx(ctx, s.DB, func(tx *sqlx.Tx) error {
		o, err := s.Orders.GetTx(ctx, tx, orderID)
		if err != nil {
			return err
		}
		if err := ownedBy(o, shop.ShopID); err != nil {
			return err
		}
		if err := s.Orders.SetContactPendingTx(ctx, tx, o.ID, true, now); err != nil {
			return err
		}
		if err := s.Shops.SetContactPendingOrderTx(ctx, tx, shop.OwnerUserID, o.ID, now); err != nil {
			return err
		}
		o.ContactPending = true
		o.UpdatedAt = now
		out = o
		return nil
	})
	if err != nil {
		return domain.Order{}, err
	}

	shop.ContactPendingOrderID = out.ID
	publish(ctx, s.Notifier, s.Log, event(notify.EventContactRequested, shop, out, now))
	return out, nil
}

// RelayContact sends the owner's message to the buyer of the pending contact order and
// consumes the request. A stale pointer (order gone or moved) is cleared and reported
// as NotFound; an empty message leaves the request open.
func (s *OrderService) RelayContact(ctx context.Context, ownerUserID, message string) (domain.Order, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return domain.Order{}, domain.New(domain.KindInvalid, "message is empty")
	}
	message = validate.Clip(message, validate.MaxContactMessage)

	shop, err := s.Shops.ByOwner(ctx, ownerUserID)
	if err != nil {
		return domain.Order{}, err
	}
	if shop.ContactPendingOrderID == "" {
		return domain.Order{}, domain.New(domain.KindNotFound, "no contact request is pending")
	}

	now := s.Now()
	o, err := s.Orders.Get(ctx, shop.ContactPendingOrderID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return domain.Order{}, err
	}
	if err != nil || o.ShopID != shop.ShopID {
		if clearErr := s.Shops.SetContactPendingOrder(ctx, ownerUserID, "", now); clearErr != nil {
			return domain.Order{}, clearErr
		}
		return domain.Order{}, domain.New(domain.KindNotFound, "pending contact order no longer exists")
	}

	err = repos.WithTx(ctx, s.DB, func(tx *sqlx.Tx) error {
		if err := s.Orders.SetContactPendingTx(ctx, tx, o.ID, false, now); err != nil {
			return err
		}
		return s.Shops.SetContactPendingOrderTx(ctx, tx, ownerUserID, "", now)
	})
	if err != nil {
		return domain.Order{}, err
	}
	o.ContactPending = false
	o.UpdatedAt = now
	shop.ContactPendingOrderID = ""

	e := event(notify.EventContactRelayed, shop, o, now)
	e.Message = message
	publish(ctx, s.Notifier, s.Log, e)
	return o, nil
}
