package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"minishop/internal/domain"
	"minishop/internal/notify"
)

// publish runs after commit. A failed delivery is logged and otherwise ignored.
func publish(ctx context.Context, n notify.Notifier, logger *zap.Logger, e notify.Event) {
	if n == nil {
		return
	}
	if err := n.Notify(ctx, e); err != nil {
		logger.Warn("notification failed",
			zap.String("event", string(e.Type)),
			zap.String("order_id", e.Order.ID),
			zap.String("shop_id", e.Shop.ShopID),
			zap.Error(err))
	}
}

func event(t notify.EventType, shop domain.Shop, order domain.Order, now time.Time) notify.Event {
	return notify.NewEvent(t, shop, order, now)
}

func orDefaults(n notify.Notifier, logger *zap.Logger) (notify.Notifier, *zap.Logger) {
	if n == nil {
		n = notify.Nop{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return n, logger
}
