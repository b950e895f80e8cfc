package notify

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"minishop/internal/domain"
)

type EventType string

const (
	EventOrderCreated     EventType = "order.created.v1"
	EventOrderAccepted    EventType = "order.accepted.v1"
	EventOrderCanceled    EventType = "order.canceled.v1"
	EventContactRequested EventType = "order.contact_requested.v1"
	EventContactRelayed   EventType = "order.contact_relayed.v1"
)

// Event is one post-commit fact about an order. Shop and Order are snapshots taken
// after the change; Message is set only for relayed contact text.
type Event struct {
	ID         string
	Type       EventType
	OccurredAt time.Time
	Shop       domain.Shop
	Order      domain.Order
	Message    string
}

func NewEvent(t EventType, shop domain.Shop, order domain.Order, now time.Time) Event {
	return Event{ID: uuid.NewString(), Type: t, OccurredAt: now, Shop: shop, Order: order}
}

// Notifier delivers events to people or systems outside the transaction.
// Callers log a returned error; it never changes the outcome of the order operation.
type Notifier interface {
	Notify(ctx context.Context, e Event) error
}

type NotifierFunc func(ctx context.Context, e Event) error

func (f NotifierFunc) Notify(ctx context.Context, e Event) error { return f(ctx, e) }

// Nop drops every event.
type Nop struct{}

func (Nop) Notify(context.Context, Event) error { return nil }

// Multi fans an event out to every notifier, even after one fails.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, e Event) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
