package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

type OrderStatus string

const (
	OrderPending  OrderStatus = "pending"
	OrderAccepted OrderStatus = "accepted"
	OrderCanceled OrderStatus = "canceled"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPending, OrderAccepted, OrderCanceled:
		return true
	}
	return false
}

// Terminal reports whether no further transition is possible.
func (s OrderStatus) Terminal() bool { return s == OrderAccepted || s == OrderCanceled }

var transitions = map[OrderStatus][]OrderStatus{
	OrderPending: {OrderAccepted, OrderCanceled},
}

// OrderItem is a point-in-time copy of the product at order creation.
type OrderItem struct {
	ProductID string `json:"productId,omitempty"`
	Name      string `json:"name"`
	UnitPrice int64  `json:"unitPrice"`
	Quantity  int    `json:"quantity"`
}

func (i OrderItem) Subtotal() int64 { return i.UnitPrice * int64(i.Quantity) }

type Order struct {
	ID               string      `json:"id"`
	ShopID           string      `json:"shopId"`
	BuyerUserID      string      `json:"-"`
	BuyerDisplayID   string      `json:"buyerDisplayId"`
	Status           OrderStatus `json:"status"`
	Items            []OrderItem `json:"items"`
	Total            int64       `json:"total"`
	QuestionResponse *string     `json:"questionResponse"`
	Memo             string      `json:"memo"`
	Closed           bool        `json:"closed"`
	ContactPending   bool        `json:"contactPending"`
	CreatedAt        time.Time   `json:"createdAt"`
	UpdatedAt        time.Time   `json:"updatedAt"`
	AcceptedAt       *time.Time  `json:"acceptedAt"`
	CanceledAt       *time.Time  `json:"canceledAt"`
}

func (o *Order) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range transitions[o.Status] {
		if allowed == next {
			return true
		}
	}
	return false
}

// TransitionTo moves the order to next and stamps the matching timestamps.
func (o *Order) TransitionTo(next OrderStatus, now time.Time) bool {
	if !o.CanTransitionTo(next) {
		return false
	}
	o.Status = next
	o.UpdatedAt = now
	switch next {
	case OrderAccepted:
		o.AcceptedAt = &now
	case OrderCanceled:
		o.CanceledAt = &now
	}
	return true
}

// PrimaryItem returns the single purchased line. Orders carry exactly one item.
func (o *Order) PrimaryItem() (OrderItem, bool) {
	if len(o.Items) == 0 {
		return OrderItem{}, false
	}
	return o.Items[0], true
}

func ItemsTotal(items []OrderItem) int64 {
	var total int64
	for _, it := range items {
		total += it.Subtotal()
	}
	return total
}

// BuyerDisplayID derives the pseudonymous buyer id shown to shop owners:
// the first 12 hex characters of sha256(buyerUserID).
func BuyerDisplayID(buyerUserID string) string {
	sum := sha256.Sum256([]byte(buyerUserID))
	return hex.EncodeToString(sum[:])[:12]
}

// OrderMeta is administrative metadata that may change in any status.
type OrderMeta struct {
	Memo   *string `json:"memo"`
	Closed *bool   `json:"closed"`
}
