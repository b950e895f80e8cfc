package domain

import "time"

type ShopStatus string

const (
	ShopPreparing ShopStatus = "preparing"
	ShopOpen      ShopStatus = "open"
)

func (s ShopStatus) Valid() bool { return s == ShopPreparing || s == ShopOpen }

type Shop struct {
	OwnerUserID           string     `json:"ownerUserId"`
	ShopID                string     `json:"shopId"`
	Name                  string     `json:"name"`
	PurchaseMessage       string     `json:"purchaseMessage"`
	Status                ShopStatus `json:"status"`
	ContactPendingOrderID string     `json:"contactPendingOrderId,omitempty"`
	CreatedAt             time.Time  `json:"createdAt"`
	UpdatedAt             time.Time  `json:"updatedAt"`
}

func (s Shop) IsOpen() bool { return s.Status == ShopOpen }

// PublicShop is the buyer-facing view; it never exposes the owner id.
type PublicShop struct {
	ShopID string     `json:"shopId"`
	Name   string     `json:"name"`
	Status ShopStatus `json:"status"`
}

func (s Shop) Public() PublicShop {
	return PublicShop{ShopID: s.ShopID, Name: s.Name, Status: s.Status}
}

type Product struct {
	ID              string    `json:"id"`
	ShopID          string    `json:"shopId"`
	Name            string    `json:"name"`
	Description     string    `json:"description"`
	Price           int64     `json:"price"` // whole yen
	Inventory       int       `json:"inventory"`
	ImageURL        string    `json:"imageUrl,omitempty"`
	QuestionEnabled bool      `json:"questionEnabled"`
	QuestionText    string    `json:"questionText,omitempty"`
	IsArchived      bool      `json:"isArchived"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// ProductInput carries the editable fields of a product. Nil pointers mean "leave unchanged".
type ProductInput struct {
	Name            *string `json:"name"`
	Description     *string `json:"description"`
	Price           *int64  `json:"price"`
	Inventory       *int    `json:"inventory"`
	ImageURL        *string `json:"imageUrl"`
	QuestionEnabled *bool   `json:"questionEnabled"`
	QuestionText    *string `json:"questionText"`
}

// Availability is the buyer-facing stock signal; exact counts below the low-stock
// threshold are still shown so buyers can pick a valid quantity.
type Availability struct {
	Status string `json:"status"` // IN_STOCK | LOW_STOCK | OUT_OF_STOCK
	Qty    int    `json:"qty"`
}

const lowStockThreshold = 5

func AvailabilityFor(qty int) Availability {
	status := "OUT_OF_STOCK"
	switch {
	case qty >= lowStockThreshold:
		status = "IN_STOCK"
	case qty > 0:
		status = "LOW_STOCK"
	}
	return Availability{Status: status, Qty: qty}
}
