package domain

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindNotFound                Kind = "NOT_FOUND"
	KindForbidden               Kind = "FORBIDDEN"
	KindUnauthorized            Kind = "UNAUTHORIZED"
	KindInvalid                 Kind = "INVALID"
	KindInvalidState            Kind = "INVALID_STATE"
	KindInvalidQuantity         Kind = "INVALID_QUANTITY"
	KindOutOfStock              Kind = "OUT_OF_STOCK"
	KindInsufficientInventory   Kind = "INSUFFICIENT_INVENTORY"
	KindMissingProductReference Kind = "MISSING_PRODUCT_REFERENCE"
	KindShopClosed              Kind = "SHOP_CLOSED"
	KindDailyLimitExceeded      Kind = "DAILY_LIMIT_EXCEEDED"
)

// Error is a business-rule failure. Two errors match under errors.Is when their kinds match.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = UserMessage(e.Kind)
	}
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, msg, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, msg)
}

func (e *Error) Unwrap() error { return e.Cause }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

var (
	ErrNotFound                = &Error{Kind: KindNotFound}
	ErrForbidden               = &Error{Kind: KindForbidden}
	ErrUnauthorized            = &Error{Kind: KindUnauthorized}
	ErrInvalid                 = &Error{Kind: KindInvalid}
	ErrInvalidState            = &Error{Kind: KindInvalidState}
	ErrInvalidQuantity         = &Error{Kind: KindInvalidQuantity}
	ErrOutOfStock              = &Error{Kind: KindOutOfStock}
	ErrInsufficientInventory   = &Error{Kind: KindInsufficientInventory}
	ErrMissingProductReference = &Error{Kind: KindMissingProductReference}
	ErrShopClosed              = &Error{Kind: KindShopClosed}
	ErrDailyLimitExceeded      = &Error{Kind: KindDailyLimitExceeded}
)

func New(kind Kind, message string) *Error { return &Error{Kind: kind, Message: message} }

func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// KindOf returns the kind of the first domain error in err's chain, or "" for infrastructure errors.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}

var userMessages = map[Kind]string{
	KindNotFound:                "not found",
	KindForbidden:               "you do not have access to this resource",
	KindUnauthorized:            "authentication required",
	KindInvalid:                 "invalid input",
	KindInvalidState:            "only pending orders can be changed",
	KindInvalidQuantity:         "quantity must be at least 1",
	KindOutOfStock:              "this item is out of stock",
	KindInsufficientInventory:   "not enough stock for this quantity",
	KindMissingProductReference: "the order does not reference an existing product",
	KindShopClosed:              "this shop is not accepting that action right now",
	KindDailyLimitExceeded:      "daily purchase limit reached",
}

// UserMessage is the stable user-facing text for a kind.
func UserMessage(kind Kind) string {
	if m, ok := userMessages[kind]; ok {
		return m
	}
	return "something went wrong, please try again"
}
