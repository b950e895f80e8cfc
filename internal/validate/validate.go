package validate

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	MaxMemo             = 2000
	MaxQuestionResponse = 500
	MaxContactMessage   = 1000
	MaxShopName         = 50
	MaxProductName      = 80
	MaxDescription      = 2000
	MaxPurchaseMessage  = 1000
	MaxQuantity         = 99
	MaxStock            = 1_000_000
)

var (
	reID     = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)
	reShopID = regexp.MustCompile(`^[2-9a-z]{6}$`)
	reURL    = regexp.MustCompile(`^https://[^\s]{1,500}$`)
)

// ID validates a resource identifier (product/order ids).
func ID(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, s != "" && reID.MatchString(s)
}

// ShopID validates the public 6-character shop identifier.
func ShopID(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, reShopID.MatchString(s)
}

// Text trims s and requires 1..max runes.
func Text(s string, max int) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" || utf8.RuneCountInString(s) > max {
		return "", false
	}
	return s, true
}

// OptionalText trims s and allows empty values up to max runes.
func OptionalText(s string, max int) (string, bool) {
	s = strings.TrimSpace(s)
	return s, utf8.RuneCountInString(s) <= max
}

// Clip cuts s to at most max runes.
func Clip(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max])
}

// ShopName validates a displayable shop name.
func ShopName(s string) (string, bool) { return Text(s, MaxShopName) }

// ProductName validates a displayable product name.
func ProductName(s string) (string, bool) { return Text(s, MaxProductName) }

// Memo is the owner's free-text note; overlong input is truncated, not rejected.
func Memo(s string) string { return Clip(s, MaxMemo) }

// ImageURL accepts empty or an https URL.
func ImageURL(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, s == "" || reURL.MatchString(s)
}

// Qty reports whether n is an orderable quantity. Zero and negatives are left to the
// admission rules, which answer them with InvalidQuantity.
func Qty(n int) bool { return n <= MaxQuantity }

// Delta bounds a single stock adjustment in either direction.
func Delta(d int) bool { return d >= -MaxStock && d <= MaxStock }

// Bearer extracts the token from an Authorization header value.
func Bearer(h string) (string, bool) {
	const prefix = "Bearer "
	if len(h) <= len(prefix) || !strings.EqualFold(h[:len(prefix)], prefix) {
		return "", false
	}
	tok := strings.TrimSpace(h[len(prefix):])
	return tok, tok != ""
}
