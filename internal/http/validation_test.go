package handlers_test

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"minishop/internal/domain"
)

func TestValidation_RejectsMalformedInput(t *testing.T) {
	ta := newTestApp(t, quietRoutes())
	shopID, productID := ta.openShopWithProduct(t, "owner", 300, 3)

	cases := []struct {
		name   string
		method string
		path   string
		token  string
		body   any
	}{
		{"bad json", http.MethodPost, "/api/public/orders", "", `{"shopId":`},
		{"bad shop id", http.MethodPost, "/api/public/orders", "", map[string]any{
			"shopId": "ABC!", "productId": productID, "quantity": 1, "buyerIdToken": "tok-b"}},
		{"missing product", http.MethodPost, "/api/public/orders", "", map[string]any{
			"shopId": shopID, "quantity": 1, "buyerIdToken": "tok-b"}},
		{"missing buyer token", http.MethodPost, "/api/public/orders", "", map[string]any{
			"shopId": shopID, "productId": productID, "quantity": 1}},
		{"quantity too large", http.MethodPost, "/api/public/orders", "", map[string]any{
			"shopId": shopID, "productId": productID, "quantity": 1000, "buyerIdToken": "tok-b"}},
		{"unknown action", http.MethodPost, "/api/orders/abc", "tok-owner", map[string]any{"action": "ship"}},
		{"bad order id", http.MethodGet, "/api/orders/" + strings.Repeat("x", 70), "tok-owner", nil},
		{"missing delta", http.MethodPost, "/api/products/" + productID + "/inventory", "tok-owner", map[string]any{}},
		{"delta out of range", http.MethodPost, "/api/products/" + productID + "/inventory", "tok-owner",
			map[string]any{"delta": 9223372036854775807}},
		{"bad shop status", http.MethodPatch, "/api/shop", "tok-owner", map[string]any{"status": "closed"}},
		{"blank shop name", http.MethodPut, "/api/shop", "tok-owner", map[string]any{"name": " ", "purchaseMessage": "x"}},
		{"missing id token", http.MethodPost, "/api/session", "", map[string]any{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, body := ta.do(t, tc.method, tc.path, tc.token, tc.body)
			assert.Equal(t, http.StatusBadRequest, status, body["_raw"])
			assert.NotEmpty(t, body["error"])
		})
	}

	assert.NotEmpty(t, ta.logs.FilterMessage("validation.fail").All())
}

func TestValidation_QuestionResponseIsStoredOnlyWhenAsked(t *testing.T) {
	ta := newTestApp(t, quietRoutes())
	status, body := ta.do(t, http.MethodPost, "/api/session", "", map[string]any{"idToken": "tok-owner"})
	require.Equal(t, http.StatusOK, status)
	shopID := body["shop"].(map[string]any)["shopId"].(string)

	status, body = ta.do(t, http.MethodPost, "/api/products", "tok-owner", map[string]any{
		"name": "Print", "price": 800, "inventory": 2, "questionEnabled": true, "questionText": "Size?",
	})
	require.Equal(t, http.StatusCreated, status, body["_raw"])
	productID := body["product"].(map[string]any)["id"].(string)
	status, _ = ta.do(t, http.MethodPatch, "/api/shop", "tok-owner", map[string]any{"status": "open"})
	require.Equal(t, http.StatusOK, status)

	status, body = ta.do(t, http.MethodGet, "/api/public/shops/"+shopID+"/products", "", nil)
	require.Equal(t, http.StatusOK, status)
	products := body["products"].([]any)
	require.Len(t, products, 1)
	pub := products[0].(map[string]any)
	assert.Equal(t, "Size?", pub["questionText"])
	assert.NotContains(t, pub, "inventory")
	assert.Equal(t, "LOW_STOCK", pub["availability"].(map[string]any)["status"])

	status, body = ta.do(t, http.MethodPost, "/api/public/orders", "", map[string]any{
		"shopId": shopID, "productId": productID, "quantity": 1, "buyerIdToken": "tok-b",
		"questionResponse": "  A4  ",
	})
	require.Equal(t, http.StatusCreated, status, body["_raw"])
	assert.Equal(t, "A4", body["order"].(map[string]any)["questionResponse"])
}

func TestValidation_DailyLimitReturns429(t *testing.T) {
	ta := newTestApp(t, quietRoutes())
	shopID, productID := ta.openShopWithProduct(t, "owner", 100, 50)

	for i := 0; i < 10; i++ {
		status, body := ta.placeOrder(t, shopID, productID, "eager", 1)
		require.Equal(t, http.StatusCreated, status, body["_raw"])
	}
	status, body := ta.placeOrder(t, shopID, productID, "eager", 1)
	assert.Equal(t, http.StatusTooManyRequests, status)
	assert.Equal(t, string(domain.KindDailyLimitExceeded), body["code"])

	status, _ = ta.placeOrder(t, shopID, productID, "someone-else", 1)
	assert.Equal(t, http.StatusCreated, status)
}
