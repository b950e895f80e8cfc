package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"minishop/internal/auth"
	"minishop/internal/config"
	"minishop/internal/domain"
	"minishop/internal/http/handlers"
	"minishop/internal/notify"
	"minishop/internal/repos"
)

// fakeVerifier accepts "tok-<subject>" and rejects everything else.
type fakeVerifier struct{}

func (fakeVerifier) Verify(_ context.Context, idToken string) (auth.Identity, error) {
	const prefix = "tok-"
	if len(idToken) <= len(prefix) || idToken[:len(prefix)] != prefix {
		return auth.Identity{}, domain.New(domain.KindUnauthorized, "unknown token")
	}
	sub := idToken[len(prefix):]
	return auth.Identity{Subject: sub, Name: "User " + sub}, nil
}

type testApp struct {
	app    *fiber.App
	db     *sqlx.DB
	logs   *observer.ObservedLogs
	mu     sync.Mutex
	events []notify.Event
}

func (ta *testApp) eventTypes() []notify.EventType {
	ta.mu.Lock()
	defer ta.mu.Unlock()
	out := make([]notify.EventType, 0, len(ta.events))
	for _, e := range ta.events {
		out = append(out, e.Type)
	}
	return out
}

func newTestApp(t *testing.T, rc handlers.RouteConfig) *testApp {
	t.Helper()
	db, err := repos.OpenDB(repos.DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	core, logs := observer.New(zapcore.DebugLevel)
	logger := zap.New(core)

	ta := &testApp{db: db, logs: logs}
	n := notify.NotifierFunc(func(_ context.Context, e notify.Event) error {
		ta.mu.Lock()
		defer ta.mu.Unlock()
		ta.events = append(ta.events, e)
		return nil
	})

	cfg := config.Config{DailyOrderLimit: 10, DailyLimitTZ: "UTC"}
	deps := handlers.NewDeps(db, cfg, fakeVerifier{}, n, logger)
	rc.AccessLog = false
	ta.app = handlers.NewApp(deps, rc)
	return ta
}

func quietRoutes() handlers.RouteConfig {
	rc := handlers.DefaultRouteConfig()
	rc.GlobalMax = 0
	rc.OrderMax = 0
	rc.SessionMax = 0
	return rc
}

// do sends a JSON request; token "" sends no Authorization header.
func (ta *testApp) do(t *testing.T, method, path, token string, body any) (int, map[string]any) {
	t.Helper()
	var rdr io.Reader
	if body != nil {
		switch b := body.(type) {
		case string:
			rdr = bytes.NewBufferString(b)
		default:
			raw, err := json.Marshal(b)
			require.NoError(t, err)
			rdr = bytes.NewReader(raw)
		}
	}
	req := httptest.NewRequest(method, path, rdr)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	resp, err := ta.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := map[string]any{}
	if len(raw) > 0 && resp.Header.Get(fiber.HeaderContentType) != "" {
		_ = json.Unmarshal(raw, &out)
	}
	if out["_raw"] == nil {
		out["_raw"] = string(raw)
	}
	return resp.StatusCode, out
}

// openShopWithProduct creates the owner's shop, one product and opens the shop.
func (ta *testApp) openShopWithProduct(t *testing.T, owner string, price, inventory int) (shopID, productID string) {
	t.Helper()
	tok := "tok-" + owner
	status, body := ta.do(t, http.MethodPost, "/api/session", "", map[string]any{"idToken": tok})
	require.Equal(t, http.StatusOK, status, body["_raw"])
	shopID = body["shop"].(map[string]any)["shopId"].(string)

	status, body = ta.do(t, http.MethodPost, "/api/products", tok,
		map[string]any{"name": "Mug", "price": price, "inventory": inventory})
	require.Equal(t, http.StatusCreated, status, body["_raw"])
	productID = body["product"].(map[string]any)["id"].(string)

	status, body = ta.do(t, http.MethodPatch, "/api/shop", tok, map[string]any{"status": "open"})
	require.Equal(t, http.StatusOK, status, body["_raw"])
	return shopID, productID
}

func (ta *testApp) placeOrder(t *testing.T, shopID, productID, buyer string, qty int) (int, map[string]any) {
	t.Helper()
	return ta.do(t, http.MethodPost, "/api/public/orders", "", map[string]any{
		"shopId": shopID, "productId": productID, "quantity": qty, "buyerIdToken": "tok-" + buyer,
	})
}
