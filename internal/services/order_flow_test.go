package services_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"minishop/internal/domain"
	"minishop/internal/notify"
)

func TestOrderFlow_CreateThenAccept(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	shop := e.openShop(t, "owner-1")
	p := e.product(t, shop, "mug", 500, 3)

	o, err := e.admission.CreatePendingOrder(ctx, shop, p, 2, "buyer-1", nil)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderPending, o.Status)
	assert.Equal(t, int64(1000), o.Total)
	assert.Equal(t, domain.BuyerDisplayID("buyer-1"), o.BuyerDisplayID)
	require.Len(t, o.Items, 1)
	assert.Equal(t, domain.OrderItem{ProductID: p.ID, Name: "mug", UnitPrice: 500, Quantity: 2}, o.Items[0])
	assert.Equal(t, 3, e.qty(t, p.ID), "creation must not touch inventory")

	accepted, err := e.orderSvc.Accept(ctx, shop, o.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderAccepted, accepted.Status)
	require.NotNil(t, accepted.AcceptedAt)
	assert.Equal(t, 1, e.qty(t, p.ID))

	stored, err := e.orders.Get(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderAccepted, stored.Status)
	require.NotNil(t, stored.AcceptedAt)
	assert.True(t, stored.AcceptedAt.Equal(e.now))

	assert.Equal(t, []notify.EventType{notify.EventOrderCreated, notify.EventOrderAccepted}, e.notes.types())
}

func TestOrderFlow_SecondAcceptLosesRace(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	shop := e.openShop(t, "owner-1")
	p := e.product(t, shop, "card", 300, 1)

	o1, err := e.admission.CreatePendingOrder(ctx, shop, p, 1, "buyer-1", nil)
	require.NoError(t, err)
	o2, err := e.admission.CreatePendingOrder(ctx, shop, p, 1, "buyer-2", nil)
	require.NoError(t, err)

	_, err = e.orderSvc.Accept(ctx, shop, o1.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, e.qty(t, p.ID))

	_, err = e.orderSvc.Accept(ctx, shop, o2.ID)
	require.ErrorIs(t, err, domain.ErrInsufficientInventory)

	stored, err := e.orders.Get(ctx, o2.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderPending, stored.Status, "failed accept must leave the order pending")
	assert.Nil(t, stored.AcceptedAt)
	assert.Equal(t, 0, e.qty(t, p.ID))
}

func TestOrderFlow_CancelKeepsInventory(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	shop := e.openShop(t, "owner-1")
	p := e.product(t, shop, "pin", 200, 5)

	o, err := e.admission.CreatePendingOrder(ctx, shop, p, 2, "buyer-1", nil)
	require.NoError(t, err)

	canceled, err := e.orderSvc.Cancel(ctx, shop, o.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderCanceled, canceled.Status)
	require.NotNil(t, canceled.CanceledAt)
	assert.Equal(t, 5, e.qty(t, p.ID))
}

func TestOrderFlow_TerminalStatesAreFinal(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	shop := e.openShop(t, "owner-1")
	p := e.product(t, shop, "zine", 800, 4)

	o, err := e.admission.CreatePendingOrder(ctx, shop, p, 1, "buyer-1", nil)
	require.NoError(t, err)
	_, err = e.orderSvc.Accept(ctx, shop, o.ID)
	require.NoError(t, err)

	_, err = e.orderSvc.Accept(ctx, shop, o.ID)
	require.ErrorIs(t, err, domain.ErrInvalidState)
	_, err = e.orderSvc.Cancel(ctx, shop, o.ID)
	require.ErrorIs(t, err, domain.ErrInvalidState)
	assert.Equal(t, 3, e.qty(t, p.ID), "re-accept must not decrement again")

	c, err := e.admission.CreatePendingOrder(ctx, shop, p, 1, "buyer-1", nil)
	require.NoError(t, err)
	_, err = e.orderSvc.Cancel(ctx, shop, c.ID)
	require.NoError(t, err)
	_, err = e.orderSvc.Accept(ctx, shop, c.ID)
	require.ErrorIs(t, err, domain.ErrInvalidState)
	assert.Equal(t, 3, e.qty(t, p.ID))
}

func TestOrderFlow_ConcurrentAcceptOfSameOrder(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	shop := e.openShop(t, "owner-1")
	p := e.product(t, shop, "print", 1000, 10)

	o, err := e.admission.CreatePendingOrder(ctx, shop, p, 3, "buyer-1", nil)
	require.NoError(t, err)

	const workers = 8
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = e.orderSvc.Accept(ctx, shop, o.ID)
		}(i)
	}
	wg.Wait()

	var ok int
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		require.ErrorIs(t, err, domain.ErrInvalidState)
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 7, e.qty(t, p.ID))
}

func TestOrderFlow_OwnershipAndLookups(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	shop := e.openShop(t, "owner-1")
	other := e.openShop(t, "owner-2")
	p := e.product(t, shop, "sticker", 100, 9)

	o, err := e.admission.CreatePendingOrder(ctx, shop, p, 1, "buyer-1", nil)
	require.NoError(t, err)

	_, err = e.orderSvc.Accept(ctx, other, o.ID)
	require.ErrorIs(t, err, domain.ErrForbidden)
	_, err = e.orderSvc.Cancel(ctx, other, o.ID)
	require.ErrorIs(t, err, domain.ErrForbidden)
	_, err = e.orderSvc.Get(ctx, other.ShopID, o.ID)
	require.ErrorIs(t, err, domain.ErrForbidden)
	_, err = e.orderSvc.Accept(ctx, shop, "missing")
	require.ErrorIs(t, err, domain.ErrNotFound)

	list, err := e.orderSvc.List(ctx, shop.ShopID, domain.OrderPending, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	_, err = e.orderSvc.List(ctx, shop.ShopID, "shipped", 0)
	require.ErrorIs(t, err, domain.ErrInvalid)
}

func TestOrderFlow_MissingProductReference(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	shop := e.openShop(t, "owner-1")

	o := domain.Order{
		ID: "legacy-1", ShopID: shop.ShopID, BuyerUserID: "b", BuyerDisplayID: "x",
		Status: domain.OrderPending,
		Items:  []domain.OrderItem{{ProductID: "gone", Name: "old", UnitPrice: 100, Quantity: 1}},
		Total:  100, CreatedAt: e.now, UpdatedAt: e.now,
	}
	require.NoError(t, e.orders.Create(ctx, o))

	_, err := e.orderSvc.Accept(ctx, shop, o.ID)
	require.ErrorIs(t, err, domain.ErrMissingProductReference)

	noRef := o
	noRef.ID = "legacy-2"
	noRef.Items = []domain.OrderItem{{Name: "old", UnitPrice: 100, Quantity: 1}}
	require.NoError(t, e.orders.Create(ctx, noRef))
	_, err = e.orderSvc.Accept(ctx, shop, noRef.ID)
	require.ErrorIs(t, err, domain.ErrMissingProductReference)

	stored, err := e.orders.Get(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderPending, stored.Status)
}

func TestOrderFlow_NotificationFailureDoesNotFailAccept(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	shop := e.openShop(t, "owner-1")
	p := e.product(t, shop, "badge", 250, 2)

	o, err := e.admission.CreatePendingOrder(ctx, shop, p, 1, "buyer-1", nil)
	require.NoError(t, err)

	e.notes.fail = errors.New("line down")
	accepted, err := e.orderSvc.Accept(ctx, shop, o.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderAccepted, accepted.Status)
	assert.Equal(t, 1, e.qty(t, p.ID))

	warned := e.logs.FilterMessage("notification failed").All()
	require.Len(t, warned, 1)
	assert.Equal(t, string(notify.EventOrderAccepted), warned[0].ContextMap()["event"])
}

func TestOrderFlow_UpdateMeta(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	shop := e.openShop(t, "owner-1")
	p := e.product(t, shop, "bag", 900, 2)

	o, err := e.admission.CreatePendingOrder(ctx, shop, p, 1, "buyer-1", nil)
	require.NoError(t, err)
	_, err = e.orderSvc.Cancel(ctx, shop, o.ID)
	require.NoError(t, err)

	long := make([]rune, 2100)
	for i := range long {
		long[i] = 'a'
	}
	updated, err := e.orderSvc.UpdateMeta(ctx, shop.ShopID, o.ID, domain.OrderMeta{Memo: ptr(string(long)), Closed: ptr(true)})
	require.NoError(t, err)
	assert.Len(t, updated.Memo, 2000)
	assert.True(t, updated.Closed)
	assert.Equal(t, domain.OrderCanceled, updated.Status)

	updated, err = e.orderSvc.UpdateMeta(ctx, shop.ShopID, o.ID, domain.OrderMeta{Closed: ptr(false)})
	require.NoError(t, err)
	assert.False(t, updated.Closed)
	assert.Len(t, updated.Memo, 2000, "nil memo leaves it unchanged")

	_, err = e.orderSvc.UpdateMeta(ctx, "zzzzzz", o.ID, domain.OrderMeta{Closed: ptr(true)})
	require.ErrorIs(t, err, domain.ErrForbidden)
}

func TestOrderFlow_ContactRelay(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	shop := e.openShop(t, "owner-1")
	p := e.product(t, shop, "cap", 1200, 2)

	o, err := e.admission.CreatePendingOrder(ctx, shop, p, 1, "buyer-1", nil)
	require.NoError(t, err)

	_, err = e.orderSvc.RelayContact(ctx, "owner-1", "hello")
	require.ErrorIs(t, err, domain.ErrNotFound, "nothing pending yet")

	marked, err := e.orderSvc.RequestContact(ctx, shop, o.ID)
	require.NoError(t, err)
	assert.True(t, marked.ContactPending)

	got, err := e.shopSvc.Get(ctx, "owner-1")
	require.NoError(t, err)
	assert.Equal(t, o.ID, got.ContactPendingOrderID)

	_, err = e.orderSvc.RelayContact(ctx, "owner-1", "   ")
	require.ErrorIs(t, err, domain.ErrInvalid)
	got, err = e.shopSvc.Get(ctx, "owner-1")
	require.NoError(t, err)
	assert.Equal(t, o.ID, got.ContactPendingOrderID, "empty message keeps the request open")

	relayed, err := e.orderSvc.RelayContact(ctx, "owner-1", "Please pay by Friday")
	require.NoError(t, err)
	assert.False(t, relayed.ContactPending)

	got, err = e.shopSvc.Get(ctx, "owner-1")
	require.NoError(t, err)
	assert.Empty(t, got.ContactPendingOrderID)

	_, err = e.orderSvc.RelayContact(ctx, "owner-1", "again")
	require.ErrorIs(t, err, domain.ErrNotFound, "one message per request")

	last := e.notes.events[len(e.notes.events)-1]
	assert.Equal(t, notify.EventContactRelayed, last.Type)
	assert.Equal(t, "Please pay by Friday", last.Message)
}

func TestOrderFlow_ContactRelayStalePointer(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.openShop(t, "owner-1")
	require.NoError(t, e.shops.SetContactPendingOrder(ctx, "owner-1", "vanished", e.now))

	_, err := e.orderSvc.RelayContact(ctx, "owner-1", "hi")
	require.ErrorIs(t, err, domain.ErrNotFound)

	got, err := e.shopSvc.Get(ctx, "owner-1")
	require.NoError(t, err)
	assert.Empty(t, got.ContactPendingOrderID)
}

func TestOrderFlow_ListNewestFirst(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	shop := e.openShop(t, "owner-1")
	p := e.product(t, shop, "tee", 2500, 9)

	var ids []string
	for i := 0; i < 3; i++ {
		o, err := e.admission.CreatePendingOrder(ctx, shop, p, 1, "buyer-1", nil)
		require.NoError(t, err)
		ids = append(ids, o.ID)
		e.now = e.now.Add(time.Minute)
	}
	list, err := e.orderSvc.List(ctx, shop.ShopID, "", 2)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, ids[2], list[0].ID)
	assert.Equal(t, ids[1], list[1].ID)
}
