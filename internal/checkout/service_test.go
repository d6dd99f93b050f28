package checkout

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gosbiromania/storefront-backend/internal/cart"
	"github.com/gosbiromania/storefront-backend/internal/orders"
	"github.com/gosbiromania/storefront-backend/internal/pricing"
	pkgerrors "github.com/gosbiromania/storefront-backend/pkg/errors"
	"github.com/gosbiromania/storefront-backend/pkg/logger"
	"github.com/gosbiromania/storefront-backend/pkg/types"
)

const customerID = "6f1c1f7e-8d7c-4a53-9a4e-2f1f4b0c9a10"

func TestSubmitPricesCartAndHandsItToOrders(t *testing.T) {
	h := newHarness(t)
	h.fill(t, map[string]int{"p-feed": 3, "p-gone": 2, "p-off": 1})

	receipt, err := h.svc.Submit(context.Background(), customerID)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), receipt.OrderNumber)

	require.Len(t, h.orders.inputs, 1)
	in := h.orders.inputs[0]
	assert.Equal(t, customerID, in.CustomerID)
	assert.Equal(t, "Ion Popescu", in.Client.Name)
	require.Len(t, in.Snapshot.Lines, 1)
	assert.Equal(t, "p-feed", in.Snapshot.Lines[0].ProductID)
	assert.Equal(t, "68.97", in.Snapshot.Total.StringFixed(2))

	store, err := h.carts.Open(context.Background(), customerID)
	require.NoError(t, err)
	assert.Equal(t, 0, store.ItemCount(), "order service clears the cart it was given")
}

func TestSubmitKeepsLinesAddedWhileOrdering(t *testing.T) {
	h := newHarness(t)
	h.fill(t, map[string]int{"p-feed": 3, "p-off": 1})
	h.orders.beforeClear = func() {
		other, err := h.carts.Open(context.Background(), customerID)
		require.NoError(t, err)
		_, err = other.SetQuantity(context.Background(), "p-new", 2)
		require.NoError(t, err)
	}

	_, err := h.svc.Submit(context.Background(), customerID)
	require.NoError(t, err)

	store, err := h.carts.Open(context.Background(), customerID)
	require.NoError(t, err)
	assert.Equal(t, []string{"p-new"}, store.Snapshot().ProductIDs())
	assert.Equal(t, 2, store.ItemCount())
}

func TestSubmitMissingCustomerTouchesNothing(t *testing.T) {
	h := newHarness(t)

	_, err := h.svc.Submit(context.Background(), "  ")
	require.Error(t, err)
	assert.True(t, errors.Is(err, orders.ErrMissingCustomer))
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeUnauthorized))
	assert.Zero(t, h.gate.calls)
	assert.Empty(t, h.orders.inputs)
}

func TestSubmitHiddenPricesRejected(t *testing.T) {
	h := newHarness(t)
	h.fill(t, map[string]int{"p-feed": 1})
	h.gate.err = pkgerrors.New(pkgerrors.CodeForbidden, "prices hidden")

	_, err := h.svc.Submit(context.Background(), customerID)
	require.Error(t, err)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeForbidden))
	assert.Empty(t, h.orders.inputs)
}

func TestSubmitEmptyAfterFilteringKeepsCart(t *testing.T) {
	h := newHarness(t)
	h.fill(t, map[string]int{"p-gone": 2, "p-off": 4})

	_, err := h.svc.Submit(context.Background(), customerID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, orders.ErrEmptyCart))
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeEmptyCart))
	assert.Empty(t, h.orders.inputs)

	store, err := h.carts.Open(context.Background(), customerID)
	require.NoError(t, err)
	assert.Equal(t, 6, store.ItemCount())
}

func TestSubmitOrderFailureKeepsCart(t *testing.T) {
	h := newHarness(t)
	h.fill(t, map[string]int{"p-feed": 2})
	h.orders.err = pkgerrors.New(pkgerrors.CodeTransactionConflict, "order could not be numbered")

	_, err := h.svc.Submit(context.Background(), customerID)
	require.Error(t, err)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeTransactionConflict))

	store, err := h.carts.Open(context.Background(), customerID)
	require.NoError(t, err)
	assert.Equal(t, 2, store.ItemCount())
}

func TestViewWithPrices(t *testing.T) {
	h := newHarness(t)
	store := h.fill(t, map[string]int{"p-feed": 3, "p-gone": 2, "p-off": 1})

	view, err := h.svc.View(context.Background(), customerID, store.Snapshot())
	require.NoError(t, err)
	assert.True(t, view.PricesVisible)
	assert.Equal(t, 6, view.ItemCount)
	require.NotNil(t, view.Total)
	assert.Equal(t, "68.97", view.Total.StringFixed(2))

	require.Len(t, view.Items, 3)
	feed := view.Items[0]
	assert.Equal(t, "p-feed", feed.ProductID)
	assert.True(t, feed.Available)
	require.NotNil(t, feed.UnitPriceFinal)
	assert.Equal(t, "22.99", feed.UnitPriceFinal.StringFixed(2))

	gone := view.Items[1]
	assert.Equal(t, "p-gone", gone.ProductID)
	assert.False(t, gone.Available)
	assert.Nil(t, gone.UnitPriceFinal)

	off := view.Items[2]
	assert.Equal(t, "Seminte vechi", off.Name)
	assert.False(t, off.Available)
	assert.Nil(t, off.LineTotal)
}

func TestViewHidesPricesForPendingCustomer(t *testing.T) {
	h := newHarness(t)
	store := h.fill(t, map[string]int{"p-feed": 1})
	h.gate.err = pkgerrors.New(pkgerrors.CodeForbidden, "prices hidden")

	view, err := h.svc.View(context.Background(), customerID, store.Snapshot())
	require.NoError(t, err)
	assert.False(t, view.PricesVisible)
	assert.Nil(t, view.Total)
	require.Len(t, view.Items, 1)
	assert.Equal(t, "Furaj", view.Items[0].Name)
	assert.Nil(t, view.Items[0].UnitPriceFinal)
}

func TestViewEmptyCart(t *testing.T) {
	h := newHarness(t)

	view, err := h.svc.View(context.Background(), customerID, cart.Snapshot{})
	require.NoError(t, err)
	assert.True(t, view.PricesVisible)
	assert.Empty(t, view.Items)
	assert.Nil(t, view.Total)
}

func TestNewServiceValidation(t *testing.T) {
	_, err := NewService(ServiceParams{})
	require.Error(t, err)
}

type harness struct {
	svc    Service
	carts  cart.Service
	gate   *stubGate
	orders *stubOrders
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	carts, err := cart.NewService(cart.ServiceParams{Slots: cart.MemorySlots(), Logger: logger.Nop()})
	require.NoError(t, err)

	gate := &stubGate{rule: types.PricingRule{GlobalMarkup: types.MarkupFromFloat(15)}}
	submitter := &stubOrders{}
	products := stubProducts{
		"p-feed": {Product: pricing.Product{ID: "p-feed", Name: "Furaj", BasePrice: decimal.RequireFromString("19.99")}, Active: true},
		"p-off":  {Product: pricing.Product{ID: "p-off", Name: "Seminte vechi", BasePrice: decimal.RequireFromString("5")}, Active: false},
	}
	svc, err := NewService(ServiceParams{
		Gate:     gate,
		Clients:  stubClients{},
		Carts:    carts,
		Products: products,
		Orders:   submitter,
	})
	require.NoError(t, err)
	return &harness{svc: svc, carts: carts, gate: gate, orders: submitter}
}

func (h *harness) fill(t *testing.T, items map[string]int) *cart.Store {
	t.Helper()
	store, err := h.carts.Open(context.Background(), customerID)
	require.NoError(t, err)
	for id, qty := range items {
		_, err := store.SetQuantity(context.Background(), id, qty)
		require.NoError(t, err)
	}
	return store
}

type stubGate struct {
	rule  types.PricingRule
	err   error
	calls int
}

func (g *stubGate) PricingRuleFor(context.Context, string) (*types.PricingRule, error) {
	g.calls++
	if g.err != nil {
		return nil, g.err
	}
	rule := g.rule.Clone()
	return &rule, nil
}

type stubClients struct{}

func (stubClients) ClientSnapshot(_ context.Context, id string) (types.ClientSnapshot, error) {
	return types.ClientSnapshot{CustomerID: id, Name: "Ion Popescu", Phone: "0740123456"}, nil
}

type stubProducts map[string]orders.Product

func (p stubProducts) ProductsByID(_ context.Context, ids []string) (map[string]orders.Product, error) {
	out := map[string]orders.Product{}
	for _, id := range ids {
		if product, ok := p[id]; ok {
			out[id] = product
		}
	}
	return out, nil
}

type stubOrders struct {
	inputs      []orders.SubmitInput
	err         error
	beforeClear func()
}

func (o *stubOrders) SubmitOrder(ctx context.Context, in orders.SubmitInput) (*orders.Receipt, error) {
	if o.err != nil {
		return nil, o.err
	}
	o.inputs = append(o.inputs, in)
	if o.beforeClear != nil {
		o.beforeClear()
	}
	if in.Cart != nil {
		if err := in.Cart.Clear(ctx); err != nil {
			return nil, err
		}
	}
	return &orders.Receipt{OrderNumber: int64(999 + len(o.inputs)), Total: in.Snapshot.Total, ItemCount: in.Snapshot.ItemCount}, nil
}
