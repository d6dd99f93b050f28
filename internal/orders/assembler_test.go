package orders

import (
	"errors"
	"slices"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gosbiromania/storefront-backend/internal/cart"
	"github.com/gosbiromania/storefront-backend/internal/pricing"
	pkgerrors "github.com/gosbiromania/storefront-backend/pkg/errors"
	"github.com/gosbiromania/storefront-backend/pkg/types"
)

func dec(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func product(id, category, base string) Product {
	return Product{
		Product: pricing.Product{ID: id, Name: "Product " + id, CategoryID: category, BasePrice: dec(base)},
		Active:  true,
	}
}

func items(entries ...cart.Item) func(func(cart.Item) bool) {
	return slices.Values(entries)
}

func TestBuildSnapshotAppliesGlobalMarkup(t *testing.T) {
	rule := types.PricingRule{GlobalMarkup: types.NewMarkup(dec("15"))}
	products := map[string]Product{"p1": product("p1", "c1", "19.99")}

	snap, err := BuildSnapshot(items(cart.Item{ProductID: "p1", Qty: 3}), products, rule)
	require.NoError(t, err)

	require.Len(t, snap.Lines, 1)
	line := snap.Lines[0]
	assert.True(t, line.UnitPriceFinal.Equal(dec("22.99")), "unit %s", line.UnitPriceFinal)
	assert.True(t, line.LineTotal.Equal(dec("68.97")), "line %s", line.LineTotal)
	assert.True(t, snap.Total.Equal(dec("68.97")), "total %s", snap.Total)
	assert.Equal(t, 3, snap.ItemCount)
	assert.Equal(t, "Product p1", line.Name)
}

func TestBuildSnapshotPrefersCategoryOverride(t *testing.T) {
	rule := types.PricingRule{
		GlobalMarkup: types.NewMarkup(dec("10")),
		Categories:   map[string]types.Markup{"c1": types.NewMarkup(dec("20"))},
	}
	products := map[string]Product{
		"p1": product("p1", "c1", "50"),
		"p2": product("p2", "c2", "50"),
	}

	snap, err := BuildSnapshot(items(
		cart.Item{ProductID: "p1", Qty: 2},
		cart.Item{ProductID: "p2", Qty: 1},
	), products, rule)
	require.NoError(t, err)

	require.Len(t, snap.Lines, 2)
	assert.True(t, snap.Lines[0].UnitPriceFinal.Equal(dec("60")))
	assert.True(t, snap.Lines[0].LineTotal.Equal(dec("120")))
	assert.True(t, snap.Lines[1].UnitPriceFinal.Equal(dec("55")))
	assert.True(t, snap.Total.Equal(dec("175")))
}

func TestBuildSnapshotFiltersInvalidEntries(t *testing.T) {
	inactive := product("p3", "c1", "10")
	inactive.Active = false
	products := map[string]Product{
		"p1": product("p1", "", "10"),
		"p3": inactive,
	}

	snap, err := BuildSnapshot(items(
		cart.Item{ProductID: "p1", Qty: 1},
		cart.Item{ProductID: "p2", Qty: 4},
		cart.Item{ProductID: "p3", Qty: 2},
		cart.Item{ProductID: "p1", Qty: 0},
	), products, types.PricingRule{})
	require.NoError(t, err)

	require.Len(t, snap.Lines, 1)
	assert.Equal(t, "p1", snap.Lines[0].ProductID)
	assert.True(t, snap.Total.Equal(dec("10")))
}

func TestBuildSnapshotEmptyCart(t *testing.T) {
	cases := map[string]func(func(cart.Item) bool){
		"nil sequence":       nil,
		"no items":           items(),
		"only unknown items": items(cart.Item{ProductID: "ghost", Qty: 1}),
		"only zero qty":      items(cart.Item{ProductID: "p1", Qty: 0}, cart.Item{ProductID: "p1", Qty: -2}),
	}
	products := map[string]Product{"p1": product("p1", "", "10")}

	for name, seq := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := BuildSnapshot(seq, products, types.PricingRule{})
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrEmptyCart))
			assert.True(t, pkgerrors.Is(err, pkgerrors.CodeEmptyCart))
		})
	}
}

func TestBuildSnapshotSortsLinesAndRoundsTwice(t *testing.T) {
	rule := types.PricingRule{GlobalMarkup: types.NewMarkup(dec("7.5"))}
	products := map[string]Product{
		"b": product("b", "", "3.33"),
		"a": product("a", "", "0.99"),
	}

	snap, err := BuildSnapshot(items(
		cart.Item{ProductID: "b", Qty: 7},
		cart.Item{ProductID: "a", Qty: 3},
	), products, rule)
	require.NoError(t, err)

	require.Len(t, snap.Lines, 2)
	assert.Equal(t, "a", snap.Lines[0].ProductID)
	assert.Equal(t, "b", snap.Lines[1].ProductID)

	// 0.99 * 1.075 = 1.06425 -> 1.06; 3.33 * 1.075 = 3.57975 -> 3.58
	assert.True(t, snap.Lines[0].UnitPriceFinal.Equal(dec("1.06")))
	assert.True(t, snap.Lines[1].UnitPriceFinal.Equal(dec("3.58")))
	assert.True(t, snap.Lines[0].LineTotal.Equal(dec("3.18")))
	assert.True(t, snap.Lines[1].LineTotal.Equal(dec("25.06")))
	assert.True(t, snap.Total.Equal(dec("28.24")))
	assert.Equal(t, 10, snap.ItemCount)
}
