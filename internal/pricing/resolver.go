// Package pricing turns a product's base price and a customer's pricing rule
// into the final unit price shown and charged to that customer.
package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/gosbiromania/storefront-backend/pkg/types"
)

var half = decimal.RequireFromString("0.5")

// Product is the slice of a catalog product that pricing needs.
type Product struct {
	ID         string
	Name       string
	CategoryID string
	BasePrice  decimal.Decimal
}

// MarkupFor picks the category override when one is set, else the global markup.
func MarkupFor(categoryID string, rule types.PricingRule) decimal.Decimal {
	if m, ok := rule.Override(categoryID); ok {
		return m.Percent()
	}
	return rule.GlobalMarkup.Percent()
}

// ResolveFinalPrice returns base * (1 + markup/100) rounded to cents.
// Negative markups are applied as is.
func ResolveFinalPrice(p Product, rule types.PricingRule) decimal.Decimal {
	markup := MarkupFor(p.CategoryID, rule)
	factor := decimal.NewFromInt(1).Add(markup.Shift(-2))
	return Round2(p.BasePrice.Mul(factor))
}

// Round2 rounds to two decimals, ties towards positive infinity.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Shift(2).Add(half).Floor().Shift(-2)
}

// LineTotal is the rounded extension of an already rounded unit price.
func LineTotal(unit decimal.Decimal, qty int) decimal.Decimal {
	return Round2(unit.Mul(decimal.NewFromInt(int64(qty))))
}
