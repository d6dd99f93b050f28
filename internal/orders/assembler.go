package orders

import (
	"iter"
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/gosbiromania/storefront-backend/internal/cart"
	"github.com/gosbiromania/storefront-backend/internal/pricing"
	pkgerrors "github.com/gosbiromania/storefront-backend/pkg/errors"
	"github.com/gosbiromania/storefront-backend/pkg/types"
)

// Product is the catalog view needed to price one order line.
type Product struct {
	pricing.Product
	Active bool
}

// Snapshot is the priced, immutable content of an order.
type Snapshot struct {
	Lines     types.OrderLines
	Total     decimal.Decimal
	ItemCount int
}

// BuildSnapshot prices the cart entries for one customer. Entries with a
// non-positive quantity or pointing at an unknown or inactive product are
// dropped. Each line total is rounded to cents before summing, and the sum
// is rounded again. Lines are ordered by product id.
func BuildSnapshot(items iter.Seq[cart.Item], productsByID map[string]Product, rule types.PricingRule) (Snapshot, error) {
	var lines types.OrderLines
	total := decimal.Zero
	count := 0

	if items != nil {
		for item := range items {
			if item.Qty <= 0 {
				continue
			}
			product, ok := productsByID[item.ProductID]
			if !ok || !product.Active {
				continue
			}
			unit := pricing.ResolveFinalPrice(product.Product, rule)
			lineTotal := pricing.LineTotal(unit, item.Qty)
			lines = append(lines, types.OrderLine{
				ProductID:      item.ProductID,
				Name:           product.Name,
				Qty:            item.Qty,
				UnitPriceFinal: unit,
				LineTotal:      lineTotal,
			})
			total = total.Add(lineTotal)
			count += item.Qty
		}
	}

	if len(lines) == 0 {
		return Snapshot{}, emptyCartError()
	}

	slices.SortFunc(lines, func(a, b types.OrderLine) int {
		return strings.Compare(a.ProductID, b.ProductID)
	})

	return Snapshot{
		Lines:     lines,
		Total:     pricing.Round2(total),
		ItemCount: count,
	}, nil
}

func emptyCartError() error {
	return pkgerrors.Wrap(pkgerrors.CodeEmptyCart, ErrEmptyCart, "cart has no orderable items")
}
