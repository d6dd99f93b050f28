package checkout

import "github.com/shopspring/decimal"

// CartLine is one cart entry enriched with catalog data. Prices are present
// only when the customer may see them.
type CartLine struct {
	ProductID      string           `json:"productId"`
	Name           string           `json:"name,omitempty"`
	Qty            int              `json:"qty"`
	Available      bool             `json:"available"`
	UnitPriceFinal *decimal.Decimal `json:"unitPriceFinal,omitempty"`
	LineTotal      *decimal.Decimal `json:"lineTotal,omitempty"`
}

// CartView is the cart as shown to its owner.
type CartView struct {
	Items         []CartLine       `json:"items"`
	ItemCount     int              `json:"itemCount"`
	Total         *decimal.Decimal `json:"total,omitempty"`
	PricesVisible bool             `json:"pricesVisible"`
}
