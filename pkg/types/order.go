package types

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/gosbiromania/storefront-backend/pkg/enums"
)

// OrderLine is the immutable priced snapshot of one cart entry.
type OrderLine struct {
	ProductID      string          `json:"productId"`
	Name           string          `json:"name"`
	Qty            int             `json:"qty"`
	UnitPriceFinal decimal.Decimal `json:"unitPriceFinal"`
	LineTotal      decimal.Decimal `json:"lineTotal"`
}

// OrderLines is stored as a json column.
type OrderLines []OrderLine

// StatusEntry is one step of an order's status history.
type StatusEntry struct {
	Status  enums.OrderStatus `json:"status"`
	At      time.Time         `json:"at"`
	AdminID *string           `json:"adminId"`
}

// StatusHistory is stored as a json column, oldest first.
type StatusHistory []StatusEntry

// ClientSnapshot freezes who ordered and where to deliver.
type ClientSnapshot struct {
	CustomerID string `json:"customerId"`
	Name       string `json:"name"`
	Phone      string `json:"phone"`
	County     string `json:"county,omitempty"`
	City       string `json:"city,omitempty"`
	Address    string `json:"address,omitempty"`
}
