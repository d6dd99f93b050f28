package orders

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/gosbiromania/storefront-backend/pkg/db/models"
	"github.com/gosbiromania/storefront-backend/pkg/enums"
	"github.com/gosbiromania/storefront-backend/pkg/types"
)

// SubmitInput carries everything needed to persist one order.
type SubmitInput struct {
	CustomerID string
	Client     types.ClientSnapshot
	Snapshot   Snapshot
	// Cart, when set, is cleared once the order is committed.
	Cart CartClearer
}

// Receipt is returned to the customer after a successful submit.
type Receipt struct {
	OrderID     string            `json:"orderId"`
	OrderNumber int64             `json:"orderNumber"`
	Status      enums.OrderStatus `json:"status"`
	ItemCount   int               `json:"itemCount"`
	Total       decimal.Decimal   `json:"total"`
}

// OrderDTO is the API view of a persisted order.
type OrderDTO struct {
	ID            string               `json:"id"`
	OrderNumber   int64                `json:"orderNumber"`
	CustomerID    string               `json:"customerId"`
	Client        types.ClientSnapshot `json:"client"`
	Items         types.OrderLines     `json:"items"`
	ItemCount     int                  `json:"itemCount"`
	Total         decimal.Decimal      `json:"total"`
	Status        enums.OrderStatus    `json:"status"`
	StatusHistory types.StatusHistory  `json:"statusHistory"`
	CreatedAt     time.Time            `json:"createdAt"`
	UpdatedAt     time.Time            `json:"updatedAt"`
}

// FromModel maps a persisted order to its DTO.
func FromModel(o models.Order) OrderDTO {
	items := o.Items
	if items == nil {
		items = types.OrderLines{}
	}
	history := o.StatusHistory
	if history == nil {
		history = types.StatusHistory{}
	}
	return OrderDTO{
		ID:            o.ID.String(),
		OrderNumber:   o.OrderNumber,
		CustomerID:    o.CustomerID.String(),
		Client:        o.Client,
		Items:         items,
		ItemCount:     o.ItemCount,
		Total:         o.Total,
		Status:        o.Status,
		StatusHistory: history,
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
	}
}
