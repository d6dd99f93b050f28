package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/gosbiromania/storefront-backend/pkg/enums"
	"github.com/gosbiromania/storefront-backend/pkg/types"
)

// Order is a submitted, immutable snapshot of a cart. Only Status,
// StatusHistory and UpdatedAt change after creation.
type Order struct {
	ID            uuid.UUID            `gorm:"column:id;type:uuid;primaryKey"`
	OrderNumber   int64                `gorm:"column:order_number;not null;uniqueIndex"`
	CustomerID    uuid.UUID            `gorm:"column:customer_id;type:uuid;not null;index"`
	Client        types.ClientSnapshot `gorm:"column:client;type:jsonb;serializer:json"`
	Items         types.OrderLines     `gorm:"column:items;type:jsonb;serializer:json"`
	ItemCount     int                  `gorm:"column:item_count;not null"`
	Total         decimal.Decimal      `gorm:"column:total;type:numeric(12,2);not null"`
	Status        enums.OrderStatus    `gorm:"column:status;type:text;not null;default:'NEW'"`
	StatusHistory types.StatusHistory  `gorm:"column:status_history;type:jsonb;serializer:json"`
	CreatedAt     time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}

func (o *Order) BeforeCreate(*gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

// OrderCounter holds the last issued value of a named monotonic sequence.
type OrderCounter struct {
	Name      string    `gorm:"column:name;primaryKey"`
	Current   int64     `gorm:"column:current_value;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
