package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product is a catalog listing. BasePrice is the single canonical price
// before any customer markup.
type Product struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	CategoryID  *uuid.UUID      `gorm:"column:category_id;type:uuid;index"`
	Name        string          `gorm:"column:name;not null"`
	Description *string         `gorm:"column:description"`
	Unit        string          `gorm:"column:unit;not null;default:'buc'"`
	BasePrice   decimal.Decimal `gorm:"column:base_price;type:numeric(12,2);not null;default:0"`
	Active      bool            `gorm:"column:active;not null;default:true"`
	SortOrder   int             `gorm:"column:sort_order;not null;default:999999"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Product) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
