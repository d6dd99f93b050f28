package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gosbiromania/storefront-backend/pkg/enums"
	"github.com/gosbiromania/storefront-backend/pkg/types"
)

// Customer is a shop account: a client buying at their own markup or an admin.
type Customer struct {
	ID           uuid.UUID                 `gorm:"column:id;type:uuid;primaryKey"`
	Phone        string                    `gorm:"column:phone;not null;uniqueIndex"`
	PasswordHash string                    `gorm:"column:password_hash;not null"`
	Role         enums.CustomerRole        `gorm:"column:role;type:text;not null;default:'client'"`
	Status       enums.CustomerStatus      `gorm:"column:status;type:text;not null;default:'pending'"`
	ClientType   *enums.ClientType         `gorm:"column:client_type;type:text"`
	Channel      *enums.AcquisitionChannel `gorm:"column:channel;type:text"`
	PricingRule  *types.PricingRule        `gorm:"column:pricing_rule;type:jsonb;serializer:json"`
	Contact      types.Contact             `gorm:"column:contact;type:jsonb;serializer:json"`
	ApprovedAt   *time.Time                `gorm:"column:approved_at"`
	LastLoginAt  *time.Time                `gorm:"column:last_login_at"`
	CreatedAt    time.Time                 `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time                 `gorm:"column:updated_at;autoUpdateTime"`
}

func (c *Customer) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
