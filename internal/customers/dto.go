package customers

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/gosbiromania/storefront-backend/pkg/db/models"
	"github.com/gosbiromania/storefront-backend/pkg/enums"
	"github.com/gosbiromania/storefront-backend/pkg/types"
)

// ContactInput is the delivery profile submitted by a customer.
type ContactInput struct {
	FullName string `json:"fullName" validate:"required"`
	Address  string `json:"address" validate:"required"`
	County   string `json:"county" validate:"required"`
	City     string `json:"city" validate:"required"`
}

// ApproveInput activates a pending customer.
type ApproveInput struct {
	ClientType   enums.ClientType         `json:"clientType" validate:"required"`
	Channel      enums.AcquisitionChannel `json:"channel" validate:"required"`
	GlobalMarkup decimal.Decimal          `json:"globalMarkup"`
}

// CustomerDTO is the account view returned to the customer and to admins.
type CustomerDTO struct {
	ID          string                    `json:"id"`
	Phone       string                    `json:"phone"`
	Role        enums.CustomerRole        `json:"role"`
	Status      enums.CustomerStatus      `json:"status"`
	ClientType  *enums.ClientType         `json:"clientType,omitempty"`
	Channel     *enums.AcquisitionChannel `json:"channel,omitempty"`
	PricingRule *types.PricingRule        `json:"pricingRule,omitempty"`
	Contact     types.Contact             `json:"contact"`
	ApprovedAt  *time.Time                `json:"approvedAt,omitempty"`
	LastLoginAt *time.Time                `json:"lastLoginAt,omitempty"`
	CreatedAt   time.Time                 `json:"createdAt"`
}

// FromModel maps a customer row to its DTO. The password hash never leaves
// this package.
func FromModel(c models.Customer) CustomerDTO {
	return CustomerDTO{
		ID:          c.ID.String(),
		Phone:       c.Phone,
		Role:        c.Role,
		Status:      c.Status,
		ClientType:  c.ClientType,
		Channel:     c.Channel,
		PricingRule: c.PricingRule,
		Contact:     c.Contact,
		ApprovedAt:  c.ApprovedAt,
		LastLoginAt: c.LastLoginAt,
		CreatedAt:   c.CreatedAt,
	}
}
