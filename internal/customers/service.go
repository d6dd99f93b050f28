package customers

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/gosbiromania/storefront-backend/pkg/db/models"
	"github.com/gosbiromania/storefront-backend/pkg/enums"
	pkgerrors "github.com/gosbiromania/storefront-backend/pkg/errors"
	"github.com/gosbiromania/storefront-backend/pkg/logger"
	"github.com/gosbiromania/storefront-backend/pkg/types"
)

const (
	minFullNameLength = 3
	minAddressLength  = 6
)

// TxRunner runs fn inside a single transaction.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ServiceParams groups dependencies for the customers service.
type ServiceParams struct {
	Repo   Repository
	Tx     TxRunner
	Logger *logger.Logger
	Clock  func() time.Time
}

// Service manages customer profiles, price visibility and admin approval.
type Service interface {
	Get(ctx context.Context, customerID string) (*CustomerDTO, error)
	SaveContact(ctx context.Context, customerID string, in ContactInput) (*types.Contact, error)
	PricingRuleFor(ctx context.Context, customerID string) (*types.PricingRule, error)
	ClientSnapshot(ctx context.Context, customerID string) (types.ClientSnapshot, error)

	ListByStatus(ctx context.Context, status string) ([]CustomerDTO, error)
	Approve(ctx context.Context, customerID string, in ApproveInput) (*CustomerDTO, error)
	Deactivate(ctx context.Context, customerID string) (*CustomerDTO, error)
	SetCategoryMarkup(ctx context.Context, customerID, categoryID string, markup decimal.Decimal) (*CustomerDTO, error)
	DeleteCategoryMarkup(ctx context.Context, customerID, categoryID string) (*CustomerDTO, error)
}

type service struct {
	repo Repository
	tx   TxRunner
	logg *logger.Logger
	now  func() time.Time
}

// NewService builds a customers service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customers repo is required")
	}
	if params.Tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transaction runner is required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "logger is required")
	}
	clock := params.Clock
	if clock == nil {
		clock = time.Now
	}
	return &service{repo: params.Repo, tx: params.Tx, logg: params.Logger, now: clock}, nil
}

func (s *service) Get(ctx context.Context, customerID string) (*CustomerDTO, error) {
	customer, err := s.load(ctx, s.repo, customerID)
	if err != nil {
		return nil, err
	}
	dto := FromModel(*customer)
	return &dto, nil
}

// SaveContact validates and stores the delivery profile, marking it complete.
func (s *service) SaveContact(ctx context.Context, customerID string, in ContactInput) (*types.Contact, error) {
	contact, err := validateContact(in)
	if err != nil {
		return nil, err
	}
	at := s.now().UTC()
	contact.Completed = true
	contact.CompletedAt = &at

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		customer, err := s.load(ctx, repo, customerID)
		if err != nil {
			return err
		}
		customer.Contact = contact
		return repo.Save(ctx, customer)
	})
	if err != nil {
		return nil, asStoreError(err, "save contact")
	}
	return &contact, nil
}

func validateContact(in ContactInput) (types.Contact, error) {
	contact := types.Contact{
		FullName: strings.TrimSpace(in.FullName),
		Address:  strings.TrimSpace(in.Address),
		County:   strings.TrimSpace(in.County),
		City:     strings.TrimSpace(in.City),
	}
	problems := map[string]string{}
	if utf8.RuneCountInString(contact.FullName) < minFullNameLength {
		problems["fullName"] = "must be at least 3 characters"
	}
	if utf8.RuneCountInString(contact.Address) < minAddressLength {
		problems["address"] = "must be at least 6 characters"
	}
	countyOK, cityOK := validLocation(contact.County, contact.City)
	if !countyOK {
		problems["county"] = "unknown county"
	} else if !cityOK {
		problems["city"] = "city does not belong to county"
	}
	if len(problems) > 0 {
		return types.Contact{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid contact").WithDetails(problems)
	}
	return contact, nil
}

// PricingRuleFor is the price visibility gate. Admins always see prices,
// with their own rule when they have one and base prices otherwise. Clients
// see prices once active with a pricing rule; everyone else gets FORBIDDEN.
func (s *service) PricingRuleFor(ctx context.Context, customerID string) (*types.PricingRule, error) {
	customer, err := s.load(ctx, s.repo, customerID)
	if err != nil {
		return nil, err
	}
	if customer.Role == enums.CustomerRoleAdmin {
		rule := types.PricingRule{}
		if customer.PricingRule != nil {
			rule = customer.PricingRule.Clone()
		}
		return &rule, nil
	}
	if customer.Status != enums.CustomerStatusActive || customer.PricingRule == nil {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "prices hidden")
	}
	rule := customer.PricingRule.Clone()
	return &rule, nil
}

// ClientSnapshot captures who is ordering for the order record.
func (s *service) ClientSnapshot(ctx context.Context, customerID string) (types.ClientSnapshot, error) {
	customer, err := s.load(ctx, s.repo, customerID)
	if err != nil {
		return types.ClientSnapshot{}, err
	}
	name := customer.Contact.FullName
	if name == "" {
		name = customer.Phone
	}
	return types.ClientSnapshot{
		CustomerID: customer.ID.String(),
		Name:       name,
		Phone:      customer.Phone,
		County:     customer.Contact.County,
		City:       customer.Contact.City,
		Address:    customer.Contact.Address,
	}, nil
}

func (s *service) ListByStatus(ctx context.Context, status string) ([]CustomerDTO, error) {
	var filter enums.CustomerStatus
	if status = strings.TrimSpace(status); status != "" {
		parsed, err := enums.ParseCustomerStatus(status)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter")
		}
		filter = parsed
	}
	rows, err := s.repo.ListByStatus(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list customers")
	}
	out := make([]CustomerDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, FromModel(row))
	}
	return out, nil
}

// Approve moves a pending customer to active with the given classification
// and global markup. Existing category overrides are kept.
func (s *service) Approve(ctx context.Context, customerID string, in ApproveInput) (*CustomerDTO, error) {
	if !in.ClientType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid client type").
			WithDetails(map[string]any{"clientType": in.ClientType})
	}
	if !in.Channel.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid acquisition channel").
			WithDetails(map[string]any{"channel": in.Channel})
	}
	return s.update(ctx, customerID, "customer.approved", func(c *models.Customer) error {
		if c.Status != enums.CustomerStatusPending {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "customer is not pending")
		}
		rule := types.PricingRule{}
		if c.PricingRule != nil {
			rule = c.PricingRule.Clone()
		}
		rule.GlobalMarkup = types.NewMarkup(in.GlobalMarkup)

		clientType, channel := in.ClientType, in.Channel
		at := s.now().UTC()
		c.Status = enums.CustomerStatusActive
		c.ClientType = &clientType
		c.Channel = &channel
		c.PricingRule = &rule
		c.ApprovedAt = &at
		return nil
	})
}

// Deactivate moves an active customer back to pending, hiding prices again.
func (s *service) Deactivate(ctx context.Context, customerID string) (*CustomerDTO, error) {
	return s.update(ctx, customerID, "customer.deactivated", func(c *models.Customer) error {
		if c.Status != enums.CustomerStatusActive {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "customer is not active")
		}
		c.Status = enums.CustomerStatusPending
		return nil
	})
}

func (s *service) SetCategoryMarkup(ctx context.Context, customerID, categoryID string, markup decimal.Decimal) (*CustomerDTO, error) {
	categoryID, err := canonicalCategoryID(categoryID)
	if err != nil {
		return nil, err
	}
	return s.update(ctx, customerID, "customer.category_markup_set", func(c *models.Customer) error {
		rule := types.PricingRule{}
		if c.PricingRule != nil {
			rule = c.PricingRule.Clone()
		}
		if rule.Categories == nil {
			rule.Categories = map[string]types.Markup{}
		}
		rule.Categories[categoryID] = types.NewMarkup(markup)
		c.PricingRule = &rule
		return nil
	})
}

func (s *service) DeleteCategoryMarkup(ctx context.Context, customerID, categoryID string) (*CustomerDTO, error) {
	categoryID, err := canonicalCategoryID(categoryID)
	if err != nil {
		return nil, err
	}
	return s.update(ctx, customerID, "customer.category_markup_deleted", func(c *models.Customer) error {
		if c.PricingRule == nil {
			return nil
		}
		rule := c.PricingRule.Clone()
		delete(rule.Categories, categoryID)
		if len(rule.Categories) == 0 {
			rule.Categories = nil
		}
		c.PricingRule = &rule
		return nil
	})
}

// canonicalCategoryID returns the lowercase uuid form category overrides are
// keyed by, matching the category id products are priced with.
func canonicalCategoryID(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "category id is required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid category id").
			WithDetails(map[string]any{"categoryId": "must be a uuid"})
	}
	return id.String(), nil
}

// update runs a read-modify-write of one customer inside a transaction.
func (s *service) update(ctx context.Context, customerID, event string, mutate func(*models.Customer) error) (*CustomerDTO, error) {
	var updated *models.Customer
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		customer, err := s.load(ctx, repo, customerID)
		if err != nil {
			return err
		}
		if err := mutate(customer); err != nil {
			return err
		}
		if err := repo.Save(ctx, customer); err != nil {
			return err
		}
		updated = customer
		return nil
	})
	if err != nil {
		return nil, asStoreError(err, "update customer")
	}
	s.logg.Info(s.logg.WithCustomerID(ctx, customerID), event)
	dto := FromModel(*updated)
	return &dto, nil
}

func (s *service) load(ctx context.Context, repo Repository, customerID string) (*models.Customer, error) {
	id, err := uuid.Parse(strings.TrimSpace(customerID))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid customer id")
	}
	customer, err := repo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load customer")
	}
	return customer, nil
}

func asStoreError(err error, message string) error {
	if typed := pkgerrors.As(err); typed != nil {
		return typed
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, message)
}
