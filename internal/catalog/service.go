package catalog

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/gosbiromania/storefront-backend/internal/orders"
	"github.com/gosbiromania/storefront-backend/internal/pricing"
	"github.com/gosbiromania/storefront-backend/pkg/db/models"
	pkgerrors "github.com/gosbiromania/storefront-backend/pkg/errors"
	"github.com/gosbiromania/storefront-backend/pkg/types"
)

// PricingGate returns the customer's pricing rule, or a FORBIDDEN error when
// prices must stay hidden from them.
type PricingGate interface {
	PricingRuleFor(ctx context.Context, customerID string) (*types.PricingRule, error)
}

// Service exposes the storefront catalog.
type Service interface {
	ListCategories(ctx context.Context) ([]CategoryDTO, error)
	ListProducts(ctx context.Context, categoryID string) ([]ProductDTO, error)
	PricedCatalog(ctx context.Context, customerID, categoryID string) (*CatalogDTO, error)
	ProductsByID(ctx context.Context, ids []string) (map[string]orders.Product, error)
}

type service struct {
	repo Repository
	gate PricingGate
}

// NewService builds a catalog service with the required dependencies.
func NewService(repo Repository, gate PricingGate) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "catalog repo is required")
	}
	if gate == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "pricing gate is required")
	}
	return &service{repo: repo, gate: gate}, nil
}

func (s *service) ListCategories(ctx context.Context) ([]CategoryDTO, error) {
	rows, err := s.repo.ListActiveCategories(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list categories")
	}
	out := make([]CategoryDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, categoryFromModel(row))
	}
	return out, nil
}

// ListProducts lists active products. An empty or "ALL" category selects
// everything; an id matching no category yields an empty list.
func (s *service) ListProducts(ctx context.Context, categoryID string) ([]ProductDTO, error) {
	rows, err := s.listProducts(ctx, categoryID)
	if err != nil {
		return nil, err
	}
	out := make([]ProductDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, productFromModel(row))
	}
	return out, nil
}

func (s *service) listProducts(ctx context.Context, categoryID string) ([]models.Product, error) {
	categoryID = strings.TrimSpace(categoryID)
	var filter *uuid.UUID
	if categoryID != "" && !strings.EqualFold(categoryID, AllCategories) {
		id, err := uuid.Parse(categoryID)
		if err != nil {
			return nil, nil
		}
		filter = &id
	}
	rows, err := s.repo.ListActiveProducts(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	return rows, nil
}

// PricedCatalog loads categories, products and the customer's pricing rule
// concurrently. Prices are attached only when the gate allows it.
func (s *service) PricedCatalog(ctx context.Context, customerID, categoryID string) (*CatalogDTO, error) {
	var (
		categories []CategoryDTO
		products   []models.Product
		rule       *types.PricingRule
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		categories, err = s.ListCategories(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		products, err = s.listProducts(gctx, categoryID)
		return err
	})
	g.Go(func() error {
		r, err := s.gate.PricingRuleFor(gctx, customerID)
		if pkgerrors.Is(err, pkgerrors.CodeForbidden) {
			return nil
		}
		if err != nil {
			return err
		}
		rule = r
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := &CatalogDTO{
		Categories:    categories,
		Products:      make([]ProductDTO, 0, len(products)),
		PricesVisible: rule != nil,
	}
	for _, p := range products {
		dto := productFromModel(p)
		if rule != nil {
			price := pricing.ResolveFinalPrice(toPricing(p), *rule)
			dto.FinalPrice = &price
		}
		out.Products = append(out.Products, dto)
	}
	return out, nil
}

// ProductsByID returns the requested products keyed by the ids exactly as
// the caller passed them, including inactive ones so the caller can decide
// what to drop. Unknown or malformed ids are absent from the map.
func (s *service) ProductsByID(ctx context.Context, ids []string) (map[string]orders.Product, error) {
	requested := make(map[uuid.UUID][]string, len(ids))
	parsed := make([]uuid.UUID, 0, len(ids))
	for _, raw := range ids {
		id, err := uuid.Parse(strings.TrimSpace(raw))
		if err != nil {
			continue
		}
		if _, seen := requested[id]; !seen {
			parsed = append(parsed, id)
		}
		requested[id] = append(requested[id], raw)
	}
	out := make(map[string]orders.Product, len(ids))
	if len(parsed) == 0 {
		return out, nil
	}
	rows, err := s.repo.FindProductsByIDs(ctx, parsed)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load products")
	}
	for _, row := range rows {
		product := orders.Product{Product: toPricing(row), Active: row.Active}
		for _, key := range requested[row.ID] {
			out[key] = product
		}
	}
	return out, nil
}

func toPricing(p models.Product) pricing.Product {
	out := pricing.Product{
		ID:        p.ID.String(),
		Name:      p.Name,
		BasePrice: p.BasePrice,
	}
	if p.CategoryID != nil {
		out.CategoryID = p.CategoryID.String()
	}
	return out
}
