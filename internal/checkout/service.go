package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gosbiromania/storefront-backend/internal/cart"
	"github.com/gosbiromania/storefront-backend/internal/orders"
	pkgerrors "github.com/gosbiromania/storefront-backend/pkg/errors"
	"github.com/gosbiromania/storefront-backend/pkg/types"
)

type pricingGate interface {
	PricingRuleFor(ctx context.Context, customerID string) (*types.PricingRule, error)
}

type clientDirectory interface {
	ClientSnapshot(ctx context.Context, customerID string) (types.ClientSnapshot, error)
}

type productLoader interface {
	ProductsByID(ctx context.Context, ids []string) (map[string]orders.Product, error)
}

type orderSubmitter interface {
	SubmitOrder(ctx context.Context, in orders.SubmitInput) (*orders.Receipt, error)
}

// Service turns a customer's cart into an order.
type Service interface {
	Submit(ctx context.Context, customerID string) (*orders.Receipt, error)
	View(ctx context.Context, customerID string, snap cart.Snapshot) (*CartView, error)
}

// ServiceParams groups the collaborators of the checkout flow.
type ServiceParams struct {
	Gate     pricingGate
	Clients  clientDirectory
	Carts    cart.Service
	Products productLoader
	Orders   orderSubmitter
}

type service struct {
	gate     pricingGate
	clients  clientDirectory
	carts    cart.Service
	products productLoader
	orders   orderSubmitter
}

// NewService builds the checkout service.
func NewService(params ServiceParams) (Service, error) {
	if params.Gate == nil {
		return nil, fmt.Errorf("pricing gate required")
	}
	if params.Clients == nil {
		return nil, fmt.Errorf("client directory required")
	}
	if params.Carts == nil {
		return nil, fmt.Errorf("cart service required")
	}
	if params.Products == nil {
		return nil, fmt.Errorf("product loader required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("order submitter required")
	}
	return &service{
		gate:     params.Gate,
		clients:  params.Clients,
		carts:    params.Carts,
		products: params.Products,
		orders:   params.Orders,
	}, nil
}

// Submit prices the customer's cart with their current rule and persists it
// as an order. After commit the order service removes the submitted products
// from the customer's cart as it is then, so lines added meanwhile survive.
func (s *service) Submit(ctx context.Context, customerID string) (*orders.Receipt, error) {
	customerID = strings.TrimSpace(customerID)
	if customerID == "" {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, orders.ErrMissingCustomer, "customer is required")
	}

	rule, err := s.gate.PricingRuleFor(ctx, customerID)
	if err != nil {
		return nil, err
	}

	store, err := s.carts.Open(ctx, customerID)
	if err != nil {
		return nil, err
	}
	snap := store.Snapshot()

	products, err := s.products.ProductsByID(ctx, snap.ProductIDs())
	if err != nil {
		return nil, err
	}
	built, err := orders.BuildSnapshot(snap.Items(), products, *rule)
	if err != nil {
		return nil, err
	}

	client, err := s.clients.ClientSnapshot(ctx, customerID)
	if err != nil {
		return nil, err
	}

	return s.orders.SubmitOrder(ctx, orders.SubmitInput{
		CustomerID: customerID,
		Client:     client,
		Snapshot:   built,
		Cart: submittedCart{
			carts:      s.carts,
			customerID: customerID,
			productIDs: snap.ProductIDs(),
		},
	})
}

// submittedCart clears the products an order was built from. It reloads the
// cart instead of reusing the store opened for pricing, so a concurrent
// request's new lines are not overwritten. A concurrent change to a
// submitted product's quantity is still dropped with it.
type submittedCart struct {
	carts      cart.Service
	customerID string
	productIDs []string
}

func (c submittedCart) Clear(ctx context.Context) error {
	store, err := c.carts.Open(ctx, c.customerID)
	if err != nil {
		return err
	}
	_, err = store.RemoveItems(ctx, c.productIDs...)
	return err
}

// View enriches snap with product names and, when the customer may see
// prices, the same line prices Submit would charge.
func (s *service) View(ctx context.Context, customerID string, snap cart.Snapshot) (*CartView, error) {
	products, err := s.products.ProductsByID(ctx, snap.ProductIDs())
	if err != nil {
		return nil, err
	}

	view := &CartView{Items: make([]CartLine, 0, snap.Len()), ItemCount: snap.ItemCount()}
	for item := range snap.Items() {
		line := CartLine{ProductID: item.ProductID, Qty: item.Qty}
		if p, ok := products[item.ProductID]; ok {
			line.Name = p.Name
			line.Available = p.Active
		}
		view.Items = append(view.Items, line)
	}

	rule, err := s.gate.PricingRuleFor(ctx, customerID)
	if pkgerrors.Is(err, pkgerrors.CodeForbidden) {
		return view, nil
	}
	if err != nil {
		return nil, err
	}

	view.PricesVisible = true
	built, err := orders.BuildSnapshot(snap.Items(), products, *rule)
	if errors.Is(err, orders.ErrEmptyCart) {
		return view, nil
	}
	if err != nil {
		return nil, err
	}

	priced := make(map[string]types.OrderLine, len(built.Lines))
	for _, line := range built.Lines {
		priced[line.ProductID] = line
	}
	for i := range view.Items {
		line, ok := priced[view.Items[i].ProductID]
		if !ok {
			continue
		}
		view.Items[i].UnitPriceFinal = &line.UnitPriceFinal
		view.Items[i].LineTotal = &line.LineTotal
	}
	view.Total = &built.Total
	return view, nil
}
