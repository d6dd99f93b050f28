package controllers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gosbiromania/storefront-backend/api/responses"
	"github.com/gosbiromania/storefront-backend/api/validators"
	"github.com/gosbiromania/storefront-backend/internal/cart"
	"github.com/gosbiromania/storefront-backend/internal/checkout"
	pkgerrors "github.com/gosbiromania/storefront-backend/pkg/errors"
	"github.com/gosbiromania/storefront-backend/pkg/logger"
)

type setQuantityRequest struct {
	Qty json.RawMessage `json:"qty" validate:"required"`
}

type incrementRequest struct {
	Step json.RawMessage `json:"step"`
}

// cartMutation applies one change to an opened cart and returns the result.
type cartMutation func(ctx context.Context, r *http.Request, store *cart.Store) (cart.Snapshot, error)

// CartFetch returns the caller's cart with names and, when visible, prices.
func CartFetch(carts cart.Service, views checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return cartHandler(carts, views, logg, nil)
}

// CartSetItem sets a product's quantity; 0 removes it.
func CartSetItem(carts cart.Service, views checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return cartHandler(carts, views, logg, func(ctx context.Context, r *http.Request, store *cart.Store) (cart.Snapshot, error) {
		productID, err := validators.PathUUID(r, "productId")
		if err != nil {
			return cart.Snapshot{}, err
		}
		var body setQuantityRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			return cart.Snapshot{}, err
		}
		return store.SetQuantity(ctx, productID, cart.CoerceQty(body.Qty))
	})
}

// CartIncrementItem adds a signed step to a product's quantity. A missing
// step counts as 1.
func CartIncrementItem(carts cart.Service, views checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return cartHandler(carts, views, logg, func(ctx context.Context, r *http.Request, store *cart.Store) (cart.Snapshot, error) {
		productID, err := validators.PathUUID(r, "productId")
		if err != nil {
			return cart.Snapshot{}, err
		}
		step := 1
		if r.ContentLength != 0 {
			var body incrementRequest
			if err := validators.DecodeJSONBody(r, &body); err != nil {
				return cart.Snapshot{}, err
			}
			if len(body.Step) > 0 {
				step = cart.CoerceStep(body.Step)
			}
		}
		return store.Increment(ctx, productID, step)
	})
}

func CartRemoveItem(carts cart.Service, views checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return cartHandler(carts, views, logg, func(ctx context.Context, r *http.Request, store *cart.Store) (cart.Snapshot, error) {
		productID, err := validators.PathUUID(r, "productId")
		if err != nil {
			return cart.Snapshot{}, err
		}
		return store.RemoveItem(ctx, productID)
	})
}

func CartClear(carts cart.Service, views checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return cartHandler(carts, views, logg, func(ctx context.Context, _ *http.Request, store *cart.Store) (cart.Snapshot, error) {
		if err := store.Clear(ctx); err != nil {
			return store.Snapshot(), err
		}
		return store.Snapshot(), nil
	})
}

func cartHandler(carts cart.Service, views checkout.Service, logg *logger.Logger, mutate cartMutation) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if carts == nil || views == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}
		customerID, ok := requireCustomer(w, r, logg)
		if !ok {
			return
		}

		store, err := carts.Open(r.Context(), customerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		snap := store.Snapshot()
		if mutate != nil {
			if snap, err = mutate(r.Context(), r, store); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}

		view, err := views.View(r.Context(), customerID, snap)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}
