package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/gosbiromania/storefront-backend/api/middleware"
	"github.com/gosbiromania/storefront-backend/internal/cart"
	"github.com/gosbiromania/storefront-backend/internal/checkout"
	"github.com/gosbiromania/storefront-backend/internal/customers"
	"github.com/gosbiromania/storefront-backend/internal/orders"
	"github.com/gosbiromania/storefront-backend/pkg/config"
	"github.com/gosbiromania/storefront-backend/pkg/enums"
	pkgerrors "github.com/gosbiromania/storefront-backend/pkg/errors"
	"github.com/gosbiromania/storefront-backend/pkg/logger"
	"github.com/gosbiromania/storefront-backend/pkg/pagination"
)

type stubPinger struct {
	err error
}

func (s stubPinger) Ping(context.Context) error {
	return s.err
}

type stubCheckout struct {
	submitFn func(ctx context.Context, customerID string) (*orders.Receipt, error)
	viewFn   func(ctx context.Context, customerID string, snap cart.Snapshot) (*checkout.CartView, error)
}

func (s stubCheckout) Submit(ctx context.Context, customerID string) (*orders.Receipt, error) {
	return s.submitFn(ctx, customerID)
}

func (s stubCheckout) View(ctx context.Context, customerID string, snap cart.Snapshot) (*checkout.CartView, error) {
	if s.viewFn != nil {
		return s.viewFn(ctx, customerID, snap)
	}
	view := &checkout.CartView{ItemCount: snap.ItemCount()}
	for item := range snap.Items() {
		view.Items = append(view.Items, checkout.CartLine{ProductID: item.ProductID, Qty: item.Qty})
	}
	return view, nil
}

type stubCustomers struct {
	customers.Service
	getFn       func(ctx context.Context, customerID string) (*customers.CustomerDTO, error)
	setMarkupFn func(ctx context.Context, customerID, categoryID string, markup decimal.Decimal) (*customers.CustomerDTO, error)
}

func (s stubCustomers) Get(ctx context.Context, customerID string) (*customers.CustomerDTO, error) {
	return s.getFn(ctx, customerID)
}

func (s stubCustomers) SetCategoryMarkup(ctx context.Context, customerID, categoryID string, markup decimal.Decimal) (*customers.CustomerDTO, error) {
	return s.setMarkupFn(ctx, customerID, categoryID, markup)
}

type stubOrders struct {
	orders.Service
	listFn           func(ctx context.Context, customerID string, page pagination.Params) (*pagination.Page[orders.OrderDTO], error)
	getForCustomerFn func(ctx context.Context, customerID, orderID string) (*orders.OrderDTO, error)
	updateStatusFn   func(ctx context.Context, orderID string, status enums.OrderStatus, adminID string) (*orders.OrderDTO, error)
}

func (s stubOrders) ListForCustomer(ctx context.Context, customerID string, page pagination.Params) (*pagination.Page[orders.OrderDTO], error) {
	return s.listFn(ctx, customerID, page)
}

func (s stubOrders) GetForCustomer(ctx context.Context, customerID, orderID string) (*orders.OrderDTO, error) {
	return s.getForCustomerFn(ctx, customerID, orderID)
}

func (s stubOrders) UpdateStatus(ctx context.Context, orderID string, status enums.OrderStatus, adminID string) (*orders.OrderDTO, error) {
	return s.updateStatusFn(ctx, orderID, status, adminID)
}

func newRequest(method, target, body, customerID string, params map[string]string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	ctx := req.Context()
	if customerID != "" {
		ctx = middleware.WithCustomerID(ctx, customerID)
	}
	if len(params) > 0 {
		rctx := chi.NewRouteContext()
		for k, v := range params {
			rctx.URLParams.Add(k, v)
		}
		ctx = context.WithValue(ctx, chi.RouteCtxKey, rctx)
	}
	return req.WithContext(ctx)
}

func decodeError(t *testing.T, resp *httptest.ResponseRecorder) (string, any) {
	t.Helper()
	var envelope struct {
		Error struct {
			Code    string `json:"code"`
			Details any    `json:"details"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode error envelope: %v", err)
	}
	return envelope.Error.Code, envelope.Error.Details
}

func newCarts(t *testing.T) cart.Service {
	t.Helper()
	carts, err := cart.NewService(cart.ServiceParams{Slots: cart.MemorySlots(), Logger: logger.Nop()})
	if err != nil {
		t.Fatalf("cart service: %v", err)
	}
	return carts
}

func TestHealthLiveSetsEnvHeader(t *testing.T) {
	cfg := &config.Config{App: config.AppConfig{Env: "dev"}}
	resp := httptest.NewRecorder()
	HealthLive(cfg).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health/live", nil))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if got := resp.Header().Get(envHeader); got != "dev" {
		t.Fatalf("expected env header dev, got %q", got)
	}
}

func TestHealthReadyReportsFailedDependency(t *testing.T) {
	cfg := &config.Config{App: config.AppConfig{Env: "dev"}}
	handler := HealthReady(cfg, nil, map[string]Pinger{
		"db":    stubPinger{},
		"redis": stubPinger{err: errors.New("connection refused")},
	})
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 got %d", resp.Code)
	}
	code, details := decodeError(t, resp)
	if code != string(pkgerrors.CodeDependency) {
		t.Fatalf("unexpected code %s", code)
	}
	failed, ok := details.(map[string]any)
	if !ok || failed["redis"] != "connection refused" {
		t.Fatalf("expected redis failure in details, got %v", details)
	}
	if _, ok := failed["db"]; ok {
		t.Fatalf("healthy db should not be reported: %v", failed)
	}
}

func TestHealthReadyAllHealthy(t *testing.T) {
	cfg := &config.Config{}
	handler := HealthReady(cfg, nil, map[string]Pinger{"db": stubPinger{}, "redis": nil})
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}

func TestProfileGetRequiresCustomer(t *testing.T) {
	handler := ProfileGet(stubCustomers{}, nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, newRequest(http.MethodGet, "/api/v1/profile", "", "", nil))

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestProfileGetReturnsCustomer(t *testing.T) {
	customerID := uuid.NewString()
	svc := stubCustomers{
		getFn: func(ctx context.Context, id string) (*customers.CustomerDTO, error) {
			if id != customerID {
				t.Fatalf("unexpected customer %s", id)
			}
			return &customers.CustomerDTO{ID: id, Phone: "0722123456"}, nil
		},
	}
	resp := httptest.NewRecorder()
	ProfileGet(svc, nil).ServeHTTP(resp, newRequest(http.MethodGet, "/api/v1/profile", "", customerID, nil))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	var envelope struct {
		Data customers.CustomerDTO `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.ID != customerID {
		t.Fatalf("unexpected payload %+v", envelope.Data)
	}
}

const testProductID = "6b1f0d2c-8e4a-4c3b-9f21-7a5d0e9c4b18"

func TestCartSetItemCoercesQuantity(t *testing.T) {
	customerID := uuid.NewString()
	carts := newCarts(t)
	handler := CartSetItem(carts, stubCheckout{}, nil)

	resp := httptest.NewRecorder()
	req := newRequest(http.MethodPut, "/api/v1/cart/items/"+testProductID, `{"qty":"3.7"}`, customerID, map[string]string{"productId": testProductID})
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	store, err := carts.Open(context.Background(), customerID)
	if err != nil {
		t.Fatalf("open cart: %v", err)
	}
	if got := store.Snapshot().Qty(testProductID); got != 3 {
		t.Fatalf("expected qty 3, got %d", got)
	}
}

func TestCartSetItemStoresCanonicalProductID(t *testing.T) {
	customerID := uuid.NewString()
	carts := newCarts(t)
	upper := strings.ToUpper(testProductID)

	resp := httptest.NewRecorder()
	req := newRequest(http.MethodPut, "/api/v1/cart/items/"+upper, `{"qty":2}`, customerID, map[string]string{"productId": "{" + upper + "}"})
	CartSetItem(carts, stubCheckout{}, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}

	store, err := carts.Open(context.Background(), customerID)
	if err != nil {
		t.Fatalf("open cart: %v", err)
	}
	if got := store.Snapshot().ProductIDs(); len(got) != 1 || got[0] != testProductID {
		t.Fatalf("expected product stored as %s, got %v", testProductID, got)
	}
}

func TestCartSetItemRejectsMalformedProductID(t *testing.T) {
	resp := httptest.NewRecorder()
	req := newRequest(http.MethodPut, "/api/v1/cart/items/p-1", `{"qty":2}`, uuid.NewString(), map[string]string{"productId": "p-1"})
	CartSetItem(newCarts(t), stubCheckout{}, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestCartSetItemRequiresQty(t *testing.T) {
	handler := CartSetItem(newCarts(t), stubCheckout{}, nil)
	resp := httptest.NewRecorder()
	req := newRequest(http.MethodPut, "/api/v1/cart/items/"+testProductID, `{}`, uuid.NewString(), map[string]string{"productId": testProductID})
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestCartIncrementDefaultsToOne(t *testing.T) {
	customerID := uuid.NewString()
	carts := newCarts(t)
	handler := CartIncrementItem(carts, stubCheckout{}, nil)

	for i := 0; i < 2; i++ {
		resp := httptest.NewRecorder()
		req := newRequest(http.MethodPost, "/api/v1/cart/items/"+testProductID+"/increment", "", customerID, map[string]string{"productId": testProductID})
		handler.ServeHTTP(resp, req)
		if resp.Code != http.StatusOK {
			t.Fatalf("expected 200 got %d", resp.Code)
		}
	}

	resp := httptest.NewRecorder()
	req := newRequest(http.MethodPost, "/api/v1/cart/items/"+testProductID+"/increment", `{"step":-1}`, customerID, map[string]string{"productId": testProductID})
	handler.ServeHTTP(resp, req)

	var envelope struct {
		Data checkout.CartView `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.ItemCount != 1 {
		t.Fatalf("expected item count 1, got %d", envelope.Data.ItemCount)
	}
}

func TestCartClearEmptiesCart(t *testing.T) {
	customerID := uuid.NewString()
	carts := newCarts(t)
	store, err := carts.Open(context.Background(), customerID)
	if err != nil {
		t.Fatalf("open cart: %v", err)
	}
	if _, err := store.SetQuantity(context.Background(), testProductID, 4); err != nil {
		t.Fatalf("seed cart: %v", err)
	}

	resp := httptest.NewRecorder()
	CartClear(carts, stubCheckout{}, nil).ServeHTTP(resp, newRequest(http.MethodDelete, "/api/v1/cart", "", customerID, nil))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	reopened, err := carts.Open(context.Background(), customerID)
	if err != nil {
		t.Fatalf("reopen cart: %v", err)
	}
	if reopened.ItemCount() != 0 {
		t.Fatalf("expected empty cart, got %d items", reopened.ItemCount())
	}
}

func TestOrderSubmitReturnsCreated(t *testing.T) {
	customerID := uuid.NewString()
	svc := stubCheckout{
		submitFn: func(ctx context.Context, id string) (*orders.Receipt, error) {
			return &orders.Receipt{OrderID: uuid.NewString(), OrderNumber: 1000, Status: enums.OrderStatusNew, ItemCount: 2}, nil
		},
	}
	resp := httptest.NewRecorder()
	OrderSubmit(svc, nil).ServeHTTP(resp, newRequest(http.MethodPost, "/api/v1/orders", "", customerID, nil))

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d", resp.Code)
	}
	var envelope struct {
		Data orders.Receipt `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.OrderNumber != 1000 {
		t.Fatalf("unexpected order number %d", envelope.Data.OrderNumber)
	}
}

func TestOrderSubmitEmptyCart(t *testing.T) {
	svc := stubCheckout{
		submitFn: func(ctx context.Context, id string) (*orders.Receipt, error) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeEmptyCart, orders.ErrEmptyCart, "cart is empty")
		},
	}
	resp := httptest.NewRecorder()
	OrderSubmit(svc, nil).ServeHTTP(resp, newRequest(http.MethodPost, "/api/v1/orders", "", uuid.NewString(), nil))

	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d", resp.Code)
	}
	if code, _ := decodeError(t, resp); code != string(pkgerrors.CodeEmptyCart) {
		t.Fatalf("unexpected code %s", code)
	}
}

func TestOrderListPassesPageParams(t *testing.T) {
	customerID := uuid.NewString()
	svc := stubOrders{
		listFn: func(ctx context.Context, id string, page pagination.Params) (*pagination.Page[orders.OrderDTO], error) {
			if page.Limit != 5 || page.Cursor != "abc" {
				t.Fatalf("unexpected page params %+v", page)
			}
			return &pagination.Page[orders.OrderDTO]{Items: []orders.OrderDTO{{OrderNumber: 1001}}, NextCursor: "next"}, nil
		},
	}
	resp := httptest.NewRecorder()
	OrderList(svc, nil).ServeHTTP(resp, newRequest(http.MethodGet, "/api/v1/orders?limit=5&cursor=abc", "", customerID, nil))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	var envelope struct {
		Data pagination.Page[orders.OrderDTO] `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(envelope.Data.Items) != 1 || envelope.Data.NextCursor != "next" {
		t.Fatalf("unexpected payload %+v", envelope.Data)
	}
}

func TestOrderListRejectsBadLimit(t *testing.T) {
	resp := httptest.NewRecorder()
	OrderList(stubOrders{}, nil).ServeHTTP(resp, newRequest(http.MethodGet, "/api/v1/orders?limit=500", "", uuid.NewString(), nil))

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestOrderDetailRejectsInvalidID(t *testing.T) {
	resp := httptest.NewRecorder()
	req := newRequest(http.MethodGet, "/api/v1/orders/nope", "", uuid.NewString(), map[string]string{"orderId": "nope"})
	OrderDetail(stubOrders{}, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestOrderDetailScopesToCustomer(t *testing.T) {
	customerID := uuid.NewString()
	orderID := uuid.NewString()
	svc := stubOrders{
		getForCustomerFn: func(ctx context.Context, cid, oid string) (*orders.OrderDTO, error) {
			if cid != customerID || oid != orderID {
				t.Fatalf("unexpected lookup %s/%s", cid, oid)
			}
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		},
	}
	resp := httptest.NewRecorder()
	req := newRequest(http.MethodGet, "/api/v1/orders/"+orderID, "", customerID, map[string]string{"orderId": orderID})
	OrderDetail(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}

func TestAdminUpdateOrderStatusPassesActor(t *testing.T) {
	adminID := uuid.NewString()
	orderID := uuid.NewString()
	svc := stubOrders{
		updateStatusFn: func(ctx context.Context, oid string, status enums.OrderStatus, actor string) (*orders.OrderDTO, error) {
			if oid != orderID || actor != adminID {
				t.Fatalf("unexpected update %s by %s", oid, actor)
			}
			if status != enums.OrderStatusConfirmed {
				t.Fatalf("unexpected status %s", status)
			}
			return &orders.OrderDTO{ID: oid, Status: status}, nil
		},
	}
	resp := httptest.NewRecorder()
	req := newRequest(http.MethodPatch, "/api/admin/v1/orders/"+orderID+"/status", `{"status":"CONFIRMED"}`, adminID, map[string]string{"orderId": orderID})
	AdminUpdateOrderStatus(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestAdminSetCategoryMarkupRequiresMarkup(t *testing.T) {
	params := map[string]string{"customerId": uuid.NewString(), "categoryId": uuid.NewString()}
	resp := httptest.NewRecorder()
	req := newRequest(http.MethodPut, "/api/admin/v1/customers/x/markups/y", `{}`, uuid.NewString(), params)
	AdminSetCategoryMarkup(stubCustomers{}, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestAdminSetCategoryMarkup(t *testing.T) {
	customerID := uuid.NewString()
	categoryID := uuid.NewString()
	svc := stubCustomers{
		setMarkupFn: func(ctx context.Context, cid, catID string, markup decimal.Decimal) (*customers.CustomerDTO, error) {
			if cid != customerID || catID != categoryID {
				t.Fatalf("unexpected ids %s/%s", cid, catID)
			}
			if !markup.Equal(decimal.RequireFromString("12.5")) {
				t.Fatalf("unexpected markup %s", markup)
			}
			return &customers.CustomerDTO{ID: cid}, nil
		},
	}
	params := map[string]string{"customerId": customerID, "categoryId": strings.ToUpper(categoryID)}
	resp := httptest.NewRecorder()
	req := newRequest(http.MethodPut, "/api/admin/v1/customers/x/markups/y", `{"markup":"12.5"}`, uuid.NewString(), params)
	AdminSetCategoryMarkup(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
}
