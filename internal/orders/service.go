package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gosbiromania/storefront-backend/pkg/db"
	"github.com/gosbiromania/storefront-backend/pkg/db/models"
	"github.com/gosbiromania/storefront-backend/pkg/enums"
	pkgerrors "github.com/gosbiromania/storefront-backend/pkg/errors"
	"github.com/gosbiromania/storefront-backend/pkg/logger"
	"github.com/gosbiromania/storefront-backend/pkg/metrics"
	"github.com/gosbiromania/storefront-backend/pkg/pagination"
	"github.com/gosbiromania/storefront-backend/pkg/types"
)

const (
	// CounterName is the sequence that numbers orders.
	CounterName = "orders"
	// counterStart is the implied value of a missing counter, so the first
	// order is 1000.
	counterStart int64 = 999
)

// ServiceParams groups dependencies for the orders service.
type ServiceParams struct {
	Repo        Repository
	Tx          TxRunner
	Logger      *logger.Logger
	Metrics     *metrics.OrderMetrics
	RetryPolicy db.RetryPolicy
	Clock       func() time.Time
}

// Service exposes order submission, history and status management.
type Service interface {
	SubmitOrder(ctx context.Context, in SubmitInput) (*Receipt, error)
	ListForCustomer(ctx context.Context, customerID string, page pagination.Params) (*pagination.Page[OrderDTO], error)
	GetForCustomer(ctx context.Context, customerID, orderID string) (*OrderDTO, error)
	Get(ctx context.Context, orderID string) (*OrderDTO, error)
	UpdateStatus(ctx context.Context, orderID string, status enums.OrderStatus, adminID string) (*OrderDTO, error)
}

type service struct {
	repo    Repository
	tx      TxRunner
	logg    *logger.Logger
	metrics *metrics.OrderMetrics
	policy  db.RetryPolicy
	now     func() time.Time
}

// NewService builds an orders service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "orders repo is required")
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
	return &service{
		repo:    params.Repo,
		tx:      params.Tx,
		logg:    params.Logger,
		metrics: params.Metrics,
		policy:  params.RetryPolicy,
		now:     clock,
	}, nil
}

// SubmitOrder assigns the next order number and persists the order in one
// transaction, replayed on conflicts. The cart is cleared only after commit;
// failing to clear it is logged and does not fail the order.
func (s *service) SubmitOrder(ctx context.Context, in SubmitInput) (*Receipt, error) {
	started := time.Now()

	customerID := strings.TrimSpace(in.CustomerID)
	if customerID == "" {
		s.metrics.ObserveSubmit(metrics.OutcomeError, time.Since(started))
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, ErrMissingCustomer, "customer is required")
	}
	customerUUID, err := uuid.Parse(customerID)
	if err != nil {
		s.metrics.ObserveSubmit(metrics.OutcomeError, time.Since(started))
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid customer id")
	}
	if len(in.Snapshot.Lines) == 0 {
		s.metrics.ObserveSubmit(metrics.OutcomeEmptyCart, time.Since(started))
		return nil, emptyCartError()
	}

	client := in.Client
	client.CustomerID = customerID

	attempts := 0
	var created *models.Order
	err = s.tx.WithRetryTx(ctx, s.policy, func(tx *gorm.DB) error {
		attempts++
		s.metrics.IncAttempt()
		repo := s.repo.WithTx(tx)

		number, err := allocateNumber(ctx, repo)
		if err != nil {
			return err
		}

		at := s.now().UTC()
		order := &models.Order{
			OrderNumber: number,
			CustomerID:  customerUUID,
			Client:      client,
			Items:       in.Snapshot.Lines,
			ItemCount:   in.Snapshot.ItemCount,
			Total:       in.Snapshot.Total,
			Status:      enums.OrderStatusNew,
			StatusHistory: types.StatusHistory{
				{Status: enums.OrderStatusNew, At: at},
			},
		}
		if err := repo.CreateOrder(ctx, order); err != nil {
			if db.IsUniqueViolation(err, "") {
				return fmt.Errorf("%w: order number %d taken: %w", db.ErrConflict, number, err)
			}
			return err
		}
		created = order
		return nil
	})
	for i := 1; i < attempts; i++ {
		s.metrics.IncConflict()
	}
	if err != nil {
		outcome, mapped := classifySubmitError(err, attempts)
		s.metrics.ObserveSubmit(outcome, time.Since(started))
		s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
			"customer_id": customerID,
			"attempts":    attempts,
			"error":       err.Error(),
		}), "order.submit_failed")
		return nil, mapped
	}
	s.metrics.ObserveSubmit(metrics.OutcomeSuccess, time.Since(started))

	logCtx := s.logg.WithOrderNumber(s.logg.WithCustomerID(ctx, customerID), created.OrderNumber)
	s.logg.Info(logCtx, "order.submitted")

	if in.Cart != nil {
		if err := in.Cart.Clear(ctx); err != nil {
			s.logg.Error(logCtx, "order.cart_clear_failed", err)
		}
	}

	return &Receipt{
		OrderID:     created.ID.String(),
		OrderNumber: created.OrderNumber,
		Status:      created.Status,
		ItemCount:   created.ItemCount,
		Total:       created.Total,
	}, nil
}

func allocateNumber(ctx context.Context, repo Repository) (int64, error) {
	current, exists, err := repo.ReadCounter(ctx, CounterName)
	if err != nil {
		return 0, err
	}
	if !exists {
		next := counterStart + 1
		if err := repo.InsertCounter(ctx, CounterName, next); err != nil {
			return 0, err
		}
		return next, nil
	}
	next := current + 1
	if err := repo.CompareAndSwapCounter(ctx, CounterName, current, next); err != nil {
		return 0, err
	}
	return next, nil
}

func classifySubmitError(err error, attempts int) (string, error) {
	if db.IsRetryable(err) {
		return metrics.OutcomeConflict, pkgerrors.Wrap(pkgerrors.CodeTransactionConflict, err, "order could not be numbered").
			WithDetails(map[string]any{"attempts": attempts})
	}
	return metrics.OutcomeError, storeError(err, "order store unavailable")
}

// storeError keeps typed errors and reports everything else as a dependency
// failure; exhausted conflicts become TRANSACTION_CONFLICT.
func storeError(err error, message string) error {
	if db.IsRetryable(err) {
		return pkgerrors.Wrap(pkgerrors.CodeTransactionConflict, err, message)
	}
	if typed := pkgerrors.As(err); typed != nil {
		return typed
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, message)
}

func (s *service) ListForCustomer(ctx context.Context, customerID string, page pagination.Params) (*pagination.Page[OrderDTO], error) {
	cid, err := parseID(customerID, "customer")
	if err != nil {
		return nil, err
	}
	before, err := pagination.ParseCursor(page.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, err := s.repo.ListByCustomer(ctx, cid, before, pagination.LimitWithBuffer(page.Limit))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	out := make([]OrderDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, FromModel(row))
	}
	result := pagination.Build(out, page.Limit, func(o OrderDTO) int64 { return o.OrderNumber })
	return &result, nil
}

// GetForCustomer hides orders owned by someone else behind NOT_FOUND.
func (s *service) GetForCustomer(ctx context.Context, customerID, orderID string) (*OrderDTO, error) {
	cid, err := parseID(customerID, "customer")
	if err != nil {
		return nil, err
	}
	order, err := s.find(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.CustomerID != cid {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	dto := FromModel(*order)
	return &dto, nil
}

func (s *service) Get(ctx context.Context, orderID string) (*OrderDTO, error) {
	order, err := s.find(ctx, orderID)
	if err != nil {
		return nil, err
	}
	dto := FromModel(*order)
	return &dto, nil
}

// UpdateStatus appends to the status history. Lines, totals and the order
// number never change. Terminal orders reject further transitions.
func (s *service) UpdateStatus(ctx context.Context, orderID string, status enums.OrderStatus, adminID string) (*OrderDTO, error) {
	id, err := parseID(orderID, "order")
	if err != nil {
		return nil, err
	}
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status").
			WithDetails(map[string]any{"status": status})
	}
	var actor *string
	if trimmed := strings.TrimSpace(adminID); trimmed != "" {
		actor = &trimmed
	}

	var updated *models.Order
	err = s.tx.WithRetryTx(ctx, s.policy, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if order.Status == status {
			updated = order
			return nil
		}
		if order.Status.IsTerminal() {
			return pkgerrors.Newf(pkgerrors.CodeStateConflict, "order is already %s", strings.ToLower(string(order.Status))).
				WithDetails(map[string]any{"status": order.Status})
		}
		history := append(append(types.StatusHistory{}, order.StatusHistory...), types.StatusEntry{
			Status:  status,
			At:      s.now().UTC(),
			AdminID: actor,
		})
		if err := repo.UpdateStatus(ctx, id, order.Status, status, history); err != nil {
			return err
		}
		order.Status = status
		order.StatusHistory = history
		updated = order
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, storeError(err, "order status could not be updated")
	}

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"order_id": orderID,
		"status":   status,
	}), "order.status_updated")

	dto := FromModel(*updated)
	return &dto, nil
}

func (s *service) find(ctx context.Context, orderID string) (*models.Order, error) {
	id, err := parseID(orderID, "order")
	if err != nil {
		return nil, err
	}
	order, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

func parseID(raw, what string) (uuid.UUID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, what+" id is required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+what+" id")
	}
	return id, nil
}
