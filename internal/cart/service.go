package cart

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/gosbiromania/storefront-backend/pkg/config"
	pkgerrors "github.com/gosbiromania/storefront-backend/pkg/errors"
	"github.com/gosbiromania/storefront-backend/pkg/logger"
	"github.com/gosbiromania/storefront-backend/pkg/metrics"
)

// SlotFactory returns the slot holding customerID's cart.
type SlotFactory func(customerID string) (Slot, error)

// ServiceParams groups dependencies for the cart service.
type ServiceParams struct {
	Slots   SlotFactory
	Logger  *logger.Logger
	Metrics *metrics.CartMetrics
}

// Service opens per-customer cart stores.
type Service interface {
	Open(ctx context.Context, customerID string) (*Store, error)
}

type service struct {
	slots   SlotFactory
	logg    *logger.Logger
	metrics *metrics.CartMetrics
}

// NewService builds a cart service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Slots == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart slot factory is required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "logger is required")
	}
	return &service{
		slots:   params.Slots,
		logg:    params.Logger,
		metrics: params.Metrics,
	}, nil
}

// Open loads the customer's cart fresh from its slot. Concurrent writers for
// the same customer are last-writer-wins.
func (s *service) Open(ctx context.Context, customerID string) (*Store, error) {
	customerID = strings.TrimSpace(customerID)
	if customerID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "customer id is required")
	}
	slot, err := s.slots(customerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "cart slot unavailable")
	}
	store, err := Open(ctx, slot, WithMetrics(s.metrics))
	if err != nil {
		return nil, err
	}
	logCtx := s.logg.WithCustomerID(ctx, customerID)
	store.Subscribe(func(snap Snapshot) {
		s.logg.Debug(s.logg.WithFields(logCtx, map[string]any{
			"cart_lines": snap.Len(),
			"cart_units": snap.ItemCount(),
		}), "cart.updated")
	})
	return store, nil
}

// SlotFactoryFromConfig picks the slot backend named by cfg.
func SlotFactoryFromConfig(cfg config.CartConfig, rdb redisStore) (SlotFactory, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.SlotKind)) {
	case config.CartSlotFile:
		dir := cfg.FileDir
		return func(customerID string) (Slot, error) {
			return NewFileSlot(dir, customerID)
		}, nil
	case config.CartSlotRedis, "":
		if rdb == nil {
			return nil, fmt.Errorf("redis cart slot requires a redis client")
		}
		ttl := cfg.TTL
		if ttl < 0 {
			ttl = 0
		}
		return func(customerID string) (Slot, error) {
			return NewRedisSlot(rdb, customerID, ttl)
		}, nil
	default:
		return nil, fmt.Errorf("unknown cart slot kind %q", cfg.SlotKind)
	}
}

// MemorySlots returns a factory that keeps one MemorySlot per customer.
func MemorySlots() SlotFactory {
	var mu sync.Mutex
	slots := map[string]*MemorySlot{}
	return func(customerID string) (Slot, error) {
		mu.Lock()
		defer mu.Unlock()
		slot, ok := slots[customerID]
		if !ok {
			slot = NewMemorySlot(nil)
			slots[customerID] = slot
		}
		return slot, nil
	}
}
