package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	pkgerrors "github.com/gosbiromania/storefront-backend/pkg/errors"
	"github.com/gosbiromania/storefront-backend/pkg/metrics"
)

// ErrStorageWrite is the root cause of every failed slot write.
var ErrStorageWrite = errors.New("cart: storage write failed")

// Listener receives the cart state after each successful mutation.
type Listener func(Snapshot)

// Store is a customer's cart: product id to positive quantity, persisted to
// a Slot on every change. A mutation is applied in memory only after the
// new state has been written; a failed write leaves the cart untouched.
//
// Listeners run synchronously while the mutation lock is held, so they may
// read the store but must not mutate it.
type Store struct {
	mu    sync.Mutex
	slot  Slot
	state atomic.Pointer[Snapshot]

	listeners map[int]Listener
	nextID    int

	metrics *metrics.CartMetrics
}

// Option configures a Store.
type Option func(*Store)

// WithMetrics records mutation outcomes.
func WithMetrics(m *metrics.CartMetrics) Option {
	return func(s *Store) { s.metrics = m }
}

// Open loads the cart held in slot. Unreadable contents load as an empty cart.
func Open(ctx context.Context, slot Slot, opts ...Option) (*Store, error) {
	if slot == nil {
		return nil, fmt.Errorf("cart slot required")
	}
	raw, err := slot.Load(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cart could not be loaded")
	}
	snap, _ := decodeSnapshot(raw)

	s := &Store{slot: slot, listeners: map[int]Listener{}}
	for _, opt := range opts {
		opt(s)
	}
	s.state.Store(&snap)
	return s, nil
}

// Snapshot returns the current state.
func (s *Store) Snapshot() Snapshot {
	return *s.state.Load()
}

// Items yields the current entries; see Snapshot.Items.
func (s *Store) Items() iter.Seq[Item] {
	return s.Snapshot().Items()
}

// ItemCount is the sum of all quantities.
func (s *Store) ItemCount() int {
	return s.Snapshot().ItemCount()
}

// SetQuantity stores qty for productID; zero or less removes the entry.
func (s *Store) SetQuantity(ctx context.Context, productID string, qty int) (Snapshot, error) {
	id, err := normalizeID(productID)
	if err != nil {
		return s.Snapshot(), err
	}
	return s.mutate(ctx, "set_quantity", func(cur Snapshot) Snapshot {
		return cur.with(id, clampQty(int64(qty)))
	})
}

// Increment adds step (which may be negative) to the current quantity,
// treating an absent entry as zero and never going below zero.
func (s *Store) Increment(ctx context.Context, productID string, step int) (Snapshot, error) {
	id, err := normalizeID(productID)
	if err != nil {
		return s.Snapshot(), err
	}
	return s.mutate(ctx, "increment", func(cur Snapshot) Snapshot {
		return cur.with(id, clampQty(int64(cur.Qty(id))+int64(step)))
	})
}

// RemoveItem deletes productID; removing an absent product is not an error.
func (s *Store) RemoveItem(ctx context.Context, productID string) (Snapshot, error) {
	id, err := normalizeID(productID)
	if err != nil {
		return s.Snapshot(), err
	}
	return s.mutate(ctx, "remove_item", func(cur Snapshot) Snapshot {
		return cur.with(id, 0)
	})
}

// RemoveItems deletes every listed product in a single write.
func (s *Store) RemoveItems(ctx context.Context, productIDs ...string) (Snapshot, error) {
	return s.mutate(ctx, "remove_items", func(cur Snapshot) Snapshot {
		next := cur
		for _, raw := range productIDs {
			if id := canonicalID(raw); id != "" {
				next = next.with(id, 0)
			}
		}
		return next
	})
}

// Clear empties the cart.
func (s *Store) Clear(ctx context.Context) error {
	_, err := s.mutate(ctx, "clear", func(Snapshot) Snapshot {
		return newSnapshot(nil)
	})
	return err
}

// Subscribe registers fn for change notifications and returns a func that
// removes it.
func (s *Store) Subscribe(fn Listener) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

func (s *Store) mutate(ctx context.Context, op string, next func(Snapshot) Snapshot) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur := *s.state.Load()
	updated := next(cur)

	raw, err := json.Marshal(updated)
	if err != nil {
		return cur, fmt.Errorf("encoding cart: %w", err)
	}
	if err := s.slot.Save(ctx, raw); err != nil {
		s.metrics.ObserveMutation(op, false)
		cause := fmt.Errorf("%w: %w", ErrStorageWrite, err)
		return cur, pkgerrors.Wrap(pkgerrors.CodeStorageWrite, cause, "cart could not be saved")
	}

	s.state.Store(&updated)
	s.metrics.ObserveMutation(op, true)
	for _, fn := range s.listeners {
		fn(updated)
	}
	return updated, nil
}

func normalizeID(productID string) (string, error) {
	id := canonicalID(productID)
	if id == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	return id, nil
}

// canonicalID folds every spelling of a uuid (upper case, braces, urn) into
// the lowercase form product ids are stored and looked up under. Other ids
// are only trimmed.
func canonicalID(productID string) string {
	id := strings.TrimSpace(productID)
	if parsed, err := uuid.Parse(id); err == nil {
		return parsed.String()
	}
	return id
}
