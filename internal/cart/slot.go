package cart

import (
	"context"
	"sync"
)

// Slot is the durable home of one customer's serialized cart.
// Load returns nil bytes when nothing has been stored yet.
type Slot interface {
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, raw []byte) error
}

// MemorySlot keeps the payload in process memory.
type MemorySlot struct {
	mu      sync.Mutex
	raw     []byte
	saveErr error
	saves   int
}

// NewMemorySlot returns a slot preloaded with raw.
func NewMemorySlot(raw []byte) *MemorySlot {
	return &MemorySlot{raw: append([]byte(nil), raw...)}
}

func (m *MemorySlot) Load(context.Context) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.raw == nil {
		return nil, nil
	}
	return append([]byte(nil), m.raw...), nil
}

func (m *MemorySlot) Save(_ context.Context, raw []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.raw = append([]byte(nil), raw...)
	m.saves++
	return nil
}

// FailSaves makes every subsequent Save return err; nil restores writes.
func (m *MemorySlot) FailSaves(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveErr = err
}

// Saves counts successful writes.
func (m *MemorySlot) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}
