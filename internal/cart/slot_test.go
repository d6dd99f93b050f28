package cart

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gosbiromania/storefront-backend/pkg/redis"
)

func TestFileSlotRoundTrip(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "carts")

	slot, err := NewFileSlot(dir, "cust-1")
	require.NoError(t, err)

	raw, err := slot.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, raw)

	store, err := Open(ctx, slot)
	require.NoError(t, err)
	_, err = store.SetQuantity(ctx, "p1", 4)
	require.NoError(t, err)

	onDisk, err := os.ReadFile(filepath.Join(dir, "cust-1.json"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"items":{"p1":4}}`, string(onDisk))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")

	reopened, err := Open(ctx, slot)
	require.NoError(t, err)
	assert.Equal(t, 4, reopened.Snapshot().Qty("p1"))
}

func TestFileSlotCorruptFileLoadsEmpty(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "c.json"), []byte("garbage"), 0o644))

	slot, err := NewFileSlot(dir, "c")
	require.NoError(t, err)
	store, err := Open(ctx, slot)
	require.NoError(t, err)
	assert.Equal(t, 0, store.Snapshot().Len())
}

func TestFileSlotWriteFailureKeepsState(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocked")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	// The slot directory is a regular file, so every write fails.
	slot, err := NewFileSlot(blocker, "c")
	require.NoError(t, err)
	store, err := Open(ctx, slot)
	require.NoError(t, err)

	_, err = store.SetQuantity(ctx, "p1", 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStorageWrite)
	assert.Equal(t, 0, store.ItemCount())
}

func TestNewFileSlotValidation(t *testing.T) {
	_, err := NewFileSlot("", "c")
	require.Error(t, err)

	_, err = NewFileSlot(t.TempDir(), "..")
	require.Error(t, err)

	slot, err := NewFileSlot("/tmp/carts", "../../etc/passwd")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/tmp/carts", "passwd.json"), slot.Path())
}

type stubRedis struct {
	values map[string]string
	ttls   map[string]time.Duration
	getErr error
	setErr error
}

func newStubRedis() *stubRedis {
	return &stubRedis{values: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (s *stubRedis) Get(_ context.Context, key string) (string, error) {
	if s.getErr != nil {
		return "", s.getErr
	}
	v, ok := s.values[key]
	if !ok {
		return "", redis.ErrNil
	}
	return v, nil
}

func (s *stubRedis) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	if s.setErr != nil {
		return s.setErr
	}
	s.values[key] = value.(string)
	s.ttls[key] = ttl
	return nil
}

func (s *stubRedis) CartKey(customerID string) string {
	return "gosbi:cart:v1:" + customerID
}

func TestRedisSlot(t *testing.T) {
	ctx := context.Background()
	rdb := newStubRedis()

	slot, err := NewRedisSlot(rdb, "cust-9", time.Hour)
	require.NoError(t, err)

	raw, err := slot.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, raw)

	store, err := Open(ctx, slot)
	require.NoError(t, err)
	_, err = store.Increment(ctx, "p7", 2)
	require.NoError(t, err)

	assert.JSONEq(t, `{"items":{"p7":2}}`, rdb.values["gosbi:cart:v1:cust-9"])
	assert.Equal(t, time.Hour, rdb.ttls["gosbi:cart:v1:cust-9"])

	rdb.setErr = errors.New("READONLY")
	_, err = store.Increment(ctx, "p7", 2)
	require.ErrorIs(t, err, ErrStorageWrite)
	assert.Equal(t, 2, store.ItemCount())

	rdb.getErr = errors.New("connection refused")
	_, err = Open(ctx, slot)
	require.Error(t, err)
}

func TestNewRedisSlotValidation(t *testing.T) {
	_, err := NewRedisSlot(nil, "c", 0)
	require.Error(t, err)
	_, err = NewRedisSlot(newStubRedis(), "", 0)
	require.Error(t, err)
}
