package cart

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gosbiromania/storefront-backend/pkg/config"
	pkgerrors "github.com/gosbiromania/storefront-backend/pkg/errors"
	"github.com/gosbiromania/storefront-backend/pkg/logger"
	"github.com/gosbiromania/storefront-backend/pkg/metrics"
)

func TestNewServiceValidation(t *testing.T) {
	_, err := NewService(ServiceParams{Logger: logger.Nop()})
	require.Error(t, err)
	_, err = NewService(ServiceParams{Slots: MemorySlots()})
	require.Error(t, err)
}

func TestServiceOpenSharesCustomerSlot(t *testing.T) {
	ctx := context.Background()
	svc, err := NewService(ServiceParams{
		Slots:   MemorySlots(),
		Logger:  logger.Nop(),
		Metrics: metrics.NewCartMetrics(nil),
	})
	require.NoError(t, err)

	first, err := svc.Open(ctx, "cust-1")
	require.NoError(t, err)
	_, err = first.SetQuantity(ctx, "p1", 2)
	require.NoError(t, err)

	again, err := svc.Open(ctx, "cust-1")
	require.NoError(t, err)
	assert.Equal(t, 2, again.ItemCount())

	other, err := svc.Open(ctx, "cust-2")
	require.NoError(t, err)
	assert.Equal(t, 0, other.ItemCount())

	_, err = svc.Open(ctx, " ")
	require.Error(t, err)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeUnauthorized))
}

func TestSlotFactoryFromConfig(t *testing.T) {
	dir := t.TempDir()
	factory, err := SlotFactoryFromConfig(config.CartConfig{SlotKind: "file", FileDir: dir}, nil)
	require.NoError(t, err)
	slot, err := factory("cust")
	require.NoError(t, err)
	require.IsType(t, &FileSlot{}, slot)
	assert.Equal(t, filepath.Join(dir, "cust.json"), slot.(*FileSlot).Path())

	factory, err = SlotFactoryFromConfig(config.CartConfig{SlotKind: "redis", TTL: time.Minute}, newStubRedis())
	require.NoError(t, err)
	slot, err = factory("cust")
	require.NoError(t, err)
	assert.IsType(t, &RedisSlot{}, slot)

	_, err = SlotFactoryFromConfig(config.CartConfig{SlotKind: "redis"}, nil)
	require.Error(t, err)

	_, err = SlotFactoryFromConfig(config.CartConfig{SlotKind: "cookie"}, nil)
	require.Error(t, err)
}
