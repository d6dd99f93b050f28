package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gosbiromania/storefront-backend/pkg/redis"
)

type redisStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	CartKey(customerID string) string
}

// RedisSlot stores the cart under the customer's namespaced cart key. The
// TTL is refreshed on every write.
type RedisSlot struct {
	store redisStore
	key   string
	ttl   time.Duration
}

func NewRedisSlot(store redisStore, customerID string, ttl time.Duration) (*RedisSlot, error) {
	if store == nil {
		return nil, fmt.Errorf("redis client required")
	}
	if customerID == "" {
		return nil, fmt.Errorf("customer id required")
	}
	return &RedisSlot{store: store, key: store.CartKey(customerID), ttl: ttl}, nil
}

func (r *RedisSlot) Load(ctx context.Context) ([]byte, error) {
	val, err := r.store.Get(ctx, r.key)
	if errors.Is(err, redis.ErrNil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading cart %s: %w", r.key, err)
	}
	return []byte(val), nil
}

func (r *RedisSlot) Save(ctx context.Context, raw []byte) error {
	if err := r.store.Set(ctx, r.key, string(raw), r.ttl); err != nil {
		return fmt.Errorf("writing cart %s: %w", r.key, err)
	}
	return nil
}
