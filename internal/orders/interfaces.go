package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gosbiromania/storefront-backend/pkg/db"
	"github.com/gosbiromania/storefront-backend/pkg/db/models"
	"github.com/gosbiromania/storefront-backend/pkg/enums"
	"github.com/gosbiromania/storefront-backend/pkg/types"
)

// Repository defines persistence operations for orders and their counter.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	// ReadCounter returns the counter value and whether the row exists.
	ReadCounter(ctx context.Context, name string) (int64, bool, error)
	// InsertCounter creates the counter row; a concurrent insert yields db.ErrConflict.
	InsertCounter(ctx context.Context, name string, value int64) error
	// CompareAndSwapCounter moves the counter from expected to next or
	// returns db.ErrConflict when another writer got there first.
	CompareAndSwapCounter(ctx context.Context, name string, expected, next int64) error

	CreateOrder(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	// ListByCustomer returns up to limit orders numbered below before,
	// newest first. before <= 0 starts from the newest order.
	ListByCustomer(ctx context.Context, customerID uuid.UUID, before int64, limit int) ([]models.Order, error)
	// UpdateStatus applies status and history only if the order is still in
	// expected; otherwise it returns db.ErrConflict.
	UpdateStatus(ctx context.Context, id uuid.UUID, expected, status enums.OrderStatus, history types.StatusHistory) error
}

// TxRunner runs fn in a transaction, replaying it on concurrency conflicts.
type TxRunner interface {
	WithRetryTx(ctx context.Context, policy db.RetryPolicy, fn func(tx *gorm.DB) error) error
}

// CartClearer empties the cart an order was built from.
type CartClearer interface {
	Clear(ctx context.Context) error
}
