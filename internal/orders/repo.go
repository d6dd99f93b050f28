package orders

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gosbiromania/storefront-backend/pkg/db"
	"github.com/gosbiromania/storefront-backend/pkg/db/models"
	"github.com/gosbiromania/storefront-backend/pkg/enums"
	"github.com/gosbiromania/storefront-backend/pkg/types"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(conn *gorm.DB) Repository {
	return &repository{db: conn}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) ReadCounter(ctx context.Context, name string) (int64, bool, error) {
	var counter models.OrderCounter
	err := r.db.WithContext(ctx).Where("name = ?", name).Take(&counter).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return counter.Current, true, nil
}

func (r *repository) InsertCounter(ctx context.Context, name string, value int64) error {
	err := r.db.WithContext(ctx).Create(&models.OrderCounter{Name: name, Current: value}).Error
	if err != nil && db.IsUniqueViolation(err, "") {
		return fmt.Errorf("%w: counter %s created concurrently: %w", db.ErrConflict, name, err)
	}
	return err
}

func (r *repository) CompareAndSwapCounter(ctx context.Context, name string, expected, next int64) error {
	res := r.db.WithContext(ctx).
		Model(&models.OrderCounter{}).
		Where("name = ? AND current_value = ?", name, expected).
		Updates(map[string]any{
			"current_value": next,
			"updated_at":    time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: counter %s moved past %d", db.ErrConflict, name, expected)
	}
	return nil
}

func (r *repository) CreateOrder(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).Where("id = ?", id).Take(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) ListByCustomer(ctx context.Context, customerID uuid.UUID, before int64, limit int) ([]models.Order, error) {
	var orders []models.Order
	query := r.db.WithContext(ctx).Where("customer_id = ?", customerID)
	if before > 0 {
		query = query.Where("order_number < ?", before)
	}
	err := query.
		Order("order_number DESC").
		Limit(limit).
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *repository) UpdateStatus(ctx context.Context, id uuid.UUID, expected, status enums.OrderStatus, history types.StatusHistory) error {
	encoded, err := json.Marshal(history)
	if err != nil {
		return fmt.Errorf("encoding status history: %w", err)
	}
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND status = ?", id, expected).
		Updates(map[string]any{
			"status":         string(status),
			"status_history": string(encoded),
			"updated_at":     time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: order %s left status %s", db.ErrConflict, id, expected)
	}
	return nil
}
