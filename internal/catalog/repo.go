package catalog

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gosbiromania/storefront-backend/pkg/db/models"
)

// Repository reads categories and products.
type Repository interface {
	ListActiveCategories(ctx context.Context) ([]models.Category, error)
	ListActiveProducts(ctx context.Context, categoryID *uuid.UUID) ([]models.Product, error)
	FindProductsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a catalog repository bound to the provided DB.
func NewRepository(conn *gorm.DB) Repository {
	return &repository{db: conn}
}

const listOrder = "sort_order ASC, LOWER(name) ASC, id ASC"

func (r *repository) ListActiveCategories(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	err := r.db.WithContext(ctx).
		Where("active = ?", true).
		Order(listOrder).
		Find(&categories).Error
	if err != nil {
		return nil, err
	}
	return categories, nil
}

func (r *repository) ListActiveProducts(ctx context.Context, categoryID *uuid.UUID) ([]models.Product, error) {
	var products []models.Product
	q := r.db.WithContext(ctx).Where("active = ?", true)
	if categoryID != nil {
		q = q.Where("category_id = ?", *categoryID)
	}
	if err := q.Order(listOrder).Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

// FindProductsByIDs returns matching products whether active or not.
func (r *repository) FindProductsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var products []models.Product
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}
