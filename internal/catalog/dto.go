package catalog

import (
	"github.com/shopspring/decimal"

	"github.com/gosbiromania/storefront-backend/pkg/db/models"
)

// AllCategories selects every category in product listings.
const AllCategories = "ALL"

type CategoryDTO struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	SortOrder int    `json:"sortOrder"`
}

// ProductDTO never exposes the base price; FinalPrice is set only for
// customers allowed to see prices.
type ProductDTO struct {
	ID          string           `json:"id"`
	CategoryID  *string          `json:"categoryId"`
	Name        string           `json:"name"`
	Description *string          `json:"description,omitempty"`
	Unit        string           `json:"unit"`
	SortOrder   int              `json:"sortOrder"`
	FinalPrice  *decimal.Decimal `json:"finalPrice,omitempty"`
}

// CatalogDTO is one page of the storefront.
type CatalogDTO struct {
	Categories    []CategoryDTO `json:"categories"`
	Products      []ProductDTO  `json:"products"`
	PricesVisible bool          `json:"pricesVisible"`
}

func categoryFromModel(c models.Category) CategoryDTO {
	return CategoryDTO{ID: c.ID.String(), Name: c.Name, SortOrder: c.SortOrder}
}

func productFromModel(p models.Product) ProductDTO {
	dto := ProductDTO{
		ID:          p.ID.String(),
		Name:        p.Name,
		Description: p.Description,
		Unit:        p.Unit,
		SortOrder:   p.SortOrder,
	}
	if p.CategoryID != nil {
		id := p.CategoryID.String()
		dto.CategoryID = &id
	}
	return dto
}
