package repositories

import (
	"github.com/shopspring/decimal"

	"farmmarket/internal/models"
)

// ProductFilter narrows catalog listings.
type ProductFilter struct {
	FarmerID   string
	Category   string
	MinPrice   *decimal.Decimal
	MaxPrice   *decimal.Decimal
	InStock    bool
	Search     string
	ActiveOnly bool
}

// ProductRepository defines the interface for product data access.
type ProductRepository interface {
	List(filter ProductFilter, offset, limit int) ([]models.Product, int64, error)
	GetByID(id string) (*models.Product, error)
	Create(product *models.Product) error
	Update(product *models.Product) error
	Delete(id string) error
	// DecrementStock atomically decrements stock by qty, failing with an
	// insufficient-stock error when the row does not hold at least qty.
	DecrementStock(id string, qty int) error
	// RestoreStock adds qty back, used for compensation and cancellations.
	RestoreStock(id string, qty int) error
}
