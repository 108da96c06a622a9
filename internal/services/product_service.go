package services

import (
	"github.com/shopspring/decimal"

	"farmmarket/internal/apperrors"
	"farmmarket/internal/models"
	"farmmarket/internal/repositories"
)

// ProductService handles business logic related to the product catalog.
type ProductService struct {
	repo repositories.ProductRepository
}

// NewProductService creates a new ProductService.
func NewProductService(repo repositories.ProductRepository) *ProductService {
	return &ProductService{
		repo: repo,
	}
}

// ListProducts retrieves a filtered page of products.
func (s *ProductService) ListProducts(filter repositories.ProductFilter, offset, limit int) ([]models.Product, int64, error) {
	return s.repo.List(filter, offset, limit)
}

// GetProductByID retrieves a single product by its ID.
func (s *ProductService) GetProductByID(id string) (*models.Product, error) {
	return s.repo.GetByID(id)
}

// CreateProduct creates a new catalog product for a farmer.
func (s *ProductService) CreateProduct(product *models.Product) error {
	if product.Price.Cmp(decimal.Zero) <= 0 {
		return apperrors.Validation("price", "price must be greater than zero")
	}
	if product.Stock < 0 {
		return apperrors.Validation("stock", "stock cannot be negative")
	}
	return s.repo.Create(product)
}

// UpdateProduct updates an existing product; only the owning farmer may.
func (s *ProductService) UpdateProduct(product *models.Product, farmerID string) error {
	existing, err := s.repo.GetByID(product.ID)
	if err != nil {
		return err
	}
	if existing.FarmerID != farmerID {
		return apperrors.New(apperrors.KindForbidden, "you do not own this product")
	}
	if product.Price.Cmp(decimal.Zero) <= 0 {
		return apperrors.Validation("price", "price must be greater than zero")
	}
	if product.Stock < 0 {
		return apperrors.Validation("stock", "stock cannot be negative")
	}
	product.FarmerID = existing.FarmerID
	return s.repo.Update(product)
}

// DeleteProduct deletes a product; only the owning farmer may. Carts keep
// referencing the product by id only, so checkout drops stale lines instead
// of failing on them.
func (s *ProductService) DeleteProduct(id, farmerID string) error {
	existing, err := s.repo.GetByID(id)
	if err != nil {
		return err
	}
	if existing.FarmerID != farmerID {
		return apperrors.New(apperrors.KindForbidden, "you do not own this product")
	}
	return s.repo.Delete(id)
}
