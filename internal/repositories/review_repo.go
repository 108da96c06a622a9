package repositories

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"farmmarket/internal/apperrors"
	"farmmarket/internal/models"
)

// ReviewRepository defines the interface for review data access.
type ReviewRepository interface {
	// Create persists a review; a second review for the same (product, buyer)
	// pair fails on the unique index with a conflict error.
	Create(review *models.Review) error
	ListByProduct(productID string) ([]models.Review, error)
	GetByProductAndBuyer(productID, buyerID string) (*models.Review, error)
}

// GORMReviewRepository is a GORM implementation of ReviewRepository.
type GORMReviewRepository struct {
	db *gorm.DB
}

// NewGORMReviewRepository creates a new instance of GORMReviewRepository.
func NewGORMReviewRepository(db *gorm.DB) *GORMReviewRepository {
	return &GORMReviewRepository{
		db: db,
	}
}

// Create persists a review, mapping a unique-index violation to a conflict.
func (r *GORMReviewRepository) Create(review *models.Review) error {
	if review.ID == "" {
		review.ID = uuid.New().String()
	}
	if err := r.db.Create(review).Error; err != nil {
		if isDuplicateKeyError(err) {
			return apperrors.New(apperrors.KindConflict, "you have already reviewed this product")
		}
		return fmt.Errorf("failed to create review: %w", err)
	}
	return nil
}

// ListByProduct returns all reviews for a product, newest first.
func (r *GORMReviewRepository) ListByProduct(productID string) ([]models.Review, error) {
	var reviews []models.Review
	if err := r.db.Where("product_id = ?", productID).
		Order("created_at DESC").Find(&reviews).Error; err != nil {
		return nil, fmt.Errorf("failed to list reviews for product %s: %w", productID, err)
	}
	return reviews, nil
}

// GetByProductAndBuyer returns the buyer's review of a product, if any.
func (r *GORMReviewRepository) GetByProductAndBuyer(productID, buyerID string) (*models.Review, error) {
	var review models.Review
	err := r.db.Where("product_id = ? AND buyer_id = ?", productID, buyerID).First(&review).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperrors.NotFound("review")
		}
		return nil, fmt.Errorf("failed to get review: %w", err)
	}
	return &review, nil
}

// isDuplicateKeyError recognizes unique-constraint violations across the
// postgres and sqlite drivers.
func isDuplicateKeyError(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value")
}
