package services

import (
	"github.com/shopspring/decimal"

	"farmmarket/internal/apperrors"
	"farmmarket/internal/models"
	"farmmarket/internal/repositories"
)

// ReviewService handles review creation and on-read rating aggregation.
type ReviewService struct {
	reviewRepo  repositories.ReviewRepository
	productRepo repositories.ProductRepository
	orderRepo   repositories.OrderRepository
}

// NewReviewService creates a new ReviewService.
func NewReviewService(
	reviewRepo repositories.ReviewRepository,
	productRepo repositories.ProductRepository,
	orderRepo repositories.OrderRepository,
) *ReviewService {
	return &ReviewService{
		reviewRepo:  reviewRepo,
		productRepo: productRepo,
		orderRepo:   orderRepo,
	}
}

// CreateReview records a buyer's review. The review is marked verified only
// when the linked order belongs to the buyer and has been delivered. A buyer
// gets one review per product: the lookup rejects duplicates up front, and
// the store-level unique index backstops racing inserts.
func (s *ReviewService) CreateReview(review *models.Review) (*models.Review, error) {
	if review.Rating < 1 || review.Rating > 5 {
		return nil, apperrors.Validation("rating", "rating must be between 1 and 5")
	}
	if _, err := s.productRepo.GetByID(review.ProductID); err != nil {
		return nil, err
	}
	if _, err := s.reviewRepo.GetByProductAndBuyer(review.ProductID, review.BuyerID); err == nil {
		return nil, apperrors.New(apperrors.KindConflict, "you have already reviewed this product")
	} else if !apperrors.Is(err, apperrors.KindNotFound) {
		return nil, err
	}

	review.Verified = false
	if review.OrderID != "" {
		order, err := s.orderRepo.GetByID(review.OrderID)
		if err != nil {
			if !apperrors.Is(err, apperrors.KindNotFound) {
				return nil, err
			}
		} else if order.BuyerID == review.BuyerID && order.Status == models.OrderStatusDelivered {
			review.Verified = true
		}
	}

	if err := s.reviewRepo.Create(review); err != nil {
		return nil, err
	}
	return review, nil
}

// GetProductReviews returns a product's reviews plus the on-read aggregate.
func (s *ReviewService) GetProductReviews(productID string) ([]models.Review, *models.ProductRating, error) {
	if _, err := s.productRepo.GetByID(productID); err != nil {
		return nil, nil, err
	}
	reviews, err := s.reviewRepo.ListByProduct(productID)
	if err != nil {
		return nil, nil, err
	}

	rating := &models.ProductRating{
		ProductID:   productID,
		Average:     "0.00",
		ReviewCount: int64(len(reviews)),
	}
	if len(reviews) > 0 {
		sum := decimal.Zero
		for _, review := range reviews {
			sum = sum.Add(decimal.NewFromInt(int64(review.Rating)))
		}
		rating.Average = sum.Div(decimal.NewFromInt(int64(len(reviews)))).Round(2).StringFixed(2)
	}
	return reviews, rating, nil
}
