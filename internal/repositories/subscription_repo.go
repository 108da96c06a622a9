package repositories

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"farmmarket/internal/apperrors"
	"farmmarket/internal/models"
)

// SubscriptionRepository defines the interface for subscription data access.
type SubscriptionRepository interface {
	Create(subscription *models.Subscription) error
	GetByID(id string) (*models.Subscription, error)
	ListByBuyer(buyerID string) ([]models.Subscription, error)
	Update(subscription *models.Subscription) error
	// ListDue returns active subscriptions whose next delivery is at or
	// before t. Used by the rollover job.
	ListDue(t time.Time) ([]models.Subscription, error)
}

// GORMSubscriptionRepository is a GORM implementation of SubscriptionRepository.
type GORMSubscriptionRepository struct {
	db *gorm.DB
}

// NewGORMSubscriptionRepository creates a new instance of GORMSubscriptionRepository.
func NewGORMSubscriptionRepository(db *gorm.DB) *GORMSubscriptionRepository {
	return &GORMSubscriptionRepository{
		db: db,
	}
}

// Create persists a new subscription.
func (r *GORMSubscriptionRepository) Create(subscription *models.Subscription) error {
	if subscription.ID == "" {
		subscription.ID = uuid.New().String()
	}
	if err := r.db.Create(subscription).Error; err != nil {
		return fmt.Errorf("failed to create subscription: %w", err)
	}
	return nil
}

// GetByID retrieves a subscription by its ID.
func (r *GORMSubscriptionRepository) GetByID(id string) (*models.Subscription, error) {
	var subscription models.Subscription
	if err := r.db.First(&subscription, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperrors.NotFound("subscription")
		}
		return nil, fmt.Errorf("failed to get subscription by ID %s: %w", id, err)
	}
	return &subscription, nil
}

// ListByBuyer returns all of a buyer's subscriptions.
func (r *GORMSubscriptionRepository) ListByBuyer(buyerID string) ([]models.Subscription, error) {
	var subscriptions []models.Subscription
	if err := r.db.Where("buyer_id = ?", buyerID).
		Order("created_at DESC").Find(&subscriptions).Error; err != nil {
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}
	return subscriptions, nil
}

// Update saves a modified subscription.
func (r *GORMSubscriptionRepository) Update(subscription *models.Subscription) error {
	res := r.db.Save(subscription)
	if res.Error != nil {
		return fmt.Errorf("failed to update subscription: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.NotFound("subscription")
	}
	return nil
}

// ListDue returns active subscriptions due at or before t.
func (r *GORMSubscriptionRepository) ListDue(t time.Time) ([]models.Subscription, error) {
	var subscriptions []models.Subscription
	err := r.db.Where("status = ? AND next_delivery <= ?", models.SubscriptionActive, t).
		Find(&subscriptions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list due subscriptions: %w", err)
	}
	return subscriptions, nil
}
