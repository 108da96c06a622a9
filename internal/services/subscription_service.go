package services

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"farmmarket/internal/apperrors"
	"farmmarket/internal/models"
	"farmmarket/internal/repositories"
)

// SubscriptionService manages recurring product boxes.
type SubscriptionService struct {
	subscriptionRepo repositories.SubscriptionRepository
	productRepo      repositories.ProductRepository
	notificationRepo repositories.NotificationRepository
	now              func() time.Time
}

// NewSubscriptionService creates a new SubscriptionService.
func NewSubscriptionService(
	subscriptionRepo repositories.SubscriptionRepository,
	productRepo repositories.ProductRepository,
	notificationRepo repositories.NotificationRepository,
) *SubscriptionService {
	return &SubscriptionService{
		subscriptionRepo: subscriptionRepo,
		productRepo:      productRepo,
		notificationRepo: notificationRepo,
		now:              time.Now,
	}
}

// Subscribe creates an active subscription with the first delivery one
// cadence from now.
func (s *SubscriptionService) Subscribe(buyerID, productID string, quantity int, frequency string) (*models.Subscription, error) {
	if quantity < 1 {
		return nil, apperrors.Validation("quantity", "quantity must be at least 1")
	}
	if frequency != models.FrequencyWeekly && frequency != models.FrequencyMonthly {
		return nil, apperrors.Validation("frequency", "frequency must be weekly or monthly")
	}
	product, err := s.productRepo.GetByID(productID)
	if err != nil {
		return nil, err
	}
	if !product.Active {
		return nil, apperrors.Validation("product_id", "product is not available")
	}

	subscription := &models.Subscription{
		BuyerID:      buyerID,
		ProductID:    productID,
		Quantity:     quantity,
		Frequency:    frequency,
		Status:       models.SubscriptionActive,
		NextDelivery: advance(s.now(), frequency),
	}
	if err := s.subscriptionRepo.Create(subscription); err != nil {
		return nil, err
	}
	return subscription, nil
}

// ListSubscriptions returns a buyer's subscriptions.
func (s *SubscriptionService) ListSubscriptions(buyerID string) ([]models.Subscription, error) {
	return s.subscriptionRepo.ListByBuyer(buyerID)
}

// Cancel marks one of the buyer's subscriptions cancelled.
func (s *SubscriptionService) Cancel(id, buyerID string) error {
	subscription, err := s.subscriptionRepo.GetByID(id)
	if err != nil {
		return err
	}
	if subscription.BuyerID != buyerID {
		return apperrors.New(apperrors.KindForbidden, "you do not own this subscription")
	}
	if subscription.Status == models.SubscriptionCancelled {
		return apperrors.New(apperrors.KindConflict, "subscription is already cancelled")
	}
	subscription.Status = models.SubscriptionCancelled
	return s.subscriptionRepo.Update(subscription)
}

// Rollover advances every due active subscription by one cadence and
// notifies the buyer. Run periodically by the cron job; returns how many
// subscriptions were rolled.
func (s *SubscriptionService) Rollover() (int, error) {
	due, err := s.subscriptionRepo.ListDue(s.now())
	if err != nil {
		return 0, fmt.Errorf("failed to list due subscriptions: %w", err)
	}

	rolled := 0
	for i := range due {
		subscription := due[i]
		subscription.NextDelivery = advance(subscription.NextDelivery, subscription.Frequency)
		if err := s.subscriptionRepo.Update(&subscription); err != nil {
			zap.S().Errorf("failed to roll subscription %s: %v", subscription.ID, err)
			continue
		}
		rolled++

		notification := &models.Notification{
			UserID: subscription.BuyerID,
			Type:   models.NotificationSubscriptionDue,
			Title:  "Subscription delivery due",
			Body: fmt.Sprintf("Your %s subscription is due; next delivery scheduled for %s.",
				subscription.Frequency, subscription.NextDelivery.Format("2006-01-02")),
		}
		if err := s.notificationRepo.Create(notification); err != nil {
			zap.S().Warnf("failed to notify buyer %s of subscription rollover: %v", subscription.BuyerID, err)
		}
	}
	return rolled, nil
}

func advance(t time.Time, frequency string) time.Time {
	if frequency == models.FrequencyWeekly {
		return t.AddDate(0, 0, 7)
	}
	return t.AddDate(0, 1, 0)
}
