package services_test

import (
	"testing"
	"time"

	"farmmarket/internal/apperrors"
	"farmmarket/internal/models"
	"farmmarket/internal/repositories"
	"farmmarket/internal/services"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSubscriptionFixture(t *testing.T, name string) (*services.SubscriptionService, *repositories.GORMSubscriptionRepository, *stubNotificationRepository) {
	db := openTestDB(t, name, &models.Subscription{})
	subscriptionRepo := repositories.NewGORMSubscriptionRepository(db)
	productRepo := repositories.NewMockProductRepository()
	notifRepo := &stubNotificationRepository{}

	require.NoError(t, productRepo.Create(&models.Product{
		ID: "prod-a", FarmerID: "farmer-1", Name: "Heirloom Tomatoes",
		Price: decimal.RequireFromString("4.99"), Stock: 10, Active: true,
	}))
	return services.NewSubscriptionService(subscriptionRepo, productRepo, notifRepo), subscriptionRepo, notifRepo
}

func TestSubscriptionService_Subscribe(t *testing.T) {
	svc, _, _ := newSubscriptionFixture(t, "subcreate")

	subscription, err := svc.Subscribe("buyer-1", "prod-a", 2, models.FrequencyWeekly)
	require.NoError(t, err)
	assert.Equal(t, models.SubscriptionActive, subscription.Status)

	// First delivery is one cadence out
	expected := time.Now().AddDate(0, 0, 7)
	assert.WithinDuration(t, expected, subscription.NextDelivery, time.Minute)

	listed, err := svc.ListSubscriptions("buyer-1")
	require.NoError(t, err)
	assert.Len(t, listed, 1)
}

func TestSubscriptionService_SubscribeValidation(t *testing.T) {
	svc, _, _ := newSubscriptionFixture(t, "subvalidation")

	_, err := svc.Subscribe("buyer-1", "prod-a", 0, models.FrequencyWeekly)
	assert.True(t, apperrors.Is(err, apperrors.KindValidation))

	_, err = svc.Subscribe("buyer-1", "prod-a", 1, "daily")
	assert.True(t, apperrors.Is(err, apperrors.KindValidation))

	_, err = svc.Subscribe("buyer-1", "missing", 1, models.FrequencyWeekly)
	assert.True(t, apperrors.Is(err, apperrors.KindNotFound))
}

func TestSubscriptionService_Cancel(t *testing.T) {
	svc, _, _ := newSubscriptionFixture(t, "subcancel")

	subscription, err := svc.Subscribe("buyer-1", "prod-a", 1, models.FrequencyMonthly)
	require.NoError(t, err)

	// Only the owner may cancel
	err = svc.Cancel(subscription.ID, "buyer-2")
	assert.True(t, apperrors.Is(err, apperrors.KindForbidden))

	require.NoError(t, svc.Cancel(subscription.ID, "buyer-1"))

	// Cancelling twice conflicts
	err = svc.Cancel(subscription.ID, "buyer-1")
	assert.True(t, apperrors.Is(err, apperrors.KindConflict))
}

func TestSubscriptionService_Rollover(t *testing.T) {
	svc, subscriptionRepo, notifRepo := newSubscriptionFixture(t, "subrollover")

	due := &models.Subscription{
		BuyerID:      "buyer-1",
		ProductID:    "prod-a",
		Quantity:     1,
		Frequency:    models.FrequencyWeekly,
		Status:       models.SubscriptionActive,
		NextDelivery: time.Now().AddDate(0, 0, -1),
	}
	require.NoError(t, subscriptionRepo.Create(due))

	notDue := &models.Subscription{
		BuyerID:      "buyer-2",
		ProductID:    "prod-a",
		Quantity:     1,
		Frequency:    models.FrequencyWeekly,
		Status:       models.SubscriptionActive,
		NextDelivery: time.Now().AddDate(0, 0, 5),
	}
	require.NoError(t, subscriptionRepo.Create(notDue))

	cancelled := &models.Subscription{
		BuyerID:      "buyer-3",
		ProductID:    "prod-a",
		Quantity:     1,
		Frequency:    models.FrequencyWeekly,
		Status:       models.SubscriptionCancelled,
		NextDelivery: time.Now().AddDate(0, 0, -3),
	}
	require.NoError(t, subscriptionRepo.Create(cancelled))

	rolled, err := svc.Rollover()
	require.NoError(t, err)
	assert.Equal(t, 1, rolled)

	// The due subscription moved one cadence forward
	updated, err := subscriptionRepo.GetByID(due.ID)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().AddDate(0, 0, 6), updated.NextDelivery, time.Minute)

	// The buyer was reminded
	notifications, _, err := notifRepo.ListByUser("buyer-1", 0, 10)
	require.NoError(t, err)
	require.Len(t, notifications, 1)
	assert.Equal(t, models.NotificationSubscriptionDue, notifications[0].Type)

	// Not-due and cancelled subscriptions stayed put
	untouched, err := subscriptionRepo.GetByID(notDue.ID)
	require.NoError(t, err)
	assert.WithinDuration(t, notDue.NextDelivery, untouched.NextDelivery, time.Second)
}
