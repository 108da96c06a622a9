package services

import (
	"time"

	"farmmarket/internal/models"
	"farmmarket/internal/repositories"
)

// notificationRetention is how long read notifications are kept before the
// cleanup job removes them.
const notificationRetention = 90 * 24 * time.Hour

// NotificationService manages in-app notifications.
type NotificationService struct {
	repo repositories.NotificationRepository
}

// NewNotificationService creates a new NotificationService.
func NewNotificationService(repo repositories.NotificationRepository) *NotificationService {
	return &NotificationService{
		repo: repo,
	}
}

// ListNotifications returns a page of the user's notifications.
func (s *NotificationService) ListNotifications(userID string, offset, limit int) ([]models.Notification, int64, error) {
	return s.repo.ListByUser(userID, offset, limit)
}

// MarkRead flags one of the user's notifications as read.
func (s *NotificationService) MarkRead(id, userID string) error {
	return s.repo.MarkRead(id, userID)
}

// Cleanup removes read notifications past retention. Run by the cron job.
func (s *NotificationService) Cleanup() (int64, error) {
	return s.repo.DeleteReadOlderThan(time.Now().Add(-notificationRetention))
}
