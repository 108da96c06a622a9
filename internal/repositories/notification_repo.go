package repositories

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"farmmarket/internal/apperrors"
	"farmmarket/internal/models"
)

// NotificationRepository defines the interface for notification data access.
type NotificationRepository interface {
	Create(notification *models.Notification) error
	ListByUser(userID string, offset, limit int) ([]models.Notification, int64, error)
	MarkRead(id, userID string) error
	// DeleteReadOlderThan removes read notifications created before t,
	// returning how many rows were removed. Used by the cleanup job.
	DeleteReadOlderThan(t time.Time) (int64, error)
}

// GORMNotificationRepository is a GORM implementation of NotificationRepository.
type GORMNotificationRepository struct {
	db *gorm.DB
}

// NewGORMNotificationRepository creates a new instance of GORMNotificationRepository.
func NewGORMNotificationRepository(db *gorm.DB) *GORMNotificationRepository {
	return &GORMNotificationRepository{
		db: db,
	}
}

// Create persists a new notification.
func (r *GORMNotificationRepository) Create(notification *models.Notification) error {
	if notification.ID == "" {
		notification.ID = uuid.New().String()
	}
	if err := r.db.Create(notification).Error; err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

// ListByUser returns a page of a user's notifications, newest first.
func (r *GORMNotificationRepository) ListByUser(userID string, offset, limit int) ([]models.Notification, int64, error) {
	query := r.db.Model(&models.Notification{}).Where("user_id = ?", userID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count notifications: %w", err)
	}

	var notifications []models.Notification
	if err := query.Offset(offset).Limit(limit).Order("created_at DESC").
		Find(&notifications).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list notifications: %w", err)
	}
	return notifications, total, nil
}

// MarkRead flags one of the user's notifications as read.
func (r *GORMNotificationRepository) MarkRead(id, userID string) error {
	res := r.db.Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("read", true)
	if res.Error != nil {
		return fmt.Errorf("failed to mark notification read: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.NotFound("notification")
	}
	return nil
}

// DeleteReadOlderThan removes read notifications created before t.
func (r *GORMNotificationRepository) DeleteReadOlderThan(t time.Time) (int64, error) {
	res := r.db.Where("read = ? AND created_at < ?", true, t).Delete(&models.Notification{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to delete old notifications: %w", res.Error)
	}
	return res.RowsAffected, nil
}
