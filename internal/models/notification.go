package models

import "gorm.io/gorm"

// Notification types emitted by the order state machine and jobs.
const (
	NotificationOrderCreated       = "order_created"
	NotificationOrderStatusChanged = "order_status_changed"
	NotificationSubscriptionDue    = "subscription_due"
	NotificationDisputeResolved    = "dispute_resolved"
)

// Notification is an advisory in-app message for a user. Writes are
// best-effort: a failed notification never fails the primary operation.
type Notification struct {
	ID         string `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID     string `json:"user_id" gorm:"type:varchar(36);index"`
	Type       string `json:"type" gorm:"type:varchar(40)"`
	Title      string `json:"title" gorm:"type:varchar(150)"`
	Body       string `json:"body" gorm:"type:varchar(500)"`
	Read       bool   `json:"read" gorm:"default:false"`
	gorm.Model
}
