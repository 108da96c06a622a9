package models

import "gorm.io/gorm"

// Dispute statuses.
const (
	DisputeOpen     = "open"
	DisputeResolved = "resolved"
	DisputeRejected = "rejected"
)

// Dispute is raised by a buyer or farmer against one of their orders and is
// resolved by an admin.
type Dispute struct {
	ID         string `json:"id" gorm:"primaryKey;type:varchar(36)"`
	OrderID    string `json:"order_id" gorm:"type:varchar(36);index" validate:"required,uuid"`
	RaisedByID string `json:"raised_by_id" gorm:"type:varchar(36);index"`
	Reason     string `json:"reason" gorm:"type:varchar(1000)" validate:"required,min=10,max=1000"`
	Status     string `json:"status" gorm:"type:varchar(20);index"`
	Resolution string `json:"resolution,omitempty" gorm:"type:varchar(1000)"`
	gorm.Model
}
