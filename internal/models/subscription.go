package models

import (
	"time"

	"gorm.io/gorm"
)

// Subscription frequencies and statuses.
const (
	FrequencyWeekly  = "weekly"
	FrequencyMonthly = "monthly"

	SubscriptionActive    = "active"
	SubscriptionPaused    = "paused"
	SubscriptionCancelled = "cancelled"
)

// Subscription is a recurring product box: the buyer receives the product on
// a weekly or monthly cadence. The rollover job advances NextDelivery when it
// comes due and notifies the buyer.
type Subscription struct {
	ID           string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	BuyerID      string    `json:"buyer_id" gorm:"type:varchar(36);index"`
	ProductID    string    `json:"product_id" gorm:"type:varchar(36);index" validate:"required,uuid"`
	Quantity     int       `json:"quantity" validate:"required,gte=1"`
	Frequency    string    `json:"frequency" gorm:"type:varchar(20)" validate:"required,oneof=weekly monthly"`
	Status       string    `json:"status" gorm:"type:varchar(20);index"`
	NextDelivery time.Time `json:"next_delivery"`
	gorm.Model
}
