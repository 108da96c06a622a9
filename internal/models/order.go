package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Order statuses. Transitions are restricted, see services.OrderService.
const (
	OrderStatusPending   = "pending"
	OrderStatusConfirmed = "confirmed"
	OrderStatusShipped   = "shipped"
	OrderStatusDelivered = "delivered"
	OrderStatusCancelled = "cancelled"
)

// Payment statuses.
const (
	PaymentStatusPending = "pending"
	PaymentStatusPaid    = "paid"
	PaymentStatusFailed  = "failed"
)

// Order is a buyer's purchase from exactly one farmer. A cart spanning
// several farmers fans out into several orders at checkout.
type Order struct {
	ID              string          `json:"id" gorm:"primaryKey;type:varchar(36)"`
	BuyerID         string          `json:"buyer_id" gorm:"type:varchar(36);index"`
	FarmerID        string          `json:"farmer_id" gorm:"type:varchar(36);index"`
	Total           decimal.Decimal `json:"total" gorm:"type:decimal(12,2)"`
	Commission      decimal.Decimal `json:"commission" gorm:"type:decimal(12,2)"`
	Status          string          `json:"status" gorm:"type:varchar(20);index"`
	PaymentStatus   string          `json:"payment_status" gorm:"type:varchar(20)"`
	DeliveryAddress string          `json:"delivery_address" gorm:"type:varchar(500)"`
	DeliveryDate    *time.Time      `json:"delivery_date,omitempty"`
	Notes           string          `json:"notes,omitempty" gorm:"type:varchar(500)"`
	TrackingNumber  string          `json:"tracking_number,omitempty" gorm:"type:varchar(100)"`
	Items           []OrderItem     `json:"items" gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	gorm.Model                      // Embed gorm.Model for CreatedAt, UpdatedAt, DeletedAt
}

// OrderItem is an immutable line of an order. UnitPrice is the catalog price
// captured at checkout; later catalog edits never change a quoted total.
type OrderItem struct {
	ID          string          `json:"id" gorm:"primaryKey;type:varchar(36)"`
	OrderID     string          `json:"order_id" gorm:"type:varchar(36);index"`
	ProductID   string          `json:"product_id" gorm:"type:varchar(36);index"`
	ProductName string          `json:"product_name" gorm:"type:varchar(100)"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price" gorm:"type:decimal(12,2)"`
	LineTotal   decimal.Decimal `json:"line_total" gorm:"type:decimal(12,2)"`
	gorm.Model                  // Embed gorm.Model for CreatedAt, UpdatedAt, DeletedAt
}

// IdempotencyKey records the orders produced by a checkout so a retried
// request with the same key replays the original result instead of
// re-running the fan-out.
type IdempotencyKey struct {
	ID         string `json:"id" gorm:"primaryKey;type:varchar(36)"`
	BuyerID    string `json:"buyer_id" gorm:"type:varchar(36);uniqueIndex:idx_buyer_key"`
	Key        string `json:"key" gorm:"type:varchar(100);uniqueIndex:idx_buyer_key"`
	OrderIDs   string `json:"order_ids" gorm:"type:text"` // JSON-encoded []string
	gorm.Model
}
