package repositories

import (
	"time"

	"farmmarket/internal/models"
)

// OrderRepository defines the interface for order data access.
type OrderRepository interface {
	// CreateWithItems persists the order and its items as one transaction,
	// so an order row can never exist without its item rows.
	CreateWithItems(order *models.Order) error
	GetByID(id string) (*models.Order, error)
	GetByIDs(ids []string) ([]models.Order, error)
	ListByBuyer(buyerID string, offset, limit int) ([]models.Order, int64, error)
	ListByFarmer(farmerID string, offset, limit int) ([]models.Order, int64, error)
	ListAll(offset, limit int) ([]models.Order, int64, error)
	// ListCreatedSince returns orders created at or after t, for analytics.
	ListCreatedSince(t time.Time) ([]models.Order, error)
	// UpdateStatus transitions the order from fromStatus to status in one
	// guarded write; a concurrent transition that got there first yields a
	// conflict error, so at most one caller wins a given transition.
	UpdateStatus(id, fromStatus, status, trackingNumber string) error
	UpdatePaymentStatus(id, status string) error
}
