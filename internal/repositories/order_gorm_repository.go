package repositories

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"farmmarket/internal/apperrors"
	"farmmarket/internal/models"
)

// GORMOrderRepository is a GORM implementation of OrderRepository.
type GORMOrderRepository struct {
	db *gorm.DB
}

// NewGORMOrderRepository creates a new instance of GORMOrderRepository.
func NewGORMOrderRepository(db *gorm.DB) *GORMOrderRepository {
	return &GORMOrderRepository{
		db: db,
	}
}

// CreateWithItems persists the order and its items in one transaction.
func (r *GORMOrderRepository) CreateWithItems(order *models.Order) error {
	if order.ID == "" {
		order.ID = uuid.New().String()
	}
	for i := range order.Items {
		if order.Items[i].ID == "" {
			order.Items[i].ID = uuid.New().String()
		}
		order.Items[i].OrderID = order.ID
	}
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(order).Error; err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}
		return nil
	})
}

// GetByID retrieves a single order with its items.
func (r *GORMOrderRepository) GetByID(id string) (*models.Order, error) {
	var order models.Order
	if err := r.db.Preload("Items").First(&order, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperrors.NotFound("order")
		}
		return nil, fmt.Errorf("failed to get order by ID %s: %w", id, err)
	}
	return &order, nil
}

// GetByIDs retrieves the given orders with their items.
func (r *GORMOrderRepository) GetByIDs(ids []string) ([]models.Order, error) {
	var orders []models.Order
	if err := r.db.Preload("Items").Where("id IN ?", ids).Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to get orders by IDs: %w", err)
	}
	return orders, nil
}

func (r *GORMOrderRepository) listWhere(cond string, arg interface{}, offset, limit int) ([]models.Order, int64, error) {
	query := r.db.Model(&models.Order{})
	if cond != "" {
		query = query.Where(cond, arg)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	var orders []models.Order
	if err := query.Preload("Items").Offset(offset).Limit(limit).
		Order("created_at DESC").Find(&orders).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, total, nil
}

// ListByBuyer retrieves a page of a buyer's orders.
func (r *GORMOrderRepository) ListByBuyer(buyerID string, offset, limit int) ([]models.Order, int64, error) {
	return r.listWhere("buyer_id = ?", buyerID, offset, limit)
}

// ListByFarmer retrieves a page of a farmer's orders.
func (r *GORMOrderRepository) ListByFarmer(farmerID string, offset, limit int) ([]models.Order, int64, error) {
	return r.listWhere("farmer_id = ?", farmerID, offset, limit)
}

// ListAll retrieves a page of all orders.
func (r *GORMOrderRepository) ListAll(offset, limit int) ([]models.Order, int64, error) {
	return r.listWhere("", nil, offset, limit)
}

// ListCreatedSince returns all orders created at or after t.
func (r *GORMOrderRepository) ListCreatedSince(t time.Time) ([]models.Order, error) {
	var orders []models.Order
	if err := r.db.Where("created_at >= ?", t).Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to list orders since %s: %w", t, err)
	}
	return orders, nil
}

// UpdateStatus transitions the order from fromStatus to status, optionally
// recording a tracking number. The WHERE clause carries the expected current
// status so two racing transitions cannot both apply.
func (r *GORMOrderRepository) UpdateStatus(id, fromStatus, status, trackingNumber string) error {
	updates := map[string]interface{}{"status": status}
	if trackingNumber != "" {
		updates["tracking_number"] = trackingNumber
	}
	res := r.db.Model(&models.Order{}).
		Where("id = ? AND status = ?", id, fromStatus).Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("failed to update order status for order %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		var count int64
		if err := r.db.Model(&models.Order{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check order %s after status update: %w", id, err)
		}
		if count == 0 {
			return apperrors.NotFound("order")
		}
		return apperrors.New(apperrors.KindConflict, "order status was changed by another request")
	}
	return nil
}

// UpdatePaymentStatus updates the payment status of an order.
func (r *GORMOrderRepository) UpdatePaymentStatus(id, status string) error {
	res := r.db.Model(&models.Order{}).Where("id = ?", id).Update("payment_status", status)
	if res.Error != nil {
		return fmt.Errorf("failed to update payment status for order %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.NotFound("order")
	}
	return nil
}
