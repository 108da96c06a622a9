package repositories

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"farmmarket/internal/apperrors"
	"farmmarket/internal/models"
)

// MockOrderRepository is an in-memory implementation of OrderRepository.
type MockOrderRepository struct {
	orders map[string]models.Order
	mu     sync.RWMutex
}

// NewMockOrderRepository creates a new instance of MockOrderRepository.
func NewMockOrderRepository() *MockOrderRepository {
	return &MockOrderRepository{
		orders: make(map[string]models.Order),
	}
}

// CreateWithItems adds a new order with its items.
func (r *MockOrderRepository) CreateWithItems(order *models.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if order.ID == "" {
		order.ID = uuid.New().String()
	}
	for i := range order.Items {
		if order.Items[i].ID == "" {
			order.Items[i].ID = uuid.New().String()
		}
		order.Items[i].OrderID = order.ID
	}
	if order.CreatedAt.IsZero() {
		order.CreatedAt = time.Now()
	}
	order.UpdatedAt = time.Now()
	r.orders[order.ID] = *order
	return nil
}

// GetByID returns an order by its ID.
func (r *MockOrderRepository) GetByID(id string) (*models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	order, ok := r.orders[id]
	if !ok {
		return nil, apperrors.NotFound("order")
	}
	return &order, nil
}

// GetByIDs returns the given orders.
func (r *MockOrderRepository) GetByIDs(ids []string) ([]models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	orders := make([]models.Order, 0, len(ids))
	for _, id := range ids {
		if order, ok := r.orders[id]; ok {
			orders = append(orders, order)
		}
	}
	return orders, nil
}

func (r *MockOrderRepository) listMatching(match func(models.Order) bool, offset, limit int) ([]models.Order, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []models.Order
	for _, order := range r.orders {
		if match(order) {
			matched = append(matched, order)
		}
	}
	total := int64(len(matched))
	if offset >= len(matched) {
		return []models.Order{}, total, nil
	}
	end := offset + limit
	if limit <= 0 || end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], total, nil
}

// ListByBuyer returns a page of a buyer's orders.
func (r *MockOrderRepository) ListByBuyer(buyerID string, offset, limit int) ([]models.Order, int64, error) {
	return r.listMatching(func(o models.Order) bool { return o.BuyerID == buyerID }, offset, limit)
}

// ListByFarmer returns a page of a farmer's orders.
func (r *MockOrderRepository) ListByFarmer(farmerID string, offset, limit int) ([]models.Order, int64, error) {
	return r.listMatching(func(o models.Order) bool { return o.FarmerID == farmerID }, offset, limit)
}

// ListAll returns a page of all orders.
func (r *MockOrderRepository) ListAll(offset, limit int) ([]models.Order, int64, error) {
	return r.listMatching(func(models.Order) bool { return true }, offset, limit)
}

// ListCreatedSince returns all orders created at or after t.
func (r *MockOrderRepository) ListCreatedSince(t time.Time) ([]models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var orders []models.Order
	for _, order := range r.orders {
		if !order.CreatedAt.Before(t) {
			orders = append(orders, order)
		}
	}
	return orders, nil
}

// UpdateStatus transitions an order from fromStatus to status, mirroring the
// store-level guarded write.
func (r *MockOrderRepository) UpdateStatus(id, fromStatus, status, trackingNumber string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.orders[id]
	if !ok {
		return apperrors.NotFound("order")
	}
	if order.Status != fromStatus {
		return apperrors.New(apperrors.KindConflict, "order status was changed by another request")
	}
	order.Status = status
	if trackingNumber != "" {
		order.TrackingNumber = trackingNumber
	}
	order.UpdatedAt = time.Now()
	r.orders[id] = order
	return nil
}

// UpdatePaymentStatus updates the payment status of an order.
func (r *MockOrderRepository) UpdatePaymentStatus(id, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.orders[id]
	if !ok {
		return apperrors.NotFound("order")
	}
	order.PaymentStatus = status
	order.UpdatedAt = time.Now()
	r.orders[id] = order
	return nil
}
