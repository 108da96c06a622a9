package repositories

import (
	"sync"

	"github.com/google/uuid"

	"farmmarket/internal/apperrors"
	"farmmarket/internal/models"
)

// MockCartRepository is an in-memory implementation of CartRepository.
type MockCartRepository struct {
	items map[string]models.CartItem // keyed by buyerID + "/" + productID
	mu    sync.RWMutex
}

// NewMockCartRepository creates a new instance of MockCartRepository.
func NewMockCartRepository() *MockCartRepository {
	return &MockCartRepository{
		items: make(map[string]models.CartItem),
	}
}

func cartKey(buyerID, productID string) string {
	return buyerID + "/" + productID
}

// GetByBuyer returns all cart lines for a buyer.
func (r *MockCartRepository) GetByBuyer(buyerID string) ([]models.CartItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var items []models.CartItem
	for _, item := range r.items {
		if item.BuyerID == buyerID {
			items = append(items, item)
		}
	}
	return items, nil
}

// GetItem returns one cart line.
func (r *MockCartRepository) GetItem(buyerID, productID string) (*models.CartItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[cartKey(buyerID, productID)]
	if !ok {
		return nil, apperrors.NotFound("cart item")
	}
	return &item, nil
}

// Upsert creates the line or increments the quantity of an existing one.
func (r *MockCartRepository) Upsert(item *models.CartItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := cartKey(item.BuyerID, item.ProductID)
	if existing, ok := r.items[key]; ok {
		existing.Quantity += item.Quantity
		r.items[key] = existing
		*item = existing
		return nil
	}
	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	r.items[key] = *item
	return nil
}

// UpdateQuantity replaces the quantity of an existing line.
func (r *MockCartRepository) UpdateQuantity(buyerID, productID string, quantity int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := cartKey(buyerID, productID)
	item, ok := r.items[key]
	if !ok {
		return apperrors.NotFound("cart item")
	}
	item.Quantity = quantity
	r.items[key] = item
	return nil
}

// RemoveItem deletes one cart line.
func (r *MockCartRepository) RemoveItem(buyerID, productID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := cartKey(buyerID, productID)
	if _, ok := r.items[key]; !ok {
		return apperrors.NotFound("cart item")
	}
	delete(r.items, key)
	return nil
}

// RemoveItems deletes the given product lines for a buyer.
func (r *MockCartRepository) RemoveItems(buyerID string, productIDs []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, productID := range productIDs {
		delete(r.items, cartKey(buyerID, productID))
	}
	return nil
}

// Clear deletes all cart lines for a buyer.
func (r *MockCartRepository) Clear(buyerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for key, item := range r.items {
		if item.BuyerID == buyerID {
			delete(r.items, key)
		}
	}
	return nil
}
