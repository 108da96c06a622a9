package repositories

import (
	"farmmarket/internal/models"
)

// CartRepository defines the interface for cart data access.
type CartRepository interface {
	GetByBuyer(buyerID string) ([]models.CartItem, error)
	GetItem(buyerID, productID string) (*models.CartItem, error)
	// Upsert creates the line or, if the buyer already has one for the
	// product, adds the quantity to it.
	Upsert(item *models.CartItem) error
	UpdateQuantity(buyerID, productID string, quantity int) error
	RemoveItem(buyerID, productID string) error
	// RemoveItems deletes the given product lines, used after a checkout to
	// drop only the successfully ordered items.
	RemoveItems(buyerID string, productIDs []string) error
	Clear(buyerID string) error
}
