package repositories

import (
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"farmmarket/internal/apperrors"
	"farmmarket/internal/models"
)

// GORMCartRepository is a GORM implementation of CartRepository.
type GORMCartRepository struct {
	db *gorm.DB
}

// NewGORMCartRepository creates a new instance of GORMCartRepository.
func NewGORMCartRepository(db *gorm.DB) *GORMCartRepository {
	return &GORMCartRepository{
		db: db,
	}
}

// GetByBuyer retrieves all cart lines for a buyer.
func (r *GORMCartRepository) GetByBuyer(buyerID string) ([]models.CartItem, error) {
	var items []models.CartItem
	if err := r.db.Where("buyer_id = ?", buyerID).Order("created_at ASC").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to get cart for buyer %s: %w", buyerID, err)
	}
	return items, nil
}

// GetItem retrieves one cart line.
func (r *GORMCartRepository) GetItem(buyerID, productID string) (*models.CartItem, error) {
	var item models.CartItem
	err := r.db.Where("buyer_id = ? AND product_id = ?", buyerID, productID).First(&item).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperrors.NotFound("cart item")
		}
		return nil, fmt.Errorf("failed to get cart item: %w", err)
	}
	return &item, nil
}

// Upsert creates the line or increments the quantity of an existing one.
func (r *GORMCartRepository) Upsert(item *models.CartItem) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var existing models.CartItem
		err := tx.Where("buyer_id = ? AND product_id = ?", item.BuyerID, item.ProductID).First(&existing).Error
		if err == gorm.ErrRecordNotFound {
			if item.ID == "" {
				item.ID = uuid.New().String()
			}
			if err := tx.Create(item).Error; err != nil {
				return fmt.Errorf("failed to create cart item: %w", err)
			}
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to look up cart item: %w", err)
		}
		existing.Quantity += item.Quantity
		if err := tx.Save(&existing).Error; err != nil {
			return fmt.Errorf("failed to increment cart item: %w", err)
		}
		*item = existing
		return nil
	})
}

// UpdateQuantity replaces the quantity of an existing line.
func (r *GORMCartRepository) UpdateQuantity(buyerID, productID string, quantity int) error {
	res := r.db.Model(&models.CartItem{}).
		Where("buyer_id = ? AND product_id = ?", buyerID, productID).
		Update("quantity", quantity)
	if res.Error != nil {
		return fmt.Errorf("failed to update cart quantity: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.NotFound("cart item")
	}
	return nil
}

// RemoveItem deletes one cart line.
func (r *GORMCartRepository) RemoveItem(buyerID, productID string) error {
	res := r.db.Where("buyer_id = ? AND product_id = ?", buyerID, productID).Delete(&models.CartItem{})
	if res.Error != nil {
		return fmt.Errorf("failed to remove cart item: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.NotFound("cart item")
	}
	return nil
}

// RemoveItems deletes the given product lines for a buyer.
func (r *GORMCartRepository) RemoveItems(buyerID string, productIDs []string) error {
	if len(productIDs) == 0 {
		return nil
	}
	if err := r.db.Where("buyer_id = ? AND product_id IN ?", buyerID, productIDs).
		Delete(&models.CartItem{}).Error; err != nil {
		return fmt.Errorf("failed to remove cart items: %w", err)
	}
	return nil
}

// Clear deletes all cart lines for a buyer.
func (r *GORMCartRepository) Clear(buyerID string) error {
	if err := r.db.Where("buyer_id = ?", buyerID).Delete(&models.CartItem{}).Error; err != nil {
		return fmt.Errorf("failed to clear cart for buyer %s: %w", buyerID, err)
	}
	return nil
}
