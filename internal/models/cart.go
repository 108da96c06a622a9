package models

import "time"

// CartItem is one line of a buyer's cart. A buyer has at most one line per
// product; adding the same product again increments the quantity.
//
// Cart lines are deliberately not soft-deleted: removed rows must not linger
// under the idx_buyer_product unique index, or re-adding a product the buyer
// once removed (or checked out) would collide with its dead row.
type CartItem struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	BuyerID   string    `json:"buyer_id" gorm:"type:varchar(36);uniqueIndex:idx_buyer_product" validate:"required,uuid"`
	ProductID string    `json:"product_id" gorm:"type:varchar(36);uniqueIndex:idx_buyer_product" validate:"required,uuid"`
	Quantity  int       `json:"quantity" validate:"required,gte=1"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
