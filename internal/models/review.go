package models

import "gorm.io/gorm"

// Review is a buyer's rating of a product. The (product, buyer) pair is
// unique at the store level, so a duplicate insert fails on the index rather
// than relying on an application-level check.
type Review struct {
	ID        string `json:"id" gorm:"primaryKey;type:varchar(36)"`
	ProductID string `json:"product_id" gorm:"type:varchar(36);uniqueIndex:idx_product_buyer" validate:"required,uuid"`
	BuyerID   string `json:"buyer_id" gorm:"type:varchar(36);uniqueIndex:idx_product_buyer"`
	OrderID   string `json:"order_id,omitempty" gorm:"type:varchar(36)" validate:"omitempty,uuid"`
	Rating    int    `json:"rating" validate:"required,gte=1,lte=5"`
	Comment   string `json:"comment,omitempty" gorm:"type:varchar(1000)" validate:"omitempty,max=1000"`
	Verified  bool   `json:"verified" gorm:"default:false"`
	gorm.Model
}

// ProductRating is the on-read aggregate for a product's reviews.
type ProductRating struct {
	ProductID   string `json:"product_id"`
	Average     string `json:"average"` // decimal, 2 fractional digits
	ReviewCount int64  `json:"review_count"`
}
