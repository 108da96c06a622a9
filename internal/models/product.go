package models

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product represents a farm product listed in the catalog.
// Price is fixed-point decimal; stock is never allowed to go negative.
type Product struct {
	ID          string          `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	FarmerID    string          `json:"farmer_id" gorm:"type:varchar(36);index" validate:"required,uuid"`
	Name        string          `json:"name" validate:"required,min=3,max=100"`
	Description string          `json:"description" validate:"omitempty,max=500"`
	Category    string          `json:"category" gorm:"type:varchar(50);index" validate:"required,max=50"`
	Price       decimal.Decimal `json:"price" gorm:"type:decimal(12,2)"`
	Stock       int             `json:"stock" validate:"gte=0"`
	Unit        string          `json:"unit" gorm:"type:varchar(20)" validate:"omitempty,max=20"`
	Active      bool            `json:"active" gorm:"default:true"`
	gorm.Model                  // Embed gorm.Model for CreatedAt, UpdatedAt, DeletedAt
}
