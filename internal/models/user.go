package models

import "gorm.io/gorm"

// Roles a user account can hold. A user has exactly one role.
const (
	RoleBuyer  = "buyer"
	RoleFarmer = "farmer"
	RoleAdmin  = "admin"
)

// User represents a marketplace account: a buyer, a farmer, or an admin.
type User struct {
	ID           string `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	Username     string `json:"username" gorm:"uniqueIndex;type:varchar(100)" validate:"required,min=3,max=100"`
	Email        string `json:"email" gorm:"uniqueIndex;type:varchar(255)" validate:"required,email"`
	Password     string `gorm:"type:varchar(255)" validate:"required,min=6"` // No json tag for security
	Role         string `json:"role" gorm:"type:varchar(20);index" validate:"required,oneof=buyer farmer admin"`
	FarmName     string `json:"farm_name,omitempty" gorm:"type:varchar(150)" validate:"omitempty,max=150"`
	FarmLocation string `json:"farm_location,omitempty" gorm:"type:varchar(255)" validate:"omitempty,max=255"`
	gorm.Model          // Embed gorm.Model for CreatedAt, UpdatedAt, DeletedAt
}
