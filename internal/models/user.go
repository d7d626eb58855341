package models

import "gorm.io/gorm"

// User represents a registered account of the store. PasswordHash holds a
// bcrypt digest and is never serialized.
type User struct {
	ID           string `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	Username     string `json:"username" gorm:"uniqueIndex;type:varchar(50)" validate:"required,min=3,max=50"`
	FirstName    string `json:"first_name" gorm:"type:varchar(50)" validate:"required,max=50"`
	LastName     string `json:"last_name" gorm:"type:varchar(50)" validate:"required,max=50"`
	Email        string `json:"email" gorm:"uniqueIndex;type:varchar(100)" validate:"required,email"`
	PasswordHash string `json:"-" gorm:"type:varchar(100)"`
	IsAdmin      bool   `json:"is_admin" gorm:"default:false"`
	gorm.Model   `json:"-"` // Embed gorm.Model for CreatedAt, UpdatedAt, DeletedAt
}
