package models

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product represents a product in the store. Products are referenced, not
// owned, by cart and order items.
type Product struct {
	ID          string          `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	Name        string          `json:"name" gorm:"type:varchar(255)" validate:"required,min=3,max=255"`
	Description string          `json:"description" gorm:"type:varchar(255)" validate:"omitempty,max=255"`
	Price       decimal.Decimal `json:"price" gorm:"type:decimal(10,2)"`
	InStock     bool            `json:"in_stock" gorm:"default:true"`
	gorm.Model  `json:"-"` // Embed gorm.Model for CreatedAt, UpdatedAt, DeletedAt
}
