package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order statuses. Cancel only applies to pending orders; admin updates accept
// other status strings without validating them against a closed set.
const (
	OrderStatusPending   = "pending"
	OrderStatusCancelled = "cancelled"
	OrderStatusFulfilled = "fulfilled"
)

// OrderItem is an immutable snapshot of a product reference taken when the
// order was created. It is owned exclusively by its Order and cascades on
// order deletion.
type OrderItem struct {
	ID        string `json:"id" gorm:"primaryKey;type:varchar(36)"`
	OrderID   string `json:"order_id" gorm:"index;type:varchar(36)"`
	ProductID string `json:"product_id" gorm:"type:varchar(36)" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,gt=0"`
}

// Order represents a customer order. TotalPrice is caller-declared and is not
// recomputed from item prices.
type Order struct {
	ID         string          `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID     string          `json:"user_id" gorm:"index;type:varchar(36)"`
	TotalPrice decimal.Decimal `json:"total_price" gorm:"type:decimal(10,2)"`
	Status     string          `json:"status" gorm:"type:varchar(50);default:pending"`
	Items      []OrderItem     `json:"items" gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}
