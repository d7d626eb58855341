package repositories

import (
	"storefront/internal/models"
)

// CartRepository defines the interface for cart data access. Multi-row writes
// (cart plus items, cascade deletes) are atomic.
type CartRepository interface {
	Create(cart *models.Cart) error
	GetByUserID(userID string) (*models.Cart, error)
	GetByID(id string) (*models.Cart, error)
	AddItem(item *models.CartItem) error
	GetItem(cartID, itemID string) (*models.CartItem, error)
	UpdateItem(item *models.CartItem) error
	RemoveItem(cartID, itemID string) error
	Delete(id string) error
}
