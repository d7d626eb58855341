package services

import (
	"errors"

	"storefront/internal/apperr"
	"storefront/internal/models"
	"storefront/internal/repositories"
)

// CartService handles business logic for carts and their line items.
//
// Ownership mismatches on cart paths are masked as not-found, reported
// identically to genuine absence, so callers cannot probe for other users'
// carts.
type CartService struct {
	cartRepo    repositories.CartRepository
	productRepo repositories.ProductRepository
}

// NewCartService creates a new CartService.
func NewCartService(cartRepo repositories.CartRepository, productRepo repositories.ProductRepository) *CartService {
	return &CartService{
		cartRepo:    cartRepo,
		productRepo: productRepo,
	}
}

// CreateCart creates the single cart for userID with its initial items. The
// caller must be the owner; this is not admin-overridable. Every item is
// validated against product existence before anything is persisted, and the
// whole creation is atomic.
func (s *CartService) CreateCart(principal *models.User, userID string, items []models.CartItem) (*models.Cart, error) {
	if principal == nil || principal.ID != userID {
		return nil, apperr.Forbiddenf("not authorized to create cart for this user")
	}

	for i := range items {
		if items[i].Quantity <= 0 {
			return nil, apperr.Validationf("quantity must be a positive integer")
		}
		if _, err := s.productRepo.GetByID(items[i].ProductID); err != nil {
			return nil, err
		}
	}

	if _, err := s.cartRepo.GetByUserID(userID); err == nil {
		return nil, apperr.Conflictf("user %s already has a cart", userID)
	} else if !errors.Is(err, apperr.ErrNotFound) {
		return nil, err
	}

	cart := &models.Cart{
		UserID: userID,
		Items:  items,
	}
	if err := s.cartRepo.Create(cart); err != nil {
		return nil, err
	}
	return cart, nil
}

// GetCart returns the single cart for ownerID. Non-owner, non-admin callers
// get not-found rather than forbidden.
func (s *CartService) GetCart(principal *models.User, ownerID string) (*models.Cart, error) {
	if err := RequireOwnerOrAdmin(principal, ownerID); err != nil {
		return nil, apperr.NotFoundf("cart for user %s", ownerID)
	}
	return s.cartRepo.GetByUserID(ownerID)
}

// AddItem validates product existence and appends a new line item to the
// cart. A cart owned by someone else reads as absent.
func (s *CartService) AddItem(principal *models.User, cartID, productID string, quantity int) (*models.CartItem, error) {
	if quantity <= 0 {
		return nil, apperr.Validationf("quantity must be a positive integer")
	}

	cart, err := s.cartRepo.GetByID(cartID)
	if err != nil {
		return nil, err
	}
	if err := RequireOwnerOrAdmin(principal, cart.UserID); err != nil {
		return nil, apperr.NotFoundf("cart %s", cartID)
	}

	if _, err := s.productRepo.GetByID(productID); err != nil {
		return nil, err
	}

	item := &models.CartItem{
		CartID:    cart.ID,
		ProductID: productID,
		Quantity:  quantity,
	}
	if err := s.cartRepo.AddItem(item); err != nil {
		return nil, err
	}
	return item, nil
}

// UpdateItem sets a new quantity on a line item. Item absence and ownership
// mismatch are reported identically.
func (s *CartService) UpdateItem(principal *models.User, cartID, itemID string, quantity int) (*models.Cart, error) {
	if quantity <= 0 {
		return nil, apperr.Validationf("quantity must be a positive integer")
	}

	item, cart, err := s.ownedItem(principal, cartID, itemID)
	if err != nil {
		return nil, err
	}

	item.Quantity = quantity
	if err := s.cartRepo.UpdateItem(item); err != nil {
		return nil, err
	}
	return s.cartRepo.GetByID(cart.ID)
}

// RemoveItem deletes a single line item from the cart.
func (s *CartService) RemoveItem(principal *models.User, cartID, itemID string) error {
	if _, _, err := s.ownedItem(principal, cartID, itemID); err != nil {
		return err
	}
	return s.cartRepo.RemoveItem(cartID, itemID)
}

// DeleteCart deletes the cart and all of its items in the same transaction.
// Owner only; anyone else sees not-found.
func (s *CartService) DeleteCart(principal *models.User, cartID string) error {
	cart, err := s.cartRepo.GetByID(cartID)
	if err != nil {
		return err
	}
	if principal == nil || principal.ID != cart.UserID {
		return apperr.NotFoundf("cart %s", cartID)
	}
	return s.cartRepo.Delete(cartID)
}

// ownedItem fetches a line item and verifies the parent cart belongs to the
// caller, masking mismatch as absence.
func (s *CartService) ownedItem(principal *models.User, cartID, itemID string) (*models.CartItem, *models.Cart, error) {
	item, err := s.cartRepo.GetItem(cartID, itemID)
	if err != nil {
		return nil, nil, err
	}
	cart, err := s.cartRepo.GetByID(cartID)
	if err != nil {
		return nil, nil, err
	}
	if err := RequireOwnerOrAdmin(principal, cart.UserID); err != nil {
		return nil, nil, apperr.NotFoundf("cart item %s", itemID)
	}
	return item, cart, nil
}
