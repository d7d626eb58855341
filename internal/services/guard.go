package services

import (
	"storefront/internal/apperr"
	"storefront/internal/models"
)

// Authorization guard. These are pure decision functions with no side effects;
// every mutating or sensitive-read operation on carts and orders passes
// through one of them before touching storage.

// RequireAdmin checks that the principal carries the admin capability.
func RequireAdmin(principal *models.User) error {
	if principal == nil || !principal.IsAdmin {
		return apperr.Forbiddenf("not enough permissions")
	}
	return nil
}

// RequireOwnerOrAdmin checks that the principal owns the resource or is an
// admin.
func RequireOwnerOrAdmin(principal *models.User, ownerID string) error {
	if principal == nil {
		return apperr.Forbiddenf("not enough permissions")
	}
	if principal.ID == ownerID || principal.IsAdmin {
		return nil
	}
	return apperr.Forbiddenf("not enough permissions")
}
