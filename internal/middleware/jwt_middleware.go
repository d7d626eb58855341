package middleware

import (
	"strings"

	"storefront/internal/models"
	"storefront/internal/services"

	"github.com/gofiber/fiber/v2"
)

// principalKey is the Locals key under which the resolved principal is stored.
const principalKey = "principal"

// AuthRequired is a Fiber middleware that extracts the bearer token, resolves
// it to a principal and stores the principal in the request context. Missing,
// malformed or expired tokens, and subjects that no longer exist, all yield
// 401.
func AuthRequired(authService *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Authorization header is required",
			})
		}

		// Expected format: "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if !(len(parts) == 2 && parts[0] == "Bearer") {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Authorization header format must be 'Bearer <token>'",
			})
		}

		principal, err := authService.ResolvePrincipal(parts[1])
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Invalid or expired token",
			})
		}

		c.Locals(principalKey, principal)
		return c.Next()
	}
}

// Principal returns the authenticated user stored by AuthRequired, or nil if
// the route was not guarded.
func Principal(c *fiber.Ctx) *models.User {
	principal, _ := c.Locals(principalKey).(*models.User)
	return principal
}
