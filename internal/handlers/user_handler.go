package handlers

import (
	"storefront/internal/middleware"
	"storefront/internal/services"

	"github.com/gofiber/fiber/v2"
)

// UserHandler handles HTTP requests for user administration.
type UserHandler struct {
	authService *services.AuthService
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(authService *services.AuthService) *UserHandler {
	return &UserHandler{
		authService: authService,
	}
}

// RegisterRoutes registers the user routes. All of them require an
// authenticated principal.
func (h *UserHandler) RegisterRoutes(router fiber.Router) {
	userRoutes := router.Group("/users")
	userRoutes.Get("/", h.HandleListUsers)
	userRoutes.Patch("/:id", h.HandleUpdateUser)
	userRoutes.Patch("/:id/admin", h.HandleSetAdmin)
}

// HandleListUsers returns all users. Admin only.
func (h *UserHandler) HandleListUsers(c *fiber.Ctx) error {
	users, err := h.authService.ListUsers(middleware.Principal(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(users)
}

// HandleUpdateUser applies a partial update to a user; only supplied fields
// are mutated.
func (h *UserHandler) HandleUpdateUser(c *fiber.Ctx) error {
	var update services.UserUpdate
	if err := c.BodyParser(&update); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
		})
	}

	user, err := h.authService.UpdateUser(middleware.Principal(c), c.Params("id"), update)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(user)
}

// HandleSetAdmin grants or revokes the admin capability. Admin only.
func (h *UserHandler) HandleSetAdmin(c *fiber.Ctx) error {
	var req struct {
		IsAdmin bool `json:"is_admin"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
		})
	}

	user, err := h.authService.SetAdmin(middleware.Principal(c), c.Params("id"), req.IsAdmin)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(user)
}
