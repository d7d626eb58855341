package handlers

import (
	"storefront/internal/middleware"
	"storefront/internal/models"
	"storefront/internal/services"

	"github.com/gofiber/fiber/v2"
)

// CartHandler handles HTTP requests for carts. All routes require an
// authenticated principal.
type CartHandler struct {
	service *services.CartService
}

// NewCartHandler creates a new CartHandler.
func NewCartHandler(service *services.CartService) *CartHandler {
	return &CartHandler{
		service: service,
	}
}

// RegisterRoutes registers the cart routes with the Fiber app.
func (h *CartHandler) RegisterRoutes(router fiber.Router) {
	cartRoutes := router.Group("/carts")
	cartRoutes.Post("/", h.HandleCreateCart)
	cartRoutes.Get("/", h.HandleGetCart)
	cartRoutes.Post("/:id/items", h.HandleAddItem)
	cartRoutes.Put("/:id/items/:itemID", h.HandleUpdateItem)
	cartRoutes.Delete("/:id/items/:itemID", h.HandleRemoveItem)
	cartRoutes.Delete("/:id", h.HandleDeleteCart)
}

// CreateCartRequest represents the request body for cart creation.
type CreateCartRequest struct {
	UserID string `json:"user_id"`
	Items  []struct {
		ProductID string `json:"product_id"`
		Quantity  int    `json:"quantity"`
	} `json:"items"`
}

// HandleCreateCart creates the caller's cart with its initial items.
func (h *CartHandler) HandleCreateCart(c *fiber.Ctx) error {
	var req CreateCartRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
		})
	}

	items := make([]models.CartItem, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, models.CartItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		})
	}

	cart, err := h.service.CreateCart(middleware.Principal(c), req.UserID, items)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(cart)
}

// HandleGetCart returns the caller's cart.
func (h *CartHandler) HandleGetCart(c *fiber.Ctx) error {
	principal := middleware.Principal(c)

	// An admin may fetch another user's cart via ?user_id=.
	ownerID := c.Query("user_id", principal.ID)

	cart, err := h.service.GetCart(principal, ownerID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(cart)
}

// CartItemRequest represents the request body for adding or updating a line
// item.
type CartItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// HandleAddItem appends a new line item to an existing cart.
func (h *CartHandler) HandleAddItem(c *fiber.Ctx) error {
	var req CartItemRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
		})
	}

	item, err := h.service.AddItem(middleware.Principal(c), c.Params("id"), req.ProductID, req.Quantity)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(item)
}

// HandleUpdateItem sets a new quantity on a line item and returns the whole
// cart.
func (h *CartHandler) HandleUpdateItem(c *fiber.Ctx) error {
	var req CartItemRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
		})
	}

	cart, err := h.service.UpdateItem(middleware.Principal(c), c.Params("id"), c.Params("itemID"), req.Quantity)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(cart)
}

// HandleRemoveItem deletes a single line item from the cart.
func (h *CartHandler) HandleRemoveItem(c *fiber.Ctx) error {
	if err := h.service.RemoveItem(middleware.Principal(c), c.Params("id"), c.Params("itemID")); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "The item has been removed from the cart",
	})
}

// HandleDeleteCart deletes the cart and all of its items.
func (h *CartHandler) HandleDeleteCart(c *fiber.Ctx) error {
	if err := h.service.DeleteCart(middleware.Principal(c), c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Cart deleted",
	})
}
