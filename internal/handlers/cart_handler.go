package handlers

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"farmmarket/internal/middleware"
	"farmmarket/internal/services"
)

// CartHandler handles HTTP requests for the buyer's cart.
type CartHandler struct {
	cartService *services.CartService
	validate    *validator.Validate
}

// NewCartHandler creates a new CartHandler.
func NewCartHandler(cartService *services.CartService) *CartHandler {
	return &CartHandler{
		cartService: cartService,
		validate:    validator.New(),
	}
}

// RegisterRoutes registers the cart routes on the buyer group.
func (h *CartHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/cart", h.HandleGetCart)
	router.Post("/cart", h.HandleAddItem)
	router.Put("/cart/:productId", h.HandleUpdateQuantity)
	router.Delete("/cart/:productId", h.HandleRemoveItem)
	router.Delete("/cart", h.HandleClearCart)
}

// HandleGetCart returns the cart priced against the current catalog.
func (h *CartHandler) HandleGetCart(c *fiber.Ctx) error {
	view, err := h.cartService.GetCart(middleware.UserID(c))
	if err != nil {
		return respondError(c, "Could not retrieve cart", err)
	}
	return respondOK(c, "Cart retrieved", view)
}

// AddCartItemRequest represents the request body for adding to the cart.
type AddCartItemRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Quantity  int    `json:"quantity" validate:"required,gte=1"`
}

// HandleAddItem adds a product to the cart.
func (h *CartHandler) HandleAddItem(c *fiber.Ctx) error {
	var req AddCartItemRequest
	if err := c.BodyParser(&req); err != nil {
		return respondBadBody(c, err)
	}
	if err := h.validate.Struct(req); err != nil {
		return respondValidation(c, err)
	}

	item, err := h.cartService.AddItem(middleware.UserID(c), req.ProductID, req.Quantity)
	if err != nil {
		return respondError(c, "Could not add to cart", err)
	}
	return respondCreated(c, "Item added to cart", item)
}

// UpdateCartItemRequest represents the request body for a quantity change.
type UpdateCartItemRequest struct {
	Quantity int `json:"quantity" validate:"required,gte=1"`
}

// HandleUpdateQuantity replaces the quantity of a cart line.
func (h *CartHandler) HandleUpdateQuantity(c *fiber.Ctx) error {
	var req UpdateCartItemRequest
	if err := c.BodyParser(&req); err != nil {
		return respondBadBody(c, err)
	}
	if err := h.validate.Struct(req); err != nil {
		return respondValidation(c, err)
	}

	if err := h.cartService.UpdateQuantity(middleware.UserID(c), c.Params("productId"), req.Quantity); err != nil {
		return respondError(c, "Could not update cart item", err)
	}
	return respondOK(c, "Cart item updated", nil)
}

// HandleRemoveItem deletes one line from the cart.
func (h *CartHandler) HandleRemoveItem(c *fiber.Ctx) error {
	if err := h.cartService.RemoveItem(middleware.UserID(c), c.Params("productId")); err != nil {
		return respondError(c, "Could not remove cart item", err)
	}
	return respondOK(c, "Cart item removed", nil)
}

// HandleClearCart empties the cart.
func (h *CartHandler) HandleClearCart(c *fiber.Ctx) error {
	if err := h.cartService.ClearCart(middleware.UserID(c)); err != nil {
		return respondError(c, "Could not clear cart", err)
	}
	return respondOK(c, "Cart cleared", nil)
}
