package handlers

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"farmmarket/internal/middleware"
	"farmmarket/internal/services"
)

// CheckoutHandler handles the checkout endpoint.
type CheckoutHandler struct {
	checkoutService *services.CheckoutService
	validate        *validator.Validate
}

// NewCheckoutHandler creates a new CheckoutHandler.
func NewCheckoutHandler(checkoutService *services.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{
		checkoutService: checkoutService,
		validate:        validator.New(),
	}
}

// RegisterRoutes registers the checkout route on the buyer group.
func (h *CheckoutHandler) RegisterRoutes(router fiber.Router) {
	router.Post("/checkout", h.HandleCheckout)
}

// CheckoutBody represents the request body for checkout.
type CheckoutBody struct {
	DeliveryAddress string `json:"delivery_address" validate:"required,max=500"`
	DeliveryDate    string `json:"delivery_date" validate:"omitempty"`
	Notes           string `json:"notes" validate:"omitempty,max=500"`
}

// HandleCheckout runs the order fan-out and reports per-farmer outcomes.
// Clients retry safely by resending the same Idempotency-Key header.
func (h *CheckoutHandler) HandleCheckout(c *fiber.Ctx) error {
	var body CheckoutBody
	if err := c.BodyParser(&body); err != nil {
		return respondBadBody(c, err)
	}
	if err := h.validate.Struct(body); err != nil {
		return respondValidation(c, err)
	}

	req := services.CheckoutRequest{
		BuyerID:         middleware.UserID(c),
		DeliveryAddress: body.DeliveryAddress,
		Notes:           body.Notes,
		IdempotencyKey:  c.Get("Idempotency-Key"),
	}
	if body.DeliveryDate != "" {
		parsed, err := time.Parse(time.RFC3339, body.DeliveryDate)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(Envelope{
				Success: false, Message: "Validation failed",
				Error: "delivery_date must be RFC 3339", Field: "delivery_date",
			})
		}
		req.DeliveryDate = &parsed
	}

	result, err := h.checkoutService.Checkout(req)
	if err != nil {
		return respondError(c, "Checkout failed", err)
	}

	if !result.FullSuccess() {
		// Multi-status: some farmer groups ordered, some kept in the cart.
		return c.Status(fiber.StatusMultiStatus).JSON(Envelope{
			Success: false,
			Message: "Checkout partially completed; failed items remain in your cart",
			Data:    result,
			Error:   "one or more farmer groups failed stock validation",
		})
	}
	return respondCreated(c, "Checkout completed", result)
}
