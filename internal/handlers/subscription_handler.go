package handlers

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"farmmarket/internal/middleware"
	"farmmarket/internal/services"
)

// SubscriptionHandler handles HTTP requests for recurring product boxes.
type SubscriptionHandler struct {
	subscriptionService *services.SubscriptionService
	validate            *validator.Validate
}

// NewSubscriptionHandler creates a new SubscriptionHandler.
func NewSubscriptionHandler(subscriptionService *services.SubscriptionService) *SubscriptionHandler {
	return &SubscriptionHandler{
		subscriptionService: subscriptionService,
		validate:            validator.New(),
	}
}

// RegisterRoutes registers the subscription routes on the buyer group.
func (h *SubscriptionHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/subscriptions", h.HandleListSubscriptions)
	router.Post("/subscriptions", h.HandleSubscribe)
	router.Delete("/subscriptions/:id", h.HandleCancel)
}

// SubscribeRequest represents the request body for creating a subscription.
type SubscribeRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Quantity  int    `json:"quantity" validate:"required,gte=1"`
	Frequency string `json:"frequency" validate:"required,oneof=weekly monthly"`
}

// HandleSubscribe creates a subscription for the buyer.
func (h *SubscriptionHandler) HandleSubscribe(c *fiber.Ctx) error {
	var req SubscribeRequest
	if err := c.BodyParser(&req); err != nil {
		return respondBadBody(c, err)
	}
	if err := h.validate.Struct(req); err != nil {
		return respondValidation(c, err)
	}

	subscription, err := h.subscriptionService.Subscribe(
		middleware.UserID(c), req.ProductID, req.Quantity, req.Frequency)
	if err != nil {
		return respondError(c, "Could not create subscription", err)
	}
	return respondCreated(c, "Subscription created", subscription)
}

// HandleListSubscriptions lists the buyer's subscriptions.
func (h *SubscriptionHandler) HandleListSubscriptions(c *fiber.Ctx) error {
	subscriptions, err := h.subscriptionService.ListSubscriptions(middleware.UserID(c))
	if err != nil {
		return respondError(c, "Could not retrieve subscriptions", err)
	}
	return respondOK(c, "Subscriptions retrieved", subscriptions)
}

// HandleCancel cancels one of the buyer's subscriptions.
func (h *SubscriptionHandler) HandleCancel(c *fiber.Ctx) error {
	if err := h.subscriptionService.Cancel(c.Params("id"), middleware.UserID(c)); err != nil {
		return respondError(c, "Could not cancel subscription", err)
	}
	return respondOK(c, "Subscription cancelled", nil)
}
