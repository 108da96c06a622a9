package handlers

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"farmmarket/internal/middleware"
	"farmmarket/internal/services"
)

// OrderHandler handles HTTP requests for orders across all three roles.
type OrderHandler struct {
	orderService *services.OrderService
	validate     *validator.Validate
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(orderService *services.OrderService) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
		validate:     validator.New(),
	}
}

// RegisterBuyerRoutes registers the buyer order routes.
func (h *OrderHandler) RegisterBuyerRoutes(router fiber.Router) {
	router.Get("/orders", h.HandleListBuyerOrders)
	router.Get("/orders/:id", h.HandleGetOrder)
	router.Post("/orders/:id/pay", h.HandlePayOrder)
}

// RegisterFarmerRoutes registers the farmer order routes.
func (h *OrderHandler) RegisterFarmerRoutes(router fiber.Router) {
	router.Get("/orders", h.HandleListFarmerOrders)
	router.Get("/orders/:id", h.HandleGetOrder)
	router.Patch("/orders/:id/status", h.HandleUpdateStatus)
}

// RegisterAdminRoutes registers the admin order routes.
func (h *OrderHandler) RegisterAdminRoutes(router fiber.Router) {
	router.Get("/orders", h.HandleListAllOrders)
	router.Get("/orders/:id", h.HandleGetOrder)
	router.Patch("/orders/:id/status", h.HandleUpdateStatus)
}

// HandleListBuyerOrders lists the buyer's orders.
func (h *OrderHandler) HandleListBuyerOrders(c *fiber.Ctx) error {
	page, limit, offset := pageParams(c)
	orders, total, err := h.orderService.ListBuyerOrders(middleware.UserID(c), offset, limit)
	if err != nil {
		return respondError(c, "Could not retrieve orders", err)
	}
	return respondOK(c, "Orders retrieved", newPage(orders, page, limit, total))
}

// HandleListFarmerOrders lists the farmer's orders.
func (h *OrderHandler) HandleListFarmerOrders(c *fiber.Ctx) error {
	page, limit, offset := pageParams(c)
	orders, total, err := h.orderService.ListFarmerOrders(middleware.UserID(c), offset, limit)
	if err != nil {
		return respondError(c, "Could not retrieve orders", err)
	}
	return respondOK(c, "Orders retrieved", newPage(orders, page, limit, total))
}

// HandleListAllOrders lists all orders, for admins.
func (h *OrderHandler) HandleListAllOrders(c *fiber.Ctx) error {
	page, limit, offset := pageParams(c)
	orders, total, err := h.orderService.ListAllOrders(offset, limit)
	if err != nil {
		return respondError(c, "Could not retrieve orders", err)
	}
	return respondOK(c, "Orders retrieved", newPage(orders, page, limit, total))
}

// HandleGetOrder retrieves one order the requester participates in.
func (h *OrderHandler) HandleGetOrder(c *fiber.Ctx) error {
	order, err := h.orderService.GetOrder(c.Params("id"), middleware.UserID(c), middleware.Role(c))
	if err != nil {
		return respondError(c, "Could not retrieve order", err)
	}
	return respondOK(c, "Order retrieved", order)
}

// StatusUpdateRequest represents the request body for a status transition.
type StatusUpdateRequest struct {
	Status         string `json:"status" validate:"required,oneof=pending confirmed shipped delivered cancelled"`
	TrackingNumber string `json:"tracking_number" validate:"omitempty,max=100"`
	Notes          string `json:"notes" validate:"omitempty,max=500"`
}

// HandleUpdateStatus drives the order state machine.
func (h *OrderHandler) HandleUpdateStatus(c *fiber.Ctx) error {
	var req StatusUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return respondBadBody(c, err)
	}
	if err := h.validate.Struct(req); err != nil {
		return respondValidation(c, err)
	}

	order, err := h.orderService.UpdateStatus(services.StatusUpdate{
		OrderID:        c.Params("id"),
		NewStatus:      req.Status,
		TrackingNumber: req.TrackingNumber,
		Notes:          req.Notes,
		ActorID:        middleware.UserID(c),
		ActorRole:      middleware.Role(c),
	})
	if err != nil {
		return respondError(c, "Could not update order status", err)
	}
	return respondOK(c, "Order status updated", order)
}

// HandlePayOrder captures payment for the buyer's order.
func (h *OrderHandler) HandlePayOrder(c *fiber.Ctx) error {
	order, err := h.orderService.CapturePayment(c.Params("id"), middleware.UserID(c))
	if err != nil {
		return respondError(c, "Could not capture payment", err)
	}
	return respondOK(c, "Payment captured", order)
}
