package handlers

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"farmmarket/internal/middleware"
	"farmmarket/internal/services"
)

// AdminHandler handles analytics, user listing and dispute resolution.
type AdminHandler struct {
	analyticsService *services.AnalyticsService
	disputeService   *services.DisputeService
	userService      *services.UserService
	validate         *validator.Validate
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(
	analyticsService *services.AnalyticsService,
	disputeService *services.DisputeService,
	userService *services.UserService,
) *AdminHandler {
	return &AdminHandler{
		analyticsService: analyticsService,
		disputeService:   disputeService,
		userService:      userService,
		validate:         validator.New(),
	}
}

// RegisterRoutes registers the admin-only routes.
func (h *AdminHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/analytics", h.HandleAnalytics)
	router.Get("/users", h.HandleListUsers)
	router.Get("/disputes", h.HandleListDisputes)
	router.Patch("/disputes/:id", h.HandleResolveDispute)
}

// RegisterDisputeRoutes registers dispute creation on a buyer/farmer group.
func (h *AdminHandler) RegisterDisputeRoutes(router fiber.Router) {
	router.Post("/disputes", h.HandleRaiseDispute)
}

// HandleAnalytics returns the time-bucketed report for ?period= and ?type=.
func (h *AdminHandler) HandleAnalytics(c *fiber.Ctx) error {
	report, err := h.analyticsService.BuildReport(c.Query("period", "week"), c.Query("type", "revenue"))
	if err != nil {
		return respondError(c, "Could not build analytics report", err)
	}
	return respondOK(c, "Analytics report built", report)
}

// HandleListUsers lists users, optionally filtered by ?role=.
func (h *AdminHandler) HandleListUsers(c *fiber.Ctx) error {
	page, limit, offset := pageParams(c)
	users, total, err := h.userService.ListUsers(c.Query("role"), offset, limit)
	if err != nil {
		return respondError(c, "Could not list users", err)
	}
	return respondOK(c, "Users retrieved", newPage(users, page, limit, total))
}

// RaiseDisputeRequest represents the request body for opening a dispute.
type RaiseDisputeRequest struct {
	OrderID string `json:"order_id" validate:"required,uuid"`
	Reason  string `json:"reason" validate:"required,min=10,max=1000"`
}

// HandleRaiseDispute opens a dispute on one of the requester's orders.
func (h *AdminHandler) HandleRaiseDispute(c *fiber.Ctx) error {
	var req RaiseDisputeRequest
	if err := c.BodyParser(&req); err != nil {
		return respondBadBody(c, err)
	}
	if err := h.validate.Struct(req); err != nil {
		return respondValidation(c, err)
	}

	dispute, err := h.disputeService.RaiseDispute(req.OrderID, middleware.UserID(c), req.Reason)
	if err != nil {
		return respondError(c, "Could not raise dispute", err)
	}
	return respondCreated(c, "Dispute raised", dispute)
}

// HandleListDisputes lists disputes, optionally filtered by ?status=.
func (h *AdminHandler) HandleListDisputes(c *fiber.Ctx) error {
	page, limit, offset := pageParams(c)
	disputes, total, err := h.disputeService.ListDisputes(c.Query("status"), offset, limit)
	if err != nil {
		return respondError(c, "Could not list disputes", err)
	}
	return respondOK(c, "Disputes retrieved", newPage(disputes, page, limit, total))
}

// ResolveDisputeRequest represents the request body for closing a dispute.
type ResolveDisputeRequest struct {
	Status     string `json:"status" validate:"required,oneof=resolved rejected"`
	Resolution string `json:"resolution" validate:"required,min=5,max=1000"`
}

// HandleResolveDispute closes a dispute with a resolution note.
func (h *AdminHandler) HandleResolveDispute(c *fiber.Ctx) error {
	var req ResolveDisputeRequest
	if err := c.BodyParser(&req); err != nil {
		return respondBadBody(c, err)
	}
	if err := h.validate.Struct(req); err != nil {
		return respondValidation(c, err)
	}

	dispute, err := h.disputeService.Resolve(c.Params("id"), req.Status, req.Resolution)
	if err != nil {
		return respondError(c, "Could not resolve dispute", err)
	}
	return respondOK(c, "Dispute updated", dispute)
}
