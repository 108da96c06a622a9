package handlers

import (
	"github.com/gofiber/fiber/v2"

	"farmmarket/internal/middleware"
	"farmmarket/internal/services"
)

// NotificationHandler handles in-app notification endpoints, mounted on
// every role group.
type NotificationHandler struct {
	notificationService *services.NotificationService
}

// NewNotificationHandler creates a new NotificationHandler.
func NewNotificationHandler(notificationService *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{
		notificationService: notificationService,
	}
}

// RegisterRoutes registers the notification routes on a role group.
func (h *NotificationHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/notifications", h.HandleListNotifications)
	router.Patch("/notifications/:id/read", h.HandleMarkRead)
}

// HandleListNotifications returns a page of the user's notifications.
func (h *NotificationHandler) HandleListNotifications(c *fiber.Ctx) error {
	page, limit, offset := pageParams(c)
	notifications, total, err := h.notificationService.ListNotifications(middleware.UserID(c), offset, limit)
	if err != nil {
		return respondError(c, "Could not retrieve notifications", err)
	}
	return respondOK(c, "Notifications retrieved", newPage(notifications, page, limit, total))
}

// HandleMarkRead flags one notification as read.
func (h *NotificationHandler) HandleMarkRead(c *fiber.Ctx) error {
	if err := h.notificationService.MarkRead(c.Params("id"), middleware.UserID(c)); err != nil {
		return respondError(c, "Could not mark notification read", err)
	}
	return respondOK(c, "Notification marked read", nil)
}
