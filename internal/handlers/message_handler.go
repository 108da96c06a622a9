package handlers

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"farmmarket/internal/middleware"
	"farmmarket/internal/services"
)

// MessageHandler handles buyer/farmer messaging endpoints. The same handler
// is mounted on both role groups; ownership comes from the token.
type MessageHandler struct {
	messageService *services.MessageService
	validate       *validator.Validate
}

// NewMessageHandler creates a new MessageHandler.
func NewMessageHandler(messageService *services.MessageService) *MessageHandler {
	return &MessageHandler{
		messageService: messageService,
		validate:       validator.New(),
	}
}

// RegisterRoutes registers the messaging routes on a role group.
func (h *MessageHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/messages", h.HandleGetMessages)
	router.Post("/messages", h.HandleSendMessage)
}

// HandleGetMessages returns either one thread (?conversationWith=<userID>)
// or the conversation list.
func (h *MessageHandler) HandleGetMessages(c *fiber.Ctx) error {
	userID := middleware.UserID(c)
	if partnerID := c.Query("conversationWith"); partnerID != "" {
		messages, err := h.messageService.GetConversation(userID, partnerID)
		if err != nil {
			return respondError(c, "Could not retrieve conversation", err)
		}
		return respondOK(c, "Conversation retrieved", messages)
	}

	conversations, err := h.messageService.ListConversations(userID)
	if err != nil {
		return respondError(c, "Could not retrieve conversations", err)
	}
	return respondOK(c, "Conversations retrieved", conversations)
}

// SendMessageRequest represents the request body for sending a message.
type SendMessageRequest struct {
	ReceiverID string `json:"receiver_id" validate:"required,uuid"`
	Content    string `json:"content" validate:"required,min=1,max=2000"`
}

// HandleSendMessage sends a message to another user.
func (h *MessageHandler) HandleSendMessage(c *fiber.Ctx) error {
	var req SendMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return respondBadBody(c, err)
	}
	if err := h.validate.Struct(req); err != nil {
		return respondValidation(c, err)
	}

	message, err := h.messageService.SendMessage(middleware.UserID(c), req.ReceiverID, req.Content)
	if err != nil {
		return respondError(c, "Could not send message", err)
	}
	return respondCreated(c, "Message sent", message)
}
