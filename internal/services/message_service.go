package services

import (
	"farmmarket/internal/apperrors"
	"farmmarket/internal/models"
	"farmmarket/internal/repositories"
)

// MessageService handles buyer/farmer messaging. Ordering within a
// conversation is by timestamp only; concurrent sends from both sides
// interleave by wall-clock time.
type MessageService struct {
	messageRepo repositories.MessageRepository
	userRepo    repositories.UserRepository
}

// NewMessageService creates a new MessageService.
func NewMessageService(messageRepo repositories.MessageRepository, userRepo repositories.UserRepository) *MessageService {
	return &MessageService{
		messageRepo: messageRepo,
		userRepo:    userRepo,
	}
}

// SendMessage sends a message from sender to receiver. The receiver must
// exist.
func (s *MessageService) SendMessage(senderID, receiverID, content string) (*models.Message, error) {
	if content == "" {
		return nil, apperrors.Validation("content", "message content is required")
	}
	if len(content) > 2000 {
		return nil, apperrors.Validation("content", "message content is too long")
	}
	if senderID == receiverID {
		return nil, apperrors.Validation("receiver_id", "cannot message yourself")
	}
	if _, err := s.userRepo.GetByID(receiverID); err != nil {
		if apperrors.Is(err, apperrors.KindNotFound) {
			return nil, apperrors.NotFound("receiver")
		}
		return nil, err
	}

	message := &models.Message{
		SenderID:   senderID,
		ReceiverID: receiverID,
		Content:    content,
	}
	if err := s.messageRepo.Create(message); err != nil {
		return nil, err
	}
	return message, nil
}

// GetConversation returns the full thread between the user and a partner,
// oldest first, and marks the partner's messages to the user as read.
func (s *MessageService) GetConversation(userID, partnerID string) ([]models.Message, error) {
	messages, err := s.messageRepo.GetConversation(userID, partnerID)
	if err != nil {
		return nil, err
	}
	if err := s.messageRepo.MarkRead(userID, partnerID); err != nil {
		return nil, err
	}
	return messages, nil
}

// ListConversations returns the user's conversation list with unread counts,
// most recent first.
func (s *MessageService) ListConversations(userID string) ([]models.Conversation, error) {
	return s.messageRepo.ListConversations(userID)
}
