package repositories

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"farmmarket/internal/models"
)

// MessageRepository defines the interface for message data access.
type MessageRepository interface {
	Create(message *models.Message) error
	// GetConversation returns every message between the unordered pair
	// {a, b}, oldest first.
	GetConversation(a, b string) ([]models.Message, error)
	// ListConversations summarizes each partner the user has messaged with,
	// most recent conversation first.
	ListConversations(userID string) ([]models.Conversation, error)
	// MarkRead flags all messages from sender to receiver as read.
	MarkRead(receiverID, senderID string) error
}

// GORMMessageRepository is a GORM implementation of MessageRepository.
type GORMMessageRepository struct {
	db *gorm.DB
}

// NewGORMMessageRepository creates a new instance of GORMMessageRepository.
func NewGORMMessageRepository(db *gorm.DB) *GORMMessageRepository {
	return &GORMMessageRepository{
		db: db,
	}
}

// Create persists a new message.
func (r *GORMMessageRepository) Create(message *models.Message) error {
	if message.ID == "" {
		message.ID = uuid.New().String()
	}
	if err := r.db.Create(message).Error; err != nil {
		return fmt.Errorf("failed to create message: %w", err)
	}
	return nil
}

// GetConversation returns all messages of the unordered pair, oldest first.
// The symmetric WHERE clause makes the view identical from both sides.
func (r *GORMMessageRepository) GetConversation(a, b string) ([]models.Message, error) {
	var messages []models.Message
	err := r.db.
		Where("(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)", a, b, b, a).
		Order("created_at ASC").
		Find(&messages).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get conversation: %w", err)
	}
	return messages, nil
}

// ListConversations groups the user's messages by partner in memory; message
// volume per user is small enough that this beats a dialect-specific window
// query.
func (r *GORMMessageRepository) ListConversations(userID string) ([]models.Conversation, error) {
	var messages []models.Message
	err := r.db.
		Where("sender_id = ? OR receiver_id = ?", userID, userID).
		Order("created_at ASC").
		Find(&messages).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}

	byPartner := make(map[string]*models.Conversation)
	for _, msg := range messages {
		partner := msg.SenderID
		if partner == userID {
			partner = msg.ReceiverID
		}
		conv, ok := byPartner[partner]
		if !ok {
			conv = &models.Conversation{PartnerID: partner}
			byPartner[partner] = conv
		}
		conv.LastMessage = msg
		if msg.ReceiverID == userID && !msg.Read {
			conv.UnreadCount++
		}
	}

	conversations := make([]models.Conversation, 0, len(byPartner))
	for _, conv := range byPartner {
		conversations = append(conversations, *conv)
	}
	sort.Slice(conversations, func(i, j int) bool {
		return conversations[i].LastMessage.CreatedAt.After(conversations[j].LastMessage.CreatedAt)
	})
	return conversations, nil
}

// MarkRead flags all messages from sender to receiver as read.
func (r *GORMMessageRepository) MarkRead(receiverID, senderID string) error {
	err := r.db.Model(&models.Message{}).
		Where("receiver_id = ? AND sender_id = ? AND read = ?", receiverID, senderID, false).
		Update("read", true).Error
	if err != nil {
		return fmt.Errorf("failed to mark messages read: %w", err)
	}
	return nil
}
