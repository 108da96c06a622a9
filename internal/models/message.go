package models

import "gorm.io/gorm"

// Message is a directed text message between two users. A conversation is a
// derived view: all messages whose {sender,receiver} equals an unordered pair.
type Message struct {
	ID         string `json:"id" gorm:"primaryKey;type:varchar(36)"`
	SenderID   string `json:"sender_id" gorm:"type:varchar(36);index:idx_msg_pair"`
	ReceiverID string `json:"receiver_id" gorm:"type:varchar(36);index:idx_msg_pair"`
	Content    string `json:"content" gorm:"type:varchar(2000)" validate:"required,min=1,max=2000"`
	Read       bool   `json:"read" gorm:"default:false"`
	gorm.Model        // Embed gorm.Model for CreatedAt, UpdatedAt, DeletedAt
}

// Conversation summarizes one messaging partner for the conversation list.
type Conversation struct {
	PartnerID   string  `json:"partner_id"`
	LastMessage Message `json:"last_message"`
	UnreadCount int64   `json:"unread_count"`
}
