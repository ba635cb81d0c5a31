package chat

import (
	"strings"
	"time"
)

// SenderProfile carries the denormalized display fields attached to a
// message on reads. The canonical profile lives in the identity store.
type SenderProfile struct {
	ID             string `json:"id"`
	FullName       string `json:"fullName"`
	ProfilePicture string `json:"profilePicture,omitempty"`
}

// Message is an immutable log entry in a conversation: created once, read
// many times, never edited or deleted.
type Message struct {
	ID             string         `db:"id" json:"id"`
	ConversationID string         `db:"conversation_id" json:"conversationId"`
	SenderID       string         `db:"sender_id" json:"senderId"`
	Content        string         `db:"content" json:"content"`
	CreatedAt      time.Time      `db:"created_at" json:"createdAt"`
	Sender         *SenderProfile `db:"-" json:"sender,omitempty"`
}

// NewMessage validates and normalizes a message prior to persistence.
func NewMessage(conversationID, senderID, content string) (*Message, error) {
	if conversationID == "" || senderID == "" {
		return nil, ErrMissingParticipant
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyContent
	}
	return &Message{
		ConversationID: conversationID,
		SenderID:       senderID,
		Content:        content,
		CreatedAt:      time.Now().UTC(),
	}, nil
}
