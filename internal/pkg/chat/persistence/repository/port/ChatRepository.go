package repository

import (
	"context"
	"time"

	chat "github.com/LabasniDAM/Labasni-Backend/internal/pkg/chat/application/domain"
)

// ChatRepository defines persistence operations for the chat domain. It is
// the only surface that mutates canonical conversation/message state.
// Lookups that find nothing return (nil, nil); errors are transport/storage
// failures only.
type ChatRepository interface {
	// InsertConversation stores a conversation for a canonical participant
	// pair. The pair is covered by a uniqueness constraint; on conflict the
	// existing row is fetched and returned, so concurrent calls for the same
	// pair converge on one conversation.
	InsertConversation(ctx context.Context, c chat.Conversation) (*chat.Conversation, error)

	FindConversationByParticipants(ctx context.Context, pair [2]string) (*chat.Conversation, error)
	FindConversationByID(ctx context.Context, id string) (*chat.Conversation, error)

	// UpdateLastMessage advances the conversation's last-message pointer and
	// updated_at. Called only after the message row exists.
	UpdateLastMessage(ctx context.Context, conversationID, messageID string, at time.Time) error

	// InsertMessage appends a message and returns its generated id.
	InsertMessage(ctx context.Context, m chat.Message) (string, error)

	// ListMessages returns a conversation's messages ordered by created_at
	// ascending. limit <= 0 means the full history.
	ListMessages(ctx context.Context, conversationID string, limit, offset int) ([]chat.Message, error)

	// ListConversationsByParticipant returns every conversation the user is
	// part of, newest-updated first.
	ListConversationsByParticipant(ctx context.Context, userID string) ([]chat.Conversation, error)
}
