package chat

import "errors"

// Domain-level errors. Controllers and the gateway map these onto status
// codes and error events; raw storage errors never reach this set.
var (
	ErrSelfConversation      = errors.New("chat: cannot open a conversation with yourself")
	ErrMissingParticipant    = errors.New("chat: participant id is required")
	ErrInvalidConversationID = errors.New("chat: conversation id is not a well-formed identifier")
	ErrConversationNotFound  = errors.New("chat: conversation not found")
	ErrNotParticipant        = errors.New("chat: sender is not a participant in the conversation")
	ErrEmptyContent          = errors.New("chat: message content must not be empty")
)
