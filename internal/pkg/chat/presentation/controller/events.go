package controller

import (
	"encoding/json"

	chat "github.com/LabasniDAM/Labasni-Backend/internal/pkg/chat/application/domain"
)

// Realtime protocol event names. Inbound and outbound frames share one
// envelope: {"type": <event>, ...payload}.
const (
	eventJoinConversation = "join-conversation"
	eventSendMessage      = "send-message"
	eventTyping           = "typing"

	eventConnected           = "connected"
	eventError               = "error"
	eventConversationHistory = "conversation-history"
	eventNewMessage          = "new-message"
	eventConversationUpdated = "conversation-updated"
	eventUserTyping          = "user-typing"
)

type inboundEvent struct {
	Type           string `json:"type"`
	ConversationID string `json:"conversationId,omitempty"`
	Content        string `json:"content,omitempty"`
	IsTyping       bool   `json:"isTyping,omitempty"`
}

type connectedEvent struct {
	Type     string `json:"type"`
	UserID   string `json:"userId"`
	SocketID string `json:"socketId"`
}

type errorEvent struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type historyEvent struct {
	Type           string         `json:"type"`
	ConversationID string         `json:"conversationId"`
	Messages       []chat.Message `json:"messages"`
}

type newMessageEvent struct {
	Type    string       `json:"type"`
	Message chat.Message `json:"message"`
}

type conversationUpdatedEvent struct {
	Type           string        `json:"type"`
	ConversationID string        `json:"conversationId"`
	LastMessage    *chat.Message `json:"lastMessage"`
}

type userTypingEvent struct {
	Type     string `json:"type"`
	UserID   string `json:"userId"`
	IsTyping bool   `json:"isTyping"`
}

// mustMarshal encodes an outbound event. The event types above contain
// nothing json.Marshal can reject, so the error branch returns nil, which
// Send treats as an empty frame worth skipping.
func mustMarshal(v interface{}) []byte {
	payload, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return payload
}
