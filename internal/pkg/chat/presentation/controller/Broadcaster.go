package controller

import (
	"context"

	"go.uber.org/zap"

	"github.com/LabasniDAM/Labasni-Backend/internal/infrastructure/logger"
	"github.com/LabasniDAM/Labasni-Backend/internal/infrastructure/realtime"
	chat "github.com/LabasniDAM/Labasni-Backend/internal/pkg/chat/application/domain"
	"github.com/LabasniDAM/Labasni-Backend/internal/pkg/chat/application/usecase"
	repository "github.com/LabasniDAM/Labasni-Backend/internal/pkg/chat/persistence/repository/port"
)

// Broadcaster is the single fan-out routine for created messages. Every
// ingestion path (websocket event, request endpoint, queued task) calls it
// after persistence, so connected clients cannot tell the paths apart.
type Broadcaster struct {
	registry *realtime.Registry
	getConv  *usecase.GetConversationUseCase
}

func NewBroadcaster(registry *realtime.Registry, repo repository.ChatRepository) *Broadcaster {
	return &Broadcaster{
		registry: registry,
		getConv:  usecase.NewGetConversationUseCase(repo),
	}
}

// BroadcastMessage pushes msg to the conversation's room (all sessions,
// including the sender's other devices) and a conversation-updated
// notification to every other participant's personal room, reaching users
// who are online but not attached to this conversation's room.
func (b *Broadcaster) BroadcastMessage(ctx context.Context, msg *chat.Message) {
	payload := mustMarshal(newMessageEvent{Type: eventNewMessage, Message: *msg})
	delivered := b.registry.Broadcast(realtime.ConversationRoom(msg.ConversationID), payload, "")
	logger.Debug("message broadcast",
		zap.String("conversationId", msg.ConversationID),
		zap.Int("delivered", delivered))

	conv, err := b.getConv.Execute(ctx, msg.ConversationID)
	if err != nil {
		// The room broadcast already went out; the side notification is
		// best-effort.
		logger.Error("conversation lookup for fan-out failed",
			zap.String("conversationId", msg.ConversationID), zap.Error(err))
		return
	}

	update := mustMarshal(conversationUpdatedEvent{
		Type:           eventConversationUpdated,
		ConversationID: conv.ID,
		LastMessage:    msg,
	})
	for _, participantID := range conv.OtherParticipants(msg.SenderID) {
		b.registry.Broadcast(realtime.UserRoom(participantID), update, "")
	}
}
