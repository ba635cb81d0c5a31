package task

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/LabasniDAM/Labasni-Backend/internal/infrastructure/logger"
	qport "github.com/LabasniDAM/Labasni-Backend/internal/infrastructure/queue/port"
	chat "github.com/LabasniDAM/Labasni-Backend/internal/pkg/chat/application/domain"
	"github.com/LabasniDAM/Labasni-Backend/internal/pkg/chat/application/usecase"
	repository "github.com/LabasniDAM/Labasni-Backend/internal/pkg/chat/persistence/repository/port"
)

// SendMessageTaskType is the queue task name for the async ingestion path.
const SendMessageTaskType = "chat:send_message"

// SendMessageTaskPayload is the JSON payload transported via the queue.
// Kept decoupled from domain types to avoid tight coupling with JSON tags.
type SendMessageTaskPayload struct {
	ConversationID string `json:"conversationId"`
	SenderID       string `json:"senderId"`
	Content        string `json:"content"`
}

// MessageBroadcaster fans a persisted message out to connected sessions.
type MessageBroadcaster interface {
	BroadcastMessage(ctx context.Context, msg *chat.Message)
}

// RegisterSendMessageTask binds the task handler to the provided server.
// The handler persists through the same use case as the synchronous paths
// and broadcasts on success, so queued messages are indistinguishable from
// direct ones once delivered.
func RegisterSendMessageTask(srv qport.Server, repo repository.ChatRepository, users repository.UserDirectory, b MessageBroadcaster) {
	uc := usecase.NewSendMessageUseCase(repo, users)

	srv.Register(SendMessageTaskType, func(ctx context.Context, t qport.Task) error {
		var p SendMessageTaskPayload
		if err := json.Unmarshal(t.Payload, &p); err != nil {
			// malformed payload: do not retry indefinitely
			return err
		}

		ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()

		msg, err := uc.Execute(ctx, usecase.SendMessageInput{
			ConversationID: p.ConversationID,
			SenderID:       p.SenderID,
			Content:        p.Content,
		})
		if err != nil {
			// retry/backoff policy is controlled by the queue server
			return err
		}

		logger.Debug("queued message persisted",
			zap.String("conversationId", msg.ConversationID),
			zap.String("messageId", msg.ID))

		if b != nil {
			b.BroadcastMessage(ctx, msg)
		}
		return nil
	})
}
