package usecase

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	chat "github.com/LabasniDAM/Labasni-Backend/internal/pkg/chat/application/domain"
	repository "github.com/LabasniDAM/Labasni-Backend/internal/pkg/chat/persistence/repository/port"
)

// SendMessageInput carries the data needed to create a message. SenderID is
// always the authenticated principal of the calling session or request.
type SendMessageInput struct {
	ConversationID string
	SenderID       string
	Content        string
}

// SendMessageUseCase persists a message and advances the owning
// conversation's last-message pointer. Both ingestion paths (request
// endpoint and realtime event) funnel through this type, so persistence
// behavior is identical regardless of transport.
type SendMessageUseCase struct {
	Repo  repository.ChatRepository
	Users repository.UserDirectory
}

func NewSendMessageUseCase(repo repository.ChatRepository, users repository.UserDirectory) *SendMessageUseCase {
	return &SendMessageUseCase{Repo: repo, Users: users}
}

func (uc *SendMessageUseCase) Execute(ctx context.Context, in SendMessageInput) (*chat.Message, error) {
	if err := uuid.Validate(in.ConversationID); err != nil {
		return nil, chat.ErrInvalidConversationID
	}

	conv, err := uc.Repo.FindConversationByID(ctx, in.ConversationID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if conv == nil {
		return nil, chat.ErrConversationNotFound
	}
	if !conv.HasParticipant(in.SenderID) {
		return nil, chat.ErrNotParticipant
	}

	msg, err := chat.NewMessage(conv.ID, in.SenderID, in.Content)
	if err != nil {
		return nil, err
	}

	// Insert first, update the pointer second: the conversation must never
	// reference a message id that does not exist yet.
	id, err := uc.Repo.InsertMessage(ctx, *msg)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	msg.ID = id

	if err := uc.Repo.UpdateLastMessage(ctx, conv.ID, id, msg.CreatedAt); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	msgs := []chat.Message{*msg}
	attachSenders(ctx, uc.Users, msgs)
	return &msgs[0], nil
}
