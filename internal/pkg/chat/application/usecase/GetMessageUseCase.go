package usecase

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	chat "github.com/LabasniDAM/Labasni-Backend/internal/pkg/chat/application/domain"
	repository "github.com/LabasniDAM/Labasni-Backend/internal/pkg/chat/persistence/repository/port"
)

// GetMessageInput selects a conversation's history. Limit <= 0 returns the
// full history (the client-bootstrap contract); limit/offset page otherwise.
type GetMessageInput struct {
	ConversationID string
	Limit          int
	Offset         int
}

// GetMessageUseCase fetches a conversation's messages oldest-first with
// sender display fields resolved.
type GetMessageUseCase struct {
	Repo  repository.ChatRepository
	Users repository.UserDirectory
}

func NewGetMessageUseCase(repo repository.ChatRepository, users repository.UserDirectory) *GetMessageUseCase {
	return &GetMessageUseCase{Repo: repo, Users: users}
}

func (uc *GetMessageUseCase) Execute(ctx context.Context, in GetMessageInput) ([]chat.Message, error) {
	if err := uuid.Validate(in.ConversationID); err != nil {
		return nil, chat.ErrInvalidConversationID
	}

	msgs, err := uc.Repo.ListMessages(ctx, in.ConversationID, in.Limit, in.Offset)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	attachSenders(ctx, uc.Users, msgs)
	return msgs, nil
}
