package usecase

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	chat "github.com/LabasniDAM/Labasni-Backend/internal/pkg/chat/application/domain"
	repository "github.com/LabasniDAM/Labasni-Backend/internal/pkg/chat/persistence/repository/port"
)

// GetConversationUseCase loads a conversation by id. The broadcast path uses
// it to resolve participant lists for notification fan-out.
type GetConversationUseCase struct {
	Repo repository.ChatRepository
}

func NewGetConversationUseCase(repo repository.ChatRepository) *GetConversationUseCase {
	return &GetConversationUseCase{Repo: repo}
}

func (uc *GetConversationUseCase) Execute(ctx context.Context, conversationID string) (*chat.Conversation, error) {
	if err := uuid.Validate(conversationID); err != nil {
		return nil, chat.ErrInvalidConversationID
	}

	conv, err := uc.Repo.FindConversationByID(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if conv == nil {
		return nil, chat.ErrConversationNotFound
	}
	return conv, nil
}
