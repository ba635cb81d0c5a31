package usecase

import (
	"context"
	"fmt"
	"time"

	chat "github.com/LabasniDAM/Labasni-Backend/internal/pkg/chat/application/domain"
	repository "github.com/LabasniDAM/Labasni-Backend/internal/pkg/chat/persistence/repository/port"
)

// EnsureConversationInput identifies the two sides of a 1:1 thread. The
// current user comes from the authenticated principal, never the request
// body.
type EnsureConversationInput struct {
	CurrentUserID string
	PartnerID     string
}

// EnsureConversationUseCase returns the unique conversation for a user pair,
// creating it lazily on first contact. Either argument order yields the same
// conversation because the pair is canonicalized before lookup.
type EnsureConversationUseCase struct {
	Repo repository.ChatRepository
}

func NewEnsureConversationUseCase(repo repository.ChatRepository) *EnsureConversationUseCase {
	return &EnsureConversationUseCase{Repo: repo}
}

func (uc *EnsureConversationUseCase) Execute(ctx context.Context, in EnsureConversationInput) (*chat.Conversation, error) {
	pair, err := chat.CanonicalPair(in.CurrentUserID, in.PartnerID)
	if err != nil {
		return nil, err
	}

	conv, err := uc.Repo.FindConversationByParticipants(ctx, pair)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if conv != nil {
		return conv, nil
	}

	now := time.Now().UTC()
	conv, err = uc.Repo.InsertConversation(ctx, chat.Conversation{
		Participants: pair,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return conv, nil
}
