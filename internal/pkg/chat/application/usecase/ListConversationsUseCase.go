package usecase

import (
	"context"
	"fmt"

	chat "github.com/LabasniDAM/Labasni-Backend/internal/pkg/chat/application/domain"
	repository "github.com/LabasniDAM/Labasni-Backend/internal/pkg/chat/persistence/repository/port"
)

// ConversationWithMessages is the denormalized listing shape: the
// conversation plus its full history and a message count. Deliberately eager
// so a client can bootstrap from one call; see the repository for the
// per-conversation cost trade-off.
type ConversationWithMessages struct {
	chat.Conversation
	LastMessage  *chat.Message  `json:"lastMessage,omitempty"`
	Messages     []chat.Message `json:"messages"`
	MessageCount int            `json:"messageCount"`
}

// ListConversationsUseCase returns every conversation the user participates
// in, newest-updated first, each with its embedded history.
type ListConversationsUseCase struct {
	Repo  repository.ChatRepository
	Users repository.UserDirectory
}

func NewListConversationsUseCase(repo repository.ChatRepository, users repository.UserDirectory) *ListConversationsUseCase {
	return &ListConversationsUseCase{Repo: repo, Users: users}
}

func (uc *ListConversationsUseCase) Execute(ctx context.Context, userID string) ([]ConversationWithMessages, error) {
	if userID == "" {
		return nil, chat.ErrMissingParticipant
	}

	convs, err := uc.Repo.ListConversationsByParticipant(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	out := make([]ConversationWithMessages, 0, len(convs))
	for _, conv := range convs {
		msgs, err := uc.Repo.ListMessages(ctx, conv.ID, 0, 0)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
		}
		attachSenders(ctx, uc.Users, msgs)

		item := ConversationWithMessages{
			Conversation: conv,
			Messages:     msgs,
			MessageCount: len(msgs),
		}
		if len(msgs) > 0 {
			item.LastMessage = &msgs[len(msgs)-1]
		}
		out = append(out, item)
	}
	return out, nil
}
