package repository

import (
	"context"

	chat "github.com/LabasniDAM/Labasni-Backend/internal/pkg/chat/application/domain"
)

// UserDirectory is the chat domain's read-only view of the identity store.
// Profile storage and credential issuance live elsewhere; messages only need
// the display fields for denormalized reads. Unknown users return (nil, nil).
type UserDirectory interface {
	GetProfile(ctx context.Context, userID string) (*chat.SenderProfile, error)
}
