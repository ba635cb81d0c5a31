package usecase

import (
	"context"

	chat "github.com/LabasniDAM/Labasni-Backend/internal/pkg/chat/application/domain"
	repository "github.com/LabasniDAM/Labasni-Backend/internal/pkg/chat/persistence/repository/port"
)

// attachSenders resolves denormalized sender display fields for a batch of
// messages. Resolution is best-effort: a directory hiccup or an unknown user
// leaves Sender nil rather than failing a read that already has the data
// that matters.
func attachSenders(ctx context.Context, users repository.UserDirectory, msgs []chat.Message) {
	if users == nil {
		return
	}
	profiles := make(map[string]*chat.SenderProfile)
	for i := range msgs {
		id := msgs[i].SenderID
		p, seen := profiles[id]
		if !seen {
			p, _ = users.GetProfile(ctx, id)
			profiles[id] = p
		}
		msgs[i].Sender = p
	}
}
