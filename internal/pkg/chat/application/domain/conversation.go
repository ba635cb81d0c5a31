package chat

import (
	"sort"
	"time"
)

// Conversation is a 1:1 thread between exactly two users. Participants are
// stored in canonical (sorted) order so pair lookup is deterministic and a
// uniqueness constraint can cover the pair. IsGroup is reserved; group
// semantics are not implemented.
type Conversation struct {
	ID            string    `db:"id" json:"id"`
	Participants  [2]string `db:"-" json:"participants"`
	IsGroup       bool      `db:"is_group" json:"isGroup"`
	LastMessageID *string   `db:"last_message_id" json:"lastMessageId,omitempty"`
	CreatedAt     time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt     time.Time `db:"updated_at" json:"updatedAt"`
}

// CanonicalPair validates and sorts a participant pair. Self-conversations
// and empty ids are rejected.
func CanonicalPair(userA, userB string) ([2]string, error) {
	if userA == "" || userB == "" {
		return [2]string{}, ErrMissingParticipant
	}
	if userA == userB {
		return [2]string{}, ErrSelfConversation
	}
	pair := []string{userA, userB}
	sort.Strings(pair)
	return [2]string{pair[0], pair[1]}, nil
}

// HasParticipant tells whether userID is part of this conversation.
func (c *Conversation) HasParticipant(userID string) bool {
	if c == nil || userID == "" {
		return false
	}
	return c.Participants[0] == userID || c.Participants[1] == userID
}

// OtherParticipants returns every participant except userID. For the
// pairwise model this is at most one id, but callers iterate so the shape
// survives the reserved group flag.
func (c *Conversation) OtherParticipants(userID string) []string {
	var others []string
	for _, p := range c.Participants {
		if p != "" && p != userID {
			others = append(others, p)
		}
	}
	return others
}
