package adapter

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	chat "github.com/LabasniDAM/Labasni-Backend/internal/pkg/chat/application/domain"
)

type PgChatRepository struct {
	pool *pgxpool.Pool
}

func NewPgChatRepository(pool *pgxpool.Pool) *PgChatRepository {
	return &PgChatRepository{pool: pool}
}

const conversationColumns = `id::text, participant_a::text, participant_b::text, is_group, last_message_id::text, created_at, updated_at`

func (r *PgChatRepository) InsertConversation(ctx context.Context, c chat.Conversation) (*chat.Conversation, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("PgChatRepository: nil pool")
	}
	// The unique index on the sorted pair makes this a safe upsert: when a
	// concurrent insert wins the race, DO NOTHING yields no row and the
	// existing conversation is fetched instead.
	row := r.pool.QueryRow(ctx, `
		INSERT INTO chat.conversation (participant_a, participant_b, is_group, created_at, updated_at)
		VALUES ($1::uuid, $2::uuid, $3, $4, $4)
		ON CONFLICT (participant_a, participant_b) DO NOTHING
		RETURNING `+conversationColumns,
		c.Participants[0], c.Participants[1], c.IsGroup, c.CreatedAt,
	)
	conv, err := scanConversation(row)
	if err == nil {
		return conv, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	return r.FindConversationByParticipants(ctx, c.Participants)
}

func (r *PgChatRepository) FindConversationByParticipants(ctx context.Context, pair [2]string) (*chat.Conversation, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("PgChatRepository: nil pool")
	}
	row := r.pool.QueryRow(ctx, `
		SELECT `+conversationColumns+`
		FROM chat.conversation
		WHERE participant_a = $1::uuid AND participant_b = $2::uuid
	`, pair[0], pair[1])
	conv, err := scanConversation(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return conv, err
}

func (r *PgChatRepository) FindConversationByID(ctx context.Context, id string) (*chat.Conversation, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("PgChatRepository: nil pool")
	}
	row := r.pool.QueryRow(ctx, `
		SELECT `+conversationColumns+`
		FROM chat.conversation
		WHERE id = $1::uuid
	`, id)
	conv, err := scanConversation(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return conv, err
}

func (r *PgChatRepository) UpdateLastMessage(ctx context.Context, conversationID, messageID string, at time.Time) error {
	if r == nil || r.pool == nil {
		return errors.New("PgChatRepository: nil pool")
	}
	ct, err := r.pool.Exec(ctx, `
		UPDATE chat.conversation
		SET last_message_id = $2::uuid, updated_at = $3
		WHERE id = $1::uuid
	`, conversationID, messageID, at)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *PgChatRepository) InsertMessage(ctx context.Context, m chat.Message) (string, error) {
	if r == nil || r.pool == nil {
		return "", errors.New("PgChatRepository: nil pool")
	}
	var id string
	err := r.pool.QueryRow(ctx, `
		INSERT INTO chat.message (conversation_id, sender_id, content, created_at)
		VALUES ($1::uuid, $2::uuid, $3, $4)
		RETURNING id::text
	`, m.ConversationID, m.SenderID, m.Content, m.CreatedAt).Scan(&id)
	return id, err
}

func (r *PgChatRepository) ListMessages(ctx context.Context, conversationID string, limit, offset int) ([]chat.Message, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("PgChatRepository: nil pool")
	}
	q := `
		SELECT id::text, conversation_id::text, sender_id::text, content, created_at
		FROM chat.message
		WHERE conversation_id = $1::uuid
		ORDER BY created_at ASC
	`
	args := []interface{}{conversationID}
	if limit > 0 {
		q += ` LIMIT $2 OFFSET $3`
		if offset < 0 {
			offset = 0
		}
		args = append(args, limit, offset)
	}

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []chat.Message
	for rows.Next() {
		var msg chat.Message
		if err := rows.Scan(&msg.ID, &msg.ConversationID, &msg.SenderID, &msg.Content, &msg.CreatedAt); err != nil {
			return nil, err
		}
		msgs = append(msgs, msg)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return msgs, nil
}

func (r *PgChatRepository) ListConversationsByParticipant(ctx context.Context, userID string) ([]chat.Conversation, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("PgChatRepository: nil pool")
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+conversationColumns+`
		FROM chat.conversation
		WHERE participant_a = $1::uuid OR participant_b = $1::uuid
		ORDER BY updated_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var convs []chat.Conversation
	for rows.Next() {
		conv, err := scanConversation(rows)
		if err != nil {
			return nil, err
		}
		convs = append(convs, *conv)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return convs, nil
}

func scanConversation(row pgx.Row) (*chat.Conversation, error) {
	var (
		conv    chat.Conversation
		lastMsg *string
	)
	if err := row.Scan(&conv.ID, &conv.Participants[0], &conv.Participants[1], &conv.IsGroup, &lastMsg, &conv.CreatedAt, &conv.UpdatedAt); err != nil {
		return nil, err
	}
	conv.LastMessageID = lastMsg
	return &conv, nil
}
