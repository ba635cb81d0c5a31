package adapter

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	chat "github.com/LabasniDAM/Labasni-Backend/internal/pkg/chat/application/domain"
)

// PgUserDirectory reads sender display fields from the identity store's
// users table. The table is owned by the auth service; this adapter only
// ever selects from it.
type PgUserDirectory struct {
	pool *pgxpool.Pool
}

func NewPgUserDirectory(pool *pgxpool.Pool) *PgUserDirectory {
	return &PgUserDirectory{pool: pool}
}

func (d *PgUserDirectory) GetProfile(ctx context.Context, userID string) (*chat.SenderProfile, error) {
	if d == nil || d.pool == nil {
		return nil, errors.New("PgUserDirectory: nil pool")
	}
	var p chat.SenderProfile
	err := d.pool.QueryRow(ctx, `
		SELECT id::text, full_name, COALESCE(profile_picture, '')
		FROM users
		WHERE id = $1::uuid
	`, userID).Scan(&p.ID, &p.FullName, &p.ProfilePicture)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}
