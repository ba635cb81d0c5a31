package adapter

import (
	"context"
	"encoding/json"
	"time"

	cacheport "github.com/LabasniDAM/Labasni-Backend/internal/infrastructure/cache/port"
	chat "github.com/LabasniDAM/Labasni-Backend/internal/pkg/chat/application/domain"
	repository "github.com/LabasniDAM/Labasni-Backend/internal/pkg/chat/persistence/repository/port"
)

const profileTTL = 10 * time.Minute

// CachedUserDirectory decorates a UserDirectory with a read-through cache.
// Display fields change rarely, and every message read resolves a sender, so
// a short TTL removes most of the per-message lookups.
type CachedUserDirectory struct {
	next  repository.UserDirectory
	cache cacheport.Cache
}

func NewCachedUserDirectory(next repository.UserDirectory, cache cacheport.Cache) *CachedUserDirectory {
	return &CachedUserDirectory{next: next, cache: cache}
}

var _ repository.UserDirectory = (*CachedUserDirectory)(nil)

func (d *CachedUserDirectory) GetProfile(ctx context.Context, userID string) (*chat.SenderProfile, error) {
	key := "chat:profile:" + userID

	if raw, err := d.cache.Get(ctx, key); err == nil {
		var p chat.SenderProfile
		if json.Unmarshal([]byte(raw), &p) == nil {
			return &p, nil
		}
		// Unreadable entry: drop it and fall through to the source.
		_, _ = d.cache.Del(ctx, key)
	}

	p, err := d.next.GetProfile(ctx, userID)
	if err != nil || p == nil {
		return p, err
	}

	if raw, err := json.Marshal(p); err == nil {
		// Best effort; a cache outage must not fail the read path.
		_ = d.cache.Set(ctx, key, string(raw), profileTTL)
	}
	return p, nil
}
