// Package redis stores role archives as JSON values with a TTL matching
// their expiry, so Redis reaps abandoned archives on its own.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"squadlink/internal/rolearchive/models"
	"squadlink/pkg/platform/sentinel"
	"squadlink/pkg/requestcontext"
)

const archiveKeyPrefix = "squadlink:role_archive:"

// ArchiveStore is a Redis-backed role archive store.
type ArchiveStore struct {
	client *redis.Client
}

func NewArchiveStore(client *redis.Client) *ArchiveStore {
	return &ArchiveStore{client: client}
}

// Put overwrites the identity's archive. The key expires at archive.ExpiresAt.
func (s *ArchiveStore) Put(ctx context.Context, archive *models.Archive) error {
	ttl := archive.ExpiresAt.Sub(requestcontext.Now(ctx))
	if ttl <= 0 {
		return nil
	}
	payload, err := json.Marshal(archive)
	if err != nil {
		return fmt.Errorf("marshal role archive: %w", err)
	}
	if err := s.client.Set(ctx, archiveKeyPrefix+archive.DiscordUserID, payload, ttl).Err(); err != nil {
		return fmt.Errorf("store role archive: %w", err)
	}
	return nil
}

// Take atomically reads and deletes the archive with GETDEL, so two
// concurrent restores cannot both win.
func (s *ArchiveStore) Take(ctx context.Context, discordUserID string) (*models.Archive, error) {
	payload, err := s.client.GetDel(ctx, archiveKeyPrefix+discordUserID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("take role archive: %w", err)
	}
	var archive models.Archive
	if err := json.Unmarshal(payload, &archive); err != nil {
		return nil, fmt.Errorf("decode role archive: %w", err)
	}
	return &archive, nil
}
