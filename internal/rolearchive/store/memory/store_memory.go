// Package memory keeps role archives in process memory.
package memory

import (
	"context"
	"sync"

	"squadlink/internal/rolearchive/models"
	"squadlink/pkg/platform/sentinel"
)

// InMemoryArchiveStore holds at most one archive per Discord identity.
type InMemoryArchiveStore struct {
	mu       sync.Mutex
	archives map[string]*models.Archive
}

func NewInMemoryArchiveStore() *InMemoryArchiveStore {
	return &InMemoryArchiveStore{archives: make(map[string]*models.Archive)}
}

// Put replaces any earlier archive for the identity.
func (s *InMemoryArchiveStore) Put(_ context.Context, archive *models.Archive) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *archive
	c.Roles = append([]string(nil), archive.Roles...)
	s.archives[archive.DiscordUserID] = &c
	return nil
}

// Take removes and returns the identity's archive, or sentinel.ErrNotFound.
func (s *InMemoryArchiveStore) Take(_ context.Context, discordUserID string) (*models.Archive, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	archive, ok := s.archives[discordUserID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	delete(s.archives, discordUserID)
	return archive, nil
}
