// Package guard adapts the role catalog into the read-only privilege query
// the resolver needs.
package guard

import (
	"context"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
)

// Static answers from a fixed set. Used in tests and local runs without Redis.
type Static struct {
	mu         sync.RWMutex
	privileged map[string]struct{}
}

func NewStatic(privileged ...string) *Static {
	s := &Static{privileged: make(map[string]struct{})}
	for _, id := range privileged {
		s.privileged[id] = struct{}{}
	}
	return s
}

func (s *Static) HasPrivilegedRole(_ context.Context, discordUserID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.privileged[discordUserID]
	return ok, nil
}

// Set marks or clears an identity as privileged.
func (s *Static) Set(discordUserID string, privileged bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if privileged {
		s.privileged[discordUserID] = struct{}{}
		return
	}
	delete(s.privileged, discordUserID)
}

// DefaultPrivilegedSetKey is the Redis set the role catalog maintains.
const DefaultPrivilegedSetKey = "squadlink:privileged"

// RedisGuard reads membership of a Redis set kept up to date by the role catalog.
type RedisGuard struct {
	client *redis.Client
	key    string
}

func NewRedisGuard(client *redis.Client, key string) *RedisGuard {
	if key == "" {
		key = DefaultPrivilegedSetKey
	}
	return &RedisGuard{client: client, key: key}
}

func (g *RedisGuard) HasPrivilegedRole(ctx context.Context, discordUserID string) (bool, error) {
	ok, err := g.client.SIsMember(ctx, g.key, discordUserID).Result()
	if err != nil {
		return false, fmt.Errorf("query privileged set: %w", err)
	}
	return ok, nil
}
