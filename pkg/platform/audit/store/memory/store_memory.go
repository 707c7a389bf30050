package memory

import (
	"bytes"
	"context"
	"sync"

	"squadlink/pkg/platform/audit"
	"squadlink/pkg/platform/sentinel"
	"squadlink/pkg/requestcontext"
)

// InMemoryStore keeps audit entries in append order. One mutex serializes
// every append, which also serializes each target's hash chain.
type InMemoryStore struct {
	mu      sync.RWMutex
	entries []*audit.Entry
	heads   map[string][]byte
	seq     int64
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{heads: make(map[string][]byte)}
}

func (s *InMemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = nil
	s.heads = make(map[string][]byte)
	s.seq = 0
}

func (s *InMemoryStore) Append(ctx context.Context, entry *audit.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appendLocked(ctx, entry)
	return nil
}

// AppendBatch appends entries and then runs apply while still holding the
// log lock. In-memory link stores use it to publish their staged writes so no
// reader sees link changes without their audit entries, or the reverse.
func (s *InMemoryStore) AppendBatch(ctx context.Context, entries []*audit.Entry, apply func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range entries {
		s.appendLocked(ctx, e)
	}
	if apply != nil {
		apply()
	}
}

func (s *InMemoryStore) AppendIfChanged(ctx context.Context, entry *audit.Entry) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if latest := s.latestLocked(entry.TargetType, entry.TargetID, entry.ActionType); latest != nil {
		if bytes.Equal(latest.AfterState, entry.AfterState) {
			return false, nil
		}
	}
	s.appendLocked(ctx, entry)
	return true, nil
}

func (s *InMemoryStore) appendLocked(ctx context.Context, entry *audit.Entry) {
	key := entry.ChainKey()
	entry.Seal(s.heads[key], requestcontext.Now(ctx))
	s.seq++
	entry.Seq = s.seq
	s.heads[key] = entry.Hash
	s.entries = append(s.entries, entry.Clone())
}

func (s *InMemoryStore) List(_ context.Context, q audit.Query) ([]*audit.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*audit.Entry
	for _, e := range s.entries {
		if !q.Matches(e) {
			continue
		}
		out = append(out, e.Clone())
		if q.Limit > 0 && len(out) == q.Limit {
			break
		}
	}
	return out, nil
}

func (s *InMemoryStore) Latest(_ context.Context, targetType, targetID string, action audit.ActionType) (*audit.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if e := s.latestLocked(targetType, targetID, action); e != nil {
		return e.Clone(), nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryStore) latestLocked(targetType, targetID string, action audit.ActionType) *audit.Entry {
	for i := len(s.entries) - 1; i >= 0; i-- {
		e := s.entries[i]
		if e.TargetType == targetType && e.TargetID == targetID && e.ActionType == action {
			return e
		}
	}
	return nil
}

// Len returns the number of stored entries.
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
