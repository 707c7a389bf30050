// Package memory is the in-process link store used for local runs and tests.
//
// Transactions stage their writes and publish them together with their audit
// entries under the audit log lock, so readers never observe a flag flip
// without its audit entry or the reverse.
package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"squadlink/internal/linking/models"
	"squadlink/internal/linking/ports"
	"squadlink/pkg/platform/audit"
	auditmemory "squadlink/pkg/platform/audit/store/memory"
	"squadlink/pkg/platform/sentinel"
	"squadlink/pkg/requestcontext"
)

// Store holds links and unlink history in memory.
type Store struct {
	mu          sync.RWMutex
	links       map[uuid.UUID]*models.Link
	unlinks     []*models.UnlinkRecord
	lastCreated map[string]time.Time

	lockMu sync.Mutex
	held   map[string]struct{}

	audit *auditmemory.InMemoryStore
}

// New creates a store that commits audit entries into auditStore.
func New(auditStore *auditmemory.InMemoryStore) *Store {
	return &Store{
		links:       make(map[uuid.UUID]*models.Link),
		lastCreated: make(map[string]time.Time),
		held:        make(map[string]struct{}),
		audit:       auditStore,
	}
}

func (s *Store) ListByDiscordUser(_ context.Context, discordUserID string) ([]*models.Link, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listLocked(discordUserID), nil
}

func (s *Store) listLocked(discordUserID string) []*models.Link {
	var out []*models.Link
	for _, l := range s.links {
		if l.DiscordUserID == discordUserID {
			out = append(out, l.Clone())
		}
	}
	sortByCreated(out)
	return out
}

func (s *Store) FindByID(_ context.Context, id uuid.UUID) (*models.Link, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if l, ok := s.links[id]; ok {
		return l.Clone(), nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *Store) ListMultiLinkIdentities(_ context.Context) ([]string, error) {
	return s.identities(2), nil
}

func (s *Store) ListIdentities(_ context.Context) ([]string, error) {
	return s.identities(1), nil
}

func (s *Store) identities(minLinks int) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	counts := make(map[string]int)
	for _, l := range s.links {
		counts[l.DiscordUserID]++
	}
	var out []string
	for id, n := range counts {
		if n >= minLinks {
			out = append(out, id)
		}
	}
	slices.Sort(out)
	return out
}

// Unlinks exposes the unlink history for queries.
func (s *Store) Unlinks() *UnlinkHistory {
	return &UnlinkHistory{store: s}
}

// UnlinkHistory reads the append-only unlink history.
type UnlinkHistory struct {
	store *Store
}

func (h *UnlinkHistory) ListByDiscordUser(_ context.Context, discordUserID string, since, until time.Time) ([]*models.UnlinkRecord, error) {
	h.store.mu.RLock()
	defer h.store.mu.RUnlock()
	var out []*models.UnlinkRecord
	for _, r := range h.store.unlinks {
		if r.DiscordUserID != discordUserID {
			continue
		}
		if !since.IsZero() && r.UnlinkedAt.Before(since) {
			continue
		}
		if !until.IsZero() && !r.UnlinkedAt.Before(until) {
			continue
		}
		c := *r
		out = append(out, &c)
	}
	return out, nil
}

// RunInTx implements ports.LinkStoreTx with a per-identity try-lock.
func (s *Store) RunInTx(ctx context.Context, discordUserID string, fn func(ctx context.Context, stores ports.TxStores) error) error {
	if err := s.acquire(discordUserID); err != nil {
		return err
	}
	defer s.release(discordUserID)

	t := &tx{
		store:    s,
		identity: discordUserID,
		staged:   make(map[uuid.UUID]*models.Link),
	}
	stores := ports.TxStores{
		Links:   t,
		Unlinks: unlinkTx{t: t},
		Audit:   auditTx{t: t},
	}
	if err := fn(ctx, stores); err != nil {
		return err
	}
	s.commit(ctx, t)
	return nil
}

func (s *Store) acquire(discordUserID string) error {
	s.lockMu.Lock()
	defer s.lockMu.Unlock()
	if _, busy := s.held[discordUserID]; busy {
		return fmt.Errorf("identity %s: %w", discordUserID, sentinel.ErrConflict)
	}
	s.held[discordUserID] = struct{}{}
	return nil
}

func (s *Store) release(discordUserID string) {
	s.lockMu.Lock()
	defer s.lockMu.Unlock()
	delete(s.held, discordUserID)
}

// commit publishes staged writes. Audit lock is taken before the link lock.
func (s *Store) commit(ctx context.Context, t *tx) {
	apply := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for id, l := range t.staged {
			if l == nil {
				delete(s.links, id)
				continue
			}
			s.links[id] = l
		}
		s.unlinks = append(s.unlinks, t.unlinks...)
		if t.lastCreated.After(s.lastCreated[t.identity]) {
			s.lastCreated[t.identity] = t.lastCreated
		}
	}
	s.audit.AppendBatch(ctx, t.entries, apply)
}

// tx stages writes for one identity transaction.
type tx struct {
	store       *Store
	identity    string
	staged      map[uuid.UUID]*models.Link
	unlinks     []*models.UnlinkRecord
	entries     []*audit.Entry
	lastCreated time.Time
}

func (t *tx) ListByDiscordUser(_ context.Context, discordUserID string) ([]*models.Link, error) {
	t.store.mu.RLock()
	base := t.store.listLocked(discordUserID)
	t.store.mu.RUnlock()

	var out []*models.Link
	for _, l := range base {
		staged, touched := t.staged[l.ID]
		switch {
		case !touched:
			out = append(out, l)
		case staged != nil:
			out = append(out, staged.Clone())
		}
	}
	for id, l := range t.staged {
		if l == nil || l.DiscordUserID != discordUserID {
			continue
		}
		if !containsID(base, id) {
			out = append(out, l.Clone())
		}
	}
	sortByCreated(out)
	return out, nil
}

func (t *tx) FindByID(ctx context.Context, id uuid.UUID) (*models.Link, error) {
	if l, touched := t.staged[id]; touched {
		if l == nil {
			return nil, sentinel.ErrNotFound
		}
		return l.Clone(), nil
	}
	return t.store.FindByID(ctx, id)
}

func (t *tx) FindByKey(ctx context.Context, discordUserID string, game models.GameIdentity) (*models.Link, error) {
	links, err := t.ListByDiscordUser(ctx, discordUserID)
	if err != nil {
		return nil, err
	}
	for _, l := range links {
		if sameKey(l, game) {
			return l, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (t *tx) Insert(ctx context.Context, link *models.Link) error {
	if err := t.owns(link.DiscordUserID); err != nil {
		return err
	}
	if _, err := t.FindByKey(ctx, link.DiscordUserID, link.GameIdentity()); err == nil {
		return fmt.Errorf("insert link: duplicate game identity: %w", sentinel.ErrConflict)
	}
	if link.ID == uuid.Nil {
		link.ID = uuid.New()
	}

	created := requestcontext.Now(ctx).UTC().Truncate(time.Microsecond)
	last := t.store.lastCreatedFor(t.identity)
	if t.lastCreated.After(last) {
		last = t.lastCreated
	}
	if !created.After(last) {
		created = last.Add(time.Microsecond)
	}
	link.CreatedAt = created
	link.UpdatedAt = created
	t.lastCreated = created

	t.staged[link.ID] = link.Clone()
	return nil
}

func (t *tx) Update(ctx context.Context, link *models.Link) error {
	current, err := t.FindByID(ctx, link.ID)
	if err != nil {
		return fmt.Errorf("update link: %w", err)
	}
	if err := t.owns(current.DiscordUserID); err != nil {
		return err
	}
	current.ConfidenceScore = link.ConfidenceScore
	current.Source = link.Source
	current.DisplayName = link.DisplayName
	current.UpdatedAt = link.UpdatedAt
	t.staged[current.ID] = current
	return nil
}

func (t *tx) SetPrimary(ctx context.Context, id uuid.UUID, primary bool) error {
	current, err := t.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("set primary: %w", err)
	}
	if err := t.owns(current.DiscordUserID); err != nil {
		return err
	}
	current.IsPrimary = primary
	t.staged[id] = current
	return nil
}

func (t *tx) Delete(ctx context.Context, id uuid.UUID) error {
	current, err := t.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("delete link: %w", err)
	}
	if err := t.owns(current.DiscordUserID); err != nil {
		return err
	}
	t.staged[id] = nil
	return nil
}

func (t *tx) owns(discordUserID string) error {
	if discordUserID != t.identity {
		return fmt.Errorf("identity %s is not locked by this transaction: %w", discordUserID, sentinel.ErrInvalidState)
	}
	return nil
}

type unlinkTx struct{ t *tx }

func (u unlinkTx) Append(_ context.Context, record *models.UnlinkRecord) error {
	if err := u.t.owns(record.DiscordUserID); err != nil {
		return err
	}
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	c := *record
	u.t.unlinks = append(u.t.unlinks, &c)
	return nil
}

type auditTx struct{ t *tx }

// Append defers sealing to commit so entries chain in commit order.
func (a auditTx) Append(_ context.Context, entry *audit.Entry) error {
	a.t.entries = append(a.t.entries, entry)
	return nil
}

func (s *Store) lastCreatedFor(discordUserID string) time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastCreated[discordUserID]
}

func sameKey(l *models.Link, game models.GameIdentity) bool {
	if game.GameID64 != nil {
		return l.GameID64 != nil && *l.GameID64 == *game.GameID64
	}
	return l.GameID64 == nil && l.OnlineServiceID != nil && game.OnlineServiceID != nil &&
		*l.OnlineServiceID == *game.OnlineServiceID
}

func sortByCreated(links []*models.Link) {
	slices.SortFunc(links, func(a, b *models.Link) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
}

func containsID(links []*models.Link, id uuid.UUID) bool {
	return slices.ContainsFunc(links, func(l *models.Link) bool { return l.ID == id })
}
