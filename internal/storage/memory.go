// Package storage provides session and history persistence implementations.
package storage

import (
	"context"
	"sort"
	"sync"

	"github.com/hammamikhairi/cookplan/internal/domain"
	"github.com/hammamikhairi/cookplan/internal/logger"
)

// Compile-time interface checks.
var (
	_ domain.SessionStore = (*MemoryStore)(nil)
	_ domain.LogStore     = (*MemoryLog)(nil)
)

// MemoryStore is an in-memory session store. Safe for concurrent access.
type MemoryStore struct {
	mu    sync.RWMutex
	snaps map[string]*domain.Snapshot
	log   *logger.Logger
}

// NewMemoryStore creates an empty in-memory session store.
func NewMemoryStore(log *logger.Logger) *MemoryStore {
	return &MemoryStore{
		snaps: make(map[string]*domain.Snapshot),
		log:   log,
	}
}

// Save persists a snapshot. Overwrites if it already exists.
func (s *MemoryStore) Save(ctx context.Context, snap *domain.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := snap.Session
	s.log.Debug("saving session %s (plan=%s, status=%s, v%d)", sess.ID, sess.PlanID, sess.Status, sess.Version)
	s.snaps[sess.ID] = &domain.Snapshot{Plan: snap.Plan, Session: sess.Clone()}
	return nil
}

// Load retrieves a snapshot by session ID.
func (s *MemoryStore) Load(ctx context.Context, id string) (*domain.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap, ok := s.snaps[id]
	if !ok {
		s.log.Debug("session not found: %s", id)
		return nil, domain.ErrNotFound
	}
	return &domain.Snapshot{Plan: snap.Plan, Session: snap.Session.Clone()}, nil
}

// Delete removes a session by ID.
func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.snaps[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.snaps, id)
	s.log.Debug("deleted session %s", id)
	return nil
}

// ListActive returns all running or paused sessions, most recently updated
// first.
func (s *MemoryStore) ListActive(ctx context.Context) ([]*domain.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.Snapshot
	for _, snap := range s.snaps {
		if snap.Session.Status.IsLive() {
			out = append(out, &domain.Snapshot{Plan: snap.Plan, Session: snap.Session.Clone()})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Session.UpdatedAt.After(out[j].Session.UpdatedAt)
	})
	s.log.Debug("listing active sessions, count=%d", len(out))
	return out, nil
}

// MemoryLog is an in-memory, append-only cook history.
type MemoryLog struct {
	mu      sync.RWMutex
	entries []domain.CookLogEntry
	bySess  map[string]int
	log     *logger.Logger
}

// NewMemoryLog creates an empty history.
func NewMemoryLog(log *logger.Logger) *MemoryLog {
	return &MemoryLog{
		bySess: make(map[string]int),
		log:    log,
	}
}

// Append adds an entry. A second entry for the same session is rejected with
// ErrAlreadyExists.
func (l *MemoryLog) Append(ctx context.Context, entry *domain.CookLogEntry) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.bySess[entry.SessionID]; ok {
		return domain.ErrAlreadyExists
	}
	l.bySess[entry.SessionID] = len(l.entries)
	l.entries = append(l.entries, *entry)
	l.log.Debug("appended cook log for session %s (%s)", entry.SessionID, entry.Outcome)
	return nil
}

// Get returns the entry recorded for a session.
func (l *MemoryLog) Get(ctx context.Context, sessionID string) (*domain.CookLogEntry, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	i, ok := l.bySess[sessionID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	e := l.entries[i]
	return &e, nil
}

// List returns entries newest first. A limit of zero or less returns
// everything after offset.
func (l *MemoryLog) List(ctx context.Context, limit, offset int) ([]domain.CookLogEntry, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]domain.CookLogEntry, 0, len(l.entries))
	for i := len(l.entries) - 1; i >= 0; i-- {
		out = append(out, l.entries[i])
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CookedAt.After(out[j].CookedAt)
	})

	if offset < 0 {
		offset = 0
	}
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}
