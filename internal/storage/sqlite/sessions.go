package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hammamikhairi/cookplan/internal/domain"
	"github.com/hammamikhairi/cookplan/internal/logger"
	"github.com/hammamikhairi/cookplan/internal/plan"
)

// Compile-time interface check.
var _ domain.SessionStore = (*SessionStore)(nil)

// SessionStore implements domain.SessionStore using SQLite. Each row holds
// the plan and the session as JSON so a snapshot round-trips exactly.
type SessionStore struct {
	db  *sql.DB
	log *logger.Logger
}

// NewSessionStore creates a new SQLite-backed SessionStore.
func NewSessionStore(db *DB) *SessionStore {
	return &SessionStore{db: db.SqlDB, log: db.log}
}

// Save inserts or replaces the snapshot for its session id.
func (s *SessionStore) Save(ctx context.Context, snap *domain.Snapshot) error {
	planJSON, err := plan.Encode(snap.Plan, plan.FormatJSON)
	if err != nil {
		return fmt.Errorf("encode plan: %w", err)
	}
	sessJSON, err := json.Marshal(snap.Session)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	sess := snap.Session
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO sessions (id, plan_id, status, plan_json, session_json, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		 plan_id = excluded.plan_id, status = excluded.status,
		 plan_json = excluded.plan_json, session_json = excluded.session_json,
		 updated_at = excluded.updated_at`,
		sess.ID, sess.PlanID, sess.Status.String(), string(planJSON), string(sessJSON), formatTime(sess.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("upsert session: %w", err)
	}
	s.log.Debug("saved session %s (status=%s, v%d)", sess.ID, sess.Status, sess.Version)
	return nil
}

// Load reads the snapshot for a session id.
func (s *SessionStore) Load(ctx context.Context, id string) (*domain.Snapshot, error) {
	var planJSON, sessJSON string
	err := s.db.QueryRowContext(ctx,
		`SELECT plan_json, session_json FROM sessions WHERE id = ?`, id,
	).Scan(&planJSON, &sessJSON)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	return decodeSnapshot(planJSON, sessJSON)
}

// Delete removes a session.
func (s *SessionStore) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM sessions WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListActive returns running and paused sessions, most recently updated first.
func (s *SessionStore) ListActive(ctx context.Context) ([]*domain.Snapshot, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT plan_json, session_json FROM sessions
		 WHERE status IN (?, ?)
		 ORDER BY updated_at DESC`,
		domain.SessionRunning.String(), domain.SessionPaused.String())
	if err != nil {
		return nil, fmt.Errorf("list active sessions: %w", err)
	}
	defer rows.Close()

	var out []*domain.Snapshot
	for rows.Next() {
		var planJSON, sessJSON string
		if err := rows.Scan(&planJSON, &sessJSON); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		snap, err := decodeSnapshot(planJSON, sessJSON)
		if err != nil {
			return nil, err
		}
		out = append(out, snap)
	}
	return out, rows.Err()
}

func decodeSnapshot(planJSON, sessJSON string) (*domain.Snapshot, error) {
	raw, err := plan.Decode([]byte(planJSON), plan.FormatJSON)
	if err != nil {
		return nil, err
	}
	p, err := plan.Load(raw)
	if err != nil {
		return nil, fmt.Errorf("stored plan: %w", err)
	}

	var sess domain.CookSession
	if err := json.Unmarshal([]byte(sessJSON), &sess); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &domain.Snapshot{Plan: p, Session: &sess}, nil
}
