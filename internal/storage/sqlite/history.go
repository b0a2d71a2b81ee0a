package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/hammamikhairi/cookplan/internal/domain"
	"github.com/hammamikhairi/cookplan/internal/logger"
)

// Compile-time interface check.
var _ domain.LogStore = (*LogStore)(nil)

// LogStore implements domain.LogStore using SQLite. Rows are never updated.
type LogStore struct {
	db  *sql.DB
	log *logger.Logger
}

// NewLogStore creates a new SQLite-backed LogStore.
func NewLogStore(db *DB) *LogStore {
	return &LogStore{db: db.SqlDB, log: db.log}
}

const logColumns = `session_id, recipe_id, plan_title, outcome, cooked_at,
	actual_time_minutes, rating, notes, what_worked, what_to_improve`

// Append inserts an entry. A second entry for the same session returns
// ErrAlreadyExists.
func (l *LogStore) Append(ctx context.Context, e *domain.CookLogEntry) error {
	var recipeID sql.NullString
	if e.RecipeID != nil {
		recipeID = sql.NullString{String: *e.RecipeID, Valid: true}
	}
	var rating sql.NullInt64
	if e.Rating != nil {
		rating = sql.NullInt64{Int64: int64(*e.Rating), Valid: true}
	}

	_, err := l.db.ExecContext(ctx,
		`INSERT INTO cook_log (`+logColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.SessionID, recipeID, e.PlanTitle, e.Outcome.String(), formatTime(e.CookedAt),
		e.ActualTimeMinutes, rating, e.Notes, e.WhatWorked, e.WhatToImprove,
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return domain.ErrAlreadyExists
		}
		return fmt.Errorf("insert cook log: %w", err)
	}
	l.log.Debug("appended cook log for session %s (%s)", e.SessionID, e.Outcome)
	return nil
}

// Get returns the entry for a session.
func (l *LogStore) Get(ctx context.Context, sessionID string) (*domain.CookLogEntry, error) {
	row := l.db.QueryRowContext(ctx,
		`SELECT `+logColumns+` FROM cook_log WHERE session_id = ?`, sessionID)
	e, err := scanEntry(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get cook log: %w", err)
	}
	return e, nil
}

// List returns entries newest first. A limit of zero or less returns
// everything after offset.
func (l *LogStore) List(ctx context.Context, limit, offset int) ([]domain.CookLogEntry, error) {
	if limit <= 0 {
		limit = -1
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := l.db.QueryContext(ctx,
		`SELECT `+logColumns+` FROM cook_log
		 ORDER BY cooked_at DESC, rowid DESC
		 LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list cook log: %w", err)
	}
	defer rows.Close()

	var out []domain.CookLogEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan cook log: %w", err)
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (*domain.CookLogEntry, error) {
	var (
		e        domain.CookLogEntry
		recipeID sql.NullString
		rating   sql.NullInt64
		outcome  string
		cooked   string
	)
	if err := row.Scan(&e.SessionID, &recipeID, &e.PlanTitle, &outcome, &cooked,
		&e.ActualTimeMinutes, &rating, &e.Notes, &e.WhatWorked, &e.WhatToImprove); err != nil {
		return nil, err
	}

	var err error
	if e.Outcome, err = domain.ParseOutcome(outcome); err != nil {
		return nil, err
	}
	if e.CookedAt, err = parseTime(cooked); err != nil {
		return nil, fmt.Errorf("parse cooked_at: %w", err)
	}
	if recipeID.Valid {
		id := recipeID.String
		e.RecipeID = &id
	}
	if rating.Valid {
		r := int(rating.Int64)
		e.Rating = &r
	}
	return &e, nil
}
