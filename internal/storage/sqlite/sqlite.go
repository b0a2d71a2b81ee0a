// Package sqlite implements durable session and history storage on SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/hammamikhairi/cookplan/internal/logger"
	"github.com/hammamikhairi/cookplan/internal/storage/sqlite/migrations"
)

// timeLayout is used for every stored timestamp. Values are written in UTC
// with a fixed-width fraction so text ordering matches time ordering.
const timeLayout = "2006-01-02 15:04:05.000000000"

// DB wraps the SQLite connection.
type DB struct {
	SqlDB *sql.DB
	log   *logger.Logger
}

// New opens a SQLite database at the given path and configures it for use.
// It enables WAL mode and foreign keys.
func New(dbPath string, log *logger.Logger) (*DB, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	if _, err := db.ExecContext(context.Background(), "PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	// A single connection keeps writes serialized.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	log.Debug("opened sqlite database at %s", dbPath)
	return &DB{SqlDB: db, log: log}, nil
}

// Migrate applies pending schema migrations.
func (d *DB) Migrate(ctx context.Context) error {
	return migrations.Run(ctx, d.SqlDB, d.log)
}

// Close closes the database.
func (d *DB) Close() error {
	return d.SqlDB.Close()
}

// Sessions returns a session store backed by this database.
func (d *DB) Sessions() *SessionStore {
	return NewSessionStore(d)
}

// History returns a cook log backed by this database.
func (d *DB) History() *LogStore {
	return NewLogStore(d)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(timeLayout, s)
}

// isUniqueConstraintError checks if the error is a SQLite unique constraint violation.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed")
}
