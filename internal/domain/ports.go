package domain

import (
	"context"
	"time"
)

// Clock abstracts wall-clock time. Every duration computed by the engine goes
// through a Clock so tests can drive time deterministically.
type Clock interface {
	Now() time.Time
}

// PlanGenerator turns a freeform request into a raw plan. Implementations can
// be an LLM endpoint, a fixed catalog, or anything else; the engine only
// validates the shape of what comes back.
type PlanGenerator interface {
	Generate(ctx context.Context, req PlanRequest) (*RawPlan, error)
}

// PlanCatalog lists stored plans.
type PlanCatalog interface {
	List(ctx context.Context) ([]PlanSummary, error)
	Get(ctx context.Context, id string) (*RawPlan, error)
}

// SessionStore persists session snapshots so a cook can resume across
// process restarts. Implementations can be in-memory or SQLite.
type SessionStore interface {
	Save(ctx context.Context, snap *Snapshot) error
	Load(ctx context.Context, id string) (*Snapshot, error)
	Delete(ctx context.Context, id string) error
	ListActive(ctx context.Context) ([]*Snapshot, error)
}

// LogStore is the append-only cook history. Append returns ErrAlreadyExists
// when an entry for the same session was already recorded.
type LogStore interface {
	Append(ctx context.Context, entry *CookLogEntry) error
	Get(ctx context.Context, sessionID string) (*CookLogEntry, error)
	List(ctx context.Context, limit, offset int) ([]CookLogEntry, error)
}

// IntentParser converts raw user input into structured intents.
type IntentParser interface {
	Parse(ctx context.Context, input string) (*Intent, error)
}

// Notifier delivers notifications to the user.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}
