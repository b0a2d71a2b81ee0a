package domain

import (
	"fmt"
	"time"
)

// CookSession is one live execution of a plan. Sessions are treated as
// immutable snapshots: the engine clones, transitions and publishes a new
// value for every committed operation.
type CookSession struct {
	ID               string                  `json:"id"`
	PlanID           string                  `json:"plan_id"`
	RecipeID         *string                 `json:"recipe_id,omitempty"`
	Status           SessionStatus           `json:"status"`
	StageStates      map[string]StageRuntime `json:"stage_states"`
	ActiveStageKey   string                  `json:"active_stage_key,omitempty"`
	AccumulatedPause time.Duration           `json:"accumulated_pause"`
	PausedAt         time.Time               `json:"paused_at"`
	StartedAt        time.Time               `json:"started_at"`
	EndedAt          time.Time               `json:"ended_at"`
	UpdatedAt        time.Time               `json:"updated_at"`
	Version          int                     `json:"version"`
}

// NewCookSession creates a NotStarted session with every stage Pending.
func NewCookSession(id string, plan *CookPlan) *CookSession {
	s := &CookSession{
		ID:          id,
		PlanID:      plan.ID,
		RecipeID:    plan.RecipeID,
		Status:      SessionNotStarted,
		StageStates: make(map[string]StageRuntime, len(plan.Stages)),
	}
	for _, st := range plan.Stages {
		s.StageStates[st.Key] = StageRuntime{Status: StagePending}
	}
	return s
}

// Clone returns a deep copy safe to mutate.
func (s *CookSession) Clone() *CookSession {
	c := *s
	c.StageStates = make(map[string]StageRuntime, len(s.StageStates))
	for k, v := range s.StageStates {
		c.StageStates[k] = v
	}
	return &c
}

// AccumulatedPauseSeconds returns the total paused time in seconds.
func (s *CookSession) AccumulatedPauseSeconds() float64 {
	return s.AccumulatedPause.Seconds()
}

// ActiveCount returns how many stages are Active. Always 0 or 1 for a
// session produced by the engine.
func (s *CookSession) ActiveCount() int {
	n := 0
	for _, rt := range s.StageStates {
		if rt.Status == StageActive {
			n++
		}
	}
	return n
}

// SessionStatus tracks the lifecycle of a cook session.
type SessionStatus int

const (
	SessionNotStarted SessionStatus = iota
	SessionRunning
	SessionPaused
	SessionCompleted
	SessionAbandoned
)

// String returns a human-readable session status.
func (s SessionStatus) String() string {
	switch s {
	case SessionNotStarted:
		return "not_started"
	case SessionRunning:
		return "running"
	case SessionPaused:
		return "paused"
	case SessionCompleted:
		return "completed"
	case SessionAbandoned:
		return "abandoned"
	default:
		return "unknown"
	}
}

// IsTerminal reports whether no further transitions are accepted.
func (s SessionStatus) IsTerminal() bool {
	return s == SessionCompleted || s == SessionAbandoned
}

// IsLive reports whether the session is running or paused.
func (s SessionStatus) IsLive() bool {
	return s == SessionRunning || s == SessionPaused
}

// MarshalText implements encoding.TextMarshaler.
func (s SessionStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *SessionStatus) UnmarshalText(b []byte) error {
	for v := SessionNotStarted; v <= SessionAbandoned; v++ {
		if v.String() == string(b) {
			*s = v
			return nil
		}
	}
	return fmt.Errorf("unknown session status %q", string(b))
}

// StageRuntime tracks the progress of a single stage within a session.
type StageRuntime struct {
	Status      StageStatus `json:"status"`
	StartedAt   time.Time   `json:"started_at"`
	CompletedAt time.Time   `json:"completed_at"`
	// PauseAtStart is the session's accumulated pause when the stage became
	// active; the difference to the current total is the pause overlapping
	// this stage.
	PauseAtStart time.Duration `json:"pause_at_start"`
	// Elapsed is the pause-adjusted active time, set when the stage resolves.
	Elapsed time.Duration `json:"elapsed"`
}

// StageStatus tracks the state of a single stage.
type StageStatus int

const (
	StagePending StageStatus = iota
	StageActive
	StageCompleted
	StageSkipped
)

// String returns a human-readable stage status.
func (s StageStatus) String() string {
	switch s {
	case StagePending:
		return "pending"
	case StageActive:
		return "active"
	case StageCompleted:
		return "completed"
	case StageSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// Resolved reports whether the stage satisfies dependency gating.
func (s StageStatus) Resolved() bool {
	return s == StageCompleted || s == StageSkipped
}

// MarshalText implements encoding.TextMarshaler.
func (s StageStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *StageStatus) UnmarshalText(b []byte) error {
	for v := StagePending; v <= StageSkipped; v++ {
		if v.String() == string(b) {
			*s = v
			return nil
		}
	}
	return fmt.Errorf("unknown stage status %q", string(b))
}

// Snapshot pairs a session with the plan it executes, the unit persisted by
// a SessionStore.
type Snapshot struct {
	Plan    *CookPlan
	Session *CookSession
}
