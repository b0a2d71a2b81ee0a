// Package engine implements the cook session state machine.
//
// A Machine owns one session for one plan. Every mutating operation is
// serialized, works on a private clone of the current snapshot and either
// publishes the transitioned clone or returns the untouched current snapshot
// with an error. Readers call Snapshot at any time without locking.
package engine

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hammamikhairi/cookplan/internal/domain"
	"github.com/hammamikhairi/cookplan/internal/logger"
)

// ErrSnapshotMismatch is returned by Restore when a persisted session does
// not fit the plan stored next to it.
var ErrSnapshotMismatch = errors.New("snapshot does not match plan")

// Option configures the machine.
type Option func(*Machine)

// WithSessionID sets the id of the new session instead of generating one.
func WithSessionID(id string) Option {
	return func(m *Machine) {
		m.sessionID = id
	}
}

// Machine drives a single cook session. It depends only on the plan, a clock
// and a logger, and is fully testable with clock.Fake.
type Machine struct {
	plan      *domain.CookPlan
	clock     domain.Clock
	log       *logger.Logger
	sessionID string

	mu    sync.Mutex // serializes writers
	state atomic.Pointer[domain.CookSession]
}

// New creates a machine holding a NotStarted session for plan.
func New(plan *domain.CookPlan, clock domain.Clock, log *logger.Logger, opts ...Option) *Machine {
	m := &Machine{
		plan:  plan,
		clock: clock,
		log:   log,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.sessionID == "" {
		m.sessionID = generateID()
	}
	m.state.Store(domain.NewCookSession(m.sessionID, plan))
	return m
}

// Restore rebuilds a machine from a persisted snapshot.
func Restore(snap *domain.Snapshot, clock domain.Clock, log *logger.Logger) (*Machine, error) {
	if snap == nil || snap.Plan == nil || snap.Session == nil {
		return nil, fmt.Errorf("%w: incomplete snapshot", ErrSnapshotMismatch)
	}
	if err := checkSnapshot(snap.Plan, snap.Session); err != nil {
		return nil, err
	}
	m := &Machine{
		plan:      snap.Plan,
		clock:     clock,
		log:       log,
		sessionID: snap.Session.ID,
	}
	m.state.Store(snap.Session.Clone())
	log.Info("restored session %s (status=%s, active=%q)", snap.Session.ID, snap.Session.Status, snap.Session.ActiveStageKey)
	return m, nil
}

func checkSnapshot(plan *domain.CookPlan, s *domain.CookSession) error {
	if s.PlanID != plan.ID {
		return fmt.Errorf("%w: session plan %q, stored plan %q", ErrSnapshotMismatch, s.PlanID, plan.ID)
	}
	if len(s.StageStates) != plan.Len() {
		return fmt.Errorf("%w: %d stage states for %d stages", ErrSnapshotMismatch, len(s.StageStates), plan.Len())
	}
	for _, st := range plan.Stages {
		if _, ok := s.StageStates[st.Key]; !ok {
			return fmt.Errorf("%w: no state for stage %q", ErrSnapshotMismatch, st.Key)
		}
	}
	if n := s.ActiveCount(); n > 1 {
		return fmt.Errorf("%w: %d active stages", ErrSnapshotMismatch, n)
	}
	if s.ActiveStageKey != "" && s.StageStates[s.ActiveStageKey].Status != domain.StageActive {
		return fmt.Errorf("%w: active key %q is not active", ErrSnapshotMismatch, s.ActiveStageKey)
	}
	return nil
}

// Plan returns the plan this machine executes.
func (m *Machine) Plan() *domain.CookPlan { return m.plan }

// Clock returns the clock the machine reads time from.
func (m *Machine) Clock() domain.Clock { return m.clock }

// Snapshot returns the latest committed session. The returned value is
// shared; callers must treat it as read-only.
func (m *Machine) Snapshot() *domain.CookSession { return m.state.Load() }

// Start activates the first eligible stage. Only valid from NotStarted.
func (m *Machine) Start() (*domain.CookSession, error) {
	return m.apply("start", func(s *domain.CookSession, now time.Time) (bool, error) {
		if s.Status != domain.SessionNotStarted {
			return false, &domain.TransitionError{Kind: domain.ErrAlreadyStarted, Op: "start", Status: s.Status}
		}
		s.Status = domain.SessionRunning
		activateNext(m.plan, s, now)
		return true, nil
	})
}

// Tick completes the active stage if it is timed and its pause-adjusted
// elapsed time has reached the expected duration, then cascades. Outside
// Running it does nothing.
func (m *Machine) Tick() (*domain.CookSession, error) {
	return m.apply("tick", func(s *domain.CookSession, now time.Time) (bool, error) {
		if s.Status != domain.SessionRunning {
			return false, nil
		}
		changed := false
		// Bounded so zero-length stages can chain without looping forever.
		for i := 0; i < m.plan.Len() && timedOut(m.plan, s, now); i++ {
			resolveActive(m.plan, s, domain.StageCompleted, now)
			changed = true
		}
		return changed, nil
	})
}

// RecordTemperature feeds a probe reading to the active temperature stage.
// A reading at or above the target completes the stage; a lower reading
// leaves the session unchanged.
func (m *Machine) RecordTemperature(value float64) (*domain.CookSession, error) {
	const op = "record temperature"
	return m.apply(op, func(s *domain.CookSession, now time.Time) (bool, error) {
		if math.IsNaN(value) || math.IsInf(value, 0) {
			return false, &domain.ValidationError{Field: "temperature", Value: value, Message: "must be a finite number"}
		}
		st, err := m.activeWithTrigger(op, s, domain.TriggerTemperatureReached)
		if err != nil {
			return false, err
		}
		if value < *st.TargetTemperatureF {
			m.log.Debug("session %s: %s at %.1fF, target %.1fF", s.ID, st.Key, value, *st.TargetTemperatureF)
			return false, nil
		}
		resolveActive(m.plan, s, domain.StageCompleted, now)
		return true, nil
	})
}

// AdvanceManually completes the active manual stage.
func (m *Machine) AdvanceManually() (*domain.CookSession, error) {
	const op = "advance"
	return m.apply(op, func(s *domain.CookSession, now time.Time) (bool, error) {
		if _, err := m.activeWithTrigger(op, s, domain.TriggerManualAdvance); err != nil {
			return false, err
		}
		resolveActive(m.plan, s, domain.StageCompleted, now)
		return true, nil
	})
}

// Skip marks a Pending or Active stage as Skipped. Skipping the active stage
// runs the activation cascade. Skipped satisfies dependents exactly like
// Completed, so a skip never blocks downstream stages.
func (m *Machine) Skip(key string) (*domain.CookSession, error) {
	const op = "skip"
	return m.apply(op, func(s *domain.CookSession, now time.Time) (bool, error) {
		if err := requireRunning(op, s); err != nil {
			return false, err
		}
		if _, _, ok := m.plan.Stage(key); !ok {
			return false, &domain.TransitionError{Kind: domain.ErrInvalidTransition, Op: op, Status: s.Status, Msg: fmt.Sprintf("unknown stage %q", key)}
		}
		rt := s.StageStates[key]
		switch rt.Status {
		case domain.StageActive:
			resolveActive(m.plan, s, domain.StageSkipped, now)
		case domain.StagePending:
			rt.Status = domain.StageSkipped
			rt.CompletedAt = now
			s.StageStates[key] = rt
		default:
			return false, &domain.TransitionError{Kind: domain.ErrInvalidTransition, Op: op, Status: s.Status, Msg: fmt.Sprintf("stage %q is already %s", key, rt.Status)}
		}
		return true, nil
	})
}

// SkipActive skips whatever stage is currently active.
func (m *Machine) SkipActive() (*domain.CookSession, error) {
	key := m.Snapshot().ActiveStageKey
	if key == "" {
		s := m.Snapshot()
		err := &domain.TransitionError{Kind: domain.ErrInvalidTransition, Op: "skip", Status: s.Status, Msg: "no active stage"}
		m.log.Warn("session %s: skip rejected: %v", s.ID, err)
		return s, err
	}
	return m.Skip(key)
}

// Pause freezes every stage clock.
func (m *Machine) Pause() (*domain.CookSession, error) {
	return m.apply("pause", func(s *domain.CookSession, now time.Time) (bool, error) {
		if s.Status != domain.SessionRunning {
			return false, &domain.TransitionError{Kind: domain.ErrInvalidTransition, Op: "pause", Status: s.Status}
		}
		s.Status = domain.SessionPaused
		s.PausedAt = now
		return true, nil
	})
}

// Resume restarts the stage clocks and adds the paused interval to the
// accumulated pause.
func (m *Machine) Resume() (*domain.CookSession, error) {
	return m.apply("resume", func(s *domain.CookSession, now time.Time) (bool, error) {
		if s.Status != domain.SessionPaused {
			return false, &domain.TransitionError{Kind: domain.ErrInvalidTransition, Op: "resume", Status: s.Status}
		}
		closePause(s, now)
		s.Status = domain.SessionRunning
		return true, nil
	})
}

// Abandon ends the session early, freezing its runtime state for optional
// finalization.
func (m *Machine) Abandon() (*domain.CookSession, error) {
	return m.apply("abandon", func(s *domain.CookSession, now time.Time) (bool, error) {
		if !s.Status.IsLive() {
			return false, &domain.TransitionError{Kind: domain.ErrInvalidTransition, Op: "abandon", Status: s.Status}
		}
		if s.Status == domain.SessionPaused {
			closePause(s, now)
		}
		s.Status = domain.SessionAbandoned
		s.EndedAt = now
		return true, nil
	})
}

func closePause(s *domain.CookSession, now time.Time) {
	if d := now.Sub(s.PausedAt); d > 0 && !s.PausedAt.IsZero() {
		s.AccumulatedPause += d
	}
	s.PausedAt = time.Time{}
}

func requireRunning(op string, s *domain.CookSession) error {
	if s.Status != domain.SessionRunning {
		return &domain.TransitionError{Kind: domain.ErrInvalidTransition, Op: op, Status: s.Status}
	}
	return nil
}

// activeWithTrigger returns the active stage if the session is running and
// the stage completes by the given trigger.
func (m *Machine) activeWithTrigger(op string, s *domain.CookSession, want domain.Trigger) (domain.Stage, error) {
	if err := requireRunning(op, s); err != nil {
		return domain.Stage{}, err
	}
	st, _, ok := m.plan.Stage(s.ActiveStageKey)
	if !ok || st.Trigger != want {
		return domain.Stage{}, &domain.TransitionError{
			Kind:   domain.ErrInvalidTransition,
			Op:     op,
			Status: s.Status,
			Msg:    fmt.Sprintf("active stage %q is not a %s stage", s.ActiveStageKey, want),
		}
	}
	return st, nil
}

// apply runs fn against a clone of the current snapshot. On error the
// current snapshot is returned unchanged; when fn reports no change nothing
// is published.
func (m *Machine) apply(op string, fn func(s *domain.CookSession, now time.Time) (bool, error)) (*domain.CookSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cur := m.state.Load()
	next := cur.Clone()
	now := m.clock.Now()

	changed, err := fn(next, now)
	if err != nil {
		m.log.Warn("session %s: %s rejected: %v", cur.ID, op, err)
		return cur, err
	}
	if !changed {
		return cur, nil
	}

	next.Version = cur.Version + 1
	next.UpdatedAt = now
	m.state.Store(next)

	m.log.Debug("session %s: %s -> status=%s active=%q v%d", next.ID, op, next.Status, next.ActiveStageKey, next.Version)
	return next, nil
}
