package timer

import (
	"context"
	"time"

	"github.com/hammamikhairi/cookplan/internal/domain"
	"github.com/hammamikhairi/cookplan/internal/engine"
	"github.com/hammamikhairi/cookplan/internal/logger"
)

// WatcherOption configures the watcher.
type WatcherOption func(*Watcher)

// WithWatchInterval sets how often the watcher checks session state.
func WithWatchInterval(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		w.interval = d
	}
}

// WithPauseNudge sets how long a pause may last before the user is nudged,
// and how often the nudge repeats. Zero disables nudges.
func WithPauseNudge(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		w.pauseNudge = d
	}
}

// WithAbandonAfter abandons a session that stays paused longer than d.
// Zero (the default) never abandons; the engine itself has no timeout.
func WithAbandonAfter(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		w.abandonAfter = d
	}
}

// Watcher periodically inspects the session for long pauses. Runs on a
// slower cycle than the tick driver (default: 1 minute).
type Watcher struct {
	machine      *engine.Machine
	notifier     domain.Notifier
	log          *logger.Logger
	interval     time.Duration
	pauseNudge   time.Duration
	abandonAfter time.Duration

	lastNudge time.Time
	onChange  func(ctx context.Context) error
}

// NewWatcher creates a watcher with the given dependencies.
func NewWatcher(machine *engine.Machine, notifier domain.Notifier, log *logger.Logger, opts ...WatcherOption) *Watcher {
	w := &Watcher{
		machine:    machine,
		notifier:   notifier,
		log:        log,
		interval:   1 * time.Minute,
		pauseNudge: 10 * time.Minute,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run starts the watcher loop. Blocks until ctx is cancelled.
// Intended to be called as a goroutine.
func (w *Watcher) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.log.Info("watcher started (interval=%s)", w.interval)

	for {
		select {
		case <-ctx.Done():
			w.log.Info("watcher stopped")
			return
		case <-ticker.C:
			w.check(ctx)
		}
	}
}

// check runs one watcher cycle.
func (w *Watcher) check(ctx context.Context) {
	s := w.machine.Snapshot()
	now := w.machine.Clock().Now()

	w.log.Debug("watcher: session=%s status=%s active=%q paused=%s",
		s.ID, s.Status, s.ActiveStageKey, s.AccumulatedPause.Round(time.Second))

	if s.Status != domain.SessionPaused {
		w.lastNudge = time.Time{}
		return
	}
	pausedFor := now.Sub(s.PausedAt)

	if w.abandonAfter > 0 && pausedFor >= w.abandonAfter {
		w.log.Warn("watcher: session %s paused for %s, abandoning", s.ID, pausedFor.Round(time.Second))
		if _, err := w.machine.Abandon(); err != nil {
			return
		}
		if w.onChange != nil {
			if err := w.onChange(ctx); err != nil {
				w.log.Error("watcher: %v", err)
			}
		}
		return
	}

	if w.pauseNudge <= 0 || pausedFor < w.pauseNudge {
		return
	}
	if !w.lastNudge.IsZero() && now.Sub(w.lastNudge) < w.pauseNudge {
		return
	}
	w.lastNudge = now
	if err := w.notifier.Notify(ctx, domain.Notification{
		Kind:      domain.NotifyIdle,
		StageKey:  s.ActiveStageKey,
		Remaining: pausedFor,
	}); err != nil {
		w.log.Error("watcher: notify: %v", err)
	}
}
