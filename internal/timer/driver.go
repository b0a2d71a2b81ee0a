// Package timer drives a cook session in real time: it ticks the engine,
// dispatches the notifications each transition produces, persists snapshots
// and nags about stages that wait on the user.
package timer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hammamikhairi/cookplan/internal/domain"
	"github.com/hammamikhairi/cookplan/internal/engine"
	"github.com/hammamikhairi/cookplan/internal/logger"
	"github.com/hammamikhairi/cookplan/internal/notify"
)

// Option configures the driver.
type Option func(*Driver)

// WithTickInterval sets how often the driver ticks the engine.
func WithTickInterval(d time.Duration) Option {
	return func(dr *Driver) {
		dr.tickInterval = d
	}
}

// WithReminderInterval sets how long a stage may wait on the user before it
// is announced again. Zero disables reminders.
func WithReminderInterval(d time.Duration) Option {
	return func(dr *Driver) {
		dr.reminderInterval = d
	}
}

// WithMaxEscalation sets the number of reminders after which the driver stops nagging.
func WithMaxEscalation(level int) Option {
	return func(dr *Driver) {
		dr.maxEscalation = level
	}
}

// WithAlmostDoneThreshold sets how close to its end a timed stage must be to
// trigger the "almost done" warning.
func WithAlmostDoneThreshold(d time.Duration) Option {
	return func(dr *Driver) {
		dr.almostDoneThreshold = d
	}
}

// WithStore persists every new snapshot to store.
func WithStore(store domain.SessionStore) Option {
	return func(dr *Driver) {
		dr.store = store
	}
}

// WithWatcher enables the idle watcher with the given options.
func WithWatcher(opts ...WatcherOption) Option {
	return func(dr *Driver) {
		dr.watch = true
		dr.watcherOpts = opts
	}
}

// WithBaseline treats snap as already announced, so a restored session does
// not replay the notifications delivered before it was saved.
func WithBaseline(snap *domain.CookSession) Option {
	return func(dr *Driver) {
		dr.last = snap
	}
}

// waiting tracks the reminder state of the stage currently waiting on the user.
type waiting struct {
	key          string
	lastNotified time.Time
	escalation   int
}

// Driver runs in the background, ticking one machine. Optionally runs a
// Watcher on a slower cycle for pause awareness.
type Driver struct {
	machine             *engine.Machine
	notifier            domain.Notifier
	store               domain.SessionStore
	log                 *logger.Logger
	tickInterval        time.Duration
	reminderInterval    time.Duration
	maxEscalation       int
	almostDoneThreshold time.Duration

	watch       bool
	watcherOpts []WatcherOption
	watcher     *Watcher

	syncMu  sync.Mutex // guards last, wait and warned
	last    *domain.CookSession
	wait    waiting
	warned  map[string]bool
	mu      sync.Mutex // guards running and cancel
	running bool
	cancel  context.CancelFunc
}

// New creates a driver for machine with the given options.
func New(machine *engine.Machine, notifier domain.Notifier, log *logger.Logger, opts ...Option) *Driver {
	d := &Driver{
		machine:             machine,
		notifier:            notifier,
		log:                 log,
		tickInterval:        1 * time.Second,
		reminderInterval:    2 * time.Minute,
		maxEscalation:       3,
		almostDoneThreshold: 30 * time.Second,
		warned:              make(map[string]bool),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.last != nil {
		d.wait = waiting{key: d.last.ActiveStageKey, lastNotified: machine.Clock().Now()}
	}
	return d
}

// Start announces the current state and begins the background loop.
// Non-blocking.
func (d *Driver) Start(ctx context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.running {
		d.log.Warn("tick driver already running")
		return
	}

	childCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	d.running = true

	if err := d.Sync(childCtx); err != nil {
		d.log.Error("driver: initial sync: %v", err)
	}

	go d.loop(childCtx)

	if d.watch {
		d.watcher = NewWatcher(d.machine, d.notifier, d.log, d.watcherOpts...)
		d.watcher.onChange = d.Sync
		go d.watcher.Run(childCtx)
	}

	d.log.Info("tick driver started (tick=%s, reminders=%s)", d.tickInterval, d.reminderInterval)
}

// Stop shuts down the driver and its watcher.
func (d *Driver) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.running {
		return
	}

	d.cancel()
	d.running = false
	d.log.Info("tick driver stopped")
}

func (d *Driver) loop(ctx context.Context) {
	ticker := time.NewTicker(d.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.tick(ctx)
		}
	}
}

// tick runs one cycle: advance the engine, publish what changed, nag.
func (d *Driver) tick(ctx context.Context) {
	if _, err := d.machine.Tick(); err != nil {
		d.log.Error("driver: tick: %v", err)
	}
	if err := d.Sync(ctx); err != nil {
		d.log.Error("driver: %v", err)
	}
	d.remind(ctx)
}

// Sync publishes the machine's latest snapshot: it delivers the
// notifications produced since the last observed snapshot and persists the
// new one. Call it after every user operation. Safe for concurrent use;
// each transition is announced exactly once.
func (d *Driver) Sync(ctx context.Context) error {
	d.syncMu.Lock()
	defer d.syncMu.Unlock()

	cur := d.machine.Snapshot()
	if cur == d.last {
		return nil
	}

	for _, n := range notify.Evaluate(d.machine.Plan(), d.last, cur) {
		if err := d.notifier.Notify(ctx, n); err != nil {
			d.log.Error("driver: notifying %s: %v", n.Kind, err)
		}
	}

	if cur.ActiveStageKey != d.wait.key {
		d.wait = waiting{key: cur.ActiveStageKey, lastNotified: d.machine.Clock().Now()}
	}
	d.last = cur

	if d.store == nil {
		return nil
	}
	if err := d.store.Save(ctx, &domain.Snapshot{Plan: d.machine.Plan(), Session: cur}); err != nil {
		return fmt.Errorf("saving session %s: %w", cur.ID, err)
	}
	return nil
}

// remind re-announces a stage that keeps waiting on the user, escalating up
// to maxEscalation, and warns once when a timed stage is nearly done.
func (d *Driver) remind(ctx context.Context) {
	d.syncMu.Lock()
	defer d.syncMu.Unlock()

	s := d.last
	if s == nil || s.Status != domain.SessionRunning {
		return
	}
	st, _, ok := d.machine.Plan().Stage(s.ActiveStageKey)
	if !ok {
		return
	}
	now := d.machine.Clock().Now()

	if st.RequiresAction() {
		if d.reminderInterval <= 0 || d.wait.escalation >= d.maxEscalation {
			return
		}
		if now.Sub(d.wait.lastNotified) < d.reminderInterval {
			return
		}
		d.wait.escalation++
		d.wait.lastNotified = now
		d.deliver(ctx, domain.Notification{
			Kind:               domain.NotifyReminder,
			StageKey:           st.Key,
			Instruction:        st.Instruction,
			Trigger:            st.Trigger,
			TargetTemperatureF: st.TargetTemperatureF,
			Escalation:         d.wait.escalation,
		})
		return
	}

	total, timed := st.ExpectedDuration()
	if !timed || d.warned[st.Key] || total <= 2*d.almostDoneThreshold {
		return
	}
	p := engine.ProgressOf(d.machine.Plan(), s, now)
	if p.Remaining > 0 && p.Remaining <= d.almostDoneThreshold {
		d.warned[st.Key] = true
		d.deliver(ctx, domain.Notification{
			Kind:        domain.NotifyAlmostDone,
			StageKey:    st.Key,
			Instruction: st.Instruction,
			Trigger:     st.Trigger,
			Remaining:   p.Remaining,
		})
	}
}

func (d *Driver) deliver(ctx context.Context, n domain.Notification) {
	if err := d.notifier.Notify(ctx, n); err != nil {
		d.log.Error("driver: notifying %s: %v", n.Kind, err)
	}
}
