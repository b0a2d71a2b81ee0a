// Package clock provides the time sources used by the session engine: the
// wall clock for real cooks and a manually advanced fake for tests and
// deterministic replay.
package clock

import (
	"sync"
	"time"

	"github.com/hammamikhairi/cookplan/internal/domain"
)

// Compile-time interface checks.
var (
	_ domain.Clock = Real{}
	_ domain.Clock = (*Fake)(nil)
)

// Real reads the system clock.
type Real struct{}

// Now returns the current wall-clock time.
func (Real) Now() time.Time { return time.Now() }

// Fake is a clock that only moves when told to. Safe for concurrent use.
type Fake struct {
	mu  sync.Mutex
	now time.Time
}

// NewFake returns a fake clock set to start.
func NewFake(start time.Time) *Fake {
	return &Fake{now: start}
}

// Now returns the fake's current time.
func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

// Advance moves the clock forward by d. Negative values are ignored so the
// clock stays monotonic.
func (f *Fake) Advance(d time.Duration) {
	if d <= 0 {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

// Set jumps to t if t is not before the current time.
func (f *Fake) Set(t time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if t.After(f.now) {
		f.now = t
	}
}
