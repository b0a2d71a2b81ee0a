package engine

import (
	"time"

	"github.com/hammamikhairi/cookplan/internal/domain"
)

// Progress is a read-only view of a session for status displays.
type Progress struct {
	SessionID string
	Title     string
	Status    domain.SessionStatus
	Active    *domain.Stage
	Elapsed   time.Duration // pause-adjusted time in the active stage
	Remaining time.Duration // only meaningful when Timed
	Timed     bool
	Completed int
	Skipped   int
	Total     int
	UpNext    []string
}

// Progress computes the current progress from the latest snapshot.
func (m *Machine) Progress() Progress {
	return ProgressOf(m.plan, m.Snapshot(), m.clock.Now())
}

// ProgressOf computes progress for a session at the given instant.
func ProgressOf(plan *domain.CookPlan, s *domain.CookSession, now time.Time) Progress {
	p := Progress{
		SessionID: s.ID,
		Title:     plan.Title,
		Status:    s.Status,
		Total:     plan.Len(),
	}
	for _, rt := range s.StageStates {
		switch rt.Status {
		case domain.StageCompleted:
			p.Completed++
		case domain.StageSkipped:
			p.Skipped++
		}
	}

	if st, _, ok := plan.Stage(s.ActiveStageKey); ok {
		active := st
		p.Active = &active
		p.Elapsed = stageElapsed(s, s.StageStates[st.Key], now)
		if d, ok := st.ExpectedDuration(); ok && st.Trigger == domain.TriggerTimeElapsed {
			p.Timed = true
			p.Remaining = d - p.Elapsed
			if p.Remaining < 0 {
				p.Remaining = 0
			}
		}
	}
	if s.Status.IsLive() {
		p.UpNext = Eligible(plan, s)
	}
	return p
}

// Done returns the number of resolved stages.
func (p Progress) Done() int { return p.Completed + p.Skipped }
