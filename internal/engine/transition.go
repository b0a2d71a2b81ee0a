package engine

import (
	"time"

	"github.com/hammamikhairi/cookplan/internal/domain"
)

// Eligible returns the keys of Pending stages whose dependencies are all
// Completed or Skipped, in plan order. It is a pure function of its inputs.
func Eligible(plan *domain.CookPlan, s *domain.CookSession) []string {
	var out []string
	for _, st := range plan.Stages {
		if s.StageStates[st.Key].Status != domain.StagePending {
			continue
		}
		ready := true
		for _, dep := range st.DependsOn {
			if !s.StageStates[dep].Status.Resolved() {
				ready = false
				break
			}
		}
		if ready {
			out = append(out, st.Key)
		}
	}
	return out
}

// activateNext activates the first eligible stage by plan index, or
// completes the session when nothing is left to run.
func activateNext(plan *domain.CookPlan, s *domain.CookSession, now time.Time) {
	eligible := Eligible(plan, s)
	if len(eligible) == 0 {
		s.ActiveStageKey = ""
		s.Status = domain.SessionCompleted
		s.EndedAt = now
		return
	}

	key := eligible[0]
	rt := s.StageStates[key]
	rt.Status = domain.StageActive
	rt.StartedAt = now
	rt.PauseAtStart = s.AccumulatedPause
	s.StageStates[key] = rt
	s.ActiveStageKey = key

	if s.StartedAt.IsZero() {
		s.StartedAt = now
	}
}

// resolveActive closes the active stage with the given status (Completed or
// Skipped) and runs the activation cascade.
func resolveActive(plan *domain.CookPlan, s *domain.CookSession, status domain.StageStatus, now time.Time) {
	key := s.ActiveStageKey
	rt := s.StageStates[key]
	rt.Elapsed = stageElapsed(s, rt, now)
	rt.Status = status
	rt.CompletedAt = now
	s.StageStates[key] = rt
	s.ActiveStageKey = ""

	activateNext(plan, s, now)
}

// stageElapsed is the time a stage has been active, excluding any pause that
// overlapped it. While the session is paused the clock is frozen at the
// moment the pause began.
func stageElapsed(s *domain.CookSession, rt domain.StageRuntime, now time.Time) time.Duration {
	if rt.StartedAt.IsZero() {
		return 0
	}
	end := now
	switch {
	case s.Status == domain.SessionPaused && !s.PausedAt.IsZero():
		end = s.PausedAt
	case s.Status.IsTerminal() && !s.EndedAt.IsZero():
		end = s.EndedAt
	}
	d := end.Sub(rt.StartedAt) - (s.AccumulatedPause - rt.PauseAtStart)
	if d < 0 {
		return 0
	}
	return d
}

// timedOut reports whether the active stage is a timed stage whose expected
// duration has elapsed.
func timedOut(plan *domain.CookPlan, s *domain.CookSession, now time.Time) bool {
	if s.ActiveStageKey == "" {
		return false
	}
	st, _, ok := plan.Stage(s.ActiveStageKey)
	if !ok || st.Trigger != domain.TriggerTimeElapsed {
		return false
	}
	want, ok := st.ExpectedDuration()
	if !ok {
		return false
	}
	return stageElapsed(s, s.StageStates[st.Key], now) >= want
}
