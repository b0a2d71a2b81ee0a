// Package notify decides which events a session transition produces and
// delivers them to the terminal.
package notify

import (
	"github.com/hammamikhairi/cookplan/internal/domain"
)

// Evaluate diffs two snapshots of the same session and returns the events the
// transition produced. prev may be nil for a session that was never
// observed. Evaluate is pure: the same pair always yields the same events, and
// a pair of identical snapshots yields none.
//
// Events are ordered stage resolutions first (plan order), then activations,
// each followed by ActionRequired when the new stage waits on the user, then
// the session-level outcome.
func Evaluate(plan *domain.CookPlan, prev, next *domain.CookSession) []domain.Notification {
	if plan == nil || next == nil {
		return nil
	}

	before := func(key string) domain.StageStatus {
		if prev == nil {
			return domain.StagePending
		}
		return prev.StageStates[key].Status
	}

	var out []domain.Notification

	for _, st := range plan.Stages {
		was, now := before(st.Key), next.StageStates[st.Key].Status
		if was == now {
			continue
		}
		switch now {
		case domain.StageCompleted:
			out = append(out, stageEvent(domain.NotifyStageCompleted, st))
		case domain.StageSkipped:
			out = append(out, stageEvent(domain.NotifyStageSkipped, st))
		}
	}

	for _, st := range plan.Stages {
		if next.StageStates[st.Key].Status != domain.StageActive || before(st.Key) == domain.StageActive {
			continue
		}
		out = append(out, stageEvent(domain.NotifyStageStarted, st))
		if st.RequiresAction() {
			out = append(out, stageEvent(domain.NotifyActionRequired, st))
		}
	}

	var prevStatus domain.SessionStatus
	if prev != nil {
		prevStatus = prev.Status
	}
	if prevStatus != next.Status {
		switch next.Status {
		case domain.SessionCompleted:
			out = append(out, domain.Notification{Kind: domain.NotifySessionCompleted})
		case domain.SessionAbandoned:
			out = append(out, domain.Notification{Kind: domain.NotifySessionAbandoned})
		}
	}
	return out
}

func stageEvent(kind domain.NotificationKind, st domain.Stage) domain.Notification {
	return domain.Notification{
		Kind:               kind,
		StageKey:           st.Key,
		Instruction:        st.Instruction,
		Trigger:            st.Trigger,
		TargetTemperatureF: st.TargetTemperatureF,
	}
}
