package domain

import "time"

// NotificationKind classifies an event surfaced to the user.
type NotificationKind int

const (
	NotifyStageStarted NotificationKind = iota
	NotifyStageCompleted
	NotifyStageSkipped
	NotifyActionRequired
	NotifySessionCompleted
	NotifySessionAbandoned
	// NotifyReminder repeats an ActionRequired while the stage keeps waiting.
	NotifyReminder
	// NotifyAlmostDone warns that a timed stage is about to complete.
	NotifyAlmostDone
	// NotifyIdle nudges the user about a long pause.
	NotifyIdle
)

// String returns a human-readable notification kind.
func (k NotificationKind) String() string {
	switch k {
	case NotifyStageStarted:
		return "stage_started"
	case NotifyStageCompleted:
		return "stage_completed"
	case NotifyStageSkipped:
		return "stage_skipped"
	case NotifyActionRequired:
		return "action_required"
	case NotifySessionCompleted:
		return "session_completed"
	case NotifySessionAbandoned:
		return "session_abandoned"
	case NotifyReminder:
		return "reminder"
	case NotifyAlmostDone:
		return "almost_done"
	case NotifyIdle:
		return "idle"
	default:
		return "unknown"
	}
}

// Notification is one event for the presentation layer.
type Notification struct {
	Kind               NotificationKind
	StageKey           string
	Instruction        string
	Trigger            Trigger
	TargetTemperatureF *float64
	Remaining          time.Duration // almost-done and idle notifications
	Escalation         int           // reminders only
}

// Urgent reports whether the notification needs the user's attention now.
func (n Notification) Urgent() bool {
	return n.Kind == NotifyActionRequired || n.Kind == NotifyReminder
}
