package notify

import (
	"fmt"
	"time"

	"github.com/hammamikhairi/cookplan/internal/domain"
)

// Message renders a notification as a single line of user-facing text.
func Message(n domain.Notification) string {
	switch n.Kind {
	case domain.NotifyStageStarted:
		return fmt.Sprintf("Now: %s", label(n))
	case domain.NotifyStageCompleted:
		return fmt.Sprintf("Done: %s", label(n))
	case domain.NotifyStageSkipped:
		return fmt.Sprintf("Skipped: %s", label(n))
	case domain.NotifyActionRequired:
		return actionText(n)
	case domain.NotifyReminder:
		return fmt.Sprintf("Reminder #%d: %s", n.Escalation, actionText(n))
	case domain.NotifyAlmostDone:
		return fmt.Sprintf("Almost done: %s (%s left)", label(n), FormatDuration(n.Remaining))
	case domain.NotifyIdle:
		return fmt.Sprintf("Still paused after %s. Type \"resume\" to continue or \"abandon\" to stop.", FormatDuration(n.Remaining))
	case domain.NotifySessionCompleted:
		return "All stages done. Rate the cook with \"rate 1-5\", then \"save\"."
	case domain.NotifySessionAbandoned:
		return "Session abandoned. Add notes if you like, then \"save\"."
	default:
		return n.Kind.String()
	}
}

func label(n domain.Notification) string {
	if n.Instruction != "" {
		return n.Instruction
	}
	return n.StageKey
}

func actionText(n domain.Notification) string {
	if n.Trigger == domain.TriggerTemperatureReached && n.TargetTemperatureF != nil {
		return fmt.Sprintf("Waiting for %.0fF on %q. Enter a reading with \"temp N\".", *n.TargetTemperatureF, n.StageKey)
	}
	return fmt.Sprintf("Your turn: %s. Type \"next\" when done.", label(n))
}

// FormatDuration renders a duration as a short human-readable string.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	d = d.Round(time.Second)
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60

	switch {
	case h > 0:
		return fmt.Sprintf("%dh%02dm", h, m)
	case m > 0 && s > 0:
		return fmt.Sprintf("%dm%02ds", m, s)
	case m > 0:
		return fmt.Sprintf("%dm", m)
	default:
		return fmt.Sprintf("%ds", s)
	}
}
