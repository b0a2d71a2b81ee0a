package conversation

// lines.go centralises every reply the cook session prints. Keep lines
// short and direct.

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/hammamikhairi/cookplan/internal/domain"
	"github.com/hammamikhairi/cookplan/internal/notify"
)

// ── Greeting / Global ────────────────────────────────────────────

func LineWelcome(title string, stages int) string {
	return fmt.Sprintf("%s: %d stages. Type start when you're ready.", title, stages)
}

func LineResumedSession(title string, status domain.SessionStatus) string {
	return fmt.Sprintf("Picked up %s where you left it (%s).", title, status)
}

func LineBye() string {
	return "Bye."
}

func LineSavedForLater(id string) string {
	return fmt.Sprintf("Session saved. Resume with: cookplan cook --resume %s", id)
}

func LineUnknown(input string) string {
	return fmt.Sprintf("Didn't catch that: %s. Type help for commands.", input)
}

// ── Session control ──────────────────────────────────────────────

func LineAlreadyStarted() string {
	return "Already cooking."
}

func LineNotStarted() string {
	return "Not started yet. Type start."
}

func LinePaused() string {
	return "Paused. Stage clocks are on hold. Type resume when ready."
}

func LineNotPaused() string {
	return "Session isn't paused."
}

func LineIsPaused() string {
	return "Session is paused. Type resume first."
}

func LineResumed() string {
	return "Resumed."
}

func LineAbandoned() string {
	return "Session abandoned. You can still rate it and save."
}

func LineSessionOver(status domain.SessionStatus) string {
	return fmt.Sprintf("This session is %s.", status)
}

// ── Stages ───────────────────────────────────────────────────────

// LineWaitTimer tells the user a timed stage cannot be advanced by hand.
func LineWaitTimer(key string, remaining string) string {
	return fmt.Sprintf("%s finishes on its own in %s. Type skip to cut it short.", key, remaining)
}

// LineWaitTemperature tells the user which probe reading the stage needs.
func LineWaitTemperature(key string, target float64) string {
	return fmt.Sprintf("%s is done at %.0fF. Report readings with temp <value>.", key, target)
}

func LineNotTemperatureStage() string {
	return "The current stage isn't waiting on a temperature."
}

func LineBelowTarget(reading, target float64) string {
	return fmt.Sprintf("%.1fF. Not there yet, target is %.0fF.", reading, target)
}

func LineBadNumber(input string) string {
	return fmt.Sprintf("%q isn't a number.", input)
}

func LineNothingActive() string {
	return "No stage is active."
}

// LineStage describes a stage for the repeat and status commands.
func LineStage(order, total int, st domain.Stage) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Stage %d/%d: %s", order, total, st.Key)
	switch st.Trigger {
	case domain.TriggerTimeElapsed:
		if d, ok := st.ExpectedDuration(); ok {
			fmt.Fprintf(&b, " (%s)", notify.FormatDuration(d))
		}
	case domain.TriggerTemperatureReached:
		if st.TargetTemperatureF != nil {
			fmt.Fprintf(&b, " (to %.0fF)", *st.TargetTemperatureF)
		}
	case domain.TriggerManualAdvance:
		b.WriteString(" (type next when done)")
	}
	return b.String()
}

// ── Feedback ─────────────────────────────────────────────────────

func LineFeedbackHint() string {
	return "Rate it with rate 1-5, add note / worked / improve, then save."
}

func LineRated(r int) string {
	return fmt.Sprintf("Rated %d/5.", r)
}

func LineNoted(field string) string {
	return fmt.Sprintf("Got it (%s).", field)
}

func LineSaved(minutes int) string {
	return fmt.Sprintf("Saved to your cook log: %d min of cooking.", minutes)
}

func LineAlreadySaved() string {
	return "Already in your cook log."
}

func LineFinishFirst() string {
	return "Finish or abandon the session before saving."
}

// ── Fillers ──────────────────────────────────────────────────────

var generatingFillers = []string{
	"Drafting a plan.",
	"Working out the stages.",
	"One moment, planning the cook.",
	"Hang on, building the timeline.",
}

// LineGenerating returns a random filler shown while a plan is generated.
func LineGenerating() string {
	return generatingFillers[rand.Intn(len(generatingFillers))]
}
