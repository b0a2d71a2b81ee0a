package notify

import (
	"context"
	"fmt"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/hammamikhairi/cookplan/internal/domain"
	"github.com/hammamikhairi/cookplan/internal/logger"
)

// Compile-time interface checks.
var (
	_ domain.Notifier = (*CLINotifier)(nil)
	_ domain.Notifier = (*Recorder)(nil)
)

var (
	normalStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14"))
	urgentStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	doneStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
)

// PrintFunc is a function used to print formatted output.
// Matches the signature of both fmt.Printf and display.UI.Printf.
type PrintFunc func(format string, a ...any)

// CLINotifier writes notifications to the terminal.
type CLINotifier struct {
	log     *logger.Logger
	printFn PrintFunc
}

// NewCLINotifier creates a terminal notifier.
// If printFn is nil, fmt.Printf is used.
func NewCLINotifier(log *logger.Logger, printFn PrintFunc) *CLINotifier {
	if printFn == nil {
		printFn = func(format string, a ...any) {
			fmt.Printf(format+"\n", a...)
		}
	}
	return &CLINotifier{log: log, printFn: printFn}
}

// Notify prints one notification. Urgent ones are rendered in red.
func (c *CLINotifier) Notify(ctx context.Context, n domain.Notification) error {
	msg := Message(n)
	c.log.Debug("notify %s: %s", n.Kind, msg)

	style := normalStyle
	switch {
	case n.Urgent():
		style = urgentStyle
	case n.Kind == domain.NotifyStageCompleted || n.Kind == domain.NotifySessionCompleted:
		style = doneStyle
	}
	c.printFn("%s", style.Render(msg))
	return nil
}

// Recorder keeps every notification in memory. Useful for tests and for
// replaying the last events in a status view.
type Recorder struct {
	mu  sync.Mutex
	got []domain.Notification
}

// Notify records n.
func (r *Recorder) Notify(ctx context.Context, n domain.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, n)
	return nil
}

// All returns a copy of the recorded notifications.
func (r *Recorder) All() []domain.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.Notification(nil), r.got...)
}

// Kinds returns the recorded notification kinds in order.
func (r *Recorder) Kinds() []domain.NotificationKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.NotificationKind, len(r.got))
	for i, n := range r.got {
		out[i] = n.Kind
	}
	return out
}

// Reset drops everything recorded so far.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = nil
}
