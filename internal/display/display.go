// Package display provides the terminal UI using Bubble Tea.
//
// The [UI] type manages a persistent session status bar and an input
// prompt at the bottom of the terminal. All application output is
// printed above the rendered area via Program.Println / Printf, so
// concurrent writes from the timer driver never garble the display.
package display

import (
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/hammamikhairi/cookplan/internal/domain"
	"github.com/hammamikhairi/cookplan/internal/engine"
	"github.com/hammamikhairi/cookplan/internal/notify"
)

// ── Styles ───────────────────────────────────────────────────────

var (
	barBg = lipgloss.NewStyle().
		Background(lipgloss.Color("#27272a")).
		Foreground(lipgloss.Color("#a1a1aa"))

	timerRunStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#fde68a"))

	timerDoneStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#fca5a5"))

	timerPendingStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#71717a")).
				Italic(true)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#a1a1aa"))

	sepStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#52525b"))

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#94a3b8"))

	// BannerStyle is the muted slate used for the startup banner.
	BannerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#94a3b8"))

	chatStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#bae6fd"))

	stepStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#bbf7d0"))

	primaryStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#d4d4d8"))

	secondaryStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#71717a"))

	urgentOutputStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#fca5a5"))

	userInputEchoStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#a1a1aa"))
)

const prompt = "cook> "

// ProgressSource supplies the session progress rendered in the status bar.
// *engine.Machine satisfies it.
type ProgressSource interface {
	Progress() engine.Progress
}

// ── UI ───────────────────────────────────────────────────────────

// UI manages the terminal through Bubble Tea.
//
// Call [NewUI] then [UI.Run] (blocking). Other goroutines may
// safely call [UI.Println], [UI.Printf], and read from
// [UI.InputChan] at any time after [UI.WaitReady] returns.
type UI struct {
	program *tea.Program
	inputCh chan string
	readyCh chan struct{}
	quitCh  chan struct{}
	source  atomic.Pointer[sourceBox]
	done    atomic.Bool
}

type sourceBox struct{ ProgressSource }

// NewUI creates the display. Call Run() to start. source may be nil and
// set later with SetSource once a session exists.
func NewUI(source ProgressSource) *UI {
	u := &UI{
		inputCh: make(chan string, 16),
		readyCh: make(chan struct{}),
		quitCh:  make(chan struct{}),
	}
	u.SetSource(source)
	return u
}

// SetSource swaps the progress source shown in the status bar.
func (u *UI) SetSource(source ProgressSource) {
	if source == nil {
		u.source.Store(nil)
		return
	}
	u.source.Store(&sourceBox{source})
}

func (u *UI) progress() (engine.Progress, bool) {
	box := u.source.Load()
	if box == nil {
		return engine.Progress{}, false
	}
	return box.Progress(), true
}

// Println prints a line above the prompt. Thread-safe.
// If the program hasn't started yet, falls back to fmt.Println.
func (u *UI) Println(a ...interface{}) {
	if u.program != nil && !u.done.Load() {
		u.program.Println(a...)
	} else {
		fmt.Println(a...)
	}
}

// Printf prints formatted text above the prompt on its own line. Thread-safe.
func (u *UI) Printf(format string, a ...interface{}) {
	if u.program != nil && !u.done.Load() {
		u.program.Printf(format, a...)
	} else {
		fmt.Printf(format+"\n", a...)
	}
}

// InputChan returns completed user-input lines.
func (u *UI) InputChan() <-chan string { return u.inputCh }

// ── Styled print helpers ─────────────────────────────────────────

// PrintChat prints a conversational assistant line.
func (u *UI) PrintChat(text string) {
	u.Println(chatStyle.Render("  " + text))
}

// PrintStep prints a stage header like "Stage 2/8: Smoke (6h)".
func (u *UI) PrintStep(text string) {
	u.Println(stepStyle.Render("  " + text))
}

// PrintInstruction prints a stage's main instruction text.
func (u *UI) PrintInstruction(text string) {
	u.Println(primaryStyle.Render("  " + text))
}

// PrintHint prints a secondary/dimmed line.
func (u *UI) PrintHint(text string) {
	u.Println(secondaryStyle.Render("  " + text))
}

// PrintUrgent prints an urgent/error line.
func (u *UI) PrintUrgent(text string) {
	u.Println(urgentOutputStyle.Render("  " + text))
}

// PrintUserInput echoes the user's typed command into the scrollback.
func (u *UI) PrintUserInput(text string) {
	u.Println(promptStyle.Render("cook") + secondaryStyle.Render("> ") + userInputEchoStyle.Render(text))
}

// WaitReady blocks until the Bubble Tea event loop is running.
func (u *UI) WaitReady() { <-u.readyCh }

// Quit tells Bubble Tea to exit.
func (u *UI) Quit() {
	if u.program != nil {
		u.program.Quit()
	}
}

// QuitChan is closed when Run returns.
func (u *UI) QuitChan() <-chan struct{} { return u.quitCh }

// Run starts the Bubble Tea event loop. Blocks until quit.
func (u *UI) Run() error {
	ti := textinput.New()
	// Plain-text prompt keeps the textinput width math correct; styled
	// prompts add ANSI bytes that break its offset calculations.
	ti.Prompt = prompt
	ti.PromptStyle = promptStyle
	ti.TextStyle = userInputEchoStyle
	ti.Cursor.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#94a3b8"))
	ti.Focus()
	ti.CharLimit = 2000
	ti.Width = 60 // updated on first WindowSizeMsg

	m := model{
		progress: u.progress,
		input:    ti,
		inputCh:  u.inputCh,
		readyCh:  u.readyCh,
		echoFn: func(v string) {
			u.PrintUserInput(v)
		},
	}

	u.program = tea.NewProgram(m)
	_, err := u.program.Run()
	u.done.Store(true)
	close(u.quitCh)
	return err
}

// ── Bubble Tea model ─────────────────────────────────────────────

type model struct {
	progress func() (engine.Progress, bool)
	input    textinput.Model
	inputCh  chan<- string
	readyCh  chan struct{}
	echoFn   func(string)
	bar      []segment
	title    string
	width    int
}

// segment is one cell of the status bar.
type segment struct {
	label string
	value string
	kind  segmentKind
}

type segmentKind int

const (
	segNormal segmentKind = iota
	segRunning
	segAlert
	segMuted
)

type tickMsg time.Time

func (m model) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		tickCmd(),
		signalReady(m.readyCh),
	)
}

func signalReady(ch chan struct{}) tea.Cmd {
	return func() tea.Msg {
		close(ch)
		return nil
	}
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC:
			return m, tea.Quit
		case tea.KeyEnter:
			v := m.input.Value()
			m.input.Reset()
			if strings.TrimSpace(v) != "" {
				m.inputCh <- v
				// Echo from a Cmd so it runs outside Update.
				echoFn := m.echoFn
				return m, func() tea.Msg {
					echoFn(v)
					return nil
				}
			}
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		if msg.Width > len(prompt) {
			m.input.Width = msg.Width - len(prompt)
		}
		return m, nil

	case tickMsg:
		m.refresh()
		return m, tea.Batch(tickCmd(), tea.SetWindowTitle(m.title))
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *model) refresh() {
	p, ok := m.progress()
	if !ok {
		m.bar = nil
		m.title = "cookplan"
		return
	}
	m.bar = statusSegments(p)
	m.title = titleFor(p)
}

// statusSegments lays out the status bar for a session.
func statusSegments(p engine.Progress) []segment {
	segs := []segment{{label: p.Title, kind: segNormal}}

	switch p.Status {
	case domain.SessionNotStarted:
		segs = append(segs, segment{label: "not started", kind: segMuted})
	case domain.SessionPaused:
		segs = append(segs, segment{label: "PAUSED", kind: segAlert})
	case domain.SessionCompleted:
		segs = append(segs, segment{label: "DONE!", kind: segAlert})
	case domain.SessionAbandoned:
		segs = append(segs, segment{label: "abandoned", kind: segMuted})
	}

	if p.Active != nil {
		s := segment{label: p.Active.Key + ": ", kind: segRunning}
		switch {
		case p.Timed:
			s.value = notify.FormatDuration(p.Remaining) + " left"
		case p.Active.Trigger == domain.TriggerTemperatureReached && p.Active.TargetTemperatureF != nil:
			s.value = fmt.Sprintf("to %.0fF", *p.Active.TargetTemperatureF)
		default:
			s.value = notify.FormatDuration(p.Elapsed)
		}
		if p.Status == domain.SessionPaused {
			s.kind = segMuted
		}
		segs = append(segs, s)
	}

	segs = append(segs, segment{label: fmt.Sprintf("%d/%d", p.Done(), p.Total), kind: segNormal})
	if len(p.UpNext) > 0 {
		segs = append(segs, segment{label: "next: " + strings.Join(p.UpNext, ", "), kind: segMuted})
	}
	return segs
}

func titleFor(p engine.Progress) string {
	if p.Active == nil {
		return fmt.Sprintf("cookplan | %s | %s", p.Title, p.Status)
	}
	if p.Timed {
		return fmt.Sprintf("cookplan | %s: %s", p.Active.Key, notify.FormatDuration(p.Remaining))
	}
	return fmt.Sprintf("cookplan | %s", p.Active.Key)
}

func (m model) View() string {
	var b strings.Builder

	if len(m.bar) > 0 {
		b.WriteString(m.renderBar())
		b.WriteByte('\n')
	}

	// Blank line before prompt for visual separation.
	b.WriteByte('\n')
	b.WriteString(m.input.View())
	return b.String()
}

func (m model) renderBar() string {
	parts := make([]string, 0, len(m.bar))
	for _, s := range m.bar {
		switch s.kind {
		case segRunning:
			parts = append(parts, labelStyle.Render(s.label)+timerRunStyle.Render(s.value))
		case segAlert:
			parts = append(parts, timerDoneStyle.Render(s.label+s.value))
		case segMuted:
			parts = append(parts, timerPendingStyle.Render(s.label+s.value))
		default:
			parts = append(parts, labelStyle.Render(s.label+s.value))
		}
	}

	content := " " + strings.Join(parts, sepStyle.Render("  │  ")) + " "

	w := m.width
	if w <= 0 {
		w = 80
	}
	return barBg.Width(w).Render(content)
}
