package cmd

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/hammamikhairi/cookplan/internal/conversation"
	"github.com/hammamikhairi/cookplan/internal/domain"
	"github.com/hammamikhairi/cookplan/internal/engine"
	"github.com/hammamikhairi/cookplan/internal/finalize"
	"github.com/hammamikhairi/cookplan/internal/logger"
	"github.com/hammamikhairi/cookplan/internal/notify"
)

// output is the slice of the terminal UI the cook loop writes to.
// *display.UI satisfies it.
type output interface {
	Println(a ...interface{})
	PrintChat(text string)
	PrintStep(text string)
	PrintInstruction(text string)
	PrintHint(text string)
	PrintUrgent(text string)
}

// syncer publishes machine changes. *timer.Driver satisfies it.
type syncer interface {
	Sync(ctx context.Context) error
}

// cookApp turns parsed intents into machine operations for one session.
type cookApp struct {
	machine   *engine.Machine
	driver    syncer
	parser    domain.IntentParser
	finalizer *finalize.Finalizer
	history   domain.LogStore
	ui        output
	log       *logger.Logger

	feedback   domain.Feedback
	hintedDone bool
}

// run reads input lines until the channel closes, ctx ends, or the user
// quits.
func (a *cookApp) run(ctx context.Context, input <-chan string) {
	for {
		var line string
		var ok bool
		select {
		case <-ctx.Done():
			return
		case line, ok = <-input:
			if !ok {
				return
			}
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		intent, err := a.parser.Parse(ctx, line)
		if err != nil {
			a.log.Error("parsing input: %v", err)
			continue
		}
		a.log.Debug("intent: %s (payload=%q)", intent.Type, intent.Payload)

		if quit := a.handleIntent(ctx, intent); quit {
			return
		}
	}
}

// handleIntent executes one intent and reports whether the loop should end.
func (a *cookApp) handleIntent(ctx context.Context, intent *domain.Intent) bool {
	switch intent.Type {
	case domain.IntentHelp:
		a.showHelp()
	case domain.IntentStart:
		a.start(ctx)
	case domain.IntentAdvance:
		a.advance(ctx)
	case domain.IntentSkip:
		a.skip(ctx, intent.Payload)
	case domain.IntentTemperature:
		a.temperature(ctx, intent.Payload)
	case domain.IntentPause:
		a.pause(ctx)
	case domain.IntentResume:
		a.resume(ctx)
	case domain.IntentAbandon:
		a.abandon(ctx)
	case domain.IntentStatus:
		a.status()
	case domain.IntentRepeat:
		a.repeat()
	case domain.IntentRate:
		a.rate(intent.Payload)
	case domain.IntentNote, domain.IntentWorked, domain.IntentImprove:
		a.note(intent.Type, intent.Payload)
	case domain.IntentSave:
		a.save(ctx)
	case domain.IntentQuit:
		a.quit(ctx)
		return true
	default:
		a.ui.PrintChat(conversation.LineUnknown(intent.Payload))
	}
	return false
}

// publish pushes the latest snapshot to the notifier and store, then hints
// at feedback once the session has ended.
func (a *cookApp) publish(ctx context.Context) {
	if err := a.driver.Sync(ctx); err != nil {
		a.log.Error("sync: %v", err)
		a.ui.PrintUrgent(fmt.Sprintf("Could not save progress: %v", err))
	}
	if a.machine.Snapshot().Status.IsTerminal() && !a.hintedDone {
		a.hintedDone = true
		a.ui.PrintHint(conversation.LineFeedbackHint())
	}
}

// report prints a friendly line for a rejected operation.
func (a *cookApp) report(err error) {
	s := a.machine.Snapshot()
	switch {
	case errors.Is(err, domain.ErrAlreadyStarted):
		a.ui.PrintChat(conversation.LineAlreadyStarted())
	case errors.Is(err, domain.ErrInvalidTransition) && s.Status == domain.SessionNotStarted:
		a.ui.PrintChat(conversation.LineNotStarted())
	case errors.Is(err, domain.ErrInvalidTransition) && s.Status == domain.SessionPaused:
		a.ui.PrintChat(conversation.LineIsPaused())
	case errors.Is(err, domain.ErrInvalidTransition) && s.Status.IsTerminal():
		a.ui.PrintChat(conversation.LineSessionOver(s.Status))
	default:
		a.ui.PrintUrgent(fmt.Sprintf("Error: %v", err))
	}
}

func (a *cookApp) start(ctx context.Context) {
	if _, err := a.machine.Start(); err != nil {
		a.report(err)
		return
	}
	a.publish(ctx)
}

// advance completes a manual stage. For other stages it explains what the
// stage is waiting on instead.
func (a *cookApp) advance(ctx context.Context) {
	p := a.machine.Progress()
	if p.Status == domain.SessionRunning && p.Active != nil {
		switch p.Active.Trigger {
		case domain.TriggerTimeElapsed:
			a.ui.PrintChat(conversation.LineWaitTimer(p.Active.Key, notify.FormatDuration(p.Remaining)))
			return
		case domain.TriggerTemperatureReached:
			a.ui.PrintChat(conversation.LineWaitTemperature(p.Active.Key, *p.Active.TargetTemperatureF))
			return
		}
	}
	if _, err := a.machine.AdvanceManually(); err != nil {
		a.report(err)
		return
	}
	a.publish(ctx)
}

func (a *cookApp) skip(ctx context.Context, key string) {
	var err error
	if key == "" {
		if a.machine.Snapshot().Status == domain.SessionRunning && a.machine.Snapshot().ActiveStageKey == "" {
			a.ui.PrintChat(conversation.LineNothingActive())
			return
		}
		_, err = a.machine.SkipActive()
	} else {
		_, err = a.machine.Skip(key)
	}
	if err != nil {
		a.report(err)
		return
	}
	a.publish(ctx)
}

func (a *cookApp) temperature(ctx context.Context, payload string) {
	v, err := strconv.ParseFloat(payload, 64)
	if err != nil {
		a.ui.PrintChat(conversation.LineBadNumber(payload))
		return
	}
	before := a.machine.Snapshot()
	st, _, ok := a.machine.Plan().Stage(before.ActiveStageKey)
	if before.Status == domain.SessionRunning && (!ok || st.Trigger != domain.TriggerTemperatureReached) {
		a.ui.PrintChat(conversation.LineNotTemperatureStage())
		return
	}

	after, err := a.machine.RecordTemperature(v)
	if err != nil {
		a.report(err)
		return
	}
	if after == before {
		a.ui.PrintHint(conversation.LineBelowTarget(v, *st.TargetTemperatureF))
		return
	}
	a.publish(ctx)
}

func (a *cookApp) pause(ctx context.Context) {
	if _, err := a.machine.Pause(); err != nil {
		a.report(err)
		return
	}
	a.ui.PrintChat(conversation.LinePaused())
	a.publish(ctx)
}

func (a *cookApp) resume(ctx context.Context) {
	if a.machine.Snapshot().Status != domain.SessionPaused && !a.machine.Snapshot().Status.IsTerminal() {
		a.ui.PrintChat(conversation.LineNotPaused())
		return
	}
	if _, err := a.machine.Resume(); err != nil {
		a.report(err)
		return
	}
	a.ui.PrintChat(conversation.LineResumed())
	a.publish(ctx)
	a.repeat()
}

func (a *cookApp) abandon(ctx context.Context) {
	if _, err := a.machine.Abandon(); err != nil {
		a.report(err)
		return
	}
	a.ui.PrintChat(conversation.LineAbandoned())
	a.publish(ctx)
}

func (a *cookApp) status() {
	p := a.machine.Progress()
	s := a.machine.Snapshot()

	a.ui.PrintStep(fmt.Sprintf("Session: %s", shortID(p.SessionID)))
	a.ui.PrintInstruction(fmt.Sprintf("Plan:    %s", p.Title))
	a.ui.PrintInstruction(fmt.Sprintf("Status:  %s", p.Status))
	a.ui.PrintInstruction(fmt.Sprintf("Stages:  %d done, %d skipped, %d total", p.Completed, p.Skipped, p.Total))
	if s.AccumulatedPause > 0 {
		a.ui.PrintHint(fmt.Sprintf("Paused:  %s in total", notify.FormatDuration(s.AccumulatedPause)))
	}
	if p.Active != nil {
		a.repeat()
		if p.Timed {
			a.ui.PrintHint(fmt.Sprintf("%s elapsed, %s left", notify.FormatDuration(p.Elapsed), notify.FormatDuration(p.Remaining)))
		} else {
			a.ui.PrintHint(fmt.Sprintf("%s elapsed", notify.FormatDuration(p.Elapsed)))
		}
	}
	if len(p.UpNext) > 0 {
		a.ui.PrintHint("Ready next: " + strings.Join(p.UpNext, ", "))
	}
}

// repeat shows the active stage again.
func (a *cookApp) repeat() {
	s := a.machine.Snapshot()
	st, idx, ok := a.machine.Plan().Stage(s.ActiveStageKey)
	if !ok {
		a.ui.PrintChat(conversation.LineNothingActive())
		return
	}
	a.ui.PrintStep(conversation.LineStage(idx+1, a.machine.Plan().Len(), st))
	a.ui.PrintInstruction(st.Instruction)
}

func (a *cookApp) rate(payload string) {
	r, err := strconv.Atoi(payload)
	if err != nil {
		a.ui.PrintChat(conversation.LineBadNumber(payload))
		return
	}
	fb := a.feedback
	fb.Rating = &r
	if err := finalize.Validate(&fb); err != nil {
		a.ui.PrintUrgent(err.Error())
		return
	}
	a.feedback = fb
	a.ui.PrintChat(conversation.LineRated(r))
}

func (a *cookApp) note(kind domain.IntentType, text string) {
	fb := a.feedback
	field := "note"
	switch kind {
	case domain.IntentWorked:
		fb.WhatWorked = joinText(fb.WhatWorked, text)
		field = "what worked"
	case domain.IntentImprove:
		fb.WhatToImprove = joinText(fb.WhatToImprove, text)
		field = "to improve"
	default:
		fb.Notes = joinText(fb.Notes, text)
	}
	if err := finalize.Validate(&fb); err != nil {
		a.ui.PrintUrgent(err.Error())
		return
	}
	a.feedback = fb
	a.ui.PrintChat(conversation.LineNoted(field))
}

// joinText appends repeated notes on new lines.
func joinText(cur, add string) string {
	if cur == "" {
		return add
	}
	return cur + "\n" + add
}

func (a *cookApp) save(ctx context.Context) {
	entry, err := a.finalizer.Finalize(a.machine.Plan(), a.machine.Snapshot(), a.feedback)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotTerminal) {
			a.ui.PrintChat(conversation.LineFinishFirst())
			return
		}
		a.ui.PrintUrgent(err.Error())
		return
	}
	if err := finalize.Record(ctx, a.history, entry); err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			a.ui.PrintChat(conversation.LineAlreadySaved())
			return
		}
		a.ui.PrintUrgent(fmt.Sprintf("Error: %v", err))
		return
	}
	a.ui.PrintChat(conversation.LineSaved(entry.ActualTimeMinutes))
}

// quit leaves the session as it is. Live sessions are already persisted by
// the driver and can be resumed later.
func (a *cookApp) quit(ctx context.Context) {
	a.publish(ctx)
	if s := a.machine.Snapshot(); s.Status.IsLive() {
		a.ui.PrintChat(conversation.LineSavedForLater(s.ID))
	}
	a.ui.PrintChat(conversation.LineBye())
}

func (a *cookApp) showHelp() {
	a.ui.PrintStep("Commands:")
	a.ui.PrintInstruction("  start / go        Start cooking")
	a.ui.PrintInstruction("  next / done       Finish the current manual stage")
	a.ui.PrintInstruction("  temp 195          Report a probe reading in F")
	a.ui.PrintInstruction("  skip [stage]      Skip the current (or a named pending) stage")
	a.ui.PrintInstruction("  pause / resume    Freeze and restart the stage clocks")
	a.ui.PrintInstruction("  status / where    Show session progress")
	a.ui.PrintInstruction("  repeat / again    Show the current stage again")
	a.ui.PrintInstruction("  abandon           End the session early")
	a.ui.PrintInstruction("  quit / exit       Leave; running sessions can be resumed")
	a.ui.Println("")
	a.ui.PrintStep("After cooking:")
	a.ui.PrintInstruction("  rate 1-5          Rate the cook")
	a.ui.PrintInstruction("  note ...          Free-form notes")
	a.ui.PrintInstruction("  worked ...        What worked")
	a.ui.PrintInstruction("  improve ...       What to do better next time")
	a.ui.PrintInstruction("  save              Add the cook to your log")
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
