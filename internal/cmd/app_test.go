package cmd

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/hammamikhairi/cookplan/internal/clock"
	"github.com/hammamikhairi/cookplan/internal/conversation"
	"github.com/hammamikhairi/cookplan/internal/domain"
	"github.com/hammamikhairi/cookplan/internal/engine"
	"github.com/hammamikhairi/cookplan/internal/finalize"
	"github.com/hammamikhairi/cookplan/internal/logger"
	"github.com/hammamikhairi/cookplan/internal/notify"
	"github.com/hammamikhairi/cookplan/internal/plan"
	"github.com/hammamikhairi/cookplan/internal/storage"
	"github.com/hammamikhairi/cookplan/internal/timer"
)

func f64(v float64) *float64 { return &v }

// recordOutput captures everything the app prints.
type recordOutput struct {
	lines []string
}

func (r *recordOutput) Println(a ...interface{})     { r.lines = append(r.lines, fmt.Sprint(a...)) }
func (r *recordOutput) PrintChat(text string)        { r.lines = append(r.lines, text) }
func (r *recordOutput) PrintStep(text string)        { r.lines = append(r.lines, text) }
func (r *recordOutput) PrintInstruction(text string) { r.lines = append(r.lines, text) }
func (r *recordOutput) PrintHint(text string)        { r.lines = append(r.lines, text) }
func (r *recordOutput) PrintUrgent(text string)      { r.lines = append(r.lines, text) }

func (r *recordOutput) last() string {
	if len(r.lines) == 0 {
		return ""
	}
	return r.lines[len(r.lines)-1]
}

func (r *recordOutput) contains(sub string) bool {
	for _, l := range r.lines {
		if strings.Contains(l, sub) {
			return true
		}
	}
	return false
}

type appFixture struct {
	app      *cookApp
	clock    *clock.Fake
	rec      *notify.Recorder
	out      *recordOutput
	sessions *storage.MemoryStore
	history  *storage.MemoryLog
}

func setupApp(t *testing.T) *appFixture {
	t.Helper()
	p, err := plan.Load(&domain.RawPlan{
		ID:    "brisket",
		Title: "Brisket",
		Stages: []domain.RawStage{
			{Key: "rub", Instruction: "Apply the rub", Trigger: "manual_advance"},
			{Key: "smoke", Instruction: "Smoke at 250F", ExpectedDurationMinutes: f64(30), DependsOn: []string{"rub"}},
			{Key: "probe", Instruction: "Cook to 203F", TargetTemperatureF: f64(203), DependsOn: []string{"smoke"}},
		},
	})
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	log := logger.New(logger.LevelOff, nil)
	clk := clock.NewFake(time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC))
	machine := engine.New(p, clk, log, engine.WithSessionID("app-1"))
	rec := &notify.Recorder{}
	sessions := storage.NewMemoryStore(log)
	history := storage.NewMemoryLog(log)
	out := &recordOutput{}

	return &appFixture{
		app: &cookApp{
			machine:   machine,
			driver:    timer.New(machine, rec, log, timer.WithStore(sessions)),
			parser:    conversation.NewKeywordParser(log),
			finalizer: finalize.New(clk, log),
			history:   history,
			ui:        out,
			log:       log,
		},
		clock:    clk,
		rec:      rec,
		out:      out,
		sessions: sessions,
		history:  history,
	}
}

// say parses and handles one line of input.
func (fx *appFixture) say(t *testing.T, input string) bool {
	t.Helper()
	intent, err := fx.app.parser.Parse(context.Background(), input)
	if err != nil {
		t.Fatalf("parse %q: %v", input, err)
	}
	return fx.app.handleIntent(context.Background(), intent)
}

func TestCookAppFullSession(t *testing.T) {
	fx := setupApp(t)
	m := fx.app.machine

	fx.say(t, "start")
	if s := m.Snapshot(); s.Status != domain.SessionRunning || s.ActiveStageKey != "rub" {
		t.Fatalf("expected rub running, got %s %q", s.Status, s.ActiveStageKey)
	}
	kinds := fx.rec.Kinds()
	if len(kinds) != 2 || kinds[0] != domain.NotifyStageStarted || kinds[1] != domain.NotifyActionRequired {
		t.Fatalf("expected started+action required, got %v", kinds)
	}

	fx.say(t, "done")
	if m.Snapshot().ActiveStageKey != "smoke" {
		t.Fatalf("expected smoke active, got %q", m.Snapshot().ActiveStageKey)
	}

	// A timed stage cannot be advanced by hand.
	fx.say(t, "next")
	if m.Snapshot().ActiveStageKey != "smoke" {
		t.Fatal("advance should not complete a timed stage")
	}
	if !strings.Contains(fx.out.last(), "finishes on its own in 30m") {
		t.Fatalf("expected timer hint, got %q", fx.out.last())
	}

	fx.say(t, "temp 190")
	if fx.out.last() != conversation.LineNotTemperatureStage() {
		t.Fatalf("expected not-a-temperature-stage line, got %q", fx.out.last())
	}

	fx.clock.Advance(30 * time.Minute)
	if _, err := m.Tick(); err != nil {
		t.Fatalf("tick: %v", err)
	}
	fx.app.publish(context.Background())
	if m.Snapshot().ActiveStageKey != "probe" {
		t.Fatalf("expected probe active, got %q", m.Snapshot().ActiveStageKey)
	}

	v := m.Snapshot().Version
	fx.say(t, "temp 190")
	if m.Snapshot().Version != v {
		t.Fatal("a reading below target must not change the session")
	}
	if !strings.Contains(fx.out.last(), "target is 203F") {
		t.Fatalf("expected below-target hint, got %q", fx.out.last())
	}

	fx.say(t, "save")
	if fx.out.last() != conversation.LineFinishFirst() {
		t.Fatalf("expected finish-first line, got %q", fx.out.last())
	}

	fx.say(t, "203f")
	if s := m.Snapshot(); s.Status != domain.SessionCompleted {
		t.Fatalf("expected completed, got %s", s.Status)
	}
	if fx.out.last() != conversation.LineFeedbackHint() {
		t.Fatalf("expected feedback hint, got %q", fx.out.last())
	}

	fx.say(t, "rate 6")
	if !strings.Contains(fx.out.last(), "rating") {
		t.Fatalf("expected rating validation error, got %q", fx.out.last())
	}
	fx.say(t, "rate 5")
	fx.say(t, "note great bark")
	fx.say(t, "improve   start earlier  ")

	fx.clock.Advance(5 * time.Minute)
	fx.say(t, "save")
	if !strings.Contains(fx.out.last(), "35 min") {
		t.Fatalf("expected saved line with 35 min, got %q", fx.out.last())
	}

	entry, err := fx.history.Get(context.Background(), "app-1")
	if err != nil {
		t.Fatalf("history get: %v", err)
	}
	if entry.Outcome != domain.OutcomeCompleted || entry.Rating == nil || *entry.Rating != 5 {
		t.Fatalf("unexpected entry %+v", entry)
	}
	if entry.Notes != "great bark" || entry.WhatToImprove != "start earlier" || entry.PlanTitle != "Brisket" {
		t.Fatalf("unexpected feedback in entry %+v", entry)
	}

	fx.say(t, "save")
	if fx.out.last() != conversation.LineAlreadySaved() {
		t.Fatalf("expected already-saved line, got %q", fx.out.last())
	}

	snap, err := fx.sessions.Load(context.Background(), "app-1")
	if err != nil {
		t.Fatalf("load snapshot: %v", err)
	}
	if snap.Session.Status != domain.SessionCompleted {
		t.Fatalf("expected persisted completed session, got %s", snap.Session.Status)
	}
}

func TestCookAppPauseAndResume(t *testing.T) {
	fx := setupApp(t)
	m := fx.app.machine

	fx.say(t, "pause")
	if fx.out.last() != conversation.LineNotStarted() {
		t.Fatalf("expected not-started line, got %q", fx.out.last())
	}

	fx.say(t, "start")
	fx.say(t, "resume")
	if fx.out.last() != conversation.LineNotPaused() {
		t.Fatalf("expected not-paused line, got %q", fx.out.last())
	}

	fx.say(t, "pause")
	if m.Snapshot().Status != domain.SessionPaused {
		t.Fatalf("expected paused, got %s", m.Snapshot().Status)
	}
	fx.say(t, "done")
	if fx.out.last() != conversation.LineIsPaused() {
		t.Fatalf("expected is-paused line, got %q", fx.out.last())
	}

	fx.clock.Advance(10 * time.Minute)
	fx.say(t, "resume")
	if m.Snapshot().Status != domain.SessionRunning {
		t.Fatalf("expected running, got %s", m.Snapshot().Status)
	}
	if m.Snapshot().AccumulatedPause != 10*time.Minute {
		t.Fatalf("expected 10m pause, got %s", m.Snapshot().AccumulatedPause)
	}
	if !fx.out.contains("Stage 1/3: rub") {
		t.Fatal("expected the active stage to be shown after resume")
	}
}

func TestCookAppSkipAndAbandon(t *testing.T) {
	fx := setupApp(t)
	m := fx.app.machine

	fx.say(t, "start")
	fx.say(t, "skip smoke")
	if m.Snapshot().StageStates["smoke"].Status != domain.StageSkipped {
		t.Fatalf("expected smoke skipped, got %s", m.Snapshot().StageStates["smoke"].Status)
	}
	fx.say(t, "skip")
	if m.Snapshot().ActiveStageKey != "probe" {
		t.Fatalf("expected probe active after skipping rub, got %q", m.Snapshot().ActiveStageKey)
	}
	fx.say(t, "skip nope")
	if !strings.Contains(fx.out.last(), "unknown stage") {
		t.Fatalf("expected unknown stage error, got %q", fx.out.last())
	}

	fx.say(t, "abandon")
	if m.Snapshot().Status != domain.SessionAbandoned {
		t.Fatalf("expected abandoned, got %s", m.Snapshot().Status)
	}
	fx.say(t, "next")
	if fx.out.last() != conversation.LineSessionOver(domain.SessionAbandoned) {
		t.Fatalf("expected session-over line, got %q", fx.out.last())
	}

	fx.say(t, "save")
	entry, err := fx.history.Get(context.Background(), "app-1")
	if err != nil {
		t.Fatalf("history get: %v", err)
	}
	if entry.Outcome != domain.OutcomeAbandoned {
		t.Fatalf("expected abandoned outcome, got %s", entry.Outcome)
	}
}

func TestCookAppQuitKeepsLiveSession(t *testing.T) {
	fx := setupApp(t)

	fx.say(t, "start")
	if quit := fx.say(t, "quit"); !quit {
		t.Fatal("quit should end the loop")
	}
	if !fx.out.contains("--resume app-1") {
		t.Fatal("expected a resume hint for a live session")
	}
	snap, err := fx.sessions.Load(context.Background(), "app-1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if snap.Session.Status != domain.SessionRunning {
		t.Fatalf("expected running session persisted, got %s", snap.Session.Status)
	}
}

func TestCookAppRun(t *testing.T) {
	fx := setupApp(t)
	in := make(chan string, 4)
	in <- "  "
	in <- "start"
	in <- "what is this"
	in <- "quit"

	done := make(chan struct{})
	go func() {
		fx.app.run(context.Background(), in)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("run did not return after quit")
	}
	if !fx.out.contains(conversation.LineUnknown("what is this")) {
		t.Fatal("expected unknown input to be reported")
	}
	if fx.app.machine.Snapshot().Status != domain.SessionRunning {
		t.Fatalf("expected running, got %s", fx.app.machine.Snapshot().Status)
	}
}
