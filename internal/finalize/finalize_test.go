package finalize

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/hammamikhairi/cookplan/internal/clock"
	"github.com/hammamikhairi/cookplan/internal/domain"
	"github.com/hammamikhairi/cookplan/internal/engine"
	"github.com/hammamikhairi/cookplan/internal/logger"
	"github.com/hammamikhairi/cookplan/internal/plan"
	"github.com/hammamikhairi/cookplan/internal/storage"
)

func f(v float64) *float64 { return &v }

func intp(v int) *int { return &v }

func setup(t *testing.T) (*engine.Machine, *Finalizer, *clock.Fake) {
	t.Helper()
	p, err := plan.Load(&domain.RawPlan{
		ID:    "ribs",
		Title: "Pork ribs",
		Stages: []domain.RawStage{
			{Key: "smoke", Instruction: "Smoke", ExpectedDurationMinutes: f(30)},
			{Key: "glaze", Instruction: "Glaze", DependsOn: []string{"smoke"}},
		},
	})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	clk := clock.NewFake(time.Date(2026, 7, 4, 12, 0, 0, 0, time.UTC))
	log := logger.New(logger.LevelOff, nil)
	return engine.New(p, clk, log), New(clk, log), clk
}

func TestFinalizeRequiresTerminalSession(t *testing.T) {
	m, fin, _ := setup(t)

	for _, step := range []func() (*domain.CookSession, error){nil, m.Start, m.Pause} {
		if step != nil {
			if _, err := step(); err != nil {
				t.Fatalf("step: %v", err)
			}
		}
		_, err := fin.Finalize(m.Plan(), m.Snapshot(), domain.Feedback{})
		if !errors.Is(err, domain.ErrSessionNotTerminal) {
			t.Fatalf("status %s: expected ErrSessionNotTerminal, got %v", m.Snapshot().Status, err)
		}
	}
}

func TestFinalizeCompletedSession(t *testing.T) {
	m, fin, clk := setup(t)
	m.Start()
	clk.Advance(20 * time.Minute)
	m.Pause()
	clk.Advance(15 * time.Minute)
	m.Resume()
	clk.Advance(10*time.Minute + 59*time.Second)
	m.Tick()
	s, err := m.AdvanceManually()
	if err != nil || s.Status != domain.SessionCompleted {
		t.Fatalf("expected completed session, got %v %v", s.Status, err)
	}

	if _, err := fin.Finalize(m.Plan(), s, domain.Feedback{Rating: intp(6)}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation for rating 6, got %v", err)
	}
	var verr *domain.ValidationError
	if _, err := fin.Finalize(m.Plan(), s, domain.Feedback{Rating: intp(0)}); !errors.As(err, &verr) || verr.Field != "rating" {
		t.Fatalf("expected rating ValidationError for 0, got %v", err)
	}

	entry, err := fin.Finalize(m.Plan(), s, domain.Feedback{Rating: intp(5), Notes: "  great bark  "})
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	// 45m59s of wall time, 15m paused: 30m59s floors to 30.
	if entry.ActualTimeMinutes != 30 {
		t.Fatalf("expected 30 minutes, got %d", entry.ActualTimeMinutes)
	}
	if entry.Outcome != domain.OutcomeCompleted || entry.PlanTitle != "Pork ribs" || entry.SessionID != s.ID {
		t.Fatalf("unexpected entry %+v", entry)
	}
	if *entry.Rating != 5 || entry.Notes != "great bark" {
		t.Fatalf("unexpected feedback %+v", entry)
	}
}

func TestFinalizeAbandonedSession(t *testing.T) {
	m, fin, clk := setup(t)
	m.Start()
	clk.Advance(12 * time.Minute)
	s, _ := m.Abandon()
	clk.Advance(3 * time.Minute)

	entry, err := fin.Finalize(m.Plan(), s, domain.Feedback{WhatToImprove: "start earlier"})
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if entry.Outcome != domain.OutcomeAbandoned || entry.Rating != nil {
		t.Fatalf("unexpected entry %+v", entry)
	}
	if entry.ActualTimeMinutes != 15 {
		t.Fatalf("expected 15 minutes, got %d", entry.ActualTimeMinutes)
	}
}

func TestFinalizeRejectsLongText(t *testing.T) {
	m, fin, _ := setup(t)
	m.Start()
	s, _ := m.Abandon()

	_, err := fin.Finalize(m.Plan(), s, domain.Feedback{WhatWorked: strings.Repeat("x", MaxTextLength+1)})
	var verr *domain.ValidationError
	if !errors.As(err, &verr) || verr.Field != "what_worked" {
		t.Fatalf("expected what_worked ValidationError, got %v", err)
	}
	if _, err := fin.Finalize(m.Plan(), s, domain.Feedback{WhatWorked: strings.Repeat("é", MaxTextLength)}); err != nil {
		t.Fatalf("expected %d runes to pass, got %v", MaxTextLength, err)
	}
}

func TestRecordDeduplicates(t *testing.T) {
	m, fin, _ := setup(t)
	m.Start()
	s, _ := m.Abandon()

	ctx := context.Background()
	store := storage.NewMemoryLog(logger.New(logger.LevelOff, nil))
	entry, err := fin.Finalize(m.Plan(), s, domain.Feedback{})
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if err := Record(ctx, store, entry); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := Record(ctx, store, entry); !errors.Is(err, domain.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
}
