// Package finalize turns a finished session and the user's feedback into a
// permanent cook log entry.
package finalize

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/hammamikhairi/cookplan/internal/domain"
	"github.com/hammamikhairi/cookplan/internal/logger"
)

// MaxTextLength caps every free-text feedback field, in characters.
const MaxTextLength = 2000

// Finalizer builds log entries. It only reads the session; persisting the
// entry is up to the caller (see Record).
type Finalizer struct {
	clock domain.Clock
	log   *logger.Logger
}

// New creates a finalizer.
func New(clock domain.Clock, log *logger.Logger) *Finalizer {
	return &Finalizer{clock: clock, log: log}
}

// Finalize converts a terminal session plus feedback into a log entry.
// Sessions that are not Completed or Abandoned are rejected with
// ErrSessionNotTerminal; out-of-range feedback with ErrValidation.
func (f *Finalizer) Finalize(plan *domain.CookPlan, s *domain.CookSession, fb domain.Feedback) (*domain.CookLogEntry, error) {
	if s == nil {
		return nil, fmt.Errorf("finalize: %w", domain.ErrNotFound)
	}
	if !s.Status.IsTerminal() {
		return nil, &domain.TransitionError{Kind: domain.ErrSessionNotTerminal, Op: "finalize", Status: s.Status}
	}
	if err := Validate(&fb); err != nil {
		return nil, err
	}

	now := f.clock.Now()
	entry := &domain.CookLogEntry{
		SessionID:         s.ID,
		RecipeID:          s.RecipeID,
		Outcome:           outcomeOf(s.Status),
		CookedAt:          now,
		ActualTimeMinutes: ActualMinutes(s, now),
		Rating:            fb.Rating,
		Notes:             fb.Notes,
		WhatWorked:        fb.WhatWorked,
		WhatToImprove:     fb.WhatToImprove,
	}
	if plan != nil {
		entry.PlanTitle = plan.Title
	}

	f.log.Info("finalized session %s: %s after %d min", s.ID, entry.Outcome, entry.ActualTimeMinutes)
	return entry, nil
}

// Record appends entry to the history. A second entry for the same session
// surfaces ErrAlreadyExists so callers can treat a retry as done.
func Record(ctx context.Context, store domain.LogStore, entry *domain.CookLogEntry) error {
	if err := store.Append(ctx, entry); err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			return fmt.Errorf("session %s already finalized: %w", entry.SessionID, err)
		}
		return fmt.Errorf("recording cook log: %w", err)
	}
	return nil
}

// ActualMinutes is the wall time from the first stage start to now, minus
// accumulated pauses, floored to whole minutes.
func ActualMinutes(s *domain.CookSession, now time.Time) int {
	if s.StartedAt.IsZero() {
		return 0
	}
	d := now.Sub(s.StartedAt) - s.AccumulatedPause
	if d < 0 {
		return 0
	}
	return int(d / time.Minute)
}

func outcomeOf(status domain.SessionStatus) domain.Outcome {
	if status == domain.SessionAbandoned {
		return domain.OutcomeAbandoned
	}
	return domain.OutcomeCompleted
}

// Validate trims the free-text fields of fb in place and checks the rating
// and text lengths.
func Validate(fb *domain.Feedback) error {
	if fb.Rating != nil && (*fb.Rating < 1 || *fb.Rating > 5) {
		return &domain.ValidationError{Field: "rating", Value: *fb.Rating, Message: "must be between 1 and 5"}
	}

	fields := []struct {
		name string
		v    *string
	}{
		{"notes", &fb.Notes},
		{"what_worked", &fb.WhatWorked},
		{"what_to_improve", &fb.WhatToImprove},
	}
	for _, fd := range fields {
		*fd.v = strings.TrimSpace(*fd.v)
		if n := utf8.RuneCountInString(*fd.v); n > MaxTextLength {
			return &domain.ValidationError{Field: fd.name, Value: n, Message: fmt.Sprintf("must be at most %d characters", MaxTextLength)}
		}
	}
	return nil
}
