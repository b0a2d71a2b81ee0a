package domain

import (
	"fmt"
	"time"
)

// Outcome records how a session ended.
type Outcome int

const (
	OutcomeCompleted Outcome = iota
	OutcomeAbandoned
)

// String returns a human-readable outcome.
func (o Outcome) String() string {
	switch o {
	case OutcomeCompleted:
		return "completed"
	case OutcomeAbandoned:
		return "abandoned"
	default:
		return "unknown"
	}
}

// ParseOutcome converts a stored outcome name back to an Outcome.
func ParseOutcome(s string) (Outcome, error) {
	switch s {
	case "completed":
		return OutcomeCompleted, nil
	case "abandoned":
		return OutcomeAbandoned, nil
	default:
		return 0, fmt.Errorf("unknown outcome %q", s)
	}
}

// Feedback is what the user reports when closing a session.
type Feedback struct {
	Rating        *int
	Notes         string
	WhatWorked    string
	WhatToImprove string
}

// CookLogEntry is the permanent history record of one session. Entries are
// append-only: corrections are new entries, never edits.
type CookLogEntry struct {
	SessionID         string
	RecipeID          *string
	PlanTitle         string
	Outcome           Outcome
	CookedAt          time.Time
	ActualTimeMinutes int
	Rating            *int
	Notes             string
	WhatWorked        string
	WhatToImprove     string
}
