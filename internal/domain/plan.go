// Package domain defines the core types and interfaces for the cook session
// engine. All other packages depend on domain; domain depends on nothing.
package domain

import (
	"fmt"
	"time"
)

// Trigger is the condition class that completes a stage.
type Trigger int

const (
	// TriggerTimeElapsed completes the stage once its expected duration has
	// elapsed, excluding paused time.
	TriggerTimeElapsed Trigger = iota
	// TriggerManualAdvance requires the user to confirm completion.
	TriggerManualAdvance
	// TriggerTemperatureReached completes the stage when a recorded
	// temperature meets the stage target.
	TriggerTemperatureReached
)

// String returns the wire name of the trigger.
func (t Trigger) String() string {
	switch t {
	case TriggerTimeElapsed:
		return "time_elapsed"
	case TriggerManualAdvance:
		return "manual_advance"
	case TriggerTemperatureReached:
		return "temperature_reached"
	default:
		return "unknown"
	}
}

var triggerNames = map[string]Trigger{
	"time_elapsed":        TriggerTimeElapsed,
	"time":                TriggerTimeElapsed,
	"manual_advance":      TriggerManualAdvance,
	"manual":              TriggerManualAdvance,
	"temperature_reached": TriggerTemperatureReached,
	"temperature":         TriggerTemperatureReached,
}

// ParseTrigger converts a wire name (or its short alias) to a Trigger.
func ParseTrigger(name string) (Trigger, bool) {
	t, ok := triggerNames[name]
	return t, ok
}

// MarshalText implements encoding.TextMarshaler.
func (t Trigger) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *Trigger) UnmarshalText(b []byte) error {
	v, ok := ParseTrigger(string(b))
	if !ok {
		return fmt.Errorf("unknown trigger %q", string(b))
	}
	*t = v
	return nil
}

// Stage is one unit of a cook plan.
type Stage struct {
	Key                     string   `json:"key"`
	Instruction             string   `json:"instruction"`
	ExpectedDurationMinutes *float64 `json:"expected_duration_minutes,omitempty"`
	TargetTemperatureF      *float64 `json:"target_temperature_f,omitempty"`
	DependsOn               []string `json:"depends_on,omitempty"`
	Trigger                 Trigger  `json:"trigger"`
}

// ExpectedDuration returns the expected duration and whether one is set.
func (s Stage) ExpectedDuration() (time.Duration, bool) {
	if s.ExpectedDurationMinutes == nil {
		return 0, false
	}
	return time.Duration(*s.ExpectedDurationMinutes * float64(time.Minute)), true
}

// RequiresAction reports whether the stage waits on the user (a manual
// confirmation or a temperature reading) rather than on the clock.
func (s Stage) RequiresAction() bool {
	return s.Trigger == TriggerManualAdvance || s.Trigger == TriggerTemperatureReached
}

// CookPlan is an immutable, validated cook plan. Build one with NewCookPlan
// (normally via plan.Load); never mutate its stages after construction.
type CookPlan struct {
	ID        string   `json:"id"`
	RecipeID  *string  `json:"recipe_id,omitempty"`
	Title     string   `json:"title"`
	Servings  int      `json:"servings"`
	Equipment []string `json:"equipment,omitempty"`
	Stages    []Stage  `json:"stages"`

	index map[string]int
}

// NewCookPlan assembles a plan and indexes its stages by key. It performs no
// validation; callers are expected to have validated the stages already.
func NewCookPlan(id string, recipeID *string, title string, servings int, equipment []string, stages []Stage) *CookPlan {
	p := &CookPlan{
		ID:        id,
		RecipeID:  recipeID,
		Title:     title,
		Servings:  servings,
		Equipment: equipment,
		Stages:    stages,
		index:     make(map[string]int, len(stages)),
	}
	for i, st := range stages {
		p.index[st.Key] = i
	}
	return p
}

// Stage looks up a stage by key, returning it with its plan index.
func (p *CookPlan) Stage(key string) (Stage, int, bool) {
	i, ok := p.index[key]
	if !ok {
		return Stage{}, -1, false
	}
	return p.Stages[i], i, true
}

// Len returns the number of stages.
func (p *CookPlan) Len() int { return len(p.Stages) }

// RawPlan is the unvalidated plan shape produced by a plan source. It mirrors
// the CookPlan JSON encoding so persisted plans round-trip through plan.Load.
type RawPlan struct {
	ID        string     `json:"id" yaml:"id"`
	RecipeID  *string    `json:"recipe_id,omitempty" yaml:"recipe_id,omitempty"`
	Title     string     `json:"title" yaml:"title"`
	Servings  int        `json:"servings" yaml:"servings"`
	Equipment []string   `json:"equipment,omitempty" yaml:"equipment,omitempty"`
	Stages    []RawStage `json:"stages" yaml:"stages"`
}

// RawStage is the unvalidated form of a Stage. Trigger may be empty, in which
// case it is inferred from the other fields at load time.
type RawStage struct {
	Key                     string   `json:"key" yaml:"key"`
	Instruction             string   `json:"instruction" yaml:"instruction"`
	ExpectedDurationMinutes *float64 `json:"expected_duration_minutes,omitempty" yaml:"expected_duration_minutes,omitempty"`
	TargetTemperatureF      *float64 `json:"target_temperature_f,omitempty" yaml:"target_temperature_f,omitempty"`
	DependsOn               []string `json:"depends_on,omitempty" yaml:"depends_on,omitempty"`
	Trigger                 string   `json:"trigger,omitempty" yaml:"trigger,omitempty"`
}

// PlanSummary is a lightweight view of a catalog plan for listing.
type PlanSummary struct {
	ID     string
	Title  string
	Stages int
	Tags   []string
}

// PlanRequest is a freeform plan request with equipment context.
type PlanRequest struct {
	Prompt    string
	Equipment []string
	Servings  int
}
