// Package plan validates raw plans from a plan source and turns them into
// immutable domain.CookPlan values.
package plan

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/hammamikhairi/cookplan/internal/domain"
)

// Load validates raw and builds a CookPlan. It checks that stage keys are
// unique, every dependency names an existing stage, the dependency graph is
// acyclic, temperature stages carry a target and timed stages carry a
// duration. Load has no side effects; raw is not retained.
func Load(raw *domain.RawPlan) (*domain.CookPlan, error) {
	if raw == nil || len(raw.Stages) == 0 {
		return nil, invalid(domain.ReasonEmpty, "plan has no stages")
	}
	if raw.Servings < 0 {
		return nil, invalid(domain.ReasonInvalidField, "servings must not be negative, got %d", raw.Servings)
	}

	stages := make([]domain.Stage, 0, len(raw.Stages))
	seen := make(map[string]int, len(raw.Stages))

	for i, rs := range raw.Stages {
		key := strings.TrimSpace(rs.Key)
		if key == "" {
			return nil, invalid(domain.ReasonInvalidField, "stage %d has an empty key", i+1)
		}
		if prev, ok := seen[key]; ok {
			return nil, invalid(domain.ReasonDuplicateKey, "stage %q appears at positions %d and %d", key, prev+1, i+1)
		}
		seen[key] = i

		st, err := buildStage(key, rs)
		if err != nil {
			return nil, err
		}
		stages = append(stages, st)
	}

	for _, st := range stages {
		for _, dep := range st.DependsOn {
			if dep == st.Key {
				return nil, invalid(domain.ReasonCycle, "%s -> %s", st.Key, st.Key)
			}
			if _, ok := seen[dep]; !ok {
				return nil, invalid(domain.ReasonUnknownDependency, "stage %q depends on unknown stage %q", st.Key, dep)
			}
		}
	}

	g := newGraph(stages, seen)
	if order := g.topoOrder(); len(order) != len(stages) {
		return nil, invalid(domain.ReasonCycle, "%s", strings.Join(g.findCycle(), " -> "))
	}

	var recipeID *string
	if raw.RecipeID != nil {
		id := *raw.RecipeID
		recipeID = &id
	}
	equipment := append([]string(nil), raw.Equipment...)

	return domain.NewCookPlan(strings.TrimSpace(raw.ID), recipeID, strings.TrimSpace(raw.Title), raw.Servings, equipment, stages), nil
}

func buildStage(key string, rs domain.RawStage) (domain.Stage, error) {
	st := domain.Stage{
		Key:         key,
		Instruction: strings.TrimSpace(rs.Instruction),
	}

	if rs.ExpectedDurationMinutes != nil {
		d := *rs.ExpectedDurationMinutes
		if d < 0 || math.IsNaN(d) || math.IsInf(d, 0) {
			return st, invalid(domain.ReasonInvalidField, "stage %q has invalid duration %v", key, d)
		}
		st.ExpectedDurationMinutes = &d
	}
	if rs.TargetTemperatureF != nil {
		f := *rs.TargetTemperatureF
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return st, invalid(domain.ReasonInvalidField, "stage %q has invalid target temperature", key)
		}
		st.TargetTemperatureF = &f
	}

	trigger, err := resolveTrigger(key, rs)
	if err != nil {
		return st, err
	}
	st.Trigger = trigger

	switch trigger {
	case domain.TriggerTemperatureReached:
		if st.TargetTemperatureF == nil {
			return st, invalid(domain.ReasonMissingTemperature, "stage %q waits for a temperature but has no target", key)
		}
	case domain.TriggerTimeElapsed:
		if st.ExpectedDurationMinutes == nil {
			return st, invalid(domain.ReasonMissingDuration, "stage %q is timed but has no expected duration", key)
		}
	}

	st.DependsOn = dedupe(rs.DependsOn)
	return st, nil
}

// resolveTrigger parses the declared trigger, or infers one when the source
// left it out: a temperature target wins, then a duration, else manual.
func resolveTrigger(key string, rs domain.RawStage) (domain.Trigger, error) {
	name := strings.ToLower(strings.TrimSpace(rs.Trigger))
	if name == "" {
		switch {
		case rs.TargetTemperatureF != nil:
			return domain.TriggerTemperatureReached, nil
		case rs.ExpectedDurationMinutes != nil:
			return domain.TriggerTimeElapsed, nil
		default:
			return domain.TriggerManualAdvance, nil
		}
	}
	t, ok := domain.ParseTrigger(name)
	if !ok {
		return 0, invalid(domain.ReasonUnknownTrigger, "stage %q has trigger %q", key, rs.Trigger)
	}
	return t, nil
}

func dedupe(deps []string) []string {
	if len(deps) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(deps))
	out := make([]string, 0, len(deps))
	for _, d := range deps {
		d = strings.TrimSpace(d)
		if d == "" {
			continue
		}
		if _, ok := set[d]; ok {
			continue
		}
		set[d] = struct{}{}
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}

func invalid(reason, format string, args ...any) error {
	return &domain.InvalidPlanError{Reason: reason, Detail: fmt.Sprintf(format, args...)}
}

// TopologicalOrder returns the stage keys of a loaded plan in a deterministic
// dependency-respecting order. Among stages that are ready at the same time
// the one earlier in the plan comes first, which is also the order the engine
// activates them in when nothing is skipped.
func TopologicalOrder(p *domain.CookPlan) []string {
	index := make(map[string]int, len(p.Stages))
	for i, st := range p.Stages {
		index[st.Key] = i
	}
	g := newGraph(p.Stages, index)
	order := g.topoOrder()
	out := make([]string, len(order))
	for i, idx := range order {
		out[i] = p.Stages[idx].Key
	}
	return out
}
