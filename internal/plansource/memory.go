package plansource

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/hammamikhairi/cookplan/internal/domain"
	"github.com/hammamikhairi/cookplan/internal/logger"
)

// Compile-time interface checks.
var (
	_ domain.PlanCatalog   = (*MemorySource)(nil)
	_ domain.PlanGenerator = (*MemorySource)(nil)
)

type entry struct {
	plan *domain.RawPlan
	tags []string
}

// MemorySource holds plans in memory. Safe for concurrent use.
type MemorySource struct {
	mu    sync.RWMutex
	plans map[string]entry
	log   *logger.Logger
}

// NewMemorySource creates a plan source preloaded with built-in plans.
func NewMemorySource(log *logger.Logger) *MemorySource {
	src := &MemorySource{
		plans: make(map[string]entry),
		log:   log,
	}
	src.seed()
	return src
}

// List returns summaries of all available plans, sorted by title.
func (s *MemorySource) List(ctx context.Context) ([]domain.PlanSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	s.log.Debug("listing all plans, count=%d", len(s.plans))

	out := make([]domain.PlanSummary, 0, len(s.plans))
	for _, e := range s.plans {
		out = append(out, summarize(e))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out, nil
}

// Get returns a copy of a plan by ID.
func (s *MemorySource) Get(ctx context.Context, id string) (*domain.RawPlan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.plans[id]
	if !ok {
		s.log.Debug("plan not found: %s", id)
		return nil, domain.ErrNotFound
	}
	return clonePlan(e.plan), nil
}

// Add registers a plan, replacing any plan with the same ID.
func (s *MemorySource) Add(raw *domain.RawPlan, tags ...string) error {
	if raw == nil || raw.ID == "" {
		return &domain.ValidationError{Field: "id", Value: "", Message: "plan needs an id"}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.plans[raw.ID] = entry{plan: clonePlan(raw), tags: tags}
	s.log.Debug("added plan %s", raw.ID)
	return nil
}

// Search returns plans whose title or tags contain the query string.
func (s *MemorySource) Search(ctx context.Context, query string) ([]domain.PlanSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	q := strings.ToLower(strings.TrimSpace(query))
	s.log.Debug("searching plans for: %s", q)

	var out []domain.PlanSummary
	for _, e := range s.plans {
		if matches(e, q) {
			out = append(out, summarize(e))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Generate answers a freeform request with the built-in plan whose title
// and tags share the most words with the prompt. It lets the app run
// without a model endpoint.
func (s *MemorySource) Generate(ctx context.Context, req domain.PlanRequest) (*domain.RawPlan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	words := strings.Fields(strings.ToLower(req.Prompt))
	bestID, bestScore := "", 0
	for id, e := range s.plans {
		score := 0
		for _, w := range words {
			if len(w) > 2 && matches(e, w) {
				score++
			}
		}
		if score > bestScore || (score == bestScore && score > 0 && id < bestID) {
			bestID, bestScore = id, score
		}
	}
	if bestID == "" {
		return nil, fmt.Errorf("no built-in plan matches %q: %w", req.Prompt, domain.ErrNotFound)
	}

	raw := clonePlan(s.plans[bestID].plan)
	if req.Servings > 0 {
		raw.Servings = req.Servings
	}
	s.log.Info("matched request %q to built-in plan %s", req.Prompt, bestID)
	return raw, nil
}

func matches(e entry, query string) bool {
	if strings.Contains(strings.ToLower(e.plan.Title), query) {
		return true
	}
	for _, tag := range e.tags {
		if strings.Contains(strings.ToLower(tag), query) {
			return true
		}
	}
	return false
}

func summarize(e entry) domain.PlanSummary {
	return domain.PlanSummary{
		ID:     e.plan.ID,
		Title:  e.plan.Title,
		Stages: len(e.plan.Stages),
		Tags:   e.tags,
	}
}

func clonePlan(p *domain.RawPlan) *domain.RawPlan {
	c := *p
	if p.RecipeID != nil {
		id := *p.RecipeID
		c.RecipeID = &id
	}
	c.Equipment = append([]string(nil), p.Equipment...)
	c.Stages = make([]domain.RawStage, len(p.Stages))
	for i, st := range p.Stages {
		st.DependsOn = append([]string(nil), st.DependsOn...)
		if st.ExpectedDurationMinutes != nil {
			v := *st.ExpectedDurationMinutes
			st.ExpectedDurationMinutes = &v
		}
		if st.TargetTemperatureF != nil {
			v := *st.TargetTemperatureF
			st.TargetTemperatureF = &v
		}
		c.Stages[i] = st
	}
	return &c
}

// seed populates the source with built-in plans.
func (s *MemorySource) seed() {
	plans := []entry{
		{plan: smokedBrisket(), tags: []string{"bbq", "beef", "smoker", "low and slow"}},
		{plan: porkRibs(), tags: []string{"bbq", "pork", "smoker", "ribs"}},
		{plan: roastChicken(), tags: []string{"oven", "poultry", "weeknight", "roast"}},
	}
	for _, e := range plans {
		s.plans[e.plan.ID] = e
	}
	s.log.Debug("seeded %d plans", len(plans))
}

func minutes(v float64) *float64 { return &v }

func fahrenheit(v float64) *float64 { return &v }

func smokedBrisket() *domain.RawPlan {
	return &domain.RawPlan{
		ID:        "smoked-brisket",
		Title:     "Smoked brisket",
		Servings:  10,
		Equipment: []string{"smoker", "probe thermometer", "butcher paper"},
		Stages: []domain.RawStage{
			{Key: "trim", Instruction: "Trim the fat cap to a quarter inch and season with salt and pepper", Trigger: "manual_advance"},
			{Key: "preheat", Instruction: "Bring the smoker to 250F", ExpectedDurationMinutes: minutes(45)},
			{Key: "smoke", Instruction: "Smoke fat side up until the bark sets", ExpectedDurationMinutes: minutes(360), DependsOn: []string{"trim", "preheat"}},
			{Key: "wrap", Instruction: "Wrap tightly in butcher paper", DependsOn: []string{"smoke"}, Trigger: "manual_advance"},
			{Key: "finish", Instruction: "Cook until the flat probes at 203F", TargetTemperatureF: fahrenheit(203), DependsOn: []string{"wrap"}, Trigger: "temperature_reached"},
			{Key: "rest", Instruction: "Rest in a cooler wrapped in towels", ExpectedDurationMinutes: minutes(60), DependsOn: []string{"finish"}},
			{Key: "slice", Instruction: "Slice against the grain", DependsOn: []string{"rest"}, Trigger: "manual_advance"},
		},
	}
}

func porkRibs() *domain.RawPlan {
	return &domain.RawPlan{
		ID:        "pork-ribs",
		Title:     "3-2-1 pork ribs",
		Servings:  4,
		Equipment: []string{"smoker", "foil"},
		Stages: []domain.RawStage{
			{Key: "membrane", Instruction: "Pull the membrane and apply the rub", Trigger: "manual_advance"},
			{Key: "smoke", Instruction: "Smoke bone side down at 225F", ExpectedDurationMinutes: minutes(180), DependsOn: []string{"membrane"}},
			{Key: "wrap", Instruction: "Wrap in foil with butter and brown sugar", DependsOn: []string{"smoke"}, Trigger: "manual_advance"},
			{Key: "braise", Instruction: "Return wrapped ribs to the smoker", ExpectedDurationMinutes: minutes(120), DependsOn: []string{"wrap"}},
			{Key: "sauce", Instruction: "Unwrap, sauce and firm up the glaze", ExpectedDurationMinutes: minutes(60), DependsOn: []string{"braise"}},
		},
	}
}

func roastChicken() *domain.RawPlan {
	return &domain.RawPlan{
		ID:        "roast-chicken",
		Title:     "Roast chicken",
		Servings:  4,
		Equipment: []string{"oven", "probe thermometer"},
		Stages: []domain.RawStage{
			{Key: "preheat", Instruction: "Preheat the oven to 425F", ExpectedDurationMinutes: minutes(15)},
			{Key: "prep", Instruction: "Pat dry, butter under the skin and truss", Trigger: "manual_advance"},
			{Key: "roast", Instruction: "Roast until the thigh reads 165F", ExpectedDurationMinutes: minutes(60), TargetTemperatureF: fahrenheit(165), DependsOn: []string{"preheat", "prep"}},
			{Key: "rest", Instruction: "Rest before carving", ExpectedDurationMinutes: minutes(10), DependsOn: []string{"roast"}},
		},
	}
}
