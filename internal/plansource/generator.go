package plansource

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/hammamikhairi/cookplan/internal/domain"
	"github.com/hammamikhairi/cookplan/internal/logger"
	"github.com/hammamikhairi/cookplan/internal/plan"
)

// Compile-time interface check.
var _ domain.PlanGenerator = (*Generator)(nil)

// Generator produces raw plans by prompting a chat model. It checks only
// that the reply is a JSON plan; plan.Load does the real validation.
type Generator struct {
	client *Client
	log    *logger.Logger
}

// NewGenerator creates a generator on top of client.
func NewGenerator(client *Client, log *logger.Logger) *Generator {
	return &Generator{client: client, log: log}
}

// Generate asks the model for a plan matching req.
func (g *Generator) Generate(ctx context.Context, req domain.PlanRequest) (*domain.RawPlan, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return nil, &domain.ValidationError{Field: "prompt", Value: req.Prompt, Message: "must not be empty"}
	}

	reply, err := g.client.Complete(ctx, Completion{Messages: buildMessages(req), JSON: true})
	if err != nil {
		return nil, fmt.Errorf("generating plan: %w", err)
	}

	raw, err := plan.Decode([]byte(stripCodeFence(reply.Content)), plan.FormatJSON)
	if err != nil {
		g.log.Warn("plansource: unparseable plan reply: %s", truncate(reply.Content, 200))
		return nil, fmt.Errorf("generating plan: %w", err)
	}
	if raw.ID == "" {
		raw.ID = uuid.NewString()
	}
	if raw.Servings == 0 && req.Servings > 0 {
		raw.Servings = req.Servings
	}
	if len(raw.Equipment) == 0 {
		raw.Equipment = append([]string(nil), req.Equipment...)
	}

	g.log.Info("generated plan %s %q with %d stages", raw.ID, raw.Title, len(raw.Stages))
	return raw, nil
}

func buildMessages(req domain.PlanRequest) []Message {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(req.Prompt))
	if len(req.Equipment) > 0 {
		fmt.Fprintf(&b, "\nEquipment: %s", strings.Join(req.Equipment, ", "))
	}
	if req.Servings > 0 {
		fmt.Fprintf(&b, "\nServings: %d", req.Servings)
	}
	return []Message{
		{Role: RoleSystem, Content: PromptPlan},
		{Role: RoleUser, Content: b.String()},
	}
}

// stripCodeFence removes ```json ... ``` wrappers that LLMs love to add.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		// Remove opening fence line.
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		}
		// Remove closing fence.
		if idx := strings.LastIndex(s, "```"); idx != -1 {
			s = s[:idx]
		}
	}
	return strings.TrimSpace(s)
}
