package plansource

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hammamikhairi/cookplan/internal/domain"
	"github.com/hammamikhairi/cookplan/internal/logger"
	"github.com/hammamikhairi/cookplan/internal/plan"
)

const fencedPlan = "```json\n" + `{
  "title": "Pulled pork",
  "stages": [
    {"key": "rub", "instruction": "Rub the shoulder", "trigger": "manual_advance"},
    {"key": "smoke", "instruction": "Smoke at 250F", "expected_duration_minutes": 480, "depends_on": ["rub"]},
    {"key": "probe", "instruction": "Pull at 203F", "target_temperature_f": 203, "depends_on": ["smoke"], "trigger": "temperature_reached"}
  ]
}` + "\n```"

func chatServer(t *testing.T, status int, body string, seen *completionRequest) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("api-key") != "secret" {
			t.Errorf("expected api-key header, got %q", r.Header.Get("api-key"))
		}
		if seen != nil {
			if err := json.NewDecoder(r.Body).Decode(seen); err != nil {
				t.Errorf("decode request: %v", err)
			}
		}
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func replyBody(t *testing.T, content, finish string) string {
	t.Helper()
	data, err := json.Marshal(map[string]any{
		"choices": []map[string]any{{
			"message":       Message{Role: RoleAssistant, Content: content},
			"finish_reason": finish,
		}},
		"usage": Usage{PromptTokens: 120, CompletionTokens: 80},
	})
	if err != nil {
		t.Fatalf("encode reply: %v", err)
	}
	return string(data)
}

func TestGeneratorGenerate(t *testing.T) {
	var seen completionRequest
	srv := chatServer(t, http.StatusOK, replyBody(t, fencedPlan, "stop"), &seen)
	log := logger.New(logger.LevelOff, nil)
	gen := NewGenerator(NewClient(srv.URL, "secret", log, WithModel("test-model")), log)

	raw, err := gen.Generate(context.Background(), domain.PlanRequest{
		Prompt:    "pulled pork for a party",
		Equipment: []string{"pellet smoker"},
		Servings:  12,
	})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if raw.ID == "" || raw.Title != "Pulled pork" || raw.Servings != 12 {
		t.Fatalf("unexpected plan %+v", raw)
	}
	if len(raw.Equipment) != 1 || raw.Equipment[0] != "pellet smoker" {
		t.Fatalf("expected request equipment to carry over, got %v", raw.Equipment)
	}
	if _, err := plan.Load(raw); err != nil {
		t.Fatalf("generated plan does not load: %v", err)
	}

	if seen.Model != "test-model" || len(seen.Messages) != 2 {
		t.Fatalf("unexpected request %+v", seen)
	}
	if seen.Messages[0].Role != RoleSystem || !strings.Contains(seen.Messages[1].Content, "Equipment: pellet smoker") {
		t.Fatalf("unexpected messages %+v", seen.Messages)
	}
	if seen.ResponseFormat == nil || seen.ResponseFormat.Type != "json_object" {
		t.Fatalf("expected json_object response format, got %+v", seen.ResponseFormat)
	}
}

func TestGeneratorErrors(t *testing.T) {
	log := logger.New(logger.LevelOff, nil)
	ctx := context.Background()

	bad := chatServer(t, http.StatusOK, replyBody(t, "I'd love to help! First, light the grill.", "stop"), nil)
	if _, err := NewGenerator(NewClient(bad.URL, "secret", log), log).Generate(ctx, domain.PlanRequest{Prompt: "ribs"}); err == nil {
		t.Fatal("expected decode error for prose reply")
	}

	down := chatServer(t, http.StatusTooManyRequests, `{"error":{"message":"slow down","type":"rate_limit_error"}}`, nil)
	_, err := NewGenerator(NewClient(down.URL, "secret", log), log).Generate(ctx, domain.PlanRequest{Prompt: "ribs"})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusTooManyRequests || apiErr.Type != "rate_limit_error" || apiErr.Message != "slow down" {
		t.Fatalf("unexpected API error %+v", apiErr)
	}

	cut := chatServer(t, http.StatusOK, replyBody(t, `{"title": "Ribs", "stages": [`, "length"), nil)
	if _, err := NewGenerator(NewClient(cut.URL, "secret", log), log).Generate(ctx, domain.PlanRequest{Prompt: "ribs"}); !errors.Is(err, ErrTruncated) {
		t.Fatalf("expected ErrTruncated, got %v", err)
	}

	gen := NewGenerator(NewClient(bad.URL, "secret", log), log)
	if _, err := gen.Generate(ctx, domain.PlanRequest{Prompt: "  "}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error for empty prompt, got %v", err)
	}
}

func TestClientJSONModeOff(t *testing.T) {
	var seen completionRequest
	srv := chatServer(t, http.StatusOK, replyBody(t, "{}", "stop"), &seen)
	log := logger.New(logger.LevelOff, nil)
	c := NewClient(srv.URL, "secret", log, WithJSONMode(false), WithMaxTokens(512))

	reply, err := c.Complete(context.Background(), Completion{
		Messages: []Message{{Role: RoleUser, Content: "plan"}},
		JSON:     true,
	})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if seen.ResponseFormat != nil {
		t.Fatalf("expected no response format, got %+v", seen.ResponseFormat)
	}
	if seen.MaxTokens != 512 {
		t.Fatalf("expected max_tokens 512, got %d", seen.MaxTokens)
	}
	if reply.FinishReason != "stop" || reply.Usage.CompletionTokens != 80 {
		t.Fatalf("unexpected reply %+v", reply)
	}
}

func TestAPIErrorPlainBody(t *testing.T) {
	tests := []struct {
		status int
		body   string
		want   string
	}{
		{http.StatusBadGateway, "bad gateway\n", "bad gateway"},
		{http.StatusServiceUnavailable, "", "Service Unavailable"},
		{http.StatusBadRequest, `{"error":"nope"}`, `{"error":"nope"}`},
	}
	for _, tt := range tests {
		var e *APIError
		if !errors.As(apiError(tt.status, []byte(tt.body)), &e) {
			t.Fatalf("expected APIError for %d", tt.status)
		}
		if e.StatusCode != tt.status || e.Message != tt.want {
			t.Fatalf("apiError(%d, %q) = %+v, want message %q", tt.status, tt.body, e, tt.want)
		}
	}
}

func TestStripCodeFence(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"{}", "{}"},
		{"```json\n{\"a\":1}\n```", "{\"a\":1}"},
		{"  ```\n{}\n```  ", "{}"},
	}
	for _, tt := range tests {
		if got := stripCodeFence(tt.in); got != tt.want {
			t.Fatalf("stripCodeFence(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestMemorySourceBuiltinsLoad(t *testing.T) {
	src := NewMemorySource(logger.New(logger.LevelOff, nil))
	ctx := context.Background()

	list, err := src.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) < 3 {
		t.Fatalf("expected at least 3 plans, got %d", len(list))
	}
	for _, sum := range list {
		raw, err := src.Get(ctx, sum.ID)
		if err != nil {
			t.Fatalf("get %s: %v", sum.ID, err)
		}
		if _, err := plan.Load(raw); err != nil {
			t.Fatalf("built-in plan %s is invalid: %v", sum.ID, err)
		}
	}
}

func TestMemorySourceGet(t *testing.T) {
	src := NewMemorySource(logger.New(logger.LevelOff, nil))
	ctx := context.Background()

	tests := []struct {
		id      string
		wantErr error
	}{
		{"smoked-brisket", nil},
		{"roast-chicken", nil},
		{"nonexistent", domain.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			_, err := src.Get(ctx, tt.id)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}

	// Callers get copies.
	raw, _ := src.Get(ctx, "pork-ribs")
	raw.Stages[0].Key = "mutated"
	again, _ := src.Get(ctx, "pork-ribs")
	if again.Stages[0].Key != "membrane" {
		t.Fatal("Get leaked internal state")
	}
}

func TestMemorySourceGenerateAndSearch(t *testing.T) {
	src := NewMemorySource(logger.New(logger.LevelOff, nil))
	ctx := context.Background()

	raw, err := src.Generate(ctx, domain.PlanRequest{Prompt: "some pork ribs on the smoker", Servings: 6})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if raw.ID != "pork-ribs" || raw.Servings != 6 {
		t.Fatalf("expected pork-ribs for 6, got %s for %d", raw.ID, raw.Servings)
	}

	if _, err := src.Generate(ctx, domain.PlanRequest{Prompt: "sushi"}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	found, err := src.Search(ctx, "BBQ")
	if err != nil || len(found) != 2 {
		t.Fatalf("expected 2 bbq plans, got %d (%v)", len(found), err)
	}

	if err := src.Add(&domain.RawPlan{ID: "tea", Title: "Iced tea", Stages: []domain.RawStage{{Key: "steep"}}}, "drink"); err != nil {
		t.Fatalf("add: %v", err)
	}
	if found, _ := src.Search(ctx, "drink"); len(found) != 1 || found[0].ID != "tea" {
		t.Fatalf("expected added plan to be searchable, got %v", found)
	}
}
