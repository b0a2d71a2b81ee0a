package config

import (
	"strings"
	"testing"
	"time"
)

func TestValidationError_Error(t *testing.T) {
	err := ValidationError{
		Field:   "engine.tick_interval",
		Value:   0,
		Message: "must be positive",
	}

	expected := "engine.tick_interval: must be positive (got: 0)"
	if err.Error() != expected {
		t.Errorf("Error() = %q, want %q", err.Error(), expected)
	}
}

func TestValidationErrors_Error(t *testing.T) {
	t.Run("empty errors", func(t *testing.T) {
		var errs ValidationErrors
		if errs.Error() != "" {
			t.Errorf("Error() for empty = %q, want empty string", errs.Error())
		}
	})

	t.Run("multiple errors", func(t *testing.T) {
		errs := ValidationErrors{
			{Field: "field1", Value: "bad", Message: "is invalid"},
			{Field: "field2", Value: -1, Message: "must be positive"},
		}
		result := errs.Error()
		if !strings.Contains(result, "2 validation errors") {
			t.Errorf("Error() should mention 2 errors: %s", result)
		}
		if !strings.Contains(result, "field1") || !strings.Contains(result, "field2") {
			t.Errorf("Error() should mention both fields: %s", result)
		}
	})
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(c *Config)
		wantField string
	}{
		{"unknown driver", func(c *Config) { c.Storage.Driver = "postgres" }, "storage.driver"},
		{"sqlite without path", func(c *Config) { c.Storage.Path = " " }, "storage.path"},
		{"bad log level", func(c *Config) { c.Logging.Level = "chatty" }, "logging.level"},
		{"zero tick", func(c *Config) { c.Engine.TickInterval = 0 }, "engine.tick_interval"},
		{"zero reminder", func(c *Config) { c.Engine.ReminderInterval = 0 }, "engine.reminder_interval"},
		{"negative almost done", func(c *Config) { c.Engine.AlmostDoneThreshold = -time.Second }, "engine.almost_done_threshold"},
		{"zero escalation", func(c *Config) { c.Engine.MaxEscalation = 0 }, "engine.max_escalation"},
		{"negative nudge", func(c *Config) { c.Engine.PauseNudge = -time.Minute }, "engine.pause_nudge"},
		{"negative abandon", func(c *Config) { c.Engine.AbandonAfter = -time.Minute }, "engine.abandon_after"},
		{"endpoint without scheme", func(c *Config) { c.Generator.Endpoint = "chat.example.com" }, "generator.endpoint"},
		{"temperature too high", func(c *Config) { c.Generator.Temperature = 3 }, "generator.temperature"},
		{"zero max tokens", func(c *Config) { c.Generator.MaxTokens = 0 }, "generator.max_tokens"},
		{"zero timeout", func(c *Config) { c.Generator.Timeout = 0 }, "generator.timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			errs := cfg.Validate()
			if len(errs) != 1 {
				t.Fatalf("expected 1 error, got %d: %v", len(errs), errs)
			}
			if errs[0].Field != tt.wantField {
				t.Errorf("Field = %q, want %q", errs[0].Field, tt.wantField)
			}
		})
	}
}

func TestConfig_Validate_MemoryIgnoresPath(t *testing.T) {
	cfg := Default()
	cfg.Storage.Driver = DriverMemory
	cfg.Storage.Path = ""
	if errs := cfg.Validate(); len(errs) != 0 {
		t.Errorf("memory driver should not need a path, got %v", errs)
	}
}
