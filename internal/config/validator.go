package config

import (
	"fmt"
	"net/url"
	"slices"
	"strings"

	"github.com/hammamikhairi/cookplan/internal/logger"
)

// Storage drivers.
const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
)

// ValidDrivers returns the list of valid storage drivers
func ValidDrivers() []string {
	return []string{DriverMemory, DriverSQLite}
}

// ValidationError represents a single validation failure
type ValidationError struct {
	Field   string // The config field path (e.g., "engine.tick_interval")
	Value   any    // The invalid value
	Message string // Human-readable error description
}

// Error implements the error interface for ValidationError
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for ValidationErrors
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e)))
	for i, err := range e {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// Validate checks the Config for invalid values and returns all validation errors found
func (c *Config) Validate() []ValidationError {
	var errors []ValidationError
	errors = append(errors, c.validateStorage()...)
	errors = append(errors, c.validateLogging()...)
	errors = append(errors, c.validateEngine()...)
	errors = append(errors, c.validateGenerator()...)
	return errors
}

func (c *Config) validateStorage() []ValidationError {
	var errors []ValidationError
	if !slices.Contains(ValidDrivers(), c.Storage.Driver) {
		errors = append(errors, ValidationError{
			Field:   "storage.driver",
			Value:   c.Storage.Driver,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidDrivers(), ", ")),
		})
	}
	if c.Storage.Driver == DriverSQLite && strings.TrimSpace(c.Storage.Path) == "" {
		errors = append(errors, ValidationError{
			Field:   "storage.path",
			Value:   c.Storage.Path,
			Message: "is required for the sqlite driver",
		})
	}
	return errors
}

func (c *Config) validateLogging() []ValidationError {
	if _, err := logger.ParseLevel(c.Logging.Level); err != nil {
		return []ValidationError{{
			Field:   "logging.level",
			Value:   c.Logging.Level,
			Message: "must be one of: off, normal, verbose, debug, info, warn, error",
		}}
	}
	return nil
}

func (c *Config) validateEngine() []ValidationError {
	var errors []ValidationError
	e := c.Engine

	if e.TickInterval <= 0 {
		errors = append(errors, ValidationError{Field: "engine.tick_interval", Value: e.TickInterval, Message: "must be positive"})
	}
	if e.ReminderInterval <= 0 {
		errors = append(errors, ValidationError{Field: "engine.reminder_interval", Value: e.ReminderInterval, Message: "must be positive"})
	}
	if e.AlmostDoneThreshold < 0 {
		errors = append(errors, ValidationError{Field: "engine.almost_done_threshold", Value: e.AlmostDoneThreshold, Message: "must be non-negative"})
	}
	if e.MaxEscalation < 1 {
		errors = append(errors, ValidationError{Field: "engine.max_escalation", Value: e.MaxEscalation, Message: "must be at least 1"})
	}
	if e.PauseNudge < 0 {
		errors = append(errors, ValidationError{Field: "engine.pause_nudge", Value: e.PauseNudge, Message: "must be non-negative (0 disables)"})
	}
	if e.AbandonAfter < 0 {
		errors = append(errors, ValidationError{Field: "engine.abandon_after", Value: e.AbandonAfter, Message: "must be non-negative (0 disables)"})
	}
	return errors
}

func (c *Config) validateGenerator() []ValidationError {
	var errors []ValidationError
	g := c.Generator

	if g.Endpoint != "" {
		u, err := url.Parse(g.Endpoint)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errors = append(errors, ValidationError{Field: "generator.endpoint", Value: g.Endpoint, Message: "must be an http(s) URL"})
		}
	}
	if g.Temperature < 0 || g.Temperature > 2 {
		errors = append(errors, ValidationError{Field: "generator.temperature", Value: g.Temperature, Message: "must be between 0 and 2"})
	}
	if g.MaxTokens <= 0 {
		errors = append(errors, ValidationError{Field: "generator.max_tokens", Value: g.MaxTokens, Message: "must be positive"})
	}
	if g.Timeout <= 0 {
		errors = append(errors, ValidationError{Field: "generator.timeout", Value: g.Timeout, Message: "must be positive"})
	}
	return errors
}
