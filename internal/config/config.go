// Package config loads cookplan settings from defaults, a YAML file and the
// environment through viper.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/hammamikhairi/cookplan/internal/logger"
)

// EnvPrefix is prepended to every config key read from the environment,
// e.g. COOKPLAN_ENGINE_TICK_INTERVAL for engine.tick_interval.
const EnvPrefix = "COOKPLAN"

// Legacy environment variables for the chat endpoint, honoured alongside
// the prefixed ones.
const (
	EnvChatKey      = "GPT_CHAT_KEY"
	EnvChatEndpoint = "GPT_CHAT_ENDPOINT"
)

// Config represents the complete cookplan configuration
type Config struct {
	Storage   StorageConfig   `mapstructure:"storage"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Engine    EngineConfig    `mapstructure:"engine"`
	Generator GeneratorConfig `mapstructure:"generator"`
}

// StorageConfig selects where sessions and history are kept
type StorageConfig struct {
	// Driver is "memory" or "sqlite"
	Driver string `mapstructure:"driver"`
	// Path is the SQLite database file, ignored by the memory driver
	Path string `mapstructure:"path"`
}

// LoggingConfig controls log verbosity and destination
type LoggingConfig struct {
	// Level is one of off, normal, verbose (slog names are accepted too)
	Level string `mapstructure:"level"`
	// File receives log output; "stderr" logs to the console
	File string `mapstructure:"file"`
}

// EngineConfig controls the session driver and watcher
type EngineConfig struct {
	TickInterval        time.Duration `mapstructure:"tick_interval"`
	ReminderInterval    time.Duration `mapstructure:"reminder_interval"`
	AlmostDoneThreshold time.Duration `mapstructure:"almost_done_threshold"`
	MaxEscalation       int           `mapstructure:"max_escalation"`
	// PauseNudge is how long a pause lasts before the user is reminded (0 = never)
	PauseNudge time.Duration `mapstructure:"pause_nudge"`
	// AbandonAfter abandons a session paused for this long (0 = never)
	AbandonAfter time.Duration `mapstructure:"abandon_after"`
}

// GeneratorConfig points at an OpenAI-compatible chat-completions endpoint
type GeneratorConfig struct {
	Endpoint    string        `mapstructure:"endpoint"`
	APIKey      string        `mapstructure:"api_key"`
	Model       string        `mapstructure:"model"`
	Temperature float64       `mapstructure:"temperature"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	Timeout     time.Duration `mapstructure:"timeout"`
	// JSONMode asks the endpoint for a JSON object reply; turn it off for
	// deployments that reject response_format
	JSONMode bool `mapstructure:"json_mode"`
}

// Enabled reports whether both an endpoint and a key are configured.
func (g GeneratorConfig) Enabled() bool {
	return g.Endpoint != "" && g.APIKey != ""
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Storage: StorageConfig{
			Driver: DriverSQLite,
			Path:   filepath.Join(DataDir(), "cookplan.db"),
		},
		Logging: LoggingConfig{
			Level: logger.LevelNormal.String(),
			File:  filepath.Join(".cookplan", "cookplan.log"),
		},
		Engine: EngineConfig{
			TickInterval:        time.Second,
			ReminderInterval:    2 * time.Minute,
			AlmostDoneThreshold: 30 * time.Second,
			MaxEscalation:       3,
			PauseNudge:          10 * time.Minute,
		},
		Generator: GeneratorConfig{
			Model:       "gpt-4o-mini",
			Temperature: 0.4,
			MaxTokens:   2048,
			Timeout:     60 * time.Second,
			JSONMode:    true,
		},
	}
}

// SetDefaults registers default values with viper
func SetDefaults() {
	defaults := Default()

	viper.SetDefault("storage.driver", defaults.Storage.Driver)
	viper.SetDefault("storage.path", defaults.Storage.Path)

	viper.SetDefault("logging.level", defaults.Logging.Level)
	viper.SetDefault("logging.file", defaults.Logging.File)

	viper.SetDefault("engine.tick_interval", defaults.Engine.TickInterval)
	viper.SetDefault("engine.reminder_interval", defaults.Engine.ReminderInterval)
	viper.SetDefault("engine.almost_done_threshold", defaults.Engine.AlmostDoneThreshold)
	viper.SetDefault("engine.max_escalation", defaults.Engine.MaxEscalation)
	viper.SetDefault("engine.pause_nudge", defaults.Engine.PauseNudge)
	viper.SetDefault("engine.abandon_after", defaults.Engine.AbandonAfter)

	viper.SetDefault("generator.endpoint", defaults.Generator.Endpoint)
	viper.SetDefault("generator.api_key", defaults.Generator.APIKey)
	viper.SetDefault("generator.model", defaults.Generator.Model)
	viper.SetDefault("generator.temperature", defaults.Generator.Temperature)
	viper.SetDefault("generator.max_tokens", defaults.Generator.MaxTokens)
	viper.SetDefault("generator.timeout", defaults.Generator.Timeout)
	viper.SetDefault("generator.json_mode", defaults.Generator.JSONMode)
}

// BindLegacyEnv lets the unprefixed chat variables fill the generator
// section. Prefixed variables win when both are set.
func BindLegacyEnv() {
	_ = viper.BindEnv("generator.api_key", EnvPrefix+"_GENERATOR_API_KEY", EnvChatKey)
	_ = viper.BindEnv("generator.endpoint", EnvPrefix+"_GENERATOR_ENDPOINT", EnvChatEndpoint)
}

// Load reads the configuration from viper into a Config struct and validates it
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}

	return &cfg, nil
}

// ConfigDir returns the path to the user's config directory
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "cookplan")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".cookplan"
	}
	return filepath.Join(home, ".config", "cookplan")
}

// ConfigFile returns the path to the config file
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// DataDir returns the directory holding the session database
func DataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "cookplan")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".cookplan"
	}
	return filepath.Join(home, ".local", "share", "cookplan")
}

// Setup prepares viper: defaults, config file search paths and environment
// bindings, then reads the config file if one exists. An explicit cfgFile
// that cannot be read is an error; a missing default file is not.
func Setup(cfgFile string) error {
	SetDefaults()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(ConfigDir())
		viper.AddConfigPath(".")
	}

	viper.SetEnvPrefix(EnvPrefix)
	// engine.tick_interval -> COOKPLAN_ENGINE_TICK_INTERVAL
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	BindLegacyEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile == "" && errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("reading config: %w", err)
	}
	return nil
}
