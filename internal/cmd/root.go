// Package cmd wires the cookplan command line.
package cmd

import (
	"fmt"
	"io"
	stdlog "log"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hammamikhairi/cookplan/internal/config"
	"github.com/hammamikhairi/cookplan/internal/logger"
)

var rootCmd = &cobra.Command{
	Use:   "cookplan",
	Short: "Stage-by-stage cook session runner",
	Long: `cookplan runs cook plans: dependency-ordered stages that finish after a
set time, at a target probe temperature, or when you say so. Sessions
survive restarts and every finished cook can be rated and kept in a log.`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (default is $HOME/.config/cookplan/config.yaml)")
	rootCmd.PersistentFlags().Bool("verbose", false, "enable verbose/debug logging")
	rootCmd.PersistentFlags().Bool("quiet", false, "disable all logging")
	rootCmd.PersistentFlags().String("log-file", "", "file to write logs to (use \"stderr\" to log to console)")

	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag("logging.file", rootCmd.PersistentFlags().Lookup("log-file"))
}

// configErr holds a config file read failure until a command runs, since
// OnInitialize hooks cannot return errors.
var configErr error

func initConfig() {
	// .env is optional.
	_ = godotenv.Load()
	configErr = config.Setup(viper.GetString("config"))
}

// loadConfig returns the validated configuration with command-line
// verbosity flags applied.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	if configErr != nil {
		return nil, configErr
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if v, _ := cmd.Flags().GetBool("verbose"); v {
		cfg.Logging.Level = logger.LevelVerbose.String()
	}
	if q, _ := cmd.Flags().GetBool("quiet"); q {
		cfg.Logging.Level = logger.LevelOff.String()
	}
	return cfg, nil
}

// newLogger builds the application logger. Logs go to a file by default so
// the terminal UI stays clean. The returned func closes the file.
func newLogger(cfg config.LoggingConfig) (*logger.Logger, func(), error) {
	level, err := logger.ParseLevel(cfg.Level)
	if err != nil {
		return nil, nil, err
	}

	var out io.Writer = os.Stderr
	closeFn := func() {}
	if cfg.File != "" && cfg.File != "stderr" && level != logger.LevelOff {
		if dir := filepath.Dir(cfg.File); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, nil, fmt.Errorf("creating log dir: %w", err)
			}
		}
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not open log file %s: %v (falling back to stderr)\n", cfg.File, err)
		} else {
			out = f
			closeFn = func() { _ = f.Close() }
		}
	}

	// Third-party packages that use the standard log package write to the
	// same place.
	stdlog.SetOutput(out)
	stdlog.SetFlags(stdlog.Ltime)

	return logger.New(level, out), closeFn, nil
}
