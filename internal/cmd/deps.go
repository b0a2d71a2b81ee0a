package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hammamikhairi/cookplan/internal/config"
	"github.com/hammamikhairi/cookplan/internal/domain"
	"github.com/hammamikhairi/cookplan/internal/logger"
	"github.com/hammamikhairi/cookplan/internal/plan"
	"github.com/hammamikhairi/cookplan/internal/plansource"
	"github.com/hammamikhairi/cookplan/internal/storage"
	"github.com/hammamikhairi/cookplan/internal/storage/sqlite"
)

// deps holds everything a command may need, built from config.
type deps struct {
	cfg      *config.Config
	log      *logger.Logger
	sessions domain.SessionStore
	history  domain.LogStore
	catalog  *plansource.MemorySource
	closers  []func()
}

// newDeps loads config and opens the configured stores.
func newDeps(ctx context.Context, cfg *config.Config) (*deps, error) {
	log, closeLog, err := newLogger(cfg.Logging)
	if err != nil {
		return nil, err
	}
	d := &deps{
		cfg:     cfg,
		log:     log,
		catalog: plansource.NewMemorySource(log),
		closers: []func(){closeLog},
	}

	switch cfg.Storage.Driver {
	case config.DriverMemory:
		d.sessions = storage.NewMemoryStore(log)
		d.history = storage.NewMemoryLog(log)
	case config.DriverSQLite:
		if dir := filepath.Dir(cfg.Storage.Path); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				d.Close()
				return nil, fmt.Errorf("creating data dir: %w", err)
			}
		}
		db, err := sqlite.New(cfg.Storage.Path, log)
		if err != nil {
			d.Close()
			return nil, err
		}
		// Registered before Migrate so a failed migration still closes the db.
		d.closers = append(d.closers, func() { _ = db.Close() })
		if err := db.Migrate(ctx); err != nil {
			d.Close()
			return nil, err
		}
		d.sessions = db.Sessions()
		d.history = db.History()
	default:
		d.Close()
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}

	log.Debug("storage ready (driver=%s)", cfg.Storage.Driver)
	return d, nil
}

// Close releases stores and the log file, newest first.
func (d *deps) Close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		d.closers[i]()
	}
}

// generator returns the chat-backed generator when configured, falling back
// to keyword matching over the built-in catalog.
func (d *deps) generator() domain.PlanGenerator {
	g := d.cfg.Generator
	if !g.Enabled() {
		d.log.Info("plan generator: built-in catalog (set %s and %s to use a chat endpoint)", config.EnvChatKey, config.EnvChatEndpoint)
		return d.catalog
	}
	client := plansource.NewClient(g.Endpoint, g.APIKey, d.log,
		plansource.WithModel(g.Model),
		plansource.WithTemperature(g.Temperature),
		plansource.WithMaxTokens(g.MaxTokens),
		plansource.WithHTTPTimeout(g.Timeout),
		plansource.WithJSONMode(g.JSONMode),
	)
	d.log.Info("plan generator: chat endpoint (model=%s)", g.Model)
	return plansource.NewGenerator(client, d.log)
}

// resolvePlan loads a plan from a file path, or from the catalog when no
// such file exists.
func resolvePlan(ctx context.Context, catalog domain.PlanCatalog, ref string) (*domain.CookPlan, error) {
	if _, err := os.Stat(ref); err == nil {
		return plan.LoadFile(ref)
	}
	raw, err := catalog.Get(ctx, ref)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%q is neither a plan file nor a catalog plan: %w", ref, err)
		}
		return nil, err
	}
	return plan.Load(raw)
}
