package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hammamikhairi/cookplan/internal/clock"
	"github.com/hammamikhairi/cookplan/internal/conversation"
	"github.com/hammamikhairi/cookplan/internal/display"
	"github.com/hammamikhairi/cookplan/internal/domain"
	"github.com/hammamikhairi/cookplan/internal/engine"
	"github.com/hammamikhairi/cookplan/internal/finalize"
	"github.com/hammamikhairi/cookplan/internal/notify"
	"github.com/hammamikhairi/cookplan/internal/timer"
)

var cookCmd = &cobra.Command{
	Use:   "cook [plan-file | catalog-id]",
	Short: "Run a cook session interactively",
	Long: `Run a cook session in the terminal.

The plan is read from a JSON or YAML file, or taken from the built-in
catalog by id (see 'cookplan plans'). Use --resume to continue a session
that was left running or paused.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCook,
}

func init() {
	rootCmd.AddCommand(cookCmd)
	cookCmd.Flags().String("resume", "", "resume the session with this id")
}

func runCook(cmd *cobra.Command, args []string) error {
	resumeID, _ := cmd.Flags().GetString("resume")
	if resumeID == "" && len(args) == 0 {
		return errors.New("give a plan file or catalog id, or --resume a session")
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	d, err := newDeps(ctx, cfg)
	if err != nil {
		return err
	}
	defer d.Close()
	log := d.log

	clk := clock.Real{}
	var machine *engine.Machine
	if resumeID != "" {
		snap, err := d.sessions.Load(ctx, resumeID)
		if err != nil {
			return fmt.Errorf("loading session %s: %w", resumeID, err)
		}
		machine, err = engine.Restore(snap, clk, log)
		if err != nil {
			return err
		}
	} else {
		p, err := resolvePlan(ctx, d.catalog, args[0])
		if err != nil {
			return err
		}
		machine = engine.New(p, clk, log)
	}

	ui := display.NewUI(machine)
	notifier := notify.NewCLINotifier(log, ui.Printf)

	opts := []timer.Option{
		timer.WithTickInterval(cfg.Engine.TickInterval),
		timer.WithReminderInterval(cfg.Engine.ReminderInterval),
		timer.WithMaxEscalation(cfg.Engine.MaxEscalation),
		timer.WithAlmostDoneThreshold(cfg.Engine.AlmostDoneThreshold),
		timer.WithStore(d.sessions),
		timer.WithWatcher(
			timer.WithPauseNudge(cfg.Engine.PauseNudge),
			timer.WithAbandonAfter(cfg.Engine.AbandonAfter),
		),
	}
	if resumeID != "" {
		opts = append(opts, timer.WithBaseline(machine.Snapshot()))
	}
	driver := timer.New(machine, notifier, log, opts...)

	app := &cookApp{
		machine:   machine,
		driver:    driver,
		parser:    conversation.NewKeywordParser(log),
		finalizer: finalize.New(clk, log),
		history:   d.history,
		ui:        ui,
		log:       log,
	}

	snap := machine.Snapshot()
	fmt.Println(display.RenderBanner(machine.Plan().Title))
	fmt.Println(display.BannerStyle.Render("  Type 'help' for commands, 'quit' to exit."))
	fmt.Println()

	go func() {
		ui.WaitReady()
		if resumeID != "" {
			ui.PrintChat(conversation.LineResumedSession(machine.Plan().Title, snap.Status))
			app.repeat()
		} else {
			ui.PrintChat(conversation.LineWelcome(machine.Plan().Title, machine.Plan().Len()))
		}
		// A new session is announced by the driver on start, so it runs only
		// once the UI can print.
		driver.Start(ctx)
		app.run(ctx, ui.InputChan())
		ui.Quit()
	}()

	// Bubble Tea owns the terminal; blocks until quit.
	if err := ui.Run(); err != nil {
		log.Error("display: %v", err)
	}
	cancel()
	driver.Stop()

	// Persist whatever the last transition was, even if the UI closed first.
	if err := d.sessions.Save(context.Background(), &domain.Snapshot{Plan: machine.Plan(), Session: machine.Snapshot()}); err != nil {
		log.Error("saving session on exit: %v", err)
	}
	return nil
}
