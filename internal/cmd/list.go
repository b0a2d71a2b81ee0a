package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var plansCmd = &cobra.Command{
	Use:   "plans",
	Short: "List the built-in plan catalog",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		d, err := newDeps(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer d.Close()

		plans, err := d.catalog.List(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), renderCatalog(plans))
		return nil
	},
}

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List running and paused sessions that can be resumed",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		d, err := newDeps(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer d.Close()

		snaps, err := d.sessions.ListActive(cmd.Context())
		if err != nil {
			return fmt.Errorf("listing sessions: %w", err)
		}
		fmt.Fprint(cmd.OutOrStdout(), renderSessions(snaps, time.Now()))
		return nil
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show the cook log, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		d, err := newDeps(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer d.Close()

		limit, _ := cmd.Flags().GetInt("limit")
		offset, _ := cmd.Flags().GetInt("offset")
		entries, err := d.history.List(cmd.Context(), limit, offset)
		if err != nil {
			return fmt.Errorf("listing history: %w", err)
		}
		fmt.Fprint(cmd.OutOrStdout(), renderHistory(entries))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(plansCmd)
	rootCmd.AddCommand(sessionsCmd)
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().Int("limit", 20, "maximum entries to show (0 for all)")
	historyCmd.Flags().Int("offset", 0, "entries to skip")
}
