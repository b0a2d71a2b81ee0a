package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hammamikhairi/cookplan/internal/conversation"
	"github.com/hammamikhairi/cookplan/internal/domain"
	"github.com/hammamikhairi/cookplan/internal/plan"
)

var generateCmd = &cobra.Command{
	Use:   "generate <request>",
	Short: "Generate a cook plan from a freeform request",
	Long: `Generate a cook plan from a freeform request such as
"smoked brisket for 8, offset smoker".

With a chat endpoint configured (generator.endpoint and generator.api_key,
or GPT_CHAT_ENDPOINT and GPT_CHAT_KEY) the plan is drafted by the model;
otherwise the closest built-in plan is used. The result is validated
before it is written.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runGenerate,
}

func init() {
	rootCmd.AddCommand(generateCmd)
	generateCmd.Flags().StringSlice("equipment", nil, "available equipment (repeatable or comma-separated)")
	generateCmd.Flags().Int("servings", 0, "number of servings")
	generateCmd.Flags().StringP("output", "o", "", "write the plan to this file (.json, .yaml or .yml)")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	d, err := newDeps(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer d.Close()

	equipment, _ := cmd.Flags().GetStringSlice("equipment")
	servings, _ := cmd.Flags().GetInt("servings")
	out, _ := cmd.Flags().GetString("output")

	req := domain.PlanRequest{
		Prompt:    strings.Join(args, " "),
		Equipment: equipment,
		Servings:  servings,
	}

	fmt.Fprintln(cmd.ErrOrStderr(), dimStyle.Render(conversation.LineGenerating()))
	raw, err := d.generator().Generate(cmd.Context(), req)
	if err != nil {
		return fmt.Errorf("generating plan: %w", err)
	}
	p, err := plan.Load(raw)
	if err != nil {
		return fmt.Errorf("generated plan is invalid: %w", err)
	}

	if out == "" {
		data, err := plan.Encode(p, plan.FormatYAML)
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	}

	data, err := plan.Encode(p, plan.FormatFor(out))
	if err != nil {
		return err
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return fmt.Errorf("writing plan: %w", err)
	}
	fmt.Fprint(cmd.OutOrStdout(), renderPlan(p))
	fmt.Fprintf(cmd.OutOrStdout(), "\nSaved to %s. Start it with: cookplan cook %s\n", out, out)
	return nil
}
