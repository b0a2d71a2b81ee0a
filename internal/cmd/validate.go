package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hammamikhairi/cookplan/internal/plan"
)

var validateCmd = &cobra.Command{
	Use:   "validate <plan-file>",
	Short: "Check a plan file and show its stages",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := plan.LoadFile(args[0])
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), renderPlan(p))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
