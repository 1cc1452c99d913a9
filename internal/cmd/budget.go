package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harrison/preflight/internal/budget"
)

// NewBudgetCommand creates the budget command, which shows the token
// budget for a complexity tier.
func NewBudgetCommand() *cobra.Command {
	return &cobra.Command{
		Use:       "budget [simple|medium|complex]",
		Short:     "Show the token budget for a complexity tier",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"simple", "medium", "complex"},
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			if len(args) == 0 {
				for _, tier := range []budget.Complexity{budget.Simple, budget.Medium, budget.Complex} {
					fmt.Fprintf(out, "%-8s %d tokens\n", tier, budget.Limits[tier])
				}
				return nil
			}

			b := budget.NewTokenBudget(budget.Complexity(args[0]))
			fmt.Fprintf(out, "%s: %d tokens\n", b.Complexity(), b.Limit())
			return nil
		},
	}
}
