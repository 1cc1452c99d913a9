package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewLearnCommand creates the learn command, which shows what the failure
// learning system has accumulated.
func NewLearnCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "learn",
		Short: "Show remembered mistakes, prevention rules and history stats",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, cleanup, err := buildRuntime()
			if err != nil {
				return err
			}
			defer cleanup()

			out := cmd.OutOrStdout()

			m, err := rt.corrector.Memory().Load()
			if err != nil {
				return err
			}

			if len(m.Mistakes) == 0 {
				fmt.Fprintln(out, "no mistakes recorded yet")
			}
			for _, e := range m.Mistakes {
				fmt.Fprintf(out, "[%s] %s\n", e.Category, e.Task)
				fmt.Fprintf(out, "  error: %s\n", e.Error)
				fmt.Fprintf(out, "  seen: %d time(s), last %s\n", e.RecurrenceCount, e.LastSeen.Format("2006-01-02"))
				if e.Fixed {
					fmt.Fprintf(out, "  fixed: %s\n", e.FixDescription)
				}
			}

			if len(m.PreventionRules) > 0 {
				fmt.Fprintln(out, "prevention rules:")
				for _, r := range m.PreventionRules {
					fmt.Fprintf(out, "  - %s\n", r)
				}
			}

			stats, err := rt.history.Stats(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "executions: %d total, %d completed, %d failed (%.0f%% success)\n",
				stats.TotalExecutions, stats.Completed, stats.Failed, stats.SuccessRate*100)

			if limit > 0 && stats.TotalExecutions > 0 {
				execs, err := rt.history.RecentExecutions(cmd.Context(), limit)
				if err != nil {
					return err
				}
				fmt.Fprintln(out, "recent executions:")
				for _, e := range execs {
					fmt.Fprintf(out, "  %s %s [%s] %.2f\n", e.Timestamp.Format("2006-01-02 15:04"), e.Task, e.Status, e.Confidence)
				}
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "recent", 10, "number of recent executions to show (0 hides them)")

	return cmd
}
