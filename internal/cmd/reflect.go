package cmd

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harrison/preflight/internal/reflection"
)

// NewReflectCommand creates the reflect command, which scores a task
// description against the confidence gate without executing anything.
func NewReflectCommand() *cobra.Command {
	var branch string
	var gitStatus string
	var projectIndex string

	cmd := &cobra.Command{
		Use:   "reflect <task description>",
		Short: "Score a task against the confidence gate",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, cleanup, err := buildRuntime()
			if err != nil {
				return err
			}
			defer cleanup()

			task := strings.Join(args, " ")

			var ectx *reflection.Context
			if branch != "" || gitStatus != "" || projectIndex != "" {
				ectx = &reflection.Context{
					ProjectIndex:  projectIndex,
					CurrentBranch: branch,
					GitStatus:     gitStatus,
				}
			}

			assessment := rt.reflector.Reflect(task, ectx)
			if err := rt.reflector.RecordReflection(assessment); err != nil {
				rt.log.LogWarn(fmt.Sprintf("failed to record reflection: %v", err))
			}

			out := cmd.OutOrStdout()
			for _, f := range assessment.Factors {
				fmt.Fprintf(out, "%-10s %.2f (weight %.2f)\n", f.Name, f.Score, f.Weight)
				for _, e := range f.Evidence {
					fmt.Fprintf(out, "  + %s\n", e)
				}
				for _, c := range f.Concerns {
					fmt.Fprintf(out, "  - %s\n", c)
				}
			}

			verdict := color.New(color.FgGreen).SprintFunc()
			if !assessment.ShouldProceed {
				verdict = color.New(color.FgRed).SprintFunc()
			}
			decision := "proceed"
			if !assessment.ShouldProceed {
				decision = "blocked"
			}
			fmt.Fprintf(out, "confidence %.2f (threshold %.2f): %s\n",
				assessment.Score, rt.reflector.Threshold(), verdict(decision))

			for _, r := range assessment.Recommendations {
				fmt.Fprintf(out, "hint: %s\n", r)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&branch, "branch", "", "current branch for the context factor")
	cmd.Flags().StringVar(&gitStatus, "git-status", "", "working tree status for the context factor")
	cmd.Flags().StringVar(&projectIndex, "project-index", "", "project structure summary for the context factor")

	return cmd
}
