package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harrison/preflight/internal/config"
	"github.com/harrison/preflight/internal/executor"
	"github.com/harrison/preflight/internal/models"
	"github.com/harrison/preflight/internal/orchestrator"
	"github.com/harrison/preflight/internal/parser"
	"github.com/harrison/preflight/internal/reflection"
)

// NewRunCommand creates the run command, which plans and executes a
// Markdown plan file.
func NewRunCommand() *cobra.Command {
	var dryRun bool
	var force bool

	cmd := &cobra.Command{
		Use:   "run <plan.md>",
		Short: "Plan and execute a Markdown plan file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlan(cmd, args[0], dryRun, force)
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "show the parallel groups without executing")
	cmd.Flags().BoolVar(&force, "force", false, "execute even when the confidence gate refuses")

	return cmd
}

func runPlan(cmd *cobra.Command, path string, dryRun, force bool) error {
	doc, err := parser.NewMarkdownParser().ParseFile(path)
	if err != nil {
		return err
	}

	tasks := make([]*models.Task, len(doc.Tasks))
	for i, spec := range doc.Tasks {
		spec := spec
		tasks[i] = models.NewTask(spec.Number, spec.Name, models.OperationFunc(
			func(ctx context.Context) (interface{}, error) {
				return spec.Name, nil
			}), spec.DependsOn...)
	}

	plan, err := executor.Plan(tasks)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	title := doc.Title
	if title == "" {
		title = path
	}
	fmt.Fprintf(out, "%s: %d task(s) in %d group(s), estimated speedup %.1fx\n",
		title, plan.TotalTasks, len(plan.Groups), plan.Speedup)

	groupLabel := color.New(color.FgCyan).SprintfFunc()
	for _, group := range plan.Groups {
		fmt.Fprintln(out, groupLabel("Group %d:", group.Index+1))
		for _, task := range group.Tasks {
			if len(task.DependsOn) > 0 {
				fmt.Fprintf(out, "  %s: %s (after %v)\n", task.ID, task.Description, task.DependsOn)
			} else {
				fmt.Fprintf(out, "  %s: %s\n", task.ID, task.Description)
			}
		}
	}

	threshold := 0
	if cfg, err := config.LoadConfigFromDir("."); err == nil {
		threshold = cfg.ParallelizeThreshold
	}
	if !executor.ShouldParallelize(plan.TotalTasks, threshold) {
		fmt.Fprintln(out, "note: few tasks, sequential execution would do as well")
	}

	if dryRun {
		return nil
	}

	rt, cleanup, err := buildRuntime()
	if err != nil {
		return err
	}
	defer cleanup()

	opts := orchestrator.DefaultOptions()
	opts.AutoCorrect = rt.cfg.AutoCorrect
	if force {
		// A tiny positive threshold disables the gate without touching
		// scoring.
		opts.Threshold = 0.01
	}

	taskDesc := fmt.Sprintf("execute plan %s", title)
	outcome, err := rt.orchestrator.ExecuteTasks(cmd.Context(), taskDesc, tasks,
		&reflection.Context{ProjectIndex: title}, opts)
	if err != nil {
		return err
	}

	printOutcome(out, outcome)
	if outcome.Status == orchestrator.StatusBlocked {
		return fmt.Errorf("execution blocked (confidence %.2f); rerun with --force to override", outcome.Confidence)
	}
	return nil
}

func printOutcome(out io.Writer, outcome *orchestrator.Outcome) {
	success := color.New(color.FgGreen).SprintFunc()
	fail := color.New(color.FgRed).SprintFunc()

	switch outcome.Status {
	case orchestrator.StatusSuccess:
		fmt.Fprintf(out, "%s (confidence %.2f)\n", success("all tasks completed"), outcome.Confidence)
	case orchestrator.StatusBlocked:
		fmt.Fprintf(out, "%s\n", fail("blocked by confidence gate"))
		for _, b := range outcome.Blockers {
			fmt.Fprintf(out, "  blocker: %s\n", b)
		}
		for _, r := range outcome.Recommendations {
			fmt.Fprintf(out, "  hint: %s\n", r)
		}
	default:
		fmt.Fprintf(out, "%s: %d task(s) failed\n", fail(string(outcome.Status)), len(outcome.Failed))
		for _, id := range outcome.Failed {
			fmt.Fprintf(out, "  failed: %s\n", id)
		}
	}

	if outcome.Budget != nil {
		fmt.Fprintf(out, "token budget: %d (%s tier)\n", outcome.Budget.Limit(), outcome.Budget.Complexity())
	}
}
