package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/harrison/preflight/internal/config"
	"github.com/harrison/preflight/internal/correction"
	"github.com/harrison/preflight/internal/executor"
	"github.com/harrison/preflight/internal/history"
	"github.com/harrison/preflight/internal/logger"
	"github.com/harrison/preflight/internal/orchestrator"
	"github.com/harrison/preflight/internal/reflection"
)

// Version is injected at build time via -ldflags
var Version = "dev"

// NewRootCommand creates and returns the root cobra command for preflight
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "preflight",
		Short: "Confidence-gated parallel task execution with failure learning",
		Long: `Preflight plans task dependencies into parallel groups, gates execution
behind a three-factor confidence assessment, and learns from failures so
the same mistake is flagged before it happens again.`,
		Version: Version,
		// Silence usage on errors to avoid duplicate help text
		SilenceUsage: true,
	}

	cmd.AddCommand(NewRunCommand())
	cmd.AddCommand(NewReflectCommand())
	cmd.AddCommand(NewLearnCommand())
	cmd.AddCommand(NewBudgetCommand())

	return cmd
}

// runtime bundles the wired engines for a CLI invocation.
type runtime struct {
	cfg          *config.Config
	orchestrator *orchestrator.Orchestrator
	corrector    *correction.Engine
	reflector    *reflection.Engine
	history      *history.Store
	log          *logger.ConsoleLogger
}

// buildRuntime loads configuration from the working directory and wires the
// engines. The returned cleanup closes the history store.
func buildRuntime() (*runtime, func(), error) {
	workDir, err := os.Getwd()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to determine working directory: %w", err)
	}

	cfg, err := config.LoadConfigFromDir(workDir)
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}

	log := logger.NewConsoleLogger(os.Stderr, cfg.LogLevel)

	memory := correction.NewMemoryStore(cfg.MemoryDir)
	corrector := correction.NewEngine(memory, log)

	reflector := reflection.NewEngine(corrector, workDir, cfg.MemoryDir, log)
	reflector.SetThreshold(cfg.ConfidenceThreshold)

	store, err := history.NewStore(cfg.HistoryDB)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open history store: %w", err)
	}

	exec := executor.NewParallelExecutor(cfg.MaxWorkers, log)
	orch := orchestrator.New(reflector, corrector, exec, store, log)

	rt := &runtime{
		cfg:          cfg,
		orchestrator: orch,
		corrector:    corrector,
		reflector:    reflector,
		history:      store,
		log:          log,
	}
	return rt, func() { store.Close() }, nil
}
