// Package orchestrator composes the planner, executor, reflection and
// self-correction engines behind three entry points: QuickExecute for
// gate-free batches, IntelligentExecute for confidence-gated batches with
// failure learning, and SafeExecute for single gated operations.
package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/harrison/preflight/internal/budget"
	"github.com/harrison/preflight/internal/correction"
	"github.com/harrison/preflight/internal/executor"
	"github.com/harrison/preflight/internal/history"
	"github.com/harrison/preflight/internal/models"
	"github.com/harrison/preflight/internal/reflection"
)

// Status classifies the overall outcome of a batch execution.
type Status string

const (
	StatusSuccess        Status = "success"
	StatusPartialFailure Status = "partial_failure"
	StatusFailed         Status = "failed"
	StatusBlocked        Status = "blocked"
)

// Options tune a single execution. Start from DefaultOptions.
type Options struct {
	// AutoCorrect runs root-cause analysis and records failures in the
	// mistake memory after execution.
	AutoCorrect bool
	// Threshold overrides the reflection gate for this call when > 0.
	Threshold float64
}

// DefaultOptions returns the standard options: auto-correction on, the
// engine's own confidence threshold.
func DefaultOptions() Options {
	return Options{AutoCorrect: true}
}

// Outcome is the structured result of a gated batch execution.
type Outcome struct {
	Status          Status
	Confidence      float64
	Assessment      *reflection.Assessment
	Results         map[string]interface{}
	Failed          []string
	Blockers        []string
	Recommendations []string
	Budget          *budget.TokenBudget
	Speedup         float64
}

// BlockedError is returned by SafeExecute when reflection refuses the
// operation.
type BlockedError struct {
	Task       string
	Assessment *reflection.Assessment
}

// Error implements the error interface.
func (e *BlockedError) Error() string {
	return fmt.Sprintf("execution blocked for %q (confidence %.2f, threshold not met)",
		e.Task, e.Assessment.Score)
}

// Logger is the minimal logging surface the orchestrator needs. A nil
// Logger disables logging.
type Logger interface {
	LogInfo(message string)
	LogWarn(message string)
}

// Orchestrator wires the engines together. The history store is optional;
// a nil store disables execution recording.
type Orchestrator struct {
	reflector *reflection.Engine
	corrector *correction.Engine
	executor  *executor.ParallelExecutor
	history   *history.Store
	logger    Logger
}

// New creates an orchestrator from its collaborators. reflector, corrector
// and exec are required; history and logger may be nil.
func New(reflector *reflection.Engine, corrector *correction.Engine, exec *executor.ParallelExecutor, store *history.Store, logger Logger) *Orchestrator {
	return &Orchestrator{
		reflector: reflector,
		corrector: corrector,
		executor:  exec,
		history:   store,
		logger:    logger,
	}
}

// QuickExecute runs independent operations concurrently without any
// confidence gate and returns their results in input order. A failed
// operation contributes a nil result; operation failures never produce an
// error.
func (o *Orchestrator) QuickExecute(ctx context.Context, ops []models.Operation) ([]interface{}, error) {
	tasks := wrapOperations(ops)

	plan, err := executor.Plan(tasks)
	if err != nil {
		return nil, err
	}

	results, err := o.executor.Execute(ctx, plan)
	if err != nil {
		return nil, err
	}

	ordered := make([]interface{}, len(tasks))
	for i, task := range tasks {
		ordered[i] = results[task.ID]
	}
	return ordered, nil
}

// IntelligentExecute reflects on the described task, and only when the
// confidence gate passes wraps the operations into dependency-free tasks
// and executes them in parallel. Failures are isolated, optionally learned
// from, and summarized in the outcome.
func (o *Orchestrator) IntelligentExecute(ctx context.Context, task string, ops []models.Operation, ectx *reflection.Context, opts Options) (*Outcome, error) {
	return o.ExecuteTasks(ctx, task, wrapOperations(ops), ectx, opts)
}

// ExecuteTasks is IntelligentExecute for caller-supplied tasks that may
// carry dependencies. Planning errors (invalid tasks, cycles) abort;
// individual task failures do not.
func (o *Orchestrator) ExecuteTasks(ctx context.Context, task string, tasks []*models.Task, ectx *reflection.Context, opts Options) (*Outcome, error) {
	assessment := o.reflect(task, ectx, opts)

	outcome := &Outcome{
		Assessment:      assessment,
		Confidence:      assessment.Score,
		Blockers:        assessment.Blockers,
		Recommendations: assessment.Recommendations,
	}

	if !assessment.ShouldProceed {
		outcome.Status = StatusBlocked
		if o.logger != nil {
			o.logger.LogWarn(fmt.Sprintf("blocked %q: confidence %.2f below threshold", task, assessment.Score))
		}
		return outcome, nil
	}

	plan, err := executor.Plan(tasks)
	if err != nil {
		return nil, err
	}
	outcome.Speedup = plan.Speedup
	outcome.Budget = budget.NewTokenBudget(budget.ComplexityForTaskCount(len(tasks)))

	start := time.Now()
	results, err := o.executor.Execute(ctx, plan)
	outcome.Results = results
	if err != nil {
		return outcome, err
	}

	for _, t := range tasks {
		if t.Status == models.StatusFailed {
			outcome.Failed = append(outcome.Failed, t.ID)
		}
	}

	switch {
	case len(outcome.Failed) == 0:
		outcome.Status = StatusSuccess
	case len(outcome.Failed) == len(tasks):
		outcome.Status = StatusFailed
	default:
		outcome.Status = StatusPartialFailure
	}

	if opts.AutoCorrect && o.corrector != nil {
		o.learnFromFailures(tasks)
	}

	o.recordHistory(ctx, task, tasks, assessment.Score, time.Since(start))

	if o.logger != nil {
		o.logger.LogInfo(fmt.Sprintf("%q finished: %s (%d/%d tasks ok)",
			task, outcome.Status, len(tasks)-len(outcome.Failed), len(tasks)))
	}
	return outcome, nil
}

// SafeExecute reflects on a single operation and runs it only when the gate
// passes. A refusal is returned as a *BlockedError carrying the assessment.
func (o *Orchestrator) SafeExecute(ctx context.Context, task string, op models.Operation) (interface{}, error) {
	assessment := o.reflect(task, nil, DefaultOptions())
	if !assessment.ShouldProceed {
		return nil, &BlockedError{Task: task, Assessment: assessment}
	}
	return op.Execute(ctx)
}

// SafeExecuteWithContext is SafeExecute with caller-provided workspace
// context feeding the gate.
func (o *Orchestrator) SafeExecuteWithContext(ctx context.Context, task string, op models.Operation, ectx *reflection.Context) (interface{}, error) {
	assessment := o.reflect(task, ectx, DefaultOptions())
	if !assessment.ShouldProceed {
		return nil, &BlockedError{Task: task, Assessment: assessment}
	}
	return op.Execute(ctx)
}

// reflect runs the assessment with this call's effective threshold. The
// override is passed through rather than set on the shared engine, so
// concurrent calls with different thresholds never gate each other.
func (o *Orchestrator) reflect(task string, ectx *reflection.Context, opts Options) *reflection.Assessment {
	threshold := o.reflector.Threshold()
	if opts.Threshold > 0 {
		threshold = opts.Threshold
	}
	assessment := o.reflector.ReflectAt(task, ectx, threshold)

	if err := o.reflector.RecordReflection(assessment); err != nil && o.logger != nil {
		o.logger.LogWarn(fmt.Sprintf("failed to record reflection: %v", err))
	}
	return assessment
}

// learnFromFailures feeds each failed task through root-cause analysis and
// the mistake memory. Learning problems are logged, never fatal.
func (o *Orchestrator) learnFromFailures(tasks []*models.Task) {
	for _, t := range tasks {
		if t.Status != models.StatusFailed || t.Err == nil {
			continue
		}

		cause, err := o.corrector.AnalyzeRootCause(t.Description, t.Err.Error())
		if err != nil {
			if o.logger != nil {
				o.logger.LogWarn(fmt.Sprintf("root cause analysis failed for %s: %v", t.ID, err))
			}
			continue
		}
		if err := o.corrector.LearnAndPrevent(t.Description, t.Err.Error(), cause); err != nil && o.logger != nil {
			o.logger.LogWarn(fmt.Sprintf("failed to learn from %s: %v", t.ID, err))
		}
	}
}

// recordHistory persists one row per task, best effort.
func (o *Orchestrator) recordHistory(ctx context.Context, task string, tasks []*models.Task, confidence float64, elapsed time.Duration) {
	if o.history == nil {
		return
	}

	for _, t := range tasks {
		errMsg := ""
		if t.Err != nil {
			errMsg = t.Err.Error()
		}
		exec := &history.Execution{
			Task:         task,
			OpID:         t.ID,
			Status:       string(t.Status),
			ErrorMessage: errMsg,
			Duration:     elapsed,
			Confidence:   confidence,
		}
		if err := o.history.RecordExecution(ctx, exec); err != nil {
			if o.logger != nil {
				o.logger.LogWarn(fmt.Sprintf("failed to record execution history: %v", err))
			}
			return
		}
	}
}

// wrapOperations turns bare operations into dependency-free tasks with
// generated ids. Input order is preserved, so the planner places them all
// in one parallel group.
func wrapOperations(ops []models.Operation) []*models.Task {
	tasks := make([]*models.Task, len(ops))
	for i, op := range ops {
		id := fmt.Sprintf("op-%d-%s", i+1, uuid.NewString()[:8])
		tasks[i] = models.NewTask(id, fmt.Sprintf("operation %d", i+1), op)
	}
	return tasks
}
