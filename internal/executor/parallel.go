package executor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/harrison/preflight/internal/models"
)

// Logger is the minimal logging surface the executor needs. The logger
// package's ConsoleLogger satisfies it. A nil Logger disables logging.
type Logger interface {
	LogInfo(message string)
	LogWarn(message string)
}

// ParallelExecutor runs an execution plan's groups sequentially while
// executing tasks within each group in parallel, bounded by MaxWorkers.
//
// Task failures are isolated: an operation error or panic marks only that
// task as failed and never aborts its siblings or later groups.
type ParallelExecutor struct {
	maxWorkers int
	logger     Logger
}

// NewParallelExecutor constructs an executor with the given concurrency
// bound. maxWorkers <= 0 falls back to DefaultMaxWorkers. The logger is
// optional and can be nil.
func NewParallelExecutor(maxWorkers int, logger Logger) *ParallelExecutor {
	if maxWorkers <= 0 {
		maxWorkers = DefaultMaxWorkers
	}
	return &ParallelExecutor{
		maxWorkers: maxWorkers,
		logger:     logger,
	}
}

type taskExecutionResult struct {
	taskID string
	result models.TaskResult
}

// Execute runs every group of the plan in order, with a full barrier
// between groups. It returns a map of task id to operation result, where a
// failed task is present with a nil value.
//
// The context is honored between task launches: cancellation prevents
// launching further tasks but never interrupts an operation that has
// already started. The returned error is non-nil only for launch-phase
// problems (nil plan, cancelled context); task failures are reported
// through task statuses and nil map entries.
func (e *ParallelExecutor) Execute(ctx context.Context, plan *models.ExecutionPlan) (map[string]interface{}, error) {
	if e == nil {
		return nil, fmt.Errorf("parallel executor is nil")
	}
	if plan == nil {
		return nil, fmt.Errorf("plan cannot be nil")
	}

	results := make(map[string]interface{}, plan.TotalTasks)

	for _, group := range plan.Groups {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		groupResults, err := e.executeGroup(ctx, group)
		for id, value := range groupResults {
			results[id] = value
		}
		if err != nil {
			return results, err
		}
	}

	return results, nil
}

func (e *ParallelExecutor) executeGroup(ctx context.Context, group models.ParallelGroup) (map[string]interface{}, error) {
	taskCount := len(group.Tasks)
	if taskCount == 0 {
		return map[string]interface{}{}, nil
	}

	if e.logger != nil {
		e.logger.LogInfo(fmt.Sprintf("group %d: executing %d task(s)", group.Index+1, taskCount))
	}

	maxWorkers := e.maxWorkers
	if maxWorkers > taskCount {
		maxWorkers = taskCount
	}

	semaphore := make(chan struct{}, maxWorkers)
	resultsCh := make(chan taskExecutionResult, taskCount)

	var wg sync.WaitGroup
	var launchErr error

	for _, task := range group.Tasks {
		// Check context before acquiring the semaphore to avoid blocking
		// on a cancelled context.
		select {
		case <-ctx.Done():
			launchErr = ctx.Err()
		case semaphore <- struct{}{}:
		}
		if launchErr != nil {
			break
		}

		wg.Add(1)
		task.Status = models.StatusRunning

		go func(task *models.Task) {
			defer wg.Done()
			defer func() { <-semaphore }()

			start := time.Now()
			value, err := e.runOperation(ctx, task)

			if err != nil {
				task.Status = models.StatusFailed
				task.Err = err
				task.Result = nil
			} else {
				task.Status = models.StatusCompleted
				task.Result = value
			}

			resultsCh <- taskExecutionResult{
				taskID: task.ID,
				result: models.TaskResult{
					TaskID:   task.ID,
					Value:    task.Result,
					Err:      err,
					Duration: time.Since(start),
				},
			}
		}(task)
	}

	go func() {
		wg.Wait()
		close(resultsCh)
	}()

	resultMap := make(map[string]models.TaskResult, taskCount)
	for res := range resultsCh {
		resultMap[res.taskID] = res.result
		if !res.result.Succeeded() && e.logger != nil {
			e.logger.LogWarn(fmt.Sprintf("task %s failed: %v", res.taskID, res.result.Err))
		}
	}

	// Build the value map in group order. A failed task keeps its entry
	// with a nil value so callers see it was attempted.
	values := make(map[string]interface{}, taskCount)
	for _, task := range group.Tasks {
		if res, ok := resultMap[task.ID]; ok {
			values[task.ID] = res.Value
		}
	}

	return values, launchErr
}

// runOperation invokes the task's operation, converting panics into errors
// so a misbehaving operation cannot take down the worker pool.
func (e *ParallelExecutor) runOperation(ctx context.Context, task *models.Task) (value interface{}, err error) {
	defer func() {
		if r := recover(); r != nil {
			value = nil
			err = NewTaskError(task.ID, fmt.Sprintf("operation panicked: %v", r), nil)
		}
	}()

	value, err = task.Operation.Execute(ctx)
	if err != nil {
		return nil, NewTaskError(task.ID, "operation failed", err)
	}
	return value, nil
}
