package models

import (
	"context"
	"fmt"
)

// TaskStatus represents the lifecycle state of a task.
type TaskStatus string

const (
	// StatusPending means the task has not started yet.
	StatusPending TaskStatus = "pending"
	// StatusRunning means the task's operation is currently executing.
	StatusRunning TaskStatus = "running"
	// StatusCompleted means the task's operation returned without error.
	StatusCompleted TaskStatus = "completed"
	// StatusFailed means the task's operation returned an error or panicked.
	StatusFailed TaskStatus = "failed"
)

// Operation is a unit of work executed on behalf of a task.
// Implementations must be safe to call from a worker goroutine.
type Operation interface {
	Execute(ctx context.Context) (interface{}, error)
}

// OperationFunc adapts a plain function to the Operation interface.
type OperationFunc func(ctx context.Context) (interface{}, error)

// Execute calls f.
func (f OperationFunc) Execute(ctx context.Context) (interface{}, error) {
	return f(ctx)
}

// Task is a schedulable unit of work with optional dependencies on other
// tasks. ID must be unique within a plan. Status, Result and Err are
// mutated in place by the executor.
type Task struct {
	ID          string
	Description string
	DependsOn   []string
	Operation   Operation
	Status      TaskStatus
	Result      interface{}
	Err         error
}

// NewTask creates a pending task with the given id, description and operation.
func NewTask(id, description string, op Operation, dependsOn ...string) *Task {
	return &Task{
		ID:          id,
		Description: description,
		DependsOn:   dependsOn,
		Operation:   op,
		Status:      StatusPending,
	}
}

// Validate checks that the task is well formed.
func (t *Task) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("task has empty id")
	}
	if t.Operation == nil {
		return fmt.Errorf("task %s: operation is required", t.ID)
	}
	return nil
}

// CanExecute reports whether every dependency of the task appears in the
// completed set.
func (t *Task) CanExecute(completed map[string]bool) bool {
	for _, dep := range t.DependsOn {
		if !completed[dep] {
			return false
		}
	}
	return true
}
