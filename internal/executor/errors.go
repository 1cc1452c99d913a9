package executor

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrCircularDependency is returned when the task graph contains a cycle.
var ErrCircularDependency = errors.New("circular dependency detected")

// TaskError represents an error that occurred while executing a single task.
type TaskError struct {
	TaskID    string
	Message   string
	Err       error
	Timestamp time.Time
}

// NewTaskError creates a TaskError with the current timestamp.
func NewTaskError(id, msg string, err error) *TaskError {
	return &TaskError{
		TaskID:    id,
		Message:   msg,
		Err:       err,
		Timestamp: time.Now(),
	}
}

// Error implements the error interface.
func (e *TaskError) Error() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("task %s: %s", e.TaskID, e.Message))
	if e.Err != nil {
		sb.WriteString(fmt.Sprintf(": %v", e.Err))
	}
	return sb.String()
}

// Unwrap returns the underlying error for error wrapping support.
func (e *TaskError) Unwrap() error {
	return e.Err
}

// IsTaskError checks if the error is or wraps a TaskError.
func IsTaskError(err error) bool {
	if err == nil {
		return false
	}
	var te *TaskError
	return errors.As(err, &te)
}
