package models

import "time"

// TaskResult captures the outcome of a single task execution.
type TaskResult struct {
	TaskID   string
	Value    interface{}
	Err      error
	Duration time.Duration
}

// Succeeded reports whether the task completed without error.
func (r TaskResult) Succeeded() bool {
	return r.Err == nil
}
