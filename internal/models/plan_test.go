package models

import (
	"context"
	"testing"
)

func TestPlanHelpers(t *testing.T) {
	op := OperationFunc(func(ctx context.Context) (interface{}, error) { return nil, nil })
	plan := &ExecutionPlan{
		Groups: []ParallelGroup{
			{Index: 0, Tasks: []*Task{NewTask("a", "first", op), NewTask("b", "second", op)}},
			{Index: 1, Tasks: []*Task{NewTask("c", "third", op, "a")}},
		},
		TotalTasks: 3,
	}

	sizes := plan.GroupSizes()
	if len(sizes) != 2 || sizes[0] != 2 || sizes[1] != 1 {
		t.Errorf("GroupSizes() = %v, want [2 1]", sizes)
	}

	if got := plan.TaskByID("c"); got == nil || got.Description != "third" {
		t.Errorf("TaskByID(c) = %v, want task c", got)
	}
	if got := plan.TaskByID("missing"); got != nil {
		t.Errorf("TaskByID(missing) = %v, want nil", got)
	}
}
