package models

// NominalTaskCost is the unit cost assigned to each task when estimating
// sequential and parallel execution time. Tasks are treated as uniform, so
// the speedup estimate reduces to tasks divided by groups.
const NominalTaskCost = 1.0

// ParallelGroup is a set of tasks whose dependencies are all satisfied by
// earlier groups. Tasks within a group may run concurrently.
type ParallelGroup struct {
	Index int
	Tasks []*Task
}

// ExecutionPlan is an ordered sequence of parallel groups covering every
// task exactly once, with cost estimates for the whole plan.
type ExecutionPlan struct {
	Groups             []ParallelGroup
	TotalTasks         int
	SequentialEstimate float64
	ParallelEstimate   float64
	Speedup            float64
}

// GroupSizes returns the number of tasks in each group, in execution order.
func (p *ExecutionPlan) GroupSizes() []int {
	sizes := make([]int, len(p.Groups))
	for i, g := range p.Groups {
		sizes[i] = len(g.Tasks)
	}
	return sizes
}

// TaskByID looks up a task in the plan by id.
func (p *ExecutionPlan) TaskByID(id string) *Task {
	for _, g := range p.Groups {
		for _, t := range g.Tasks {
			if t.ID == id {
				return t
			}
		}
	}
	return nil
}
