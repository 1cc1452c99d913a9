package executor

import (
	"fmt"

	"github.com/harrison/preflight/internal/models"
)

const (
	// DefaultMaxWorkers is the default maximum number of concurrent tasks
	// within a parallel group.
	DefaultMaxWorkers = 10

	// DefaultParallelizeThreshold is the minimum task count at which
	// parallel execution is worth the coordination overhead.
	DefaultParallelizeThreshold = 3
)

// DependencyGraph represents a directed graph of task dependencies.
type DependencyGraph struct {
	Tasks    map[string]*models.Task
	Edges    map[string][]string // prerequisite -> dependents
	InDegree map[string]int      // task id -> number of dependencies
}

// ValidateTasks checks that every task is well formed, ids are unique, and
// all dependencies refer to tasks in the list.
func ValidateTasks(tasks []*models.Task) error {
	ids := make(map[string]bool, len(tasks))
	for _, task := range tasks {
		if err := task.Validate(); err != nil {
			return err
		}
		if ids[task.ID] {
			return fmt.Errorf("task %s: duplicate task id", task.ID)
		}
		ids[task.ID] = true
	}

	for _, task := range tasks {
		for _, dep := range task.DependsOn {
			if !ids[dep] {
				return fmt.Errorf("task %s: depends on non-existent task %s", task.ID, dep)
			}
		}
	}

	return nil
}

// BuildDependencyGraph constructs a dependency graph from a list of tasks.
func BuildDependencyGraph(tasks []*models.Task) *DependencyGraph {
	g := &DependencyGraph{
		Tasks:    make(map[string]*models.Task, len(tasks)),
		Edges:    make(map[string][]string),
		InDegree: make(map[string]int, len(tasks)),
	}

	for _, task := range tasks {
		g.Tasks[task.ID] = task
		g.InDegree[task.ID] = 0
	}

	for _, task := range tasks {
		for _, dep := range task.DependsOn {
			if _, exists := g.Tasks[dep]; !exists {
				// Invalid dependencies are caught by ValidateTasks.
				continue
			}
			// dep -> task (dep must complete before task)
			g.Edges[dep] = append(g.Edges[dep], task.ID)
			g.InDegree[task.ID]++
		}
	}

	return g
}

// HasCycle detects whether the graph contains a cycle using DFS with color
// marking.
func (g *DependencyGraph) HasCycle() bool {
	const (
		white = 0 // not visited
		gray  = 1 // visiting
		black = 2 // visited
	)

	colors := make(map[string]int, len(g.Tasks))
	for id := range g.Tasks {
		colors[id] = white
	}

	var dfs func(string) bool
	dfs = func(node string) bool {
		colors[node] = gray

		for _, neighbor := range g.Edges[node] {
			if colors[neighbor] == gray {
				return true // back edge = cycle
			}
			if colors[neighbor] == white && dfs(neighbor) {
				return true
			}
		}

		colors[node] = black
		return false
	}

	// Self-references first, they are trivially cycles.
	for id, task := range g.Tasks {
		for _, dep := range task.DependsOn {
			if dep == id {
				return true
			}
		}
	}

	for id := range g.Tasks {
		if colors[id] == white {
			if dfs(id) {
				return true
			}
		}
	}

	return false
}

// Plan levels tasks into parallel groups using iterative readiness scans.
// Each group contains every unassigned task whose dependencies are all
// satisfied by earlier groups, preserving input order within the group.
// Returns ErrCircularDependency if the graph contains a cycle.
func Plan(tasks []*models.Task) (*models.ExecutionPlan, error) {
	if err := ValidateTasks(tasks); err != nil {
		return nil, err
	}

	plan := &models.ExecutionPlan{TotalTasks: len(tasks)}
	if len(tasks) == 0 {
		plan.Speedup = 1.0
		return plan, nil
	}

	graph := BuildDependencyGraph(tasks)
	if graph.HasCycle() {
		return nil, ErrCircularDependency
	}

	completed := make(map[string]bool, len(tasks))
	assigned := make(map[string]bool, len(tasks))

	for len(assigned) < len(tasks) {
		var group []*models.Task
		for _, task := range tasks {
			if assigned[task.ID] {
				continue
			}
			if task.CanExecute(completed) {
				group = append(group, task)
			}
		}

		if len(group) == 0 {
			// Unreachable after HasCycle, kept as a guard against
			// graph construction bugs.
			return nil, ErrCircularDependency
		}

		for _, task := range group {
			assigned[task.ID] = true
		}
		for _, task := range group {
			completed[task.ID] = true
		}

		plan.Groups = append(plan.Groups, models.ParallelGroup{
			Index: len(plan.Groups),
			Tasks: group,
		})
	}

	plan.SequentialEstimate = models.NominalTaskCost * float64(plan.TotalTasks)
	plan.ParallelEstimate = models.NominalTaskCost * float64(len(plan.Groups))
	plan.Speedup = plan.SequentialEstimate / plan.ParallelEstimate

	return plan, nil
}

// ShouldParallelize reports whether a task count justifies parallel
// execution. A threshold <= 0 falls back to DefaultParallelizeThreshold.
func ShouldParallelize(taskCount, threshold int) bool {
	if threshold <= 0 {
		threshold = DefaultParallelizeThreshold
	}
	return taskCount >= threshold
}
