package executor

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/harrison/preflight/internal/models"
)

func valueOp(v interface{}) models.Operation {
	return models.OperationFunc(func(ctx context.Context) (interface{}, error) {
		return v, nil
	})
}

func errorOp(err error) models.Operation {
	return models.OperationFunc(func(ctx context.Context) (interface{}, error) {
		return nil, err
	})
}

func mustPlan(t *testing.T, tasks []*models.Task) *models.ExecutionPlan {
	t.Helper()
	plan, err := Plan(tasks)
	if err != nil {
		t.Fatalf("Plan() error = %v", err)
	}
	return plan
}

func TestExecuteCollectsResults(t *testing.T) {
	tasks := []*models.Task{
		models.NewTask("t1", "first", valueOp("one")),
		models.NewTask("t2", "second", valueOp("two")),
		models.NewTask("t3", "third", valueOp("three"), "t1"),
	}

	e := NewParallelExecutor(0, nil)
	results, err := e.Execute(context.Background(), mustPlan(t, tasks))
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if len(results) != 3 {
		t.Fatalf("result count = %d, want 3", len(results))
	}
	if results["t1"] != "one" || results["t2"] != "two" || results["t3"] != "three" {
		t.Errorf("unexpected results: %v", results)
	}

	for _, task := range tasks {
		if task.Status != models.StatusCompleted {
			t.Errorf("task %s status = %s, want completed", task.ID, task.Status)
		}
	}
}

func TestExecuteFailureIsolation(t *testing.T) {
	boom := errors.New("boom")
	tasks := []*models.Task{
		models.NewTask("t1", "succeeds", valueOp(1)),
		models.NewTask("t2", "fails", errorOp(boom)),
		models.NewTask("t3", "also succeeds", valueOp(3)),
	}

	e := NewParallelExecutor(0, nil)
	results, err := e.Execute(context.Background(), mustPlan(t, tasks))
	if err != nil {
		t.Fatalf("Execute() error = %v, task failures must not abort", err)
	}

	if _, ok := results["t2"]; !ok {
		t.Fatal("failed task missing from results")
	}
	if results["t2"] != nil {
		t.Errorf("failed task result = %v, want nil", results["t2"])
	}
	if results["t1"] != 1 || results["t3"] != 3 {
		t.Errorf("sibling results = %v, want untouched", results)
	}

	if tasks[1].Status != models.StatusFailed {
		t.Errorf("t2 status = %s, want failed", tasks[1].Status)
	}
	if !errors.Is(tasks[1].Err, boom) {
		t.Errorf("t2 err = %v, want wrapped boom", tasks[1].Err)
	}
	if !IsTaskError(tasks[1].Err) {
		t.Errorf("t2 err = %v, want TaskError", tasks[1].Err)
	}
}

func TestExecuteFailureDoesNotStopLaterGroups(t *testing.T) {
	tasks := []*models.Task{
		models.NewTask("t1", "fails", errorOp(errors.New("boom"))),
		models.NewTask("t2", "depends on failed", valueOp("ran"), "t1"),
	}

	e := NewParallelExecutor(0, nil)
	results, err := e.Execute(context.Background(), mustPlan(t, tasks))
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if results["t2"] != "ran" {
		t.Errorf("t2 result = %v, later groups must still run", results["t2"])
	}
}

func TestExecutePanicRecovery(t *testing.T) {
	tasks := []*models.Task{
		models.NewTask("t1", "panics", models.OperationFunc(func(ctx context.Context) (interface{}, error) {
			panic("unexpected state")
		})),
		models.NewTask("t2", "fine", valueOp("ok")),
	}

	e := NewParallelExecutor(0, nil)
	results, err := e.Execute(context.Background(), mustPlan(t, tasks))
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if results["t1"] != nil {
		t.Errorf("panicked task result = %v, want nil", results["t1"])
	}
	if tasks[0].Status != models.StatusFailed {
		t.Errorf("panicked task status = %s, want failed", tasks[0].Status)
	}
	if results["t2"] != "ok" {
		t.Errorf("sibling result = %v, want ok", results["t2"])
	}
}

func TestExecuteRespectsWorkerBound(t *testing.T) {
	const maxWorkers = 2

	var current, peak int32
	op := models.OperationFunc(func(ctx context.Context) (interface{}, error) {
		n := atomic.AddInt32(&current, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		atomic.AddInt32(&current, -1)
		return nil, nil
	})

	tasks := make([]*models.Task, 0, 6)
	for _, id := range []string{"a", "b", "c", "d", "e", "f"} {
		tasks = append(tasks, models.NewTask(id, "bounded "+id, op))
	}

	e := NewParallelExecutor(maxWorkers, nil)
	if _, err := e.Execute(context.Background(), mustPlan(t, tasks)); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if got := atomic.LoadInt32(&peak); got > maxWorkers {
		t.Errorf("peak concurrency = %d, want <= %d", got, maxWorkers)
	}
}

func TestExecuteGroupBarrier(t *testing.T) {
	var mu sync.Mutex
	var order []string
	record := func(id string) models.Operation {
		return models.OperationFunc(func(ctx context.Context) (interface{}, error) {
			time.Sleep(5 * time.Millisecond)
			mu.Lock()
			order = append(order, id)
			mu.Unlock()
			return nil, nil
		})
	}

	tasks := []*models.Task{
		models.NewTask("a", "group one", record("a")),
		models.NewTask("b", "group one", record("b")),
		models.NewTask("c", "group two", record("c"), "a", "b"),
	}

	e := NewParallelExecutor(0, nil)
	if _, err := e.Execute(context.Background(), mustPlan(t, tasks)); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(order) != 3 || order[2] != "c" {
		t.Errorf("execution order = %v, want c strictly last", order)
	}
}

func TestExecuteCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	tasks := []*models.Task{models.NewTask("a", "never runs", valueOp(1))}

	e := NewParallelExecutor(0, nil)
	_, err := e.Execute(ctx, mustPlan(t, tasks))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Execute() error = %v, want context.Canceled", err)
	}
	if tasks[0].Status == models.StatusCompleted {
		t.Error("task ran despite cancelled context")
	}
}

func TestExecuteNilPlan(t *testing.T) {
	e := NewParallelExecutor(0, nil)
	if _, err := e.Execute(context.Background(), nil); err == nil {
		t.Error("Execute() expected error for nil plan")
	}
}
