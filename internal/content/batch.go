package content

import (
	"context"

	"go.uber.org/zap"

	"github.com/jonathan/portfolio-generator/internal/gather"
)

// Task is one entry of a heterogeneous batch
type Task struct {
	Type  TaskType
	Input any
}

// Status tags a batch result
type Status string

// Status constants
const (
	StatusFulfilled Status = "fulfilled"
	StatusRejected  Status = "rejected"
)

// Result is the outcome of one batch task. Output is set when fulfilled, Err when rejected.
type Result struct {
	Type   TaskType
	Status Status
	Output Output
	Err    error
}

// Batch resolves every task independently; one task's failure never affects its siblings.
// Results are returned in task order.
func (s *Service) Batch(ctx context.Context, tasks []Task) []Result {
	outcome := gather.All(ctx, tasks, s.concurrency, s.Run)

	results := make([]Result, len(tasks))
	for _, ok := range outcome.Successes {
		results[ok.Index] = Result{Type: tasks[ok.Index].Type, Status: StatusFulfilled, Output: ok.Value}
	}
	for _, f := range outcome.Failures {
		s.logger.Warn("content task failed",
			zap.String("task", string(tasks[f.Index].Type)),
			zap.Int("index", f.Index),
			zap.Error(f.Err))
		results[f.Index] = Result{Type: tasks[f.Index].Type, Status: StatusRejected, Err: f.Err}
	}
	return results
}
