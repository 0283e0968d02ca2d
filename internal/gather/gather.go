// Package gather runs independent I/O-bound calls concurrently and collects every outcome.
// One item's failure never cancels its siblings; callers decide what to do with failures.
package gather

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Success is a completed item with its input position
type Success[R any] struct {
	Index int
	Value R
}

// Failure is a failed item with its input position
type Failure struct {
	Index int
	Err   error
}

func (f Failure) Error() string {
	return fmt.Sprintf("item %d: %v", f.Index, f.Err)
}

func (f Failure) Unwrap() error {
	return f.Err
}

// Outcome holds the successes and failures of a gather, each in input order
type Outcome[R any] struct {
	Successes []Success[R]
	Failures  []Failure
}

// Values returns the successful values in input order
func (o Outcome[R]) Values() []R {
	values := make([]R, 0, len(o.Successes))
	for _, s := range o.Successes {
		values = append(values, s.Value)
	}
	return values
}

// All calls fn for every item with at most limit calls in flight (limit <= 0 means unbounded).
// A panic inside fn is reported as that item's failure.
func All[T, R any](ctx context.Context, items []T, limit int, fn func(ctx context.Context, item T) (R, error)) Outcome[R] {
	values := make([]R, len(items))
	errs := make([]error, len(items))

	var g errgroup.Group
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, item := range items {
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					errs[i] = fmt.Errorf("panic: %v", r)
				}
			}()
			values[i], errs[i] = fn(ctx, item)
			return nil
		})
	}
	_ = g.Wait()

	var out Outcome[R]
	for i := range items {
		if errs[i] != nil {
			out.Failures = append(out.Failures, Failure{Index: i, Err: errs[i]})
			continue
		}
		out.Successes = append(out.Successes, Success[R]{Index: i, Value: values[i]})
	}
	return out
}

// Settle runs heterogeneous calls concurrently and returns their errors by position.
// Callers typically assign results inside each fn through closures.
func Settle(ctx context.Context, fns ...func(ctx context.Context) error) []error {
	out := All(ctx, fns, 0, func(ctx context.Context, fn func(ctx context.Context) error) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	errs := make([]error, len(fns))
	for _, f := range out.Failures {
		errs[f.Index] = f.Err
	}
	return errs
}
