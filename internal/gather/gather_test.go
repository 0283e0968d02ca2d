package gather

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAll_IsolatesFailures(t *testing.T) {
	items := []int{1, 2, 3, 4}
	out := All(context.Background(), items, 0, func(_ context.Context, n int) (int, error) {
		if n%2 == 0 {
			return 0, errors.New("even")
		}
		return n * 10, nil
	})

	assert.Equal(t, []int{10, 30}, out.Values())
	require.Len(t, out.Failures, 2)
	assert.Equal(t, 1, out.Failures[0].Index)
	assert.Equal(t, 3, out.Failures[1].Index)
	assert.EqualError(t, out.Failures[0].Err, "even")
}

func TestAll_SlowItemDoesNotBlockSiblingsResults(t *testing.T) {
	items := []time.Duration{30 * time.Millisecond, 0, 0}
	out := All(context.Background(), items, 0, func(_ context.Context, d time.Duration) (time.Duration, error) {
		time.Sleep(d)
		return d, nil
	})
	assert.Len(t, out.Successes, 3)
	assert.Equal(t, 0, out.Successes[0].Index)
}

func TestAll_RespectsLimit(t *testing.T) {
	var inFlight, maxSeen int32
	items := make([]int, 10)
	All(context.Background(), items, 2, func(_ context.Context, _ int) (int, error) {
		cur := atomic.AddInt32(&inFlight, 1)
		for {
			prev := atomic.LoadInt32(&maxSeen)
			if cur <= prev || atomic.CompareAndSwapInt32(&maxSeen, prev, cur) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		atomic.AddInt32(&inFlight, -1)
		return 0, nil
	})
	assert.LessOrEqual(t, atomic.LoadInt32(&maxSeen), int32(2))
}

func TestAll_RecoversPanic(t *testing.T) {
	out := All(context.Background(), []int{1}, 0, func(_ context.Context, _ int) (int, error) {
		panic("kaboom")
	})
	require.Len(t, out.Failures, 1)
	assert.Contains(t, out.Failures[0].Error(), "kaboom")
}

func TestSettle(t *testing.T) {
	var a, b string
	errs := Settle(context.Background(),
		func(context.Context) error { a = "x"; return nil },
		func(context.Context) error { return errors.New("fail") },
		func(context.Context) error { b = "y"; return nil },
	)

	require.Len(t, errs, 3)
	assert.NoError(t, errs[0])
	assert.Error(t, errs[1])
	assert.NoError(t, errs[2])
	assert.Equal(t, "x", a)
	assert.Equal(t, "y", b)
}
