package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"
)

// retryHintBuffer is added to a server retry hint before it is used as the delay
const retryHintBuffer = time.Second

// Retrier retries rate-limited and unavailable calls with exponential backoff
type Retrier struct {
	MaxAttempts int
	MaxDelay    time.Duration
	logger      *zap.Logger
	// wait maps a scheduled delay to the time actually waited; tests shrink it
	wait func(d time.Duration) time.Duration
}

// NewRetrier creates a Retrier; zero values take the package defaults
func NewRetrier(maxAttempts int, maxDelay time.Duration, logger *zap.Logger) *Retrier {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	if maxDelay <= 0 {
		maxDelay = DefaultMaxBackoff
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Retrier{MaxAttempts: maxAttempts, MaxDelay: maxDelay, logger: logger}
}

// Delay returns the wait before the retry following attempt (0-based): 2^attempt seconds,
// or hint+1s when that is longer, clamped to MaxDelay
func (r *Retrier) Delay(attempt int, hint time.Duration) time.Duration {
	if attempt > 30 {
		attempt = 30
	}
	d := time.Duration(1<<uint(attempt)) * time.Second
	if hint > 0 && hint+retryHintBuffer > d {
		d = hint + retryHintBuffer
	}
	if d > r.MaxDelay {
		d = r.MaxDelay
	}
	return d
}

// schedule is the backoff.BackOff for one Do call. The operation stores the hint of the
// error it just returned before the next delay is asked for.
type schedule struct {
	retrier   *Retrier
	attempt   int
	hint      time.Duration
	scheduled time.Duration
}

func (s *schedule) Reset() {
	s.attempt = 0
	s.hint = 0
}

func (s *schedule) NextBackOff() time.Duration {
	s.scheduled = s.retrier.Delay(s.attempt, s.hint)
	s.attempt++
	s.hint = 0
	if s.retrier.wait != nil {
		return s.retrier.wait(s.scheduled)
	}
	return s.scheduled
}

// Do calls op until it succeeds, fails with a non-retryable error, or MaxAttempts is reached.
// The last upstream error is returned wrapped.
func (r *Retrier) Do(ctx context.Context, op func(ctx context.Context) error) error {
	sched := &schedule{retrier: r}
	attempts := 0

	operation := func() (struct{}, error) {
		attempts++
		err := op(ctx)
		if err == nil {
			return struct{}{}, nil
		}
		if !IsRetryable(err) {
			return struct{}{}, backoff.Permanent(err)
		}
		sched.hint = retryHint(err)
		return struct{}{}, err
	}
	notify := func(err error, _ time.Duration) {
		r.logger.Warn("generative backend throttled, retrying",
			zap.Int("attempt", attempts),
			zap.Int("max_attempts", r.MaxAttempts),
			zap.Duration("delay", sched.scheduled),
			zap.Error(err))
	}

	_, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(sched),
		backoff.WithMaxTries(uint(r.MaxAttempts)),
		backoff.WithMaxElapsedTime(0),
		backoff.WithNotify(notify),
	)
	// a permanent error on the final try comes back still wrapped
	var permanent *backoff.PermanentError
	if errors.As(err, &permanent) {
		err = permanent.Unwrap()
	}
	switch {
	case err == nil:
		return nil
	case IsRetryable(err):
		return fmt.Errorf("giving up after %d attempts: %w", attempts, err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("retry interrupted: %w", err)
	}
	return err
}

// RetryingClient decorates a Client with a Retrier
type RetryingClient struct {
	inner   Client
	retrier *Retrier
}

// NewRetryingClient wraps inner so every call goes through retrier
func NewRetryingClient(inner Client, retrier *Retrier) *RetryingClient {
	return &RetryingClient{inner: inner, retrier: retrier}
}

// GenerateJSON generates JSON text with retries
func (c *RetryingClient) GenerateJSON(ctx context.Context, prompt string, tier ModelTier) (string, error) {
	var out string
	err := c.retrier.Do(ctx, func(ctx context.Context) error {
		var err error
		out, err = c.inner.GenerateJSON(ctx, prompt, tier)
		return err
	})
	return out, err
}

// GetModel returns the wrapped client's model for a tier
func (c *RetryingClient) GetModel(tier ModelTier) string {
	return c.inner.GetModel(tier)
}

// Close closes the wrapped client
func (c *RetryingClient) Close() error {
	return c.inner.Close()
}
