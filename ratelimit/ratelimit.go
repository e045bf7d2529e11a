// Package ratelimit retries calls against an unreliable remote API.
//
// Failures are classified by the error itself: an error that reports
// Retryable() == true (rate limiting, 5xx) is retried with backoff, anything
// else is returned at once. When the error carries a server-provided wait
// (Retry-After), that wait is used as-is; otherwise the delay grows as
// BaseDelay * 2^attempt.
package ratelimit

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"time"
)

const (
	// DefaultMaxRetries is the number of retries after the first attempt.
	DefaultMaxRetries = 3
	// DefaultBaseDelay is the first exponential backoff step.
	DefaultBaseDelay = time.Second
	// MaxDelay caps the exponential backoff. Server-specified waits are
	// not capped.
	MaxDelay = 5 * time.Minute
)

// Retryable is implemented by errors that know whether a retry may succeed.
type Retryable interface {
	Retryable() bool
}

// RetryAfterer is implemented by errors that carry a server-specified wait.
type RetryAfterer interface {
	RetryAfter() (time.Duration, bool)
}

// Sleeper suspends the calling goroutine for d or until ctx is done.
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

// SleeperFunc adapts a function to Sleeper.
type SleeperFunc func(ctx context.Context, d time.Duration) error

// Sleep calls f(ctx, d).
func (f SleeperFunc) Sleep(ctx context.Context, d time.Duration) error { return f(ctx, d) }

type timerSleeper struct{}

func (timerSleeper) Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Limiter wraps operations with retry and exponential backoff.
type Limiter struct {
	maxRetries int
	baseDelay  time.Duration
	sleeper    Sleeper
	logger     *slog.Logger
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithMaxRetries sets how many retries follow the first attempt.
// Negative values are treated as zero.
func WithMaxRetries(n int) Option {
	return func(l *Limiter) {
		if n < 0 {
			n = 0
		}
		l.maxRetries = n
	}
}

// WithBaseDelay sets the first exponential backoff step.
func WithBaseDelay(d time.Duration) Option {
	return func(l *Limiter) { l.baseDelay = d }
}

// WithSleeper replaces the timer-based sleep, mainly for tests.
func WithSleeper(s Sleeper) Option {
	return func(l *Limiter) { l.sleeper = s }
}

// WithLogger sets the logger used for retry messages.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Limiter) { l.logger = logger }
}

// New creates a Limiter with DefaultMaxRetries and DefaultBaseDelay unless
// overridden by opts.
func New(opts ...Option) *Limiter {
	l := &Limiter{
		maxRetries: DefaultMaxRetries,
		baseDelay:  DefaultBaseDelay,
		sleeper:    timerSleeper{},
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.sleeper == nil {
		l.sleeper = timerSleeper{}
	}
	if l.logger == nil {
		l.logger = slog.Default()
	}
	return l
}

// MaxRetries returns the retry budget.
func (l *Limiter) MaxRetries() int { return l.maxRetries }

// BaseDelay returns the first backoff step.
func (l *Limiter) BaseDelay() time.Duration { return l.baseDelay }

// Do runs op, retrying transient failures. The last error is returned
// unchanged once the budget is spent.
func (l *Limiter) Do(ctx context.Context, op func(context.Context) error) error {
	_, err := Execute(ctx, l, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, op(ctx)
	})
	return err
}

// Execute runs op through l and returns its value. Terminal errors are
// returned after the first attempt; transient ones are retried up to
// l.MaxRetries() times.
func Execute[T any](ctx context.Context, l *Limiter, op func(context.Context) (T, error)) (T, error) {
	for attempt := 0; ; attempt++ {
		result, err := op(ctx)
		if err == nil {
			return result, nil
		}
		if !IsRetryable(err) || attempt >= l.maxRetries {
			return result, err
		}

		delay := l.Delay(attempt, err)
		l.logger.Warn("request failed, retrying",
			"attempt", attempt+1,
			"max_retries", l.maxRetries,
			"delay", delay,
			"error", err,
		)

		if serr := l.sleeper.Sleep(ctx, delay); serr != nil {
			var zero T
			return zero, serr
		}
	}
}

// Delay returns the wait before retry number attempt+1 (attempt is
// zero-indexed). A server-specified Retry-After on err takes precedence over
// exponential backoff, which never exceeds MaxDelay.
func (l *Limiter) Delay(attempt int, err error) time.Duration {
	var ra RetryAfterer
	if errors.As(err, &ra) {
		if d, ok := ra.RetryAfter(); ok {
			return d
		}
	}
	d := l.baseDelay
	if d <= 0 {
		return 0
	}
	for i := 0; i < attempt; i++ {
		if d >= MaxDelay/2 {
			return MaxDelay
		}
		d *= 2
	}
	return min(d, MaxDelay)
}

// IsRetryable reports whether err is worth retrying. Context errors are
// terminal, errors implementing Retryable decide for themselves, network
// timeouts are transient and anything else is terminal.
func IsRetryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var r Retryable
	if errors.As(err, &r) {
		return r.Retryable()
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}
	return false
}
