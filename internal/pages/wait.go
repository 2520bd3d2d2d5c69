package pages

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/nbenliogludev/go-bdd-suite/internal/browser"
)

var (
	ErrTimeout  = errors.New("timed out")
	errNotReady = errors.New("not ready")
)

const DefaultTimeout = 2 * time.Second

// Wait bounds how long a page operation polls for the element it needs.
type Wait struct {
	Timeout  time.Duration
	Interval time.Duration
}

// WaitFor returns a Wait with the given timeout and a short interval.
func WaitFor(timeout time.Duration) Wait {
	return Wait{Timeout: timeout, Interval: 100 * time.Millisecond}
}

// Result is the outcome of polling: either Found with a Value, or not
// found with the Reason.
type Result[T any] struct {
	Found  bool
	Value  T
	Reason error
}

// Err is nil when the value was found.
func (r Result[T]) Err() error {
	if r.Found {
		return nil
	}
	return r.Reason
}

func (r Result[T]) Get() (T, error) {
	return r.Value, r.Err()
}

// Poll calls probe until it succeeds or w.Timeout has elapsed. A closed
// session ends polling at once.
func Poll[T any](ctx context.Context, w Wait, probe func() (T, error)) Result[T] {
	if w.Timeout <= 0 {
		w.Timeout = DefaultTimeout
	}
	if w.Interval <= 0 {
		w.Interval = 100 * time.Millisecond
	}
	op := func() (T, error) {
		v, err := probe()
		if errors.Is(err, browser.ErrSessionClosed) {
			return v, backoff.Permanent(err)
		}
		return v, err
	}

	v, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(backoff.NewConstantBackOff(w.Interval)),
		backoff.WithMaxElapsedTime(w.Timeout),
	)
	switch {
	case err == nil:
		return Result[T]{Found: true, Value: v}
	case errors.Is(err, browser.ErrSessionClosed), ctx.Err() != nil:
		return Result[T]{Reason: err}
	default:
		return Result[T]{Reason: fmt.Errorf("%w after %s: %v", ErrTimeout, w.Timeout, err)}
	}
}
