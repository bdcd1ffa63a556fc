package retry

import (
	"context"
	"errors"
	"time"
)

// Policy controls how many times an external call is attempted and how
// long to wait between attempts. Delay grows exponentially from BaseDelay.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
}

func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 3,
		BaseDelay:   500 * time.Millisecond,
	}
}

// terminalError marks a failure that must not be retried.
type terminalError struct {
	err error
}

func (e *terminalError) Error() string {
	return e.err.Error()
}

func (e *terminalError) Unwrap() error {
	return e.err
}

// Terminal wraps an error so Do gives up immediately instead of retrying.
func Terminal(err error) error {
	if err == nil {
		return nil
	}
	return &terminalError{err: err}
}

// IsTerminal reports whether err was marked with Terminal.
func IsTerminal(err error) bool {
	var t *terminalError
	return errors.As(err, &t)
}

// Do runs op until it succeeds, returns a terminal error, exhausts the
// policy's attempts, or the context is cancelled. The returned error is the
// last failure, unwrapped from any terminal marker.
func Do(ctx context.Context, policy Policy, op func(ctx context.Context) error) error {
	if policy.MaxAttempts <= 0 {
		policy.MaxAttempts = 1
	}

	var lastErr error
	delay := policy.BaseDelay

	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		err := op(ctx)
		if err == nil {
			return nil
		}

		var t *terminalError
		if errors.As(err, &t) {
			return t.err
		}
		lastErr = err

		if attempt == policy.MaxAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}

	return lastErr
}
