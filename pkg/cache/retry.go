package cache

import (
	"context"
	"errors"
	"time"
)

// DefaultBackoff is the delay before the second attempt. Each further
// attempt waits twice as long as the previous one.
var DefaultBackoff = time.Second

// maxAttempts bounds RetryWithBackoff, counting the first call.
const maxAttempts = 3

type retryableError struct{ err error }

func (e *retryableError) Error() string { return e.err.Error() }
func (e *retryableError) Unwrap() error { return e.err }

// Retryable marks err as transient. A nil err stays nil.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &retryableError{err: err}
}

// IsRetryable reports whether err, or anything it wraps, was marked with
// Retryable.
func IsRetryable(err error) bool {
	var re *retryableError
	return errors.As(err, &re)
}

// RetryWithBackoff calls fn until it succeeds, returns an error not marked
// Retryable, or maxAttempts calls have failed. Cancelling ctx during a
// backoff returns ctx.Err().
func RetryWithBackoff(ctx context.Context, fn func() error) error {
	delay := DefaultBackoff
	var err error
	for attempt := 1; ; attempt++ {
		if err = fn(); err == nil || !IsRetryable(err) || attempt == maxAttempts {
			return err
		}
		t := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
		delay *= 2
	}
}
