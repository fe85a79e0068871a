package util

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err as not worth retrying.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// RetryWithBackoff retries fn up to maxRetries times, sleeping attempt²×base
// between attempts. It stops early on a Permanent error or when ctx is done.
func RetryWithBackoff(ctx context.Context, maxRetries int, base time.Duration, fn func() error, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(attempt*attempt) * base
			logger.Warn("retrying", "attempt", attempt+1, "max", maxRetries, "backoff", backoff)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}
		err := fn()
		if err == nil {
			return nil
		}
		var perm *permanentError
		if errors.As(err, &perm) {
			return perm.err
		}
		lastErr = err
		logger.Debug("attempt failed", "attempt", attempt+1, "error", err)
	}
	return fmt.Errorf("all %d attempts failed, last error: %w", maxRetries, lastErr)
}
