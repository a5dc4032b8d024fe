package store

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"go.uber.org/zap"
)

// RetryPolicy bounds how often and how long a read is retried.
type RetryPolicy struct {
	MaxAttempts int
	BaseBackoff time.Duration
	MaxBackoff  time.Duration
}

// DefaultReadRetry is applied to ListAll.
var DefaultReadRetry = RetryPolicy{
	MaxAttempts: 3,
	BaseBackoff: 50 * time.Millisecond,
	MaxBackoff:  500 * time.Millisecond,
}

// doWithRetry runs fn until it succeeds, fails with a non-transient error,
// runs out of attempts, or ctx ends.
func doWithRetry(ctx context.Context, policy RetryPolicy, fn func() error) error {
	if policy.MaxAttempts <= 0 {
		policy.MaxAttempts = 1
	}
	if policy.BaseBackoff <= 0 {
		policy.BaseBackoff = 10 * time.Millisecond
	}
	if policy.MaxBackoff <= 0 {
		policy.MaxBackoff = 200 * time.Millisecond
	}

	var lastErr error
	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		if !isTransient(err) || attempt == policy.MaxAttempts {
			return err
		}

		if err := sleepWithContext(ctx, backoff(policy.BaseBackoff, policy.MaxBackoff, attempt)); err != nil {
			return err
		}
	}

	return lastErr
}

// connectRetry bounds how long opening a store waits for its database.
type connectRetry struct {
	ctx         context.Context
	maxAttempts int
	interval    time.Duration
}

// waitForDatabase pings until the database answers, for databases that start
// alongside the service.
func waitForDatabase(r connectRetry, ping func(context.Context) error, logger *zap.Logger) error {
	for i := 1; i <= r.maxAttempts; i++ {
		err := ping(r.ctx)
		if err == nil {
			return nil
		}
		if r.maxAttempts == 1 {
			return err
		}
		logger.Warn("failed to ping database",
			zap.Int("attempt", i),
			zap.Int("maxAttempts", r.maxAttempts),
			zap.Error(err),
		)
		if i == r.maxAttempts {
			return fmt.Errorf("database not reachable after %d attempts: %w", r.maxAttempts, err)
		}
		if err := sleepWithContext(r.ctx, r.interval); err != nil {
			return err
		}
	}
	return nil
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// backoff doubles base for every attempt after the first, capped at max.
func backoff(base, max time.Duration, attempt int) time.Duration {
	b := base
	for i := 1; i < attempt; i++ {
		b *= 2
		if b >= max {
			return max
		}
	}
	if b > max {
		return max
	}
	return b
}

// isTransient reports whether err is worth another attempt.
func isTransient(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, ErrNotFound) {
		return false
	}
	if errors.Is(err, driver.ErrBadConn) {
		return true
	}

	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return true
	}

	// Drivers do not export typed errors for these.
	msg := strings.ToLower(err.Error())
	for _, s := range []string{
		"deadlock",
		"lock wait timeout",
		"database is locked",
		"connection reset",
		"broken pipe",
	} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}
