package connector

import (
	"context"
	"log/slog"
	"time"

	"github.com/alejandrodnm/kujibot/internal/domain"
)

// RetryConfig bounds a retried gateway call: cada intento está limitado por
// Timeout, entre intentos se espera Delay, y la latencia total queda acotada
// por Attempts × (Timeout + Delay).
type RetryConfig struct {
	Attempts int
	Timeout  time.Duration
	Delay    time.Duration
}

// runWithRetry invokes op up to cfg.Attempts times, each attempt bounded by
// cfg.Timeout. Safe for idempotent reads; writes are only retried because
// client-order-id reuse makes resubmission safe at the venue.
//
// After exhausting attempts it fails with *domain.RetriesExhaustedError
// carrying the last error. Parent cancellation stops the loop immediately.
func runWithRetry[T any](ctx context.Context, cfg RetryConfig, name string, op func(context.Context) (T, error)) (T, error) {
	var zero T

	attempts := cfg.Attempts
	if attempts <= 0 {
		attempts = 1
	}

	var last error
	for attempt := 1; attempt <= attempts; attempt++ {
		attemptCtx := ctx
		cancel := context.CancelFunc(func() {})
		if cfg.Timeout > 0 {
			attemptCtx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		}

		out, err := op(attemptCtx)
		cancel()
		if err == nil {
			return out, nil
		}
		last = err

		// Cancelación del caller: no es un fallo a reintentar
		if ctx.Err() != nil {
			return zero, ctx.Err()
		}

		slog.Debug("connector: gateway call failed",
			"op", name, "attempt", attempt, "of", attempts, "err", err)

		if attempt < attempts && cfg.Delay > 0 {
			select {
			case <-time.After(cfg.Delay):
			case <-ctx.Done():
				return zero, ctx.Err()
			}
		}
	}

	return zero, &domain.RetriesExhaustedError{Attempts: attempts, Last: last}
}
