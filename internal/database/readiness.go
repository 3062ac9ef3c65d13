package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

// Backoff schedule for the readiness probe: start quick, double on each
// failure, never wait longer than the cap between attempts.
const (
	initialProbeBackoff = 250 * time.Millisecond
	maxProbeBackoff     = 5 * time.Second
	probeAttemptTimeout = 5 * time.Second
)

// Wait retries probe until it succeeds or timeout elapses. Each attempt
// gets its own deadline so a hanging connection cannot eat the whole
// budget. The returned error carries the last probe failure.
func Wait(ctx context.Context, logger *zerolog.Logger, timeout time.Duration, probe func(context.Context) error) error {
	return wait(ctx, logger, timeout, initialProbeBackoff, maxProbeBackoff, probe)
}

func wait(ctx context.Context, logger *zerolog.Logger, timeout, backoff, maxBackoff time.Duration, probe func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var lastErr error
	for attempt := 1; ; attempt++ {
		attemptCtx, attemptCancel := context.WithTimeout(ctx, probeAttemptTimeout)
		lastErr = probe(attemptCtx)
		attemptCancel()

		if lastErr == nil {
			if attempt > 1 {
				logger.Info().Int("attempts", attempt).Msg("database ready")
			}
			return nil
		}

		logger.Warn().
			Err(lastErr).
			Int("attempt", attempt).
			Dur("retry_in", backoff).
			Msg("database not ready")

		select {
		case <-ctx.Done():
			return fmt.Errorf("database not ready after %s: %w", timeout, lastErr)
		case <-time.After(backoff):
		}

		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
}

// WaitConnect opens a single connection for one-shot tooling, retrying
// with the same backoff schedule the pools use. The caller owns the
// returned connection.
func WaitConnect(ctx context.Context, logger *zerolog.Logger, dsn string, timeout time.Duration) (*pgx.Conn, error) {
	var conn *pgx.Conn
	err := Wait(ctx, logger, timeout, func(ctx context.Context) error {
		var err error
		conn, err = pgx.Connect(ctx, dsn)
		return err
	})
	if err != nil {
		return nil, err
	}
	return conn, nil
}
