package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/abhisek/skillprobe/internal/interview"
)

// ReapIdle abandons in-progress sessions not updated within IdleTimeout.
// Sessions with a turn in flight are left alone. It returns the number of
// sessions abandoned.
func (e *Engine) ReapIdle(ctx context.Context) (int, error) {
	if e.cfg.IdleTimeout <= 0 {
		return 0, nil
	}
	cutoff := e.now().Add(-e.cfg.IdleTimeout)
	ids, err := e.store.StaleInProgress(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("find idle sessions: %w", err)
	}

	reaped := 0
	for _, id := range ids {
		err := e.Abandon(ctx, id)
		var stateErr *interview.InvalidStateError
		switch {
		case err == nil:
			reaped++
		case errors.As(err, &stateErr), errors.Is(err, interview.ErrSessionNotFound):
			// Busy, or already moved on since the query.
		default:
			return reaped, err
		}
	}
	if reaped > 0 {
		e.logger.InfoContext(ctx, "reaped idle sessions", "count", reaped, "cutoff", cutoff)
	}
	return reaped, nil
}

// RunReaper calls ReapIdle every ReapInterval until ctx is done.
func (e *Engine) RunReaper(ctx context.Context) {
	if e.cfg.IdleTimeout <= 0 || e.cfg.ReapInterval <= 0 {
		return
	}
	ticker := time.NewTicker(e.cfg.ReapInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := e.ReapIdle(ctx); err != nil {
				e.logger.ErrorContext(ctx, "reaper failed", "error", err)
			}
		}
	}
}
