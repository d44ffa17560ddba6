package app

import (
	"context"
	"time"

	"github.com/unstable-code/angple/internal/logger"
	"github.com/unstable-code/angple/internal/observability/metrics"
	"github.com/unstable-code/angple/internal/session"
	"github.com/unstable-code/angple/internal/token"
)

// runSweeper periodically removes expired sessions and refresh tokens.
// Runs until the context is canceled.
func runSweeper(ctx context.Context, interval time.Duration, sessions *session.Service, tokens *token.Service) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		sessionsDeleted, err := sessions.SweepExpired(ctx)
		if err != nil {
			logger.Error("session sweep failed", map[string]any{"error": err.Error()})
		} else {
			metrics.SweepDeletedTotal.WithLabelValues("sessions").Add(float64(sessionsDeleted))
		}

		tokensDeleted, err := tokens.SweepExpired(ctx)
		if err != nil {
			logger.Error("refresh token sweep failed", map[string]any{"error": err.Error()})
		} else {
			metrics.SweepDeletedTotal.WithLabelValues("refresh_tokens").Add(float64(tokensDeleted))
		}

		if sessionsDeleted > 0 || tokensDeleted > 0 {
			logger.Info("expiry sweep completed", map[string]any{
				"sessions":       sessionsDeleted,
				"refresh_tokens": tokensDeleted,
			})
		}
	}
}
