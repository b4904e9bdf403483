package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/99minutos/auth-service/internal/core/ports"
	"github.com/99minutos/auth-service/internal/pkg/metrics"
)

const defaultJanitorInterval = time.Hour

// TokenJanitor periodically deletes refresh tokens that are expired or
// revoked.
type TokenJanitor struct {
	tokens   ports.RefreshTokenRepository
	interval time.Duration
	log      zerolog.Logger
	now      func() time.Time
}

func NewTokenJanitor(tokens ports.RefreshTokenRepository, interval time.Duration, log zerolog.Logger) *TokenJanitor {
	if interval <= 0 {
		interval = defaultJanitorInterval
	}
	return &TokenJanitor{tokens: tokens, interval: interval, log: log, now: time.Now}
}

// Sweep runs one garbage-collection pass and returns the number of removed
// tokens.
func (j *TokenJanitor) Sweep(ctx context.Context) (int64, error) {
	n, err := j.tokens.DeleteExpired(ctx, j.now().UTC())
	if err != nil {
		return 0, err
	}
	metrics.RefreshTokensPurgedTotal.Add(float64(n))
	if n > 0 {
		j.log.Info().Int64("purged", n).Msg("refresh tokens purged")
	}
	return n, nil
}

// Run sweeps every interval until ctx is cancelled.
func (j *TokenJanitor) Run(ctx context.Context) {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := j.Sweep(ctx); err != nil {
				j.log.Error().Err(err).Msg("refresh token sweep failed")
			}
		}
	}
}
