package ports

import (
	"context"
	"time"

	"github.com/99minutos/auth-service/internal/core/domain"
)

// RefreshTokenRepository persists refresh tokens.
type RefreshTokenRepository interface {
	Create(ctx context.Context, t *domain.RefreshToken) error
	// FindActive returns the token only when expires_at > now and it is not
	// revoked. Missing, expired and revoked tokens all yield
	// domain.ErrRefreshTokenNotFound.
	FindActive(ctx context.Context, token string, now time.Time) (*domain.RefreshToken, error)
	// Revoke marks the token revoked. It reports false only when no row holds
	// the value; revoking an already revoked token reports true.
	Revoke(ctx context.Context, token string) (bool, error)
	// DeleteExpired removes tokens that are expired at now or revoked.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
