package memory

import (
	"context"
	"time"

	"github.com/99minutos/auth-service/internal/core/domain"
)

type RefreshTokenRepository struct {
	s *Store
}

func (r *RefreshTokenRepository) Create(_ context.Context, t *domain.RefreshToken) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, dup := r.s.tokens[t.Token]; dup {
		return domain.StorageError("create refresh token", domain.ErrConflict)
	}
	r.s.tokens[t.Token] = *t
	return nil
}

func (r *RefreshTokenRepository) FindActive(_ context.Context, token string, now time.Time) (*domain.RefreshToken, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	t, ok := r.s.tokens[token]
	if !ok || !t.Active(now) {
		return nil, domain.ErrRefreshTokenNotFound
	}
	return &t, nil
}

func (r *RefreshTokenRepository) Revoke(_ context.Context, token string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.tokens[token]
	if !ok {
		return false, nil
	}
	t.IsRevoked = true
	r.s.tokens[token] = t
	return true, nil
}

func (r *RefreshTokenRepository) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for value, t := range r.s.tokens {
		if t.IsRevoked || !t.ExpiresAt.After(now) {
			delete(r.s.tokens, value)
			n++
		}
	}
	return n, nil
}
