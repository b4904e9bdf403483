package service

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/99minutos/auth-service/internal/core/domain"
	"github.com/99minutos/auth-service/internal/core/ports"
)

// TokenValidator verifies access tokens and resolves refresh tokens.
type TokenValidator struct {
	tokens ports.RefreshTokenRepository
	signer *Signer
	now    func() time.Time
}

func NewTokenValidator(tokens ports.RefreshTokenRepository, signer *Signer, now func() time.Time) *TokenValidator {
	if now == nil {
		now = time.Now
	}
	return &TokenValidator{tokens: tokens, signer: signer, now: now}
}

// ValidateAccessToken returns the claims of a well-signed, unexpired token
// carrying a subject. Every failure yields domain.ErrInvalidToken.
func (v *TokenValidator) ValidateAccessToken(token string) (*domain.Claims, error) {
	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return v.signer.secret, nil },
		jwt.WithValidMethods([]string{v.signer.Algorithm()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(v.now),
	)
	if err != nil || !parsed.Valid || claims.Subject == "" {
		return nil, domain.ErrInvalidToken
	}

	out := &domain.Claims{Subject: claims.Subject, ExpiresAt: claims.ExpiresAt.Time}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time
	}
	return out, nil
}

// ResolveRefreshToken returns the active token row. Absent, expired and
// revoked tokens are indistinguishable: all yield
// domain.ErrRefreshTokenNotFound.
func (v *TokenValidator) ResolveRefreshToken(ctx context.Context, token string) (*domain.RefreshToken, error) {
	if token == "" {
		return nil, domain.ErrRefreshTokenNotFound
	}
	tok, err := v.tokens.FindActive(ctx, token, v.now().UTC())
	if err != nil {
		return nil, err
	}
	// same predicate as the store filter
	if !tok.Active(v.now()) {
		return nil, domain.ErrRefreshTokenNotFound
	}
	return tok, nil
}

// RevokeRefreshToken is idempotent. It reports false only when the value
// was never issued.
func (v *TokenValidator) RevokeRefreshToken(ctx context.Context, token string) (bool, error) {
	if token == "" {
		return false, nil
	}
	ok, err := v.tokens.Revoke(ctx, token)
	if err != nil && !errors.Is(err, domain.ErrRefreshTokenNotFound) {
		return false, err
	}
	return ok, nil
}
