package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/99minutos/auth-service/internal/core/domain"
	"github.com/99minutos/auth-service/internal/core/ports"
	"github.com/99minutos/auth-service/internal/pkg/metrics"
)

// refreshTokenBytes is the amount of entropy in a refresh token (hex encoded
// to twice as many characters).
const refreshTokenBytes = 32

// TokenIssuer mints access tokens and persists refresh tokens.
type TokenIssuer struct {
	tokens     ports.RefreshTokenRepository
	signer     *Signer
	refreshTTL time.Duration
	now        func() time.Time
}

func NewTokenIssuer(tokens ports.RefreshTokenRepository, signer *Signer, refreshTTL time.Duration, now func() time.Time) *TokenIssuer {
	if now == nil {
		now = time.Now
	}
	return &TokenIssuer{tokens: tokens, signer: signer, refreshTTL: refreshTTL, now: now}
}

// IssueAccessToken signs {sub: subject, exp: now+ttl}. It touches no store.
func (i *TokenIssuer) IssueAccessToken(subject string, ttl time.Duration) (string, error) {
	now := i.now()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	signed, err := jwt.NewWithClaims(i.signer.method, claims).SignedString(i.signer.secret)
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}
	metrics.TokensIssuedTotal.WithLabelValues("access").Inc()
	return signed, nil
}

// IssueRefreshToken persists a new, unrevoked refresh token for userID.
func (i *TokenIssuer) IssueRefreshToken(ctx context.Context, userID string) (*domain.RefreshToken, error) {
	value, err := randomToken(refreshTokenBytes)
	if err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}
	now := i.now().UTC()
	tok := &domain.RefreshToken{
		ID:        uuid.NewString(),
		Token:     value,
		UserID:    userID,
		ExpiresAt: now.Add(i.refreshTTL),
		CreatedAt: now,
	}
	if err := i.tokens.Create(ctx, tok); err != nil {
		return nil, err
	}
	metrics.TokensIssuedTotal.WithLabelValues("refresh").Inc()
	return tok, nil
}

func randomToken(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
