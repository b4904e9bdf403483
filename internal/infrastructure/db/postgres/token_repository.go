package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/99minutos/auth-service/internal/core/domain"
)

// RefreshTokenRepository implements ports.RefreshTokenRepository.
type RefreshTokenRepository struct {
	db *sqlx.DB
}

func NewRefreshTokenRepository(db *sqlx.DB) *RefreshTokenRepository {
	return &RefreshTokenRepository{db: db}
}

type refreshTokenRow struct {
	ID        string    `db:"id"`
	Token     string    `db:"token"`
	UserID    string    `db:"user_id"`
	ExpiresAt time.Time `db:"expires_at"`
	CreatedAt time.Time `db:"created_at"`
	IsRevoked bool      `db:"is_revoked"`
}

func (r *RefreshTokenRepository) Create(ctx context.Context, t *domain.RefreshToken) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO refresh_tokens (id, token, user_id, expires_at, created_at, is_revoked)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		t.ID, t.Token, t.UserID, t.ExpiresAt.UTC(), t.CreatedAt.UTC(), t.IsRevoked)
	if err != nil {
		return domain.StorageError("insert refresh token", err)
	}
	return nil
}

func (r *RefreshTokenRepository) FindActive(ctx context.Context, token string, now time.Time) (*domain.RefreshToken, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var row refreshTokenRow
	err := r.db.GetContext(ctx, &row,
		`SELECT id, token, user_id, expires_at, created_at, is_revoked
		 FROM refresh_tokens
		 WHERE token = $1 AND is_revoked = FALSE AND expires_at > $2`,
		token, now.UTC())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrRefreshTokenNotFound
		}
		return nil, domain.StorageError("find refresh token", err)
	}
	return &domain.RefreshToken{
		ID:        row.ID,
		Token:     row.Token,
		UserID:    row.UserID,
		ExpiresAt: row.ExpiresAt.UTC(),
		CreatedAt: row.CreatedAt.UTC(),
		IsRevoked: row.IsRevoked,
	}, nil
}

func (r *RefreshTokenRepository) Revoke(ctx context.Context, token string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `UPDATE refresh_tokens SET is_revoked = TRUE WHERE token = $1`, token)
	if err != nil {
		return false, domain.StorageError("revoke refresh token", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, domain.StorageError("revoke refresh token", err)
	}
	return n > 0, nil
}

func (r *RefreshTokenRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx,
		`DELETE FROM refresh_tokens WHERE expires_at <= $1 OR is_revoked = TRUE`, now.UTC())
	if err != nil {
		return 0, domain.StorageError("delete expired refresh tokens", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, domain.StorageError("delete expired refresh tokens", err)
	}
	return n, nil
}
