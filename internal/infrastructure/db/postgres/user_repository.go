package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/99minutos/auth-service/internal/core/domain"
)

const userColumns = `id, email, hashed_password, is_active, role, created_at, updated_at`

// UserRepository implements ports.UserRepository.
type UserRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

type userRow struct {
	ID             string    `db:"id"`
	Email          string    `db:"email"`
	HashedPassword string    `db:"hashed_password"`
	IsActive       bool      `db:"is_active"`
	Role           string    `db:"role"`
	CreatedAt      time.Time `db:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"`
}

func toUserRow(u *domain.User) userRow {
	return userRow{
		ID:             u.ID,
		Email:          u.Email,
		HashedPassword: u.PasswordHash,
		IsActive:       u.IsActive,
		Role:           u.Role,
		CreatedAt:      u.CreatedAt.UTC(),
		UpdatedAt:      u.UpdatedAt.UTC(),
	}
}

func (r userRow) toDomain() *domain.User {
	return &domain.User{
		ID:           r.ID,
		Email:        r.Email,
		PasswordHash: r.HashedPassword,
		IsActive:     r.IsActive,
		Role:         r.Role,
		CreatedAt:    r.CreatedAt.UTC(),
		UpdatedAt:    r.UpdatedAt.UTC(),
	}
}

func (r *UserRepository) Create(ctx context.Context, u *domain.User) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES (:id, :email, :hashed_password, :is_active, :role, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, toUserRow(u)); err != nil {
		if hasCode(err, codeUniqueViolation) {
			return domain.ErrEmailTaken
		}
		return domain.StorageError("insert user", err)
	}
	return nil
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	return r.get(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.get(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

func (r *UserRepository) get(ctx context.Context, query string, arg any) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var row userRow
	if err := r.db.GetContext(ctx, &row, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, domain.StorageError("find user", err)
	}
	return row.toDomain(), nil
}

func (r *UserRepository) List(ctx context.Context, skip, limit int) ([]*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var rows []userRow
	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at, id OFFSET $1 LIMIT $2`
	if err := r.db.SelectContext(ctx, &rows, query, skip, limit); err != nil {
		return nil, domain.StorageError("list users", err)
	}
	users := make([]*domain.User, 0, len(rows))
	for _, row := range rows {
		users = append(users, row.toDomain())
	}
	return users, nil
}

func (r *UserRepository) Update(ctx context.Context, u *domain.User) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	query := `
		UPDATE users SET
			email = :email,
			hashed_password = :hashed_password,
			is_active = :is_active,
			role = :role,
			updated_at = :updated_at
		WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, toUserRow(u))
	if err != nil {
		if hasCode(err, codeUniqueViolation) {
			return domain.ErrEmailTaken
		}
		return domain.StorageError("update user", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return domain.StorageError("update user", err)
	}
	if n == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// Delete relies on ON DELETE CASCADE for refresh_tokens and user_roles.
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return domain.StorageError("delete user", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return domain.StorageError("delete user", err)
	}
	if n == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}
