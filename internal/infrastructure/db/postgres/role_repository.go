package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/99minutos/auth-service/internal/core/domain"
)

const roleColumns = `id, name, description, permissions, created_at, updated_at`

// RoleRepository implements ports.RoleRepository.
type RoleRepository struct {
	db *sqlx.DB
}

func NewRoleRepository(db *sqlx.DB) *RoleRepository {
	return &RoleRepository{db: db}
}

type roleRow struct {
	ID          string         `db:"id"`
	Name        string         `db:"name"`
	Description string         `db:"description"`
	Permissions pq.StringArray `db:"permissions"`
	CreatedAt   time.Time      `db:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at"`
}

func toRoleRow(r *domain.Role) roleRow {
	perms := r.Permissions
	if perms == nil {
		perms = []string{}
	}
	return roleRow{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		Permissions: pq.StringArray(perms),
		CreatedAt:   r.CreatedAt.UTC(),
		UpdatedAt:   r.UpdatedAt.UTC(),
	}
}

func (r roleRow) toDomain() *domain.Role {
	perms := []string(r.Permissions)
	if perms == nil {
		perms = []string{}
	}
	return &domain.Role{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		Permissions: perms,
		CreatedAt:   r.CreatedAt.UTC(),
		UpdatedAt:   r.UpdatedAt.UTC(),
	}
}

func (r *RoleRepository) Create(ctx context.Context, role *domain.Role) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	query := `
		INSERT INTO roles (` + roleColumns + `)
		VALUES (:id, :name, :description, :permissions, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, toRoleRow(role)); err != nil {
		if hasCode(err, codeUniqueViolation) {
			return domain.ErrRoleNameTaken
		}
		return domain.StorageError("insert role", err)
	}
	return nil
}

func (r *RoleRepository) FindByID(ctx context.Context, id string) (*domain.Role, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var row roleRow
	if err := r.db.GetContext(ctx, &row, `SELECT `+roleColumns+` FROM roles WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrRoleNotFound
		}
		return nil, domain.StorageError("find role", err)
	}
	return row.toDomain(), nil
}

func (r *RoleRepository) List(ctx context.Context) ([]*domain.Role, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var rows []roleRow
	if err := r.db.SelectContext(ctx, &rows, `SELECT `+roleColumns+` FROM roles ORDER BY name`); err != nil {
		return nil, domain.StorageError("list roles", err)
	}
	roles := make([]*domain.Role, 0, len(rows))
	for _, row := range rows {
		roles = append(roles, row.toDomain())
	}
	return roles, nil
}

func (r *RoleRepository) Update(ctx context.Context, role *domain.Role) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	query := `
		UPDATE roles SET
			name = :name,
			description = :description,
			permissions = :permissions,
			updated_at = :updated_at
		WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, toRoleRow(role))
	if err != nil {
		if hasCode(err, codeUniqueViolation) {
			return domain.ErrRoleNameTaken
		}
		return domain.StorageError("update role", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return domain.StorageError("update role", err)
	}
	if n == 0 {
		return domain.ErrRoleNotFound
	}
	return nil
}

// Delete relies on ON DELETE CASCADE for user_roles.
func (r *RoleRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `DELETE FROM roles WHERE id = $1`, id)
	if err != nil {
		return domain.StorageError("delete role", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return domain.StorageError("delete role", err)
	}
	if n == 0 {
		return domain.ErrRoleNotFound
	}
	return nil
}

// Assign updates users.role and inserts the user_roles record in one
// transaction.
func (r *RoleRepository) Assign(ctx context.Context, userID string, role *domain.Role, at time.Time) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, domain.StorageError("begin assign", err)
	}
	defer func() { _ = tx.Rollback() }()

	var row userRow
	err = tx.GetContext(ctx, &row,
		`UPDATE users SET role = $1, updated_at = $2 WHERE id = $3 RETURNING `+userColumns,
		role.Name, at.UTC(), userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, domain.StorageError("assign role", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO user_roles (user_id, role_id, created_at) VALUES ($1, $2, $3)`,
		userID, role.ID, at.UTC())
	if err != nil {
		if hasCode(err, codeForeignKeyViolation) {
			return nil, domain.ErrRoleNotFound
		}
		return nil, domain.StorageError("record role assignment", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, domain.StorageError("commit assign", err)
	}
	return row.toDomain(), nil
}

func (r *RoleRepository) Assignments(ctx context.Context, userID string) ([]domain.UserRoleAssignment, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var rows []struct {
		UserID    string    `db:"user_id"`
		RoleID    string    `db:"role_id"`
		CreatedAt time.Time `db:"created_at"`
	}
	query := `SELECT user_id, role_id, created_at FROM user_roles WHERE user_id = $1 ORDER BY created_at`
	if err := r.db.SelectContext(ctx, &rows, query, userID); err != nil {
		return nil, domain.StorageError("list role assignments", err)
	}
	out := make([]domain.UserRoleAssignment, 0, len(rows))
	for _, row := range rows {
		out = append(out, domain.UserRoleAssignment{UserID: row.UserID, RoleID: row.RoleID, CreatedAt: row.CreatedAt.UTC()})
	}
	return out, nil
}
