package ports

import (
	"context"

	"github.com/99minutos/auth-service/internal/core/domain"
)

// CreateRoleInput carries the fields of a new role.
type CreateRoleInput struct {
	Name        string
	Description string
	Permissions []string
}

// RoleService exposes role reads, role CRUD and role assignment.
type RoleService interface {
	List(ctx context.Context, caller domain.Identity) ([]*domain.Role, error)
	Get(ctx context.Context, caller domain.Identity, roleID string) (*domain.Role, error)
	Create(ctx context.Context, caller domain.Identity, in CreateRoleInput) (*domain.Role, error)
	Update(ctx context.Context, caller domain.Identity, roleID string, patch domain.RolePatch) (*domain.Role, error)
	Delete(ctx context.Context, caller domain.Identity, roleID string) error
	Assign(ctx context.Context, caller domain.Identity, userID, roleID string) (*domain.User, error)
}
