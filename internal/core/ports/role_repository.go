package ports

import (
	"context"
	"time"

	"github.com/99minutos/auth-service/internal/core/domain"
)

// RoleRepository is the role store.
type RoleRepository interface {
	Create(ctx context.Context, r *domain.Role) error
	FindByID(ctx context.Context, id string) (*domain.Role, error)
	List(ctx context.Context) ([]*domain.Role, error)
	Update(ctx context.Context, r *domain.Role) error
	// Delete removes the role and its assignment records. User.Role values
	// naming the role are left as they are.
	Delete(ctx context.Context, id string) error
	// Assign sets the user's authoritative role to role.Name and appends an
	// assignment record, as a single unit of work.
	Assign(ctx context.Context, userID string, role *domain.Role, at time.Time) (*domain.User, error)
	Assignments(ctx context.Context, userID string) ([]domain.UserRoleAssignment, error)
}
