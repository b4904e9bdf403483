package ports

import (
	"context"

	"github.com/99minutos/auth-service/internal/core/domain"
)

// UserRepository is the credential store. It owns user records exclusively.
type UserRepository interface {
	// Create inserts u. It returns domain.ErrEmailTaken when the email is
	// already present; uniqueness is enforced by the store itself.
	Create(ctx context.Context, u *domain.User) error
	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	List(ctx context.Context, skip, limit int) ([]*domain.User, error)
	// Update replaces the mutable fields of u (email, password hash, active
	// flag, role, updated_at).
	Update(ctx context.Context, u *domain.User) error
	// Delete removes the user together with its refresh tokens and role
	// assignments.
	Delete(ctx context.Context, id string) error
}
