package ports

import (
	"context"

	"github.com/99minutos/auth-service/internal/core/domain"
)

// ListUsersInput carries pagination for the user listing.
type ListUsersInput struct {
	Skip  int
	Limit int
}

// UserService exposes profile reads and admin user mutations.
type UserService interface {
	Me(ctx context.Context, caller domain.Identity) (*domain.User, error)
	Get(ctx context.Context, caller domain.Identity, userID string) (*domain.User, error)
	List(ctx context.Context, caller domain.Identity, in ListUsersInput) ([]*domain.User, error)
	Update(ctx context.Context, caller domain.Identity, userID string, patch domain.UserPatch) (*domain.User, error)
	Delete(ctx context.Context, caller domain.Identity, userID string) error
}
