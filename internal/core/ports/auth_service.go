package ports

import (
	"context"

	"github.com/99minutos/auth-service/internal/core/domain"
)

// AuthService covers the session lifecycle.
type AuthService interface {
	Register(ctx context.Context, email, password string) (*domain.User, error)
	Login(ctx context.Context, email, password string) (*domain.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*domain.TokenPair, error)
	Logout(ctx context.Context, caller domain.Identity, refreshToken string) error
}

// Gate resolves bearer tokens into identities and evaluates the policy table.
type Gate interface {
	Authenticate(ctx context.Context, accessToken string) (domain.Identity, error)
	Authorize(caller domain.Identity, op domain.Operation, targetID string) error
}
