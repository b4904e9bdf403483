package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/99minutos/auth-service/internal/core/domain"
	"github.com/99minutos/auth-service/internal/core/ports"
	"github.com/99minutos/auth-service/internal/pkg/metrics"
)

// AccessTokenValidator is the subset of TokenValidator the gate needs.
type AccessTokenValidator interface {
	ValidateAccessToken(token string) (*domain.Claims, error)
}

// Gate is the authorization gate. A request moves through
//
//	unauthenticated -> token-validated -> active -> authorized
//
// Authenticate covers the first transition; callers check Identity.IsActive
// (RequireActive middleware) and then Authorize against the policy table.
type Gate struct {
	validator AccessTokenValidator
	users     ports.UserRepository
	log       zerolog.Logger
}

func NewGate(validator AccessTokenValidator, users ports.UserRepository, log zerolog.Logger) *Gate {
	return &Gate{validator: validator, users: users, log: log}
}

// Authenticate validates the token and reloads the identity from the
// credential store by the token subject.
func (g *Gate) Authenticate(ctx context.Context, accessToken string) (domain.Identity, error) {
	claims, err := g.validator.ValidateAccessToken(accessToken)
	if err != nil {
		metrics.TokenRejectionsTotal.WithLabelValues("invalid").Inc()
		return domain.Identity{}, domain.ErrInvalidToken
	}

	user, err := g.users.FindByEmail(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			metrics.TokenRejectionsTotal.WithLabelValues("unknown_subject").Inc()
			return domain.Identity{}, domain.ErrInvalidToken
		}
		return domain.Identity{}, err
	}
	return domain.IdentityOf(user), nil
}

// Authorize evaluates the policy table for op. Inactive callers are denied
// regardless of role.
func (g *Gate) Authorize(caller domain.Identity, op domain.Operation, targetID string) error {
	if !caller.IsActive {
		return domain.ErrInactiveUser
	}
	if !domain.Allowed(caller, op, targetID) {
		metrics.AuthorizationDeniedTotal.WithLabelValues(string(op)).Inc()
		g.log.Warn().
			Str("user_id", caller.UserID).
			Str("operation", string(op)).
			Str("target_id", targetID).
			Msg("authorization denied")
		return domain.ErrForbidden
	}
	return nil
}
