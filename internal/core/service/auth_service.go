package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/99minutos/auth-service/internal/core/domain"
	"github.com/99minutos/auth-service/internal/core/ports"
	"github.com/99minutos/auth-service/internal/pkg/metrics"
)

// AuthOptions are the session settings taken from configuration.
type AuthOptions struct {
	AccessTTL time.Duration
	// RotateRefresh replaces the refresh token on every refresh call. Off by
	// default: refresh returns the presented token unchanged.
	RotateRefresh bool
	// Clock defaults to time.Now.
	Clock func() time.Time
}

// AuthService implements registration, login, refresh and logout.
type AuthService struct {
	users     ports.UserRepository
	hasher    ports.PasswordHasher
	issuer    *TokenIssuer
	validator *TokenValidator
	events    ports.EventPublisher
	opts      AuthOptions
	log       zerolog.Logger
	now       func() time.Time

	// decoy is verified against when the email is unknown so both login
	// failures cost one hash comparison.
	decoy string
}

func NewAuthService(
	users ports.UserRepository,
	hasher ports.PasswordHasher,
	issuer *TokenIssuer,
	validator *TokenValidator,
	events ports.EventPublisher,
	opts AuthOptions,
	log zerolog.Logger,
) (*AuthService, error) {
	if opts.AccessTTL <= 0 {
		opts.AccessTTL = 30 * time.Minute
	}
	if events == nil {
		events = NopPublisher{}
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	decoy, err := hasher.Hash(uuid.NewString())
	if err != nil {
		return nil, fmt.Errorf("auth service: hash decoy password: %w", err)
	}
	return &AuthService{
		users:     users,
		hasher:    hasher,
		issuer:    issuer,
		validator: validator,
		events:    events,
		opts:      opts,
		log:       log,
		now:       opts.Clock,
		decoy:     decoy,
	}, nil
}

func (s *AuthService) Register(ctx context.Context, email, password string) (*domain.User, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, domain.Invalid("email and password are required")
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	user := &domain.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		IsActive:     true,
		Role:         domain.RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	s.log.Info().Str("user_id", user.ID).Msg("user registered")
	s.events.Publish(ctx, domain.AccountEvent{
		Type:       domain.EventUserRegistered,
		UserID:     user.ID,
		Email:      user.Email,
		OccurredAt: now,
	})
	return user, nil
}

// Login never tells an unknown email apart from a wrong password.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.TokenPair, error) {
	user, err := s.users.FindByEmail(ctx, email)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		s.hasher.Verify(password, s.decoy)
		return nil, s.loginFailed()
	case err != nil:
		return nil, err
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		return nil, s.loginFailed()
	}

	access, err := s.issuer.IssueAccessToken(user.Email, s.opts.AccessTTL)
	if err != nil {
		return nil, err
	}
	refresh, err := s.issuer.IssueRefreshToken(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	metrics.LoginAttemptsTotal.WithLabelValues("success").Inc()
	s.log.Info().Str("user_id", user.ID).Msg("login succeeded")

	return &domain.TokenPair{
		AccessToken:  access,
		RefreshToken: refresh.Token,
		TokenType:    domain.TokenTypeBearer,
	}, nil
}

func (s *AuthService) loginFailed() error {
	metrics.LoginAttemptsTotal.WithLabelValues("failure").Inc()
	return domain.ErrInvalidCredentials
}

// Refresh mints a new access token for the owner of refreshToken. Unless
// rotation is enabled the same refresh token value is returned.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
	tok, err := s.validator.ResolveRefreshToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrInvalidRefreshToken
		}
		return nil, err
	}

	user, err := s.users.FindByID(ctx, tok.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrInvalidRefreshToken
		}
		return nil, err
	}

	access, err := s.issuer.IssueAccessToken(user.Email, s.opts.AccessTTL)
	if err != nil {
		return nil, err
	}

	next := tok.Token
	if s.opts.RotateRefresh {
		if _, err := s.validator.RevokeRefreshToken(ctx, tok.Token); err != nil {
			return nil, err
		}
		rotated, err := s.issuer.IssueRefreshToken(ctx, user.ID)
		if err != nil {
			return nil, err
		}
		next = rotated.Token
	}

	return &domain.TokenPair{
		AccessToken:  access,
		RefreshToken: next,
		TokenType:    domain.TokenTypeBearer,
	}, nil
}

// Logout revokes refreshToken. It succeeds whether or not the token exists or
// is still valid.
func (s *AuthService) Logout(ctx context.Context, caller domain.Identity, refreshToken string) error {
	revoked, err := s.validator.RevokeRefreshToken(ctx, refreshToken)
	if err != nil {
		return err
	}
	if revoked {
		metrics.RefreshTokensRevokedTotal.Inc()
	}
	s.log.Info().Str("user_id", caller.UserID).Bool("revoked", revoked).Msg("logout")
	return nil
}

// NopPublisher discards account events.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, domain.AccountEvent) {}
