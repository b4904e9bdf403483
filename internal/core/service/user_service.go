package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/99minutos/auth-service/internal/core/domain"
	"github.com/99minutos/auth-service/internal/core/ports"
)

const (
	defaultListLimit = 100
	maxListLimit     = 100
)

// UserService applies the policy table to profile reads and user mutations.
type UserService struct {
	users  ports.UserRepository
	gate   ports.Gate
	hasher ports.PasswordHasher
	events ports.EventPublisher
	log    zerolog.Logger
	now    func() time.Time
}

func NewUserService(users ports.UserRepository, gate ports.Gate, hasher ports.PasswordHasher, events ports.EventPublisher, log zerolog.Logger) *UserService {
	if events == nil {
		events = NopPublisher{}
	}
	return &UserService{users: users, gate: gate, hasher: hasher, events: events, log: log, now: time.Now}
}

// Me returns the caller's own record.
func (s *UserService) Me(ctx context.Context, caller domain.Identity) (*domain.User, error) {
	return s.Get(ctx, caller, caller.UserID)
}

func (s *UserService) Get(ctx context.Context, caller domain.Identity, userID string) (*domain.User, error) {
	if err := s.gate.Authorize(caller, domain.OpReadUser, userID); err != nil {
		return nil, err
	}
	return s.users.FindByID(ctx, userID)
}

func (s *UserService) List(ctx context.Context, caller domain.Identity, in ports.ListUsersInput) ([]*domain.User, error) {
	if err := s.gate.Authorize(caller, domain.OpListUsers, ""); err != nil {
		return nil, err
	}
	if in.Skip < 0 {
		in.Skip = 0
	}
	if in.Limit <= 0 {
		in.Limit = defaultListLimit
	}
	if in.Limit > maxListLimit {
		in.Limit = maxListLimit
	}
	return s.users.List(ctx, in.Skip, in.Limit)
}

// Update patches a profile. The role field is dropped silently unless the
// caller is an admin.
func (s *UserService) Update(ctx context.Context, caller domain.Identity, userID string, patch domain.UserPatch) (*domain.User, error) {
	if err := s.gate.Authorize(caller, domain.OpUpdateUser, userID); err != nil {
		return nil, err
	}
	if !caller.IsAdmin() {
		patch.Role = nil
	}

	if patch.Email != nil {
		email := strings.TrimSpace(*patch.Email)
		if email == "" {
			return nil, domain.Invalid("email must not be empty")
		}
		patch.Email = &email
	}
	if patch.Role != nil && strings.TrimSpace(*patch.Role) == "" {
		return nil, domain.Invalid("role must not be empty")
	}
	if patch.Password != nil {
		if *patch.Password == "" {
			return nil, domain.Invalid("password must not be empty")
		}
		hash, err := s.hasher.Hash(*patch.Password)
		if err != nil {
			return nil, err
		}
		patch.Password = &hash
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	patch.Apply(user, s.now().UTC())
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}

	s.log.Info().Str("user_id", user.ID).Str("by", caller.UserID).Msg("user updated")
	return user, nil
}

// Delete removes a user with its refresh tokens and role assignments.
func (s *UserService) Delete(ctx context.Context, caller domain.Identity, userID string) error {
	if err := s.gate.Authorize(caller, domain.OpDeleteUser, userID); err != nil {
		return err
	}
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if err := s.users.Delete(ctx, userID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrUserNotFound
		}
		return err
	}

	s.log.Info().Str("user_id", userID).Str("by", caller.UserID).Msg("user deleted")
	s.events.Publish(ctx, domain.AccountEvent{
		Type:       domain.EventUserDeleted,
		UserID:     user.ID,
		Email:      user.Email,
		OccurredAt: s.now().UTC(),
	})
	return nil
}
