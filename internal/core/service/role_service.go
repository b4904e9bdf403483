package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/99minutos/auth-service/internal/core/domain"
	"github.com/99minutos/auth-service/internal/core/ports"
)

// RoleService applies the policy table to role reads, role CRUD and role
// assignment.
type RoleService struct {
	roles  ports.RoleRepository
	users  ports.UserRepository
	gate   ports.Gate
	events ports.EventPublisher
	log    zerolog.Logger
	now    func() time.Time
}

func NewRoleService(roles ports.RoleRepository, users ports.UserRepository, gate ports.Gate, events ports.EventPublisher, log zerolog.Logger) *RoleService {
	if events == nil {
		events = NopPublisher{}
	}
	return &RoleService{roles: roles, users: users, gate: gate, events: events, log: log, now: time.Now}
}

func (s *RoleService) List(ctx context.Context, caller domain.Identity) ([]*domain.Role, error) {
	if err := s.gate.Authorize(caller, domain.OpReadRole, ""); err != nil {
		return nil, err
	}
	return s.roles.List(ctx)
}

func (s *RoleService) Get(ctx context.Context, caller domain.Identity, roleID string) (*domain.Role, error) {
	if err := s.gate.Authorize(caller, domain.OpReadRole, roleID); err != nil {
		return nil, err
	}
	return s.roles.FindByID(ctx, roleID)
}

func (s *RoleService) Create(ctx context.Context, caller domain.Identity, in ports.CreateRoleInput) (*domain.Role, error) {
	if err := s.gate.Authorize(caller, domain.OpWriteRole, ""); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, domain.Invalid("role name is required")
	}

	now := s.now().UTC()
	role := &domain.Role{
		ID:          uuid.NewString(),
		Name:        name,
		Description: in.Description,
		Permissions: domain.NormalizePermissions(in.Permissions),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.roles.Create(ctx, role); err != nil {
		return nil, err
	}

	s.log.Info().Str("role_id", role.ID).Str("name", role.Name).Str("by", caller.UserID).Msg("role created")
	return role, nil
}

func (s *RoleService) Update(ctx context.Context, caller domain.Identity, roleID string, patch domain.RolePatch) (*domain.Role, error) {
	if err := s.gate.Authorize(caller, domain.OpWriteRole, roleID); err != nil {
		return nil, err
	}
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, domain.Invalid("role name must not be empty")
		}
		patch.Name = &name
	}

	role, err := s.roles.FindByID(ctx, roleID)
	if err != nil {
		return nil, err
	}
	patch.Apply(role, s.now().UTC())
	if err := s.roles.Update(ctx, role); err != nil {
		return nil, err
	}

	s.log.Info().Str("role_id", role.ID).Str("by", caller.UserID).Msg("role updated")
	return role, nil
}

func (s *RoleService) Delete(ctx context.Context, caller domain.Identity, roleID string) error {
	if err := s.gate.Authorize(caller, domain.OpWriteRole, roleID); err != nil {
		return err
	}
	if err := s.roles.Delete(ctx, roleID); err != nil {
		return err
	}
	s.log.Info().Str("role_id", roleID).Str("by", caller.UserID).Msg("role deleted")
	return nil
}

// Assign makes roleID's name the user's authoritative role and records the
// assignment in the history.
func (s *RoleService) Assign(ctx context.Context, caller domain.Identity, userID, roleID string) (*domain.User, error) {
	if err := s.gate.Authorize(caller, domain.OpAssignRole, userID); err != nil {
		return nil, err
	}
	if _, err := s.users.FindByID(ctx, userID); err != nil {
		return nil, err
	}
	role, err := s.roles.FindByID(ctx, roleID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	user, err := s.roles.Assign(ctx, userID, role, now)
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("user_id", userID).
		Str("role", role.Name).
		Str("by", caller.UserID).
		Msg("role assigned")
	s.events.Publish(ctx, domain.AccountEvent{
		Type:       domain.EventUserRoleAssigned,
		UserID:     user.ID,
		Email:      user.Email,
		OccurredAt: now,
		Attributes: map[string]string{"role": role.Name},
	})
	return user, nil
}
