package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/99minutos/auth-service/internal/core/domain"
	"github.com/99minutos/auth-service/internal/core/ports"
)

// DefaultRoles are created by Seed when no role with the same name exists.
var DefaultRoles = []domain.Role{
	{
		Name:        domain.RoleAdmin,
		Description: "Full access to user and role management",
		Permissions: []string{"users:read", "users:write", "roles:read", "roles:write"},
	},
	{
		Name:        domain.RoleUser,
		Description: "Default role for registered accounts",
		Permissions: []string{"profile:read", "profile:write", "roles:read"},
	},
}

// SeedInput names the bootstrap administrator.
type SeedInput struct {
	AdminEmail    string
	AdminPassword string
}

// Seed creates the default roles and the administrator account if they are
// missing. Running it twice changes nothing.
func Seed(ctx context.Context, s *Stores, hasher ports.PasswordHasher, in SeedInput, log zerolog.Logger) error {
	existing, err := s.Roles.List(ctx)
	if err != nil {
		return err
	}
	byName := make(map[string]*domain.Role, len(existing))
	for _, r := range existing {
		byName[r.Name] = r
	}

	now := time.Now().UTC()
	for _, tmpl := range DefaultRoles {
		if _, ok := byName[tmpl.Name]; ok {
			continue
		}
		role := tmpl
		role.ID = uuid.NewString()
		role.Permissions = append([]string(nil), tmpl.Permissions...)
		role.CreatedAt, role.UpdatedAt = now, now
		err := s.Roles.Create(ctx, &role)
		switch {
		case errors.Is(err, domain.ErrRoleNameTaken):
			log.Info().Str("role", role.Name).Msg("role already exists")
		case err != nil:
			return fmt.Errorf("seed role %s: %w", role.Name, err)
		default:
			log.Info().Str("role", role.Name).Msg("role created")
		}
	}

	if in.AdminEmail == "" || in.AdminPassword == "" {
		log.Warn().Msg("admin credentials not configured, skipping admin user")
		return nil
	}

	_, err = s.Users.FindByEmail(ctx, in.AdminEmail)
	switch {
	case err == nil:
		log.Info().Str("email", in.AdminEmail).Msg("admin user already exists")
		return nil
	case !errors.Is(err, domain.ErrNotFound):
		return err
	}

	hash, err := hasher.Hash(in.AdminPassword)
	if err != nil {
		return err
	}
	admin := &domain.User{
		ID:           uuid.NewString(),
		Email:        in.AdminEmail,
		PasswordHash: hash,
		IsActive:     true,
		Role:         domain.RoleAdmin,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.Users.Create(ctx, admin); err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	log.Info().Str("user_id", admin.ID).Str("email", admin.Email).Msg("admin user created")
	return nil
}
