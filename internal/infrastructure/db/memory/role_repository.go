package memory

import (
	"context"
	"slices"
	"sort"
	"time"

	"github.com/99minutos/auth-service/internal/core/domain"
)

type RoleRepository struct {
	s *Store
}

func (r *RoleRepository) Create(_ context.Context, role *domain.Role) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.roles {
		if existing.Name == role.Name {
			return domain.ErrRoleNameTaken
		}
	}
	r.s.roles[role.ID] = cloneRole(*role)
	return nil
}

func (r *RoleRepository) FindByID(_ context.Context, id string) (*domain.Role, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	role, ok := r.s.roles[id]
	if !ok {
		return nil, domain.ErrRoleNotFound
	}
	out := cloneRole(role)
	return &out, nil
}

func (r *RoleRepository) List(_ context.Context) ([]*domain.Role, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*domain.Role, 0, len(r.s.roles))
	for _, role := range r.s.roles {
		c := cloneRole(role)
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *RoleRepository) Update(_ context.Context, role *domain.Role) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.roles[role.ID]; !ok {
		return domain.ErrRoleNotFound
	}
	for id, existing := range r.s.roles {
		if id != role.ID && existing.Name == role.Name {
			return domain.ErrRoleNameTaken
		}
	}
	r.s.roles[role.ID] = cloneRole(*role)
	return nil
}

func (r *RoleRepository) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.roles[id]; !ok {
		return domain.ErrRoleNotFound
	}
	delete(r.s.roles, id)
	kept := r.s.assignments[:0]
	for _, a := range r.s.assignments {
		if a.RoleID != id {
			kept = append(kept, a)
		}
	}
	r.s.assignments = kept
	return nil
}

func (r *RoleRepository) Assign(_ context.Context, userID string, role *domain.Role, at time.Time) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[userID]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	if _, ok := r.s.roles[role.ID]; !ok {
		return nil, domain.ErrRoleNotFound
	}
	u.Role = role.Name
	u.UpdatedAt = at
	r.s.users[userID] = u
	r.s.assignments = append(r.s.assignments, domain.UserRoleAssignment{
		UserID:    userID,
		RoleID:    role.ID,
		CreatedAt: at,
	})
	return &u, nil
}

func (r *RoleRepository) Assignments(_ context.Context, userID string) ([]domain.UserRoleAssignment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []domain.UserRoleAssignment
	for _, a := range r.s.assignments {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out, nil
}

func cloneRole(r domain.Role) domain.Role {
	r.Permissions = slices.Clone(r.Permissions)
	return r
}
