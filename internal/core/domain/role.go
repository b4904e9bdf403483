package domain

import "time"

// Role groups an ordered set of permission strings under a unique name.
type Role struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Permissions []string  `json:"permissions"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// RolePatch carries the optional fields of a role update.
type RolePatch struct {
	Name        *string
	Description *string
	Permissions []string
}

// Apply copies the non-nil fields onto r.
func (p RolePatch) Apply(r *Role, now time.Time) {
	if p.Name != nil {
		r.Name = *p.Name
	}
	if p.Description != nil {
		r.Description = *p.Description
	}
	if p.Permissions != nil {
		r.Permissions = NormalizePermissions(p.Permissions)
	}
	r.UpdatedAt = now
}

// NormalizePermissions drops empty and duplicate entries while keeping the
// first-seen order.
func NormalizePermissions(perms []string) []string {
	seen := make(map[string]struct{}, len(perms))
	out := make([]string, 0, len(perms))
	for _, p := range perms {
		if p == "" {
			continue
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}

// UserRoleAssignment is a historical record of a role granted to a user. It
// never replaces User.Role, which stays the value read by the authorization
// gate.
type UserRoleAssignment struct {
	UserID    string    `json:"user_id"`
	RoleID    string    `json:"role_id"`
	CreatedAt time.Time `json:"created_at"`
}
