package domain

import "time"

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// User models an account. Role is the single authoritative role name checked
// at authorization time.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	IsActive     bool      `json:"is_active"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// UserPatch carries the optional fields of a profile update. Nil fields are
// left untouched.
type UserPatch struct {
	Email    *string
	Password *string
	IsActive *bool
	Role     *string
}

// Apply copies the non-nil fields onto u. Password is expected to be hashed
// by the caller and is written to PasswordHash.
func (p UserPatch) Apply(u *User, now time.Time) {
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.Password != nil {
		u.PasswordHash = *p.Password
	}
	if p.IsActive != nil {
		u.IsActive = *p.IsActive
	}
	if p.Role != nil {
		u.Role = *p.Role
	}
	u.UpdatedAt = now
}
