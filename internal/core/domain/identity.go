package domain

// Identity is the caller resolved by the authorization gate. It is reloaded
// from the credential store on every request so role and activation changes
// take effect before the access token expires.
type Identity struct {
	Email    string
	UserID   string
	Role     string
	IsActive bool
}

func (i Identity) IsAdmin() bool { return i.Role == RoleAdmin }

// IdentityOf builds the identity record for u.
func IdentityOf(u *User) Identity {
	return Identity{
		Email:    u.Email,
		UserID:   u.ID,
		Role:     u.Role,
		IsActive: u.IsActive,
	}
}
