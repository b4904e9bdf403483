package domain

import "time"

// TokenTypeBearer is the token_type reported alongside issued tokens.
const TokenTypeBearer = "bearer"

// RefreshToken is the persisted, opaque credential exchanged for new access
// tokens.
type RefreshToken struct {
	ID        string
	Token     string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
	IsRevoked bool
}

// Active reports whether the token can still be exchanged at now.
func (t *RefreshToken) Active(now time.Time) bool {
	return !t.IsRevoked && t.ExpiresAt.After(now)
}

// Claims is the verified payload of an access token.
type Claims struct {
	Subject   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// TokenPair is returned by login and refresh.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	TokenType    string
}
