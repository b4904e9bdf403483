package ports

// PasswordHasher is the hashing primitive. Its cost is tuned by the
// implementation.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, digest string) bool
}
