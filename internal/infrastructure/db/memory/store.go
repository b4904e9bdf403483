// Package memory is a process-local store used for development and tests.
// All three repositories share one lock so cascades are atomic.
package memory

import (
	"sort"
	"sync"

	"github.com/99minutos/auth-service/internal/core/domain"
)

type Store struct {
	mu          sync.RWMutex
	users       map[string]domain.User
	roles       map[string]domain.Role
	tokens      map[string]domain.RefreshToken
	assignments []domain.UserRoleAssignment
}

func NewStore() *Store {
	return &Store{
		users:  make(map[string]domain.User),
		roles:  make(map[string]domain.Role),
		tokens: make(map[string]domain.RefreshToken),
	}
}

func (s *Store) Users() *UserRepository          { return &UserRepository{s: s} }
func (s *Store) Roles() *RoleRepository          { return &RoleRepository{s: s} }
func (s *Store) Tokens() *RefreshTokenRepository { return &RefreshTokenRepository{s: s} }

// sortedUsers returns users ordered by creation time then id, the same order
// the database stores page through.
func (s *Store) sortedUsers() []domain.User {
	out := make([]domain.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}
