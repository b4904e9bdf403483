package service

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/99minutos/auth-service/internal/core/domain"
)

type stubUserRepo struct {
	users map[string]*domain.User
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[string]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	return &clone
}

func (r *stubUserRepo) Create(_ context.Context, u *domain.User) error {
	for _, existing := range r.users {
		if existing.Email == u.Email {
			return domain.ErrEmailTaken
		}
	}
	r.users[u.ID] = cloneUser(u)
	return nil
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) List(_ context.Context, skip, limit int) ([]*domain.User, error) {
	var out []*domain.User
	for _, u := range r.users {
		out = append(out, cloneUser(u))
	}
	if skip >= len(out) {
		return nil, nil
	}
	out = out[skip:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *stubUserRepo) Update(_ context.Context, u *domain.User) error {
	if _, ok := r.users[u.ID]; !ok {
		return domain.ErrUserNotFound
	}
	r.users[u.ID] = cloneUser(u)
	return nil
}

func (r *stubUserRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.users[id]; !ok {
		return domain.ErrUserNotFound
	}
	delete(r.users, id)
	return nil
}

func (r *stubUserRepo) put(u *domain.User) *domain.User {
	r.users[u.ID] = cloneUser(u)
	return u
}

type stubTokenRepo struct {
	tokens map[string]domain.RefreshToken
}

func newStubTokenRepo() *stubTokenRepo {
	return &stubTokenRepo{tokens: make(map[string]domain.RefreshToken)}
}

func (r *stubTokenRepo) Create(_ context.Context, t *domain.RefreshToken) error {
	r.tokens[t.Token] = *t
	return nil
}

func (r *stubTokenRepo) FindActive(_ context.Context, token string, now time.Time) (*domain.RefreshToken, error) {
	t, ok := r.tokens[token]
	if !ok || !t.Active(now) {
		return nil, domain.ErrRefreshTokenNotFound
	}
	return &t, nil
}

func (r *stubTokenRepo) Revoke(_ context.Context, token string) (bool, error) {
	t, ok := r.tokens[token]
	if !ok {
		return false, nil
	}
	t.IsRevoked = true
	r.tokens[token] = t
	return true, nil
}

func (r *stubTokenRepo) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	var n int64
	for k, t := range r.tokens {
		if !t.Active(now) {
			delete(r.tokens, k)
			n++
		}
	}
	return n, nil
}

type stubRoleRepo struct {
	roles       map[string]*domain.Role
	users       *stubUserRepo
	assignments []domain.UserRoleAssignment
}

func newStubRoleRepo(users *stubUserRepo) *stubRoleRepo {
	return &stubRoleRepo{roles: make(map[string]*domain.Role), users: users}
}

func (r *stubRoleRepo) Create(_ context.Context, role *domain.Role) error {
	for _, existing := range r.roles {
		if existing.Name == role.Name {
			return domain.ErrRoleNameTaken
		}
	}
	c := *role
	r.roles[role.ID] = &c
	return nil
}

func (r *stubRoleRepo) FindByID(_ context.Context, id string) (*domain.Role, error) {
	role, ok := r.roles[id]
	if !ok {
		return nil, domain.ErrRoleNotFound
	}
	c := *role
	return &c, nil
}

func (r *stubRoleRepo) List(_ context.Context) ([]*domain.Role, error) {
	var out []*domain.Role
	for _, role := range r.roles {
		c := *role
		out = append(out, &c)
	}
	return out, nil
}

func (r *stubRoleRepo) Update(_ context.Context, role *domain.Role) error {
	if _, ok := r.roles[role.ID]; !ok {
		return domain.ErrRoleNotFound
	}
	c := *role
	r.roles[role.ID] = &c
	return nil
}

func (r *stubRoleRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.roles[id]; !ok {
		return domain.ErrRoleNotFound
	}
	delete(r.roles, id)
	return nil
}

func (r *stubRoleRepo) Assign(_ context.Context, userID string, role *domain.Role, at time.Time) (*domain.User, error) {
	u, ok := r.users.users[userID]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	u.Role = role.Name
	u.UpdatedAt = at
	r.assignments = append(r.assignments, domain.UserRoleAssignment{UserID: userID, RoleID: role.ID, CreatedAt: at})
	return cloneUser(u), nil
}

func (r *stubRoleRepo) Assignments(_ context.Context, userID string) ([]domain.UserRoleAssignment, error) {
	var out []domain.UserRoleAssignment
	for _, a := range r.assignments {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.AccountEvent
}

func (p *recordingPublisher) Publish(_ context.Context, e domain.AccountEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
}

func (p *recordingPublisher) types() []domain.AccountEventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]domain.AccountEventType, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

// fixedClock returns a settable clock for expiry tests.
type fixedClock struct{ t time.Time }

func (c *fixedClock) Now() time.Time { return c.t }

const testSecret = "test-secret"

type fixture struct {
	users     *stubUserRepo
	tokens    *stubTokenRepo
	roles     *stubRoleRepo
	events    *recordingPublisher
	clock     *fixedClock
	hasher    *BcryptHasher
	issuer    *TokenIssuer
	validator *TokenValidator
	gate      *Gate
	auth      *AuthService
}

func newFixture(opts AuthOptions) *fixture {
	f := &fixture{
		users:  newStubUserRepo(),
		tokens: newStubTokenRepo(),
		events: &recordingPublisher{},
		clock:  &fixedClock{t: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)},
		hasher: NewBcryptHasher(bcrypt.MinCost),
	}
	f.roles = newStubRoleRepo(f.users)
	signer, err := NewSigner(testSecret, "HS256")
	if err != nil {
		panic(err)
	}
	f.issuer = NewTokenIssuer(f.tokens, signer, 7*24*time.Hour, f.clock.Now)
	f.validator = NewTokenValidator(f.tokens, signer, f.clock.Now)
	f.gate = NewGate(f.validator, f.users, zerolog.Nop())
	opts.Clock = f.clock.Now
	f.auth, err = NewAuthService(f.users, f.hasher, f.issuer, f.validator, f.events, opts, zerolog.Nop())
	if err != nil {
		panic(err)
	}
	return f
}

func (f *fixture) addUser(id, email, role string, active bool) domain.Identity {
	u := f.users.put(&domain.User{ID: id, Email: email, Role: role, IsActive: active, CreatedAt: f.clock.t})
	return domain.IdentityOf(u)
}
