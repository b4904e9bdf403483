package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/99minutos/auth-service/internal/core/domain"
	"github.com/99minutos/auth-service/internal/infrastructure/db/memory"
)

func TestAuthService_Register_Success(t *testing.T) {
	f := newFixture(AuthOptions{})

	user, err := f.auth.Register(context.Background(), "alice@x.com", "pass123")
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if user.Role != domain.RoleUser {
		t.Fatalf("expected role %q, got %q", domain.RoleUser, user.Role)
	}
	if !user.IsActive {
		t.Fatalf("expected new user to be active")
	}
	if user.PasswordHash == "pass123" || !f.hasher.Verify("pass123", user.PasswordHash) {
		t.Fatalf("expected stored password to be a bcrypt hash of the input")
	}
	if got := f.events.types(); len(got) != 1 || got[0] != domain.EventUserRegistered {
		t.Fatalf("expected one user.registered event, got %v", got)
	}
}

func TestAuthService_Register_DuplicateEmail(t *testing.T) {
	f := newFixture(AuthOptions{})
	ctx := context.Background()

	if _, err := f.auth.Register(ctx, "alice@x.com", "pass123"); err != nil {
		t.Fatalf("first Register: %v", err)
	}
	_, err := f.auth.Register(ctx, "alice@x.com", "other")
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if len(f.users.users) != 1 {
		t.Fatalf("expected exactly one stored user, got %d", len(f.users.users))
	}
}

func TestAuthService_Register_Validation(t *testing.T) {
	f := newFixture(AuthOptions{})

	for _, tc := range []struct{ email, password string }{
		{"", "pass"},
		{"  ", "pass"},
		{"alice@x.com", ""},
	} {
		if _, err := f.auth.Register(context.Background(), tc.email, tc.password); !errors.Is(err, domain.ErrValidation) {
			t.Fatalf("Register(%q, %q): expected validation error, got %v", tc.email, tc.password, err)
		}
	}
}

func TestAuthService_Login_Success(t *testing.T) {
	f := newFixture(AuthOptions{})
	ctx := context.Background()
	user, _ := f.auth.Register(ctx, "alice@x.com", "pass123")

	pair, err := f.auth.Login(ctx, "alice@x.com", "pass123")
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	if pair.TokenType != domain.TokenTypeBearer {
		t.Fatalf("unexpected token type %q", pair.TokenType)
	}
	claims, err := f.validator.ValidateAccessToken(pair.AccessToken)
	if err != nil {
		t.Fatalf("issued access token does not validate: %v", err)
	}
	if claims.Subject != "alice@x.com" {
		t.Fatalf("expected subject alice@x.com, got %q", claims.Subject)
	}
	tok, err := f.validator.ResolveRefreshToken(ctx, pair.RefreshToken)
	if err != nil {
		t.Fatalf("issued refresh token does not resolve: %v", err)
	}
	if tok.UserID != user.ID {
		t.Fatalf("refresh token bound to %q, want %q", tok.UserID, user.ID)
	}
}

func TestAuthService_Login_FailuresAreIndistinguishable(t *testing.T) {
	f := newFixture(AuthOptions{})
	ctx := context.Background()
	_, _ = f.auth.Register(ctx, "alice@x.com", "pass123")

	_, unknown := f.auth.Login(ctx, "nobody@x.com", "pass123")
	_, wrong := f.auth.Login(ctx, "alice@x.com", "wrong")

	if unknown != domain.ErrInvalidCredentials || wrong != domain.ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials for both, got %v / %v", unknown, wrong)
	}
	if unknown.Error() != wrong.Error() {
		t.Fatalf("login failures differ: %q vs %q", unknown, wrong)
	}
	if len(f.tokens.tokens) != 0 {
		t.Fatalf("failed logins must not issue refresh tokens")
	}
}

func TestAuthService_Refresh_ReturnsSameRefreshToken(t *testing.T) {
	f := newFixture(AuthOptions{})
	ctx := context.Background()
	_, _ = f.auth.Register(ctx, "alice@x.com", "pass123")
	pair, _ := f.auth.Login(ctx, "alice@x.com", "pass123")

	f.clock.t = f.clock.t.Add(time.Minute)
	next, err := f.auth.Refresh(ctx, pair.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh returned error: %v", err)
	}
	if next.RefreshToken != pair.RefreshToken {
		t.Fatalf("expected the same refresh token to be returned")
	}
	if next.AccessToken == pair.AccessToken {
		t.Fatalf("expected a new access token")
	}
}

func TestAuthService_Refresh_Rotation(t *testing.T) {
	f := newFixture(AuthOptions{RotateRefresh: true})
	ctx := context.Background()
	_, _ = f.auth.Register(ctx, "alice@x.com", "pass123")
	pair, _ := f.auth.Login(ctx, "alice@x.com", "pass123")

	next, err := f.auth.Refresh(ctx, pair.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh returned error: %v", err)
	}
	if next.RefreshToken == pair.RefreshToken {
		t.Fatalf("expected a rotated refresh token")
	}
	if _, err := f.auth.Refresh(ctx, pair.RefreshToken); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected the replaced token to be rejected, got %v", err)
	}
}

func TestAuthService_Refresh_Rejections(t *testing.T) {
	f := newFixture(AuthOptions{})
	ctx := context.Background()
	user, _ := f.auth.Register(ctx, "alice@x.com", "pass123")
	pair, _ := f.auth.Login(ctx, "alice@x.com", "pass123")

	if _, err := f.auth.Refresh(ctx, "unknown"); !errors.Is(err, domain.ErrInvalidRefreshToken) {
		t.Fatalf("unknown token: expected ErrInvalidRefreshToken, got %v", err)
	}
	if _, err := f.auth.Refresh(ctx, ""); !errors.Is(err, domain.ErrInvalidRefreshToken) {
		t.Fatalf("empty token: expected ErrInvalidRefreshToken, got %v", err)
	}

	f.clock.t = f.clock.t.Add(8 * 24 * time.Hour)
	if _, err := f.auth.Refresh(ctx, pair.RefreshToken); !errors.Is(err, domain.ErrInvalidRefreshToken) {
		t.Fatalf("expired token: expected ErrInvalidRefreshToken, got %v", err)
	}

	f.clock.t = f.clock.t.Add(-8 * 24 * time.Hour)
	delete(f.users.users, user.ID)
	if _, err := f.auth.Refresh(ctx, pair.RefreshToken); !errors.Is(err, domain.ErrInvalidRefreshToken) {
		t.Fatalf("orphaned token: expected ErrInvalidRefreshToken, got %v", err)
	}
}

func TestAuthService_SessionScenario(t *testing.T) {
	f := newFixture(AuthOptions{})
	ctx := context.Background()

	user, err := f.auth.Register(ctx, "alice@x.com", "pw")
	if err != nil || user.Role != domain.RoleUser {
		t.Fatalf("register: user=%+v err=%v", user, err)
	}
	pair, err := f.auth.Login(ctx, "alice@x.com", "pw")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	next, err := f.auth.Refresh(ctx, pair.RefreshToken)
	if err != nil || next.RefreshToken != pair.RefreshToken {
		t.Fatalf("refresh: pair=%+v err=%v", next, err)
	}
	if err := f.auth.Logout(ctx, domain.IdentityOf(user), pair.RefreshToken); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, err := f.auth.Refresh(ctx, pair.RefreshToken); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("refresh after logout: expected unauthenticated, got %v", err)
	}
}

func TestAuthService_Logout_Idempotent(t *testing.T) {
	f := newFixture(AuthOptions{})
	ctx := context.Background()
	user, _ := f.auth.Register(ctx, "alice@x.com", "pw")
	pair, _ := f.auth.Login(ctx, "alice@x.com", "pw")
	caller := domain.IdentityOf(user)

	for i := 0; i < 3; i++ {
		if err := f.auth.Logout(ctx, caller, pair.RefreshToken); err != nil {
			t.Fatalf("logout #%d: %v", i, err)
		}
		if _, err := f.validator.ResolveRefreshToken(ctx, pair.RefreshToken); err == nil {
			t.Fatalf("revoked token resolved after logout #%d", i)
		}
	}
	if err := f.auth.Logout(ctx, caller, "never-issued"); err != nil {
		t.Fatalf("logout with unknown token: %v", err)
	}
}

func TestAuthService_Register_PasswordTooLong(t *testing.T) {
	f := newFixture(AuthOptions{})

	_, err := f.auth.Register(context.Background(), "alice@x.com", strings.Repeat("a", 73))
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(f.users.users) != 0 {
		t.Fatalf("no user should be stored")
	}
}

type failingHasher struct{}

func (failingHasher) Hash(string) (string, error) { return "", errors.New("entropy exhausted") }
func (failingHasher) Verify(string, string) bool  { return false }

func TestNewAuthService_DecoyHashFailure(t *testing.T) {
	f := newFixture(AuthOptions{})

	svc, err := NewAuthService(f.users, failingHasher{}, f.issuer, f.validator, f.events, AuthOptions{}, zerolog.Nop())
	if err == nil || svc != nil {
		t.Fatalf("expected constructor error, got svc=%v err=%v", svc, err)
	}
}

func TestAuthService_Register_ConcurrentDuplicate(t *testing.T) {
	store := memory.NewStore()
	f := newFixture(AuthOptions{})
	auth, err := NewAuthService(store.Users(), f.hasher, f.issuer, f.validator, NopPublisher{}, AuthOptions{}, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewAuthService: %v", err)
	}

	const attempts = 8
	var (
		wg        sync.WaitGroup
		start     = make(chan struct{})
		successes atomic.Int32
		conflicts atomic.Int32
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := auth.Register(context.Background(), "race@x.com", "pw")
			switch {
			case err == nil:
				successes.Add(1)
			case errors.Is(err, domain.ErrConflict):
				conflicts.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	close(start)
	wg.Wait()

	if successes.Load() != 1 || conflicts.Load() != attempts-1 {
		t.Fatalf("expected 1 success and %d conflicts, got %d and %d", attempts-1, successes.Load(), conflicts.Load())
	}
	users, err := store.Users().List(context.Background(), 0, 10)
	if err != nil || len(users) != 1 {
		t.Fatalf("expected exactly one stored user, got %d (err=%v)", len(users), err)
	}
}
