package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/99minutos/auth-service/internal/core/domain"
	"github.com/99minutos/auth-service/internal/core/ports"
)

func newUserService(f *fixture) *UserService {
	svc := NewUserService(f.users, f.gate, f.hasher, f.events, zerolog.Nop())
	svc.now = f.clock.Now
	return svc
}

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }

func TestUserService_Me(t *testing.T) {
	f := newFixture(AuthOptions{})
	alice := f.addUser("u1", "alice@x.com", domain.RoleUser, true)

	u, err := newUserService(f).Me(context.Background(), alice)
	if err != nil || u.ID != "u1" {
		t.Fatalf("Me: user=%+v err=%v", u, err)
	}
}

func TestUserService_Get(t *testing.T) {
	f := newFixture(AuthOptions{})
	admin := f.addUser("a1", "admin@x.com", domain.RoleAdmin, true)
	alice := f.addUser("u1", "alice@x.com", domain.RoleUser, true)
	svc := newUserService(f)
	ctx := context.Background()

	if _, err := svc.Get(ctx, alice, "a1"); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("user reading other: expected forbidden, got %v", err)
	}
	if _, err := svc.Get(ctx, admin, "u1"); err != nil {
		t.Fatalf("admin reading user: %v", err)
	}
	if _, err := svc.Get(ctx, admin, "missing"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestUserService_List(t *testing.T) {
	f := newFixture(AuthOptions{})
	admin := f.addUser("a1", "admin@x.com", domain.RoleAdmin, true)
	alice := f.addUser("u1", "alice@x.com", domain.RoleUser, true)
	svc := newUserService(f)
	ctx := context.Background()

	if _, err := svc.List(ctx, alice, ports.ListUsersInput{}); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("non-admin list: expected forbidden, got %v", err)
	}
	users, err := svc.List(ctx, admin, ports.ListUsersInput{Limit: 1000})
	if err != nil {
		t.Fatalf("admin list: %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("expected 2 users, got %d", len(users))
	}
	users, _ = svc.List(ctx, admin, ports.ListUsersInput{Skip: 1, Limit: 1})
	if len(users) != 1 {
		t.Fatalf("expected a single-row page, got %d", len(users))
	}
}

func TestUserService_Update_NonAdminCannotChangeRole(t *testing.T) {
	f := newFixture(AuthOptions{})
	alice := f.addUser("u1", "alice@x.com", domain.RoleUser, true)

	u, err := newUserService(f).Update(context.Background(), alice, "u1", domain.UserPatch{
		Email: strPtr("alice2@x.com"),
		Role:  strPtr(domain.RoleAdmin),
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if u.Role != domain.RoleUser {
		t.Fatalf("expected role to stay %q, got %q", domain.RoleUser, u.Role)
	}
	if u.Email != "alice2@x.com" {
		t.Fatalf("expected email to change, got %q", u.Email)
	}
}

func TestUserService_Update_AdminChangesRoleAndActive(t *testing.T) {
	f := newFixture(AuthOptions{})
	admin := f.addUser("a1", "admin@x.com", domain.RoleAdmin, true)
	f.addUser("u1", "alice@x.com", domain.RoleUser, true)

	u, err := newUserService(f).Update(context.Background(), admin, "u1", domain.UserPatch{
		Role:     strPtr(domain.RoleAdmin),
		IsActive: boolPtr(false),
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if u.Role != domain.RoleAdmin || u.IsActive {
		t.Fatalf("unexpected user after update: %+v", u)
	}
}

func TestUserService_Update_PasswordIsRehashed(t *testing.T) {
	f := newFixture(AuthOptions{})
	alice := f.addUser("u1", "alice@x.com", domain.RoleUser, true)

	u, err := newUserService(f).Update(context.Background(), alice, "u1", domain.UserPatch{Password: strPtr("new-pw")})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if u.PasswordHash == "new-pw" || !f.hasher.Verify("new-pw", u.PasswordHash) {
		t.Fatalf("expected stored password to be a hash of the new password")
	}
}

func TestUserService_Update_PasswordTooLong(t *testing.T) {
	f := newFixture(AuthOptions{})
	alice := f.addUser("u1", "alice@x.com", domain.RoleUser, true)

	_, err := newUserService(f).Update(context.Background(), alice, "u1", domain.UserPatch{Password: strPtr(strings.Repeat("a", 73))})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestUserService_Update_Rejections(t *testing.T) {
	f := newFixture(AuthOptions{})
	alice := f.addUser("u1", "alice@x.com", domain.RoleUser, true)
	admin := f.addUser("a1", "admin@x.com", domain.RoleAdmin, true)
	svc := newUserService(f)
	ctx := context.Background()

	if _, err := svc.Update(ctx, alice, "a1", domain.UserPatch{}); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("updating other: expected forbidden, got %v", err)
	}
	if _, err := svc.Update(ctx, alice, "u1", domain.UserPatch{Email: strPtr(" ")}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("blank email: expected validation, got %v", err)
	}
	if _, err := svc.Update(ctx, admin, "missing", domain.UserPatch{}); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("missing user: expected not found, got %v", err)
	}
}

func TestUserService_Delete(t *testing.T) {
	f := newFixture(AuthOptions{})
	admin := f.addUser("a1", "admin@x.com", domain.RoleAdmin, true)
	alice := f.addUser("u1", "alice@x.com", domain.RoleUser, true)
	svc := newUserService(f)
	ctx := context.Background()

	if err := svc.Delete(ctx, alice, "u1"); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("self delete: expected forbidden, got %v", err)
	}
	if err := svc.Delete(ctx, admin, "u1"); err != nil {
		t.Fatalf("admin delete: %v", err)
	}
	if _, ok := f.users.users["u1"]; ok {
		t.Fatalf("user still stored after delete")
	}
	if err := svc.Delete(ctx, admin, "u1"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("second delete: expected not found, got %v", err)
	}
	if got := f.events.types(); len(got) != 1 || got[0] != domain.EventUserDeleted {
		t.Fatalf("expected one user.deleted event, got %v", got)
	}
}
