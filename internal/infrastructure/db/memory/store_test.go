package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/99minutos/auth-service/internal/core/domain"
)

func seedUser(t *testing.T, s *Store, id, email string) {
	t.Helper()
	err := s.Users().Create(context.Background(), &domain.User{
		ID: id, Email: email, IsActive: true, Role: domain.RoleUser, CreatedAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("seed user %s: %v", id, err)
	}
}

func TestUserCreate_DuplicateEmail(t *testing.T) {
	s := NewStore()
	seedUser(t, s, "u1", "alice@x.com")

	err := s.Users().Create(context.Background(), &domain.User{ID: "u2", Email: "alice@x.com"})
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestUserList_Pagination(t *testing.T) {
	s := NewStore()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c"} {
		_ = s.Users().Create(context.Background(), &domain.User{
			ID: id, Email: id + "@x.com", CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
	}

	page, err := s.Users().List(context.Background(), 1, 1)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(page) != 1 || page[0].ID != "b" {
		t.Fatalf("expected [b], got %+v", page)
	}
}

func TestUserDelete_CascadesTokensAndAssignments(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	seedUser(t, s, "u1", "alice@x.com")
	role := &domain.Role{ID: "r1", Name: "editor"}
	_ = s.Roles().Create(ctx, role)
	if _, err := s.Roles().Assign(ctx, "u1", role, time.Now()); err != nil {
		t.Fatalf("assign: %v", err)
	}
	_ = s.Tokens().Create(ctx, &domain.RefreshToken{Token: "tok", UserID: "u1", ExpiresAt: time.Now().Add(time.Hour)})

	if err := s.Users().Delete(ctx, "u1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.Tokens().FindActive(ctx, "tok", time.Now()); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("token survived user delete: %v", err)
	}
	if got, _ := s.Roles().Assignments(ctx, "u1"); len(got) != 0 {
		t.Fatalf("assignments survived user delete: %+v", got)
	}
}

func TestRoleAssign_SetsRoleAndAppendsHistory(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	seedUser(t, s, "u1", "alice@x.com")
	editor := &domain.Role{ID: "r1", Name: "editor"}
	admin := &domain.Role{ID: "r2", Name: "admin"}
	_ = s.Roles().Create(ctx, editor)
	_ = s.Roles().Create(ctx, admin)

	_, _ = s.Roles().Assign(ctx, "u1", editor, time.Now())
	u, err := s.Roles().Assign(ctx, "u1", admin, time.Now())
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	if u.Role != "admin" {
		t.Fatalf("expected role admin, got %q", u.Role)
	}
	got, _ := s.Roles().Assignments(ctx, "u1")
	if len(got) != 2 {
		t.Fatalf("expected 2 assignment records, got %d", len(got))
	}
}

func TestRoleCreate_DuplicateName(t *testing.T) {
	s := NewStore()
	_ = s.Roles().Create(context.Background(), &domain.Role{ID: "r1", Name: "editor"})
	err := s.Roles().Create(context.Background(), &domain.Role{ID: "r2", Name: "editor"})
	if !errors.Is(err, domain.ErrRoleNameTaken) {
		t.Fatalf("expected ErrRoleNameTaken, got %v", err)
	}
}

func TestRefreshToken_RevokedNeverResolves(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	tokens := NewStore().Tokens()
	_ = tokens.Create(ctx, &domain.RefreshToken{Token: "tok", UserID: "u1", ExpiresAt: now.Add(time.Hour)})

	for i := 0; i < 2; i++ {
		ok, err := tokens.Revoke(ctx, "tok")
		if err != nil || !ok {
			t.Fatalf("revoke #%d: ok=%v err=%v", i, ok, err)
		}
		if _, err := tokens.FindActive(ctx, "tok", now); !errors.Is(err, domain.ErrRefreshTokenNotFound) {
			t.Fatalf("revoked token resolved after revoke #%d", i)
		}
	}
}

func TestRefreshToken_DeleteExpired(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	tokens := NewStore().Tokens()
	_ = tokens.Create(ctx, &domain.RefreshToken{Token: "live", ExpiresAt: now.Add(time.Hour)})
	_ = tokens.Create(ctx, &domain.RefreshToken{Token: "old", ExpiresAt: now.Add(-time.Hour)})
	_ = tokens.Create(ctx, &domain.RefreshToken{Token: "gone", ExpiresAt: now.Add(time.Hour), IsRevoked: true})

	n, err := tokens.DeleteExpired(ctx, now)
	if err != nil || n != 2 {
		t.Fatalf("expected 2 purged, got n=%d err=%v", n, err)
	}
	if _, err := tokens.FindActive(ctx, "live", now); err != nil {
		t.Fatalf("live token purged: %v", err)
	}
}
