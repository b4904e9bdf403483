package service

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/rs/zerolog"

	"github.com/99minutos/auth-service/internal/core/domain"
	"github.com/99minutos/auth-service/internal/core/ports"
)

func newRoleService(f *fixture) *RoleService {
	svc := NewRoleService(f.roles, f.users, f.gate, f.events, zerolog.Nop())
	svc.now = f.clock.Now
	return svc
}

func TestRoleService_CreateAndRead(t *testing.T) {
	f := newFixture(AuthOptions{})
	admin := f.addUser("a1", "admin@x.com", domain.RoleAdmin, true)
	alice := f.addUser("u1", "alice@x.com", domain.RoleUser, true)
	svc := newRoleService(f)
	ctx := context.Background()

	role, err := svc.Create(ctx, admin, ports.CreateRoleInput{
		Name:        " editor ",
		Permissions: []string{"posts:write", "", "posts:read", "posts:write"},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if role.Name != "editor" {
		t.Fatalf("expected trimmed name, got %q", role.Name)
	}
	if want := []string{"posts:write", "posts:read"}; !reflect.DeepEqual(role.Permissions, want) {
		t.Fatalf("permissions = %v, want %v", role.Permissions, want)
	}

	got, err := svc.Get(ctx, alice, role.ID)
	if err != nil || got.Name != "editor" {
		t.Fatalf("non-admin read: role=%+v err=%v", got, err)
	}
	list, err := svc.List(ctx, alice)
	if err != nil || len(list) != 1 {
		t.Fatalf("non-admin list: roles=%v err=%v", list, err)
	}
}

func TestRoleService_Create_Rejections(t *testing.T) {
	f := newFixture(AuthOptions{})
	admin := f.addUser("a1", "admin@x.com", domain.RoleAdmin, true)
	alice := f.addUser("u1", "alice@x.com", domain.RoleUser, true)
	svc := newRoleService(f)
	ctx := context.Background()

	if _, err := svc.Create(ctx, alice, ports.CreateRoleInput{Name: "x"}); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("non-admin create: expected forbidden, got %v", err)
	}
	if _, err := svc.Create(ctx, admin, ports.CreateRoleInput{Name: ""}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("empty name: expected validation, got %v", err)
	}
	_, _ = svc.Create(ctx, admin, ports.CreateRoleInput{Name: "editor"})
	if _, err := svc.Create(ctx, admin, ports.CreateRoleInput{Name: "editor"}); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("duplicate name: expected conflict, got %v", err)
	}
}

func TestRoleService_UpdateAndDelete(t *testing.T) {
	f := newFixture(AuthOptions{})
	admin := f.addUser("a1", "admin@x.com", domain.RoleAdmin, true)
	svc := newRoleService(f)
	ctx := context.Background()
	role, _ := svc.Create(ctx, admin, ports.CreateRoleInput{Name: "editor"})

	updated, err := svc.Update(ctx, admin, role.ID, domain.RolePatch{
		Description: strPtr("edits things"),
		Permissions: []string{"a", "a", "b"},
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Name != "editor" || updated.Description != "edits things" || len(updated.Permissions) != 2 {
		t.Fatalf("unexpected role after update: %+v", updated)
	}

	if err := svc.Delete(ctx, admin, role.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := svc.Get(ctx, admin, role.ID); !errors.Is(err, domain.ErrRoleNotFound) {
		t.Fatalf("expected ErrRoleNotFound after delete, got %v", err)
	}
	if err := svc.Delete(ctx, admin, role.ID); !errors.Is(err, domain.ErrRoleNotFound) {
		t.Fatalf("second delete: expected not found, got %v", err)
	}
}

func TestRoleService_Assign(t *testing.T) {
	f := newFixture(AuthOptions{})
	admin := f.addUser("a1", "admin@x.com", domain.RoleAdmin, true)
	alice := f.addUser("u1", "alice@x.com", domain.RoleUser, true)
	svc := newRoleService(f)
	ctx := context.Background()
	role, _ := svc.Create(ctx, admin, ports.CreateRoleInput{Name: "editor"})

	if _, err := svc.Assign(ctx, alice, "u1", role.ID); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("non-admin assign: expected forbidden, got %v", err)
	}
	if _, err := svc.Assign(ctx, admin, "missing", role.ID); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("unknown user: expected ErrUserNotFound, got %v", err)
	}
	if _, err := svc.Assign(ctx, admin, "u1", "missing"); !errors.Is(err, domain.ErrRoleNotFound) {
		t.Fatalf("unknown role: expected ErrRoleNotFound, got %v", err)
	}

	u, err := svc.Assign(ctx, admin, "u1", role.ID)
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}
	if u.Role != "editor" {
		t.Fatalf("expected authoritative role editor, got %q", u.Role)
	}
	history, _ := f.roles.Assignments(ctx, "u1")
	if len(history) != 1 || history[0].RoleID != role.ID {
		t.Fatalf("unexpected assignment history: %+v", history)
	}
	if got := f.events.types(); len(got) != 1 || got[0] != domain.EventUserRoleAssigned {
		t.Fatalf("expected one user.role_assigned event, got %v", got)
	}
}
