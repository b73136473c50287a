package service

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/officehub/gatekeeper/internal/core/domain"
)

func activeUser(id, tenant int64, role domain.Role) *domain.UserRecord {
	return &domain.UserRecord{
		ID:           id,
		TenantID:     tenant,
		TenantName:   "Acme",
		Username:     "user",
		Email:        "user@example.com",
		Role:         role,
		DepartmentID: int64Ptr(4),
		IsActive:     true,
	}
}

func TestUserContextLoader_Load(t *testing.T) {
	repo := newStubUserRepo(activeUser(1, 10, domain.RoleAdmin))
	l := NewUserContextLoader(repo, zerolog.Nop())

	id, err := l.Load(context.Background(), &domain.TokenClaims{SubjectID: 1, TenantID: 10, Role: domain.RoleAdmin, SessionID: "s"})
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if id.TenantName != "Acme" || id.DepartmentID == nil || *id.DepartmentID != 4 {
		t.Fatalf("tenant metadata not populated: %+v", id)
	}
	if id.BaseRole != domain.RoleAdmin || id.EffectiveRole != domain.RoleAdmin || id.RoleSwitched {
		t.Fatalf("unexpected roles: %+v", id)
	}
	if id.SessionID != "s" {
		t.Fatalf("session id not carried: %+v", id)
	}
}

func TestUserContextLoader_FreshRoleOverridesToken(t *testing.T) {
	// Token says admin, row was downgraded to employee.
	repo := newStubUserRepo(activeUser(1, 10, domain.RoleEmployee))
	l := NewUserContextLoader(repo, zerolog.Nop())

	id, err := l.Load(context.Background(), &domain.TokenClaims{SubjectID: 1, TenantID: 10, Role: domain.RoleAdmin})
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if id.BaseRole != domain.RoleEmployee || id.EffectiveRole != domain.RoleEmployee {
		t.Fatalf("expected live role employee, got %+v", id)
	}
}

func TestUserContextLoader_SwitchedRole(t *testing.T) {
	tests := []struct {
		name          string
		liveRole      domain.Role
		activeRole    domain.Role
		wantEffective domain.Role
		wantSwitched  bool
	}{
		{"root acting as employee", domain.RoleRoot, domain.RoleEmployee, domain.RoleEmployee, true},
		{"admin acting as employee", domain.RoleAdmin, domain.RoleEmployee, domain.RoleEmployee, true},
		{"switch above live role is dropped", domain.RoleEmployee, domain.RoleAdmin, domain.RoleEmployee, false},
		{"switch to own role", domain.RoleAdmin, domain.RoleAdmin, domain.RoleAdmin, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newStubUserRepo(activeUser(1, 10, tt.liveRole))
			l := NewUserContextLoader(repo, zerolog.Nop())

			id, err := l.Load(context.Background(), &domain.TokenClaims{
				SubjectID:      1,
				TenantID:       10,
				Role:           tt.liveRole,
				ActiveRole:     tt.activeRole,
				IsRoleSwitched: true,
			})
			if err != nil {
				t.Fatalf("Load returned error: %v", err)
			}
			if id.BaseRole != tt.liveRole {
				t.Fatalf("base role = %s, want %s", id.BaseRole, tt.liveRole)
			}
			if id.EffectiveRole != tt.wantEffective || id.RoleSwitched != tt.wantSwitched {
				t.Fatalf("effective = %s switched = %v, want %s %v", id.EffectiveRole, id.RoleSwitched, tt.wantEffective, tt.wantSwitched)
			}
		})
	}
}

func TestUserContextLoader_NotFound(t *testing.T) {
	inactive := activeUser(2, 10, domain.RoleEmployee)
	inactive.IsActive = false
	repo := newStubUserRepo(activeUser(1, 10, domain.RoleEmployee), inactive)
	l := NewUserContextLoader(repo, zerolog.Nop())

	cases := map[string]*domain.TokenClaims{
		"unknown user":   {SubjectID: 99, TenantID: 10, Role: domain.RoleEmployee},
		"inactive user":  {SubjectID: 2, TenantID: 10, Role: domain.RoleEmployee},
		"foreign tenant": {SubjectID: 1, TenantID: 11, Role: domain.RoleEmployee},
	}
	for name, claims := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := l.Load(context.Background(), claims); !errors.Is(err, domain.ErrUserNotFound) {
				t.Fatalf("expected ErrUserNotFound, got %v", err)
			}
		})
	}
}

func TestUserContextLoader_StoreFailureFailsClosed(t *testing.T) {
	repo := newStubUserRepo()
	repo.err = errors.New("db down")
	l := NewUserContextLoader(repo, zerolog.Nop())

	_, err := l.Load(context.Background(), &domain.TokenClaims{SubjectID: 1, TenantID: 10, Role: domain.RoleEmployee})
	if !errors.Is(err, domain.ErrUserStoreUnavailable) {
		t.Fatalf("expected ErrUserStoreUnavailable, got %v", err)
	}
	if errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("store failure must not look like a missing user")
	}
}
