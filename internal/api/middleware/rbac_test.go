package middleware

import (
	"net/http"
	"testing"

	"github.com/rs/zerolog"

	"github.com/officehub/gatekeeper/internal/core/domain"
)

func TestRequireRole_Matrix(t *testing.T) {
	tests := []struct {
		name      string
		base      domain.Role
		effective domain.Role
		allowed   []domain.Role
		want      int
	}{
		{"root passes root-only", domain.RoleRoot, domain.RoleRoot, []domain.Role{domain.RoleRoot}, http.StatusOK},
		{"root passes admin", domain.RoleRoot, domain.RoleRoot, []domain.Role{domain.RoleAdmin}, http.StatusOK},
		{"root acting as employee still bypasses", domain.RoleRoot, domain.RoleEmployee, []domain.Role{domain.RoleAdmin}, http.StatusOK},
		{"admin passes admin", domain.RoleAdmin, domain.RoleAdmin, []domain.Role{domain.RoleAdmin}, http.StatusOK},
		{"admin inherits employee", domain.RoleAdmin, domain.RoleAdmin, []domain.Role{domain.RoleEmployee}, http.StatusOK},
		{"admin denied root", domain.RoleAdmin, domain.RoleAdmin, []domain.Role{domain.RoleRoot}, http.StatusForbidden},
		{"admin acting as employee denied admin", domain.RoleAdmin, domain.RoleEmployee, []domain.Role{domain.RoleAdmin}, http.StatusForbidden},
		{"admin acting as employee passes employee", domain.RoleAdmin, domain.RoleEmployee, []domain.Role{domain.RoleEmployee}, http.StatusOK},
		{"employee passes employee", domain.RoleEmployee, domain.RoleEmployee, []domain.Role{domain.RoleEmployee}, http.StatusOK},
		{"employee denied admin", domain.RoleEmployee, domain.RoleEmployee, []domain.Role{domain.RoleAdmin}, http.StatusForbidden},
		{"employee passes multi-role set", domain.RoleEmployee, domain.RoleEmployee, []domain.Role{domain.RoleAdmin, domain.RoleEmployee}, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sink := &recordingSink{}
			c, rec := newContext(http.MethodGet, "/api/admin/ping")
			withIdentity(c, &domain.Identity{ID: 1, TenantID: 1, BaseRole: tt.base, EffectiveRole: tt.effective})

			if err := NewGuard(sink, zerolog.Nop()).RequireRole(tt.allowed...)(okHandler)(c); err != nil {
				t.Fatalf("handler error: %v", err)
			}
			if rec.Code != tt.want {
				t.Fatalf("expected %d, got %d", tt.want, rec.Code)
			}
			denied := tt.want == http.StatusForbidden
			if denied != (len(sink.events) == 1) {
				t.Fatalf("audit events %+v do not match decision", sink.events)
			}
			if denied && sink.events[0].Action != domain.AuditRoleDenied {
				t.Fatalf("unexpected audit action %s", sink.events[0].Action)
			}
		})
	}
}
