package domain

import "context"

// Identity is the authenticated caller attached to a request after the
// authentication stage succeeded. It is built fresh for every request from
// the token claims and the live user row and is never cached.
type Identity struct {
	ID            int64  `json:"id"`
	Username      string `json:"username"`
	Email         string `json:"email"`
	BaseRole      Role   `json:"role"`
	EffectiveRole Role   `json:"activeRole"`
	RoleSwitched  bool   `json:"isRoleSwitched"`
	TenantID      int64  `json:"tenantId"`
	TenantName    string `json:"tenantName"`
	DepartmentID  *int64 `json:"departmentId,omitempty"`
	SessionID     string `json:"-"`
}

// Satisfies reports whether the identity passes a check that allows the given
// roles. Root bypass is evaluated against BaseRole only, so switching into a
// lower role can neither hide nor grant root. Admin inherits employee checks.
func (i *Identity) Satisfies(allowed ...Role) bool {
	if i == nil {
		return false
	}
	if i.BaseRole == RoleRoot {
		return true
	}
	for _, r := range allowed {
		if r == i.EffectiveRole {
			return true
		}
		if r == RoleEmployee && i.EffectiveRole == RoleAdmin {
			return true
		}
	}
	return false
}

type identityKey struct{}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFromContext returns the identity stored by WithIdentity.
func IdentityFromContext(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(*Identity)
	return id, ok && id != nil
}
