package domain

import "strings"

// Role is one of the three tenant roles. The hierarchy is
// root ⊇ admin ⊇ employee.
type Role string

const (
	RoleRoot     Role = "root"
	RoleAdmin    Role = "admin"
	RoleEmployee Role = "employee"
)

// ParseRole normalizes s and reports whether it names a known role.
func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", false
	}
	return r, true
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleRoot, RoleAdmin, RoleEmployee:
		return true
	}
	return false
}

// Rank orders roles for role-switch issuance: a user may only operate as a
// role whose rank does not exceed their own. Unknown roles rank 0.
func (r Role) Rank() int {
	switch r {
	case RoleRoot:
		return 3
	case RoleAdmin:
		return 2
	case RoleEmployee:
		return 1
	default:
		return 0
	}
}

// CanActAs reports whether a user holding r may switch into target.
func (r Role) CanActAs(target Role) bool {
	return target.Valid() && target.Rank() <= r.Rank()
}

func (r Role) String() string { return string(r) }
