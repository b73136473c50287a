package domain

import "time"

// UserRecord is the authoritative user row joined with its tenant.
type UserRecord struct {
	ID           int64
	TenantID     int64
	TenantName   string
	Username     string
	Email        string
	PasswordHash string
	Role         Role
	DepartmentID *int64
	IsActive     bool
}

// SessionRecord is a server-side session. The pipeline only consults its
// existence and expiry; issuance and revocation live in AuthService.
type SessionRecord struct {
	UserID    int64
	SessionID string
	TenantID  int64
	CreatedAt time.Time
	ExpiresAt time.Time
	UserAgent string
	IP        string
}

// Expired reports whether the session is no longer usable at now.
func (s SessionRecord) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
