package domain

import "time"

// AuditAction names a security-relevant decision recorded in the audit trail.
type AuditAction string

const (
	AuditTenantDenied        AuditAction = "tenant_denied"
	AuditRoleDenied          AuditAction = "role_denied"
	AuditSessionStoreFailure AuditAction = "session_store_unavailable"
	AuditLogin               AuditAction = "login"
	AuditLogout              AuditAction = "logout"
	AuditRoleSwitch          AuditAction = "role_switch"
)

// AuditEvent is a single entry of the security audit trail.
type AuditEvent struct {
	Timestamp       time.Time
	RequestID       string
	ActorID         int64
	ActorTenantID   int64
	RequestedTenant string // raw value as supplied by the caller
	Action          AuditAction
	Resource        string // "METHOD /path"
	Detail          string
	IP              string
}
