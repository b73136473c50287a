package domain

import "time"

// TokenType distinguishes short-lived access tokens from refresh tokens.
type TokenType string

const (
	TokenAccess  TokenType = "access"
	TokenRefresh TokenType = "refresh"
)

// TokenSchema records which historical wire shape a token was decoded from.
// Nothing outside the codec may branch on it; it exists for logs and metrics.
type TokenSchema string

const (
	SchemaLegacy TokenSchema = "legacy"
	SchemaV2     TokenSchema = "v2"
)

// TokenClaims is the canonical view of a verified bearer token.
type TokenClaims struct {
	SubjectID      int64
	TenantID       int64
	Role           Role
	ActiveRole     Role // empty when the token carries no role switch
	IsRoleSwitched bool
	SessionID      string // empty for legacy tokens
	Type           TokenType
	IssuedAt       time.Time
	ExpiresAt      time.Time
	Schema         TokenSchema
}
