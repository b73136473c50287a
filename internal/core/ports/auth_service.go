package ports

import (
	"context"
	"time"

	"github.com/officehub/gatekeeper/internal/core/domain"
)

// LoginInput carries credentials plus the client fingerprint stored on the
// session record.
type LoginInput struct {
	Email     string
	Password  string
	UserAgent string
	IP        string
}

// TokenPair is returned by Login.
type TokenPair struct {
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
	SessionID        string
}

// AccessToken is returned by Refresh and SwitchRole.
type AccessToken struct {
	Token     string
	ExpiresAt time.Time
}

// AuthService issues and revokes credentials consumed by the pipeline.
type AuthService interface {
	Login(ctx context.Context, in LoginInput) (*TokenPair, *domain.Identity, error)
	Refresh(ctx context.Context, refreshToken string) (*AccessToken, error)
	SwitchRole(ctx context.Context, id *domain.Identity, role domain.Role) (*AccessToken, error)
	Logout(ctx context.Context, id *domain.Identity) error
}
