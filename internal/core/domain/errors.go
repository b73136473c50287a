package domain

import "errors"

var (
	ErrNoToken              = errors.New("no token provided")
	ErrInvalidToken         = errors.New("invalid or expired token")
	ErrSessionExpired       = errors.New("session expired")
	ErrUserNotFound         = errors.New("user not found")
	ErrForbidden            = errors.New("insufficient permissions")
	ErrUserStoreUnavailable = errors.New("user store unavailable")
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrRoleNotPermitted     = errors.New("role not permitted for user")
)
