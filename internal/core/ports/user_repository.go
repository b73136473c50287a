package ports

import (
	"context"

	"github.com/officehub/gatekeeper/internal/core/domain"
)

// UserRepository reads the authoritative user rows. Both finders only return
// active users and report domain.ErrUserNotFound when no row matches.
type UserRepository interface {
	// FindActive loads a user joined with tenant and department metadata,
	// scoped to tenantID.
	FindActive(ctx context.Context, userID, tenantID int64) (*domain.UserRecord, error)
	// FindActiveByEmail is used by login; the record includes the password hash.
	FindActiveByEmail(ctx context.Context, email string) (*domain.UserRecord, error)
}
