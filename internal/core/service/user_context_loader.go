package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/officehub/gatekeeper/internal/core/domain"
	"github.com/officehub/gatekeeper/internal/core/ports"
)

// UserContextLoader turns verified claims into a request Identity using the
// live user row. Nothing is cached between requests.
type UserContextLoader struct {
	users ports.UserRepository
	log   zerolog.Logger
}

func NewUserContextLoader(users ports.UserRepository, log zerolog.Logger) *UserContextLoader {
	return &UserContextLoader{users: users, log: log}
}

// Load returns domain.ErrUserNotFound when the user is missing, inactive or
// belongs to another tenant, and an error wrapping
// domain.ErrUserStoreUnavailable for any store failure.
func (l *UserContextLoader) Load(ctx context.Context, claims *domain.TokenClaims) (*domain.Identity, error) {
	ctx, span := startSpan(ctx, "user_context.load",
		attribute.Int64("user.id", claims.SubjectID),
		attribute.Int64("tenant.id", claims.TenantID),
	)
	defer span.End()

	rec, err := l.users.FindActive(ctx, claims.SubjectID, claims.TenantID)
	if errors.Is(err, domain.ErrUserNotFound) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "user store unavailable")
		l.log.Error().Err(err).
			Int64("user_id", claims.SubjectID).
			Int64("tenant_id", claims.TenantID).
			Msg("user lookup failed")
		return nil, fmt.Errorf("%w: %w", domain.ErrUserStoreUnavailable, err)
	}
	if !rec.IsActive || rec.TenantID != claims.TenantID {
		return nil, domain.ErrUserNotFound
	}

	return BuildIdentity(rec, claims), nil
}

// BuildIdentity combines a user row with token claims. The base role always
// comes from the row; a switched role from the token is honoured only while
// the live role still permits it, otherwise the live role wins.
func BuildIdentity(rec *domain.UserRecord, claims *domain.TokenClaims) *domain.Identity {
	base := rec.Role
	effective := base
	if claims.ActiveRole != "" && base.CanActAs(claims.ActiveRole) {
		effective = claims.ActiveRole
	}

	return &domain.Identity{
		ID:            rec.ID,
		Username:      rec.Username,
		Email:         rec.Email,
		BaseRole:      base,
		EffectiveRole: effective,
		RoleSwitched:  effective != base,
		TenantID:      rec.TenantID,
		TenantName:    rec.TenantName,
		DepartmentID:  rec.DepartmentID,
		SessionID:     claims.SessionID,
	}
}
