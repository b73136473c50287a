package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/officehub/gatekeeper/internal/core/domain"
	"github.com/officehub/gatekeeper/internal/core/ports"
)

// AuthService implements login, refresh, role switching and logout.
type AuthService struct {
	users    ports.UserRepository
	sessions ports.SessionRepository
	codec    *TokenCodec
	audit    ports.AuditSink
	log      zerolog.Logger
	now      func() time.Time
	compare  func(hash, password []byte) error
}

// dummyHash is compared against when the email is unknown so that both
// failure paths pay for one bcrypt comparison.
var dummyHash = sync.OnceValue(func() []byte {
	h, err := bcrypt.GenerateFromPassword([]byte("gatekeeper-unknown-user"), bcrypt.DefaultCost)
	if err != nil {
		panic(fmt.Sprintf("auth: generate dummy hash: %v", err))
	}
	return h
})

func NewAuthService(
	users ports.UserRepository,
	sessions ports.SessionRepository,
	codec *TokenCodec,
	audit ports.AuditSink,
	log zerolog.Logger,
) *AuthService {
	return &AuthService{
		users:    users,
		sessions: sessions,
		codec:    codec,
		audit:    audit,
		log:      log,
		now:      time.Now,
		compare:  bcrypt.CompareHashAndPassword,
	}
}

var _ ports.AuthService = (*AuthService)(nil)

func (s *AuthService) Login(ctx context.Context, in ports.LoginInput) (*ports.TokenPair, *domain.Identity, error) {
	ctx, span := startSpan(ctx, "auth.login")
	defer span.End()

	if in.Email == "" || in.Password == "" {
		return nil, nil, domain.ErrInvalidCredentials
	}

	user, err := s.users.FindActiveByEmail(ctx, in.Email)
	if errors.Is(err, domain.ErrUserNotFound) {
		_ = s.compare(dummyHash(), []byte(in.Password))
		return nil, nil, domain.ErrInvalidCredentials
	}
	if err != nil {
		return nil, nil, fmt.Errorf("login: %w", err)
	}

	if s.compare([]byte(user.PasswordHash), []byte(in.Password)) != nil {
		return nil, nil, domain.ErrInvalidCredentials
	}

	now := s.now().UTC()
	sessionID := uuid.NewString()
	claims := domain.TokenClaims{
		SubjectID: user.ID,
		TenantID:  user.TenantID,
		Role:      user.Role,
		SessionID: sessionID,
	}

	access, accessExp, err := s.codec.Issue(claims)
	if err != nil {
		return nil, nil, err
	}
	claims.Type = domain.TokenRefresh
	refresh, refreshExp, err := s.codec.Issue(claims)
	if err != nil {
		return nil, nil, err
	}

	if s.sessions != nil {
		err = s.sessions.Create(ctx, domain.SessionRecord{
			UserID:    user.ID,
			SessionID: sessionID,
			TenantID:  user.TenantID,
			CreatedAt: now,
			ExpiresAt: refreshExp,
			UserAgent: in.UserAgent,
			IP:        in.IP,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("login: create session: %w", err)
		}
	}

	s.record(domain.AuditEvent{
		ActorID:       user.ID,
		ActorTenantID: user.TenantID,
		Action:        domain.AuditLogin,
		IP:            in.IP,
	})

	pair := &ports.TokenPair{
		AccessToken:      access,
		AccessExpiresAt:  accessExp,
		RefreshToken:     refresh,
		RefreshExpiresAt: refreshExp,
		SessionID:        sessionID,
	}
	claims.Type = domain.TokenAccess
	return pair, BuildIdentity(user, &claims), nil
}

// Refresh exchanges a refresh token for a new access token. The role is
// re-read from the user row and any previous role switch is dropped. A
// session store failure rejects the refresh.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*ports.AccessToken, error) {
	claims, err := s.codec.VerifyRefresh(refreshToken)
	if err != nil {
		return nil, err
	}

	if s.sessions != nil && claims.SessionID != "" {
		ok, err := s.sessions.Exists(ctx, claims.SubjectID, claims.SessionID, s.now())
		if err != nil {
			return nil, fmt.Errorf("refresh: %w", err)
		}
		if !ok {
			return nil, domain.ErrSessionExpired
		}
	}

	user, err := s.users.FindActive(ctx, claims.SubjectID, claims.TenantID)
	if err != nil {
		return nil, err
	}

	return s.issueAccess(domain.TokenClaims{
		SubjectID: user.ID,
		TenantID:  user.TenantID,
		Role:      user.Role,
		SessionID: claims.SessionID,
	})
}

// SwitchRole issues an access token acting as role. Only roles at or below
// the caller's base role are permitted; switching to the base role clears
// the switch.
func (s *AuthService) SwitchRole(_ context.Context, id *domain.Identity, role domain.Role) (*ports.AccessToken, error) {
	if id == nil {
		return nil, domain.ErrNoToken
	}
	if !id.BaseRole.CanActAs(role) {
		return nil, domain.ErrRoleNotPermitted
	}

	claims := domain.TokenClaims{
		SubjectID: id.ID,
		TenantID:  id.TenantID,
		Role:      id.BaseRole,
		SessionID: id.SessionID,
	}
	if role != id.BaseRole {
		claims.ActiveRole = role
		claims.IsRoleSwitched = true
	}

	tok, err := s.issueAccess(claims)
	if err != nil {
		return nil, err
	}
	s.record(domain.AuditEvent{
		ActorID:       id.ID,
		ActorTenantID: id.TenantID,
		Action:        domain.AuditRoleSwitch,
		Detail:        fmt.Sprintf("%s -> %s", id.EffectiveRole, role),
	})
	return tok, nil
}

// Logout revokes the caller's session. Legacy tokens carry no session and
// there is nothing to revoke.
func (s *AuthService) Logout(ctx context.Context, id *domain.Identity) error {
	if id == nil {
		return domain.ErrNoToken
	}
	if id.SessionID == "" || s.sessions == nil {
		return nil
	}
	if err := s.sessions.Revoke(ctx, id.ID, id.SessionID); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	s.record(domain.AuditEvent{
		ActorID:       id.ID,
		ActorTenantID: id.TenantID,
		Action:        domain.AuditLogout,
	})
	return nil
}

func (s *AuthService) issueAccess(claims domain.TokenClaims) (*ports.AccessToken, error) {
	claims.Type = domain.TokenAccess
	tok, exp, err := s.codec.Issue(claims)
	if err != nil {
		return nil, err
	}
	return &ports.AccessToken{Token: tok, ExpiresAt: exp}, nil
}

func (s *AuthService) record(ev domain.AuditEvent) {
	if s.audit == nil {
		return
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = s.now().UTC()
	}
	s.audit.Publish(ev)
}
