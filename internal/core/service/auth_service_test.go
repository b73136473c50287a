package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/officehub/gatekeeper/internal/core/domain"
	"github.com/officehub/gatekeeper/internal/core/ports"
)

func newTestAuthService(t *testing.T, role domain.Role) (*AuthService, *stubUserRepo, *stubSessionRepo, *stubAuditSink) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	u := activeUser(1, 10, role)
	u.Email = "carol@example.com"
	u.PasswordHash = string(hash)

	users := newStubUserRepo(u)
	sessions := newStubSessionRepo()
	sink := &stubAuditSink{}
	codec := newTestCodec(time.Now())
	return NewAuthService(users, sessions, codec, sink, zerolog.Nop()), users, sessions, sink
}

func TestAuthService_Login_Success(t *testing.T) {
	svc, _, sessions, sink := newTestAuthService(t, domain.RoleAdmin)

	pair, id, err := svc.Login(context.Background(), ports.LoginInput{Email: "carol@example.com", Password: "s3cret", IP: "1.2.3.4"})
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" || pair.SessionID == "" {
		t.Fatalf("incomplete token pair: %+v", pair)
	}
	if id.ID != 1 || id.EffectiveRole != domain.RoleAdmin {
		t.Fatalf("unexpected identity: %+v", id)
	}
	if _, ok := sessions.sessions[pair.SessionID]; !ok {
		t.Fatalf("session was not stored")
	}

	claims, err := svc.codec.Verify(pair.AccessToken)
	if err != nil {
		t.Fatalf("issued access token does not verify: %v", err)
	}
	if claims.SessionID != pair.SessionID || claims.TenantID != 10 {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if got := sink.actions(); len(got) != 1 || got[0] != domain.AuditLogin {
		t.Fatalf("expected login audit event, got %v", got)
	}
}

func TestAuthService_Login_InvalidCredentials(t *testing.T) {
	svc, _, _, _ := newTestAuthService(t, domain.RoleEmployee)

	cases := map[string]ports.LoginInput{
		"wrong password": {Email: "carol@example.com", Password: "bad"},
		"unknown email":  {Email: "ghost@example.com", Password: "s3cret"},
		"empty":          {},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			if _, _, err := svc.Login(context.Background(), in); !errors.Is(err, domain.ErrInvalidCredentials) {
				t.Fatalf("expected ErrInvalidCredentials, got %v", err)
			}
		})
	}
}

func TestAuthService_Login_UnknownEmailStillComparesHash(t *testing.T) {
	svc, _, _, _ := newTestAuthService(t, domain.RoleEmployee)

	var hashes [][]byte
	svc.compare = func(hash, password []byte) error {
		hashes = append(hashes, hash)
		return bcrypt.ErrMismatchedHashAndPassword
	}

	for _, email := range []string{"ghost@example.com", "carol@example.com"} {
		if _, _, err := svc.Login(context.Background(), ports.LoginInput{Email: email, Password: "bad"}); !errors.Is(err, domain.ErrInvalidCredentials) {
			t.Fatalf("%s: expected ErrInvalidCredentials, got %v", email, err)
		}
	}

	if len(hashes) != 2 {
		t.Fatalf("expected one hash comparison per attempt, got %d", len(hashes))
	}
	if _, err := bcrypt.Cost(hashes[0]); err != nil {
		t.Fatalf("unknown email compared against an invalid hash: %v", err)
	}
}

func TestAuthService_Refresh(t *testing.T) {
	svc, users, _, _ := newTestAuthService(t, domain.RoleAdmin)

	pair, _, err := svc.Login(context.Background(), ports.LoginInput{Email: "carol@example.com", Password: "s3cret"})
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}

	// Downgrade after login; the refreshed token must carry the live role.
	users.users[1].Role = domain.RoleEmployee

	tok, err := svc.Refresh(context.Background(), pair.RefreshToken)
	if err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	claims, err := svc.codec.Verify(tok.Token)
	if err != nil {
		t.Fatalf("refreshed token does not verify: %v", err)
	}
	if claims.Role != domain.RoleEmployee {
		t.Fatalf("expected live role employee, got %s", claims.Role)
	}

	if _, err := svc.Refresh(context.Background(), pair.AccessToken); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("access token accepted as refresh token: %v", err)
	}
}

func TestAuthService_RefreshAfterLogoutRejected(t *testing.T) {
	svc, _, _, _ := newTestAuthService(t, domain.RoleEmployee)

	pair, id, err := svc.Login(context.Background(), ports.LoginInput{Email: "carol@example.com", Password: "s3cret"})
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if err := svc.Logout(context.Background(), id); err != nil {
		t.Fatalf("logout failed: %v", err)
	}
	if _, err := svc.Refresh(context.Background(), pair.RefreshToken); !errors.Is(err, domain.ErrSessionExpired) {
		t.Fatalf("expected ErrSessionExpired, got %v", err)
	}
}

func TestAuthService_SwitchRole(t *testing.T) {
	svc, _, _, sink := newTestAuthService(t, domain.RoleAdmin)
	id := &domain.Identity{ID: 1, TenantID: 10, BaseRole: domain.RoleAdmin, EffectiveRole: domain.RoleAdmin, SessionID: "s"}

	tok, err := svc.SwitchRole(context.Background(), id, domain.RoleEmployee)
	if err != nil {
		t.Fatalf("switch failed: %v", err)
	}
	claims, err := svc.codec.Verify(tok.Token)
	if err != nil {
		t.Fatalf("switched token does not verify: %v", err)
	}
	if claims.Role != domain.RoleAdmin || claims.ActiveRole != domain.RoleEmployee || !claims.IsRoleSwitched {
		t.Fatalf("unexpected claims: %+v", claims)
	}

	if _, err := svc.SwitchRole(context.Background(), id, domain.RoleRoot); !errors.Is(err, domain.ErrRoleNotPermitted) {
		t.Fatalf("expected ErrRoleNotPermitted, got %v", err)
	}

	back, err := svc.SwitchRole(context.Background(), id, domain.RoleAdmin)
	if err != nil {
		t.Fatalf("switch back failed: %v", err)
	}
	claims, _ = svc.codec.Verify(back.Token)
	if claims.ActiveRole != "" || claims.IsRoleSwitched {
		t.Fatalf("switching to the base role must clear the switch: %+v", claims)
	}

	if got := sink.actions(); len(got) != 2 {
		t.Fatalf("expected two role switch audit events, got %v", got)
	}
}

func TestAuthService_LogoutLegacyTokenIsNoop(t *testing.T) {
	svc, _, sessions, _ := newTestAuthService(t, domain.RoleEmployee)
	sessions.err = errors.New("must not be called")

	if err := svc.Logout(context.Background(), &domain.Identity{ID: 1, TenantID: 10}); err != nil {
		t.Fatalf("expected nil error for session-less logout, got %v", err)
	}
}
