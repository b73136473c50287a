package service

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/officehub/gatekeeper/internal/core/domain"
)

// TokenCookieName is the HTTP-only cookie consulted when no bearer header is sent.
const TokenCookieName = "token"

const (
	defaultAccessTTL  = 15 * time.Minute
	defaultRefreshTTL = 7 * 24 * time.Hour
)

// TokenCodecConfig holds the signing material. RefreshSecret falls back to
// AccessSecret when empty.
type TokenCodecConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

// TokenCodec signs, extracts and verifies bearer tokens.
type TokenCodec struct {
	accessKey  []byte
	refreshKey []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	log        zerolog.Logger
	now        func() time.Time
}

func NewTokenCodec(cfg TokenCodecConfig, log zerolog.Logger) *TokenCodec {
	refresh := cfg.RefreshSecret
	if refresh == "" {
		refresh = cfg.AccessSecret
	}
	accessTTL := cfg.AccessTTL
	if accessTTL <= 0 {
		accessTTL = defaultAccessTTL
	}
	refreshTTL := cfg.RefreshTTL
	if refreshTTL <= 0 {
		refreshTTL = defaultRefreshTTL
	}
	return &TokenCodec{
		accessKey:  []byte(cfg.AccessSecret),
		refreshKey: []byte(refresh),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		log:        log,
		now:        time.Now,
	}
}

// tokenPayload is the wire shape. Legacy tokens carry tenant_id and no
// sessionId/type; v2 tokens carry tenantId. Both collapse into
// domain.TokenClaims in canonical() and nowhere else.
type tokenPayload struct {
	ID             int64  `json:"id"`
	TenantID       *int64 `json:"tenantId,omitempty"`
	LegacyTenantID *int64 `json:"tenant_id,omitempty"`
	Role           string `json:"role"`
	ActiveRole     string `json:"activeRole,omitempty"`
	IsRoleSwitched bool   `json:"isRoleSwitched,omitempty"`
	SessionID      string `json:"sessionId,omitempty"`
	Type           string `json:"type,omitempty"`
	TokenType      string `json:"tokenType,omitempty"`
	jwt.RegisteredClaims
}

func (p *tokenPayload) schema() domain.TokenSchema {
	if p.TenantID == nil && p.LegacyTenantID != nil {
		return domain.SchemaLegacy
	}
	return domain.SchemaV2
}

// tokenType reads the type from either field name. Both may be present but
// must then agree; neither means access.
func (p *tokenPayload) tokenType() (domain.TokenType, error) {
	t := p.Type
	if p.TokenType != "" {
		if t != "" && t != p.TokenType {
			return "", fmt.Errorf("conflicting token types %q and %q", p.Type, p.TokenType)
		}
		t = p.TokenType
	}
	switch domain.TokenType(t) {
	case "":
		return domain.TokenAccess, nil
	case domain.TokenAccess, domain.TokenRefresh:
		return domain.TokenType(t), nil
	}
	return "", fmt.Errorf("unknown token type %q", t)
}

func (p *tokenPayload) canonical() (*domain.TokenClaims, error) {
	tenant := p.TenantID
	if tenant == nil {
		tenant = p.LegacyTenantID
	}
	if p.ID <= 0 {
		return nil, errors.New("missing subject id")
	}
	if tenant == nil || *tenant <= 0 {
		return nil, errors.New("missing tenant id")
	}
	role, ok := domain.ParseRole(p.Role)
	if !ok {
		return nil, fmt.Errorf("unknown role %q", p.Role)
	}
	typ, err := p.tokenType()
	if err != nil {
		return nil, err
	}

	claims := &domain.TokenClaims{
		SubjectID:      p.ID,
		TenantID:       *tenant,
		Role:           role,
		IsRoleSwitched: p.IsRoleSwitched,
		SessionID:      p.SessionID,
		Type:           typ,
		Schema:         p.schema(),
	}
	if p.ActiveRole != "" {
		active, ok := domain.ParseRole(p.ActiveRole)
		if !ok {
			return nil, fmt.Errorf("unknown active role %q", p.ActiveRole)
		}
		claims.ActiveRole = active
	}
	if p.IssuedAt != nil {
		claims.IssuedAt = p.IssuedAt.Time
	}
	if p.ExpiresAt != nil {
		claims.ExpiresAt = p.ExpiresAt.Time
	}
	return claims, nil
}

// Extract returns the raw token from the Authorization header, falling back
// to the token cookie. ok is false when neither carries a token.
func (c *TokenCodec) Extract(r *http.Request) (string, bool) {
	if h := r.Header.Get("Authorization"); h != "" {
		parts := strings.SplitN(h, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			if tok := strings.TrimSpace(parts[1]); tok != "" {
				return tok, true
			}
		}
	}
	if ck, err := r.Cookie(TokenCookieName); err == nil && ck.Value != "" {
		return ck.Value, true
	}
	return "", false
}

// Verify validates an access token. Every failure is reported as
// domain.ErrInvalidToken; the underlying cause is only logged.
func (c *TokenCodec) Verify(raw string) (*domain.TokenClaims, error) {
	claims, err := c.parse(raw, c.accessKey)
	if err != nil {
		c.log.Debug().Err(err).Msg("access token rejected")
		return nil, domain.ErrInvalidToken
	}
	if claims.Type != domain.TokenAccess {
		c.log.Debug().Str("type", string(claims.Type)).Msg("non-access token presented as access token")
		return nil, domain.ErrInvalidToken
	}
	return claims, nil
}

// VerifyRefresh validates a refresh token signed with the refresh secret.
func (c *TokenCodec) VerifyRefresh(raw string) (*domain.TokenClaims, error) {
	claims, err := c.parse(raw, c.refreshKey)
	if err != nil {
		c.log.Debug().Err(err).Msg("refresh token rejected")
		return nil, domain.ErrInvalidToken
	}
	if claims.Type != domain.TokenRefresh {
		return nil, domain.ErrInvalidToken
	}
	return claims, nil
}

func (c *TokenCodec) parse(raw string, key []byte) (*domain.TokenClaims, error) {
	var payload tokenPayload
	_, err := jwt.ParseWithClaims(raw, &payload,
		func(*jwt.Token) (any, error) { return key, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		return nil, err
	}
	return payload.canonical()
}

// Issue signs claims as a token of claims.Type (access when empty). Issued
// tokens always use the canonical tenantId field.
func (c *TokenCodec) Issue(claims domain.TokenClaims) (string, time.Time, error) {
	if claims.Type == "" {
		claims.Type = domain.TokenAccess
	}
	key, ttl := c.accessKey, c.accessTTL
	if claims.Type == domain.TokenRefresh {
		key, ttl = c.refreshKey, c.refreshTTL
	}

	now := c.now()
	exp := now.Add(ttl)
	tenant := claims.TenantID
	payload := tokenPayload{
		ID:             claims.SubjectID,
		TenantID:       &tenant,
		Role:           string(claims.Role),
		ActiveRole:     string(claims.ActiveRole),
		IsRoleSwitched: claims.IsRoleSwitched,
		SessionID:      claims.SessionID,
		Type:           string(claims.Type),
		TokenType:      string(claims.Type),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, payload).SignedString(key)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign %s token: %w", claims.Type, err)
	}
	return signed, exp, nil
}

// AccessTTL is the lifetime of issued access tokens.
func (c *TokenCodec) AccessTTL() time.Duration { return c.accessTTL }
