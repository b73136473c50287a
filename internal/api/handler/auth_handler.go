package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/officehub/gatekeeper/internal/api/middleware"
	"github.com/officehub/gatekeeper/internal/api/respond"
	"github.com/officehub/gatekeeper/internal/core/domain"
	"github.com/officehub/gatekeeper/internal/core/ports"
	"github.com/officehub/gatekeeper/internal/core/service"
)

const refreshCookieName = "refresh_token"

type AuthHandler struct {
	authService   ports.AuthService
	secureCookies bool
}

func NewAuthHandler(authService ports.AuthService, secureCookies bool) *AuthHandler {
	return &AuthHandler{authService: authService, secureCookies: secureCookies}
}

type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,max=256"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type SwitchRoleRequest struct {
	Role string `json:"role" validate:"required,role"`
}

type loginResponse struct {
	Success          bool             `json:"success"`
	AccessToken      string           `json:"accessToken"`
	AccessExpiresAt  time.Time        `json:"accessExpiresAt"`
	RefreshToken     string           `json:"refreshToken"`
	RefreshExpiresAt time.Time        `json:"refreshExpiresAt"`
	User             *domain.Identity `json:"user"`
}

type tokenResponse struct {
	Success     bool      `json:"success"`
	AccessToken string    `json:"accessToken"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

type userResponse struct {
	Success bool             `json:"success"`
	User    *domain.Identity `json:"user"`
}

// Login authenticates with email and password, returns a token pair and sets
// the HTTP-only token cookie.
func (h *AuthHandler) Login(c echo.Context) error {
	req, err := body[LoginRequest](c)
	if err != nil {
		return respond.Fail(c, respond.BadRequest)
	}

	pair, id, err := h.authService.Login(c.Request().Context(), ports.LoginInput{
		Email:     req.Email,
		Password:  req.Password,
		UserAgent: c.Request().UserAgent(),
		IP:        c.RealIP(),
	})
	if err != nil {
		return fail(c, err)
	}

	h.setCookie(c, service.TokenCookieName, pair.AccessToken, "/", pair.AccessExpiresAt)
	h.setCookie(c, refreshCookieName, pair.RefreshToken, "/auth", pair.RefreshExpiresAt)

	return c.JSON(http.StatusOK, loginResponse{
		Success:          true,
		AccessToken:      pair.AccessToken,
		AccessExpiresAt:  pair.AccessExpiresAt,
		RefreshToken:     pair.RefreshToken,
		RefreshExpiresAt: pair.RefreshExpiresAt,
		User:             id,
	})
}

// Refresh accepts the refresh token from the JSON body or the refresh cookie.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req RefreshRequest
	if c.Request().ContentLength > 0 {
		if err := c.Bind(&req); err != nil {
			return respond.Fail(c, respond.BadRequest)
		}
	}
	if req.RefreshToken == "" {
		if ck, err := c.Cookie(refreshCookieName); err == nil {
			req.RefreshToken = ck.Value
		}
	}
	if req.RefreshToken == "" {
		return respond.Fail(c, respond.NoToken)
	}

	tok, err := h.authService.Refresh(c.Request().Context(), req.RefreshToken)
	if err != nil {
		return fail(c, err)
	}

	h.setCookie(c, service.TokenCookieName, tok.Token, "/", tok.ExpiresAt)
	return c.JSON(http.StatusOK, tokenResponse{Success: true, AccessToken: tok.Token, ExpiresAt: tok.ExpiresAt})
}

// SwitchRole issues a token acting as a lower (or the original) role.
func (h *AuthHandler) SwitchRole(c echo.Context) error {
	id, ok := middleware.CurrentIdentity(c)
	if !ok {
		return respond.Fail(c, respond.NoToken)
	}
	req, err := body[SwitchRoleRequest](c)
	if err != nil {
		return respond.Fail(c, respond.BadRequest)
	}
	role, ok := domain.ParseRole(req.Role)
	if !ok {
		return respond.Fail(c, respond.Validation.WithMessage("role must be one of: root, admin, employee"))
	}

	tok, err := h.authService.SwitchRole(c.Request().Context(), id, role)
	if err != nil {
		return fail(c, err)
	}

	h.setCookie(c, service.TokenCookieName, tok.Token, "/", tok.ExpiresAt)
	return c.JSON(http.StatusOK, tokenResponse{Success: true, AccessToken: tok.Token, ExpiresAt: tok.ExpiresAt})
}

// Logout revokes the current session and clears the cookies.
func (h *AuthHandler) Logout(c echo.Context) error {
	id, ok := middleware.CurrentIdentity(c)
	if !ok {
		return respond.Fail(c, respond.NoToken)
	}
	if err := h.authService.Logout(c.Request().Context(), id); err != nil {
		return fail(c, err)
	}

	h.setCookie(c, service.TokenCookieName, "", "/", time.Unix(0, 0))
	h.setCookie(c, refreshCookieName, "", "/auth", time.Unix(0, 0))
	return c.NoContent(http.StatusNoContent)
}

// Me returns the identity resolved for the current request.
func (h *AuthHandler) Me(c echo.Context) error {
	id, ok := middleware.CurrentIdentity(c)
	if !ok {
		return respond.Fail(c, respond.NoToken)
	}
	return c.JSON(http.StatusOK, userResponse{Success: true, User: id})
}

func (h *AuthHandler) setCookie(c echo.Context, name, value, path string, expires time.Time) {
	ck := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     path,
		Expires:  expires,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	}
	if value == "" {
		ck.MaxAge = -1
	}
	c.SetCookie(ck)
}
