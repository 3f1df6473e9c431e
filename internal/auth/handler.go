package auth

import (
	"context"
	"net/http"
	"time"

	"github.com/alphawing/brokerage/internal/transport"
)

type ServiceAPI interface {
	Register(ctx context.Context, dto RegisterDTO) (*UserResponse, error)
	Login(ctx context.Context, dto LoginDTO) (*LoginResponse, error)
	Refresh(ctx context.Context, refreshToken string) (TokenPair, error)
	Logout(ctx context.Context, userID int64) error
	ForgotPassword(ctx context.Context, dto ForgotPasswordDTO) error
	ResetPassword(ctx context.Context, dto ResetPasswordDTO) error
}

// CookieConfig names the cookies the login and refresh endpoints set.
type CookieConfig struct {
	AccessCookie  string
	RefreshCookie string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	Secure        bool
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
	cookies CookieConfig
}

func NewHandler(baseHandler *transport.BaseHandler, service ServiceAPI, cookies CookieConfig) *Handler {
	if cookies.AccessCookie == "" {
		cookies.AccessCookie = "accessToken"
	}
	if cookies.RefreshCookie == "" {
		cookies.RefreshCookie = "refreshToken"
	}
	return &Handler{
		BaseHandler: baseHandler,
		Service:     service,
		cookies:     cookies,
	}
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var dto RegisterDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	user, err := h.Service.Register(r.Context(), dto)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, user)
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var dto LoginDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	dto.ClientIP = transport.ClientIP(r)

	resp, err := h.Service.Login(r.Context(), dto)
	if err != nil {
		h.Logger.WarnContext(r.Context(), "login failed", "username", dto.Username, "error", err)
		h.WriteAppError(w, r, err)
		return
	}

	h.setTokenCookies(w, TokenPair{AccessToken: resp.AccessToken, RefreshToken: resp.RefreshToken})
	h.WriteJSON(w, http.StatusOK, resp)
}

// Refresh accepts the refresh token in the body or, failing that, the refresh cookie.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	var dto RefreshTokenDTO
	if r.ContentLength != 0 {
		if err := h.DecodeJSON(r, &dto); err != nil {
			h.WriteAppError(w, r, err)
			return
		}
	}
	if dto.RefreshToken == "" {
		if c, err := r.Cookie(h.cookies.RefreshCookie); err == nil {
			dto.RefreshToken = c.Value
		}
	}

	pair, err := h.Service.Refresh(r.Context(), dto.RefreshToken)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	h.setTokenCookies(w, pair)
	h.WriteJSON(w, http.StatusOK, pair)
}

// Logout runs behind the gate, so the principal is always present.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	p, err := h.Principal(r)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	if err := h.Service.Logout(r.Context(), p.UserID); err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	h.clearTokenCookies(w)
	h.WriteJSON(w, http.StatusOK, MessageResponse{Message: "logged out"})
}

func (h *Handler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var dto ForgotPasswordDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	if dto.Origin == "" {
		dto.Origin = r.Header.Get("Origin")
	}

	if err := h.Service.ForgotPassword(r.Context(), dto); err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, MessageResponse{Message: "if the email is registered, a reset link has been sent"})
}

func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var dto ResetPasswordDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	if err := h.Service.ResetPassword(r.Context(), dto); err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, MessageResponse{Message: "password updated"})
}

func (h *Handler) setTokenCookies(w http.ResponseWriter, pair TokenPair) {
	http.SetCookie(w, h.cookie(h.cookies.AccessCookie, pair.AccessToken, h.cookies.AccessTTL))
	http.SetCookie(w, h.cookie(h.cookies.RefreshCookie, pair.RefreshToken, h.cookies.RefreshTTL))
}

func (h *Handler) clearTokenCookies(w http.ResponseWriter) {
	for _, name := range []string{h.cookies.AccessCookie, h.cookies.RefreshCookie} {
		c := h.cookie(name, "", 0)
		c.MaxAge = -1
		http.SetCookie(w, c)
	}
}

func (h *Handler) cookie(name, value string, ttl time.Duration) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   h.cookies.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}
