package admin

import (
	"log/slog"
	"net/http"
	"time"

	"pluscode-backend/internal/auth"
	"pluscode-backend/internal/httpx"
	"pluscode-backend/internal/middleware"
	"pluscode-backend/internal/transport"
	"pluscode-backend/internal/validation"
)

// refreshPath scopes the refresh cookie to the session endpoints.
const refreshPath = "/api/v1/admin"

type Credentials struct {
	User         string
	PasswordHash string
}

type Handler struct {
	creds   Credentials
	manager *auth.Manager
	secure  bool
	val     *validation.Validator
	log     *slog.Logger
}

func NewHandler(creds Credentials, manager *auth.Manager, secureCookies bool, val *validation.Validator, log *slog.Logger) *Handler {
	return &Handler{creds: creds, manager: manager, secure: secureCookies, val: val, log: log}
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type statusResponse struct {
	Status string `json:"status"`
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	var req LoginRequest
	if err := httpx.DecodeJSON(r.Body, &req); err != nil {
		log.Warn("admin login: invalid json")
		transport.WriteError(w, http.StatusBadRequest, "invalid json", nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		log.Warn("admin login: validation error")
		transport.WriteError(w, http.StatusBadRequest, "validation error", httpx.ValidationDetails(h.val.ValidationErrors(err)))
		return
	}

	if h.creds.PasswordHash == "" || h.manager == nil {
		log.Warn("admin login: not configured")
		transport.WriteError(w, http.StatusServiceUnavailable, "admin auth not configured", nil)
		return
	}

	// The hash is always compared so a wrong user costs the same as a wrong password.
	pwErr := auth.ComparePassword(h.creds.PasswordHash, req.Password)
	if req.Username != h.creds.User || pwErr != nil {
		log.Warn("admin login: invalid credentials", slog.String("username", req.Username))
		transport.WriteError(w, http.StatusUnauthorized, "invalid credentials", nil)
		return
	}

	if !h.issue(w, req.Username) {
		log.Error("admin login: token error")
		return
	}
	log.Info("admin login: ok", slog.String("username", req.Username))
	transport.WriteJSON(w, http.StatusOK, statusResponse{Status: "ok"})
}

func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	if h.manager == nil {
		log.Warn("admin refresh: not configured")
		transport.WriteError(w, http.StatusServiceUnavailable, "admin auth not configured", nil)
		return
	}

	cookie, err := r.Cookie(auth.RefreshCookie)
	if err != nil || cookie.Value == "" {
		log.Warn("admin refresh: missing refresh token")
		transport.WriteError(w, http.StatusUnauthorized, "missing refresh token", nil)
		return
	}

	claims, err := h.manager.ParseRefresh(cookie.Value)
	if err != nil || claims.Role != auth.RoleAdmin {
		log.Warn("admin refresh: invalid refresh token")
		transport.WriteError(w, http.StatusUnauthorized, "invalid refresh token", nil)
		return
	}

	if !h.issue(w, claims.Subject) {
		log.Error("admin refresh: token error")
		return
	}
	log.Info("admin refresh: ok")
	transport.WriteJSON(w, http.StatusOK, statusResponse{Status: "ok"})
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	h.clearCookies(w)
	h.logWithRequest(r).Info("admin logout: ok")
	transport.WriteJSON(w, http.StatusOK, statusResponse{Status: "ok"})
}

func (h *Handler) issue(w http.ResponseWriter, subject string) bool {
	access, err := h.manager.NewAccessToken(subject, auth.RoleAdmin)
	if err != nil {
		transport.WriteError(w, http.StatusInternalServerError, "token error", nil)
		return false
	}
	refresh, err := h.manager.NewRefreshToken(subject, auth.RoleAdmin)
	if err != nil {
		transport.WriteError(w, http.StatusInternalServerError, "token error", nil)
		return false
	}

	http.SetCookie(w, h.cookie(auth.AccessCookie, access, "/", int(h.manager.AccessTTL.Seconds())))
	http.SetCookie(w, h.cookie(auth.RefreshCookie, refresh, refreshPath, int(h.manager.RefreshTTL.Seconds())))
	return true
}

func (h *Handler) clearCookies(w http.ResponseWriter) {
	expire := time.Now().Add(-1 * time.Hour)
	for _, c := range []*http.Cookie{
		h.cookie(auth.AccessCookie, "", "/", -1),
		h.cookie(auth.RefreshCookie, "", refreshPath, -1),
	} {
		c.Expires = expire
		http.SetCookie(w, c)
	}
}

func (h *Handler) cookie(name, value, path string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     path,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   maxAge,
	}
}

func (h *Handler) logWithRequest(r *http.Request) *slog.Logger {
	if id := middleware.RequestIDFromContext(r.Context()); id != "" {
		return h.log.With(slog.String("request_id", id))
	}
	return h.log
}
