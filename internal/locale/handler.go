package locale

import (
	"log/slog"
	"net/http"
	"strings"

	"pluscode-backend/internal/httpx"
	"pluscode-backend/internal/middleware"
	"pluscode-backend/internal/transport"
	"pluscode-backend/internal/validation"
)

type setRequest struct {
	Locale string `json:"locale" validate:"required,locale"`
}

type Handler struct {
	val *validation.Validator
	log *slog.Logger
}

func NewHandler(val *validation.Validator, log *slog.Logger) *Handler {
	return &Handler{val: val, log: log}
}

// Get reports the active locale.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	current := FromContext(r.Context())
	transport.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"locale":    current,
		"supported": Supported,
	})
}

// Set persists a new preference. Well-formed but unsupported codes are accepted and
// flagged, matching how content queries treat them.
func (h *Handler) Set(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)

	var req setRequest
	if err := httpx.DecodeJSON(r.Body, &req); err != nil {
		log.Warn("locale set: invalid json")
		transport.WriteError(w, http.StatusBadRequest, "invalid json", nil)
		return
	}
	req.Locale = strings.ToLower(strings.TrimSpace(req.Locale))

	if err := h.val.Struct(req); err != nil {
		log.Warn("locale set: validation error")
		transport.WriteError(w, http.StatusBadRequest, "validation error", httpx.ValidationDetails(h.val.ValidationErrors(err)))
		return
	}

	pref := PreferenceFromContext(r.Context())
	if pref == nil {
		pref = &Preference{w: w}
	}
	pref.SetLocale(req.Locale)

	supported := IsSupported(req.Locale)
	if !supported {
		log.Warn("locale set: unsupported locale", slog.String("locale", req.Locale))
	}
	log.Info("locale set: ok", slog.String("locale", req.Locale))
	transport.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"locale":    req.Locale,
		"supported": supported,
	})
}

func (h *Handler) logWithRequest(r *http.Request) *slog.Logger {
	if r == nil {
		return h.log
	}
	if id := middleware.RequestIDFromContext(r.Context()); id != "" {
		return h.log.With(slog.String("request_id", id))
	}
	return h.log
}
