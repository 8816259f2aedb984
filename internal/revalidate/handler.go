// Package revalidate turns CMS change notifications into cache tag invalidations.
package revalidate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"pluscode-backend/internal/httpx"
	"pluscode-backend/internal/metrics"
	"pluscode-backend/internal/middleware"
	"pluscode-backend/internal/sanity"
	"pluscode-backend/internal/transport"
	"pluscode-backend/internal/validation"
)

const maxBodyBytes = 1 << 20

// Invalidator marks cache tags stale.
type Invalidator interface {
	Invalidate(ctx context.Context, tags ...string) error
}

// Notification is the part of a webhook body that decides what to invalidate.
type Notification struct {
	Type string
	Slug string
}

// NotificationFrom reads {_type, slug: {current}} from a decoded body. A scalar
// _type is accepted when truthy (non-empty, non-zero, true) and used in its JSON
// text form. Objects, arrays and a non-string slug are treated as absent.
func NotificationFrom(body map[string]interface{}) Notification {
	var n Notification
	n.Type = scalarText(body["_type"])
	if slug, ok := body["slug"].(map[string]interface{}); ok {
		n.Slug, _ = slug["current"].(string)
	}
	return n
}

func scalarText(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		if t == 0 {
			return ""
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		if t {
			return "true"
		}
	}
	return ""
}

// TagsFor returns the tags a change to n invalidates: the document type, plus
// "<type>:<slug>" when the document carries a slug.
func TagsFor(n Notification) []string {
	typ := strings.TrimSpace(n.Type)
	if typ == "" {
		return nil
	}
	tags := []string{typ}
	if slug := strings.TrimSpace(n.Slug); slug != "" {
		tags = append(tags, typ+":"+slug)
	}
	return tags
}

type Handler struct {
	inv     Invalidator
	secret  string
	val     *validation.Validator
	metrics *metrics.Metrics
	log     *slog.Logger
	now     func() time.Time
}

func NewHandler(inv Invalidator, secret string, val *validation.Validator, m *metrics.Metrics, log *slog.Logger) *Handler {
	return &Handler{
		inv:     inv,
		secret:  secret,
		val:     val,
		metrics: m,
		log:     log,
		now:     time.Now,
	}
}

// Webhook handles POST /api/revalidate from the CMS.
func (h *Handler) Webhook(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)

	payload, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		log.Error("revalidate webhook: read body", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, errorMessage(err), nil)
		return
	}

	if err := sanity.VerifySignature(payload, r.Header.Get(sanity.SignatureHeader), h.secret); err != nil {
		log.Warn("revalidate webhook: invalid signature")
		transport.WriteError(w, http.StatusUnauthorized, "Invalid signature", nil)
		return
	}

	var body map[string]interface{}
	if err := json.Unmarshal(payload, &body); err != nil {
		log.Error("revalidate webhook: parse body", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, errorMessage(err), nil)
		return
	}

	tags := TagsFor(NotificationFrom(body))
	if len(tags) == 0 {
		log.Warn("revalidate webhook: missing _type")
		transport.WriteError(w, http.StatusBadRequest, "Bad Request", nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.inv.Invalidate(ctx, tags...); err != nil {
		log.Error("revalidate webhook: invalidate", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, errorMessage(err), nil)
		return
	}
	h.metrics.CacheInvalidated("webhook", len(tags))

	log.Info("revalidate webhook: ok", slog.Any("tags", tags))
	transport.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status":      http.StatusOK,
		"revalidated": true,
		"now":         h.now().UnixMilli(),
		"body":        body,
	})
}

type adminRequest struct {
	Tags []string `json:"tags" validate:"required,min=1,max=50,dive,required,tag"`
}

// Admin handles POST /api/v1/admin/revalidate for manual invalidation.
func (h *Handler) Admin(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)

	var req adminRequest
	if err := httpx.DecodeJSON(r.Body, &req); err != nil {
		log.Warn("revalidate admin: invalid json")
		transport.WriteError(w, http.StatusBadRequest, "invalid json", nil)
		return
	}
	for i := range req.Tags {
		req.Tags[i] = strings.TrimSpace(req.Tags[i])
	}
	if err := h.val.Struct(req); err != nil {
		log.Warn("revalidate admin: validation error")
		transport.WriteError(w, http.StatusBadRequest, "validation error", httpx.ValidationDetails(h.val.ValidationErrors(err)))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.inv.Invalidate(ctx, req.Tags...); err != nil {
		log.Error("revalidate admin: invalidate", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "cache error", nil)
		return
	}
	h.metrics.CacheInvalidated("admin", len(req.Tags))

	log.Info("revalidate admin: ok", slog.Any("tags", req.Tags))
	transport.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"revalidated": req.Tags,
		"now":         h.now().UnixMilli(),
	})
}

func errorMessage(err error) string {
	var syntaxErr *json.SyntaxError
	switch {
	case err == nil || err.Error() == "":
		return "Error"
	case errors.As(err, &syntaxErr):
		return fmt.Sprintf("invalid json at offset %d", syntaxErr.Offset)
	default:
		return err.Error()
	}
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
