package contact

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"pluscode-backend/internal/httpx"
	"pluscode-backend/internal/metrics"
	"pluscode-backend/internal/middleware"
	"pluscode-backend/internal/transport"
)

const maxBodyBytes = 64 << 10

type Handler struct {
	service *Service
	metrics *metrics.Metrics
	log     *slog.Logger
}

func NewHandler(service *Service, m *metrics.Metrics, log *slog.Logger) *Handler {
	return &Handler{
		service: service,
		metrics: m,
		log:     log,
	}
}

type submitResponse struct {
	Success   bool   `json:"success"`
	MessageID string `json:"messageId"`
}

// Submit handles POST /api/contact.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)

	var sub Submission
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&sub); err != nil {
		log.Error("contact submit: decode body", slog.String("error", err.Error()))
		h.metrics.ContactSubmission("error")
		transport.WriteError(w, http.StatusInternalServerError, MsgUnexpected, nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	id, err := h.service.Submit(ctx, sub, httpx.ClientIP(r))
	switch {
	case err == nil:
	case errors.Is(err, ErrMissingFields):
		log.Warn("contact submit: missing fields")
		h.metrics.ContactSubmission("invalid")
		transport.WriteError(w, http.StatusBadRequest, MsgMissingFields, nil)
		return
	case errors.Is(err, ErrVerificationFailed):
		log.Warn("contact submit: verification failed", slog.String("error", err.Error()))
		h.metrics.ContactSubmission("rejected")
		transport.WriteError(w, http.StatusBadRequest, MsgVerificationFailed, nil)
		return
	case errors.Is(err, ErrSendFailed):
		log.Error("contact submit: send failed", slog.String("error", err.Error()))
		h.metrics.ContactSubmission("failed")
		transport.WriteError(w, http.StatusInternalServerError, MsgSendFailed, nil)
		return
	default:
		log.Error("contact submit: unexpected error", slog.String("error", err.Error()))
		h.metrics.ContactSubmission("error")
		transport.WriteError(w, http.StatusInternalServerError, MsgUnexpected, nil)
		return
	}

	log.Info("contact submit: ok", slog.String("message_id", id))
	h.metrics.ContactSubmission("sent")
	transport.WriteJSON(w, http.StatusOK, submitResponse{Success: true, MessageID: id})
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
