package sitemap

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"pluscode-backend/internal/middleware"
	"pluscode-backend/internal/transport"
)

type Handler struct {
	builder *Builder
	log     *slog.Logger
}

func NewHandler(builder *Builder, log *slog.Logger) *Handler {
	return &Handler{builder: builder, log: log}
}

func (h *Handler) Sitemap(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	entries, err := h.builder.Entries(ctx)
	if err != nil {
		log.Warn("sitemap build: dynamic entries omitted", slog.String("error", err.Error()))
	}

	body, err := MarshalXML(entries)
	if err != nil {
		log.Error("sitemap build: marshal", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "sitemap error", nil)
		return
	}

	log.Info("sitemap build: ok", slog.Int("count", len(entries)))
	transport.WriteCached(w, http.StatusOK, "application/xml; charset=utf-8", body)
}

func (h *Handler) Robots(w http.ResponseWriter, r *http.Request) {
	transport.WriteCached(w, http.StatusOK, "text/plain; charset=utf-8", []byte(Robots(h.builder.BaseURL())))
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
