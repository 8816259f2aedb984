package content

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"pluscode-backend/internal/catalog"
	"pluscode-backend/internal/httpx"
	"pluscode-backend/internal/locale"
	"pluscode-backend/internal/middleware"
	"pluscode-backend/internal/transport"
	"pluscode-backend/internal/utils"
)

const maxListLimit = 24

type Handler struct {
	service *Service
	cat     *catalog.Catalog
	log     *slog.Logger
}

func NewHandler(service *Service, cat *catalog.Catalog, log *slog.Logger) *Handler {
	if cat == nil {
		cat = catalog.Default()
	}
	return &Handler{
		service: service,
		cat:     cat,
		log:     log,
	}
}

func (h *Handler) ListCaseStudies(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	loc := locale.FromContext(r.Context())

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	items := h.service.CaseStudies(ctx, loc)
	log.Info("case studies list: ok", slog.Int("count", len(items)), slog.String("locale", loc))
	transport.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"items": items,
	})
}

func (h *Handler) FeaturedCaseStudies(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	loc := locale.FromContext(r.Context())

	limit, err := httpx.ParseLimit(r.URL.Query(), DefaultFeaturedCaseStudies, maxListLimit)
	if err != nil {
		log.Warn("case studies featured: invalid limit")
		transport.WriteError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	items := h.service.FeaturedCaseStudies(ctx, loc, limit)
	log.Info("case studies featured: ok", slog.Int("count", len(items)))
	transport.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"items": items,
	})
}

func (h *Handler) CaseStudyPaths(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	slugs := h.service.CaseStudyPaths(ctx)
	h.logWithRequest(r).Info("case studies paths: ok", slog.Int("count", len(slugs)))
	transport.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"slugs": slugs,
	})
}

func (h *Handler) GetCaseStudy(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	loc := locale.FromContext(r.Context())
	slug, ok := h.slugParam(w, r, log, "case studies get")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	item := h.service.CaseStudy(ctx, slug, loc)
	if item == nil {
		log.Warn("case studies get: not found", slog.String("slug", slug))
		transport.WriteNotFound(w, h.cat.String(loc, "caseStudies.notFound"), "/case-studies")
		return
	}

	log.Info("case studies get: ok", slog.String("slug", slug))
	transport.WriteJSON(w, http.StatusOK, item)
}

// RelatedCaseStudies uses ?category= when given, otherwise the category of the
// case study itself.
func (h *Handler) RelatedCaseStudies(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	loc := locale.FromContext(r.Context())
	slug, ok := h.slugParam(w, r, log, "case studies related")
	if !ok {
		return
	}
	limit, err := httpx.ParseLimit(r.URL.Query(), DefaultRelated, maxListLimit)
	if err != nil {
		log.Warn("case studies related: invalid limit")
		transport.WriteError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	category := strings.TrimSpace(r.URL.Query().Get("category"))
	if category == "" {
		current := h.service.CaseStudy(ctx, slug, loc)
		if current == nil {
			log.Warn("case studies related: not found", slog.String("slug", slug))
			transport.WriteNotFound(w, h.cat.String(loc, "caseStudies.notFound"), "/case-studies")
			return
		}
		category = current.Category
	}

	items := h.service.RelatedCaseStudies(ctx, slug, category, loc, limit)
	log.Info("case studies related: ok", slog.String("slug", slug), slog.Int("count", len(items)))
	transport.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"items": items,
	})
}

func (h *Handler) ListInsights(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	loc := locale.FromContext(r.Context())
	category := strings.TrimSpace(r.URL.Query().Get("category"))
	if category != "" && !IsInsightCategory(category) {
		log.Warn("insights list: invalid category", slog.String("category", category))
		transport.WriteError(w, http.StatusBadRequest, "invalid category", nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	items := h.service.Insights(ctx, loc)
	if category != "" {
		filtered := make([]InsightCard, 0, len(items))
		for _, item := range items {
			if item.Category == category {
				filtered = append(filtered, item)
			}
		}
		items = filtered
	}

	log.Info("insights list: ok", slog.Int("count", len(items)), slog.String("locale", loc))
	transport.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"items": items,
	})
}

func (h *Handler) FeaturedInsight(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	loc := locale.FromContext(r.Context())

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	item := h.service.FeaturedInsight(ctx, loc)
	if item == nil {
		log.Info("insights featured: none")
	} else {
		log.Info("insights featured: ok", slog.String("slug", item.Slug))
	}
	transport.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"item": item,
	})
}

func (h *Handler) RecentInsights(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	loc := locale.FromContext(r.Context())

	limit, err := httpx.ParseLimit(r.URL.Query(), DefaultRecentInsights, maxListLimit)
	if err != nil {
		log.Warn("insights recent: invalid limit")
		transport.WriteError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	items := h.service.RecentInsights(ctx, loc, limit)
	log.Info("insights recent: ok", slog.Int("count", len(items)))
	transport.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"items": items,
	})
}

func (h *Handler) InsightPaths(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	slugs := h.service.InsightPaths(ctx)
	h.logWithRequest(r).Info("insights paths: ok", slog.Int("count", len(slugs)))
	transport.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"slugs": slugs,
	})
}

func (h *Handler) GetInsight(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	loc := locale.FromContext(r.Context())
	slug, ok := h.slugParam(w, r, log, "insights get")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	item := h.service.Insight(ctx, slug, loc)
	if item == nil {
		log.Warn("insights get: not found", slog.String("slug", slug))
		transport.WriteNotFound(w, h.cat.String(loc, "insights.notFound"), "/insights")
		return
	}

	log.Info("insights get: ok", slog.String("slug", slug))
	transport.WriteJSON(w, http.StatusOK, item)
}

func (h *Handler) RelatedInsights(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	loc := locale.FromContext(r.Context())
	slug, ok := h.slugParam(w, r, log, "insights related")
	if !ok {
		return
	}
	limit, err := httpx.ParseLimit(r.URL.Query(), DefaultRelated, maxListLimit)
	if err != nil {
		log.Warn("insights related: invalid limit")
		transport.WriteError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	category := strings.TrimSpace(r.URL.Query().Get("category"))
	if category == "" {
		current := h.service.Insight(ctx, slug, loc)
		if current == nil {
			log.Warn("insights related: not found", slog.String("slug", slug))
			transport.WriteNotFound(w, h.cat.String(loc, "insights.notFound"), "/insights")
			return
		}
		category = current.Category
	}
	if !IsInsightCategory(category) {
		log.Warn("insights related: invalid category", slog.String("category", category))
		transport.WriteError(w, http.StatusBadRequest, "invalid category", nil)
		return
	}

	items := h.service.RelatedInsights(ctx, slug, category, loc, limit)
	log.Info("insights related: ok", slog.String("slug", slug), slog.Int("count", len(items)))
	transport.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"items": items,
	})
}

// Announcement answers {"item": null} when no banner should be shown.
func (h *Handler) Announcement(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	loc := locale.FromContext(r.Context())

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	item := h.service.ActiveAnnouncement(ctx, loc)
	if item != nil {
		log.Info("announcement get: ok", slog.String("id", item.ID))
	}
	transport.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"item": item,
	})
}

func (h *Handler) slugParam(w http.ResponseWriter, r *http.Request, log *slog.Logger, op string) (string, bool) {
	slug := strings.TrimSpace(chi.URLParam(r, "slug"))
	if slug == "" {
		log.Warn(op + ": missing slug")
		transport.WriteError(w, http.StatusBadRequest, "missing slug", nil)
		return "", false
	}
	if !utils.IsSlug(slug) {
		log.Warn(op+": invalid slug", slog.String("slug", slug))
		transport.WriteError(w, http.StatusBadRequest, "invalid slug", nil)
		return "", false
	}
	return slug, true
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
