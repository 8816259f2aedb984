package content

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"time"

	"pluscode-backend/internal/cache"
	"pluscode-backend/internal/catalog"
	"pluscode-backend/internal/locale"
	"pluscode-backend/internal/metrics"
)

const (
	DefaultFeaturedCaseStudies = 4
	DefaultRecentInsights      = 3
	DefaultRelated             = 3
)

type Options struct {
	ContentTTL      time.Duration
	AnnouncementTTL time.Duration
	Metrics         *metrics.Metrics
	Now             func() time.Time
}

// Service is the content query layer. None of its page-facing methods return
// errors: live failures are logged and answered from the fallback catalog.
type Service struct {
	source          Source
	fallback        fallbackSet
	cache           *cache.Tagged
	contentTTL      time.Duration
	announcementTTL time.Duration
	metrics         *metrics.Metrics
	log             *slog.Logger
	now             func() time.Time
}

func NewService(source Source, cat *catalog.Catalog, tagged *cache.Tagged, log *slog.Logger, opts Options) *Service {
	if cat == nil {
		cat = catalog.Default()
	}
	if tagged == nil {
		tagged = cache.NewTagged(cache.NewNoop(), "content:")
	}
	if log == nil {
		log = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		source:          source,
		fallback:        fallbackSet{cat: cat},
		cache:           tagged,
		contentTTL:      opts.ContentTTL,
		announcementTTL: opts.AnnouncementTTL,
		metrics:         opts.Metrics,
		log:             log,
		now:             now,
	}
}

// Invalidate marks tags stale so the next read goes to the live source.
func (s *Service) Invalidate(ctx context.Context, tags ...string) error {
	return s.cache.Invalidate(ctx, tags...)
}

type query[T any] struct {
	op          string
	contentType string
	key         string
	tags        []string
	ttl         time.Duration
	live        func(context.Context) (T, error)
	isEmpty     func(T) bool
	fallback    func() (T, bool)
	attrs       []any
}

func run[T any](ctx context.Context, s *Service, q query[T]) T {
	res := WithFallback(ctx, func(ctx context.Context) (T, error) {
		return cachedLive(ctx, s, q)
	}, q.isEmpty, q.fallback)

	log := s.log.With(q.attrs...)
	switch {
	case res.Origin == OriginFallback && res.Err != nil:
		log.Warn(q.op+": fallback", slog.String("reason", "error"), slog.String("error", res.Err.Error()))
		s.metrics.ContentFallback(q.contentType, "error")
	case res.Origin == OriginFallback:
		log.Info(q.op+": fallback", slog.String("reason", "empty"))
		s.metrics.ContentFallback(q.contentType, "empty")
	case res.Err != nil:
		log.Warn(q.op+": source error", slog.String("error", res.Err.Error()))
	}
	return res.Value
}

// cachedLive reads through the tag cache. Only non-empty live answers are stored, so
// fallback content never outlives the outage that produced it.
func cachedLive[T any](ctx context.Context, s *Service, q query[T]) (T, error) {
	slot, err := s.cache.Slot(ctx, q.key, q.tags...)
	if err != nil {
		s.log.Warn(q.op+": cache unavailable", slog.String("error", err.Error()))
		return q.live(ctx)
	}

	if raw, ok, err := slot.Get(ctx); err != nil {
		s.log.Warn(q.op+": cache read failed", slog.String("error", err.Error()))
	} else if ok {
		var cached T
		if err := json.Unmarshal(raw, &cached); err == nil {
			return cached, nil
		}
	}

	value, err := q.live(ctx)
	if err != nil || q.isEmpty(value) || q.ttl <= 0 {
		return value, err
	}
	if raw, err := json.Marshal(value); err == nil {
		if err := slot.Set(ctx, raw, q.ttl); err != nil {
			s.log.Warn(q.op+": cache write failed", slog.String("error", err.Error()))
		}
	}
	return value, nil
}

// cacheTTL disables caching for locales without bundled translations. The locale
// comes from a cookie, so caching every value would let clients grow the store.
func (s *Service) cacheTTL(loc string, ttl time.Duration) time.Duration {
	if !locale.IsSupported(loc) {
		return 0
	}
	return ttl
}

func positive(limit, def int) int {
	if limit <= 0 {
		return def
	}
	return limit
}

func (s *Service) CaseStudies(ctx context.Context, locale string) []CaseStudyCard {
	return run(ctx, s, query[[]CaseStudyCard]{
		op:          "case studies list",
		contentType: TypeCaseStudy,
		key:         "caseStudies:" + locale,
		tags:        []string{TypeCaseStudy},
		ttl:         s.cacheTTL(locale, s.contentTTL),
		live: func(ctx context.Context) ([]CaseStudyCard, error) {
			return s.source.CaseStudies(ctx, locale)
		},
		isEmpty:  emptySlice[CaseStudyCard],
		fallback: func() ([]CaseStudyCard, bool) { return s.fallback.caseStudies(locale) },
		attrs:    []any{slog.String("locale", locale)},
	})
}

func (s *Service) FeaturedCaseStudies(ctx context.Context, locale string, limit int) []CaseStudyCard {
	limit = positive(limit, DefaultFeaturedCaseStudies)
	return run(ctx, s, query[[]CaseStudyCard]{
		op:          "case studies featured",
		contentType: TypeCaseStudy,
		key:         "caseStudies:featured:" + strconv.Itoa(limit) + ":" + locale,
		tags:        []string{TypeCaseStudy},
		ttl:         s.cacheTTL(locale, s.contentTTL),
		live: func(ctx context.Context) ([]CaseStudyCard, error) {
			return s.source.FeaturedCaseStudies(ctx, locale, limit)
		},
		isEmpty:  emptySlice[CaseStudyCard],
		fallback: func() ([]CaseStudyCard, bool) { return s.fallback.featuredCaseStudies(locale, limit) },
		attrs:    []any{slog.String("locale", locale)},
	})
}

// CaseStudy returns nil when neither the live source nor the catalog knows slug.
func (s *Service) CaseStudy(ctx context.Context, slug, locale string) *CaseStudy {
	return run(ctx, s, query[*CaseStudy]{
		op:          "case studies get",
		contentType: TypeCaseStudy,
		key:         "caseStudy:" + slug + ":" + locale,
		tags:        []string{TypeCaseStudy, Tag(TypeCaseStudy, slug)},
		ttl:         s.cacheTTL(locale, s.contentTTL),
		live: func(ctx context.Context) (*CaseStudy, error) {
			return s.source.CaseStudy(ctx, slug, locale)
		},
		isEmpty:  nilPtr[CaseStudy],
		fallback: func() (*CaseStudy, bool) { return s.fallback.caseStudy(slug, locale) },
		attrs:    []any{slog.String("slug", slug), slog.String("locale", locale)},
	})
}

func (s *Service) RelatedCaseStudies(ctx context.Context, slug, category, locale string, limit int) []CaseStudyCard {
	limit = positive(limit, DefaultRelated)
	return run(ctx, s, query[[]CaseStudyCard]{
		op:          "case studies related",
		contentType: TypeCaseStudy,
		key:         "caseStudies:related:" + slug + ":" + category + ":" + strconv.Itoa(limit) + ":" + locale,
		tags:        []string{TypeCaseStudy},
		ttl:         s.cacheTTL(locale, s.contentTTL),
		live: func(ctx context.Context) ([]CaseStudyCard, error) {
			return s.source.RelatedCaseStudies(ctx, slug, category, locale, limit)
		},
		isEmpty: emptySlice[CaseStudyCard],
		fallback: func() ([]CaseStudyCard, bool) {
			return s.fallback.relatedCaseStudies(slug, category, locale, limit)
		},
		attrs: []any{slog.String("slug", slug), slog.String("locale", locale)},
	})
}

// CaseStudySlugs reports live failures to the caller; the sitemap depends on that.
func (s *Service) CaseStudySlugs(ctx context.Context) ([]string, error) {
	return cachedLive(ctx, s, query[[]string]{
		op:      "case studies slugs",
		key:     "caseStudies:slugs",
		tags:    []string{TypeCaseStudy},
		ttl:     s.contentTTL,
		live:    s.source.CaseStudySlugs,
		isEmpty: emptySlice[string],
	})
}

// CaseStudyPaths lists slugs for static path generation, substituting the catalog
// slugs when the live source fails.
func (s *Service) CaseStudyPaths(ctx context.Context) []string {
	slugs, err := s.CaseStudySlugs(ctx)
	if err != nil {
		s.log.Warn("case studies paths: fallback", slog.String("error", err.Error()))
		s.metrics.ContentFallback(TypeCaseStudy, "error")
		return s.fallback.cat.CaseStudySlugs()
	}
	return slugs
}

func (s *Service) Insights(ctx context.Context, locale string) []InsightCard {
	return run(ctx, s, query[[]InsightCard]{
		op:          "insights list",
		contentType: TypeInsight,
		key:         "insights:" + locale,
		tags:        []string{TypeInsight},
		ttl:         s.cacheTTL(locale, s.contentTTL),
		live: func(ctx context.Context) ([]InsightCard, error) {
			return s.source.Insights(ctx, locale)
		},
		isEmpty:  emptySlice[InsightCard],
		fallback: func() ([]InsightCard, bool) { return s.fallback.insights(locale) },
		attrs:    []any{slog.String("locale", locale)},
	})
}

func (s *Service) FeaturedInsight(ctx context.Context, locale string) *InsightCard {
	return run(ctx, s, query[*InsightCard]{
		op:          "insights featured",
		contentType: TypeInsight,
		key:         "insights:featured:" + locale,
		tags:        []string{TypeInsight},
		ttl:         s.cacheTTL(locale, s.contentTTL),
		live: func(ctx context.Context) (*InsightCard, error) {
			return s.source.FeaturedInsight(ctx, locale)
		},
		isEmpty:  nilPtr[InsightCard],
		fallback: func() (*InsightCard, bool) { return s.fallback.featuredInsight(locale) },
		attrs:    []any{slog.String("locale", locale)},
	})
}

func (s *Service) RecentInsights(ctx context.Context, locale string, limit int) []InsightCard {
	limit = positive(limit, DefaultRecentInsights)
	return run(ctx, s, query[[]InsightCard]{
		op:          "insights recent",
		contentType: TypeInsight,
		key:         "insights:recent:" + strconv.Itoa(limit) + ":" + locale,
		tags:        []string{TypeInsight},
		ttl:         s.cacheTTL(locale, s.contentTTL),
		live: func(ctx context.Context) ([]InsightCard, error) {
			return s.source.RecentInsights(ctx, locale, limit)
		},
		isEmpty:  emptySlice[InsightCard],
		fallback: func() ([]InsightCard, bool) { return s.fallback.recentInsights(locale, limit) },
		attrs:    []any{slog.String("locale", locale)},
	})
}

func (s *Service) Insight(ctx context.Context, slug, locale string) *Insight {
	return run(ctx, s, query[*Insight]{
		op:          "insights get",
		contentType: TypeInsight,
		key:         "insight:" + slug + ":" + locale,
		tags:        []string{TypeInsight, Tag(TypeInsight, slug)},
		ttl:         s.cacheTTL(locale, s.contentTTL),
		live: func(ctx context.Context) (*Insight, error) {
			return s.source.Insight(ctx, slug, locale)
		},
		isEmpty:  nilPtr[Insight],
		fallback: func() (*Insight, bool) { return s.fallback.insight(slug, locale) },
		attrs:    []any{slog.String("slug", slug), slog.String("locale", locale)},
	})
}

func (s *Service) RelatedInsights(ctx context.Context, slug, category, locale string, limit int) []InsightCard {
	limit = positive(limit, DefaultRelated)
	return run(ctx, s, query[[]InsightCard]{
		op:          "insights related",
		contentType: TypeInsight,
		key:         "insights:related:" + slug + ":" + category + ":" + strconv.Itoa(limit) + ":" + locale,
		tags:        []string{TypeInsight},
		ttl:         s.cacheTTL(locale, s.contentTTL),
		live: func(ctx context.Context) ([]InsightCard, error) {
			return s.source.RelatedInsights(ctx, slug, category, locale, limit)
		},
		isEmpty: emptySlice[InsightCard],
		fallback: func() ([]InsightCard, bool) {
			return s.fallback.relatedInsights(slug, category, locale, limit)
		},
		attrs: []any{slog.String("slug", slug), slog.String("locale", locale)},
	})
}

func (s *Service) InsightSlugs(ctx context.Context) ([]string, error) {
	return cachedLive(ctx, s, query[[]string]{
		op:      "insights slugs",
		key:     "insights:slugs",
		tags:    []string{TypeInsight},
		ttl:     s.contentTTL,
		live:    s.source.InsightSlugs,
		isEmpty: emptySlice[string],
	})
}

func (s *Service) InsightPaths(ctx context.Context) []string {
	slugs, err := s.InsightSlugs(ctx)
	if err != nil {
		s.log.Warn("insights paths: fallback", slog.String("error", err.Error()))
		s.metrics.ContentFallback(TypeInsight, "error")
		return s.fallback.cat.InsightSlugs()
	}
	return slugs
}

// ActiveAnnouncement has no fallback: without a live record the banner stays hidden.
// Cached announcements are re-checked against the clock so an expiry inside the
// cache window still hides the banner.
func (s *Service) ActiveAnnouncement(ctx context.Context, locale string) *Announcement {
	now := s.now()
	a := run(ctx, s, query[*Announcement]{
		op:          "announcement get",
		contentType: TypeAnnouncement,
		key:         "announcement:" + locale,
		tags:        []string{TypeAnnouncement},
		ttl:         s.cacheTTL(locale, s.announcementTTL),
		live: func(ctx context.Context) (*Announcement, error) {
			return s.source.ActiveAnnouncement(ctx, locale, now)
		},
		isEmpty:  nilPtr[Announcement],
		fallback: none[*Announcement],
		attrs:    []any{slog.String("locale", locale)},
	})
	if a == nil || !a.ActiveAt(now) {
		return nil
	}
	return a
}
