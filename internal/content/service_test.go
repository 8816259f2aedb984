package content

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"pluscode-backend/internal/cache"
	"pluscode-backend/internal/catalog"
)

type fakeSource struct {
	calls atomic.Int32

	caseStudies  func() ([]CaseStudyCard, error)
	caseStudy    func(slug string) (*CaseStudy, error)
	slugs        func() ([]string, error)
	related      func(slug, category string) ([]CaseStudyCard, error)
	insights     func() ([]InsightCard, error)
	insight      func(slug string) (*Insight, error)
	announcement func(now time.Time) (*Announcement, error)
}

func (f *fakeSource) CaseStudies(ctx context.Context, locale string) ([]CaseStudyCard, error) {
	f.calls.Add(1)
	if f.caseStudies == nil {
		return nil, errors.New("offline")
	}
	return f.caseStudies()
}

func (f *fakeSource) FeaturedCaseStudies(ctx context.Context, locale string, limit int) ([]CaseStudyCard, error) {
	f.calls.Add(1)
	return nil, errors.New("offline")
}

func (f *fakeSource) CaseStudy(ctx context.Context, slug, locale string) (*CaseStudy, error) {
	f.calls.Add(1)
	if f.caseStudy == nil {
		return nil, errors.New("offline")
	}
	return f.caseStudy(slug)
}

func (f *fakeSource) CaseStudySlugs(ctx context.Context) ([]string, error) {
	f.calls.Add(1)
	if f.slugs == nil {
		return nil, errors.New("offline")
	}
	return f.slugs()
}

func (f *fakeSource) RelatedCaseStudies(ctx context.Context, slug, category, locale string, limit int) ([]CaseStudyCard, error) {
	f.calls.Add(1)
	if f.related == nil {
		return nil, errors.New("offline")
	}
	return f.related(slug, category)
}

func (f *fakeSource) Insights(ctx context.Context, locale string) ([]InsightCard, error) {
	f.calls.Add(1)
	if f.insights == nil {
		return nil, errors.New("offline")
	}
	return f.insights()
}

func (f *fakeSource) FeaturedInsight(ctx context.Context, locale string) (*InsightCard, error) {
	f.calls.Add(1)
	return nil, errors.New("offline")
}

func (f *fakeSource) RecentInsights(ctx context.Context, locale string, limit int) ([]InsightCard, error) {
	f.calls.Add(1)
	return nil, errors.New("offline")
}

func (f *fakeSource) Insight(ctx context.Context, slug, locale string) (*Insight, error) {
	f.calls.Add(1)
	if f.insight == nil {
		return nil, errors.New("offline")
	}
	return f.insight(slug)
}

func (f *fakeSource) InsightSlugs(ctx context.Context) ([]string, error) {
	f.calls.Add(1)
	return nil, errors.New("offline")
}

func (f *fakeSource) RelatedInsights(ctx context.Context, slug, category, locale string, limit int) ([]InsightCard, error) {
	f.calls.Add(1)
	return []InsightCard{}, nil
}

func (f *fakeSource) ActiveAnnouncement(ctx context.Context, locale string, now time.Time) (*Announcement, error) {
	f.calls.Add(1)
	if f.announcement == nil {
		return nil, errors.New("offline")
	}
	return f.announcement(now)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestService(src Source, store cache.Cache, opts Options) *Service {
	return NewService(src, catalog.Default(), cache.NewTagged(store, "content:"), discardLogger(), opts)
}

func TestCaseStudiesFallsBackOnError(t *testing.T) {
	svc := newTestService(&fakeSource{}, nil, Options{})

	items := svc.CaseStudies(context.Background(), "en")
	if len(items) != 2 {
		t.Fatalf("expected 2 fallback case studies, got %d", len(items))
	}
	if items[0].Slug != "zabka" || items[1].Slug != "ubs" {
		t.Fatalf("expected newest first, got %s, %s", items[0].Slug, items[1].Slug)
	}
	if items[0].ID != "fallback-zabka" {
		t.Fatalf("unexpected fallback id %q", items[0].ID)
	}
}

func TestCaseStudiesFallsBackOnEmpty(t *testing.T) {
	src := &fakeSource{caseStudies: func() ([]CaseStudyCard, error) { return []CaseStudyCard{}, nil }}
	svc := newTestService(src, nil, Options{})

	items := svc.CaseStudies(context.Background(), "pl")
	if len(items) != 2 {
		t.Fatalf("expected fallback on empty result, got %d", len(items))
	}
	if items[0].Category != "Handel detaliczny" {
		t.Fatalf("expected polish fallback text, got %q", items[0].Category)
	}
}

func TestCaseStudiesFallsBackOnPanic(t *testing.T) {
	src := &fakeSource{caseStudies: func() ([]CaseStudyCard, error) { panic("boom") }}
	svc := newTestService(src, nil, Options{})

	if items := svc.CaseStudies(context.Background(), "en"); len(items) != 2 {
		t.Fatalf("expected fallback after panic, got %d", len(items))
	}
}

func TestCaseStudiesPrefersLive(t *testing.T) {
	live := []CaseStudyCard{{ID: "cs-1", Slug: "acme", Title: "Acme"}}
	src := &fakeSource{caseStudies: func() ([]CaseStudyCard, error) { return live, nil }}
	svc := newTestService(src, nil, Options{})

	items := svc.CaseStudies(context.Background(), "en")
	if len(items) != 1 || items[0].Slug != "acme" {
		t.Fatalf("expected live result, got %+v", items)
	}
}

func TestCaseStudyOnlyInCatalog(t *testing.T) {
	src := &fakeSource{caseStudy: func(string) (*CaseStudy, error) { return nil, nil }}
	svc := newTestService(src, nil, Options{})

	cs := svc.CaseStudy(context.Background(), "zabka", "en")
	if cs == nil {
		t.Fatalf("expected catalog case study")
	}
	if cs.HTML.Overview == "" || len(cs.Stats) == 0 {
		t.Fatalf("expected rendered body and stats, got %+v", cs)
	}

	if svc.CaseStudy(context.Background(), "missing", "en") != nil {
		t.Fatalf("expected nil for unknown slug")
	}
}

func TestCaseStudyIsIdempotent(t *testing.T) {
	svc := newTestService(&fakeSource{}, nil, Options{})

	first := svc.CaseStudy(context.Background(), "ubs", "en")
	second := svc.CaseStudy(context.Background(), "ubs", "en")
	if first == nil || second == nil || first.Title != second.Title || first.HTML != second.HTML {
		t.Fatalf("expected identical results across calls")
	}
}

func TestLiveResultsAreCachedUntilInvalidated(t *testing.T) {
	src := &fakeSource{caseStudies: func() ([]CaseStudyCard, error) {
		return []CaseStudyCard{{ID: "cs-1", Slug: "acme"}}, nil
	}}
	svc := newTestService(src, cache.NewMemory(), Options{ContentTTL: time.Hour})
	ctx := context.Background()

	svc.CaseStudies(ctx, "en")
	svc.CaseStudies(ctx, "en")
	if got := src.calls.Load(); got != 1 {
		t.Fatalf("expected 1 source call, got %d", got)
	}

	if err := svc.Invalidate(ctx, TypeCaseStudy); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	svc.CaseStudies(ctx, "en")
	if got := src.calls.Load(); got != 2 {
		t.Fatalf("expected refetch after invalidation, got %d calls", got)
	}
}

func TestFallbackResultsAreNotCached(t *testing.T) {
	src := &fakeSource{}
	svc := newTestService(src, cache.NewMemory(), Options{ContentTTL: time.Hour})
	ctx := context.Background()

	svc.CaseStudies(ctx, "en")
	svc.CaseStudies(ctx, "en")
	if got := src.calls.Load(); got != 2 {
		t.Fatalf("expected every call to reach the source, got %d", got)
	}
}

func TestDocumentTagInvalidation(t *testing.T) {
	src := &fakeSource{caseStudy: func(slug string) (*CaseStudy, error) {
		return &CaseStudy{CaseStudyCard: CaseStudyCard{Slug: slug}}, nil
	}}
	svc := newTestService(src, cache.NewMemory(), Options{ContentTTL: time.Hour})
	ctx := context.Background()

	svc.CaseStudy(ctx, "acme", "en")
	svc.CaseStudy(ctx, "other", "en")
	if err := svc.Invalidate(ctx, Tag(TypeCaseStudy, "acme")); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	svc.CaseStudy(ctx, "acme", "en")
	svc.CaseStudy(ctx, "other", "en")
	if got := src.calls.Load(); got != 3 {
		t.Fatalf("expected only the invalidated document to refetch, got %d calls", got)
	}
}

func TestRelatedCaseStudiesFallback(t *testing.T) {
	src := &fakeSource{related: func(string, string) ([]CaseStudyCard, error) { return nil, nil }}
	svc := newTestService(src, nil, Options{})

	items := svc.RelatedCaseStudies(context.Background(), "zabka", "Financial Services", "en", 3)
	if len(items) != 1 || items[0].Slug != "ubs" {
		t.Fatalf("expected ubs from catalog, got %+v", items)
	}

	if items := svc.RelatedCaseStudies(context.Background(), "zabka", "Retail", "en", 3); len(items) != 0 {
		t.Fatalf("expected current slug excluded, got %+v", items)
	}
}

func TestRecentInsightsFallbackSkipsFeatured(t *testing.T) {
	svc := newTestService(&fakeSource{}, nil, Options{})

	items := svc.RecentInsights(context.Background(), "en", 3)
	if len(items) != 3 {
		t.Fatalf("expected 3 recent insights, got %d", len(items))
	}
	for _, item := range items {
		if item.Featured {
			t.Fatalf("featured insight %s listed as recent", item.Slug)
		}
	}

	featured := svc.FeaturedInsight(context.Background(), "en")
	if featured == nil || featured.Slug != "ai-transforming-business" {
		t.Fatalf("unexpected featured insight %+v", featured)
	}
}

func TestPathsFallBackToCatalog(t *testing.T) {
	svc := newTestService(&fakeSource{}, nil, Options{})
	ctx := context.Background()

	if _, err := svc.CaseStudySlugs(ctx); err == nil {
		t.Fatalf("expected slug error to surface")
	}
	paths := svc.CaseStudyPaths(ctx)
	if len(paths) != 2 || paths[0] != "zabka" {
		t.Fatalf("unexpected case study paths %v", paths)
	}
	if paths := svc.InsightPaths(ctx); len(paths) != 4 {
		t.Fatalf("expected 4 insight paths, got %v", paths)
	}
}

func TestAnnouncementHasNoFallback(t *testing.T) {
	svc := newTestService(&fakeSource{}, nil, Options{})
	if a := svc.ActiveAnnouncement(context.Background(), "en"); a != nil {
		t.Fatalf("expected no announcement, got %+v", a)
	}
}

func TestCachedAnnouncementExpires(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	expires := now.Add(time.Minute)
	src := &fakeSource{announcement: func(time.Time) (*Announcement, error) {
		return &Announcement{ID: "a1", Text: "Hello", IsActive: true, ExpiresAt: &expires}, nil
	}}
	svc := newTestService(src, cache.NewMemory(), Options{
		AnnouncementTTL: time.Hour,
		Now:             func() time.Time { return now },
	})
	ctx := context.Background()

	if a := svc.ActiveAnnouncement(ctx, "en"); a == nil || a.ID != "a1" {
		t.Fatalf("expected active announcement, got %+v", a)
	}

	now = now.Add(2 * time.Minute)
	if a := svc.ActiveAnnouncement(ctx, "en"); a != nil {
		t.Fatalf("expected expired announcement hidden, got %+v", a)
	}
	if got := src.calls.Load(); got != 1 {
		t.Fatalf("expected cached read, got %d calls", got)
	}
}

func TestWithFallbackOrigins(t *testing.T) {
	ctx := context.Background()
	empty := func(s string) bool { return s == "" }
	fb := func() (string, bool) { return "fallback", true }

	live := WithFallback(ctx, func(context.Context) (string, error) { return "live", nil }, empty, fb)
	if live.Origin != OriginLive || live.Value != "live" {
		t.Fatalf("unexpected live result %+v", live)
	}

	failed := WithFallback(ctx, func(context.Context) (string, error) { return "", errors.New("down") }, empty, fb)
	if failed.Origin != OriginFallback || failed.Value != "fallback" || failed.Err == nil {
		t.Fatalf("unexpected fallback result %+v", failed)
	}

	nothing := WithFallback(ctx, func(context.Context) (string, error) { return "", errors.New("down") }, empty, none[string])
	if nothing.Origin != OriginNone || nothing.Value != "" || nothing.Err == nil {
		t.Fatalf("unexpected none result %+v", nothing)
	}
}

func TestUnsupportedLocalesAreNotCached(t *testing.T) {
	src := &fakeSource{caseStudies: func() ([]CaseStudyCard, error) {
		return []CaseStudyCard{{ID: "cs-1", Slug: "acme"}}, nil
	}}
	store := cache.NewMemory()
	svc := newTestService(src, store, Options{ContentTTL: time.Hour})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		svc.CaseStudies(ctx, "xx")
	}
	if got := src.calls.Load(); got != 3 {
		t.Fatalf("expected every call to reach the source, got %d", got)
	}
	if got := store.Len(); got != 0 {
		t.Fatalf("expected nothing stored for unsupported locale, got %d entries", got)
	}

	svc.CaseStudies(ctx, "pl")
	if got := store.Len(); got != 1 {
		t.Fatalf("expected supported locale cached, got %d entries", got)
	}
}
