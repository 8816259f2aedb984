package content

import (
	"context"
	"fmt"

	"pluscode-backend/internal/catalog"
	"pluscode-backend/internal/richtext"
)

type Origin string

const (
	OriginLive     Origin = "live"
	OriginFallback Origin = "fallback"
	// OriginNone means the live source answered with nothing and no fallback exists.
	OriginNone Origin = "none"
)

type Result[T any] struct {
	Value  T
	Origin Origin
	// Err is the live failure that caused a fallback, if any.
	Err error
}

// WithFallback runs query and substitutes fallback when the query fails, panics or
// comes back empty. fallback reports false when it has nothing to offer; then an
// empty live answer is returned as is and a failed one becomes the zero value.
func WithFallback[T any](ctx context.Context, query func(context.Context) (T, error), isEmpty func(T) bool, fallback func() (T, bool)) Result[T] {
	value, err := safeQuery(ctx, query)
	if err == nil && !isEmpty(value) {
		return Result[T]{Value: value, Origin: OriginLive}
	}

	if fb, ok := fallback(); ok {
		return Result[T]{Value: fb, Origin: OriginFallback, Err: err}
	}
	if err != nil {
		var zero T
		return Result[T]{Value: zero, Origin: OriginNone, Err: err}
	}
	return Result[T]{Value: value, Origin: OriginNone}
}

func safeQuery[T any](ctx context.Context, query func(context.Context) (T, error)) (value T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("content query panicked: %v", r)
		}
	}()
	return query(ctx)
}

func emptySlice[T any](items []T) bool { return len(items) == 0 }

func nilPtr[T any](item *T) bool { return item == nil }

func none[T any]() (T, bool) {
	var zero T
	return zero, false
}

// Catalog conversions. Fallback records have no CMS id, so they get a stable synthetic one.

func fallbackID(slug string) string {
	return "fallback-" + slug
}

func caseStudyCardFromCatalog(cs catalog.CaseStudy, locale string) CaseStudyCard {
	text := cs.Text(locale)
	return CaseStudyCard{
		ID:        fallbackID(cs.Slug),
		Slug:      cs.Slug,
		Title:     text.Title,
		Category:  text.Category,
		Excerpt:   text.Excerpt,
		Logo:      &Image{URL: cs.Logo, Alt: cs.LogoAlt},
		HeroImage: &Image{URL: cs.Image, Alt: cs.LogoAlt},
		Gradient:  cs.Gradient,
		Featured:  cs.Featured,
	}
}

func caseStudyFromCatalog(cs catalog.CaseStudy, locale string) *CaseStudy {
	text := cs.Text(locale)
	stats := make([]Stat, 0, len(text.Stats))
	for _, s := range text.Stats {
		stats = append(stats, Stat{Value: s.Value, Label: s.Label})
	}
	publishedAt := cs.PublishedAt
	out := &CaseStudy{
		CaseStudyCard:  caseStudyCardFromCatalog(cs, locale),
		HeroGradient:   cs.HeroGradient,
		Overview:       richtext.Paragraphs(text.Overview...),
		Challenge:      richtext.Paragraphs(text.Challenge...),
		Solution:       richtext.Paragraphs(text.Solution...),
		Results:        richtext.Paragraphs(text.Results...),
		Stats:          stats,
		SEOTitle:       text.SEOTitle,
		SEODescription: text.SEODescription,
		PublishedAt:    &publishedAt,
	}
	out.renderHTML()
	return out
}

func insightCardFromCatalog(in catalog.Insight, locale string) InsightCard {
	text := in.Text(locale)
	publishedAt := in.PublishedAt
	return InsightCard{
		ID:          fallbackID(in.Slug),
		Slug:        in.Slug,
		Title:       text.Title,
		Category:    in.Category,
		Excerpt:     text.Excerpt,
		Gradient:    in.Gradient,
		Author:      in.Author,
		ReadTime:    in.ReadTime,
		PublishedAt: &publishedAt,
		Featured:    in.Featured,
	}
}

func insightFromCatalog(in catalog.Insight, locale string) *Insight {
	text := in.Text(locale)
	content := richtext.Paragraphs(text.Content...)
	return &Insight{
		InsightCard:    insightCardFromCatalog(in, locale),
		Content:        content,
		HTML:           richtext.RenderHTML(content),
		SEOTitle:       text.SEOTitle,
		SEODescription: text.SEODescription,
	}
}

// fallbackSet adapts a catalog to the shapes the service substitutes.
type fallbackSet struct {
	cat *catalog.Catalog
}

func (f fallbackSet) caseStudies(locale string) ([]CaseStudyCard, bool) {
	items := f.cat.CaseStudies()
	out := make([]CaseStudyCard, 0, len(items))
	for _, cs := range items {
		out = append(out, caseStudyCardFromCatalog(cs, locale))
	}
	return out, len(out) > 0
}

func (f fallbackSet) featuredCaseStudies(locale string, limit int) ([]CaseStudyCard, bool) {
	out := make([]CaseStudyCard, 0, limit)
	for _, cs := range f.cat.CaseStudies() {
		if !cs.Featured {
			continue
		}
		if len(out) == limit {
			break
		}
		out = append(out, caseStudyCardFromCatalog(cs, locale))
	}
	return out, len(out) > 0
}

func (f fallbackSet) caseStudy(slug, locale string) (*CaseStudy, bool) {
	cs, ok := f.cat.CaseStudy(slug)
	if !ok {
		return nil, false
	}
	return caseStudyFromCatalog(cs, locale), true
}

func (f fallbackSet) relatedCaseStudies(slug, category, locale string, limit int) ([]CaseStudyCard, bool) {
	out := make([]CaseStudyCard, 0, limit)
	for _, cs := range f.cat.CaseStudies() {
		if len(out) == limit {
			break
		}
		if cs.Slug == slug || cs.Text(locale).Category != category {
			continue
		}
		out = append(out, caseStudyCardFromCatalog(cs, locale))
	}
	return out, len(out) > 0
}

func (f fallbackSet) insights(locale string) ([]InsightCard, bool) {
	items := f.cat.Insights()
	out := make([]InsightCard, 0, len(items))
	for _, in := range items {
		out = append(out, insightCardFromCatalog(in, locale))
	}
	return out, len(out) > 0
}

func (f fallbackSet) featuredInsight(locale string) (*InsightCard, bool) {
	for _, in := range f.cat.Insights() {
		if in.Featured {
			card := insightCardFromCatalog(in, locale)
			return &card, true
		}
	}
	return nil, false
}

func (f fallbackSet) recentInsights(locale string, limit int) ([]InsightCard, bool) {
	out := make([]InsightCard, 0, limit)
	for _, in := range f.cat.Insights() {
		if in.Featured {
			continue
		}
		if len(out) == limit {
			break
		}
		out = append(out, insightCardFromCatalog(in, locale))
	}
	return out, len(out) > 0
}

func (f fallbackSet) insight(slug, locale string) (*Insight, bool) {
	in, ok := f.cat.Insight(slug)
	if !ok {
		return nil, false
	}
	return insightFromCatalog(in, locale), true
}

func (f fallbackSet) relatedInsights(slug, category, locale string, limit int) ([]InsightCard, bool) {
	out := make([]InsightCard, 0, limit)
	for _, in := range f.cat.Insights() {
		if len(out) == limit {
			break
		}
		if in.Slug == slug || in.Category != category {
			continue
		}
		out = append(out, insightCardFromCatalog(in, locale))
	}
	return out, len(out) > 0
}
