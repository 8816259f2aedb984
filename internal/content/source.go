package content

import (
	"context"
	"time"
)

// Source is a live content backend. Single-document lookups return (nil, nil) when
// the slug does not exist; an error always means the backend could not answer.
type Source interface {
	CaseStudies(ctx context.Context, locale string) ([]CaseStudyCard, error)
	FeaturedCaseStudies(ctx context.Context, locale string, limit int) ([]CaseStudyCard, error)
	CaseStudy(ctx context.Context, slug, locale string) (*CaseStudy, error)
	CaseStudySlugs(ctx context.Context) ([]string, error)
	RelatedCaseStudies(ctx context.Context, slug, category, locale string, limit int) ([]CaseStudyCard, error)

	Insights(ctx context.Context, locale string) ([]InsightCard, error)
	FeaturedInsight(ctx context.Context, locale string) (*InsightCard, error)
	RecentInsights(ctx context.Context, locale string, limit int) ([]InsightCard, error)
	Insight(ctx context.Context, slug, locale string) (*Insight, error)
	InsightSlugs(ctx context.Context) ([]string, error)
	RelatedInsights(ctx context.Context, slug, category, locale string, limit int) ([]InsightCard, error)

	ActiveAnnouncement(ctx context.Context, locale string, now time.Time) (*Announcement, error)
}
