package content

import (
	"context"
	"errors"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"pluscode-backend/internal/db"
)

// Locales become part of field paths ("category.pl"), so only plain language codes
// are used in filters.
var mongoLocaleRegex = regexp.MustCompile(`^[a-z]{2}$`)

// MongoSource serves content from MongoDB collections seeded by cmd/seed or an
// editorial tool.
type MongoSource struct {
	caseStudies   *mongo.Collection
	insights      *mongo.Collection
	announcements *mongo.Collection
}

func NewMongoSource(cols *db.Collections) *MongoSource {
	return &MongoSource{
		caseStudies:   cols.CaseStudies,
		insights:      cols.Insights,
		announcements: cols.Announcements,
	}
}

var byPublishedDesc = bson.D{{Key: "published_at", Value: -1}}

func findAll[T any](ctx context.Context, col *mongo.Collection, filter bson.M, opts *options.FindOptions) ([]T, error) {
	cursor, err := col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	items := make([]T, 0)
	for cursor.Next(ctx) {
		var item T
		if err := cursor.Decode(&item); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func findOne[T any](ctx context.Context, col *mongo.Collection, filter bson.M, opts ...*options.FindOneOptions) (*T, error) {
	var item T
	if err := col.FindOne(ctx, filter, opts...).Decode(&item); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

func slugsOf(ctx context.Context, col *mongo.Collection) ([]string, error) {
	opts := options.Find().SetProjection(bson.M{"slug": 1}).SetSort(byPublishedDesc)
	docs, err := findAll[struct {
		Slug string `bson:"slug"`
	}](ctx, col, bson.M{"slug": bson.M{"$ne": ""}}, opts)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.Slug)
	}
	return out, nil
}

func (s *MongoSource) caseStudyCards(ctx context.Context, locale string, filter bson.M, limit int) ([]CaseStudyCard, error) {
	opts := options.Find().SetSort(byPublishedDesc)
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	docs, err := findAll[CaseStudyDocument](ctx, s.caseStudies, filter, opts)
	if err != nil {
		return nil, err
	}
	out := make([]CaseStudyCard, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.card(locale))
	}
	return out, nil
}

func (s *MongoSource) CaseStudies(ctx context.Context, locale string) ([]CaseStudyCard, error) {
	return s.caseStudyCards(ctx, locale, bson.M{}, 0)
}

func (s *MongoSource) FeaturedCaseStudies(ctx context.Context, locale string, limit int) ([]CaseStudyCard, error) {
	return s.caseStudyCards(ctx, locale, bson.M{"featured": true}, limit)
}

func (s *MongoSource) RelatedCaseStudies(ctx context.Context, slug, category, locale string, limit int) ([]CaseStudyCard, error) {
	filter, ok := relatedCaseStudyFilter(slug, category, locale)
	if !ok {
		return []CaseStudyCard{}, nil
	}
	return s.caseStudyCards(ctx, locale, filter, limit)
}

// relatedCaseStudyFilter matches other case studies sharing the localized
// category. ok is false when locale cannot be used in a field path.
func relatedCaseStudyFilter(slug, category, locale string) (bson.M, bool) {
	if !mongoLocaleRegex.MatchString(locale) {
		return nil, false
	}
	return bson.M{
		"slug":               bson.M{"$ne": slug},
		"category." + locale: category,
	}, true
}

func (s *MongoSource) CaseStudy(ctx context.Context, slug, locale string) (*CaseStudy, error) {
	doc, err := findOne[CaseStudyDocument](ctx, s.caseStudies, bson.M{"slug": slug})
	if err != nil || doc == nil {
		return nil, err
	}
	return doc.full(locale), nil
}

func (s *MongoSource) CaseStudySlugs(ctx context.Context) ([]string, error) {
	return slugsOf(ctx, s.caseStudies)
}

func (s *MongoSource) insightCards(ctx context.Context, locale string, filter bson.M, limit int) ([]InsightCard, error) {
	opts := options.Find().SetSort(byPublishedDesc)
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	docs, err := findAll[InsightDocument](ctx, s.insights, filter, opts)
	if err != nil {
		return nil, err
	}
	out := make([]InsightCard, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.card(locale))
	}
	return out, nil
}

func (s *MongoSource) Insights(ctx context.Context, locale string) ([]InsightCard, error) {
	return s.insightCards(ctx, locale, bson.M{}, 0)
}

func (s *MongoSource) FeaturedInsight(ctx context.Context, locale string) (*InsightCard, error) {
	opts := options.FindOne().SetSort(byPublishedDesc)
	doc, err := findOne[InsightDocument](ctx, s.insights, bson.M{"featured": true}, opts)
	if err != nil || doc == nil {
		return nil, err
	}
	card := doc.card(locale)
	return &card, nil
}

func (s *MongoSource) RecentInsights(ctx context.Context, locale string, limit int) ([]InsightCard, error) {
	return s.insightCards(ctx, locale, bson.M{"featured": bson.M{"$ne": true}}, limit)
}

func (s *MongoSource) RelatedInsights(ctx context.Context, slug, category, locale string, limit int) ([]InsightCard, error) {
	return s.insightCards(ctx, locale, relatedInsightFilter(slug, category), limit)
}

func relatedInsightFilter(slug, category string) bson.M {
	return bson.M{
		"slug":     bson.M{"$ne": slug},
		"category": category,
	}
}

func (s *MongoSource) Insight(ctx context.Context, slug, locale string) (*Insight, error) {
	doc, err := findOne[InsightDocument](ctx, s.insights, bson.M{"slug": slug})
	if err != nil || doc == nil {
		return nil, err
	}
	return doc.full(locale), nil
}

func (s *MongoSource) InsightSlugs(ctx context.Context) ([]string, error) {
	return slugsOf(ctx, s.insights)
}

func (s *MongoSource) ActiveAnnouncement(ctx context.Context, locale string, now time.Time) (*Announcement, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "created_at", Value: -1}})
	doc, err := findOne[AnnouncementDocument](ctx, s.announcements, activeAnnouncementFilter(now), opts)
	if err != nil || doc == nil {
		return nil, err
	}
	return doc.project(locale), nil
}

// activeAnnouncementFilter matches active announcements with no expiry or one
// still in the future.
func activeAnnouncementFilter(now time.Time) bson.M {
	return bson.M{
		"is_active": true,
		"$or": bson.A{
			bson.M{"expires_at": nil},
			bson.M{"expires_at": bson.M{"$gt": now}},
		},
	}
}
