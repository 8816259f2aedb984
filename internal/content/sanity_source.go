package content

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"time"

	"pluscode-backend/internal/richtext"
	"pluscode-backend/internal/sanity"
)

// Locale is always passed as the $locale parameter and read with field[$locale],
// never spliced into the query text.
const (
	caseStudyCardProjection = `
  _id,
  "slug": slug.current,
  "title": title[$locale],
  "category": category[$locale],
  "excerpt": excerpt[$locale],
  logo,
  heroImage,
  gradient,
  featured`

	caseStudyFullProjection = caseStudyCardProjection + `,
  heroGradient,
  "overview": overview[$locale],
  "challenge": challenge[$locale],
  "solution": solution[$locale],
  "results": results[$locale],
  "stats": stats[]{ value, "label": label[$locale] },
  "seoTitle": seoTitle[$locale],
  "seoDescription": seoDescription[$locale],
  publishedAt`

	insightCardProjection = `
  _id,
  "slug": slug.current,
  "title": title[$locale],
  category,
  "excerpt": excerpt[$locale],
  featuredImage,
  gradient,
  author,
  readTime,
  publishedAt,
  featured`

	insightFullProjection = insightCardProjection + `,
  "content": content[$locale],
  "seoTitle": seoTitle[$locale],
  "seoDescription": seoDescription[$locale]`

	announcementProjection = `
  _id,
  "text": text[$locale],
  "linkText": linkText[$locale],
  linkUrl,
  isActive,
  expiresAt`
)

// Querier is the part of the Sanity client the source needs.
type Querier interface {
	Query(ctx context.Context, groq string, params map[string]any, out any) error
}

type SanitySource struct {
	client  Querier
	resolve func(ref string) string
	log     *slog.Logger
}

func NewSanitySource(client *sanity.Client, log *slog.Logger) *SanitySource {
	return newSanitySource(client, client.ImageResolver(), log)
}

func newSanitySource(client Querier, resolve func(string) string, log *slog.Logger) *SanitySource {
	if log == nil {
		log = slog.Default()
	}
	return &SanitySource{client: client, resolve: resolve, log: log}
}

type sanityImage struct {
	Asset *struct {
		Ref string `json:"_ref"`
	} `json:"asset"`
	Alt string `json:"alt"`
}

func (s *SanitySource) image(img *sanityImage) *Image {
	if img == nil || img.Asset == nil || img.Asset.Ref == "" {
		return nil
	}
	out := &Image{AssetRef: img.Asset.Ref, Alt: img.Alt}
	if s.resolve != nil {
		out.URL = s.resolve(img.Asset.Ref)
	}
	return out
}

func (s *SanitySource) blocks(slug, field string, raw json.RawMessage) (richtext.Blocks, error) {
	blocks, skipped, err := richtext.Parse(raw, s.resolve)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", slug, field, err)
	}
	if skipped > 0 {
		s.log.Debug("sanity source: skipped rich text blocks",
			slog.String("slug", slug), slog.String("field", field), slog.Int("skipped", skipped))
	}
	return blocks, nil
}

type sanityCaseStudyCard struct {
	ID        string       `json:"_id"`
	Slug      string       `json:"slug"`
	Title     string       `json:"title"`
	Category  string       `json:"category"`
	Excerpt   string       `json:"excerpt"`
	Logo      *sanityImage `json:"logo"`
	HeroImage *sanityImage `json:"heroImage"`
	Gradient  string       `json:"gradient"`
	Featured  bool         `json:"featured"`
}

type sanityCaseStudy struct {
	sanityCaseStudyCard
	HeroGradient   string          `json:"heroGradient"`
	Overview       json.RawMessage `json:"overview"`
	Challenge      json.RawMessage `json:"challenge"`
	Solution       json.RawMessage `json:"solution"`
	Results        json.RawMessage `json:"results"`
	Stats          []Stat          `json:"stats"`
	SEOTitle       string          `json:"seoTitle"`
	SEODescription string          `json:"seoDescription"`
	PublishedAt    *time.Time      `json:"publishedAt"`
}

func (s *SanitySource) caseStudyCard(raw sanityCaseStudyCard) CaseStudyCard {
	return CaseStudyCard{
		ID:        raw.ID,
		Slug:      raw.Slug,
		Title:     raw.Title,
		Category:  raw.Category,
		Excerpt:   raw.Excerpt,
		Logo:      s.image(raw.Logo),
		HeroImage: s.image(raw.HeroImage),
		Gradient:  raw.Gradient,
		Featured:  raw.Featured,
	}
}

func (s *SanitySource) caseStudyCards(ctx context.Context, groq string, params map[string]any) ([]CaseStudyCard, error) {
	var raw []sanityCaseStudyCard
	if err := s.client.Query(ctx, groq, params, &raw); err != nil {
		return nil, err
	}
	out := make([]CaseStudyCard, 0, len(raw))
	for _, item := range raw {
		out = append(out, s.caseStudyCard(item))
	}
	return out, nil
}

func (s *SanitySource) CaseStudies(ctx context.Context, locale string) ([]CaseStudyCard, error) {
	groq := `*[_type == "caseStudy"] | order(publishedAt desc) {` + caseStudyCardProjection + `}`
	return s.caseStudyCards(ctx, groq, map[string]any{"locale": locale})
}

func (s *SanitySource) FeaturedCaseStudies(ctx context.Context, locale string, limit int) ([]CaseStudyCard, error) {
	groq := fmt.Sprintf(`*[_type == "caseStudy" && featured == true] | order(publishedAt desc) [0...%d] {%s}`, limit, caseStudyCardProjection)
	return s.caseStudyCards(ctx, groq, map[string]any{"locale": locale})
}

func (s *SanitySource) RelatedCaseStudies(ctx context.Context, slug, category, locale string, limit int) ([]CaseStudyCard, error) {
	groq := fmt.Sprintf(`*[_type == "caseStudy" && slug.current != $slug && category[$locale] == $category] | order(publishedAt desc) [0...%d] {%s}`, limit, caseStudyCardProjection)
	return s.caseStudyCards(ctx, groq, map[string]any{"locale": locale, "slug": slug, "category": category})
}

func (s *SanitySource) CaseStudy(ctx context.Context, slug, locale string) (*CaseStudy, error) {
	groq := `*[_type == "caseStudy" && slug.current == $slug][0] {` + caseStudyFullProjection + `}`
	var raw *sanityCaseStudy
	if err := s.client.Query(ctx, groq, map[string]any{"slug": slug, "locale": locale}, &raw); err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}

	out := &CaseStudy{
		CaseStudyCard:  s.caseStudyCard(raw.sanityCaseStudyCard),
		HeroGradient:   raw.HeroGradient,
		Stats:          raw.Stats,
		SEOTitle:       raw.SEOTitle,
		SEODescription: raw.SEODescription,
		PublishedAt:    raw.PublishedAt,
	}
	var err error
	if out.Overview, err = s.blocks(slug, "overview", raw.Overview); err != nil {
		return nil, err
	}
	if out.Challenge, err = s.blocks(slug, "challenge", raw.Challenge); err != nil {
		return nil, err
	}
	if out.Solution, err = s.blocks(slug, "solution", raw.Solution); err != nil {
		return nil, err
	}
	if out.Results, err = s.blocks(slug, "results", raw.Results); err != nil {
		return nil, err
	}
	out.renderHTML()
	return out, nil
}

func (s *SanitySource) CaseStudySlugs(ctx context.Context) ([]string, error) {
	var slugs []string
	if err := s.client.Query(ctx, `*[_type == "caseStudy" && defined(slug.current)].slug.current`, nil, &slugs); err != nil {
		return nil, err
	}
	return slugs, nil
}

type sanityInsightCard struct {
	ID            string       `json:"_id"`
	Slug          string       `json:"slug"`
	Title         string       `json:"title"`
	Category      string       `json:"category"`
	Excerpt       string       `json:"excerpt"`
	FeaturedImage *sanityImage `json:"featuredImage"`
	Gradient      string       `json:"gradient"`
	Author        string       `json:"author"`
	ReadTime      *float64     `json:"readTime"`
	PublishedAt   *time.Time   `json:"publishedAt"`
	Featured      bool         `json:"featured"`
}

type sanityInsight struct {
	sanityInsightCard
	Content        json.RawMessage `json:"content"`
	SEOTitle       string          `json:"seoTitle"`
	SEODescription string          `json:"seoDescription"`
}

func (s *SanitySource) insightCard(raw sanityInsightCard) InsightCard {
	readTime := 0
	if raw.ReadTime != nil && *raw.ReadTime > 0 {
		readTime = int(math.Ceil(*raw.ReadTime))
	}
	return InsightCard{
		ID:            raw.ID,
		Slug:          raw.Slug,
		Title:         raw.Title,
		Category:      raw.Category,
		Excerpt:       raw.Excerpt,
		FeaturedImage: s.image(raw.FeaturedImage),
		Gradient:      raw.Gradient,
		Author:        raw.Author,
		ReadTime:      readTime,
		PublishedAt:   raw.PublishedAt,
		Featured:      raw.Featured,
	}
}

func (s *SanitySource) insightCards(ctx context.Context, groq string, params map[string]any) ([]InsightCard, error) {
	var raw []sanityInsightCard
	if err := s.client.Query(ctx, groq, params, &raw); err != nil {
		return nil, err
	}
	out := make([]InsightCard, 0, len(raw))
	for _, item := range raw {
		out = append(out, s.insightCard(item))
	}
	return out, nil
}

func (s *SanitySource) Insights(ctx context.Context, locale string) ([]InsightCard, error) {
	groq := `*[_type == "insight"] | order(publishedAt desc) {` + insightCardProjection + `}`
	return s.insightCards(ctx, groq, map[string]any{"locale": locale})
}

func (s *SanitySource) FeaturedInsight(ctx context.Context, locale string) (*InsightCard, error) {
	groq := `*[_type == "insight" && featured == true] | order(publishedAt desc) [0] {` + insightCardProjection + `}`
	var raw *sanityInsightCard
	if err := s.client.Query(ctx, groq, map[string]any{"locale": locale}, &raw); err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}
	card := s.insightCard(*raw)
	return &card, nil
}

// RecentInsights excludes the featured article, which the home page shows separately.
func (s *SanitySource) RecentInsights(ctx context.Context, locale string, limit int) ([]InsightCard, error) {
	groq := fmt.Sprintf(`*[_type == "insight" && featured != true] | order(publishedAt desc) [0...%d] {%s}`, limit, insightCardProjection)
	return s.insightCards(ctx, groq, map[string]any{"locale": locale})
}

func (s *SanitySource) RelatedInsights(ctx context.Context, slug, category, locale string, limit int) ([]InsightCard, error) {
	groq := fmt.Sprintf(`*[_type == "insight" && slug.current != $slug && category == $category] | order(publishedAt desc) [0...%d] {%s}`, limit, insightCardProjection)
	return s.insightCards(ctx, groq, map[string]any{"locale": locale, "slug": slug, "category": category})
}

func (s *SanitySource) Insight(ctx context.Context, slug, locale string) (*Insight, error) {
	groq := `*[_type == "insight" && slug.current == $slug][0] {` + insightFullProjection + `}`
	var raw *sanityInsight
	if err := s.client.Query(ctx, groq, map[string]any{"slug": slug, "locale": locale}, &raw); err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}
	content, err := s.blocks(slug, "content", raw.Content)
	if err != nil {
		return nil, err
	}
	return &Insight{
		InsightCard:    s.insightCard(raw.sanityInsightCard),
		Content:        content,
		HTML:           richtext.RenderHTML(content),
		SEOTitle:       raw.SEOTitle,
		SEODescription: raw.SEODescription,
	}, nil
}

func (s *SanitySource) InsightSlugs(ctx context.Context) ([]string, error) {
	var slugs []string
	if err := s.client.Query(ctx, `*[_type == "insight" && defined(slug.current)].slug.current`, nil, &slugs); err != nil {
		return nil, err
	}
	return slugs, nil
}

func (s *SanitySource) ActiveAnnouncement(ctx context.Context, locale string, now time.Time) (*Announcement, error) {
	groq := `*[_type == "announcement" && isActive == true && (expiresAt == null || dateTime(expiresAt) > dateTime($now))] | order(_createdAt desc) [0] {` + announcementProjection + `}`
	var raw *struct {
		ID        string     `json:"_id"`
		Text      string     `json:"text"`
		LinkText  string     `json:"linkText"`
		LinkURL   string     `json:"linkUrl"`
		IsActive  bool       `json:"isActive"`
		ExpiresAt *time.Time `json:"expiresAt"`
	}
	params := map[string]any{"locale": locale, "now": now.UTC().Format(time.RFC3339)}
	if err := s.client.Query(ctx, groq, params, &raw); err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}
	return &Announcement{
		ID:        raw.ID,
		Text:      raw.Text,
		LinkText:  raw.LinkText,
		LinkURL:   raw.LinkURL,
		IsActive:  raw.IsActive,
		ExpiresAt: raw.ExpiresAt,
	}, nil
}
