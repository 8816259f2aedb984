package content

import (
	"time"

	"pluscode-backend/internal/richtext"
)

// Document types as named by the CMS. They double as the coarse cache tags.
const (
	TypeCaseStudy    = "caseStudy"
	TypeInsight      = "insight"
	TypeAnnouncement = "announcement"
)

var insightCategories = map[string]struct{}{
	"ai":          {},
	"development": {},
	"business":    {},
	"technology":  {},
	"cloud":       {},
	"mobile":      {},
}

func IsInsightCategory(category string) bool {
	_, ok := insightCategories[category]
	return ok
}

// Tag returns the per-document cache tag, e.g. "caseStudy:zabka".
func Tag(docType, slug string) string {
	return docType + ":" + slug
}

type Image struct {
	AssetRef string `json:"assetRef,omitempty" bson:"asset_ref,omitempty"`
	URL      string `json:"url,omitempty" bson:"url,omitempty"`
	Alt      string `json:"alt,omitempty" bson:"alt,omitempty"`
}

type CaseStudyCard struct {
	ID        string `json:"id"`
	Slug      string `json:"slug"`
	Title     string `json:"title"`
	Category  string `json:"category"`
	Excerpt   string `json:"excerpt"`
	Logo      *Image `json:"logo"`
	HeroImage *Image `json:"heroImage"`
	Gradient  string `json:"gradient,omitempty"`
	Featured  bool   `json:"featured"`
}

type Stat struct {
	Value string `json:"value" bson:"value"`
	Label string `json:"label" bson:"label"`
}

type CaseStudyHTML struct {
	Overview  string `json:"overview"`
	Challenge string `json:"challenge"`
	Solution  string `json:"solution"`
	Results   string `json:"results"`
}

type CaseStudy struct {
	CaseStudyCard
	HeroGradient   string          `json:"heroGradient,omitempty"`
	Overview       richtext.Blocks `json:"overview"`
	Challenge      richtext.Blocks `json:"challenge"`
	Solution       richtext.Blocks `json:"solution"`
	Results        richtext.Blocks `json:"results"`
	HTML           CaseStudyHTML   `json:"html"`
	Stats          []Stat          `json:"stats"`
	SEOTitle       string          `json:"seoTitle,omitempty"`
	SEODescription string          `json:"seoDescription,omitempty"`
	PublishedAt    *time.Time      `json:"publishedAt,omitempty"`
}

func (c *CaseStudy) renderHTML() {
	c.HTML = CaseStudyHTML{
		Overview:  richtext.RenderHTML(c.Overview),
		Challenge: richtext.RenderHTML(c.Challenge),
		Solution:  richtext.RenderHTML(c.Solution),
		Results:   richtext.RenderHTML(c.Results),
	}
}

type InsightCard struct {
	ID            string     `json:"id"`
	Slug          string     `json:"slug"`
	Title         string     `json:"title"`
	Category      string     `json:"category"`
	Excerpt       string     `json:"excerpt"`
	FeaturedImage *Image     `json:"featuredImage"`
	Gradient      string     `json:"gradient,omitempty"`
	Author        string     `json:"author,omitempty"`
	ReadTime      int        `json:"readTime,omitempty"`
	PublishedAt   *time.Time `json:"publishedAt,omitempty"`
	Featured      bool       `json:"featured"`
}

type Insight struct {
	InsightCard
	Content        richtext.Blocks `json:"content"`
	HTML           string          `json:"html"`
	SEOTitle       string          `json:"seoTitle,omitempty"`
	SEODescription string          `json:"seoDescription,omitempty"`
}

type Announcement struct {
	ID        string     `json:"id"`
	Text      string     `json:"text"`
	LinkText  string     `json:"linkText,omitempty"`
	LinkURL   string     `json:"linkUrl,omitempty"`
	IsActive  bool       `json:"isActive"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

// ActiveAt reports whether the banner should be shown at now.
func (a Announcement) ActiveAt(now time.Time) bool {
	return a.IsActive && (a.ExpiresAt == nil || a.ExpiresAt.After(now))
}
