package content

import (
	"time"

	"pluscode-backend/internal/catalog"
	"pluscode-backend/internal/richtext"
)

// Localized values are stored as locale-keyed maps, the same layout the CMS uses.
type Localized map[string]string

type LocalizedBlocks map[string]richtext.Blocks

type StatDocument struct {
	Value string    `bson:"value"`
	Label Localized `bson:"label"`
}

type CaseStudyDocument struct {
	ID             string          `bson:"_id"`
	Slug           string          `bson:"slug"`
	Title          Localized       `bson:"title"`
	Category       Localized       `bson:"category"`
	Excerpt        Localized       `bson:"excerpt"`
	Logo           *Image          `bson:"logo,omitempty"`
	HeroImage      *Image          `bson:"hero_image,omitempty"`
	Gradient       string          `bson:"gradient,omitempty"`
	HeroGradient   string          `bson:"hero_gradient,omitempty"`
	Overview       LocalizedBlocks `bson:"overview,omitempty"`
	Challenge      LocalizedBlocks `bson:"challenge,omitempty"`
	Solution       LocalizedBlocks `bson:"solution,omitempty"`
	Results        LocalizedBlocks `bson:"results,omitempty"`
	Stats          []StatDocument  `bson:"stats,omitempty"`
	SEOTitle       Localized       `bson:"seo_title,omitempty"`
	SEODescription Localized       `bson:"seo_description,omitempty"`
	Featured       bool            `bson:"featured"`
	PublishedAt    *time.Time      `bson:"published_at,omitempty"`
}

func (d CaseStudyDocument) card(locale string) CaseStudyCard {
	return CaseStudyCard{
		ID:        d.ID,
		Slug:      d.Slug,
		Title:     d.Title[locale],
		Category:  d.Category[locale],
		Excerpt:   d.Excerpt[locale],
		Logo:      d.Logo,
		HeroImage: d.HeroImage,
		Gradient:  d.Gradient,
		Featured:  d.Featured,
	}
}

// full projects the document for one locale. Missing translations stay empty, the
// same as a CMS projection of an absent locale key.
func (d CaseStudyDocument) full(locale string) *CaseStudy {
	stats := make([]Stat, 0, len(d.Stats))
	for _, s := range d.Stats {
		stats = append(stats, Stat{Value: s.Value, Label: s.Label[locale]})
	}
	out := &CaseStudy{
		CaseStudyCard:  d.card(locale),
		HeroGradient:   d.HeroGradient,
		Overview:       d.Overview[locale],
		Challenge:      d.Challenge[locale],
		Solution:       d.Solution[locale],
		Results:        d.Results[locale],
		Stats:          stats,
		SEOTitle:       d.SEOTitle[locale],
		SEODescription: d.SEODescription[locale],
		PublishedAt:    d.PublishedAt,
	}
	out.renderHTML()
	return out
}

type InsightDocument struct {
	ID             string          `bson:"_id"`
	Slug           string          `bson:"slug"`
	Title          Localized       `bson:"title"`
	Category       string          `bson:"category"`
	Excerpt        Localized       `bson:"excerpt"`
	FeaturedImage  *Image          `bson:"featured_image,omitempty"`
	Gradient       string          `bson:"gradient,omitempty"`
	Author         string          `bson:"author,omitempty"`
	ReadTime       int             `bson:"read_time"`
	Content        LocalizedBlocks `bson:"content,omitempty"`
	SEOTitle       Localized       `bson:"seo_title,omitempty"`
	SEODescription Localized       `bson:"seo_description,omitempty"`
	Featured       bool            `bson:"featured"`
	PublishedAt    *time.Time      `bson:"published_at,omitempty"`
}

func (d InsightDocument) card(locale string) InsightCard {
	return InsightCard{
		ID:            d.ID,
		Slug:          d.Slug,
		Title:         d.Title[locale],
		Category:      d.Category,
		Excerpt:       d.Excerpt[locale],
		FeaturedImage: d.FeaturedImage,
		Gradient:      d.Gradient,
		Author:        d.Author,
		ReadTime:      d.ReadTime,
		PublishedAt:   d.PublishedAt,
		Featured:      d.Featured,
	}
}

func (d InsightDocument) full(locale string) *Insight {
	content := d.Content[locale]
	return &Insight{
		InsightCard:    d.card(locale),
		Content:        content,
		HTML:           richtext.RenderHTML(content),
		SEOTitle:       d.SEOTitle[locale],
		SEODescription: d.SEODescription[locale],
	}
}

type AnnouncementDocument struct {
	ID        string     `bson:"_id"`
	Text      Localized  `bson:"text"`
	LinkText  Localized  `bson:"link_text,omitempty"`
	LinkURL   string     `bson:"link_url,omitempty"`
	IsActive  bool       `bson:"is_active"`
	ExpiresAt *time.Time `bson:"expires_at,omitempty"`
	CreatedAt time.Time  `bson:"created_at"`
}

func (d AnnouncementDocument) project(locale string) *Announcement {
	return &Announcement{
		ID:        d.ID,
		Text:      d.Text[locale],
		LinkText:  d.LinkText[locale],
		LinkURL:   d.LinkURL,
		IsActive:  d.IsActive,
		ExpiresAt: d.ExpiresAt,
	}
}

// CaseStudyDocumentFromCatalog converts a bundled record to its stored form, keeping
// every locale the catalog carries.
func CaseStudyDocumentFromCatalog(cs catalog.CaseStudy, id string) CaseStudyDocument {
	doc := CaseStudyDocument{
		ID:             id,
		Slug:           cs.Slug,
		Title:          Localized{},
		Category:       Localized{},
		Excerpt:        Localized{},
		Logo:           &Image{URL: cs.Logo, Alt: cs.LogoAlt},
		HeroImage:      &Image{URL: cs.Image, Alt: cs.LogoAlt},
		Gradient:       cs.Gradient,
		HeroGradient:   cs.HeroGradient,
		Overview:       LocalizedBlocks{},
		Challenge:      LocalizedBlocks{},
		Solution:       LocalizedBlocks{},
		Results:        LocalizedBlocks{},
		SEOTitle:       Localized{},
		SEODescription: Localized{},
		Featured:       cs.Featured,
	}
	if !cs.PublishedAt.IsZero() {
		publishedAt := cs.PublishedAt
		doc.PublishedAt = &publishedAt
	}

	for locale, text := range cs.Locales {
		doc.Title[locale] = text.Title
		doc.Category[locale] = text.Category
		doc.Excerpt[locale] = text.Excerpt
		doc.SEOTitle[locale] = text.SEOTitle
		doc.SEODescription[locale] = text.SEODescription
		doc.Overview[locale] = richtext.Paragraphs(text.Overview...)
		doc.Challenge[locale] = richtext.Paragraphs(text.Challenge...)
		doc.Solution[locale] = richtext.Paragraphs(text.Solution...)
		doc.Results[locale] = richtext.Paragraphs(text.Results...)
	}
	// Stats are positional: the value comes from the default locale, labels from each locale.
	for _, s := range cs.Text(catalog.DefaultLocale).Stats {
		doc.Stats = append(doc.Stats, StatDocument{Value: s.Value, Label: Localized{}})
	}
	for locale, text := range cs.Locales {
		for i, s := range text.Stats {
			if i < len(doc.Stats) {
				doc.Stats[i].Label[locale] = s.Label
			}
		}
	}
	return doc
}

func InsightDocumentFromCatalog(in catalog.Insight, id string) InsightDocument {
	doc := InsightDocument{
		ID:             id,
		Slug:           in.Slug,
		Title:          Localized{},
		Category:       in.Category,
		Excerpt:        Localized{},
		Gradient:       in.Gradient,
		Author:         in.Author,
		ReadTime:       in.ReadTime,
		Content:        LocalizedBlocks{},
		SEOTitle:       Localized{},
		SEODescription: Localized{},
		Featured:       in.Featured,
	}
	if !in.PublishedAt.IsZero() {
		publishedAt := in.PublishedAt
		doc.PublishedAt = &publishedAt
	}
	for locale, text := range in.Locales {
		doc.Title[locale] = text.Title
		doc.Excerpt[locale] = text.Excerpt
		doc.SEOTitle[locale] = text.SEOTitle
		doc.SEODescription[locale] = text.SEODescription
		doc.Content[locale] = richtext.Paragraphs(text.Content...)
	}
	return doc
}
