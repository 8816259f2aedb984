// Package sitemap enumerates crawlable URLs for sitemap.xml and robots.txt.
package sitemap

import (
	"context"
	"encoding/xml"
	"strings"
	"time"
)

const DefaultBaseURL = "https://pluscode.dev"

type ChangeFrequency string

const (
	Weekly  ChangeFrequency = "weekly"
	Monthly ChangeFrequency = "monthly"
	Yearly  ChangeFrequency = "yearly"
)

type Entry struct {
	URL             string
	LastModified    time.Time
	ChangeFrequency ChangeFrequency
	Priority        float64
}

type page struct {
	path     string
	freq     ChangeFrequency
	priority float64
}

var staticPages = []page{
	{"", Weekly, 1},
	{"/about", Monthly, 0.8},
	{"/contact", Monthly, 0.8},
	{"/services/web-development", Monthly, 0.8},
	{"/services/mobile", Monthly, 0.8},
	{"/services/cloud", Monthly, 0.8},
	{"/ai-data/machine-learning", Monthly, 0.8},
	{"/ai-data/analytics", Monthly, 0.8},
	{"/ai-data/consulting", Monthly, 0.8},
	{"/industries/finance", Monthly, 0.7},
	{"/industries/healthcare", Monthly, 0.7},
	{"/industries/ecommerce", Monthly, 0.7},
	{"/industries/hr", Monthly, 0.7},
	{"/industries/logistics", Monthly, 0.7},
	{"/industries/ai", Monthly, 0.7},
	{"/industries/saas", Monthly, 0.7},
	{"/industries/manufacturing", Monthly, 0.7},
	{"/case-studies", Weekly, 0.8},
	{"/insights", Weekly, 0.8},
	{"/privacy-policy", Yearly, 0.3},
	{"/terms-of-use", Yearly, 0.3},
	{"/site-map", Monthly, 0.3},
}

// Slugs lists document slugs per type. Implementations report failures instead
// of substituting fallback slugs.
type Slugs interface {
	CaseStudySlugs(ctx context.Context) ([]string, error)
	InsightSlugs(ctx context.Context) ([]string, error)
}

type Builder struct {
	baseURL string
	slugs   Slugs
	now     func() time.Time
}

func NewBuilder(baseURL string, slugs Slugs) *Builder {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Builder{baseURL: baseURL, slugs: slugs, now: time.Now}
}

func (b *Builder) BaseURL() string {
	return b.baseURL
}

// Entries returns the static pages followed by one entry per document. If either
// slug lookup fails the dynamic part is left out entirely and the error returned
// alongside the static entries.
func (b *Builder) Entries(ctx context.Context) ([]Entry, error) {
	now := b.now()
	entries := make([]Entry, 0, len(staticPages)+16)
	for _, p := range staticPages {
		entries = append(entries, Entry{
			URL:             b.baseURL + p.path,
			LastModified:    now,
			ChangeFrequency: p.freq,
			Priority:        p.priority,
		})
	}
	if b.slugs == nil {
		return entries, nil
	}

	dynamic, err := b.dynamic(ctx, now)
	if err != nil {
		return entries, err
	}
	return append(entries, dynamic...), nil
}

func (b *Builder) dynamic(ctx context.Context, now time.Time) ([]Entry, error) {
	caseStudies, err := b.slugs.CaseStudySlugs(ctx)
	if err != nil {
		return nil, err
	}
	insights, err := b.slugs.InsightSlugs(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]Entry, 0, len(caseStudies)+len(insights))
	for _, slug := range caseStudies {
		out = append(out, b.documentEntry("/case-studies/"+slug, now))
	}
	for _, slug := range insights {
		out = append(out, b.documentEntry("/insights/"+slug, now))
	}
	return out, nil
}

func (b *Builder) documentEntry(path string, now time.Time) Entry {
	return Entry{
		URL:             b.baseURL + path,
		LastModified:    now,
		ChangeFrequency: Monthly,
		Priority:        0.7,
	}
}

type urlset struct {
	XMLName xml.Name `xml:"urlset"`
	Xmlns   string   `xml:"xmlns,attr"`
	URLs    []xmlURL `xml:"url"`
}

type xmlURL struct {
	Loc        string  `xml:"loc"`
	LastMod    string  `xml:"lastmod"`
	ChangeFreq string  `xml:"changefreq"`
	Priority   float64 `xml:"priority"`
}

// MarshalXML renders entries in the sitemaps.org urlset format.
func MarshalXML(entries []Entry) ([]byte, error) {
	set := urlset{
		Xmlns: "http://www.sitemaps.org/schemas/sitemap/0.9",
		URLs:  make([]xmlURL, 0, len(entries)),
	}
	for _, e := range entries {
		set.URLs = append(set.URLs, xmlURL{
			Loc:        e.URL,
			LastMod:    e.LastModified.UTC().Format(time.RFC3339),
			ChangeFreq: string(e.ChangeFrequency),
			Priority:   e.Priority,
		})
	}
	body, err := xml.MarshalIndent(set, "", "  ")
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), body...), nil
}

// Robots renders robots.txt: everything allowed except admin and API paths.
func Robots(baseURL string) string {
	var b strings.Builder
	b.WriteString("User-Agent: *\n")
	b.WriteString("Allow: /\n")
	b.WriteString("Disallow: /admin/\n")
	b.WriteString("Disallow: /api/\n")
	b.WriteString("\n")
	b.WriteString("Sitemap: " + strings.TrimRight(baseURL, "/") + "/sitemap.xml\n")
	return b.String()
}
