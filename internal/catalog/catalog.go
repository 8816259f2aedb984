// Package catalog holds the content bundled with the binary: fallback case studies and
// insights shown while the CMS is unreachable or empty, and the UI strings used by the
// contact form and not-found states.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

const DefaultLocale = "en"

//go:embed fallback.yaml
var fallbackYAML []byte

type Stat struct {
	Value string `yaml:"value"`
	Label string `yaml:"label"`
}

type CaseStudyText struct {
	Title          string   `yaml:"title"`
	Category       string   `yaml:"category"`
	Excerpt        string   `yaml:"excerpt"`
	SEOTitle       string   `yaml:"seoTitle"`
	SEODescription string   `yaml:"seoDescription"`
	Overview       []string `yaml:"overview"`
	Challenge      []string `yaml:"challenge"`
	Solution       []string `yaml:"solution"`
	Results        []string `yaml:"results"`
	Stats          []Stat   `yaml:"stats"`
}

type CaseStudy struct {
	Slug         string                   `yaml:"slug"`
	Image        string                   `yaml:"image"`
	Logo         string                   `yaml:"logo"`
	LogoAlt      string                   `yaml:"logoAlt"`
	Gradient     string                   `yaml:"gradient"`
	HeroGradient string                   `yaml:"heroGradient"`
	Featured     bool                     `yaml:"featured"`
	PublishedAt  time.Time                `yaml:"publishedAt"`
	Locales      map[string]CaseStudyText `yaml:"locales"`
}

// Text returns the translation for locale, or the default locale's when missing.
func (c CaseStudy) Text(locale string) CaseStudyText {
	if text, ok := c.Locales[locale]; ok {
		return text
	}
	return c.Locales[DefaultLocale]
}

type InsightText struct {
	Title          string   `yaml:"title"`
	Excerpt        string   `yaml:"excerpt"`
	SEOTitle       string   `yaml:"seoTitle"`
	SEODescription string   `yaml:"seoDescription"`
	Content        []string `yaml:"content"`
}

type Insight struct {
	Slug        string                 `yaml:"slug"`
	Category    string                 `yaml:"category"`
	ReadTime    int                    `yaml:"readTime"`
	Author      string                 `yaml:"author"`
	Gradient    string                 `yaml:"gradient"`
	Featured    bool                   `yaml:"featured"`
	PublishedAt time.Time              `yaml:"publishedAt"`
	Locales     map[string]InsightText `yaml:"locales"`
}

func (i Insight) Text(locale string) InsightText {
	if text, ok := i.Locales[locale]; ok {
		return text
	}
	return i.Locales[DefaultLocale]
}

type Catalog struct {
	caseStudies []CaseStudy
	insights    []Insight
	strings     map[string]map[string]string
}

type document struct {
	CaseStudies []CaseStudy                  `yaml:"caseStudies"`
	Insights    []Insight                    `yaml:"insights"`
	Strings     map[string]map[string]string `yaml:"strings"`
}

// Parse decodes a catalog document. Records are kept ordered by publishedAt descending,
// the same order the live queries use.
func Parse(data []byte) (*Catalog, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}

	seen := make(map[string]struct{})
	for _, cs := range doc.CaseStudies {
		if err := checkRecord("case study", cs.Slug, seen); err != nil {
			return nil, err
		}
		if _, ok := cs.Locales[DefaultLocale]; !ok {
			return nil, fmt.Errorf("case study %q has no %s translation", cs.Slug, DefaultLocale)
		}
	}
	seen = make(map[string]struct{})
	for _, in := range doc.Insights {
		if err := checkRecord("insight", in.Slug, seen); err != nil {
			return nil, err
		}
		if _, ok := in.Locales[DefaultLocale]; !ok {
			return nil, fmt.Errorf("insight %q has no %s translation", in.Slug, DefaultLocale)
		}
		if in.ReadTime <= 0 {
			return nil, fmt.Errorf("insight %q has no read time", in.Slug)
		}
	}

	sort.SliceStable(doc.CaseStudies, func(i, j int) bool {
		return doc.CaseStudies[i].PublishedAt.After(doc.CaseStudies[j].PublishedAt)
	})
	sort.SliceStable(doc.Insights, func(i, j int) bool {
		return doc.Insights[i].PublishedAt.After(doc.Insights[j].PublishedAt)
	})

	return &Catalog{caseStudies: doc.CaseStudies, insights: doc.Insights, strings: doc.Strings}, nil
}

func checkRecord(kind, slug string, seen map[string]struct{}) error {
	if slug == "" {
		return errors.New(kind + " without slug")
	}
	if _, dup := seen[slug]; dup {
		return fmt.Errorf("duplicate %s slug %q", kind, slug)
	}
	seen[slug] = struct{}{}
	return nil
}

var loadDefault = sync.OnceValue(func() *Catalog {
	c, err := Parse(fallbackYAML)
	if err != nil {
		panic("catalog: embedded fallback content is invalid: " + err.Error())
	}
	return c
})

// Default returns the catalog compiled into the binary.
func Default() *Catalog {
	return loadDefault()
}

func (c *Catalog) CaseStudies() []CaseStudy {
	out := make([]CaseStudy, len(c.caseStudies))
	copy(out, c.caseStudies)
	return out
}

func (c *Catalog) CaseStudy(slug string) (CaseStudy, bool) {
	for _, cs := range c.caseStudies {
		if cs.Slug == slug {
			return cs, true
		}
	}
	return CaseStudy{}, false
}

func (c *Catalog) CaseStudySlugs() []string {
	out := make([]string, 0, len(c.caseStudies))
	for _, cs := range c.caseStudies {
		out = append(out, cs.Slug)
	}
	return out
}

func (c *Catalog) Insights() []Insight {
	out := make([]Insight, len(c.insights))
	copy(out, c.insights)
	return out
}

func (c *Catalog) Insight(slug string) (Insight, bool) {
	for _, in := range c.insights {
		if in.Slug == slug {
			return in, true
		}
	}
	return Insight{}, false
}

func (c *Catalog) InsightSlugs() []string {
	out := make([]string, 0, len(c.insights))
	for _, in := range c.insights {
		out = append(out, in.Slug)
	}
	return out
}

// String looks up a UI string. Unknown locales use the default locale; unknown keys
// return the key itself so a missing translation is visible rather than blank.
func (c *Catalog) String(locale, key string) string {
	if s, ok := c.strings[locale][key]; ok {
		return s
	}
	if s, ok := c.strings[DefaultLocale][key]; ok {
		return s
	}
	return key
}
