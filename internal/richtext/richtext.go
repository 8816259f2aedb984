// Package richtext models CMS block content as a closed set of block kinds.
//
// Portable text arrives from the CMS as untyped JSON. Parse validates it once at the
// client boundary; everything downstream (API payloads, HTML rendering, storage)
// works with Blocks and switches on Kind.
package richtext

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

type Kind string

const (
	KindParagraph Kind = "paragraph"
	KindHeading   Kind = "heading"
	KindQuote     Kind = "quote"
	KindImage     Kind = "image"
)

const (
	MarkStrong = "strong"
	MarkEm     = "em"
	MarkCode   = "code"

	ListBullet = "bullet"
	ListNumber = "number"
)

type Span struct {
	Text  string   `json:"text" bson:"text" yaml:"text"`
	Marks []string `json:"marks,omitempty" bson:"marks,omitempty" yaml:"marks,omitempty"`
	Link  string   `json:"link,omitempty" bson:"link,omitempty" yaml:"link,omitempty"`
}

type Image struct {
	AssetRef string `json:"assetRef" bson:"asset_ref" yaml:"assetRef"`
	Alt      string `json:"alt,omitempty" bson:"alt,omitempty" yaml:"alt,omitempty"`
	Caption  string `json:"caption,omitempty" bson:"caption,omitempty" yaml:"caption,omitempty"`
	URL      string `json:"url,omitempty" bson:"url,omitempty" yaml:"url,omitempty"`
}

type Block struct {
	Kind     Kind   `json:"kind" bson:"kind" yaml:"kind"`
	Level    int    `json:"level,omitempty" bson:"level,omitempty" yaml:"level,omitempty"`
	ListItem string `json:"listItem,omitempty" bson:"list_item,omitempty" yaml:"listItem,omitempty"`
	Spans    []Span `json:"spans,omitempty" bson:"spans,omitempty" yaml:"spans,omitempty"`
	Image    *Image `json:"image,omitempty" bson:"image,omitempty" yaml:"image,omitempty"`
}

type Blocks []Block

var ErrMalformed = errors.New("rich text is not a block array")

// Paragraphs is a convenience for building plain content such as the fallback catalog.
func Paragraphs(texts ...string) Blocks {
	out := make(Blocks, 0, len(texts))
	for _, text := range texts {
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		out = append(out, Block{Kind: KindParagraph, Spans: []Span{{Text: text}}})
	}
	return out
}

func (b Blocks) PlainText() string {
	parts := make([]string, 0, len(b))
	for _, block := range b {
		switch block.Kind {
		case KindParagraph, KindHeading, KindQuote:
			var sb strings.Builder
			for _, span := range block.Spans {
				sb.WriteString(span.Text)
			}
			if text := strings.TrimSpace(sb.String()); text != "" {
				parts = append(parts, text)
			}
		case KindImage:
			if block.Image != nil && block.Image.Caption != "" {
				parts = append(parts, block.Image.Caption)
			}
		}
	}
	return strings.Join(parts, "\n\n")
}

type rawBlock struct {
	Type     string       `json:"_type"`
	Style    string       `json:"style"`
	ListItem string       `json:"listItem"`
	Children []rawSpan    `json:"children"`
	MarkDefs []rawMarkDef `json:"markDefs"`
	Asset    *struct {
		Ref string `json:"_ref"`
	} `json:"asset"`
	Alt     string `json:"alt"`
	Caption string `json:"caption"`
}

type rawSpan struct {
	Type  string   `json:"_type"`
	Text  string   `json:"text"`
	Marks []string `json:"marks"`
}

type rawMarkDef struct {
	Key  string `json:"_key"`
	Type string `json:"_type"`
	Href string `json:"href"`
}

// Parse converts portable text into Blocks. Blocks of an unknown type or with a
// missing payload are dropped and counted in skipped; only a payload that is not
// an array at all is an error. resolve, when non-nil, turns image asset refs into URLs.
func Parse(raw json.RawMessage, resolve func(ref string) string) (Blocks, int, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return nil, 0, nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	out := make(Blocks, 0, len(items))
	skipped := 0
	for _, item := range items {
		var rb rawBlock
		if err := json.Unmarshal(item, &rb); err != nil {
			skipped++
			continue
		}
		block, ok := convert(rb, resolve)
		if !ok {
			skipped++
			continue
		}
		out = append(out, block)
	}
	return out, skipped, nil
}

func convert(rb rawBlock, resolve func(ref string) string) (Block, bool) {
	switch rb.Type {
	case "block":
		block := Block{Spans: convertSpans(rb.Children, rb.MarkDefs)}
		switch rb.Style {
		case "", "normal":
			block.Kind = KindParagraph
		case "h2", "h3", "h4":
			block.Kind = KindHeading
			block.Level = int(rb.Style[1] - '0')
		case "blockquote":
			block.Kind = KindQuote
		default:
			return Block{}, false
		}
		if block.Kind == KindParagraph && (rb.ListItem == ListBullet || rb.ListItem == ListNumber) {
			block.ListItem = rb.ListItem
		}
		return block, true
	case "image":
		if rb.Asset == nil || rb.Asset.Ref == "" {
			return Block{}, false
		}
		img := &Image{AssetRef: rb.Asset.Ref, Alt: rb.Alt, Caption: rb.Caption}
		if resolve != nil {
			img.URL = resolve(rb.Asset.Ref)
		}
		return Block{Kind: KindImage, Image: img}, true
	default:
		return Block{}, false
	}
}

func convertSpans(children []rawSpan, defs []rawMarkDef) []Span {
	links := make(map[string]string, len(defs))
	for _, def := range defs {
		if def.Type == "link" && def.Key != "" {
			links[def.Key] = def.Href
		}
	}

	spans := make([]Span, 0, len(children))
	for _, child := range children {
		if child.Type != "" && child.Type != "span" {
			continue
		}
		span := Span{Text: child.Text}
		for _, mark := range child.Marks {
			switch mark {
			case MarkStrong, MarkEm, MarkCode:
				span.Marks = append(span.Marks, mark)
			default:
				if href, ok := links[mark]; ok {
					span.Link = href
				}
			}
		}
		spans = append(spans, span)
	}
	return spans
}
