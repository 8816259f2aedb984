package richtext

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

const samplePortableText = `[
  {"_type":"block","style":"h2","children":[{"_type":"span","text":"Overview"}]},
  {"_type":"block","style":"normal","markDefs":[{"_key":"l1","_type":"link","href":"https://pluscode.dev"}],
   "children":[{"_type":"span","text":"Built by "},{"_type":"span","text":"PlusCode","marks":["strong","l1"]}]},
  {"_type":"block","style":"normal","listItem":"bullet","children":[{"_type":"span","text":"one"}]},
  {"_type":"block","style":"normal","listItem":"bullet","children":[{"_type":"span","text":"two"}]},
  {"_type":"block","style":"blockquote","children":[{"_type":"span","text":"<quoted>"}]},
  {"_type":"image","asset":{"_ref":"image-abc123-1200x800-png"},"alt":"Dashboard","caption":"Results"},
  {"_type":"codeSnippet","code":"fmt.Println()"},
  {"_type":"image","alt":"no asset"}
]`

func resolver(ref string) string {
	return ImageURL("proj", "production", ref)
}

func TestParseSkipsUnknownBlocks(t *testing.T) {
	blocks, skipped, err := Parse(json.RawMessage(samplePortableText), resolver)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if skipped != 2 {
		t.Fatalf("expected 2 skipped blocks, got %d", skipped)
	}
	if len(blocks) != 6 {
		t.Fatalf("expected 6 blocks, got %d", len(blocks))
	}
	if blocks[0].Kind != KindHeading || blocks[0].Level != 2 {
		t.Fatalf("expected h2 heading, got %+v", blocks[0])
	}
	if blocks[1].Spans[1].Link != "https://pluscode.dev" {
		t.Fatalf("expected link resolved from mark defs, got %+v", blocks[1].Spans[1])
	}
	if blocks[2].ListItem != ListBullet {
		t.Fatalf("expected bullet list item")
	}
	img := blocks[5].Image
	if img == nil || img.URL != "https://cdn.sanity.io/images/proj/production/abc123-1200x800.png" {
		t.Fatalf("unexpected image block %+v", img)
	}
}

func TestParseEmptyAndMalformed(t *testing.T) {
	blocks, skipped, err := Parse(nil, nil)
	if err != nil || blocks != nil || skipped != 0 {
		t.Fatalf("expected empty result for nil payload")
	}
	if _, _, err := Parse(json.RawMessage(`null`), nil); err != nil {
		t.Fatalf("expected null to parse as empty, got %v", err)
	}
	if _, _, err := Parse(json.RawMessage(`{"_type":"block"}`), nil); !errors.Is(err, ErrMalformed) {
		t.Fatalf("expected ErrMalformed, got %v", err)
	}
}

func TestRenderHTML(t *testing.T) {
	blocks, _, err := Parse(json.RawMessage(samplePortableText), resolver)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(RenderHTML(blocks)))
	if err != nil {
		t.Fatalf("parse html: %v", err)
	}

	if got := doc.Find("h2").Text(); got != "Overview" {
		t.Fatalf("expected heading text, got %q", got)
	}
	link := doc.Find("p a")
	if href, _ := link.Attr("href"); href != "https://pluscode.dev" {
		t.Fatalf("expected external link, got %q", href)
	}
	if rel, _ := link.Attr("rel"); rel != "noopener noreferrer" {
		t.Fatalf("expected rel on external link, got %q", rel)
	}
	if link.Find("strong").Length() != 1 {
		t.Fatalf("expected strong inside link")
	}
	if n := doc.Find("ul").Length(); n != 1 {
		t.Fatalf("expected list items grouped into one ul, got %d", n)
	}
	if n := doc.Find("ul li").Length(); n != 2 {
		t.Fatalf("expected 2 list items, got %d", n)
	}
	if got := doc.Find("blockquote").Text(); got != "<quoted>" {
		t.Fatalf("expected escaped quote text, got %q", got)
	}
	if src, _ := doc.Find("figure img").Attr("src"); !strings.HasSuffix(src, "abc123-1200x800.png") {
		t.Fatalf("unexpected image src %q", src)
	}
	if got := doc.Find("figcaption").Text(); got != "Results" {
		t.Fatalf("unexpected caption %q", got)
	}
}

func TestRenderHTMLDropsUnsafeLinks(t *testing.T) {
	blocks := Blocks{{Kind: KindParagraph, Spans: []Span{{Text: "click", Link: "javascript:alert(1)"}}}}
	out := RenderHTML(blocks)
	if strings.Contains(out, "<a") {
		t.Fatalf("expected unsafe link to be dropped, got %s", out)
	}
	if out != "<p>click</p>" {
		t.Fatalf("unexpected output %s", out)
	}
}

func TestImageURL(t *testing.T) {
	cases := map[string]string{
		"image-abc-100x200-jpg":     "https://cdn.sanity.io/images/p/d/abc-100x200.jpg",
		"image-a-b-c-640x480-webp":  "https://cdn.sanity.io/images/p/d/a-b-c-640x480.webp",
		"file-abc-pdf":              "",
		"image-abc-jpg":             "",
		"image-abc-nodimension-png": "",
	}
	for ref, want := range cases {
		if got := ImageURL("p", "d", ref); got != want {
			t.Fatalf("ImageURL(%q) = %q, want %q", ref, got, want)
		}
	}
	if got := ImageURL("", "d", "image-abc-100x200-jpg"); got != "" {
		t.Fatalf("expected empty url without project, got %q", got)
	}
}

func TestPlainText(t *testing.T) {
	blocks := Paragraphs("First.", "  ", "Second.")
	if len(blocks) != 2 {
		t.Fatalf("expected blank paragraphs dropped, got %d", len(blocks))
	}
	if got := blocks.PlainText(); got != "First.\n\nSecond." {
		t.Fatalf("unexpected plain text %q", got)
	}
}
