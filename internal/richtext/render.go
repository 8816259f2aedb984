package richtext

import (
	"fmt"
	"html"
	"strings"
)

// RenderHTML renders blocks with the same element vocabulary the site uses.
// Consecutive list items of the same kind are grouped into one list element.
func RenderHTML(blocks Blocks) string {
	var b strings.Builder
	openList := ""

	closeList := func() {
		switch openList {
		case ListBullet:
			b.WriteString("</ul>")
		case ListNumber:
			b.WriteString("</ol>")
		}
		openList = ""
	}

	for _, block := range blocks {
		if block.ListItem != openList {
			closeList()
			switch block.ListItem {
			case ListBullet:
				b.WriteString("<ul>")
			case ListNumber:
				b.WriteString("<ol>")
			}
			openList = block.ListItem
		}

		switch block.Kind {
		case KindParagraph:
			if block.ListItem != "" {
				b.WriteString("<li>")
				writeSpans(&b, block.Spans)
				b.WriteString("</li>")
				continue
			}
			b.WriteString("<p>")
			writeSpans(&b, block.Spans)
			b.WriteString("</p>")
		case KindHeading:
			level := block.Level
			if level < 2 || level > 4 {
				level = 2
			}
			fmt.Fprintf(&b, "<h%d>", level)
			writeSpans(&b, block.Spans)
			fmt.Fprintf(&b, "</h%d>", level)
		case KindQuote:
			b.WriteString("<blockquote>")
			writeSpans(&b, block.Spans)
			b.WriteString("</blockquote>")
		case KindImage:
			if block.Image == nil || block.Image.URL == "" {
				continue
			}
			b.WriteString("<figure>")
			fmt.Fprintf(&b, `<img src="%s" alt="%s"/>`, html.EscapeString(block.Image.URL), html.EscapeString(block.Image.Alt))
			if block.Image.Caption != "" {
				fmt.Fprintf(&b, "<figcaption>%s</figcaption>", html.EscapeString(block.Image.Caption))
			}
			b.WriteString("</figure>")
		}
	}
	closeList()
	return b.String()
}

func writeSpans(b *strings.Builder, spans []Span) {
	for _, span := range spans {
		text := html.EscapeString(span.Text)
		for _, mark := range span.Marks {
			switch mark {
			case MarkStrong:
				text = "<strong>" + text + "</strong>"
			case MarkEm:
				text = "<em>" + text + "</em>"
			case MarkCode:
				text = "<code>" + text + "</code>"
			}
		}
		if href, external, ok := safeHref(span.Link); ok {
			if external {
				text = fmt.Sprintf(`<a href="%s" target="_blank" rel="noopener noreferrer">%s</a>`, html.EscapeString(href), text)
			} else {
				text = fmt.Sprintf(`<a href="%s">%s</a>`, html.EscapeString(href), text)
			}
		}
		b.WriteString(text)
	}
}

func safeHref(href string) (string, bool, bool) {
	href = strings.TrimSpace(href)
	switch {
	case href == "":
		return "", false, false
	case strings.HasPrefix(href, "https://"), strings.HasPrefix(href, "http://"):
		return href, true, true
	case strings.HasPrefix(href, "mailto:"):
		return href, false, true
	case strings.HasPrefix(href, "/") && !strings.HasPrefix(href, "//"):
		return href, false, true
	default:
		return "", false, false
	}
}
