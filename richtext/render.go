package richtext

import (
	"bytes"
	"context"
	"html"
	"io"
	"net/url"
	"strconv"
	"strings"

	"github.com/a-h/templ"
)

// Component returns a templ.Component that renders doc as HTML.
func Component(doc *Node) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var buf bytes.Buffer
		RenderHTML(&buf, doc)
		_, err := w.Write(buf.Bytes())
		return err
	})
}

// RenderHTML writes the HTML representation of doc to buf. Unknown node
// kinds render their children only.
func RenderHTML(buf *bytes.Buffer, doc *Node) {
	if doc == nil {
		return
	}
	renderNode(buf, doc)
}

func renderNode(buf *bytes.Buffer, n *Node) {
	if n == nil {
		return
	}
	switch n.Type {
	case KindText:
		renderText(buf, n)
		return
	case KindHardBreak:
		buf.WriteString("<br>")
		return
	case KindHorizontalRule:
		buf.WriteString("<hr>")
		return
	case KindImage:
		src := SafeURL(n.Attrs.String("src"))
		if src == "" {
			return
		}
		buf.WriteString(`<img src="` + src + `" alt="` + html.EscapeString(n.Attrs.String("alt")) + `" loading="lazy"`)
		if title := n.Attrs.String("title"); title != "" {
			buf.WriteString(` title="` + html.EscapeString(title) + `"`)
		}
		buf.WriteString(">")
		return
	}

	openTag, closeTag := blockTags(n)
	buf.WriteString(openTag)
	if n.Type == KindCodeBlock {
		// Code blocks hold raw text; marks inside are not rendered.
		buf.WriteString(html.EscapeString(PlainText(n)))
	} else {
		for _, c := range n.Content {
			renderNode(buf, c)
		}
	}
	buf.WriteString(closeTag)
}

func blockTags(n *Node) (string, string) {
	switch n.Type {
	case KindParagraph:
		return "<p>", "</p>"
	case KindHeading:
		level, ok := n.Attrs.Int("level")
		if !ok || level < 1 || level > 6 {
			level = 2
		}
		l := strconv.Itoa(level)
		return "<h" + l + ">", "</h" + l + ">"
	case KindBulletList:
		return "<ul>", "</ul>"
	case KindOrderedList:
		if start, ok := n.Attrs.Int("start"); ok && start != 1 {
			return `<ol start="` + strconv.Itoa(start) + `">`, "</ol>"
		}
		return "<ol>", "</ol>"
	case KindListItem:
		return "<li>", "</li>"
	case KindBlockquote:
		return "<blockquote>", "</blockquote>"
	case KindCodeBlock:
		if lang := n.Attrs.String("language"); lang != "" {
			return `<pre><code class="language-` + html.EscapeString(lang) + `">`, "</code></pre>"
		}
		return "<pre><code>", "</code></pre>"
	default:
		return "", ""
	}
}

// markOrder fixes the nesting order of inline tags so output is stable.
var markOrder = []string{MarkLink, MarkBold, MarkItalic, MarkUnderline, MarkStrike, MarkCode}

func renderText(buf *bytes.Buffer, n *Node) {
	var closers []string
	for _, typ := range markOrder {
		for _, m := range n.Marks {
			if m.Type != typ {
				continue
			}
			switch typ {
			case MarkLink:
				href := SafeURL(m.Attrs.String("href"))
				if href == "" {
					continue
				}
				buf.WriteString(`<a href="` + href + `" rel="noopener noreferrer" target="_blank">`)
				closers = append(closers, "</a>")
			case MarkBold:
				buf.WriteString("<strong>")
				closers = append(closers, "</strong>")
			case MarkItalic:
				buf.WriteString("<em>")
				closers = append(closers, "</em>")
			case MarkUnderline:
				buf.WriteString("<u>")
				closers = append(closers, "</u>")
			case MarkStrike:
				buf.WriteString("<s>")
				closers = append(closers, "</s>")
			case MarkCode:
				buf.WriteString("<code>")
				closers = append(closers, "</code>")
			}
			break
		}
	}
	buf.WriteString(html.EscapeString(n.Text))
	for i := len(closers) - 1; i >= 0; i-- {
		buf.WriteString(closers[i])
	}
}

// SafeURL validates and sanitizes a URL for use in HTML attributes.
func SafeURL(raw string) string {
	val := strings.TrimSpace(html.UnescapeString(raw))
	if val == "" {
		return ""
	}
	if strings.HasPrefix(val, "/") || strings.HasPrefix(val, "#") {
		return html.EscapeString(val)
	}
	parsed, err := url.Parse(val)
	if err != nil || parsed.Scheme == "" {
		return ""
	}
	switch strings.ToLower(parsed.Scheme) {
	case "http", "https", "mailto", "tel":
		return html.EscapeString(val)
	default:
		return ""
	}
}
