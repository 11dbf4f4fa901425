package richtext

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func render(doc *Node) string {
	var buf bytes.Buffer
	RenderHTML(&buf, doc)
	return buf.String()
}

func TestRenderHeadingAndParagraph(t *testing.T) {
	got := render(NewDoc(Heading(2, "Title"), Paragraph("Body <b>")))
	want := "<h2>Title</h2><p>Body &lt;b&gt;</p>"
	if got != want {
		t.Errorf("RenderHTML = %q, want %q", got, want)
	}
}

func TestRenderMarks(t *testing.T) {
	text := &Node{Type: KindText, Text: "x", Marks: []Mark{{Type: MarkItalic}, {Type: MarkBold}}}
	got := render(&Node{Type: KindParagraph, Content: []*Node{text}})
	want := "<p><strong><em>x</em></strong></p>"
	if got != want {
		t.Errorf("RenderHTML = %q, want %q", got, want)
	}
}

func TestRenderLinkSanitized(t *testing.T) {
	safe := &Node{Type: KindText, Text: "ok", Marks: []Mark{{Type: MarkLink, Attrs: Attrs{}.With("href", "https://go.dev")}}}
	bad := &Node{Type: KindText, Text: "bad", Marks: []Mark{{Type: MarkLink, Attrs: Attrs{}.With("href", "javascript:alert(1)")}}}
	got := render(&Node{Type: KindParagraph, Content: []*Node{safe, bad}})
	if !strings.Contains(got, `<a href="https://go.dev" rel="noopener noreferrer" target="_blank">ok</a>`) {
		t.Errorf("missing safe link: %q", got)
	}
	if strings.Contains(got, "javascript") {
		t.Errorf("unsafe href rendered: %q", got)
	}
	if !strings.Contains(got, "bad") {
		t.Errorf("link text dropped: %q", got)
	}
}

func TestRenderLists(t *testing.T) {
	item := func(s string) *Node {
		return &Node{Type: KindListItem, Content: []*Node{Paragraph(s)}}
	}
	ul := &Node{Type: KindBulletList, Content: []*Node{item("a"), item("b")}}
	ol := &Node{Type: KindOrderedList, Attrs: Attrs{}.With("start", 3), Content: []*Node{item("c")}}
	got := render(NewDoc(ul, ol))
	want := `<ul><li><p>a</p></li><li><p>b</p></li></ul><ol start="3"><li><p>c</p></li></ol>`
	if got != want {
		t.Errorf("RenderHTML = %q, want %q", got, want)
	}
}

func TestRenderCodeBlock(t *testing.T) {
	code := &Node{Type: KindCodeBlock, Attrs: Attrs{}.With("language", "go"), Content: []*Node{Text("a < b")}}
	got := render(NewDoc(code))
	want := `<pre><code class="language-go">a &lt; b</code></pre>`
	if got != want {
		t.Errorf("RenderHTML = %q, want %q", got, want)
	}
}

func TestRenderUnknownKindRendersChildren(t *testing.T) {
	got := render(NewDoc(&Node{Type: "callout", Content: []*Node{Paragraph("inside")}}))
	if got != "<p>inside</p>" {
		t.Errorf("RenderHTML = %q", got)
	}
}

func TestComponent(t *testing.T) {
	var buf bytes.Buffer
	if err := Component(NewDoc(Paragraph("hi"))).Render(context.Background(), &buf); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if buf.String() != "<p>hi</p>" {
		t.Errorf("Component = %q", buf.String())
	}
}

func TestSafeURL(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"https://example.com/a?b=1&c=2", "https://example.com/a?b=1&amp;c=2"},
		{"/local/path", "/local/path"},
		{"#anchor", "#anchor"},
		{"mailto:me@example.com", "mailto:me@example.com"},
		{"javascript:alert(1)", ""},
		{"data:text/html;base64,xx", ""},
		{"relative/path", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := SafeURL(tt.in); got != tt.want {
			t.Errorf("SafeURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
