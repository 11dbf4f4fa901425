package richtext

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const editorDoc = `{
  "type": "doc",
  "content": [
    {"type": "heading", "attrs": {"level": 2, "textAlign": null}, "content": [{"type": "text", "text": "Intro"}]},
    {"type": "paragraph", "content": [
      {"type": "text", "text": "Read "},
      {"type": "text", "marks": [{"type": "link", "attrs": {"href": "https://example.com", "target": "_blank"}}], "text": "this"}
    ]},
    {"type": "callout", "attrs": {"tone": "info"}, "content": [], "x-editor-id": 42}
  ]
}`

func TestParseRoundTrip(t *testing.T) {
	doc, err := Parse([]byte(editorDoc))
	require.NoError(t, err)
	require.NotNil(t, doc)

	out, err := json.Marshal(doc)
	require.NoError(t, err)

	var want, got any
	require.NoError(t, json.Unmarshal([]byte(editorDoc), &want))
	require.NoError(t, json.Unmarshal(out, &got))
	assert.Equal(t, want, got)
}

func TestParseTypedAccess(t *testing.T) {
	doc, err := Parse([]byte(editorDoc))
	require.NoError(t, err)

	require.Len(t, doc.Content, 3)
	heading := doc.Content[0]
	assert.Equal(t, KindHeading, heading.Type)
	level, ok := heading.Attrs.Int("level")
	assert.True(t, ok)
	assert.Equal(t, 2, level)

	link := doc.Content[1].Content[1]
	assert.True(t, link.HasMark(MarkLink))
	assert.Equal(t, "https://example.com", link.Marks[0].Attrs.String("href"))

	// Unknown kinds keep their empty children slice.
	assert.NotNil(t, doc.Content[2].Content)
	assert.Empty(t, doc.Content[2].Content)
}

func TestParseEmpty(t *testing.T) {
	for _, in := range []string{"", "  ", "null"} {
		doc, err := Parse([]byte(in))
		require.NoError(t, err)
		assert.Nil(t, doc, "input %q", in)
	}
}

func TestParseInvalid(t *testing.T) {
	_, err := Parse([]byte(`{"type": 5}`))
	assert.Error(t, err)

	_, err = Parse([]byte(`[1,2]`))
	assert.Error(t, err)
}

func TestParseRejectsNullChildren(t *testing.T) {
	for _, in := range []string{
		`{"type":"doc","content":[null,{"type":"paragraph","content":[{"type":"text","text":"hi"}]}]}`,
		`{"type":"doc","content":[{"type":"paragraph","content":[null]}]}`,
	} {
		_, err := Parse([]byte(in))
		assert.Error(t, err, "input %s", in)
	}
}

func TestNilChildrenDoNotPanic(t *testing.T) {
	doc := NewDoc(nil, Paragraph("hi"), &Node{Type: KindBulletList, Content: []*Node{nil}})
	assert.Equal(t, "<p>hi</p><ul></ul>", render(doc))
	assert.Equal(t, "hi", Outline(doc))
}

func TestBuildersMarshal(t *testing.T) {
	doc := NewDoc(Heading(2, "Hi"), Paragraph("there"))
	out, err := json.Marshal(doc)
	require.NoError(t, err)
	assert.JSONEq(t,
		`{"type":"doc","content":[{"type":"heading","attrs":{"level":2},"content":[{"type":"text","text":"Hi"}]},{"type":"paragraph","content":[{"type":"text","text":"there"}]}]}`,
		string(out))
}
