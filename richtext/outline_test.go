package richtext

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromOutline(t *testing.T) {
	src := "# Title\n\nFirst paragraph\ncontinues here.\n\n- one\n- two\n\n3. three\n4. four\n\n> quoted\n\n```go\nfmt.Println(1)\n```\n\n---"
	doc := FromOutline(src)
	require.NotNil(t, doc)
	require.Len(t, doc.Content, 7)

	kinds := []Kind{KindHeading, KindParagraph, KindBulletList, KindOrderedList, KindBlockquote, KindCodeBlock, KindHorizontalRule}
	for i, k := range kinds {
		assert.Equal(t, k, doc.Content[i].Type, "block %d", i)
	}
	lvl, _ := doc.Content[0].Attrs.Int("level")
	assert.Equal(t, 1, lvl)
	assert.Equal(t, "First paragraph continues here.", PlainText(doc.Content[1]))
	assert.Len(t, doc.Content[2].Content, 2)
	start, _ := doc.Content[3].Attrs.Int("start")
	assert.Equal(t, 3, start)
	assert.Equal(t, "go", doc.Content[5].Attrs.String("language"))
	assert.Equal(t, "fmt.Println(1)", PlainText(doc.Content[5]))
}

func TestFromOutlineEmpty(t *testing.T) {
	assert.Nil(t, FromOutline("  \n\n "))
	assert.Equal(t, 0, ReadTime(FromOutline("")))
}

func TestOutlineRoundTrip(t *testing.T) {
	src := "## Heading\n\nA paragraph.\n\n- a\n- b\n\n1. x\n2. y\n\n> q\n\n```\ncode\n```"
	assert.Equal(t, src, Outline(FromOutline(src)))
}

func TestHeadingLevel(t *testing.T) {
	tests := map[string]int{
		"# a":       1,
		"###### f":  6,
		"####### g": 0,
		"#nospace":  0,
		"#":         0,
		"plain":     0,
	}
	for in, want := range tests {
		if got := headingLevel(in); got != want {
			t.Errorf("headingLevel(%q) = %d, want %d", in, got, want)
		}
	}
}
