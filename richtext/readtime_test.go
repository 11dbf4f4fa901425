package richtext

import (
	"strings"
	"testing"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func words(n int) string {
	return strings.TrimSpace(strings.Repeat("word ", n))
}

func TestReadTime(t *testing.T) {
	tests := []struct {
		name string
		doc  *Node
		want int
	}{
		{"nil body", nil, 0},
		{"empty doc", NewDoc(), 0},
		{"whitespace only", NewDoc(Paragraph("   \n\t ")), 0},
		{"one word", NewDoc(Paragraph("hello")), 1},
		{"exactly 200", NewDoc(Paragraph(words(200))), 1},
		{"201 words", NewDoc(Paragraph(words(201))), 2},
		{"split across paragraphs", NewDoc(Paragraph(words(150)), Paragraph(words(150))), 2},
		{"1000 words", NewDoc(Paragraph(words(1000))), 5},
	}
	for _, tt := range tests {
		if got := ReadTime(tt.doc); got != tt.want {
			t.Errorf("%s: ReadTime = %d, want %d", tt.name, got, tt.want)
		}
	}
}

func TestPlainTextJoinsSiblingsWithSpace(t *testing.T) {
	doc := NewDoc(
		Heading(2, "Title"),
		&Node{Type: KindParagraph, Content: []*Node{Text("one"), Text("two")}},
	)
	got := PlainText(doc)
	if got != "Title one two" {
		t.Errorf("PlainText = %q, want %q", got, "Title one two")
	}
	// Adjacent text nodes never glue words together.
	if WordCount(doc) != 3 {
		t.Errorf("WordCount = %d, want 3", WordCount(doc))
	}
}

func TestReadTimeDeterministic(t *testing.T) {
	doc := NewDoc(Paragraph(words(450)), Heading(3, words(20)))
	first := ReadTime(doc)
	for i := 0; i < 5; i++ {
		if got := ReadTime(doc); got != first {
			t.Fatalf("ReadTime not deterministic: %d vs %d", got, first)
		}
	}
	if first != 3 {
		t.Errorf("ReadTime = %d, want 3", first)
	}
}

func TestWalkPreOrder(t *testing.T) {
	doc := NewDoc(Heading(2, "a"), Paragraph("b"))
	var kinds []Kind
	doc.Walk(func(n *Node) bool {
		kinds = append(kinds, n.Type)
		return true
	})
	want := []Kind{KindDoc, KindHeading, KindText, KindParagraph, KindText}
	if len(kinds) != len(want) {
		t.Fatalf("visited %v, want %v", kinds, want)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Errorf("visit %d = %s, want %s", i, kinds[i], want[i])
		}
	}
}
