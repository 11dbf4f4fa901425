package richtext

import "strings"

// WordsPerMinute is the reading speed used for read-time estimates.
const WordsPerMinute = 200

// PlainText flattens a node to text. A node with a text payload yields that
// payload; otherwise its children's texts are joined by a single space.
func PlainText(n *Node) string {
	if n == nil {
		return ""
	}
	if n.Text != "" {
		return n.Text
	}
	if len(n.Content) == 0 {
		return ""
	}
	parts := make([]string, len(n.Content))
	for i, c := range n.Content {
		parts[i] = PlainText(c)
	}
	return strings.Join(parts, " ")
}

// WordCount returns the number of whitespace-separated tokens in n.
func WordCount(n *Node) int {
	return len(strings.Fields(PlainText(n)))
}

// ReadTime estimates minutes to read n: 0 for an absent or wordless body,
// otherwise ceil(words/200) and never less than 1.
func ReadTime(n *Node) int {
	words := WordCount(n)
	if words == 0 {
		return 0
	}
	minutes := (words + WordsPerMinute - 1) / WordsPerMinute
	if minutes < 1 {
		minutes = 1
	}
	return minutes
}
