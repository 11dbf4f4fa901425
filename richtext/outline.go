package richtext

import (
	"strconv"
	"strings"
)

// FromOutline builds a document from a plain-text outline. Blocks are
// separated by blank lines. A block starting with "#" is a heading (one to
// six hashes), lines starting with "- " or "* " form a bullet list, lines
// starting with "1. " form an ordered list, lines starting with "> " form a
// blockquote, "```" fences a code block and "---" is a horizontal rule.
// Anything else is a paragraph. Empty input yields nil.
func FromOutline(s string) *Node {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	if strings.TrimSpace(s) == "" {
		return nil
	}
	doc := NewDoc()
	lines := strings.Split(s, "\n")
	for i := 0; i < len(lines); {
		line := lines[i]
		if strings.TrimSpace(line) == "" {
			i++
			continue
		}
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			lang := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), "```"))
			var code []string
			i++
			for i < len(lines) && !strings.HasPrefix(strings.TrimSpace(lines[i]), "```") {
				code = append(code, lines[i])
				i++
			}
			i++ // closing fence
			n := &Node{Type: KindCodeBlock}
			if lang != "" {
				n.Attrs = Attrs{}.With("language", lang)
			}
			if text := strings.Join(code, "\n"); text != "" {
				n.Content = []*Node{Text(text)}
			}
			doc.Content = append(doc.Content, n)
			continue
		}

		var block []string
		for i < len(lines) && strings.TrimSpace(lines[i]) != "" && !strings.HasPrefix(strings.TrimSpace(lines[i]), "```") {
			block = append(block, strings.TrimSpace(lines[i]))
			i++
		}
		doc.Content = append(doc.Content, outlineBlock(block)...)
	}
	return doc
}

func outlineBlock(lines []string) []*Node {
	first := lines[0]
	switch {
	case first == "---" && len(lines) == 1:
		return []*Node{{Type: KindHorizontalRule}}
	case headingLevel(first) > 0:
		var out []*Node
		for _, l := range lines {
			if lvl := headingLevel(l); lvl > 0 {
				out = append(out, Heading(lvl, strings.TrimSpace(l[lvl:])))
			} else {
				out = append(out, Paragraph(l))
			}
		}
		return out
	case allPrefixed(lines, "> "):
		quote := &Node{Type: KindBlockquote}
		var text []string
		for _, l := range lines {
			text = append(text, strings.TrimPrefix(l, "> "))
		}
		quote.Content = []*Node{Paragraph(strings.Join(text, " "))}
		return []*Node{quote}
	case allBullets(lines):
		list := &Node{Type: KindBulletList}
		for _, l := range lines {
			list.Content = append(list.Content, listItem(l[2:]))
		}
		return []*Node{list}
	case allNumbered(lines):
		list := &Node{Type: KindOrderedList}
		for j, l := range lines {
			_, rest, _ := strings.Cut(l, ". ")
			if j == 0 {
				if n, err := strconv.Atoi(l[:strings.Index(l, ".")]); err == nil && n != 1 {
					list.Attrs = Attrs{}.With("start", n)
				}
			}
			list.Content = append(list.Content, listItem(rest))
		}
		return []*Node{list}
	}
	return []*Node{Paragraph(strings.Join(lines, " "))}
}

func listItem(text string) *Node {
	return &Node{Type: KindListItem, Content: []*Node{Paragraph(strings.TrimSpace(text))}}
}

func headingLevel(line string) int {
	n := 0
	for n < len(line) && line[n] == '#' {
		n++
	}
	if n == 0 || n > 6 || n >= len(line) || line[n] != ' ' {
		return 0
	}
	return n
}

func allPrefixed(lines []string, prefix string) bool {
	for _, l := range lines {
		if !strings.HasPrefix(l, prefix) {
			return false
		}
	}
	return true
}

func allBullets(lines []string) bool {
	for _, l := range lines {
		if !strings.HasPrefix(l, "- ") && !strings.HasPrefix(l, "* ") {
			return false
		}
	}
	return true
}

func allNumbered(lines []string) bool {
	for _, l := range lines {
		num, _, ok := strings.Cut(l, ". ")
		if !ok || num == "" {
			return false
		}
		if _, err := strconv.Atoi(num); err != nil {
			return false
		}
	}
	return true
}

// Outline renders doc in the format FromOutline reads. Marks, images and
// unknown attributes are not represented.
func Outline(doc *Node) string {
	if doc == nil {
		return ""
	}
	var blocks []string
	for _, n := range doc.Content {
		if n == nil {
			continue
		}
		if b := outlineOf(n); b != "" {
			blocks = append(blocks, b)
		}
	}
	return strings.Join(blocks, "\n\n")
}

func outlineOf(n *Node) string {
	switch n.Type {
	case KindHeading:
		level, ok := n.Attrs.Int("level")
		if !ok || level < 1 || level > 6 {
			level = 2
		}
		return strings.Repeat("#", level) + " " + PlainText(n)
	case KindBulletList, KindOrderedList:
		start := 1
		if s, ok := n.Attrs.Int("start"); ok {
			start = s
		}
		var items []string
		for i, item := range n.Content {
			if item == nil {
				continue
			}
			prefix := "- "
			if n.Type == KindOrderedList {
				prefix = strconv.Itoa(start+i) + ". "
			}
			items = append(items, prefix+PlainText(item))
		}
		return strings.Join(items, "\n")
	case KindBlockquote:
		return "> " + PlainText(n)
	case KindCodeBlock:
		return "```" + n.Attrs.String("language") + "\n" + PlainText(n) + "\n```"
	case KindHorizontalRule:
		return "---"
	case KindImage:
		return ""
	}
	return PlainText(n)
}
