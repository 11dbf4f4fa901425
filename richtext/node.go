// Package richtext models the editor's JSON document tree and renders it as
// HTML. The tree is a tagged recursive variant: every node has a Kind, block
// nodes carry children, text nodes carry a string payload and inline marks.
// Fields the editor emits that this package does not model are kept verbatim
// so a document survives a storage round trip unchanged.
package richtext

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// Kind is the node type tag.
type Kind string

const (
	KindDoc            Kind = "doc"
	KindParagraph      Kind = "paragraph"
	KindHeading        Kind = "heading"
	KindText           Kind = "text"
	KindBulletList     Kind = "bulletList"
	KindOrderedList    Kind = "orderedList"
	KindListItem       Kind = "listItem"
	KindBlockquote     Kind = "blockquote"
	KindCodeBlock      Kind = "codeBlock"
	KindHardBreak      Kind = "hardBreak"
	KindHorizontalRule Kind = "horizontalRule"
	KindImage          Kind = "image"
)

// Mark types applied to text nodes.
const (
	MarkBold      = "bold"
	MarkItalic    = "italic"
	MarkStrike    = "strike"
	MarkUnderline = "underline"
	MarkCode      = "code"
	MarkLink      = "link"
)

// Attrs holds node or mark attributes as raw JSON values.
type Attrs map[string]json.RawMessage

// String returns the attribute as a string, or "" if missing or not a string.
func (a Attrs) String(key string) string {
	raw, ok := a[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

// Int returns the attribute as an int.
func (a Attrs) Int(key string) (int, bool) {
	raw, ok := a[key]
	if !ok {
		return 0, false
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return 0, false
	}
	return int(f), true
}

// With returns a copy of a with key set to the JSON encoding of v.
func (a Attrs) With(key string, v any) Attrs {
	out := make(Attrs, len(a)+1)
	for k, val := range a {
		out[k] = val
	}
	b, err := json.Marshal(v)
	if err != nil {
		b = []byte("null")
	}
	out[key] = b
	return out
}

// Mark is an inline annotation on a text node.
type Mark struct {
	Type  string
	Attrs Attrs

	extra map[string]json.RawMessage
}

// Node is one element of a document tree.
type Node struct {
	Type    Kind
	Attrs   Attrs
	Content []*Node
	Text    string
	Marks   []Mark

	extra map[string]json.RawMessage
}

// Parse decodes a document. Empty input and JSON null yield a nil node.
func Parse(data []byte) (*Node, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil, nil
	}
	var n Node
	if err := json.Unmarshal(data, &n); err != nil {
		return nil, fmt.Errorf("richtext: parse document: %w", err)
	}
	return &n, nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (n *Node) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*n = Node{}
	for k, v := range raw {
		var err error
		switch k {
		case "type":
			var s string
			err = json.Unmarshal(v, &s)
			n.Type = Kind(s)
		case "attrs":
			err = json.Unmarshal(v, &n.Attrs)
		case "content":
			if err = json.Unmarshal(v, &n.Content); err == nil {
				for i, c := range n.Content {
					if c == nil {
						err = fmt.Errorf("child %d is null", i)
						break
					}
				}
			}
		case "text":
			err = json.Unmarshal(v, &n.Text)
		case "marks":
			err = json.Unmarshal(v, &n.Marks)
		default:
			if n.extra == nil {
				n.extra = make(map[string]json.RawMessage)
			}
			n.extra[k] = v
		}
		if err != nil {
			return fmt.Errorf("richtext: field %q: %w", k, err)
		}
	}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (n Node) MarshalJSON() ([]byte, error) {
	fields := make(map[string]any, 5+len(n.extra))
	for k, v := range n.extra {
		fields[k] = v
	}
	if n.Type != "" {
		fields["type"] = n.Type
	}
	if n.Attrs != nil {
		fields["attrs"] = n.Attrs
	}
	if n.Content != nil {
		fields["content"] = n.Content
	}
	if n.Text != "" || n.Type == KindText {
		fields["text"] = n.Text
	}
	if n.Marks != nil {
		fields["marks"] = n.Marks
	}
	return marshalOrdered(fields)
}

// UnmarshalJSON implements json.Unmarshaler.
func (m *Mark) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*m = Mark{}
	for k, v := range raw {
		var err error
		switch k {
		case "type":
			err = json.Unmarshal(v, &m.Type)
		case "attrs":
			err = json.Unmarshal(v, &m.Attrs)
		default:
			if m.extra == nil {
				m.extra = make(map[string]json.RawMessage)
			}
			m.extra[k] = v
		}
		if err != nil {
			return fmt.Errorf("richtext: mark field %q: %w", k, err)
		}
	}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (m Mark) MarshalJSON() ([]byte, error) {
	fields := make(map[string]any, 2+len(m.extra))
	for k, v := range m.extra {
		fields[k] = v
	}
	fields["type"] = m.Type
	if m.Attrs != nil {
		fields["attrs"] = m.Attrs
	}
	return marshalOrdered(fields)
}

// fieldOrder puts the well-known keys first, the way the editor writes them.
var fieldOrder = map[string]int{"type": 0, "attrs": 1, "content": 2, "marks": 3, "text": 4}

func marshalOrdered(fields map[string]any) ([]byte, error) {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		oi, iok := fieldOrder[keys[i]]
		oj, jok := fieldOrder[keys[j]]
		switch {
		case iok && jok:
			return oi < oj
		case iok != jok:
			return iok
		default:
			return keys[i] < keys[j]
		}
	})

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, _ := json.Marshal(k)
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := json.Marshal(fields[k])
		if err != nil {
			return nil, err
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Walk visits n and its descendants depth-first, pre-order. Returning false
// from fn skips the node's children.
func (n *Node) Walk(fn func(*Node) bool) {
	if n == nil {
		return
	}
	if !fn(n) {
		return
	}
	for _, c := range n.Content {
		c.Walk(fn)
	}
}

// HasMark reports whether the node carries a mark of the given type.
func (n *Node) HasMark(typ string) bool {
	for _, m := range n.Marks {
		if m.Type == typ {
			return true
		}
	}
	return false
}

// NewDoc returns a document node wrapping children.
func NewDoc(children ...*Node) *Node {
	return &Node{Type: KindDoc, Content: children}
}

// Heading returns a heading node of the given level holding text.
func Heading(level int, text string) *Node {
	return &Node{
		Type:    KindHeading,
		Attrs:   Attrs{}.With("level", level),
		Content: []*Node{Text(text)},
	}
}

// Paragraph returns a paragraph node holding text.
func Paragraph(text string) *Node {
	return &Node{Type: KindParagraph, Content: []*Node{Text(text)}}
}

// Text returns a plain text leaf.
func Text(s string) *Node {
	return &Node{Type: KindText, Text: s}
}
