// Package document implements the document tree tags consumed by a
// renderer (not specified here): tagged values with known tags
// ElementStripe, ElementStack, ElementButton, ElementTextInput,
// ElementLabel, ElementLink, ElementCheckbox, ElementParagraph,
// ElementContainer, wrapped in DocumentNew{root}, per spec.md §6.
//
// Grounded on value.TaggedObject for the tag+fields shape, and on
// nevindra-oasis's goldmark-based Markdown-to-AST parse step for
// ElementParagraph/ElementLabel rich-text content (this package exposes
// only the parse step; rendering is out of scope per spec.md §1).
package document

import (
	"bytes"

	"github.com/boonlang/boon-runtime/value"
	"github.com/yuin/goldmark"
	goldast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// Element tag names, per spec.md §6.
const (
	TagElementStripe    = "ElementStripe"
	TagElementStack     = "ElementStack"
	TagElementButton    = "ElementButton"
	TagElementTextInput = "ElementTextInput"
	TagElementLabel     = "ElementLabel"
	TagElementLink      = "ElementLink"
	TagElementCheckbox  = "ElementCheckbox"
	TagElementParagraph = "ElementParagraph"
	TagElementContainer = "ElementContainer"
	TagDocumentNew      = "DocumentNew"
)

// NewElement builds a TaggedObject for tag with the given fields, the
// shape every ElementX constructor below delegates to.
func NewElement(tag string, fields []value.Field) value.TaggedObject {
	return value.NewTaggedObject(tag, fields)
}

// Stripe builds an ElementStripe{children} node: a horizontal layout
// container.
func Stripe(children any) value.TaggedObject {
	return NewElement(TagElementStripe, []value.Field{{Name: "children", Handle: children}})
}

// Stack builds an ElementStack{children} node: a vertical layout
// container.
func Stack(children any) value.TaggedObject {
	return NewElement(TagElementStack, []value.Field{{Name: "children", Handle: children}})
}

// Button builds an ElementButton{label, on_press} node.
func Button(label any, onPress any) value.TaggedObject {
	return NewElement(TagElementButton, []value.Field{
		{Name: "label", Handle: label},
		{Name: "on_press", Handle: onPress},
	})
}

// TextInput builds an ElementTextInput{value, on_change} node.
func TextInput(val any, onChange any) value.TaggedObject {
	return NewElement(TagElementTextInput, []value.Field{
		{Name: "value", Handle: val},
		{Name: "on_change", Handle: onChange},
	})
}

// Label builds an ElementLabel{content} node, where content may be a
// plain Text or the result of ParseMarkdown.
func Label(content any) value.TaggedObject {
	return NewElement(TagElementLabel, []value.Field{{Name: "content", Handle: content}})
}

// Link builds an ElementLink{label, route} node.
func Link(label any, route any) value.TaggedObject {
	return NewElement(TagElementLink, []value.Field{
		{Name: "label", Handle: label},
		{Name: "route", Handle: route},
	})
}

// Checkbox builds an ElementCheckbox{checked, on_toggle} node.
func Checkbox(checked any, onToggle any) value.TaggedObject {
	return NewElement(TagElementCheckbox, []value.Field{
		{Name: "checked", Handle: checked},
		{Name: "on_toggle", Handle: onToggle},
	})
}

// Paragraph builds an ElementParagraph{content} node, where content may
// be a plain Text or the result of ParseMarkdown.
func Paragraph(content any) value.TaggedObject {
	return NewElement(TagElementParagraph, []value.Field{{Name: "content", Handle: content}})
}

// Container builds an ElementContainer{child} node: a single-child
// wrapper used for padding/styling composition.
func Container(child any) value.TaggedObject {
	return NewElement(TagElementContainer, []value.Field{{Name: "child", Handle: child}})
}

// DocumentNew wraps a root element as the top of the document tree.
func DocumentNew(root any) value.TaggedObject {
	return NewElement(TagDocumentNew, []value.Field{{Name: "root", Handle: root}})
}

// Inline is a minimal parsed-Markdown representation: the node kind and
// its literal text, flattened from goldmark's inline AST. A renderer
// walks this slice to apply emphasis/strong/code styling; block-level
// structure beyond paragraphs is intentionally not modeled since
// ElementParagraph/ElementLabel content is single-paragraph rich text.
type Inline struct {
	Kind string
	Text string
}

// ParseMarkdown parses src as Markdown and returns its inline run list,
// for binding to ElementParagraph/ElementLabel content per
// SPEC_FULL.md's document-package wiring of goldmark.
func ParseMarkdown(src string) ([]Inline, error) {
	md := goldmark.New()
	reader := text.NewReader([]byte(src))
	root := md.Parser().Parse(reader)

	var out []Inline
	var walk func(n goldast.Node)
	walk = func(n goldast.Node) {
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			switch t := c.(type) {
			case *goldast.Text:
				out = append(out, Inline{Kind: "text", Text: string(t.Segment.Value([]byte(src)))})
			case *goldast.Emphasis:
				var buf bytes.Buffer
				collectText(t, src, &buf)
				kind := "emphasis"
				if t.Level == 2 {
					kind = "strong"
				}
				out = append(out, Inline{Kind: kind, Text: buf.String()})
			case *goldast.CodeSpan:
				var buf bytes.Buffer
				collectText(t, src, &buf)
				out = append(out, Inline{Kind: "code", Text: buf.String()})
			default:
				walk(c)
			}
		}
	}
	walk(root)
	return out, nil
}

func collectText(n goldast.Node, src string, buf *bytes.Buffer) {
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*goldast.Text); ok {
			buf.Write(t.Segment.Value([]byte(src)))
		} else {
			collectText(c, src, buf)
		}
	}
}
