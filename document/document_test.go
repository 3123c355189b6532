package document

import (
	"testing"

	"github.com/boonlang/boon-runtime/value"
)

func TestButtonFields(t *testing.T) {
	label := value.NewText("Increment")
	btn := Button(label, "on-press-handle")

	got, ok := btn.Get("label")
	if !ok {
		t.Fatal("expected a label field")
	}
	if got != label {
		t.Fatalf("got %#v, want the original label handle", got)
	}
	if btn.Tag != TagElementButton {
		t.Fatalf("Tag = %q, want %q", btn.Tag, TagElementButton)
	}
}

func TestDocumentNewWrapsRoot(t *testing.T) {
	root := Stack("children-handle")
	doc := DocumentNew(root)

	got, ok := doc.Get("root")
	if !ok || got != root {
		t.Fatal("expected root field to hold the original Stack node")
	}
}

func TestParseMarkdownPlainText(t *testing.T) {
	inlines, err := ParseMarkdown("hello world")
	if err != nil {
		t.Fatalf("ParseMarkdown: %v", err)
	}
	if len(inlines) == 0 || inlines[0].Kind != "text" {
		t.Fatalf("got %#v, want at least one text run", inlines)
	}
}

func TestParseMarkdownStrongEmphasis(t *testing.T) {
	inlines, err := ParseMarkdown("a **bold** word")
	if err != nil {
		t.Fatalf("ParseMarkdown: %v", err)
	}
	found := false
	for _, in := range inlines {
		if in.Kind == "strong" && in.Text == "bold" {
			found = true
		}
	}
	if !found {
		t.Fatalf("got %#v, want a strong run with text \"bold\"", inlines)
	}
}
