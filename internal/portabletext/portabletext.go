// Package portabletext models the content store's rich-text block format
// and renders it to HTML.
package portabletext

import (
	"fmt"
	"html"
	"strings"
)

// Span is a run of text inside a block, optionally decorated with marks.
// A mark is either a decorator name ("strong", "em", "code") or the key of
// an annotation in the enclosing block's MarkDefs (links).
type Span struct {
	Type  string   `json:"_type"`
	Text  string   `json:"text"`
	Marks []string `json:"marks,omitempty"`
}

// MarkDef is an annotation definition referenced by span marks.
type MarkDef struct {
	Key  string `json:"_key"`
	Type string `json:"_type"`
	Href string `json:"href,omitempty"`
}

// Block is one node of a rich-text document. Style selects the output
// element; ListItem and Level are set on list entries.
type Block struct {
	Type     string    `json:"_type"`
	Style    string    `json:"style"`
	ListItem string    `json:"listItem,omitempty"`
	Level    int       `json:"level,omitempty"`
	Children []Span    `json:"children"`
	MarkDefs []MarkDef `json:"markDefs,omitempty"`
}

var styleTags = map[string]string{
	"h1":         "h1",
	"h2":         "h2",
	"h3":         "h3",
	"h4":         "h4",
	"blockquote": "blockquote",
	"normal":     "p",
}

// RenderHTML renders a block tree to an HTML fragment. Consecutive list
// items of the same kind are grouped into a single <ul> or <ol>. Unknown
// block styles fall back to paragraphs and unknown marks are ignored, so
// newly authored content degrades instead of disappearing.
func RenderHTML(blocks []Block) string {
	var b strings.Builder
	openList := ""

	closeList := func() {
		if openList != "" {
			b.WriteString("</" + openList + ">")
			openList = ""
		}
	}

	for _, blk := range blocks {
		if blk.Type != "block" {
			continue
		}

		if blk.ListItem != "" {
			tag := "ul"
			if blk.ListItem == "number" {
				tag = "ol"
			}
			if openList != tag {
				closeList()
				b.WriteString("<" + tag + ">")
				openList = tag
			}
			b.WriteString("<li>")
			renderSpans(&b, blk)
			b.WriteString("</li>")
			continue
		}

		closeList()
		tag, ok := styleTags[blk.Style]
		if !ok {
			tag = "p"
		}
		b.WriteString("<" + tag + ">")
		renderSpans(&b, blk)
		b.WriteString("</" + tag + ">")
	}
	closeList()

	return b.String()
}

func renderSpans(b *strings.Builder, blk Block) {
	for _, span := range blk.Children {
		b.WriteString(renderSpan(span, blk.MarkDefs))
	}
}

func renderSpan(span Span, defs []MarkDef) string {
	out := html.EscapeString(span.Text)

	// Wrap innermost first so the first listed mark ends up outermost.
	for i := len(span.Marks) - 1; i >= 0; i-- {
		switch mark := span.Marks[i]; mark {
		case "strong":
			out = "<strong>" + out + "</strong>"
		case "em":
			out = "<em>" + out + "</em>"
		case "code":
			out = "<code>" + out + "</code>"
		case "underline":
			out = "<u>" + out + "</u>"
		case "strike-through":
			out = "<del>" + out + "</del>"
		default:
			if def, ok := markDef(defs, mark); ok && def.Type == "link" {
				out = fmt.Sprintf(`<a href=%q rel="noopener">%s</a>`, def.Href, out)
			}
		}
	}
	return out
}

func markDef(defs []MarkDef, key string) (MarkDef, bool) {
	for _, d := range defs {
		if d.Key == key {
			return d, true
		}
	}
	return MarkDef{}, false
}

// PlainText flattens a block tree to text, joining blocks with newlines.
// Used for excerpts and search previews.
func PlainText(blocks []Block) string {
	parts := make([]string, 0, len(blocks))
	for _, blk := range blocks {
		if blk.Type != "block" {
			continue
		}
		var b strings.Builder
		for _, span := range blk.Children {
			b.WriteString(span.Text)
		}
		if s := b.String(); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "\n")
}
