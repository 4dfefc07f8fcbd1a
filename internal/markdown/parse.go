package markdown

import (
	"bytes"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

var md = goldmark.New(goldmark.WithExtensions(extension.GFM))

// Render parses buffer into a Document. It accepts any prefix of a
// Markdown text: an unterminated fence becomes a code block running to the
// end, and other unfinished constructs fall back to paragraph text. An
// empty buffer yields an empty Document.
func Render(buffer string) (doc Document) {
	if buffer == "" {
		return Document{}
	}

	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("markdown parse failed, falling back to plain text")
			doc = Document{Blocks: []Block{{
				Kind:    BlockParagraph,
				Inlines: []Inline{{Kind: InlineText, Text: buffer}},
			}}}
		}
	}()

	src := []byte(buffer)
	root := md.Parser().Parse(text.NewReader(src))
	return Document{Blocks: convertBlocks(root, src)}
}

func convertBlocks(parent ast.Node, src []byte) []Block {
	var out []Block
	for n := parent.FirstChild(); n != nil; n = n.NextSibling() {
		if b, ok := convertBlock(n, src); ok {
			out = append(out, b)
		}
	}
	return out
}

func convertBlock(n ast.Node, src []byte) (Block, bool) {
	switch n := n.(type) {
	case *ast.Paragraph, *ast.TextBlock:
		inlines := convertInlines(n, src)
		if len(inlines) == 0 {
			return Block{}, false
		}
		return Block{Kind: BlockParagraph, Inlines: inlines}, true

	case *ast.Heading:
		return Block{
			Kind:    BlockHeading,
			Level:   min(n.Level, MaxHeadingLevel),
			Inlines: convertInlines(n, src),
		}, true

	case *ast.List:
		b := Block{Kind: BlockList, Ordered: n.IsOrdered()}
		if b.Ordered {
			b.Start = n.Start
		}
		for li := n.FirstChild(); li != nil; li = li.NextSibling() {
			b.Items = append(b.Items, ListItem{
				Task:   taskState(li),
				Blocks: convertBlocks(li, src),
			})
		}
		return b, true

	case *ast.Blockquote:
		return Block{Kind: BlockQuote, Children: convertBlocks(n, src)}, true

	case *ast.FencedCodeBlock:
		return Block{
			Kind:     BlockCode,
			Language: string(n.Language(src)),
			Code:     linesOf(n, src),
		}, true

	case *ast.CodeBlock:
		return Block{Kind: BlockCode, Code: linesOf(n, src)}, true

	case *ast.ThematicBreak:
		return Block{Kind: BlockThematicBreak}, true

	case *ast.HTMLBlock:
		raw := linesOf(n, src)
		if n.HasClosure() {
			raw += string(n.ClosureLine.Value(src))
		}
		return Block{Kind: BlockHTML, HTML: raw}, true

	case *extast.Table:
		return convertTable(n, src), true
	}

	log.Debug().Str("kind", n.Kind().String()).Msg("unhandled markdown block")
	return Block{}, false
}

func convertTable(t *extast.Table, src []byte) Block {
	b := Block{Kind: BlockTable}
	for _, a := range t.Alignments {
		b.Align = append(b.Align, a.String())
	}

	for n := t.FirstChild(); n != nil; n = n.NextSibling() {
		switch n := n.(type) {
		case *extast.TableHeader:
			b.Header = convertCells(n, src)
		case *extast.TableRow:
			b.Rows = append(b.Rows, convertCells(n, src))
		}
	}
	return b
}

func convertCells(row ast.Node, src []byte) []Cell {
	var cells []Cell
	for c := row.FirstChild(); c != nil; c = c.NextSibling() {
		cells = append(cells, Cell{Inlines: convertInlines(c, src)})
	}
	return cells
}

// taskState reads the GFM checkbox that leads a list item, if any
func taskState(li ast.Node) *bool {
	first := li.FirstChild()
	if first == nil {
		return nil
	}
	if cb, ok := first.FirstChild().(*extast.TaskCheckBox); ok {
		checked := cb.IsChecked
		return &checked
	}
	return nil
}

func linesOf(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		buf.Write(seg.Value(src))
	}
	return buf.String()
}

func convertInlines(parent ast.Node, src []byte) []Inline {
	var out []Inline
	for n := parent.FirstChild(); n != nil; n = n.NextSibling() {
		switch n := n.(type) {
		case *ast.Text:
			out = appendText(out, string(n.Segment.Value(src)))
			if n.HardLineBreak() {
				out = append(out, Inline{Kind: InlineBreak})
			} else if n.SoftLineBreak() {
				out = appendText(out, "\n")
			}

		case *ast.String:
			out = appendText(out, string(n.Value))

		case *ast.Emphasis:
			kind := InlineEmphasis
			if n.Level >= 2 {
				kind = InlineStrong
			}
			out = append(out, Inline{Kind: kind, Children: convertInlines(n, src)})

		case *ast.CodeSpan:
			out = append(out, Inline{Kind: InlineCode, Text: rawText(n, src)})

		case *ast.Link:
			out = append(out, Inline{
				Kind:     InlineLink,
				URL:      string(n.Destination),
				Title:    string(n.Title),
				Children: convertInlines(n, src),
			})

		case *ast.AutoLink:
			out = append(out, Inline{
				Kind:     InlineLink,
				URL:      autoLinkURL(n, src),
				Children: []Inline{{Kind: InlineText, Text: string(n.Label(src))}},
			})

		case *ast.Image:
			children := convertInlines(n, src)
			if len(children) == 0 {
				children = []Inline{{Kind: InlineText, Text: string(n.Destination)}}
			}
			out = append(out, Inline{
				Kind:     InlineLink,
				URL:      string(n.Destination),
				Title:    string(n.Title),
				Children: children,
			})

		case *ast.RawHTML:
			var buf bytes.Buffer
			for i := 0; i < n.Segments.Len(); i++ {
				seg := n.Segments.At(i)
				buf.Write(seg.Value(src))
			}
			out = append(out, Inline{Kind: InlineHTML, Text: buf.String()})

		case *extast.Strikethrough:
			out = append(out, Inline{Kind: InlineStrikethrough, Children: convertInlines(n, src)})

		case *extast.TaskCheckBox:
			// carried on ListItem.Task

		default:
			out = append(out, convertInlines(n, src)...)
		}
	}
	return out
}

func appendText(out []Inline, s string) []Inline {
	if s == "" {
		return out
	}
	if last := len(out) - 1; last >= 0 && out[last].Kind == InlineText {
		out[last].Text += s
		return out
	}
	return append(out, Inline{Kind: InlineText, Text: s})
}

func rawText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch c := c.(type) {
		case *ast.Text:
			buf.Write(c.Segment.Value(src))
		case *ast.String:
			buf.Write(c.Value)
		default:
			buf.WriteString(rawText(c, src))
		}
	}
	return buf.String()
}

func autoLinkURL(n *ast.AutoLink, src []byte) string {
	url := string(n.URL(src))
	if n.AutoLinkType == ast.AutoLinkEmail && !strings.HasPrefix(url, "mailto:") {
		return "mailto:" + url
	}
	return url
}
