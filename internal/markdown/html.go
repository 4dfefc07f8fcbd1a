package markdown

import (
	"fmt"
	"html"
	"net/url"
	"strings"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/microcosm-cc/bluemonday"
)

// DefaultCodeLabel is shown on code blocks without a language
const DefaultCodeLabel = "code"

const codeStyle = "github"

var (
	rawPolicy     = bluemonday.UGCPolicy()
	codeFormatter = chromahtml.New(chromahtml.WithClasses(true), chromahtml.PreventSurroundingPre(true))
)

// HTML renders doc as an HTML fragment. Code blocks carry their exact
// source in data-copy for the copy button; links open in a new browsing
// context without an opener reference.
func HTML(doc Document) string {
	var b strings.Builder
	writeBlocks(&b, doc.Blocks)
	return b.String()
}

// HighlightCSS returns the stylesheet for the classes emitted in code blocks
func HighlightCSS() string {
	var b strings.Builder
	if err := codeFormatter.WriteCSS(&b, style()); err != nil {
		return ""
	}
	return b.String()
}

func style() *chroma.Style {
	if s := styles.Get(codeStyle); s != nil {
		return s
	}
	return styles.Fallback
}

func writeBlocks(b *strings.Builder, blocks []Block) {
	for _, blk := range blocks {
		writeBlock(b, blk)
	}
}

func writeBlock(b *strings.Builder, blk Block) {
	switch blk.Kind {
	case BlockParagraph:
		b.WriteString("<p>")
		writeInlines(b, blk.Inlines)
		b.WriteString("</p>\n")

	case BlockHeading:
		fmt.Fprintf(b, "<h%d>", blk.Level)
		writeInlines(b, blk.Inlines)
		fmt.Fprintf(b, "</h%d>\n", blk.Level)

	case BlockList:
		tag := "ul"
		if blk.Ordered {
			tag = "ol"
		}
		if blk.Ordered && blk.Start > 1 {
			fmt.Fprintf(b, "<%s start=\"%d\">\n", tag, blk.Start)
		} else {
			fmt.Fprintf(b, "<%s>\n", tag)
		}
		for _, item := range blk.Items {
			writeListItem(b, item)
		}
		fmt.Fprintf(b, "</%s>\n", tag)

	case BlockTable:
		writeTable(b, blk)

	case BlockQuote:
		b.WriteString("<blockquote>\n")
		writeBlocks(b, blk.Children)
		b.WriteString("</blockquote>\n")

	case BlockCode:
		writeCode(b, blk)

	case BlockThematicBreak:
		b.WriteString("<hr>\n")

	case BlockHTML:
		b.WriteString(rawPolicy.Sanitize(blk.HTML))
		b.WriteString("\n")
	}
}

func writeListItem(b *strings.Builder, item ListItem) {
	b.WriteString("<li>")
	if item.Task != nil {
		if *item.Task {
			b.WriteString(`<input type="checkbox" checked disabled> `)
		} else {
			b.WriteString(`<input type="checkbox" disabled> `)
		}
	}
	if len(item.Blocks) == 1 && item.Blocks[0].Kind == BlockParagraph {
		writeInlines(b, item.Blocks[0].Inlines)
	} else {
		writeBlocks(b, item.Blocks)
	}
	b.WriteString("</li>\n")
}

func writeTable(b *strings.Builder, blk Block) {
	b.WriteString("<div class=\"table-wrap\"><table>\n")
	if len(blk.Header) > 0 {
		b.WriteString("<thead><tr>")
		for i, c := range blk.Header {
			writeCell(b, "th", alignAt(blk.Align, i), c)
		}
		b.WriteString("</tr></thead>\n")
	}
	if len(blk.Rows) > 0 {
		b.WriteString("<tbody>\n")
		for _, row := range blk.Rows {
			b.WriteString("<tr>")
			for i, c := range row {
				writeCell(b, "td", alignAt(blk.Align, i), c)
			}
			b.WriteString("</tr>\n")
		}
		b.WriteString("</tbody>\n")
	}
	b.WriteString("</table></div>\n")
}

func writeCell(b *strings.Builder, tag, align string, c Cell) {
	if align == "left" || align == "right" || align == "center" {
		fmt.Fprintf(b, "<%s style=\"text-align:%s\">", tag, align)
	} else {
		fmt.Fprintf(b, "<%s>", tag)
	}
	writeInlines(b, c.Inlines)
	fmt.Fprintf(b, "</%s>", tag)
}

func alignAt(align []string, i int) string {
	if i < len(align) {
		return align[i]
	}
	return ""
}

func writeCode(b *strings.Builder, blk Block) {
	label := blk.Language
	if label == "" {
		label = DefaultCodeLabel
	}

	b.WriteString("<div class=\"code-block\">")
	fmt.Fprintf(b, "<div class=\"code-header\"><span class=\"code-lang\">%s</span>", html.EscapeString(label))
	fmt.Fprintf(b, "<button type=\"button\" class=\"code-copy\" data-copy=\"%s\">Copy</button></div>", html.EscapeString(blk.Code))
	fmt.Fprintf(b, "<pre><code class=\"language-%s\">", html.EscapeString(label))
	b.WriteString(highlightHTML(blk.Language, blk.Code))
	b.WriteString("</code></pre></div>\n")
}

func highlightHTML(lang, code string) string {
	lexer := lexerFor(lang, code)
	it, err := lexer.Tokenise(nil, code)
	if err != nil {
		return html.EscapeString(code)
	}

	var out strings.Builder
	if err := codeFormatter.Format(&out, style(), it); err != nil {
		return html.EscapeString(code)
	}
	return out.String()
}

func lexerFor(lang, code string) chroma.Lexer {
	var l chroma.Lexer
	if lang != "" {
		l = lexers.Get(lang)
	}
	if l == nil {
		l = lexers.Analyse(code)
	}
	if l == nil {
		l = lexers.Fallback
	}
	return chroma.Coalesce(l)
}

func writeInlines(b *strings.Builder, inlines []Inline) {
	for _, in := range inlines {
		switch in.Kind {
		case InlineText:
			b.WriteString(html.EscapeString(in.Text))
		case InlineEmphasis:
			b.WriteString("<em>")
			writeInlines(b, in.Children)
			b.WriteString("</em>")
		case InlineStrong:
			b.WriteString("<strong>")
			writeInlines(b, in.Children)
			b.WriteString("</strong>")
		case InlineStrikethrough:
			b.WriteString("<del>")
			writeInlines(b, in.Children)
			b.WriteString("</del>")
		case InlineCode:
			fmt.Fprintf(b, "<code>%s</code>", html.EscapeString(in.Text))
		case InlineBreak:
			b.WriteString("<br>\n")
		case InlineHTML:
			b.WriteString(rawPolicy.Sanitize(in.Text))
		case InlineLink:
			writeLink(b, in)
		}
	}
}

func writeLink(b *strings.Builder, in Inline) {
	if !SafeURL(in.URL) {
		writeInlines(b, in.Children)
		return
	}

	fmt.Fprintf(b, "<a href=\"%s\"", html.EscapeString(in.URL))
	if in.Title != "" {
		fmt.Fprintf(b, " title=\"%s\"", html.EscapeString(in.Title))
	}
	b.WriteString(" target=\"_blank\" rel=\"noopener noreferrer\">")
	writeInlines(b, in.Children)
	b.WriteString("</a>")
}

// SafeURL reports whether a link target may be emitted as-is. Relative
// references and http(s)/mailto are allowed.
func SafeURL(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	switch strings.ToLower(u.Scheme) {
	case "", "http", "https", "mailto":
		return true
	}
	return false
}
