package markdown

import (
	"fmt"
	"strings"

	"github.com/alecthomas/chroma/v2/quick"
	"github.com/charmbracelet/lipgloss"
	"github.com/microcosm-cc/bluemonday"
)

var (
	headingStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5F87D7"))
	h1Style      = headingStyle.Underline(true)
	strongStyle  = lipgloss.NewStyle().Bold(true)
	emStyle      = lipgloss.NewStyle().Italic(true)
	strikeStyle  = lipgloss.NewStyle().Strikethrough(true)
	codeSpan     = lipgloss.NewStyle().Foreground(lipgloss.Color("#D7875F"))
	linkStyle    = lipgloss.NewStyle().Underline(true).Foreground(lipgloss.Color("#5FAFD7"))
	faintStyle   = lipgloss.NewStyle().Faint(true)
	quoteStyle   = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("#8A8A8A"))
	labelStyle   = lipgloss.NewStyle().Faint(true).Bold(true)

	stripPolicy = bluemonday.StrictPolicy()
)

const terminalCodeStyle = "monokai"

// maxQuoteDepth caps the quote bars drawn in front of a line. Quotes nested
// deeper are drawn at the cap.
const maxQuoteDepth = 8

// Terminal renders doc for an ANSI terminal. width > 0 wraps paragraphs.
func Terminal(doc Document, width int) string {
	var b strings.Builder
	for i, blk := range doc.Blocks {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(termBlock(blk, width))
	}
	return b.String()
}

func termBlock(blk Block, width int) string {
	switch blk.Kind {
	case BlockParagraph:
		return wrap(termInlines(blk.Inlines), width) + "\n"

	case BlockHeading:
		st := headingStyle
		if blk.Level == 1 {
			st = h1Style
		}
		return st.Render(PlainText(blk.Inlines)) + "\n"

	case BlockList:
		var b strings.Builder
		n := blk.Start
		if n == 0 {
			n = 1
		}
		for _, item := range blk.Items {
			marker := "• "
			if blk.Ordered {
				marker = fmt.Sprintf("%d. ", n)
				n++
			}
			if item.Task != nil {
				if *item.Task {
					marker += "[x] "
				} else {
					marker += "[ ] "
				}
			}
			body := strings.TrimRight(termBlocks(item.Blocks, width-len(marker)), "\n")
			b.WriteString(indent(body, marker, strings.Repeat(" ", len(marker))))
			b.WriteString("\n")
		}
		return b.String()

	case BlockTable:
		return termTable(blk)

	case BlockQuote:
		return termQuote(blk, width, 0)

	case BlockCode:
		label := blk.Language
		if label == "" {
			label = DefaultCodeLabel
		}
		var b strings.Builder
		b.WriteString(labelStyle.Render("── "+label+" ──") + "\n")
		if err := quick.Highlight(&b, blk.Code, blk.Language, "terminal256", terminalCodeStyle); err != nil {
			b.WriteString(blk.Code)
		}
		if !strings.HasSuffix(b.String(), "\n") {
			b.WriteString("\n")
		}
		return b.String()

	case BlockThematicBreak:
		w := width
		if w <= 0 {
			w = 40
		}
		return faintStyle.Render(strings.Repeat("─", w)) + "\n"

	case BlockHTML:
		return wrap(stripPolicy.Sanitize(blk.HTML), width) + "\n"
	}
	return ""
}

// termQuote styles a run of directly nested quotes once, with one bar per
// level. outer is the number of bars already drawn by enclosing quotes.
func termQuote(blk Block, width, outer int) string {
	depth := 1
	children := blk.Children
	for len(children) == 1 && children[0].Kind == BlockQuote {
		depth++
		children = children[0].Children
	}
	if outer+depth >= maxQuoteDepth {
		depth = max(maxQuoteDepth-outer, 1)
		children = flattenQuotes(children)
	}

	inner := width - 2*depth
	var b strings.Builder
	for _, child := range children {
		if child.Kind == BlockQuote {
			b.WriteString(termQuote(child, inner, outer+depth))
			continue
		}
		b.WriteString(termBlock(child, inner))
	}

	bar := strings.Repeat("│ ", depth)
	body := strings.TrimRight(b.String(), "\n")
	return indent(quoteStyle.Render(body), bar, bar) + "\n"
}

func flattenQuotes(blocks []Block) []Block {
	out := make([]Block, 0, len(blocks))
	for _, blk := range blocks {
		if blk.Kind == BlockQuote {
			out = append(out, flattenQuotes(blk.Children)...)
			continue
		}
		out = append(out, blk)
	}
	return out
}

func termBlocks(blocks []Block, width int) string {
	var b strings.Builder
	for _, blk := range blocks {
		b.WriteString(termBlock(blk, width))
	}
	return b.String()
}

func termInlines(inlines []Inline) string {
	var b strings.Builder
	for _, in := range inlines {
		switch in.Kind {
		case InlineText:
			b.WriteString(in.Text)
		case InlineEmphasis:
			b.WriteString(emStyle.Render(termInlines(in.Children)))
		case InlineStrong:
			b.WriteString(strongStyle.Render(termInlines(in.Children)))
		case InlineStrikethrough:
			b.WriteString(strikeStyle.Render(termInlines(in.Children)))
		case InlineCode:
			b.WriteString(codeSpan.Render(in.Text))
		case InlineBreak:
			b.WriteString("\n")
		case InlineHTML:
			b.WriteString(stripPolicy.Sanitize(in.Text))
		case InlineLink:
			label := termInlines(in.Children)
			if !SafeURL(in.URL) {
				b.WriteString(label)
				continue
			}
			b.WriteString(linkStyle.Render(label))
			if PlainText(in.Children) != in.URL {
				b.WriteString(faintStyle.Render(" (" + in.URL + ")"))
			}
		}
	}
	return b.String()
}

func termTable(blk Block) string {
	cols := len(blk.Header)
	for _, r := range blk.Rows {
		cols = max(cols, len(r))
	}
	if cols == 0 {
		return ""
	}

	render := func(cells []Cell) []string {
		out := make([]string, cols)
		for i := range out {
			if i < len(cells) {
				out[i] = termInlines(cells[i].Inlines)
			}
		}
		return out
	}

	header := render(blk.Header)
	rows := make([][]string, 0, len(blk.Rows))
	for _, r := range blk.Rows {
		rows = append(rows, render(r))
	}

	widths := make([]int, cols)
	for i, c := range header {
		widths[i] = lipgloss.Width(c)
	}
	for _, r := range rows {
		for i, c := range r {
			widths[i] = max(widths[i], lipgloss.Width(c))
		}
	}

	line := func(cells []string) string {
		parts := make([]string, cols)
		for i, c := range cells {
			parts[i] = pad(c, widths[i], alignAt(blk.Align, i))
		}
		return "│ " + strings.Join(parts, " │ ") + " │\n"
	}

	var b strings.Builder
	b.WriteString(line(styleAll(header, strongStyle)))
	seps := make([]string, cols)
	for i, w := range widths {
		seps[i] = strings.Repeat("─", w)
	}
	b.WriteString("├─" + strings.Join(seps, "─┼─") + "─┤\n")
	for _, r := range rows {
		b.WriteString(line(r))
	}
	return b.String()
}

func styleAll(cells []string, st lipgloss.Style) []string {
	out := make([]string, len(cells))
	for i, c := range cells {
		out[i] = st.Render(c)
	}
	return out
}

func pad(s string, width int, align string) string {
	gap := width - lipgloss.Width(s)
	if gap <= 0 {
		return s
	}
	switch align {
	case "right":
		return strings.Repeat(" ", gap) + s
	case "center":
		left := gap / 2
		return strings.Repeat(" ", left) + s + strings.Repeat(" ", gap-left)
	}
	return s + strings.Repeat(" ", gap)
}

func wrap(s string, width int) string {
	if width <= 0 {
		return s
	}
	lines := strings.Split(lipgloss.NewStyle().Width(width).Render(s), "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, " ")
	}
	return strings.Join(lines, "\n")
}

func indent(s, first, rest string) string {
	lines := strings.Split(s, "\n")
	for i := range lines {
		if i == 0 {
			lines[i] = first + lines[i]
		} else {
			lines[i] = rest + lines[i]
		}
	}
	return strings.Join(lines, "\n")
}
