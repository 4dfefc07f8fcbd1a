package markdown

// BlockKind enumerates the block variants of a Document
type BlockKind string

const (
	BlockParagraph     BlockKind = "paragraph"
	BlockHeading       BlockKind = "heading"
	BlockList          BlockKind = "list"
	BlockTable         BlockKind = "table"
	BlockQuote         BlockKind = "blockquote"
	BlockCode          BlockKind = "code"
	BlockThematicBreak BlockKind = "thematic_break"
	BlockHTML          BlockKind = "html"
)

// InlineKind enumerates the inline variants
type InlineKind string

const (
	InlineText          InlineKind = "text"
	InlineEmphasis      InlineKind = "emphasis"
	InlineStrong        InlineKind = "strong"
	InlineCode          InlineKind = "code"
	InlineLink          InlineKind = "link"
	InlineStrikethrough InlineKind = "strikethrough"
	InlineBreak         InlineKind = "break"
	InlineHTML          InlineKind = "html"
)

// MaxHeadingLevel is the deepest heading kept; deeper ones are clamped.
const MaxHeadingLevel = 3

// Document is the parsed form of a message buffer
type Document struct {
	Blocks []Block `json:"blocks"`
}

// IsEmpty reports whether there is nothing to display. Callers show the
// pending indicator for an empty assistant document.
func (d Document) IsEmpty() bool {
	return len(d.Blocks) == 0
}

// Block is one block-level node. Which fields are set depends on Kind:
//
//	paragraph, heading: Inlines (+ Level)
//	list:               Ordered, Start, Items
//	table:              Align, Header, Rows
//	blockquote:         Children
//	code:               Language, Code
//	html:               HTML
type Block struct {
	Kind     BlockKind  `json:"kind"`
	Level    int        `json:"level,omitempty"`
	Inlines  []Inline   `json:"inlines,omitempty"`
	Ordered  bool       `json:"ordered,omitempty"`
	Start    int        `json:"start,omitempty"`
	Items    []ListItem `json:"items,omitempty"`
	Align    []string   `json:"align,omitempty"`
	Header   []Cell     `json:"header,omitempty"`
	Rows     [][]Cell   `json:"rows,omitempty"`
	Children []Block    `json:"children,omitempty"`
	Language string     `json:"language,omitempty"`
	Code     string     `json:"code,omitempty"`
	HTML     string     `json:"html,omitempty"`
}

// ListItem holds the blocks of one list entry. Task is set for GFM task
// list items.
type ListItem struct {
	Task   *bool   `json:"task,omitempty"`
	Blocks []Block `json:"blocks"`
}

type Cell struct {
	Inlines []Inline `json:"inlines"`
}

// Inline is one inline node. Text carries the literal for text, code and
// html; URL and Title are set for links; Children for the containers.
type Inline struct {
	Kind     InlineKind `json:"kind"`
	Text     string     `json:"text,omitempty"`
	URL      string     `json:"url,omitempty"`
	Title    string     `json:"title,omitempty"`
	Children []Inline   `json:"children,omitempty"`
}

// PlainText flattens inlines to their visible text
func PlainText(inlines []Inline) string {
	var out []byte
	for _, in := range inlines {
		switch in.Kind {
		case InlineBreak:
			out = append(out, '\n')
		case InlineText, InlineCode:
			out = append(out, in.Text...)
		case InlineHTML:
		default:
			out = append(out, PlainText(in.Children)...)
		}
	}
	return string(out)
}
