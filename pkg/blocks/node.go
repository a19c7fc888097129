package blocks

import (
	"iter"

	"go.uber.org/multierr"
)

// NodeKind is the discriminant of a RenderNode
type NodeKind string

const (
	NodeHeading    NodeKind = "heading"
	NodeParagraph  NodeKind = "paragraph"
	NodeQuote      NodeKind = "quote"
	NodeToDo       NodeKind = "to_do"
	NodeDivider    NodeKind = "divider"
	NodeCallout    NodeKind = "callout"
	NodeCode       NodeKind = "code"
	NodeToggle     NodeKind = "toggle"
	NodeTable      NodeKind = "table"
	NodeTableRow   NodeKind = "table_row"
	NodeTableCell  NodeKind = "table_cell"
	NodeColumnList NodeKind = "column_list"
	NodeColumn     NodeKind = "column"
	NodeEquation   NodeKind = "equation"
	NodeMedia      NodeKind = "media"
	NodeList       NodeKind = "list"
	NodeListItem   NodeKind = "list_item"
	NodeText       NodeKind = "text"
	NodeError      NodeKind = "error"
)

// RenderNode is the framework-agnostic output of the renderer. Which fields
// are set depends on Kind.
type RenderNode struct {
	Kind    NodeKind `json:"kind"`
	BlockID string   `json:"blockId,omitempty"`

	// heading level 1-3
	Level int    `json:"level,omitempty"`
	Icon  string `json:"icon,omitempty"`
	Runs  []Run  `json:"runs,omitempty"`

	// verbatim text of code, equation and error nodes
	Text     string `json:"text,omitempty"`
	Language string `json:"language,omitempty"`

	Checked bool `json:"checked,omitempty"`
	// StrikeHint asks the presentation layer to strike the text through.
	StrikeHint bool `json:"strikeHint,omitempty"`

	ListType ListType `json:"listType,omitempty"`
	Ordinal  int      `json:"ordinal,omitempty"`

	Header  bool   `json:"header,omitempty"`
	Columns int    `json:"columns,omitempty"`
	Layout  string `json:"layout,omitempty"`

	Media *MediaUnit `json:"media,omitempty"`

	Children []*RenderNode `json:"children,omitempty"`
}

// Document is the result of one render pass
type Document struct {
	Nodes []*RenderNode `json:"nodes"`
	// Failed is set when the whole tree could not be rendered and Nodes
	// holds a single error placeholder.
	Failed bool `json:"failed,omitempty"`

	errs error
}

// Err returns the combined errors of blocks that failed to render
func (d *Document) Err() error {
	return d.errs
}

// Errors lists the individual block failures
func (d *Document) Errors() []error {
	return multierr.Errors(d.errs)
}

// Walk yields every node depth first, parents before children
func (d *Document) Walk() iter.Seq[*RenderNode] {
	return func(yield func(*RenderNode) bool) {
		var visit func(nodes []*RenderNode) bool
		visit = func(nodes []*RenderNode) bool {
			for _, n := range nodes {
				if !yield(n) {
					return false
				}
				if !visit(n.Children) {
					return false
				}
			}
			return true
		}
		visit(d.Nodes)
	}
}

// PlainText returns the text of the node's runs, or its verbatim text
func (n *RenderNode) PlainText() string {
	if len(n.Runs) > 0 {
		return PlainText(n.Runs)
	}
	return n.Text
}
