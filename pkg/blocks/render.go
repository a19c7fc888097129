package blocks

import (
	"fmt"
	"strconv"

	"go.uber.org/multierr"

	"pagefiber-be/internal/pkg/logger"
)

const (
	renderModule = "BlockRenderer"

	blockErrorMessage = "This block could not be displayed."
	pageErrorMessage  = "This page could not be displayed."
)

// FailureNotifier is told when a whole tree fails to render
type FailureNotifier interface {
	RenderFailed(err error)
}

// RuleFunc renders a block type the built-in rules do not cover. Returning
// nil emits nothing.
type RuleFunc func(rc *RuleContext, b *Block) *RenderNode

// RuleContext gives a custom rule access to the render pass
type RuleContext struct {
	pass *renderPass
	path string
}

// Path is the tree position of the block being rendered
func (rc *RuleContext) Path() string {
	return rc.path
}

// Runs resolves the block's text into runs
func (rc *RuleContext) Runs(b *Block) []Run {
	return ResolveRuns(b.Text, b.Annotations)
}

// RenderChildren renders the block's children with the normal rules
func (rc *RuleContext) RenderChildren(b *Block) []*RenderNode {
	return rc.pass.renderSiblings(b.Children, rc.path, false)
}

// Option configures a Renderer
type Option func(*Renderer)

// WithNotifier reports total render failures to n
func WithNotifier(n FailureNotifier) Option {
	return func(r *Renderer) {
		r.notifier = n
	}
}

// WithRule registers a rule for an extra block type. Built-in types cannot
// be overridden.
func WithRule(blockType string, rule RuleFunc) Option {
	return func(r *Renderer) {
		r.rules[blockType] = rule
	}
}

// Renderer turns a block tree into render nodes. It is safe for concurrent
// use; every call to Render runs an independent pass.
type Renderer struct {
	log        logger.ILogger
	normalizer treeNormalizer
	notifier   FailureNotifier
	rules      map[string]RuleFunc
}

type treeNormalizer interface {
	Normalize(tree []Block) []Block
}

// NewRenderer creates a renderer. A nil logger discards diagnostics.
func NewRenderer(log logger.ILogger, opts ...Option) *Renderer {
	if log == nil {
		log = logger.NewNopLogger()
	}
	r := &Renderer{
		log:        log,
		normalizer: NewNormalizer(log),
		rules:      make(map[string]RuleFunc),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render normalizes tree and renders it. The caller's tree is not modified.
// A failure in one top-level item becomes an error node in its place; a
// failure of the pass itself yields a single page error node and the
// notifier is called.
func (r *Renderer) Render(tree []Block) (doc *Document) {
	defer func() {
		if rec := recover(); rec != nil {
			err := fmt.Errorf("render pass failed: %v", rec)
			r.log.Error(renderModule, "Render pass failed", map[string]interface{}{
				"error":  err.Error(),
				"blocks": len(tree),
			})
			doc = &Document{
				Nodes:  []*RenderNode{{Kind: NodeError, Text: pageErrorMessage}},
				Failed: true,
				errs:   err,
			}
			if r.notifier != nil {
				r.notifier.RenderFailed(err)
			}
		}
	}()

	pass := &renderPass{r: r, counters: NewListCounters()}
	nodes := pass.renderSiblings(r.normalizer.Normalize(tree), "", true)
	if nodes == nil {
		nodes = []*RenderNode{}
	}
	return &Document{Nodes: nodes, errs: pass.errs}
}

// RenderJSON parses serialized content and renders it
func (r *Renderer) RenderJSON(raw []byte) *Document {
	return r.Render(ParseTreeBytes(raw, r.log))
}

type renderPass struct {
	r        *Renderer
	counters *ListCounters
	errs     error
}

func childPath(parent string, i int) string {
	if parent == "" {
		return strconv.Itoa(i)
	}
	return parent + "." + strconv.Itoa(i)
}

// renderSiblings groups consecutive list items of the same list type into
// one list node. Numbered runs are scoped by the path of their first item,
// so every new run starts at 1.
func (p *renderPass) renderSiblings(siblings []Block, path string, isolate bool) []*RenderNode {
	var (
		out       []*RenderNode
		list      *RenderNode
		listScope string
	)
	flush := func() {
		if list != nil {
			out = append(out, list)
			list = nil
		}
	}

	for i := range siblings {
		b := &siblings[i]
		itemPath := childPath(path, i)

		if b.IsList() {
			lt := b.EffectiveListType()
			if list == nil || list.ListType != lt {
				flush()
				list = &RenderNode{Kind: NodeList, ListType: lt}
				listScope = itemPath
				p.counters.Reset(listScope)
			}
			scope := listScope
			item := p.guard(isolate, b, itemPath, func() *RenderNode {
				return p.renderListItem(b, itemPath, lt, scope)
			})
			if item != nil {
				list.Children = append(list.Children, item)
			}
			continue
		}

		flush()
		node := p.guard(isolate, b, itemPath, func() *RenderNode {
			return p.renderBlock(b, itemPath)
		})
		if node != nil {
			out = append(out, node)
		}
	}
	flush()
	return out
}

func (p *renderPass) guard(isolate bool, b *Block, path string, fn func() *RenderNode) (node *RenderNode) {
	if !isolate {
		return fn()
	}
	defer func() {
		if rec := recover(); rec != nil {
			err := fmt.Errorf("block %s (%s): %v", path, b.Type, rec)
			p.errs = multierr.Append(p.errs, err)
			p.r.log.Error(renderModule, "Block render failed", map[string]interface{}{
				"path":    path,
				"type":    b.Type,
				"blockId": b.ID,
				"error":   fmt.Sprint(rec),
			})
			node = &RenderNode{Kind: NodeError, BlockID: b.ID, Text: blockErrorMessage}
		}
	}()
	return fn()
}

func (p *renderPass) renderListItem(b *Block, path string, lt ListType, scope string) *RenderNode {
	item := &RenderNode{
		Kind:     NodeListItem,
		BlockID:  b.ID,
		ListType: lt,
		Runs:     ResolveRuns(b.Text, b.Annotations),
		Children: p.renderSiblings(b.Children, path, false),
	}
	if lt == ListNumbered {
		item.Ordinal = p.counters.Next(scope)
	}
	if b.Media != nil {
		if unit := ResolveMedia(*b.Media, b.Text); unit != nil {
			item.Media = unit
		}
	}
	return item
}

func (p *renderPass) renderBlock(b *Block, path string) *RenderNode {
	if ParseMediaKind(b.Type) != "" || ParseMediaKind(b.MediaType) != "" || (b.Media != nil && !builtinType(b.Type)) {
		return p.renderMedia(b)
	}

	switch b.Type {
	case TypeHeading1, TypeHeading2, TypeHeading3:
		level, _ := strconv.Atoi(b.Type[len(b.Type)-1:])
		return p.textNode(NodeHeading, b, path, func(n *RenderNode) {
			n.Level = level
			n.Icon = b.IconText()
		})

	case TypeParagraph:
		return p.textNode(NodeParagraph, b, path, nil)

	case TypeQuote:
		return p.textNode(NodeQuote, b, path, nil)

	case TypeToDo:
		return p.textNode(NodeToDo, b, path, func(n *RenderNode) {
			n.Checked = b.Checked
			n.StrikeHint = b.Checked
		})

	case TypeDivider:
		return &RenderNode{Kind: NodeDivider, BlockID: b.ID}

	case TypeCallout:
		n := &RenderNode{Kind: NodeCallout, BlockID: b.ID, Icon: b.IconText()}
		if len(b.Children) > 0 {
			n.Children = p.renderSiblings(b.Children, path, false)
		} else {
			n.Runs = ResolveRuns(b.Text, b.Annotations)
		}
		return n

	case TypeCode:
		return &RenderNode{Kind: NodeCode, BlockID: b.ID, Text: b.Text, Language: b.Language}

	case TypeToggle:
		return &RenderNode{
			Kind:     NodeToggle,
			BlockID:  b.ID,
			Icon:     b.IconText(),
			Runs:     ResolveRuns(b.Text, b.Annotations),
			Children: p.renderSiblings(b.Children, path, false),
		}

	case TypeTable:
		return p.renderTable(b)

	case TypeTableRow:
		return p.renderRow(b, false, false)

	case TypeColumnList:
		return p.renderColumns(b, path)

	case TypeColumn:
		return &RenderNode{
			Kind:     NodeColumn,
			BlockID:  b.ID,
			Children: p.renderSiblings(b.Children, path, false),
		}

	case TypeEquation:
		return &RenderNode{Kind: NodeEquation, BlockID: b.ID, Text: b.Text}

	case TypeDiv:
		return nil
	}

	if rule, ok := p.r.rules[b.Type]; ok {
		return rule(&RuleContext{pass: p, path: path}, b)
	}

	if b.Text == "" && len(b.Annotations) == 0 {
		return nil
	}
	return p.textNode(NodeText, b, path, nil)
}

// textNode builds a node whose body is the block's runs followed by its
// rendered children
func (p *renderPass) textNode(kind NodeKind, b *Block, path string, decorate func(*RenderNode)) *RenderNode {
	n := &RenderNode{
		Kind:    kind,
		BlockID: b.ID,
		Runs:    ResolveRuns(b.Text, b.Annotations),
	}
	if decorate != nil {
		decorate(n)
	}
	if len(b.Children) > 0 {
		n.Children = p.renderSiblings(b.Children, path, false)
	}
	return n
}

func (p *renderPass) renderMedia(b *Block) *RenderNode {
	if b.Media == nil {
		return nil
	}
	unit := ResolveMedia(*b.Media, b.Text)
	if unit == nil {
		return nil
	}
	return &RenderNode{Kind: NodeMedia, BlockID: b.ID, Media: unit}
}

func (p *renderPass) renderTable(b *Block) *RenderNode {
	table := &RenderNode{Kind: NodeTable, BlockID: b.ID, Children: []*RenderNode{}}
	for r := range b.Children {
		row := p.renderRow(&b.Children[r], r == 0 && b.HasColumnHeader, b.HasRowHeader)
		if len(row.Children) > table.Columns {
			table.Columns = len(row.Children)
		}
		table.Children = append(table.Children, row)
	}
	return table
}

// renderRow renders a row; a header row marks every cell as header, a row
// header marks the first cell
func (p *renderPass) renderRow(row *Block, headerRow, rowHeader bool) *RenderNode {
	n := &RenderNode{Kind: NodeTableRow, BlockID: row.ID, Header: headerRow, Children: []*RenderNode{}}
	for c := range row.Children {
		cell := &row.Children[c]
		n.Children = append(n.Children, &RenderNode{
			Kind:    NodeTableCell,
			BlockID: cell.ID,
			Header:  headerRow || (rowHeader && c == 0),
			Runs:    ResolveRuns(cell.Text, cell.Annotations),
		})
	}
	return n
}

func (p *renderPass) renderColumns(b *Block, path string) *RenderNode {
	n := &RenderNode{
		Kind:     NodeColumnList,
		BlockID:  b.ID,
		Columns:  len(b.Children),
		Layout:   ColumnLayout(len(b.Children)),
		Children: []*RenderNode{},
	}
	for i := range b.Children {
		col := &b.Children[i]
		colPath := childPath(path, i)
		var children []*RenderNode
		if col.Type == TypeColumn {
			children = p.renderSiblings(col.Children, colPath, false)
		} else {
			children = p.renderSiblings([]Block{*col}, colPath, false)
		}
		n.Children = append(n.Children, &RenderNode{Kind: NodeColumn, BlockID: col.ID, Children: children})
	}
	return n
}

// ColumnLayout is the responsive layout hint for a column count
func ColumnLayout(columns int) string {
	switch {
	case columns <= 1:
		return "single"
	case columns == 2:
		return "two-column"
	case columns == 3:
		return "three-column"
	default:
		return "grid"
	}
}

func builtinType(t string) bool {
	switch t {
	case TypeHeading1, TypeHeading2, TypeHeading3, TypeParagraph, TypeQuote,
		TypeToDo, TypeDivider, TypeCallout, TypeCode, TypeToggle, TypeTable,
		TypeTableRow, TypeColumnList, TypeColumn, TypeEquation, TypeDiv,
		TypeBulletedItem, TypeNumberedItem:
		return true
	}
	return false
}
