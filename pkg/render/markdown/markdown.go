package markdown

import (
	"fmt"
	"strings"

	"pagefiber-be/pkg/blocks"
)

// Writer converts render nodes to Markdown. The output is used for the
// markdown endpoint and as the source text of page embeddings.
type Writer struct {
	// PlainMedia drops image and video syntax, keeping only captions and
	// links. Embedding documents use it.
	PlainMedia bool
}

// NewWriter creates a new writer instance
func NewWriter() *Writer {
	return &Writer{}
}

// Render is a convenience wrapper around Writer.Render with defaults
func Render(doc *blocks.Document) string {
	return NewWriter().Render(doc)
}

// Render converts a rendered document to Markdown
func (w *Writer) Render(doc *blocks.Document) string {
	if doc == nil {
		return ""
	}
	var sb strings.Builder
	w.walkNodes(doc.Nodes, &sb)
	out := strings.TrimRight(sb.String(), "\n")
	if out == "" {
		return ""
	}
	return out + "\n"
}

func (w *Writer) walkNodes(nodes []*blocks.RenderNode, sb *strings.Builder) {
	for _, n := range nodes {
		w.walkNode(n, sb)
	}
}

func (w *Writer) walkNode(n *blocks.RenderNode, sb *strings.Builder) {
	switch n.Kind {
	case blocks.NodeHeading:
		level := n.Level
		if level < 1 {
			level = 1
		}
		sb.WriteString(strings.Repeat("#", level) + " ")
		if n.Icon != "" {
			sb.WriteString(n.Icon + " ")
		}
		sb.WriteString(strings.ReplaceAll(inline(n.Runs), "\n", " "))
		sb.WriteString("\n\n")
		w.walkNodes(n.Children, sb)

	case blocks.NodeParagraph, blocks.NodeText:
		if text := inline(n.Runs); text != "" {
			sb.WriteString(hardBreaks(text))
			sb.WriteString("\n\n")
		}
		w.walkNodes(n.Children, sb)

	case blocks.NodeQuote:
		sb.WriteString(prefixLines(inline(n.Runs), "> "))
		sb.WriteString("\n\n")
		w.walkNodes(n.Children, sb)

	case blocks.NodeToDo:
		text := inline(n.Runs)
		if n.StrikeHint && text != "" {
			text = "~~" + text + "~~"
		}
		if n.Checked {
			sb.WriteString("- [x] " + text + "\n\n")
		} else {
			sb.WriteString("- [ ] " + text + "\n\n")
		}
		w.walkNodes(n.Children, sb)

	case blocks.NodeDivider:
		sb.WriteString("---\n\n")

	case blocks.NodeCallout:
		var body strings.Builder
		if n.Icon != "" {
			body.WriteString(n.Icon + " ")
		}
		if len(n.Children) > 0 {
			w.walkNodes(n.Children, &body)
		} else {
			body.WriteString(hardBreaks(inline(n.Runs)))
		}
		sb.WriteString(prefixLines(strings.TrimRight(body.String(), "\n"), "> "))
		sb.WriteString("\n\n")

	case blocks.NodeCode:
		fence := "```"
		if strings.Contains(n.Text, "```") {
			fence = "~~~~"
		}
		sb.WriteString(fence + n.Language + "\n")
		sb.WriteString(n.Text)
		sb.WriteString("\n" + fence + "\n\n")

	case blocks.NodeToggle:
		sb.WriteString("<details>\n<summary>")
		if n.Icon != "" {
			sb.WriteString(n.Icon + " ")
		}
		sb.WriteString(strings.ReplaceAll(inline(n.Runs), "\n", " "))
		sb.WriteString("</summary>\n\n")
		w.walkNodes(n.Children, sb)
		sb.WriteString("</details>\n\n")

	case blocks.NodeTable:
		w.handleTable(n, sb)

	case blocks.NodeColumnList, blocks.NodeColumn:
		w.walkNodes(n.Children, sb)

	case blocks.NodeEquation:
		sb.WriteString("$$\n" + n.Text + "\n$$\n\n")

	case blocks.NodeMedia:
		if n.Media != nil {
			sb.WriteString(w.media(n.Media))
			sb.WriteString("\n\n")
		}

	case blocks.NodeList:
		w.handleList(n, sb, 0)
		sb.WriteString("\n")

	case blocks.NodeListItem:
		// loose item outside a list container
		sb.WriteString("- " + inline(n.Runs) + "\n\n")

	case blocks.NodeError:
		sb.WriteString("> ⚠️ " + n.Text + "\n\n")

	default:
		w.walkNodes(n.Children, sb)
	}
}

func (w *Writer) handleList(list *blocks.RenderNode, sb *strings.Builder, depth int) {
	indent := strings.Repeat("  ", depth)
	for _, item := range list.Children {
		if item.Kind != blocks.NodeListItem {
			continue
		}

		sb.WriteString(indent)
		if list.ListType == blocks.ListNumbered {
			sb.WriteString(fmt.Sprintf("%d. ", item.Ordinal))
		} else {
			sb.WriteString("- ")
		}
		sb.WriteString(strings.ReplaceAll(inline(item.Runs), "\n", " "))
		if item.Media != nil {
			sb.WriteString(" " + w.media(item.Media))
		}
		sb.WriteString("\n")

		// nested lists indent one level, other content is indented under the item
		for _, child := range item.Children {
			if child.Kind == blocks.NodeList {
				w.handleList(child, sb, depth+1)
				continue
			}
			var inner strings.Builder
			w.walkNode(child, &inner)
			sb.WriteString(prefixLines(strings.TrimRight(inner.String(), "\n"), indent+"  "))
			sb.WriteString("\n")
		}
	}
}

func (w *Writer) handleTable(table *blocks.RenderNode, sb *strings.Builder) {
	var rows [][]string
	maxCols := table.Columns
	for _, row := range table.Children {
		var rowData []string
		for _, cell := range row.Children {
			content := strings.ReplaceAll(inline(cell.Runs), "\n", " ")
			rowData = append(rowData, strings.ReplaceAll(content, "|", `\|`))
		}
		rows = append(rows, rowData)
		if len(rowData) > maxCols {
			maxCols = len(rowData)
		}
	}
	if len(rows) == 0 || maxCols == 0 {
		return
	}

	body := rows
	header := make([]string, maxCols)
	if table.Children[0].Header {
		copy(header, rows[0])
		body = rows[1:]
	}

	writeRow(sb, header, maxCols)
	sb.WriteString("|")
	for i := 0; i < maxCols; i++ {
		sb.WriteString("---|")
	}
	sb.WriteString("\n")
	for _, r := range body {
		writeRow(sb, r, maxCols)
	}
	sb.WriteString("\n")
}

func writeRow(sb *strings.Builder, cells []string, cols int) {
	sb.WriteString("|")
	for i := 0; i < cols; i++ {
		if i < len(cells) && cells[i] != "" {
			sb.WriteString(" " + cells[i] + " |")
		} else {
			sb.WriteString("  |")
		}
	}
	sb.WriteString("\n")
}

func (w *Writer) media(m *blocks.MediaUnit) string {
	switch m.State() {
	case blocks.MediaUnsupported, blocks.MediaFailed:
		return fmt.Sprintf("%s [Open original](%s)", m.Message(), m.OriginalURL)
	}

	switch m.Kind {
	case blocks.MediaImage:
		if w.PlainMedia {
			return m.Alt
		}
		out := fmt.Sprintf("![%s](%s)", m.Alt, m.Src)
		if m.Caption != "" {
			out += "\n\n_" + m.Caption + "_"
		}
		return out
	case blocks.MediaVideo:
		label := "Video"
		if m.Caption != "" {
			label = m.Caption
		}
		return fmt.Sprintf("[%s](%s)", label, m.OriginalURL)
	default:
		label := "Embedded content"
		if m.Caption != "" {
			label = m.Caption
		}
		return fmt.Sprintf("[%s](%s)", label, m.Src)
	}
}

// inline renders runs as inline markdown. Line breaks become "\n"; the
// caller decides how to continue a line.
func inline(runs []blocks.Run) string {
	var sb strings.Builder
	for _, r := range runs {
		if r.LineBreak {
			sb.WriteString("\n")
			continue
		}
		sb.WriteString(run(r))
	}
	return sb.String()
}

func run(r blocks.Run) string {
	text := r.Text
	if r.Style.IsPlain() && r.Href == "" {
		return text
	}

	// markers must hug the text, so surrounding whitespace stays outside
	core := strings.TrimSpace(text)
	if core == "" {
		return text
	}
	lead := text[:strings.Index(text, core)]
	trail := text[len(lead)+len(core):]

	out := core
	if !r.Style.IsPlain() {
		out = wrap(out, r.Style)
		if span := colorSpan(r.Style); span != "" {
			out = span + out + "</span>"
		}
	}
	if r.Href != "" {
		out = "[" + out + "](" + r.Href + ")"
	}
	return lead + out + trail
}

func hardBreaks(s string) string {
	return strings.ReplaceAll(s, "\n", "  \n")
}

func prefixLines(s, prefix string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		if l == "" {
			lines[i] = strings.TrimRight(prefix, " ")
			continue
		}
		lines[i] = prefix + l
	}
	return strings.Join(lines, "\n")
}
