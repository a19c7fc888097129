package terminal

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"pagefiber-be/pkg/blocks"
)

var (
	headingColor = color.New(color.FgCyan, color.Bold)
	quoteColor   = color.New(color.FgHiBlack, color.Italic)
	codeColor    = color.New(color.FgYellow)
	errorColor   = color.New(color.FgRed, color.Bold)
	mediaColor   = color.New(color.FgMagenta)
	linkColor    = color.New(color.FgBlue, color.Underline)
)

var foregrounds = map[string]color.Attribute{
	"gray":   color.FgHiBlack,
	"brown":  color.FgYellow,
	"orange": color.FgHiYellow,
	"yellow": color.FgYellow,
	"green":  color.FgGreen,
	"blue":   color.FgBlue,
	"purple": color.FgMagenta,
	"pink":   color.FgHiMagenta,
	"red":    color.FgRed,
}

var backgrounds = map[string]color.Attribute{
	"gray":   color.BgHiBlack,
	"brown":  color.BgYellow,
	"orange": color.BgHiYellow,
	"yellow": color.BgYellow,
	"green":  color.BgGreen,
	"blue":   color.BgBlue,
	"purple": color.BgMagenta,
	"pink":   color.BgHiMagenta,
	"red":    color.BgRed,
}

// Printer writes render nodes as coloured terminal text
type Printer struct {
	out io.Writer
}

func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// Print writes doc to the printer's output
func (p *Printer) Print(doc *blocks.Document) error {
	var sb strings.Builder
	p.writeNodes(doc.Nodes, &sb, 0)
	_, err := io.WriteString(p.out, sb.String())
	return err
}

func (p *Printer) writeNodes(nodes []*blocks.RenderNode, sb *strings.Builder, depth int) {
	for _, n := range nodes {
		p.writeNode(n, sb, depth)
	}
}

func (p *Printer) line(sb *strings.Builder, depth int, text string) {
	indent := strings.Repeat("  ", depth)
	for _, l := range strings.Split(text, "\n") {
		sb.WriteString(indent + l + "\n")
	}
}

func (p *Printer) writeNode(n *blocks.RenderNode, sb *strings.Builder, depth int) {
	switch n.Kind {
	case blocks.NodeHeading:
		text := runs(n.Runs)
		if n.Icon != "" {
			text = n.Icon + " " + text
		}
		p.line(sb, depth, headingColor.Sprint(strings.Repeat("#", n.Level)+" "+text))
		p.writeNodes(n.Children, sb, depth+1)

	case blocks.NodeParagraph, blocks.NodeText:
		p.line(sb, depth, runs(n.Runs))
		p.writeNodes(n.Children, sb, depth+1)

	case blocks.NodeQuote:
		p.line(sb, depth, quoteColor.Sprint("│ ")+strings.ReplaceAll(runs(n.Runs), "\n", "\n"+quoteColor.Sprint("│ ")))
		p.writeNodes(n.Children, sb, depth+1)

	case blocks.NodeToDo:
		box := "[ ] "
		text := runs(n.Runs)
		if n.Checked {
			box = "[x] "
		}
		if n.StrikeHint {
			text = color.New(color.CrossedOut).Sprint(text)
		}
		p.line(sb, depth, box+text)
		p.writeNodes(n.Children, sb, depth+1)

	case blocks.NodeDivider:
		p.line(sb, depth, strings.Repeat("─", 40))

	case blocks.NodeCallout:
		icon := n.Icon
		if icon == "" {
			icon = "›"
		}
		if len(n.Children) > 0 {
			p.line(sb, depth, icon)
			p.writeNodes(n.Children, sb, depth+1)
		} else {
			p.line(sb, depth, icon+" "+runs(n.Runs))
		}

	case blocks.NodeCode:
		p.line(sb, depth, codeColor.Sprint(n.Text))

	case blocks.NodeToggle:
		p.line(sb, depth, "▸ "+runs(n.Runs))
		p.writeNodes(n.Children, sb, depth+1)

	case blocks.NodeTable:
		for _, row := range n.Children {
			cells := make([]string, 0, len(row.Children))
			for _, cell := range row.Children {
				text := runs(cell.Runs)
				if cell.Header {
					text = color.New(color.Bold).Sprint(text)
				}
				cells = append(cells, text)
			}
			p.line(sb, depth, "| "+strings.Join(cells, " | ")+" |")
		}

	case blocks.NodeColumnList, blocks.NodeColumn:
		p.writeNodes(n.Children, sb, depth)

	case blocks.NodeEquation:
		p.line(sb, depth, codeColor.Sprint(n.Text))

	case blocks.NodeMedia:
		p.line(sb, depth, media(n.Media))

	case blocks.NodeList:
		for _, item := range n.Children {
			marker := "• "
			if item.Ordinal > 0 {
				marker = fmt.Sprintf("%d. ", item.Ordinal)
			}
			if item.Kind == blocks.NodeError {
				p.line(sb, depth, marker+errorColor.Sprint(item.Text))
				continue
			}
			p.line(sb, depth, marker+runs(item.Runs))
			p.writeNodes(item.Children, sb, depth+1)
		}

	case blocks.NodeListItem:
		p.line(sb, depth, "• "+runs(n.Runs))

	case blocks.NodeError:
		p.line(sb, depth, errorColor.Sprint("! "+n.Text))

	default:
		p.writeNodes(n.Children, sb, depth)
	}
}

func media(m *blocks.MediaUnit) string {
	if m == nil {
		return ""
	}
	if m.State() != blocks.MediaReady {
		return errorColor.Sprint(m.Message()) + " " + linkColor.Sprint(m.OriginalURL)
	}
	label := string(m.Kind)
	if m.Kind == blocks.MediaImage && m.Alt != "" {
		label += ": " + m.Alt
	}
	return mediaColor.Sprintf("[%s]", label) + " " + linkColor.Sprint(m.Src)
}

func runs(rs []blocks.Run) string {
	var sb strings.Builder
	for _, r := range rs {
		if r.LineBreak {
			sb.WriteString("\n")
			continue
		}
		sb.WriteString(styled(r))
	}
	return sb.String()
}

func styled(r blocks.Run) string {
	var attrs []color.Attribute
	s := r.Style
	if s.Bold {
		attrs = append(attrs, color.Bold)
	}
	if s.Italic {
		attrs = append(attrs, color.Italic)
	}
	if s.Underline {
		attrs = append(attrs, color.Underline)
	}
	if s.Strikethrough {
		attrs = append(attrs, color.CrossedOut)
	}
	if s.Code {
		attrs = append(attrs, color.FgYellow)
	}
	if fg, ok := foregrounds[s.Color]; ok {
		attrs = append(attrs, fg)
	}
	if bg, ok := backgrounds[s.BackgroundColor]; ok {
		attrs = append(attrs, bg)
	}

	text := r.Text
	if len(attrs) > 0 {
		text = color.New(attrs...).Sprint(text)
	}
	if r.Href != "" {
		text += " " + linkColor.Sprintf("(%s)", r.Href)
	}
	return text
}
