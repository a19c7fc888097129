package html

import (
	"fmt"
	stdhtml "html"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"pagefiber-be/pkg/blocks"
)

// FallbackAttr marks media elements that swap to a placeholder when the
// browser fails to load them. The attribute value is the placeholder text.
const FallbackAttr = "data-media-fallback"

// Renderer converts render nodes to a sanitised HTML fragment
type Renderer struct {
	policy *bluemonday.Policy
}

// NewRenderer creates a renderer with the default content policy
func NewRenderer() *Renderer {
	return &Renderer{policy: Policy()}
}

// Policy is the sanitising policy applied to every fragment: the UGC
// baseline plus the structural elements and media players the renderer emits.
func Policy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowElements("aside", "details", "summary", "figure", "figcaption", "section", "span", "div", "s", "u")
	p.AllowAttrs("class").Globally()
	p.AllowAttrs("role").OnElements("div")
	p.AllowDataAttributes()
	p.AllowAttrs("value").Matching(bluemonday.Integer).OnElements("li")
	p.AllowAttrs("scope").Matching(bluemonday.SpaceSeparatedTokens).OnElements("th")

	p.AllowElements("iframe", "video", "source")
	p.AllowAttrs("src").OnElements("iframe", "video", "source")
	p.AllowAttrs("allowfullscreen", "loading").OnElements("iframe")
	p.AllowAttrs("referrerpolicy").OnElements("iframe")
	p.AllowAttrs("controls", "preload").OnElements("video")
	p.AllowAttrs("loading").OnElements("img")
	p.RequireNoFollowOnLinks(false)
	p.AddTargetBlankToFullyQualifiedLinks(true)
	return p
}

// Render returns the sanitised HTML fragment for doc
func (r *Renderer) Render(doc *blocks.Document) string {
	if doc == nil {
		return ""
	}
	var sb strings.Builder
	r.writeNodes(doc.Nodes, &sb)
	return r.policy.Sanitize(sb.String())
}

// Page wraps the fragment in a standalone document carrying the media
// fallback script
func (r *Renderer) Page(title string, doc *blocks.Document) string {
	var sb strings.Builder
	sb.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n")
	sb.WriteString("<meta name=\"viewport\" content=\"width=device-width, initial-scale=1\">\n")
	sb.WriteString("<title>" + stdhtml.EscapeString(title) + "</title>\n</head>\n<body>\n<article class=\"page\">\n")
	sb.WriteString(r.Render(doc))
	sb.WriteString("\n</article>\n<script>")
	sb.WriteString(FallbackScript)
	sb.WriteString("</script>\n</body>\n</html>\n")
	return sb.String()
}

// FallbackScript replaces a media element that fails to load with its
// placeholder. Only the failing element is touched.
const FallbackScript = `document.addEventListener("error",function(e){` +
	`var t=e.target;if(!t||!t.closest)return;` +
	`var m=t.closest("[` + FallbackAttr + `]");if(!m||m.dataset.failed)return;` +
	`m.dataset.failed="1";var d=document.createElement("div");` +
	`d.className="media-placeholder media-failed";d.textContent=m.getAttribute("` + FallbackAttr + `");` +
	`m.replaceWith(d);},true);`

func (r *Renderer) writeNodes(nodes []*blocks.RenderNode, sb *strings.Builder) {
	for _, n := range nodes {
		r.writeNode(n, sb)
	}
}

func (r *Renderer) writeNode(n *blocks.RenderNode, sb *strings.Builder) {
	switch n.Kind {
	case blocks.NodeHeading:
		level := n.Level
		if level < 1 || level > 3 {
			level = 1
		}
		fmt.Fprintf(sb, "<h%d>", level)
		writeIcon(n.Icon, sb)
		writeRuns(n.Runs, sb)
		fmt.Fprintf(sb, "</h%d>", level)
		r.writeChildren(n, sb)

	case blocks.NodeParagraph, blocks.NodeText:
		sb.WriteString("<p>")
		writeRuns(n.Runs, sb)
		sb.WriteString("</p>")
		r.writeChildren(n, sb)

	case blocks.NodeQuote:
		sb.WriteString("<blockquote>")
		writeRuns(n.Runs, sb)
		r.writeNodes(n.Children, sb)
		sb.WriteString("</blockquote>")

	case blocks.NodeToDo:
		class := "todo"
		mark := "☐"
		if n.Checked {
			class += " todo-checked"
			mark = "☑"
		}
		sb.WriteString(`<div class="` + class + `"><span class="todo-box">` + mark + `</span> `)
		if n.StrikeHint {
			sb.WriteString("<s>")
			writeRuns(n.Runs, sb)
			sb.WriteString("</s>")
		} else {
			writeRuns(n.Runs, sb)
		}
		sb.WriteString("</div>")
		r.writeChildren(n, sb)

	case blocks.NodeDivider:
		sb.WriteString("<hr>")

	case blocks.NodeCallout:
		sb.WriteString(`<aside class="callout">`)
		if n.Icon != "" {
			sb.WriteString(`<span class="callout-icon">` + stdhtml.EscapeString(n.Icon) + `</span>`)
		}
		sb.WriteString(`<div class="callout-body">`)
		if len(n.Children) > 0 {
			r.writeNodes(n.Children, sb)
		} else {
			writeRuns(n.Runs, sb)
		}
		sb.WriteString("</div></aside>")

	case blocks.NodeCode:
		sb.WriteString("<pre><code")
		if n.Language != "" {
			sb.WriteString(` class="language-` + stdhtml.EscapeString(n.Language) + `"`)
		}
		sb.WriteString(">" + stdhtml.EscapeString(n.Text) + "</code></pre>")

	case blocks.NodeToggle:
		sb.WriteString("<details><summary>")
		writeIcon(n.Icon, sb)
		writeRuns(n.Runs, sb)
		sb.WriteString("</summary>")
		r.writeNodes(n.Children, sb)
		sb.WriteString("</details>")

	case blocks.NodeTable:
		r.writeTable(n, sb)

	case blocks.NodeColumnList:
		sb.WriteString(`<div class="columns columns-` + n.Layout + `">`)
		r.writeNodes(n.Children, sb)
		sb.WriteString("</div>")

	case blocks.NodeColumn:
		sb.WriteString(`<div class="column">`)
		r.writeNodes(n.Children, sb)
		sb.WriteString("</div>")

	case blocks.NodeEquation:
		sb.WriteString(`<div class="equation">$$` + stdhtml.EscapeString(n.Text) + `$$</div>`)

	case blocks.NodeMedia:
		writeMedia(n.Media, sb)

	case blocks.NodeList:
		r.writeList(n, sb)

	case blocks.NodeListItem:
		sb.WriteString("<ul>")
		r.writeItem(n, sb)
		sb.WriteString("</ul>")

	case blocks.NodeError:
		sb.WriteString(`<div class="render-error" role="alert">` + stdhtml.EscapeString(n.Text) + `</div>`)

	default:
		r.writeNodes(n.Children, sb)
	}
}

func (r *Renderer) writeChildren(n *blocks.RenderNode, sb *strings.Builder) {
	if len(n.Children) == 0 {
		return
	}
	sb.WriteString(`<div class="children">`)
	r.writeNodes(n.Children, sb)
	sb.WriteString("</div>")
}

func (r *Renderer) writeList(list *blocks.RenderNode, sb *strings.Builder) {
	tag := "ul"
	if list.ListType == blocks.ListNumbered {
		tag = "ol"
	}
	sb.WriteString("<" + tag + ">")
	for _, item := range list.Children {
		r.writeItem(item, sb)
	}
	sb.WriteString("</" + tag + ">")
}

func (r *Renderer) writeItem(item *blocks.RenderNode, sb *strings.Builder) {
	if item.Kind == blocks.NodeError {
		sb.WriteString("<li>")
		r.writeNode(item, sb)
		sb.WriteString("</li>")
		return
	}
	if item.Ordinal > 0 {
		fmt.Fprintf(sb, `<li value="%d">`, item.Ordinal)
	} else {
		sb.WriteString("<li>")
	}
	writeRuns(item.Runs, sb)
	if item.Media != nil {
		writeMedia(item.Media, sb)
	}
	r.writeNodes(item.Children, sb)
	sb.WriteString("</li>")
}

func (r *Renderer) writeTable(table *blocks.RenderNode, sb *strings.Builder) {
	sb.WriteString(`<table class="table">`)
	for _, row := range table.Children {
		sb.WriteString("<tr>")
		for _, cell := range row.Children {
			tag := "td"
			if cell.Header {
				tag = "th"
			}
			sb.WriteString("<" + tag + ">")
			writeRuns(cell.Runs, sb)
			sb.WriteString("</" + tag + ">")
		}
		sb.WriteString("</tr>")
	}
	sb.WriteString("</table>")
}

func writeIcon(icon string, sb *strings.Builder) {
	if icon == "" {
		return
	}
	sb.WriteString(`<span class="icon">` + stdhtml.EscapeString(icon) + `</span> `)
}

func writeMedia(m *blocks.MediaUnit, sb *strings.Builder) {
	if m == nil {
		return
	}
	esc := stdhtml.EscapeString

	switch m.State() {
	case blocks.MediaUnsupported, blocks.MediaFailed:
		sb.WriteString(`<div class="media-placeholder media-` + string(m.State()) + `">`)
		sb.WriteString(esc(m.Message()))
		if m.OriginalURL != "" {
			sb.WriteString(` <a href="` + esc(m.OriginalURL) + `">Open original</a>`)
		}
		sb.WriteString("</div>")
		return
	}

	fallback := esc(blocks.FailedMessage(m.Kind))
	sb.WriteString(`<figure class="media media-` + string(m.Kind) + `" ` + FallbackAttr + `="` + fallback + `">`)
	switch m.Kind {
	case blocks.MediaImage:
		sb.WriteString(`<img src="` + esc(m.Src) + `" alt="` + esc(m.Alt) + `" loading="lazy">`)
	case blocks.MediaVideo:
		if m.Provider != "" {
			sb.WriteString(`<iframe src="` + esc(m.Src) + `" allowfullscreen loading="lazy"></iframe>`)
		} else {
			sb.WriteString(`<video controls preload="metadata" src="` + esc(m.Src) + `"></video>`)
		}
	default:
		sb.WriteString(`<iframe src="` + esc(m.Src) + `" loading="lazy"></iframe>`)
	}
	if m.Caption != "" {
		sb.WriteString("<figcaption>" + esc(m.Caption) + "</figcaption>")
	}
	sb.WriteString("</figure>")
}

func writeRuns(runs []blocks.Run, sb *strings.Builder) {
	for _, run := range runs {
		if run.LineBreak {
			sb.WriteString("<br>")
			continue
		}
		writeRun(run, sb)
	}
}

func writeRun(run blocks.Run, sb *strings.Builder) {
	var open, close []string
	push := func(o, c string) {
		open = append(open, o)
		close = append([]string{c}, close...)
	}

	if run.Href != "" {
		push(`<a href="`+stdhtml.EscapeString(run.Href)+`">`, "</a>")
	}
	if classes := colorClasses(run.Style); classes != "" {
		push(`<span class="`+classes+`">`, "</span>")
	}
	s := run.Style
	if s.Bold {
		push("<strong>", "</strong>")
	}
	if s.Italic {
		push("<em>", "</em>")
	}
	if s.Underline {
		push("<u>", "</u>")
	}
	if s.Strikethrough {
		push("<s>", "</s>")
	}
	if s.Code {
		push("<code>", "</code>")
	}

	sb.WriteString(strings.Join(open, ""))
	sb.WriteString(stdhtml.EscapeString(run.Text))
	sb.WriteString(strings.Join(close, ""))
}

// colorClasses maps run colours onto theme classes ("color-red bg-yellow")
func colorClasses(s blocks.Style) string {
	var classes []string
	if s.Color != "" {
		classes = append(classes, "color-"+cssToken(s.Color))
	}
	if s.BackgroundColor != "" {
		classes = append(classes, "bg-"+cssToken(s.BackgroundColor))
	}
	return strings.Join(classes, " ")
}

func cssToken(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		}
		return -1
	}, s)
}
