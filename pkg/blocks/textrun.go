package blocks

import (
	"sort"
	"strings"
)

const backgroundSuffix = "_background"

// Style is the resolved formatting of a run
type Style struct {
	Bold            bool   `json:"bold,omitempty"`
	Italic          bool   `json:"italic,omitempty"`
	Underline       bool   `json:"underline,omitempty"`
	Strikethrough   bool   `json:"strikethrough,omitempty"`
	Code            bool   `json:"code,omitempty"`
	Color           string `json:"color,omitempty"`
	BackgroundColor string `json:"backgroundColor,omitempty"`
}

// IsPlain reports whether the style carries no formatting
func (s Style) IsPlain() bool {
	return s == Style{}
}

// Run is a contiguous piece of text with one style. A LineBreak run carries
// no text and separates the lines of a multi-line block.
type Run struct {
	Text      string `json:"text,omitempty"`
	Style     Style  `json:"style,omitempty"`
	Href      string `json:"href,omitempty"`
	LineBreak bool   `json:"lineBreak,omitempty"`
}

// SplitColor splits an annotation colour into foreground and background.
// "yellow_background" yields ("", "yellow"), "blue" yields ("blue", "").
// "default" means no colour.
func SplitColor(color string) (foreground, background string) {
	c := strings.ToLower(strings.TrimSpace(color))
	if c == "" || c == "default" {
		return "", ""
	}
	if strings.HasSuffix(c, backgroundSuffix) {
		name := strings.TrimSuffix(c, backgroundSuffix)
		if name == "" || name == "default" {
			return "", ""
		}
		return "", name
	}
	return c, ""
}

// StyleOf converts an annotation into a run style
func StyleOf(a Annotation) Style {
	fg, bg := SplitColor(a.Color)
	return Style{
		Bold:            a.Bold,
		Italic:          a.Italic,
		Underline:       a.Underline,
		Strikethrough:   a.Strikethrough,
		Code:            a.Code,
		Color:           fg,
		BackgroundColor: bg,
	}
}

// ResolveRuns turns text plus annotations into ordered, non-overlapping runs.
//
// If any annotation carries a position the whole set is treated as position
// based: ranges are sorted by start, clipped to the text and to the end of
// the previous range, and gaps are emitted unstyled. Otherwise every
// annotation is a legacy whole segment carrying its own text, and the text
// argument is ignored unless no segment has any text. Newlines always become
// LineBreak runs.
func ResolveRuns(text string, annotations []Annotation) []Run {
	if len(annotations) == 0 {
		return plainRuns(text)
	}

	positioned := false
	for _, a := range annotations {
		if a.Positioned() {
			positioned = true
			break
		}
	}
	if !positioned {
		if runs := legacyRuns(annotations); runs != nil {
			return runs
		}
		return plainRuns(text)
	}
	return positionedRuns(text, annotations)
}

// PlainText concatenates the text of runs, turning line breaks into "\n"
func PlainText(runs []Run) string {
	var sb strings.Builder
	for _, r := range runs {
		if r.LineBreak {
			sb.WriteString("\n")
			continue
		}
		sb.WriteString(r.Text)
	}
	return sb.String()
}

func plainRuns(text string) []Run {
	if text == "" {
		return nil
	}
	var runs []Run
	for i, line := range strings.Split(text, "\n") {
		if i > 0 {
			runs = append(runs, Run{LineBreak: true})
		}
		if line != "" {
			runs = append(runs, Run{Text: line})
		}
	}
	return runs
}

func legacyRuns(annotations []Annotation) []Run {
	var runs []Run
	for _, a := range annotations {
		if a.Text == "" {
			continue
		}
		style := StyleOf(a)
		for i, line := range strings.Split(a.Text, "\n") {
			if i > 0 {
				runs = append(runs, Run{LineBreak: true})
			}
			if line != "" {
				runs = append(runs, Run{Text: line, Style: style, Href: a.Href})
			}
		}
	}
	return runs
}

type span struct {
	start, end int
	style      Style
	href       string
}

func positionedRuns(text string, annotations []Annotation) []Run {
	runes := []rune(text)
	n := len(runes)

	spans := make([]span, 0, len(annotations))
	for _, a := range annotations {
		if a.Start == nil || a.End == nil {
			continue
		}
		start, end := *a.Start, *a.End
		if start < 0 {
			start = 0
		}
		if end > n {
			end = n
		}
		if end <= start {
			continue
		}
		spans = append(spans, span{start: start, end: end, style: StyleOf(a), href: a.Href})
	}
	sort.SliceStable(spans, func(i, j int) bool { return spans[i].start < spans[j].start })

	var runs []Run
	offset := 0
	for i, line := range strings.Split(text, "\n") {
		if i > 0 {
			runs = append(runs, Run{LineBreak: true})
		}
		lineLen := len([]rune(line))
		runs = append(runs, segmentRuns(runes[offset:offset+lineLen], offset, spans)...)
		offset += lineLen + 1
	}
	return runs
}

// segmentRuns resolves one line. offset is the position of the line within
// the full text, spans are in full-text coordinates and sorted by start.
func segmentRuns(line []rune, offset int, spans []span) []Run {
	var runs []Run
	cursor := 0
	for _, s := range spans {
		start := s.start - offset
		end := s.end - offset
		if end <= 0 || start >= len(line) {
			continue
		}
		if start < cursor {
			start = cursor
		}
		if end > len(line) {
			end = len(line)
		}
		if end <= start {
			continue
		}
		if start > cursor {
			runs = append(runs, Run{Text: string(line[cursor:start])})
		}
		runs = append(runs, Run{Text: string(line[start:end]), Style: s.style, Href: s.href})
		cursor = end
	}
	if cursor < len(line) {
		runs = append(runs, Run{Text: string(line[cursor:])})
	}
	return runs
}
