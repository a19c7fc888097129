package markdown

import (
	"strings"

	"pagefiber-be/pkg/blocks"
)

// colorSpan returns the opening span preserving run colours, or "" when
// the style has none. Markdown has no colour syntax so inline HTML is used.
func colorSpan(s blocks.Style) string {
	var relevant []string
	if s.Color != "" {
		relevant = append(relevant, "color:"+s.Color)
	}
	if s.BackgroundColor != "" {
		relevant = append(relevant, "background-color:"+s.BackgroundColor)
	}
	if len(relevant) == 0 {
		return ""
	}
	return "<span style=\"" + strings.Join(relevant, "; ") + "\">"
}

// wrap applies the markdown markers of s around text.
// Order: Code > Bold > Italic > Underline > Strike.
func wrap(text string, s blocks.Style) string {
	var open, close strings.Builder
	if s.Code {
		open.WriteString("`")
	}
	if s.Bold {
		open.WriteString("**")
	}
	if s.Italic {
		open.WriteString("_")
	}
	if s.Underline {
		open.WriteString("<u>")
	}
	if s.Strikethrough {
		open.WriteString("~~")
	}

	if s.Strikethrough {
		close.WriteString("~~")
	}
	if s.Underline {
		close.WriteString("</u>")
	}
	if s.Italic {
		close.WriteString("_")
	}
	if s.Bold {
		close.WriteString("**")
	}
	if s.Code {
		close.WriteString("`")
	}
	return open.String() + text + close.String()
}
