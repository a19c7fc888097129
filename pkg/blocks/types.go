package blocks

import (
	"strings"
)

// Block types understood by the renderer
const (
	TypeHeading1     = "heading_1"
	TypeHeading2     = "heading_2"
	TypeHeading3     = "heading_3"
	TypeParagraph    = "paragraph"
	TypeQuote        = "quote"
	TypeToDo         = "to_do"
	TypeDivider      = "divider"
	TypeCallout      = "callout"
	TypeCode         = "code"
	TypeToggle       = "toggle"
	TypeTable        = "table"
	TypeTableRow     = "table_row"
	TypeColumnList   = "column_list"
	TypeColumn       = "column"
	TypeEquation     = "equation"
	TypeImage        = "image"
	TypeVideo        = "video"
	TypeEmbed        = "embed"
	TypeBulletedItem = "bulleted_list_item"
	TypeNumberedItem = "numbered_list_item"
	TypeDiv          = "div"
)

// ListType identifies the kind of list a list item belongs to
type ListType string

const (
	ListNone     ListType = ""
	ListBulleted ListType = "bulleted"
	ListNumbered ListType = "numbered"
)

// ParseListType maps the different spellings seen upstream
// ("bulleted", "bulleted_list", "bulleted_list_item", "ul", ...) to a ListType.
func ParseListType(s string) ListType {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "bulleted", "bulleted_list", "bulleted_list_item", "bullet", "ul":
		return ListBulleted
	case "numbered", "numbered_list", "numbered_list_item", "number", "ol":
		return ListNumbered
	}
	return ListNone
}

// MediaKind is the display family of a media payload
type MediaKind string

const (
	MediaImage MediaKind = "image"
	MediaVideo MediaKind = "video"
	MediaEmbed MediaKind = "embed"
)

// ParseMediaKind returns the MediaKind for s, or "" when s is not a media kind.
func ParseMediaKind(s string) MediaKind {
	switch MediaKind(strings.ToLower(strings.TrimSpace(s))) {
	case MediaImage:
		return MediaImage
	case MediaVideo:
		return MediaVideo
	case MediaEmbed:
		return MediaEmbed
	}
	return ""
}

// Media is the unified media payload. Legacy blocks carry the same data in
// media_url / url / media_type; the normalizer folds those into Media.
type Media struct {
	Kind    MediaKind `json:"kind"`
	URL     string    `json:"url"`
	Caption string    `json:"caption,omitempty"`
	IsHeic  bool      `json:"isHeic,omitempty"`
}

// Icon decorates headings, callouts and toggles
type Icon struct {
	Type  string `json:"type,omitempty"` // emoji, external, file
	Emoji string `json:"emoji,omitempty"`
	URL   string `json:"url,omitempty"`
}

// Annotation is a formatting instruction. Position based annotations carry
// Start/End over the parent block text; legacy annotations carry their own
// Text and no position.
type Annotation struct {
	Start         *int   `json:"start,omitempty"`
	End           *int   `json:"end,omitempty"`
	Text          string `json:"text,omitempty"`
	Bold          bool   `json:"bold,omitempty"`
	Italic        bool   `json:"italic,omitempty"`
	Underline     bool   `json:"underline,omitempty"`
	Strikethrough bool   `json:"strikethrough,omitempty"`
	Code          bool   `json:"code,omitempty"`
	Color         string `json:"color,omitempty"`
	Href          string `json:"href,omitempty"`
}

// Positioned reports whether the annotation carries any position field
func (a Annotation) Positioned() bool {
	return a.Start != nil || a.End != nil
}

// Block is one node of the synced content tree
type Block struct {
	ID          string       `json:"id,omitempty"`
	Type        string       `json:"type"`
	Text        string       `json:"text,omitempty"`
	Annotations []Annotation `json:"annotations,omitempty"`
	Children    []Block      `json:"children,omitempty"`

	IsListItem bool     `json:"isListItem,omitempty"`
	ListType   ListType `json:"listType,omitempty"`

	Media *Media `json:"media,omitempty"`

	// Legacy media fields
	MediaURL  string `json:"media_url,omitempty"`
	URL       string `json:"url,omitempty"`
	MediaType string `json:"media_type,omitempty"`
	Caption   string `json:"caption,omitempty"`

	Checked  bool   `json:"checked,omitempty"`
	Language string `json:"language,omitempty"`
	Icon     *Icon  `json:"icon,omitempty"`
	Emoji    string `json:"emoji,omitempty"`

	HasRowHeader    bool `json:"hasRowHeader,omitempty"`
	HasColumnHeader bool `json:"hasColumnHeader,omitempty"`
}

// IsList reports whether the block takes part in list grouping
func (b *Block) IsList() bool {
	return b.IsListItem || b.Type == TypeBulletedItem || b.Type == TypeNumberedItem
}

// EffectiveListType resolves the list type from the explicit field or the block type
func (b *Block) EffectiveListType() ListType {
	if b.ListType != ListNone {
		return b.ListType
	}
	switch b.Type {
	case TypeNumberedItem:
		return ListNumbered
	case TypeBulletedItem:
		return ListBulleted
	}
	if b.IsListItem {
		return ListBulleted
	}
	return ListNone
}

// IconText returns the emoji or icon url that decorates the block
func (b *Block) IconText() string {
	if b.Icon != nil {
		if b.Icon.Emoji != "" {
			return b.Icon.Emoji
		}
		if b.Icon.URL != "" {
			return b.Icon.URL
		}
	}
	return b.Emoji
}

// clone returns a deep copy of the block
func (b Block) clone() Block {
	out := b
	if b.Annotations != nil {
		out.Annotations = make([]Annotation, len(b.Annotations))
		for i, a := range b.Annotations {
			out.Annotations[i] = a.clone()
		}
	}
	if b.Children != nil {
		out.Children = make([]Block, len(b.Children))
		for i := range b.Children {
			out.Children[i] = b.Children[i].clone()
		}
	}
	if b.Media != nil {
		m := *b.Media
		out.Media = &m
	}
	if b.Icon != nil {
		ic := *b.Icon
		out.Icon = &ic
	}
	return out
}

func (a Annotation) clone() Annotation {
	out := a
	if a.Start != nil {
		s := *a.Start
		out.Start = &s
	}
	if a.End != nil {
		e := *a.End
		out.End = &e
	}
	return out
}
