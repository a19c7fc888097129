package blocks

import (
	"fmt"
	"strings"

	"pagefiber-be/internal/pkg/logger"
)

const normalizeModule = "BlockNormalizer"

// Normalizer repairs missing and legacy fields so the renderer sees one
// canonical block shape. It never changes the shape of the tree and never
// touches the caller's blocks.
type Normalizer struct {
	log logger.ILogger
}

// NewNormalizer creates a normalizer. A nil logger discards diagnostics.
func NewNormalizer(log logger.ILogger) *Normalizer {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Normalizer{log: log}
}

// Normalize returns a repaired copy of tree. Running it on its own output
// yields the same tree.
func (n *Normalizer) Normalize(tree []Block) []Block {
	if tree == nil {
		return nil
	}
	out := make([]Block, len(tree))
	for i := range tree {
		out[i] = n.normalizeBlock(tree[i], fmt.Sprintf("%d", i))
	}
	return out
}

func (n *Normalizer) normalizeBlock(in Block, path string) (out Block) {
	out = in.clone()
	defer func() {
		if r := recover(); r != nil {
			n.log.Error(normalizeModule, "Block normalization failed, passing through", map[string]interface{}{
				"path":  path,
				"type":  in.Type,
				"error": fmt.Sprint(r),
			})
		}
	}()

	repairListType(&out)
	repairAnnotationColors(out.Annotations)
	repairMedia(&out)
	repairChildren(&out)

	for i := range out.Children {
		out.Children[i] = n.normalizeBlock(out.Children[i], path+"."+fmt.Sprint(i))
	}
	return out
}

func repairListType(b *Block) {
	var inferred ListType
	switch b.Type {
	case TypeBulletedItem:
		inferred = ListBulleted
	case TypeNumberedItem:
		inferred = ListNumbered
	default:
		return
	}
	if b.ListType == ListNone {
		b.ListType = inferred
	}
	b.IsListItem = true
}

// RepairColor rewrites malformed background colours ("yellowbackground",
// "yellow background", "yellow-background") into "yellow_background".
// Well formed values are returned unchanged.
func RepairColor(color string) string {
	if !strings.Contains(color, "background") || strings.Contains(color, backgroundSuffix) {
		return color
	}
	name := strings.Replace(color, "background", "", 1)
	name = strings.Trim(name, " _-")
	if name == "" {
		return color
	}
	return name + backgroundSuffix
}

func repairAnnotationColors(annotations []Annotation) {
	for i := range annotations {
		annotations[i].Color = RepairColor(annotations[i].Color)
	}
}

// IsHeicURL applies the HEIC detection rule: ends with .heic, or contains
// /heic, heic. or image/heic, case insensitive.
func IsHeicURL(url string) bool {
	u := strings.ToLower(url)
	return strings.HasSuffix(u, ".heic") ||
		strings.Contains(u, "/heic") ||
		strings.Contains(u, "heic.") ||
		strings.Contains(u, "image/heic")
}

// repairMedia folds legacy media_url / url / media_type into Media and
// flags HEIC sources.
func repairMedia(b *Block) {
	kind := ParseMediaKind(b.MediaType)
	if kind == "" {
		kind = ParseMediaKind(b.Type)
	}

	legacyURL := b.MediaURL
	if legacyURL == "" {
		legacyURL = b.URL
	}

	if b.Media == nil {
		// a bare url is a link unless it points at a HEIC file
		if kind == "" && b.MediaURL == "" && !IsHeicURL(b.URL) {
			return
		}
		if kind == "" {
			kind = MediaImage
		}
		b.Media = &Media{Kind: kind, URL: legacyURL, Caption: b.Caption}
	}

	if b.Media.Kind == "" {
		if kind == "" {
			kind = MediaImage
		}
		b.Media.Kind = kind
	}
	if b.Media.URL == "" {
		b.Media.URL = legacyURL
	}
	if b.Media.Caption == "" {
		b.Media.Caption = b.Caption
	}
	if IsHeicURL(b.Media.URL) {
		b.Media.IsHeic = true
	}
}

func repairChildren(b *Block) {
	switch b.Type {
	case TypeTable, TypeTableRow, TypeColumnList, TypeColumn, TypeToggle:
		if b.Children == nil {
			b.Children = []Block{}
		}
	}
}
