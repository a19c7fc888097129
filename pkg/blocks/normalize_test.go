package blocks

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTree() []Block {
	return []Block{
		{Type: TypeHeading1, Text: "Title", Icon: &Icon{Type: "emoji", Emoji: "📘"}},
		{Type: TypeBulletedItem, Text: "A"},
		{Type: TypeNumberedItem, Text: "B", Children: []Block{{Type: TypeParagraph, Text: "nested"}}},
		{Type: TypeParagraph, Text: "colored", Annotations: []Annotation{
			{Start: ptr(0), End: ptr(3), Color: "yellowbackground"},
			{Start: ptr(3), End: ptr(7), Color: "red background"},
		}},
		{Type: TypeImage, MediaURL: "https://cdn.example.com/photo.HEIC", Caption: "holiday"},
		{Type: TypeVideo, Media: &Media{URL: "https://youtu.be/abc"}},
		{Type: "paragraph", URL: "https://example.com/not-media"},
		{Type: TypeTable},
		{Type: TypeColumnList, Children: []Block{{Type: TypeColumn}}},
		{Type: TypeToggle, Text: "more"},
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	n := NewNormalizer(nil)

	once := n.Normalize(sampleTree())
	twice := n.Normalize(once)

	assert.Equal(t, once, twice)
}

func TestNormalizeDoesNotMutateInput(t *testing.T) {
	in := sampleTree()
	before := sampleTree()

	NewNormalizer(nil).Normalize(in)

	assert.Equal(t, before, in)
}

func TestNormalizeRepairs(t *testing.T) {
	out := NewNormalizer(nil).Normalize(sampleTree())
	require.Len(t, out, 10)

	t.Run("list items get list type", func(t *testing.T) {
		assert.Equal(t, ListBulleted, out[1].ListType)
		assert.True(t, out[1].IsListItem)
		assert.Equal(t, ListNumbered, out[2].ListType)
	})

	t.Run("background colours are repaired", func(t *testing.T) {
		assert.Equal(t, "yellow_background", out[3].Annotations[0].Color)
		assert.Equal(t, "red_background", out[3].Annotations[1].Color)
	})

	t.Run("legacy media is folded", func(t *testing.T) {
		require.NotNil(t, out[4].Media)
		assert.Equal(t, MediaImage, out[4].Media.Kind)
		assert.Equal(t, "https://cdn.example.com/photo.HEIC", out[4].Media.URL)
		assert.Equal(t, "holiday", out[4].Media.Caption)
		assert.True(t, out[4].Media.IsHeic)
	})

	t.Run("media kind comes from type", func(t *testing.T) {
		assert.Equal(t, MediaVideo, out[5].Media.Kind)
	})

	t.Run("plain url does not create media", func(t *testing.T) {
		assert.Nil(t, out[6].Media)
	})

	t.Run("containers get children arrays", func(t *testing.T) {
		assert.NotNil(t, out[7].Children)
		assert.Empty(t, out[7].Children)
		assert.NotNil(t, out[8].Children[0].Children)
		assert.NotNil(t, out[9].Children)
	})
}

func TestNormalizeFlagsHeicFromBareURL(t *testing.T) {
	out := NewNormalizer(nil).Normalize([]Block{
		{Type: "file", URL: "https://cdn.example.com/a.HEIC"},
		{Type: "bookmark", URL: "https://example.com/page"},
	})

	require.NotNil(t, out[0].Media)
	assert.True(t, out[0].Media.IsHeic)
	assert.Equal(t, MediaImage, out[0].Media.Kind)
	assert.Equal(t, "https://cdn.example.com/a.HEIC", out[0].Media.URL)
	assert.Nil(t, out[1].Media)

	doc := NewRenderer(nil).Render(out)
	require.NotEmpty(t, doc.Nodes)
	assert.Equal(t, MediaUnsupported, doc.Nodes[0].Media.State())
}

func TestNormalizeKeepsShape(t *testing.T) {
	in := sampleTree()
	out := NewNormalizer(nil).Normalize(in)

	require.Len(t, out, len(in))
	for i := range in {
		assert.Equal(t, in[i].Type, out[i].Type)
		assert.Equal(t, in[i].Text, out[i].Text)
	}
	assert.Equal(t, "nested", out[2].Children[0].Text)
}

func TestRepairColor(t *testing.T) {
	tests := map[string]string{
		"yellowbackground":  "yellow_background",
		"yellow background": "yellow_background",
		"yellow-background": "yellow_background",
		"yellow_background": "yellow_background",
		"blue":              "blue",
		"":                  "",
		"background":        "background",
	}
	for in, want := range tests {
		if got := RepairColor(in); got != want {
			t.Errorf("RepairColor(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestIsHeicURL(t *testing.T) {
	tests := []struct {
		url  string
		want bool
	}{
		{"a.HEIC", true},
		{"x/heic/y.jpg", true},
		{"img.heic.png", true},
		{"data:image/heic;base64,AAAA", true},
		{"a.jpg", false},
		{"https://cdn.example.com/cheick.png", false},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			if got := IsHeicURL(tt.url); got != tt.want {
				t.Errorf("IsHeicURL(%q) = %v, want %v", tt.url, got, tt.want)
			}
		})
	}
}
