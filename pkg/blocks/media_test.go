package blocks

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbedURL(t *testing.T) {
	tests := []struct {
		name         string
		url          string
		wantEmbed    string
		wantProvider string
		wantOK       bool
	}{
		{"youtube watch", "https://www.youtube.com/watch?v=abc123&t=10s", "https://www.youtube.com/embed/abc123", "youtube", true},
		{"youtube mobile", "https://m.youtube.com/watch?v=abc123", "https://www.youtube.com/embed/abc123", "youtube", true},
		{"youtube short link", "https://youtu.be/abc123?si=xyz", "https://www.youtube.com/embed/abc123", "youtube", true},
		{"youtube shorts", "https://youtube.com/shorts/abc123", "https://www.youtube.com/embed/abc123", "youtube", true},
		{"youtube channel", "https://www.youtube.com/@someone", "", "", false},
		{"vimeo page", "https://vimeo.com/76979871", "https://player.vimeo.com/video/76979871", "vimeo", true},
		{"vimeo non numeric", "https://vimeo.com/channels/staffpicks", "", "", false},
		{"vimeo player", "https://player.vimeo.com/video/1", "https://player.vimeo.com/video/1", "vimeo", true},
		{"direct file", "https://cdn.example.com/clip.mp4", "", "", false},
		{"not a url", "clip.mp4", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			embed, provider, ok := EmbedURL(tt.url)
			if ok != tt.wantOK || embed != tt.wantEmbed || provider != tt.wantProvider {
				t.Errorf("EmbedURL(%q) = (%q, %q, %v), want (%q, %q, %v)",
					tt.url, embed, provider, ok, tt.wantEmbed, tt.wantProvider, tt.wantOK)
			}
		})
	}
}

func TestResolveMediaImageAlt(t *testing.T) {
	tests := []struct {
		name     string
		caption  string
		fallback string
		want     string
	}{
		{"caption wins", "cap", "text", "cap"},
		{"text fallback", "", "text", "text"},
		{"default", "", "", "Image"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			unit := ResolveMedia(Media{Kind: MediaImage, URL: "https://a/b.png", Caption: tt.caption}, tt.fallback)
			require.NotNil(t, unit)
			assert.Equal(t, tt.want, unit.Alt)
		})
	}
}

func TestResolveMediaEmptyURL(t *testing.T) {
	assert.Nil(t, ResolveMedia(Media{Kind: MediaImage, URL: "  "}, ""))
}

func TestResolveMediaDirectVideo(t *testing.T) {
	unit := ResolveMedia(Media{Kind: MediaVideo, URL: "https://cdn.example.com/clip.mp4"}, "")
	require.NotNil(t, unit)
	assert.Equal(t, "https://cdn.example.com/clip.mp4", unit.Src)
	assert.Empty(t, unit.Provider)
}

func TestMediaUnitFail(t *testing.T) {
	unit := ResolveMedia(Media{Kind: MediaImage, URL: "https://a/b.png"}, "")
	require.NotNil(t, unit)

	var wg sync.WaitGroup
	changed := make(chan bool, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			changed <- unit.Fail("")
		}()
	}
	wg.Wait()
	close(changed)

	swaps := 0
	for c := range changed {
		if c {
			swaps++
		}
	}
	assert.Equal(t, 1, swaps)
	assert.Equal(t, MediaFailed, unit.State())
	assert.Equal(t, FailedMessage(MediaImage), unit.Message())
}

func TestMediaUnitFailOnlyAffectsItself(t *testing.T) {
	doc := NewRenderer(nil).Render([]Block{
		{Type: TypeImage, MediaURL: "https://a/1.png"},
		{Type: TypeImage, MediaURL: "https://a/2.png"},
	})

	assert.True(t, doc.Nodes[0].Media.Fail("404"))

	assert.Equal(t, MediaFailed, doc.Nodes[0].Media.State())
	assert.Contains(t, doc.Nodes[0].Media.Message(), "404")
	assert.Equal(t, MediaReady, doc.Nodes[1].Media.State())
}

func TestMediaUnitFailIgnoresUnsupported(t *testing.T) {
	unit := ResolveMedia(Media{Kind: MediaImage, URL: "https://a/b.heic"}, "")
	assert.False(t, unit.Fail(""))
	assert.Equal(t, MediaUnsupported, unit.State())
}

func TestMediaUnitJSON(t *testing.T) {
	unit := ResolveMedia(Media{Kind: MediaVideo, URL: "https://youtu.be/abc"}, "")
	unit.Fail("")

	data, err := json.Marshal(unit)
	require.NoError(t, err)

	var decoded MediaUnit
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, MediaFailed, decoded.State())
	assert.Equal(t, "https://www.youtube.com/embed/abc", decoded.Src)
	assert.Equal(t, "youtube", decoded.Provider)
	assert.Equal(t, failedVideoMessage, decoded.Message())
}
