package blocks

import (
	"encoding/json"
	"net/url"
	"strings"
	"sync"
)

// MediaState is the display state of a media unit
type MediaState string

const (
	MediaReady       MediaState = "ready"
	MediaUnsupported MediaState = "unsupported"
	MediaFailed      MediaState = "failed"
)

const (
	defaultImageAlt    = "Image"
	heicMessage        = "This image is in HEIC format, which browsers cannot display. Open the original file instead."
	failedImageMessage = "This image failed to load."
	failedVideoMessage = "This video failed to load."
	failedEmbedMessage = "This embedded content failed to load."
)

// MediaUnit is the display unit for an image, video or embed. Its state can
// change after rendering through Fail, which the host calls when the browser
// (or any other consumer) reports a load error.
type MediaUnit struct {
	Kind        MediaKind
	Src         string
	OriginalURL string
	Alt         string
	Caption     string
	Provider    string

	mu      sync.RWMutex
	state   MediaState
	message string
}

// State returns the current display state
func (m *MediaUnit) State() MediaState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Message returns the placeholder message, empty while the unit is ready
func (m *MediaUnit) Message() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.message
}

// Fail swaps the unit to the failed-to-load placeholder. Safe to call from
// any goroutine at any time after rendering; only this unit changes.
// Returns false if the unit was not in the ready state.
func (m *MediaUnit) Fail(reason string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != MediaReady {
		return false
	}
	m.state = MediaFailed
	m.message = failedMessage(m.Kind)
	if reason != "" {
		m.message += " (" + reason + ")"
	}
	return true
}

// FailedMessage is the placeholder text shown when a unit of kind fails
func FailedMessage(kind MediaKind) string {
	return failedMessage(kind)
}

func failedMessage(kind MediaKind) string {
	switch kind {
	case MediaVideo:
		return failedVideoMessage
	case MediaEmbed:
		return failedEmbedMessage
	}
	return failedImageMessage
}

type mediaUnitJSON struct {
	Kind        MediaKind  `json:"kind"`
	State       MediaState `json:"state"`
	Src         string     `json:"src,omitempty"`
	OriginalURL string     `json:"originalUrl"`
	Alt         string     `json:"alt,omitempty"`
	Caption     string     `json:"caption,omitempty"`
	Provider    string     `json:"provider,omitempty"`
	Message     string     `json:"message,omitempty"`
}

func (m *MediaUnit) MarshalJSON() ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return json.Marshal(mediaUnitJSON{
		Kind:        m.Kind,
		State:       m.state,
		Src:         m.Src,
		OriginalURL: m.OriginalURL,
		Alt:         m.Alt,
		Caption:     m.Caption,
		Provider:    m.Provider,
		Message:     m.message,
	})
}

func (m *MediaUnit) UnmarshalJSON(data []byte) error {
	var aux mediaUnitJSON
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Kind = aux.Kind
	m.Src = aux.Src
	m.OriginalURL = aux.OriginalURL
	m.Alt = aux.Alt
	m.Caption = aux.Caption
	m.Provider = aux.Provider
	m.state = aux.State
	m.message = aux.Message
	return nil
}

// ResolveMedia builds the display unit for a media payload. fallbackText is
// used as image alt text when there is no caption. An empty URL yields nil.
func ResolveMedia(m Media, fallbackText string) *MediaUnit {
	src := strings.TrimSpace(m.URL)
	if src == "" {
		return nil
	}

	switch m.Kind {
	case MediaVideo:
		return resolveVideo(src, m.Caption)
	case MediaEmbed:
		return &MediaUnit{
			Kind:        MediaEmbed,
			Src:         src,
			OriginalURL: src,
			Caption:     m.Caption,
			state:       MediaReady,
		}
	default:
		return resolveImage(src, m, fallbackText)
	}
}

func resolveImage(src string, m Media, fallbackText string) *MediaUnit {
	alt := m.Caption
	if alt == "" {
		alt = fallbackText
	}
	if alt == "" {
		alt = defaultImageAlt
	}

	unit := &MediaUnit{
		Kind:        MediaImage,
		OriginalURL: src,
		Alt:         alt,
		Caption:     m.Caption,
	}
	if m.IsHeic || IsHeicURL(src) {
		unit.state = MediaUnsupported
		unit.message = heicMessage
		return unit
	}
	unit.Src = src
	unit.state = MediaReady
	return unit
}

func resolveVideo(src, caption string) *MediaUnit {
	unit := &MediaUnit{
		Kind:        MediaVideo,
		Src:         src,
		OriginalURL: src,
		Caption:     caption,
		state:       MediaReady,
	}
	if embed, provider, ok := EmbedURL(src); ok {
		unit.Src = embed
		unit.Provider = provider
	}
	return unit
}

// EmbedURL rewrites a video-sharing watch page into its embeddable player
// URL. YouTube watch (?v=), short (youtu.be/<id>) and shorts links, and
// Vimeo page links are recognised.
func EmbedURL(raw string) (embed, provider string, ok bool) {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "", "", false
	}
	host := strings.TrimPrefix(strings.ToLower(u.Host), "www.")
	host = strings.TrimPrefix(host, "m.")
	segments := strings.Split(strings.Trim(u.Path, "/"), "/")

	switch host {
	case "youtube.com", "youtube-nocookie.com":
		var id string
		switch {
		case u.Path == "/watch":
			id = u.Query().Get("v")
		case len(segments) == 2 && (segments[0] == "shorts" || segments[0] == "embed" || segments[0] == "live"):
			id = segments[1]
		}
		if id == "" {
			return "", "", false
		}
		return "https://www.youtube.com/embed/" + url.PathEscape(id), "youtube", true

	case "youtu.be":
		if len(segments) == 0 || segments[0] == "" {
			return "", "", false
		}
		return "https://www.youtube.com/embed/" + url.PathEscape(segments[0]), "youtube", true

	case "vimeo.com":
		if len(segments) == 0 || !isDigits(segments[0]) {
			return "", "", false
		}
		return "https://player.vimeo.com/video/" + segments[0], "vimeo", true

	case "player.vimeo.com":
		return raw, "vimeo", true
	}
	return "", "", false
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
