package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pagefiber-be/internal/pkg/logger"
	"pagefiber-be/pkg/blocks"
)

func TestToJSON(t *testing.T) {
	tests := []struct {
		name string
		file string
		in   string
	}{
		{name: "json file", file: "page.json", in: `[{"type":"paragraph","text":"hi"}]`},
		{name: "yaml file", file: "page.yaml", in: "- type: paragraph\n  text: hi\n"},
		{name: "yaml on stdin", file: "-", in: "- type: paragraph\n  text: hi\n"},
		{name: "json on stdin", file: "-", in: `[{"type":"paragraph","text":"hi"}]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := toJSON(tt.file, []byte(tt.in))
			require.NoError(t, err)
			assert.JSONEq(t, `[{"type":"paragraph","text":"hi"}]`, string(data))
		})
	}
}

func TestToJSONRejectsBadYAML(t *testing.T) {
	_, err := toJSON("page.yml", []byte("- type: [unclosed"))
	assert.Error(t, err)
}

func TestWriteFormats(t *testing.T) {
	doc := blocks.NewRenderer(logger.NewNopLogger()).RenderJSON([]byte(`[{"type":"heading_1","text":"Hello"}]`))

	tests := []struct {
		format string
		title  string
		want   string
	}{
		{format: formatMarkdown, want: "# Hello\n"},
		{format: formatHTML, want: "<h1>Hello</h1>"},
		{format: formatHTML, title: "Doc", want: "<title>Doc</title>"},
	}
	for _, tt := range tests {
		t.Run(tt.format+tt.title, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, write(&buf, doc, tt.format, tt.title))
			assert.Contains(t, buf.String(), tt.want)
		})
	}

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, write(&buf, doc, formatJSON, ""))
		var decoded blocks.Document
		require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
		require.Len(t, decoded.Nodes, 1)
		assert.Equal(t, blocks.NodeHeading, decoded.Nodes[0].Kind)
	})

	t.Run("unknown", func(t *testing.T) {
		assert.Error(t, write(&bytes.Buffer{}, doc, "pdf", ""))
	})
}
