package html

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"pagefiber-be/pkg/blocks"
)

func ptr(n int) *int { return &n }

func render(tree []blocks.Block) string {
	return NewRenderer().Render(blocks.NewRenderer(nil).Render(tree))
}

func TestRenderHTML(t *testing.T) {
	tests := []struct {
		name string
		tree []blocks.Block
		want []string
	}{
		{
			name: "heading and paragraph",
			tree: []blocks.Block{
				{Type: blocks.TypeHeading2, Text: "Title"},
				{Type: blocks.TypeParagraph, Text: "body"},
			},
			want: []string{"<h2>Title</h2>", "<p>body</p>"},
		},
		{
			name: "styled runs",
			tree: []blocks.Block{{Type: blocks.TypeParagraph, Text: "Hello world", Annotations: []blocks.Annotation{
				{Start: ptr(0), End: ptr(5), Bold: true, Color: "yellow_background"},
			}}},
			want: []string{`<span class="bg-yellow"><strong>Hello</strong></span> world`},
		},
		{
			name: "numbered list keeps ordinals",
			tree: []blocks.Block{
				{Type: blocks.TypeNumberedItem, Text: "a"},
				{Type: blocks.TypeNumberedItem, Text: "b"},
			},
			want: []string{"<ol>", `<li value="1">a</li>`, `<li value="2">b</li>`, "</ol>"},
		},
		{
			name: "table headers",
			tree: []blocks.Block{{Type: blocks.TypeTable, HasColumnHeader: true, Children: []blocks.Block{
				{Type: blocks.TypeTableRow, Children: []blocks.Block{{Text: "h"}}},
				{Type: blocks.TypeTableRow, Children: []blocks.Block{{Text: "v"}}},
			}}},
			want: []string{"<th>h</th>", "<td>v</td>"},
		},
		{
			name: "toggle",
			tree: []blocks.Block{{Type: blocks.TypeToggle, Text: "More", Children: []blocks.Block{
				{Type: blocks.TypeParagraph, Text: "inside"},
			}}},
			want: []string{"<details><summary>More</summary><p>inside</p></details>"},
		},
		{
			name: "youtube video becomes iframe",
			tree: []blocks.Block{{Type: blocks.TypeVideo, URL: "https://youtu.be/xyz"}},
			want: []string{`<iframe src="https://www.youtube.com/embed/xyz"`, FallbackAttr},
		},
		{
			name: "heic placeholder links original",
			tree: []blocks.Block{{Type: blocks.TypeImage, MediaURL: "https://a/b.heic"}},
			want: []string{"media-placeholder", `href="https://a/b.heic"`},
		},
		{
			name: "checked to do is struck",
			tree: []blocks.Block{{Type: blocks.TypeToDo, Text: "done", Checked: true}},
			want: []string{"todo-checked", "<s>done</s>"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := render(tt.tree)
			for _, w := range tt.want {
				assert.Contains(t, got, w)
			}
		})
	}
}

func TestRenderHTMLEscapesText(t *testing.T) {
	got := render([]blocks.Block{{Type: blocks.TypeParagraph, Text: "<script>alert(1)</script>"}})

	assert.NotContains(t, got, "<script>")
	assert.Contains(t, got, "&lt;script&gt;")
}

func TestRenderHTMLDropsUnsafeLinks(t *testing.T) {
	got := render([]blocks.Block{{Type: blocks.TypeParagraph, Text: "click", Annotations: []blocks.Annotation{
		{Start: ptr(0), End: ptr(5), Href: "javascript:alert(1)"},
	}}})

	assert.NotContains(t, got, "javascript:")
	assert.Contains(t, got, "click")
}

func TestRenderHTMLFailedMedia(t *testing.T) {
	doc := blocks.NewRenderer(nil).Render([]blocks.Block{
		{Type: blocks.TypeImage, MediaURL: "https://a/1.png"},
		{Type: blocks.TypeImage, MediaURL: "https://a/2.png"},
	})
	doc.Nodes[0].Media.Fail("")

	got := NewRenderer().Render(doc)

	assert.Contains(t, got, "media-failed")
	assert.Contains(t, got, `src="https://a/2.png"`)
	assert.NotContains(t, got, `src="https://a/1.png"`)
}

func TestPageIncludesFallbackScript(t *testing.T) {
	doc := blocks.NewRenderer(nil).Render([]blocks.Block{{Type: blocks.TypeParagraph, Text: "x"}})

	page := NewRenderer().Page("A <b> title", doc)

	assert.True(t, strings.HasPrefix(page, "<!DOCTYPE html>"))
	assert.Contains(t, page, "<title>A &lt;b&gt; title</title>")
	assert.Contains(t, page, FallbackScript)
}
