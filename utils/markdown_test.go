package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderMarkdown(t *testing.T) {
	out := RenderMarkdown("**bold** and *italic*")
	assert.Contains(t, out, "<strong>bold</strong>")
	assert.Contains(t, out, "<em>italic</em>")
}

func TestRenderMarkdownStripsScripts(t *testing.T) {
	out := RenderMarkdown("hello <script>alert(1)</script> world")
	assert.NotContains(t, out, "<script>")
	assert.Contains(t, out, "hello")
}

func TestMarkdownPreviewStripsFormatting(t *testing.T) {
	out := MarkdownPreview("# Title\n\nSome *styled* body text.", 200)
	assert.Equal(t, "Title Some styled body text.", out)
}

func TestMarkdownPreviewTruncates(t *testing.T) {
	long := strings.Repeat("word ", 100)
	out := MarkdownPreview(long, 20)
	assert.True(t, strings.HasSuffix(out, "..."))
	assert.LessOrEqual(t, len([]rune(out)), 23)

	assert.Equal(t, "short", MarkdownPreview("short", 20))
}

func TestSanitizeKeepsUserContentMarkup(t *testing.T) {
	assert.Equal(t, "plain text", Sanitize("plain text"))
	assert.NotContains(t, Sanitize(`<img src=x onerror="alert(1)">`), "onerror")
}
