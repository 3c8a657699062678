package utils

import (
	"bytes"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

var (
	md = goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(html.WithHardWraps()),
	)
	ugcPolicy   = bluemonday.UGCPolicy()
	stripPolicy = bluemonday.StrictPolicy()
)

// Sanitize keeps user-generated markup within the UGC policy. Every piece of
// user text passes through here before storage or rendering.
func Sanitize(input string) string {
	return ugcPolicy.Sanitize(input)
}

// RenderMarkdown converts markdown to sanitized HTML for detail pages.
func RenderMarkdown(source string) string {
	var buf bytes.Buffer
	if err := md.Convert([]byte(source), &buf); err != nil {
		return Sanitize(source)
	}
	return Sanitize(buf.String())
}

// MarkdownPreview renders markdown, strips all tags and truncates to n runes
// for list endpoints.
func MarkdownPreview(source string, n int) string {
	var buf bytes.Buffer
	text := source
	if err := md.Convert([]byte(source), &buf); err == nil {
		text = buf.String()
	}
	text = strings.TrimSpace(stripPolicy.Sanitize(text))
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if n > 0 && len(runes) > n {
		return strings.TrimSpace(string(runes[:n])) + "..."
	}
	return text
}
