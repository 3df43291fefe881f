package render

import (
	"bytes"
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	goldmark_html "github.com/yuin/goldmark/renderer/html"
)

// TextRenderer turns message text into safe HTML. Safe for concurrent use.
type TextRenderer struct {
	md     goldmark.Markdown
	policy *bluemonday.Policy
}

func New() *TextRenderer {
	// goldmark drops raw HTML unless WithUnsafe is set
	md := goldmark.New(
		goldmark.WithExtensions(extension.Strikethrough, extension.Linkify),
		goldmark.WithRendererOptions(goldmark_html.WithHardWraps()),
	)

	p := bluemonday.UGCPolicy()
	p.RequireNoFollowOnLinks(true)
	p.AddTargetBlankToFullyQualifiedLinks(true)
	p.AllowURLSchemes("http", "https", "mailto")

	return &TextRenderer{md: md, policy: p}
}

// Render returns sanitized HTML. When markdown conversion fails the text is
// escaped and returned as a single paragraph.
func (r *TextRenderer) Render(text string) string {
	if strings.TrimSpace(text) == "" {
		return ""
	}
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(text), &buf); err != nil {
		return "<p>" + html.EscapeString(text) + "</p>"
	}
	return strings.TrimSpace(r.policy.Sanitize(buf.String()))
}
