package markdown

import (
	"bytes"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// Renderer converts chat Markdown into HTML that is safe to inject into the page.
type Renderer struct {
	md     goldmark.Markdown
	policy *bluemonday.Policy
}

func NewRenderer() *Renderer {
	md := goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(
			html.WithHardWraps(),
		),
	)

	policy := bluemonday.UGCPolicy()
	// Keep language hints on fenced code blocks
	policy.AllowAttrs("class").Matching(bluemonday.SpaceSeparatedTokens).OnElements("code")

	return &Renderer{md: md, policy: policy}
}

// Render returns sanitized HTML.
func (r *Renderer) Render(source string) string {
	var buf bytes.Buffer
	// Writes into a bytes.Buffer cannot fail
	_ = r.md.Convert([]byte(source), &buf)
	return r.policy.Sanitize(buf.String())
}
