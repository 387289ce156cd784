package markdown

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderMarkdown(t *testing.T) {
	r := NewRenderer()

	out := r.Render("**Rawr!** I'm *Talkzilla*")

	assert.Contains(t, out, "<strong>Rawr!</strong>")
	assert.Contains(t, out, "<em>Talkzilla</em>")
}

func TestRenderStripsScripts(t *testing.T) {
	r := NewRenderer()

	out := r.Render("hello <script>alert(1)</script> <img src=x onerror=alert(1)>")

	assert.NotContains(t, out, "<script")
	assert.NotContains(t, out, "onerror")
}

func TestRenderCodeBlockKeepsLanguage(t *testing.T) {
	r := NewRenderer()

	out := r.Render("```go\nfmt.Println(\"roar\")\n```")

	assert.Contains(t, out, `class="language-go"`)
	assert.True(t, strings.Contains(out, "<pre>"))
}

func TestRenderTable(t *testing.T) {
	r := NewRenderer()

	out := r.Render("| a | b |\n|---|---|\n| 1 | 2 |")

	assert.Contains(t, out, "<table>")
}

func TestRenderPlainParagraph(t *testing.T) {
	r := NewRenderer()

	assert.Equal(t, "<p>just text</p>\n", r.Render("just text"))
	assert.Equal(t, "", r.Render(""))
}
