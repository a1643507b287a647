package html

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/sonnes/granth/core"
)

// renderTurnBody renders a turn's content as markdown, whichever role wrote
// it. Raw HTML is dropped by the markdown renderer.
func (r *Renderer) renderTurnBody(t core.Turn) (template.HTML, error) {
	return r.renderMarkdown(t.Content)
}

func (r *Renderer) renderMarkdown(src string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(src), &buf); err != nil {
		return "", fmt.Errorf("goldmark convert: %w", err)
	}
	return template.HTML(`<div class="prose prose-slate max-w-none">` + buf.String() + `</div>`), nil
}

// renderCitation renders the collapsible "View Source" panel.
func (r *Renderer) renderCitation(c core.Citation) (template.HTML, error) {
	excerpt, err := r.renderMarkdown(quote(c.Content))
	if err != nil {
		return "", err
	}
	h := `<details class="context-box mt-3 rounded-lg border border-[#ffe58f] bg-[#fffbe6] text-sm">` +
		`<summary class="cursor-pointer select-none px-4 py-2 font-medium text-slate-700">View Source</summary>` +
		`<div class="px-4 pb-3 space-y-1">` +
		`<p><strong>Book:</strong> ` + template.HTMLEscapeString(c.BookName) + `</p>` +
		`<p><strong>Page:</strong> ` + template.HTMLEscapeString(c.PageNumber.String()) + `</p>` +
		`<p><strong>Relevant Context:</strong></p>` +
		string(excerpt) +
		`</div>` +
		`</details>`
	return template.HTML(h), nil
}

// quote turns s into a markdown blockquote, one "> " per line.
func quote(s string) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	for i, l := range lines {
		lines[i] = "> " + l
	}
	return strings.Join(lines, "\n")
}
