package html

import (
	"bytes"
	"strings"
	"testing"

	"github.com/sonnes/granth/chat"
	"github.com/sonnes/granth/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildTestSession(t *testing.T) *core.Session {
	t.Helper()
	s := core.NewSession()
	_, err := s.AppendTurn(core.RoleUser, "What is the capital of France?")
	require.NoError(t, err)
	i, err := s.AppendTurn(core.RoleAssistant, "**Paris** is the capital.")
	require.NoError(t, err)
	require.NoError(t, s.SetCitation(i, core.Citation{
		BookName:   "Geo101",
		PageNumber: core.PageInt(12),
		Content:    "Paris is the capital and most populous city of France.",
	}))
	_, err = s.AppendTurn(core.RoleUser, "And *Spain* <b>now</b>?")
	require.NoError(t, err)
	_, err = s.AppendTurn(core.RoleAssistant, "Error occurred: index unavailable")
	require.NoError(t, err)
	return s
}

func renderPage(t *testing.T, p Page) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, New().RenderPage(&buf, p))
	return buf.String()
}

func TestRenderFullPage(t *testing.T) {
	html := renderPage(t, Page{Session: buildTestSession(t), Settings: core.DefaultSettings(), Interactive: true})

	t.Run("page structure", func(t *testing.T) {
		assert.Contains(t, html, "<!DOCTYPE html>")
		assert.Contains(t, html, `<html lang="en">`)
		assert.Contains(t, html, "</html>")
		assert.Contains(t, html, "@tailwindcss/browser@4")
	})

	t.Run("title and intro", func(t *testing.T) {
		assert.Contains(t, html, "<title>Knowledge Assistant</title>")
		assert.Contains(t, html, "Ask questions about books, documents, and more.")
		assert.Contains(t, html, "Knowledge Assistant powered by RAG technology")
	})

	t.Run("sidebar settings", func(t *testing.T) {
		assert.Contains(t, html, `name="search_depth"`)
		assert.Contains(t, html, `value="3"`)
		assert.Contains(t, html, `name="confidence_threshold"`)
		assert.Contains(t, html, "0.70")
		assert.Contains(t, html, `action="/settings"`)
	})

	t.Run("question box", func(t *testing.T) {
		assert.Contains(t, html, `action="/ask"`)
		assert.Contains(t, html, "Ask a question...")
	})
}

func TestRenderTurns(t *testing.T) {
	html := renderPage(t, Page{Session: buildTestSession(t), Settings: core.DefaultSettings()})

	t.Run("order and anchors", func(t *testing.T) {
		for _, id := range []string{`id="turn-0"`, `id="turn-1"`, `id="turn-2"`, `id="turn-3"`} {
			assert.Contains(t, html, id)
		}
		assert.Less(t, strings.Index(html, `id="turn-0"`), strings.Index(html, `id="turn-1"`))
		assert.Less(t, strings.Index(html, `id="turn-1"`), strings.Index(html, `id="turn-2"`))
	})

	t.Run("role styling", func(t *testing.T) {
		assert.Contains(t, html, "chat-message user")
		assert.Contains(t, html, "border-l-[#1890ff]")
		assert.Contains(t, html, "chat-message assistant")
		assert.Contains(t, html, "border-l-[#722ed1]")
	})

	t.Run("assistant markdown", func(t *testing.T) {
		assert.Contains(t, html, "<strong>Paris</strong> is the capital.")
	})

	t.Run("user markdown", func(t *testing.T) {
		assert.Contains(t, html, "And <em>Spain</em>")
		assert.NotContains(t, html, "<b>now</b>")
	})

	t.Run("citation panel", func(t *testing.T) {
		assert.Contains(t, html, "<details")
		assert.Contains(t, html, "View Source")
		assert.Contains(t, html, "<strong>Book:</strong> Geo101")
		assert.Contains(t, html, "<strong>Page:</strong> 12")
		assert.Contains(t, html, "<blockquote>")
		assert.Contains(t, html, "most populous city of France.")
	})

	t.Run("uncited answer has no panel", func(t *testing.T) {
		assert.Equal(t, 1, strings.Count(html, "View Source"))
		assert.Contains(t, html, "Error occurred: index unavailable")
	})

	t.Run("static export has no forms", func(t *testing.T) {
		assert.NotContains(t, html, `action="/ask"`)
		assert.NotContains(t, html, `action="/settings"`)
	})
}

func TestRenderBusy(t *testing.T) {
	s := core.NewSession()
	_, _ = s.AppendTurn(core.RoleUser, "slow question")

	html := renderPage(t, Page{Session: s, Settings: core.DefaultSettings(), Busy: true, Interactive: true})

	assert.Contains(t, html, `http-equiv="refresh"`)
	assert.Contains(t, html, "Searching knowledge base...")
	for _, step := range chat.StatusSteps {
		assert.Contains(t, html, step)
	}
	assert.Contains(t, html, "disabled")
}

func TestRenderNotice(t *testing.T) {
	html := renderPage(t, Page{Notice: "answer service unreachable", Interactive: true})
	assert.Contains(t, html, `role="alert"`)
	assert.Contains(t, html, "answer service unreachable")
}

func TestRenderEmptySession(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, New().Render(&buf, core.NewSession()))
	assert.NotContains(t, buf.String(), "<article")
}

func TestRenderCustomTitle(t *testing.T) {
	html := renderPage(t, Page{Title: "Library Desk"})
	assert.Contains(t, html, "<title>Library Desk</title>")
}

func TestRenderMarkdownCodeHighlighting(t *testing.T) {
	s := core.NewSession()
	_, _ = s.AppendTurn(core.RoleUser, "code?")
	_, _ = s.AppendTurn(core.RoleAssistant, "```go\nfmt.Println(\"hi\")\n```")

	html := renderPage(t, Page{Session: s})
	assert.Contains(t, html, "<pre")
	assert.Contains(t, html, "Println")
}

func TestRenderMarkdownDropsRawHTML(t *testing.T) {
	s := core.NewSession()
	_, _ = s.AppendTurn(core.RoleUser, "q")
	_, _ = s.AppendTurn(core.RoleAssistant, "hi <script>alert(1)</script>")

	html := renderPage(t, Page{Session: s})
	assert.NotContains(t, html, "<script>alert(1)</script>")
}

func TestPageFor(t *testing.T) {
	c := chat.New(nil)
	p := PageFor(c.Snapshot())
	assert.True(t, p.Interactive)
	assert.False(t, p.Busy)
	assert.Equal(t, core.DefaultSettings(), p.Settings)
}

func TestQuote(t *testing.T) {
	assert.Equal(t, "> a\n> b", quote("a\nb\n"))
	assert.Equal(t, "> ", quote(""))
}
