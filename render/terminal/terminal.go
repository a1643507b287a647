// Package terminal renders a conversation as ANSI-colored message cards.
package terminal

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/x/ansi"
	"github.com/charmbracelet/x/term"
	"github.com/sonnes/granth/answer"
	"github.com/sonnes/granth/core"
)

const defaultWidth = 100

// Renderer prints a session as message cards to the terminal.
type Renderer struct {
	// Width overrides terminal width detection. Zero means auto-detect.
	Width int
	// Title is printed in the header. Empty means "Knowledge Assistant".
	Title string
}

// New creates a terminal Renderer.
func New() *Renderer {
	return &Renderer{}
}

// Render writes the header and every turn of s to w.
func (r *Renderer) Render(w io.Writer, s *core.Session) error {
	r.RenderHeader(w, s)
	for i := range s.Len() {
		r.RenderTurn(w, s, i)
	}
	fmt.Fprintln(w)
	return nil
}

// RenderHeader writes the title and a count of questions and sources.
func (r *Renderer) RenderHeader(w io.Writer, s *core.Session) {
	title := r.Title
	if title == "" {
		title = "Knowledge Assistant"
	}
	fmt.Fprintln(w, styleTitle.Render("📚 "+title))

	questions := 0
	for _, t := range s.Turns() {
		if t.Role == core.RoleUser {
			questions++
		}
	}
	fmt.Fprintln(w, styleMeta.Render(fmt.Sprintf("%s  %s",
		plural(questions, "question"), plural(s.CitationCount(), "source"))))
}

// RenderTurn writes the card for the turn at index i. Assistant turns are
// followed by their citation when one is stored.
func (r *Renderer) RenderTurn(w io.Writer, s *core.Session, i int) {
	turns := s.Turns()
	if i < 0 || i >= len(turns) {
		return
	}
	t := turns[i]
	width := r.termWidth()
	contentWidth := max(width-4, 40)

	writeSeparator(w, width)
	fmt.Fprintln(w)
	fmt.Fprintln(w, " "+roleBadge(t.Role))

	text := strings.TrimSpace(t.Content)
	failed := t.Role == core.RoleAssistant && strings.HasPrefix(text, answer.ErrorPrefix)
	for _, line := range wrap(text, contentWidth) {
		if failed {
			line = styleError.Render(line)
		}
		fmt.Fprintln(w, "  "+line)
	}

	if t.Role != core.RoleAssistant {
		return
	}
	if c, ok := s.Citation(i); ok {
		writeCitation(w, c, contentWidth)
	}
}

// RenderStatus writes a progress line for an in-flight question.
func (r *Renderer) RenderStatus(w io.Writer, step string) {
	fmt.Fprintln(w, "  "+styleStatus.Render("… "+step))
}

func writeCitation(w io.Writer, c core.Citation, width int) {
	fmt.Fprintln(w)
	label := styleSourceLabel.Render("▸ Source")
	meta := c.BookName
	if c.PageNumber.String() != "" {
		meta += ", p. " + c.PageNumber.String()
	}
	fmt.Fprintln(w, "  "+label+"  "+styleMeta.Render(meta))
	for _, line := range wrap(strings.TrimSpace(c.Content), width-4) {
		fmt.Fprintln(w, "    "+styleMeta.Render("│ ")+styleExcerpt.Render(line))
	}
}

func (r *Renderer) termWidth() int {
	if r.Width > 0 {
		return r.Width
	}
	if w, _, err := term.GetSize(os.Stdout.Fd()); err == nil && w > 0 {
		return w
	}
	return defaultWidth
}

// writeSeparator renders a horizontal rule.
func writeSeparator(w io.Writer, width int) {
	n := min(width, 72)
	fmt.Fprintln(w)
	fmt.Fprintln(w, styleSeparator.Render(strings.Repeat("─", n)))
}

func roleBadge(role core.Role) string {
	switch role {
	case core.RoleUser:
		return styleUserBadge.Render("YOU")
	case core.RoleAssistant:
		return styleAssistantBadge.Render("ASSISTANT")
	default:
		return styleMeta.Render(strings.ToUpper(string(role)))
	}
}

// wrap word-wraps s to width, keeping its own line breaks.
func wrap(s string, width int) []string {
	if s == "" {
		return nil
	}
	return strings.Split(ansi.Wordwrap(s, max(width, 10), ""), "\n")
}

func plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
