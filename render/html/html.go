// Package html renders a conversation as a standalone chat page styled with
// Tailwind CSS v4 (CDN). Answers are markdown, converted by goldmark with
// chroma syntax highlighting for code.
package html

import (
	"embed"
	"fmt"
	"html/template"
	"io"

	"github.com/sonnes/granth/chat"
	"github.com/sonnes/granth/core"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
)

//go:embed templates/*.html
var content embed.FS

// DefaultTitle is the page heading when Page.Title is empty.
const DefaultTitle = "Knowledge Assistant"

// Renderer renders sessions to HTML pages.
type Renderer struct {
	md   goldmark.Markdown
	tmpl *template.Template
}

// New creates an HTML Renderer with goldmark configured for GFM and syntax
// highlighting. Raw HTML in answers is not passed through.
func New() *Renderer {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			highlighting.NewHighlighting(
				highlighting.WithStyle("github"),
				highlighting.WithFormatOptions(
					chromahtml.WithClasses(false), // inline styles for standalone pages
				),
			),
		),
		goldmark.WithRendererOptions(
			gmhtml.WithHardWraps(),
		),
	)

	tmpl := template.Must(
		template.New("page.html").
			Funcs(funcMap()).
			ParseFS(content, "templates/*.html"),
	)

	return &Renderer{md: md, tmpl: tmpl}
}

// Page is everything the chat page shows.
type Page struct {
	Title    string
	Session  *core.Session
	Settings core.Settings

	// Busy marks a question still awaiting its answer.
	Busy bool

	// Notice is a one-line message shown above the input, e.g. a failure
	// talking to the answer service.
	Notice string

	// Interactive renders the question box and settings form. Static
	// exports leave it off.
	Interactive bool
}

// PageFor builds a Page from a conversation snapshot.
func PageFor(snap chat.Snapshot) Page {
	return Page{
		Session:     snap.Session,
		Settings:    snap.Settings,
		Busy:        snap.State == chat.AwaitingAnswer,
		Interactive: true,
	}
}

// pageData is the top-level template data passed to page.html.
type pageData struct {
	Page
	Turns       []turnData
	StatusSteps []string
	DepthMin    int
	DepthMax    int
	Step        float64
}

// turnData is the per-turn template data passed to turn.html.
type turnData struct {
	ID        string // anchor, e.g. "turn-3"
	Role      core.Role
	RoleLabel string
	Avatar    string
	Class     string
	Body      template.HTML
	Source    template.HTML // empty when the turn has no citation
}

// Render writes s as a static page with default settings.
func (r *Renderer) Render(w io.Writer, s *core.Session) error {
	return r.RenderPage(w, Page{Session: s, Settings: core.DefaultSettings()})
}

// RenderPage writes p as a complete HTML page to w.
func (r *Renderer) RenderPage(w io.Writer, p Page) error {
	if p.Title == "" {
		p.Title = DefaultTitle
	}
	if p.Session == nil {
		p.Session = core.NewSession()
	}

	var turns []turnData
	for i, t := range p.Session.Turns() {
		td := turnData{
			ID:        fmt.Sprintf("turn-%d", i),
			Role:      t.Role,
			RoleLabel: roleLabel(t.Role),
			Avatar:    avatar(t.Role),
			Class:     turnClass(t.Role),
		}

		body, err := r.renderTurnBody(t)
		if err != nil {
			return fmt.Errorf("render turn %d: %w", i, err)
		}
		td.Body = body

		if t.Role == core.RoleAssistant {
			if c, ok := p.Session.Citation(i); ok {
				src, err := r.renderCitation(c)
				if err != nil {
					return fmt.Errorf("render citation %d: %w", i, err)
				}
				td.Source = src
			}
		}
		turns = append(turns, td)
	}

	data := pageData{
		Page:        p,
		Turns:       turns,
		StatusSteps: chat.StatusSteps,
		DepthMin:    core.MinSearchDepth,
		DepthMax:    core.MaxSearchDepth,
		Step:        core.ConfidenceStep,
	}
	return r.tmpl.ExecuteTemplate(w, "page.html", data)
}

func roleLabel(role core.Role) string {
	switch role {
	case core.RoleUser:
		return "You"
	case core.RoleAssistant:
		return "Assistant"
	default:
		return string(role)
	}
}

func avatar(role core.Role) string {
	if role == core.RoleUser {
		return "🧑"
	}
	return "📚"
}

// turnClass mirrors the role palette: blue for questions, purple for answers.
func turnClass(role core.Role) string {
	switch role {
	case core.RoleUser:
		return "chat-message user bg-[#e6f7ff] border-l-[5px] border-l-[#1890ff]"
	case core.RoleAssistant:
		return "chat-message assistant bg-[#f6f6f6] border-l-[5px] border-l-[#722ed1]"
	default:
		return "chat-message"
	}
}

func funcMap() template.FuncMap {
	return template.FuncMap{
		"threshold": func(v float64) string {
			return fmt.Sprintf("%.2f", v)
		},
	}
}
