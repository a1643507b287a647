// Package json renders a session as a JSON document: the turns in order, each
// assistant turn carrying its citation when it has one.
package json

import (
	"encoding/json"
	"io"

	"github.com/sonnes/granth/core"
)

// Renderer renders a session to JSON.
type Renderer struct {
	// Indent controls pretty-printing. When true, output is indented.
	Indent bool
}

// New creates a JSON Renderer with indentation enabled.
func New() *Renderer {
	return &Renderer{Indent: true}
}

// Document is the exported shape of a session.
type Document struct {
	Turns []Turn `json:"turns"`
}

// Turn is one exported turn.
type Turn struct {
	Index    int            `json:"index"`
	Role     core.Role      `json:"role"`
	Content  string         `json:"content"`
	Citation *core.Citation `json:"citation,omitempty"`
}

// NewDocument builds the export document for s.
func NewDocument(s *core.Session) Document {
	doc := Document{Turns: make([]Turn, 0, s.Len())}
	for i, t := range s.Turns() {
		et := Turn{Index: i, Role: t.Role, Content: t.Content}
		if c, ok := s.Citation(i); ok {
			et.Citation = &c
		}
		doc.Turns = append(doc.Turns, et)
	}
	return doc
}

// Render writes s to w as JSON followed by a newline.
func (r *Renderer) Render(w io.Writer, s *core.Session) error {
	enc := json.NewEncoder(w)
	if r.Indent {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(NewDocument(s))
}
