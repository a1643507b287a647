// Package render defines the interface for presenting a conversation
// session in various output formats.
package render

import (
	"io"

	"github.com/sonnes/granth/core"
)

// Renderer writes a session to the given writer in a specific format.
type Renderer interface {
	Render(w io.Writer, s *core.Session) error
}
