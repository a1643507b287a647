// Package core defines the conversation transcript held for one user session:
// an ordered log of turns plus the source citations attached to assistant
// turns. All surfaces (web page, terminal, JSON export) render from it.
package core

import (
	"errors"
	"fmt"
	"sort"
)

// Role enumerates who authored a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}

var (
	// ErrUnknownRole is returned when a turn is appended with a role other
	// than user or assistant.
	ErrUnknownRole = errors.New("unknown role")

	// ErrNotAssistantTurn is returned when a citation is keyed to an index
	// that does not hold an assistant turn.
	ErrNotAssistantTurn = errors.New("citation index is not an assistant turn")
)

// Turn is one message in the conversation.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Citation is the source attribution attached to an assistant turn.
type Citation struct {
	BookName   string     `json:"book_name"`
	PageNumber PageNumber `json:"page_number"`
	Content    string     `json:"content"`
}

// Session is the transcript of one interactive conversation. It is not safe
// for concurrent use; callers serialize access (see package chat).
type Session struct {
	turns     []Turn
	citations map[int]Citation
}

// NewSession returns an empty session.
func NewSession() *Session {
	return &Session{citations: make(map[int]Citation)}
}

// AppendTurn appends a turn and returns its index.
func (s *Session) AppendTurn(role Role, content string) (int, error) {
	if !role.Valid() {
		return 0, fmt.Errorf("%w: %q", ErrUnknownRole, role)
	}
	s.turns = append(s.turns, Turn{Role: role, Content: content})
	return len(s.turns) - 1, nil
}

// SetCitation records c for the assistant turn at index, replacing any
// citation already stored there.
func (s *Session) SetCitation(index int, c Citation) error {
	if index < 0 || index >= len(s.turns) || s.turns[index].Role != RoleAssistant {
		return fmt.Errorf("%w: %d", ErrNotAssistantTurn, index)
	}
	if s.citations == nil {
		s.citations = make(map[int]Citation)
	}
	s.citations[index] = c
	return nil
}

// Citation returns the citation stored for the turn at index.
func (s *Session) Citation(index int) (Citation, bool) {
	c, ok := s.citations[index]
	return c, ok
}

// Turns returns a copy of the turns in arrival order.
func (s *Session) Turns() []Turn {
	out := make([]Turn, len(s.turns))
	copy(out, s.turns)
	return out
}

// Len returns the number of turns.
func (s *Session) Len() int {
	return len(s.turns)
}

// CitationCount returns the number of stored citations.
func (s *Session) CitationCount() int {
	return len(s.citations)
}

// CitedIndexes returns the turn indexes that carry a citation, ascending.
func (s *Session) CitedIndexes() []int {
	idx := make([]int, 0, len(s.citations))
	for i := range s.citations {
		idx = append(idx, i)
	}
	sort.Ints(idx)
	return idx
}

// Clone returns a deep copy of s.
func (s *Session) Clone() *Session {
	c := &Session{
		turns:     s.Turns(),
		citations: make(map[int]Citation, len(s.citations)),
	}
	for i, cit := range s.citations {
		c.citations[i] = cit
	}
	return c
}

// RewriteText applies fn to every turn content and to the book name and
// excerpt of every citation. It exists for export transforms such as
// redaction and must only be used on a Clone.
func (s *Session) RewriteText(fn func(string) string) {
	for i := range s.turns {
		s.turns[i].Content = fn(s.turns[i].Content)
	}
	for i, c := range s.citations {
		c.BookName = fn(c.BookName)
		c.Content = fn(c.Content)
		s.citations[i] = c
	}
}
