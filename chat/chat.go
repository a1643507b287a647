// Package chat drives one conversation: it records the user's question,
// waits for the answer service, and records the reply with its citation.
package chat

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sonnes/granth/answer"
	"github.com/sonnes/granth/core"
)

// Asker answers a question. *answer.Client implements it.
type Asker interface {
	Ask(ctx context.Context, question string) (string, *core.Citation, error)
}

// State is the position of a conversation in its request/response cycle.
type State int

const (
	Idle State = iota
	AwaitingAnswer
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case AwaitingAnswer:
		return "awaiting-answer"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// ErrBusy is returned when a question is submitted while another is still
// awaiting its answer.
var ErrBusy = errors.New("a question is already awaiting its answer")

// ErrInterrupted is the error text recorded when answering a question was
// cut short before the asker returned.
var ErrInterrupted = errors.New("answering was interrupted")

// StatusSteps are the progress messages reported while a question is in flight.
var StatusSteps = []string{
	"Retrieving relevant documents...",
	"Analyzing context...",
	"Generating response...",
}

// Exchange is the outcome of one submitted question.
type Exchange struct {
	QuestionIndex int
	AnswerIndex   int
	Answer        string
	Citation      *core.Citation
}

// Conversation owns a session and serializes access to it. At most one
// question is in flight at a time.
type Conversation struct {
	asker Asker

	// OnStatus, when non-nil, receives each of StatusSteps as the question
	// progresses.
	OnStatus func(step string)

	// Pacing is an optional pause after each status step. It is cosmetic.
	Pacing time.Duration

	mu       sync.Mutex
	state    State
	session  *core.Session
	settings core.Settings
}

// New returns an idle conversation with an empty session.
func New(asker Asker) *Conversation {
	return &Conversation{
		asker:    asker,
		session:  core.NewSession(),
		settings: core.DefaultSettings(),
	}
}

// Submit records question as a user turn, asks for the answer, and records
// the reply as an assistant turn together with its citation.
//
// If the asker fails, the conversation still returns to Idle: an assistant
// turn carrying the error text is recorded without a citation and the error
// is returned alongside the exchange.
func (c *Conversation) Submit(ctx context.Context, question string) (Exchange, error) {
	c.mu.Lock()
	if c.state == AwaitingAnswer {
		c.mu.Unlock()
		return Exchange{}, ErrBusy
	}
	qi, err := c.session.AppendTurn(core.RoleUser, question)
	if err != nil {
		c.mu.Unlock()
		return Exchange{}, err
	}
	c.state = AwaitingAnswer
	c.mu.Unlock()

	// A panicking asker must not leave the conversation stuck awaiting.
	answered := false
	defer func() {
		if !answered {
			c.abandon()
		}
	}()

	text, cit, askErr := c.ask(ctx, question)
	answered = true
	if askErr != nil {
		text, cit = answer.ErrorPrefix+askErr.Error(), nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = Idle

	ai, err := c.session.AppendTurn(core.RoleAssistant, text)
	if err != nil {
		return Exchange{}, err
	}
	if cit != nil {
		if err := c.session.SetCitation(ai, *cit); err != nil {
			return Exchange{}, err
		}
	}

	ex := Exchange{QuestionIndex: qi, AnswerIndex: ai, Answer: text, Citation: cit}
	if askErr != nil {
		return ex, fmt.Errorf("ask: %w", askErr)
	}
	return ex, nil
}

// abandon records that the question in flight got no answer and returns
// the conversation to Idle.
func (c *Conversation) abandon() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = Idle
	_, _ = c.session.AppendTurn(core.RoleAssistant, answer.ErrorPrefix+ErrInterrupted.Error())
}

func (c *Conversation) ask(ctx context.Context, question string) (string, *core.Citation, error) {
	for _, step := range StatusSteps {
		if c.OnStatus != nil {
			c.OnStatus(step)
		}
		if c.Pacing > 0 {
			select {
			case <-time.After(c.Pacing):
			case <-ctx.Done():
				return "", nil, ctx.Err()
			}
		}
	}
	return c.asker.Ask(ctx, question)
}

// Snapshot is a consistent copy of a conversation for rendering.
type Snapshot struct {
	Session  *core.Session
	State    State
	Settings core.Settings
}

// Snapshot returns a deep copy of the session with the current state.
func (c *Conversation) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		Session:  c.session.Clone(),
		State:    c.state,
		Settings: c.settings,
	}
}

// State returns the current state.
func (c *Conversation) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// UpdateSettings validates and stores s.
func (c *Conversation) UpdateSettings(s core.Settings) error {
	if err := s.Validate(); err != nil {
		return err
	}
	c.mu.Lock()
	c.settings = s
	c.mu.Unlock()
	return nil
}

// Reset discards the transcript. It fails with ErrBusy while a question is
// in flight. Settings are kept.
func (c *Conversation) Reset() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == AwaitingAnswer {
		return ErrBusy
	}
	c.session = core.NewSession()
	return nil
}
