package server

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sonnes/granth/chat"
	"github.com/sonnes/granth/core"
)

// Store holds the live conversations keyed by session ID. A conversation is
// discarded after it has been idle for longer than the TTL.
type Store struct {
	newConversation func() *chat.Conversation
	ttl             time.Duration
	now             func() time.Time

	mu       sync.Mutex
	sessions map[string]*entry
}

type entry struct {
	conv     *chat.Conversation
	lastSeen time.Time
}

// NewStore creates a Store that builds conversations with newConversation.
func NewStore(newConversation func() *chat.Conversation, ttl time.Duration) *Store {
	return &Store{
		newConversation: newConversation,
		ttl:             ttl,
		now:             time.Now,
		sessions:        make(map[string]*entry),
	}
}

// Get returns the conversation for id and refreshes its idle timer. The
// second result is false when id is unknown or has expired.
func (s *Store) Get(id string) (*chat.Conversation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.sessions[id]
	if !ok {
		return nil, false
	}
	now := s.now()
	if s.expired(e, now) {
		delete(s.sessions, id)
		return nil, false
	}
	e.lastSeen = now
	return e.conv, true
}

// Create starts a new conversation and returns its ID.
func (s *Store) Create() (string, *chat.Conversation) {
	id := uuid.NewString()
	conv := s.newConversation()

	s.mu.Lock()
	s.sessions[id] = &entry{conv: conv, lastSeen: s.now()}
	s.mu.Unlock()
	return id, conv
}

// Delete ends the conversation for id.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
}

// Len returns the number of live conversations.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Sweep removes expired conversations and returns how many were removed.
// Conversations awaiting an answer are kept until they return to idle.
func (s *Store) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	n := 0
	for id, e := range s.sessions {
		if s.expired(e, now) {
			delete(s.sessions, id)
			n++
		}
	}
	return n
}

// Run sweeps every interval until ctx is done.
func (s *Store) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Sweep(); n > 0 {
				slog.Debug("expired sessions", "count", n, "live", s.Len())
			}
		}
	}
}

func (s *Store) expired(e *entry, now time.Time) bool {
	if e.conv.State() == chat.AwaitingAnswer {
		return false
	}
	return now.Sub(e.lastSeen) > s.ttl
}

// conversationFactory returns a constructor for conversations that share
// asker and start from settings.
func conversationFactory(asker chat.Asker, settings core.Settings, pacing time.Duration) func() *chat.Conversation {
	return func() *chat.Conversation {
		c := chat.New(asker)
		c.Pacing = pacing
		if err := c.UpdateSettings(settings); err != nil {
			slog.Warn("invalid initial settings, using defaults", "error", err)
		}
		return c
	}
}
