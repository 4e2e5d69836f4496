// Package chat implements the disruption-assistant session: an
// append-only transcript with single-threaded turn-taking. One request
// may be pending at a time; a failed request appends a fixed apology
// turn and never retries or removes the user's message.
package chat

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/skyops/crewdeck/internal/rosterd"
)

// Role identifies the author of a transcript turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one transcript turn. Messages are the only entities the
// dashboard originates ids for; everything else comes from the backend.
type Message struct {
	ID               string                    `json:"id"`
	Role             Role                      `json:"role"`
	Content          string                    `json:"content"`
	Timestamp        time.Time                 `json:"timestamp"`
	SuggestedActions []rosterd.SuggestedAction `json:"suggested_actions,omitempty"`
}

const greeting = "Hello! I'm the disruption assistant. Tell me about a " +
	"delayed or cancelled flight and I'll suggest roster recovery options."

const apology = "Sorry, I couldn't reach the scheduling service just now. " +
	"Your message was kept - please try again."

// Session is the single-threaded disruption-chat state machine.
type Session struct {
	responder Responder

	mu       sync.Mutex
	messages []Message
	pending  bool
	epoch    uint64
}

// NewSession creates a session seeded with the assistant greeting.
func NewSession(responder Responder) *Session {
	return &Session{
		responder: responder,
		messages:  []Message{newMessage(RoleAssistant, greeting, nil)},
	}
}

func newMessage(role Role, content string, actions []rosterd.SuggestedAction) Message {
	return Message{
		ID:               uuid.NewString(),
		Role:             role,
		Content:          content,
		Timestamp:        time.Now(),
		SuggestedActions: actions,
	}
}

// Messages returns a copy of the transcript in append order.
func (s *Session) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Pending reports whether a request is in flight.
func (s *Session) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending
}

// Submit appends the user's turn and requests the assistant's reply.
// Blank input and input received while a request is pending are no-ops:
// the transcript is left untouched and no request is issued. The user
// turn is appended before the network call, so it survives failures.
func (s *Session) Submit(ctx context.Context, text string) bool {
	if strings.TrimSpace(text) == "" {
		return false
	}

	s.mu.Lock()
	if s.pending {
		s.mu.Unlock()
		return false
	}
	s.pending = true
	epoch := s.epoch
	s.messages = append(s.messages, newMessage(RoleUser, text, nil))
	s.mu.Unlock()

	reply, err := s.responder.Respond(ctx, text, map[string]any{})

	s.mu.Lock()
	defer s.mu.Unlock()
	if epoch != s.epoch {
		// The session was reset while this request was in flight. The
		// reply belongs to a transcript that no longer exists.
		log.Debug().Msg("chat reply arrived after reset, discarding")
		return true
	}
	s.pending = false
	if err != nil {
		log.Warn().Err(err).Msg("disruption chat request failed")
		s.messages = append(s.messages, newMessage(RoleAssistant, apology, nil))
		return true
	}
	s.messages = append(s.messages, newMessage(RoleAssistant, reply.Response, validActions(reply.SuggestedActions)))
	return true
}

// validActions drops server-proposed actions whose ids are not part of
// the known action set. Unknown ids are rejected, not passed through.
func validActions(actions []rosterd.SuggestedAction) []rosterd.SuggestedAction {
	if len(actions) == 0 {
		return nil
	}
	out := make([]rosterd.SuggestedAction, 0, len(actions))
	for _, a := range actions {
		if _, ok := ParseAction(a.ID); !ok {
			log.Warn().Str("action_id", a.ID).Msg("unknown suggested action from server, skipping")
			continue
		}
		out = append(out, a)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// Reset replaces the transcript with the seed greeting and invalidates
// any in-flight request: its reply will be discarded rather than
// appended to the fresh transcript.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.epoch++
	s.pending = false
	s.messages = []Message{newMessage(RoleAssistant, greeting, nil)}
}
