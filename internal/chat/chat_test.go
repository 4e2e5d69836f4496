package chat

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/skyops/crewdeck/internal/rosterd"
)

type stubResponder struct {
	reply *rosterd.ChatReply
	err   error
	// block, when non-nil, holds the response until closed.
	block chan struct{}
}

func (s *stubResponder) Respond(ctx context.Context, message string, chatContext map[string]any) (*rosterd.ChatReply, error) {
	if s.block != nil {
		<-s.block
	}
	return s.reply, s.err
}

func waitPending(t *testing.T, s *Session) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !s.Pending() {
		if time.Now().After(deadline) {
			t.Fatal("session never became pending")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestSessionSeedGreeting(t *testing.T) {
	s := NewSession(&stubResponder{})
	msgs := s.Messages()
	if len(msgs) != 1 {
		t.Fatalf("expected 1 seed message, got %d", len(msgs))
	}
	if msgs[0].Role != RoleAssistant {
		t.Errorf("seed message role = %s, want assistant", msgs[0].Role)
	}
}

func TestSubmitBlankIsNoOp(t *testing.T) {
	s := NewSession(&stubResponder{reply: &rosterd.ChatReply{Response: "hi"}})

	for _, text := range []string{"", "   ", "\t\n"} {
		if s.Submit(context.Background(), text) {
			t.Errorf("Submit(%q) accepted, want rejected", text)
		}
	}
	if got := len(s.Messages()); got != 1 {
		t.Errorf("blank submits changed the transcript: %d messages", got)
	}
}

func TestSubmitWhilePendingIsNoOp(t *testing.T) {
	stub := &stubResponder{
		reply: &rosterd.ChatReply{Response: "done"},
		block: make(chan struct{}),
	}
	s := NewSession(stub)

	first := make(chan bool)
	go func() { first <- s.Submit(context.Background(), "flight AI101 is delayed") }()
	waitPending(t, s)

	before := len(s.Messages())
	if s.Submit(context.Background(), "second message") {
		t.Error("submit while pending accepted, want rejected")
	}
	if got := len(s.Messages()); got != before {
		t.Errorf("rejected submit changed transcript: %d -> %d messages", before, got)
	}

	close(stub.block)
	if !<-first {
		t.Error("first submit should have been accepted")
	}

	msgs := s.Messages()
	// greeting + user turn + assistant reply
	if len(msgs) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(msgs))
	}
	if msgs[2].Content != "done" {
		t.Errorf("assistant content = %q, want %q", msgs[2].Content, "done")
	}
	if s.Pending() {
		t.Error("pending not cleared after reply")
	}
}

func TestSubmitFailureAppendsApology(t *testing.T) {
	s := NewSession(&stubResponder{err: errors.New("connection refused")})

	if !s.Submit(context.Background(), "crew swap for AI202?") {
		t.Fatal("submit rejected")
	}

	msgs := s.Messages()
	if len(msgs) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(msgs))
	}
	// The user's turn survives the failure, never removed or retried.
	if msgs[1].Role != RoleUser || msgs[1].Content != "crew swap for AI202?" {
		t.Errorf("user turn missing or altered: %+v", msgs[1])
	}
	if msgs[2].Role != RoleAssistant || msgs[2].Content != apology {
		t.Errorf("expected apology turn, got %+v", msgs[2])
	}
	if s.Pending() {
		t.Error("pending not cleared after failure")
	}
}

func TestSubmitRejectsUnknownActions(t *testing.T) {
	s := NewSession(&stubResponder{reply: &rosterd.ChatReply{
		Response: "Options below.",
		SuggestedActions: []rosterd.SuggestedAction{
			{ID: "crew_swap", Label: "Find replacement crew"},
			{ID: "launch_missiles", Label: "???"},
		},
	}})

	s.Submit(context.Background(), "AI303 cancelled")

	msgs := s.Messages()
	actions := msgs[len(msgs)-1].SuggestedActions
	if len(actions) != 1 {
		t.Fatalf("expected 1 surviving action, got %d", len(actions))
	}
	if actions[0].ID != "crew_swap" {
		t.Errorf("surviving action = %s, want crew_swap", actions[0].ID)
	}
}

func TestResetDiscardsInFlightReply(t *testing.T) {
	stub := &stubResponder{
		reply: &rosterd.ChatReply{Response: "stale reply"},
		block: make(chan struct{}),
	}
	s := NewSession(stub)

	done := make(chan bool)
	go func() { done <- s.Submit(context.Background(), "AI404 diverted") }()
	waitPending(t, s)

	s.Reset()
	close(stub.block)
	<-done

	msgs := s.Messages()
	if len(msgs) != 1 {
		t.Fatalf("expected only the fresh greeting, got %d messages", len(msgs))
	}
	if msgs[0].Content == "stale reply" {
		t.Error("stale reply leaked into the reset transcript")
	}
	if s.Pending() {
		t.Error("pending set after reset")
	}
}

func TestResetReseedsGreeting(t *testing.T) {
	s := NewSession(&stubResponder{reply: &rosterd.ChatReply{Response: "ok"}})
	s.Submit(context.Background(), "hello")
	s.Reset()

	msgs := s.Messages()
	if len(msgs) != 1 || msgs[0].Role != RoleAssistant {
		t.Fatalf("reset transcript wrong: %+v", msgs)
	}
}

func TestPrefill(t *testing.T) {
	for _, id := range []string{"crew_swap", "delay_impact", "legality_check"} {
		text, ok := Prefill(id)
		if !ok || text == "" {
			t.Errorf("known action %s has no prefill", id)
		}
	}

	if _, ok := Prefill("reboot_universe"); ok {
		t.Error("unknown action id accepted")
	}
}
