package server

import (
	"testing"
	"time"

	"github.com/auravoice/aura-core/core/llms"
)

func TestAttachReturnsRetainedHistoryOnReconnect(t *testing.T) {
	store := NewSessionStore(30 * time.Minute)

	attachment, history := store.Attach("session-1", func() {})
	if len(history) != 0 {
		t.Fatalf("expected empty history for a new session, got %d turns", len(history))
	}

	attachment.Detach([]llms.Turn{
		{ID: "turn-1", Role: llms.TurnRoleUser, Content: "hello"},
		{ID: "turn-2", Role: llms.TurnRoleAssistant, Content: "hi there"},
	})

	_, history = store.Attach("session-1", func() {})
	if len(history) != 2 {
		t.Fatalf("expected 2 retained turns, got %d", len(history))
	}
	if history[0].Content != "hello" || history[1].Content != "hi there" {
		t.Fatalf("unexpected retained turns: %+v", history)
	}
}

func TestAttachSupersedesPriorConnection(t *testing.T) {
	store := NewSessionStore(30 * time.Minute)

	superseded := make(chan struct{})
	first, _ := store.Attach("session-1", func() { close(superseded) })

	second, _ := store.Attach("session-1", func() {})
	select {
	case <-superseded:
	default:
		t.Fatal("expected the first connection to be signalled on supersede")
	}

	first.Detach([]llms.Turn{{ID: "stale", Role: llms.TurnRoleUser, Content: "stale"}})
	second.Detach([]llms.Turn{{ID: "fresh", Role: llms.TurnRoleUser, Content: "fresh"}})

	_, history := store.Attach("session-1", func() {})
	if len(history) != 1 || history[0].Content != "fresh" {
		t.Fatalf("expected the newer connection's snapshot to win, got %+v", history)
	}
}

func TestDetachedConnectionIsNotSignalledAgain(t *testing.T) {
	store := NewSessionStore(30 * time.Minute)

	signals := 0
	attachment, _ := store.Attach("session-1", func() { signals++ })
	attachment.Detach(nil)

	_, _ = store.Attach("session-1", func() {})
	if signals != 0 {
		t.Fatalf("expected no supersede signal after detach, got %d", signals)
	}
}

func TestRetentionExpiresDetachedSessions(t *testing.T) {
	store := NewSessionStore(30 * time.Minute)
	now := time.Now()
	store.clock = func() time.Time { return now }

	attachment, _ := store.Attach("session-1", func() {})
	attachment.Detach([]llms.Turn{{ID: "turn-1", Role: llms.TurnRoleUser, Content: "hello"}})

	now = now.Add(29 * time.Minute)
	attachment, history := store.Attach("session-1", func() {})
	if len(history) != 1 {
		t.Fatalf("expected history inside the retention window, got %d turns", len(history))
	}
	attachment.Detach(history)

	now = now.Add(31 * time.Minute)
	_, history = store.Attach("session-1", func() {})
	if len(history) != 0 {
		t.Fatalf("expected an expired session to start fresh, got %d turns", len(history))
	}
}

func TestLiveSessionsSurviveRetention(t *testing.T) {
	store := NewSessionStore(time.Minute)
	now := time.Now()
	store.clock = func() time.Time { return now }

	_, _ = store.Attach("session-1", func() {})

	now = now.Add(time.Hour)
	if got := store.Len(); got != 1 {
		t.Fatalf("expected the live session to be retained, got %d sessions", got)
	}
}
