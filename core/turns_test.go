package orchestration

import (
	"testing"

	"github.com/auravoice/aura-core/core/llms"
)

func TestTurnsSnapshotIsACopy(t *testing.T) {
	turns := NewTurns(llms.Turn{Role: llms.TurnRoleUser, Content: "hello"})

	snapshot := turns.Snapshot()
	snapshot[0].Content = "mutated"

	if got := turns.Snapshot()[0].Content; got != "hello" {
		t.Fatalf("expected the stored turn to be unaffected, got %q", got)
	}
}

func TestTurnsPushAppends(t *testing.T) {
	turns := NewTurns()
	turns.Push(llms.Turn{Role: llms.TurnRoleUser, Content: "one"})
	turns.Push(llms.Turn{Role: llms.TurnRoleAssistant, Content: "two"})

	if got := turns.Len(); got != 2 {
		t.Fatalf("expected 2 turns, got %d", got)
	}

	snapshot := turns.Snapshot()
	if snapshot[0].Content != "one" || snapshot[1].Content != "two" {
		t.Fatalf("expected insertion order, got %v", snapshot)
	}
}

func TestTurnsValuesAndRValuesOrder(t *testing.T) {
	turns := NewTurns(
		llms.Turn{Content: "a"},
		llms.Turn{Content: "b"},
		llms.Turn{Content: "c"},
	)

	var forward []string
	for turn := range turns.Values {
		forward = append(forward, turn.Content)
	}
	if len(forward) != 3 || forward[0] != "a" || forward[2] != "c" {
		t.Fatalf("expected forward order, got %v", forward)
	}

	var backward []string
	for turn := range turns.RValues {
		backward = append(backward, turn.Content)
	}
	if len(backward) != 3 || backward[0] != "c" || backward[2] != "a" {
		t.Fatalf("expected reverse order, got %v", backward)
	}
}
