package llms

import "testing"

func turnsFixture() []Turn {
	return []Turn{
		{Role: TurnRoleUser, Content: "one"},
		{Role: TurnRoleAssistant, Content: "first reply"},
		{Role: TurnRoleUser, Content: "two"},
		{Role: TurnRoleAssistant, Content: "second reply"},
		{Role: TurnRoleUser, Content: "three"},
		{Role: TurnRoleAssistant, Content: "third reply"},
	}
}

func TestTruncateTurns_KeepsEverythingUnderBudget(t *testing.T) {
	turns := turnsFixture()

	kept := TruncateTurns(turns, 4000, 10)

	if len(kept) != len(turns) {
		t.Fatalf("expected all %d turns kept, got %d", len(turns), len(kept))
	}
	if kept[0].Content != "one" || kept[len(kept)-1].Content != "third reply" {
		t.Fatalf("order not preserved: first %q last %q", kept[0].Content, kept[len(kept)-1].Content)
	}
}

func TestTruncateTurns_DropsOldestWhenOverCharBudget(t *testing.T) {
	turns := turnsFixture()

	// Each turn costs len(role)+len(content)+2; a budget that fits roughly
	// two turns must drop from the oldest end.
	kept := TruncateTurns(turns, 40, 10)

	if len(kept) == 0 || len(kept) >= len(turns) {
		t.Fatalf("expected a strict suffix of the history, got %d of %d", len(kept), len(turns))
	}
	if kept[len(kept)-1].Content != "third reply" {
		t.Fatalf("newest turn must survive truncation, got %q", kept[len(kept)-1].Content)
	}
	if kept[0].Content == "one" {
		t.Fatalf("oldest turn should have been dropped first")
	}
}

func TestTruncateTurns_CapsAtMaxPairs(t *testing.T) {
	turns := turnsFixture()

	kept := TruncateTurns(turns, 4000, 2)

	if len(kept) != 4 {
		t.Fatalf("expected 2 pairs (4 turns), got %d", len(kept))
	}
	if kept[0].Content != "two" {
		t.Fatalf("expected oldest pair dropped, first kept is %q", kept[0].Content)
	}
}

func TestTruncateTurns_ZeroBudgetsDisableLimits(t *testing.T) {
	turns := turnsFixture()

	kept := TruncateTurns(turns, 0, 0)

	if len(kept) != len(turns) {
		t.Fatalf("zero budgets must keep the full history, got %d of %d", len(kept), len(turns))
	}
}
