package llms

import "time"

type TurnRole string

const (
	TurnRoleUser      TurnRole = "user"
	TurnRoleAssistant TurnRole = "assistant"
)

// Turn is a single utterance in the conversation: the user's transcribed
// prompt or the assistant's reply. Turns are immutable once appended; the
// ordered sequence is the context window for generation.
type Turn struct {
	ID      string
	Role    TurnRole
	Content string

	// ToolResult carries the output of a tool that ran for this turn, folded
	// into the generation context alongside the prompt. Empty when no tool
	// matched.
	ToolResult string
	// ToolName names the tool that produced ToolResult.
	ToolName string

	CreatedAt time.Time
}

// TruncateTurns bounds a history window before it is sent to the generation
// collaborator: newest-first it keeps turns until charBudget is exhausted,
// then caps the result at maxPairs user/assistant pairs, dropping the oldest.
func TruncateTurns(turns []Turn, charBudget, maxPairs int) []Turn {
	kept := make([]Turn, 0, len(turns))
	total := 0
	for i := len(turns) - 1; i >= 0; i-- {
		cost := len(turns[i].Role) + len(turns[i].Content) + 2
		if charBudget > 0 && total+cost > charBudget {
			break
		}
		kept = append(kept, turns[i])
		total += cost
	}

	// kept is newest-first, flip it back
	for i, j := 0, len(kept)-1; i < j; i, j = i+1, j-1 {
		kept[i], kept[j] = kept[j], kept[i]
	}

	if maxPairs > 0 && len(kept) > maxPairs*2 {
		kept = kept[len(kept)-maxPairs*2:]
	}
	return kept
}
