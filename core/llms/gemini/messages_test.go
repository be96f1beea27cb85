package gemini

import (
	"strings"
	"testing"

	"github.com/auravoice/aura-core/core/llms"
)

func TestToContents_MapsRolesAndFoldsToolResults(t *testing.T) {
	turns := []llms.Turn{
		{
			Role:       llms.TurnRoleUser,
			Content:    "what's the weather in Prague?",
			ToolName:   "weather",
			ToolResult: `{"temp":21}`,
		},
		{
			Role:    llms.TurnRoleAssistant,
			Content: "It is 21C in Prague.",
		},
		{
			Role:    llms.TurnRoleUser,
			Content: "thanks!",
		},
	}

	contents := toContents(turns)

	if len(contents) != 3 {
		t.Fatalf("expected 3 contents, got %d", len(contents))
	}

	if contents[0].Role != contentRoleUser {
		t.Fatalf("unexpected first content role: %+v", contents[0])
	}
	if text := contents[0].Parts[0].Text; !strings.Contains(text, "what's the weather in Prague?") ||
		!strings.Contains(text, "[weather result]") ||
		!strings.Contains(text, `{"temp":21}`) {
		t.Fatalf("tool result not folded into user content: %q", text)
	}

	if contents[1].Role != contentRoleModel || contents[1].Parts[0].Text != "It is 21C in Prague." {
		t.Fatalf("unexpected assistant content: %+v", contents[1])
	}

	if contents[2].Role != contentRoleUser || contents[2].Parts[0].Text != "thanks!" {
		t.Fatalf("unexpected second user content: %+v", contents[2])
	}
}

func TestToContents_SkipsEmptyTurns(t *testing.T) {
	turns := []llms.Turn{
		{Role: llms.TurnRoleUser, Content: ""},
		{Role: llms.TurnRoleAssistant, Content: "hello"},
	}

	contents := toContents(turns)

	if len(contents) != 1 {
		t.Fatalf("expected empty turn to be dropped, got %d contents", len(contents))
	}
	if contents[0].Role != contentRoleModel {
		t.Fatalf("unexpected content role: %+v", contents[0])
	}
}

func TestSystemInstruction_EmptyMeansAbsent(t *testing.T) {
	if instruction := systemInstruction(""); instruction != nil {
		t.Fatalf("expected nil instruction, got %+v", instruction)
	}

	instruction := systemInstruction("You are a helpful assistant.")
	if instruction == nil || instruction.Parts[0].Text != "You are a helpful assistant." {
		t.Fatalf("unexpected instruction: %+v", instruction)
	}
	if instruction.Role != "" {
		t.Fatalf("system instruction must not carry a role, got %q", instruction.Role)
	}
}
