package events

import "testing"

func TestConstructorsEmitExpectedKinds(t *testing.T) {
	testCases := []struct {
		name     string
		event    Event
		expected Kind
	}{
		{name: "session state changed", event: NewSessionStateChanged("idle"), expected: KindSessionStateChanged},
		{name: "session failure", event: NewSessionFailure("configuration", "weather", "missing credential"), expected: KindSessionFailure},
		{name: "user speech started", event: NewUserSpeechStarted(), expected: KindUserSpeechStarted},
		{name: "user speech ended", event: NewUserSpeechEnded(), expected: KindUserSpeechEnded},
		{name: "user interim updated", event: NewUserTranscriptInterimUpdated("text"), expected: KindUserTranscriptInterimUpdated},
		{name: "user transcript final", event: NewUserTranscriptFinal("text"), expected: KindUserTranscriptFinal},
		{name: "assistant response segment", event: NewAssistantResponseSegment("seg"), expected: KindAssistantResponseSegment},
		{name: "assistant response final", event: NewAssistantResponseFinal("text"), expected: KindAssistantResponseFinal},
		{name: "assistant speech chunk", event: NewAssistantSpeechChunk(0, []byte{1}, false), expected: KindAssistantSpeechChunk},
		{name: "tool call started", event: NewToolCallStarted("web-search", "latest news"), expected: KindToolCallStarted},
		{name: "tool call completed", event: NewToolCallCompleted("web-search", "result"), expected: KindToolCallCompleted},
		{name: "tool call failed", event: NewToolCallFailed("web-search", "timeout"), expected: KindToolCallFailed},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			if got := testCase.event.Kind(); got != testCase.expected {
				t.Fatalf("expected kind %q, got %q", testCase.expected, got)
			}
		})
	}
}

func TestSpeechChunkCarriesOrderingFields(t *testing.T) {
	chunk := NewAssistantSpeechChunk(3, []byte{0xAA}, true)

	if chunk.Index != 3 {
		t.Fatalf("expected index 3, got %d", chunk.Index)
	}
	if !chunk.Final {
		t.Fatal("expected final flag to be set")
	}
}
