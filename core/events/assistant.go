package events

const (
	// KindAssistantResponseSegment identifies streamed assistant response text.
	KindAssistantResponseSegment Kind = "assistant_response.segment"
	// KindAssistantResponseFinal identifies the complete assistant response.
	KindAssistantResponseFinal Kind = "assistant_response.final"
	// KindAssistantSpeechChunk identifies one ordered synthesized audio chunk.
	KindAssistantSpeechChunk Kind = "assistant_speech.chunk"
)

// AssistantResponseSegment carries a streamed assistant response text segment.
type AssistantResponseSegment struct {
	Base
	Segment string
}

// NewAssistantResponseSegment creates an assistant response segment event.
func NewAssistantResponseSegment(segment string) AssistantResponseSegment {
	return AssistantResponseSegment{Base: NewBase(KindAssistantResponseSegment), Segment: segment}
}

// AssistantResponseFinal carries the complete assembled response text. It is
// emitted once per turn, before any speech chunks for that turn.
type AssistantResponseFinal struct {
	Base
	Text string
}

// NewAssistantResponseFinal creates an assistant response final event.
func NewAssistantResponseFinal(text string) AssistantResponseFinal {
	return AssistantResponseFinal{Base: NewBase(KindAssistantResponseFinal), Text: text}
}

// AssistantSpeechChunk carries one synthesized audio chunk. Indexes increase
// strictly within a turn and Final marks the turn's last chunk.
type AssistantSpeechChunk struct {
	Base
	Index int
	Audio []byte
	Final bool
}

// NewAssistantSpeechChunk creates an assistant speech chunk event.
func NewAssistantSpeechChunk(index int, audio []byte, final bool) AssistantSpeechChunk {
	return AssistantSpeechChunk{Base: NewBase(KindAssistantSpeechChunk), Index: index, Audio: audio, Final: final}
}
