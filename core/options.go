package orchestration

import (
	"context"
	"time"

	"github.com/auravoice/aura-core/core/llms"
	"github.com/auravoice/aura-core/core/speechtotext"
	"github.com/auravoice/aura-core/core/texttospeech"
	"github.com/auravoice/aura-core/core/tools"
)

type OrchestratorOption func(*Orchestrator)

// Transcriber is the streaming transcription collaborator: frames go in,
// transcripts and an end-of-turn signal come back through callbacks.
type Transcriber interface {
	Transcribe(ctx context.Context, opts ...speechtotext.TranscriptionOption) error
	SendAudio(audio []byte) error
}

func WithTranscriptionClient(client Transcriber) OrchestratorOption {
	return func(o *Orchestrator) {
		o.speechToText.set(client)
	}
}

// Generator is the streaming generation collaborator.
type Generator interface {
	PromptWithStream(ctx context.Context, prompt *string, opts ...llms.PromptOption) llms.Stream
}

func WithGenerationClient(client Generator) OrchestratorOption {
	return func(o *Orchestrator) {
		o.llm.set(client)
	}
}

// Synthesizer is the streaming synthesis collaborator. The stream persists
// across turns; EndTurn closes one turn's text without closing the stream.
type Synthesizer interface {
	OpenStream(ctx context.Context, opts ...texttospeech.TextToSpeechOption) error
	SendText(text string) error
	EndTurn() error
}

func WithSynthesisClient(client Synthesizer) OrchestratorOption {
	return func(o *Orchestrator) {
		o.textToSpeech.set(client)
	}
}

// WithCapabilities records which capabilities the session's handshake
// configured. Tool rules that match without a configured capability report a
// configuration failure instead of executing.
func WithCapabilities(bundle CapabilityBundle) OrchestratorOption {
	return func(o *Orchestrator) {
		o.capabilities = bundle
	}
}

// WithTools registers the keyword-matched auxiliary tools, tried in
// registration order.
func WithTools(registry *tools.Registry) OrchestratorOption {
	return func(o *Orchestrator) {
		o.tools = registry
	}
}

// WithInstructions overrides the persona system instruction.
func WithInstructions(instructions string) OrchestratorOption {
	return func(o *Orchestrator) {
		o.llm.setInstructions(instructions)
	}
}

// WithHistory preloads conversation history, for resumed sessions.
func WithHistory(turns ...llms.Turn) OrchestratorOption {
	return func(o *Orchestrator) {
		o.history = NewTurns(turns...)
	}
}

func WithGenerationTimeout(timeout time.Duration) OrchestratorOption {
	return func(o *Orchestrator) {
		if timeout > 0 {
			o.generationTimeout = timeout
		}
	}
}

func WithToolTimeout(timeout time.Duration) OrchestratorOption {
	return func(o *Orchestrator) {
		if timeout > 0 {
			o.toolTimeout = timeout
		}
	}
}

// WithTurnTimeout bounds one turn end to end, generation and synthesis
// included.
func WithTurnTimeout(timeout time.Duration) OrchestratorOption {
	return func(o *Orchestrator) {
		if timeout > 0 {
			o.turnTimeout = timeout
		}
	}
}

// WithTurnQueueCapacity bounds how many end-of-turns can wait while a prior
// turn is still processing. Further end-of-turns are dropped.
func WithTurnQueueCapacity(capacity int) OrchestratorOption {
	return func(o *Orchestrator) {
		if capacity > 0 {
			o.queueCapacity = capacity
		}
	}
}

type OrchestrateOptions struct {
	onStateChanged         func(state State)
	onSpeakingStateChanged func(isSpeaking bool)
	onInterimTranscription func(transcript string)
	onTranscription        func(transcript string)
	onResponse             func(segment string)
	onResponseEnd          func(text string)
	onAudioChunk           func(index int, audio []byte, final bool)
	onToolCall             func(name, query string)
	onFailure              func(category ErrorCategory, capability Capability, message string)
}

type OrchestrateOption func(*OrchestrateOptions)

// WithStateChangedCallback registers a callback for session lifecycle state
// transitions.
func WithStateChangedCallback(callback func(state State)) OrchestrateOption {
	return func(o *OrchestrateOptions) {
		o.onStateChanged = callback
	}
}

// WithSpeakingStateChangedCallback registers a callback for speaking-state
// updates produced by the configured transcription client.
func WithSpeakingStateChangedCallback(callback func(isSpeaking bool)) OrchestrateOption {
	return func(o *OrchestrateOptions) {
		o.onSpeakingStateChanged = callback
	}
}

// WithInterimTranscriptionCallback registers a callback for the mutable
// running transcript of the in-progress utterance.
func WithInterimTranscriptionCallback(callback func(transcript string)) OrchestrateOption {
	return func(o *OrchestrateOptions) {
		o.onInterimTranscription = callback
	}
}

// WithTranscriptionCallback registers a callback for finalized utterance
// transcripts. It fires before the turn they start is processed.
func WithTranscriptionCallback(callback func(transcript string)) OrchestrateOption {
	return func(o *OrchestrateOptions) {
		o.onTranscription = callback
	}
}

// WithResponseCallback registers a callback for streamed response text
// segments.
func WithResponseCallback(callback func(segment string)) OrchestrateOption {
	return func(o *OrchestrateOptions) {
		o.onResponse = callback
	}
}

// WithResponseEndCallback registers a callback for the complete response
// text, once per turn, before any of that turn's audio.
func WithResponseEndCallback(callback func(text string)) OrchestrateOption {
	return func(o *OrchestrateOptions) {
		o.onResponseEnd = callback
	}
}

// WithAudioChunkCallback registers a callback for ordered synthesized audio
// chunks. Indexes increase strictly within a turn; final marks the turn's
// last chunk.
func WithAudioChunkCallback(callback func(index int, audio []byte, final bool)) OrchestrateOption {
	return func(o *OrchestrateOptions) {
		o.onAudioChunk = callback
	}
}

// WithToolCallCallback registers a callback fired when a matched tool starts
// executing.
func WithToolCallCallback(callback func(name, query string)) OrchestrateOption {
	return func(o *OrchestrateOptions) {
		o.onToolCall = callback
	}
}

// WithFailureCallback registers a callback for reported capability
// failures. A failure never ends the session by itself.
func WithFailureCallback(callback func(category ErrorCategory, capability Capability, message string)) OrchestrateOption {
	return func(o *OrchestrateOptions) {
		o.onFailure = callback
	}
}
