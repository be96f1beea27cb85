package protocol

import (
	"slices"
	"strings"
)

// Type discriminates wire messages.
type Type string

const (
	// TypeConfig identifies the client capability handshake.
	TypeConfig Type = "config"
	// TypeTranscript identifies a finalized user utterance.
	TypeTranscript Type = "transcript"
	// TypeAIResponse identifies the complete assistant reply for a turn.
	TypeAIResponse Type = "ai_response"
	// TypeAudioChunk identifies one ordered synthesized audio chunk.
	TypeAudioChunk Type = "audio_chunk"
	// TypeError identifies a recoverable session failure.
	TypeError Type = "error"
)

// Category classifies error events. Values are stable wire identifiers.
type Category string

const (
	// CategoryConfiguration covers missing or invalid credentials.
	CategoryConfiguration Category = "configuration"
	// CategoryCollaboratorFailure covers timeouts, non-2xx responses and
	// malformed payloads from external collaborators.
	CategoryCollaboratorFailure Category = "collaborator_failure"
	// CategoryProtocolViolation covers client messages that break the
	// session protocol, such as audio frames before the handshake.
	CategoryProtocolViolation Category = "protocol_violation"
	// CategoryResource covers local device failures. These stay on the
	// client and never cross the wire.
	CategoryResource Category = "resource"
)

// Config is the capability handshake. Credentials map capability names to
// opaque credentials; any subset of keys may be present and absent means
// "not configured", never an error.
type Config struct {
	Type        Type              `json:"type"`
	Credentials map[string]string `json:"credentials"`
}

// NewConfig creates the handshake message.
func NewConfig(credentials map[string]string) Config {
	return Config{Type: TypeConfig, Credentials: credentials}
}

// RedactedForLog lists the supplied capability names, sorted, without their
// credentials. Log this, never the credential values.
func (c Config) RedactedForLog() []string {
	names := make([]string, 0, len(c.Credentials))
	for name, credential := range c.Credentials {
		if strings.TrimSpace(credential) == "" {
			continue
		}
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Transcript carries a finalized user utterance.
type Transcript struct {
	Type Type   `json:"type"`
	Text string `json:"text"`
}

// NewTranscript creates a transcript event.
func NewTranscript(text string) Transcript {
	return Transcript{Type: TypeTranscript, Text: text}
}

// AIResponse carries the complete assistant reply. It is emitted once per
// turn, before any of that turn's audio chunks.
type AIResponse struct {
	Type Type   `json:"type"`
	Text string `json:"text"`
}

// NewAIResponse creates an assistant response event.
func NewAIResponse(text string) AIResponse {
	return AIResponse{Type: TypeAIResponse, Text: text}
}

// AudioChunk carries one synthesized audio chunk. Audio marshals as base64.
// Indexes increase strictly within a turn and Final marks the turn's last
// chunk.
type AudioChunk struct {
	Type  Type   `json:"type"`
	Index int    `json:"index"`
	Audio []byte `json:"audio"`
	Final bool   `json:"final"`
}

// NewAudioChunk creates an audio chunk event.
func NewAudioChunk(index int, audio []byte, final bool) AudioChunk {
	return AudioChunk{Type: TypeAudioChunk, Index: index, Audio: audio, Final: final}
}

// ErrorEvent reports one recoverable session failure. Capability names the
// failing capability when one is known.
type ErrorEvent struct {
	Type       Type     `json:"type"`
	Category   Category `json:"category"`
	Message    string   `json:"message"`
	Capability string   `json:"capability,omitempty"`
}

// NewErrorEvent creates an error event.
func NewErrorEvent(category Category, capability, message string) ErrorEvent {
	return ErrorEvent{Type: TypeError, Category: category, Capability: capability, Message: message}
}
