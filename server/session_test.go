package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/auravoice/aura-core/config"
	orchestration "github.com/auravoice/aura-core/core"
	"github.com/auravoice/aura-core/core/llms"
	"github.com/auravoice/aura-core/core/speechtotext"
	"github.com/auravoice/aura-core/core/texttospeech"
	"github.com/auravoice/aura-core/protocol"
)

func TestFrameBeforeHandshakeDrawsProtocolViolation(t *testing.T) {
	harness := newSessionHarness(t, "unused")
	conn := harness.dial(t, "")

	if err := conn.WriteMessage(websocket.BinaryMessage, []byte{0x01, 0x02}); err != nil {
		t.Fatalf("failed to write frame: %v", err)
	}

	errorEvent := readErrorEvent(t, conn)
	if errorEvent.Category != protocol.CategoryProtocolViolation {
		t.Fatalf("expected a protocol violation, got %q", errorEvent.Category)
	}

	// The handshake still completes afterwards.
	writeConfig(t, conn, map[string]string{"transcription": "stt-key", "generation": "llm-key"})
	harness.awaitTranscriber(t)
}

func TestMalformedConfigDrawsProtocolViolation(t *testing.T) {
	harness := newSessionHarness(t, "unused")
	conn := harness.dial(t, "")

	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"type":`)); err != nil {
		t.Fatalf("failed to write malformed config: %v", err)
	}

	errorEvent := readErrorEvent(t, conn)
	if errorEvent.Category != protocol.CategoryProtocolViolation {
		t.Fatalf("expected a protocol violation, got %q", errorEvent.Category)
	}

	writeConfig(t, conn, map[string]string{"transcription": "stt-key", "generation": "llm-key"})
	harness.awaitTranscriber(t)
}

func TestControlMessageAfterHandshakeDrawsProtocolViolation(t *testing.T) {
	harness := newSessionHarness(t, "unused")
	conn := harness.dial(t, "")

	writeConfig(t, conn, map[string]string{"transcription": "stt-key", "generation": "llm-key"})
	harness.awaitTranscriber(t)

	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"config","credentials":{}}`)); err != nil {
		t.Fatalf("failed to write second config: %v", err)
	}

	errorEvent := readErrorEvent(t, conn)
	if errorEvent.Category != protocol.CategoryProtocolViolation {
		t.Fatalf("expected a protocol violation, got %q", errorEvent.Category)
	}
}

func TestTurnEventsArriveInOrder(t *testing.T) {
	harness := newSessionHarness(t, "Hello there. How are you?")
	conn := harness.dial(t, "")

	writeConfig(t, conn, map[string]string{
		"transcription": "stt-key",
		"generation":    "llm-key",
		"synthesis":     "tts-key",
	})
	transcriber := harness.awaitTranscriber(t)

	if err := conn.WriteMessage(websocket.BinaryMessage, []byte{0x01, 0x02}); err != nil {
		t.Fatalf("failed to write frame: %v", err)
	}
	transcriber.awaitAudio(t)
	transcriber.finishUtterance("Hi Aura.")

	transcript, ok := readServerEvent(t, conn).(protocol.Transcript)
	if !ok || transcript.Text != "Hi Aura." {
		t.Fatalf("expected the transcript event first, got %+v", transcript)
	}

	response, ok := readServerEvent(t, conn).(protocol.AIResponse)
	if !ok || response.Text != "Hello there. How are you?" {
		t.Fatalf("expected the full response before audio, got %+v", response)
	}

	var chunks []protocol.AudioChunk
	for {
		chunk, ok := readServerEvent(t, conn).(protocol.AudioChunk)
		if !ok {
			t.Fatalf("expected audio chunks after the response")
		}
		chunks = append(chunks, chunk)
		if chunk.Final {
			break
		}
	}

	if len(chunks) != 2 {
		t.Fatalf("expected 2 audio chunks, got %d", len(chunks))
	}
	for i, chunk := range chunks {
		if chunk.Index != i {
			t.Fatalf("expected chunk index %d, got %d", i, chunk.Index)
		}
	}
	if !bytes.Equal(chunks[0].Audio, []byte("pcm:Hello there.")) {
		t.Fatalf("unexpected first chunk payload: %q", chunks[0].Audio)
	}
	if !bytes.Equal(chunks[1].Audio, []byte("pcm:How are you?")) || !chunks[1].Final {
		t.Fatalf("unexpected final chunk: %+v", chunks[1])
	}
}

func TestSessionResumesHistoryAcrossReconnects(t *testing.T) {
	harness := newSessionHarness(t, "Hello Ada.")
	credentials := map[string]string{"transcription": "stt-key", "generation": "llm-key"}

	first := harness.dial(t, "resume-1")
	writeConfig(t, first, credentials)
	transcriber := harness.awaitTranscriber(t)
	_ = harness.awaitGenerator(t)

	if err := first.WriteMessage(websocket.BinaryMessage, []byte{0x01}); err != nil {
		t.Fatalf("failed to write frame: %v", err)
	}
	transcriber.awaitAudio(t)
	transcriber.finishUtterance("My name is Ada.")

	if transcript, ok := readServerEvent(t, first).(protocol.Transcript); !ok || transcript.Text != "My name is Ada." {
		t.Fatalf("expected the transcript event, got %+v", transcript)
	}
	if response, ok := readServerEvent(t, first).(protocol.AIResponse); !ok || response.Text != "Hello Ada." {
		t.Fatalf("expected the response event, got %+v", response)
	}

	first.Close()
	harness.awaitDetached(t, "resume-1")

	second := harness.dial(t, "resume-1")
	writeConfig(t, second, credentials)
	transcriber = harness.awaitTranscriber(t)
	generator := harness.awaitGenerator(t)

	if err := second.WriteMessage(websocket.BinaryMessage, []byte{0x02}); err != nil {
		t.Fatalf("failed to write frame: %v", err)
	}
	transcriber.awaitAudio(t)
	transcriber.finishUtterance("Do you remember my name?")

	if transcript, ok := readServerEvent(t, second).(protocol.Transcript); !ok || transcript.Text != "Do you remember my name?" {
		t.Fatalf("expected the transcript event, got %+v", transcript)
	}
	if _, ok := readServerEvent(t, second).(protocol.AIResponse); !ok {
		t.Fatalf("expected the response event")
	}

	prompts := generator.capturedPrompts()
	if len(prompts) != 1 {
		t.Fatalf("expected one generation on the resumed session, got %d", len(prompts))
	}
	turns := prompts[0].Turns
	if len(turns) != 3 {
		t.Fatalf("expected retained history plus the new prompt, got %d turns", len(turns))
	}
	if turns[0].Content != "My name is Ada." || turns[1].Content != "Hello Ada." {
		t.Fatalf("expected the first connection's turns to be retained, got %+v", turns[:2])
	}
}

func TestSecondConnectionSupersedesFirst(t *testing.T) {
	harness := newSessionHarness(t, "unused")
	credentials := map[string]string{"transcription": "stt-key", "generation": "llm-key"}

	first := harness.dial(t, "dup-1")
	writeConfig(t, first, credentials)
	harness.awaitTranscriber(t)

	second := harness.dial(t, "dup-1")
	writeConfig(t, second, credentials)
	harness.awaitTranscriber(t)

	_ = first.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		_, _, err := first.ReadMessage()
		if err == nil {
			continue
		}
		if errors.Is(err, os.ErrDeadlineExceeded) {
			t.Fatalf("expected the server to close the superseded connection")
		}
		break
	}
}

func TestMissingTranscriptionCredentialReportsOnce(t *testing.T) {
	harness := newSessionHarness(t, "unused")
	conn := harness.dial(t, "")

	writeConfig(t, conn, map[string]string{"generation": "llm-key"})

	for i := 0; i < 3; i++ {
		if err := conn.WriteMessage(websocket.BinaryMessage, []byte{byte(i)}); err != nil {
			t.Fatalf("failed to write frame %d: %v", i, err)
		}
	}

	errorEvent := readErrorEvent(t, conn)
	if errorEvent.Category != protocol.CategoryConfiguration || errorEvent.Capability != "transcription" {
		t.Fatalf("expected a transcription configuration error, got %+v", errorEvent)
	}

	_ = conn.SetReadDeadline(time.Now().Add(300 * time.Millisecond))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Fatalf("expected no further error events for later frames")
	}
}

type sessionHarness struct {
	srv          *Server
	http         *httptest.Server
	transcribers chan *fakeTranscriber
	generators   chan *fakeGenerator
}

func newSessionHarness(t *testing.T, reply string) *sessionHarness {
	t.Helper()

	harness := &sessionHarness{
		transcribers: make(chan *fakeTranscriber, 4),
		generators:   make(chan *fakeGenerator, 4),
	}

	collaborators := Collaborators{
		NewTranscriber: func(string, string) (orchestration.Transcriber, error) {
			transcriber := newFakeTranscriber()
			harness.transcribers <- transcriber
			return transcriber, nil
		},
		NewGenerator: func(string, string) orchestration.Generator {
			generator := &fakeGenerator{reply: reply}
			harness.generators <- generator
			return generator
		},
		NewSynthesizer: func(config.SynthesisConfig, string) (orchestration.Synthesizer, error) {
			return &fakeSynthesizer{}, nil
		},
	}

	harness.srv = New(config.Default(), discardLogger(), WithCollaborators(collaborators))
	harness.http = httptest.NewServer(harness.srv.routes())
	t.Cleanup(harness.http.Close)

	return harness
}

func (h *sessionHarness) dial(t *testing.T, sessionID string) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(h.http.URL, "http") + "/ws/voice"
	if sessionID != "" {
		url += "?session_id=" + sessionID
	}
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("failed to dial voice endpoint: %v", err)
	}
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func (h *sessionHarness) awaitTranscriber(t *testing.T) *fakeTranscriber {
	t.Helper()
	select {
	case transcriber := <-h.transcribers:
		return transcriber
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for the session transcriber")
		return nil
	}
}

func (h *sessionHarness) awaitGenerator(t *testing.T) *fakeGenerator {
	t.Helper()
	select {
	case generator := <-h.generators:
		return generator
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for the session generator")
		return nil
	}
}

// awaitDetached waits until the session's live claim is released, so a
// reconnect observes the saved history instead of superseding the teardown.
func (h *sessionHarness) awaitDetached(t *testing.T, sessionID string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		h.srv.store.mu.Lock()
		record, ok := h.srv.store.sessions[sessionID]
		detached := ok && record.supersede == nil
		h.srv.store.mu.Unlock()
		if detached {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for session %q to detach", sessionID)
}

func writeConfig(t *testing.T, conn *websocket.Conn, credentials map[string]string) {
	t.Helper()
	data, err := json.Marshal(protocol.NewConfig(credentials))
	if err != nil {
		t.Fatalf("failed to marshal config: %v", err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
}

func readServerEvent(t *testing.T, conn *websocket.Conn) any {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("failed to read server event: %v", err)
	}
	event, err := protocol.DecodeServerEvent(data)
	if err != nil {
		t.Fatalf("failed to decode server event: %v", err)
	}
	return event
}

func readErrorEvent(t *testing.T, conn *websocket.Conn) protocol.ErrorEvent {
	t.Helper()
	event := readServerEvent(t, conn)
	errorEvent, ok := event.(protocol.ErrorEvent)
	if !ok {
		t.Fatalf("expected an error event, got %T", event)
	}
	return errorEvent
}

type fakeTranscriber struct {
	mu            sync.Mutex
	opts          speechtotext.TranscriptionOptions
	audioReceived chan struct{}
}

func newFakeTranscriber() *fakeTranscriber {
	return &fakeTranscriber{audioReceived: make(chan struct{}, 16)}
}

func (f *fakeTranscriber) Transcribe(_ context.Context, opts ...speechtotext.TranscriptionOption) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, opt := range opts {
		opt(&f.opts)
	}
	return nil
}

func (f *fakeTranscriber) SendAudio([]byte) error {
	select {
	case f.audioReceived <- struct{}{}:
	default:
	}
	return nil
}

func (f *fakeTranscriber) Close() error { return nil }

func (f *fakeTranscriber) awaitAudio(t *testing.T) {
	t.Helper()
	select {
	case <-f.audioReceived:
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for a relayed frame")
	}
}

func (f *fakeTranscriber) finishUtterance(transcript string) {
	f.mu.Lock()
	callback := f.opts.TranscriptionCallback
	f.mu.Unlock()
	if callback != nil {
		callback(transcript)
	}
}

type fakeGenerator struct {
	reply string

	mu      sync.Mutex
	prompts []llms.PromptOptions
}

func (f *fakeGenerator) PromptWithStream(_ context.Context, _ *string, opts ...llms.PromptOption) llms.Stream {
	options := llms.PromptOptions{}
	for _, opt := range opts {
		opt(&options)
	}

	f.mu.Lock()
	f.prompts = append(f.prompts, options)
	f.mu.Unlock()

	return fixedStream{content: f.reply}
}

func (f *fakeGenerator) capturedPrompts() []llms.PromptOptions {
	f.mu.Lock()
	defer f.mu.Unlock()
	prompts := make([]llms.PromptOptions, len(f.prompts))
	copy(prompts, f.prompts)
	return prompts
}

type fixedStream struct {
	content string
}

func (s fixedStream) Chunks(context.Context) func(func(llms.StreamChunk, error) bool) {
	return func(yield func(llms.StreamChunk, error) bool) {
		yield(textChunk(s.content), nil)
	}
}

type textChunk string

func (c textChunk) FinishReason() *string { return nil }

func (c textChunk) Content() string { return string(c) }

type fakeSynthesizer struct {
	mu   sync.Mutex
	opts texttospeech.TextToSpeechOptions
}

func (f *fakeSynthesizer) OpenStream(_ context.Context, opts ...texttospeech.TextToSpeechOption) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, opt := range opts {
		opt(&f.opts)
	}
	return nil
}

func (f *fakeSynthesizer) SendText(text string) error {
	f.mu.Lock()
	callback := f.opts.SpeechAudioCallback
	f.mu.Unlock()
	if callback != nil {
		callback([]byte("pcm:" + text))
	}
	return nil
}

func (f *fakeSynthesizer) EndTurn() error {
	f.mu.Lock()
	callback := f.opts.SpeechEndedCallback
	f.mu.Unlock()
	if callback != nil {
		callback()
	}
	return nil
}

func (f *fakeSynthesizer) CloseStream(context.Context) error { return nil }
