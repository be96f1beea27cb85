package deepgram

import (
	"sync/atomic"
	"testing"

	"github.com/auravoice/aura-core/core/speechtotext"
)

func TestNewCallbackConfigDefaultsToNoopCallbacks(t *testing.T) {
	callbacks, wsConfig := newCallbackConfig(speechtotext.TranscriptionOptions{})

	callbacks.partialTranscriptionCallback("partial")
	callbacks.transcriptionCallback("full")
	callbacks.startSpeechCallback()
	callbacks.endSpeechCallback()

	if wsConfig.shouldDetectSpeechStart {
		t.Fatalf("expected speech-start detection disabled when callback is unset")
	}
	if wsConfig.shouldEnhanceSpeechEndingDetection {
		t.Fatalf("expected speech-end enhancement disabled when callbacks are unset")
	}
	if wsConfig.shouldRequestInterimResults {
		t.Fatalf("expected interim-results disabled when callbacks are unset")
	}
}

func TestNewCallbackConfigKeepsConfiguredCallbacksAndFlags(t *testing.T) {
	partialCalls := atomic.Int32{}
	transcriptionCalls := atomic.Int32{}
	startCalls := atomic.Int32{}
	endCalls := atomic.Int32{}

	callbacks, wsConfig := newCallbackConfig(speechtotext.TranscriptionOptions{
		PartialTranscriptionCallback: func(string) { partialCalls.Add(1) },
		TranscriptionCallback:        func(string) { transcriptionCalls.Add(1) },
		SpeechStartedCallback:        func() { startCalls.Add(1) },
		SpeechEndedCallback:          func() { endCalls.Add(1) },
	})

	callbacks.partialTranscriptionCallback("hel")
	callbacks.transcriptionCallback("hello world")
	callbacks.startSpeechCallback()
	callbacks.endSpeechCallback()

	if !wsConfig.shouldDetectSpeechStart {
		t.Fatalf("expected speech-start detection enabled")
	}
	if !wsConfig.shouldEnhanceSpeechEndingDetection {
		t.Fatalf("expected speech-end enhancement enabled")
	}
	if !wsConfig.shouldRequestInterimResults {
		t.Fatalf("expected interim-results enabled")
	}

	if got := partialCalls.Load(); got != 1 {
		t.Fatalf("expected partial transcription callback once, got %d", got)
	}
	if got := transcriptionCalls.Load(); got != 1 {
		t.Fatalf("expected transcription callback once, got %d", got)
	}
	if got := startCalls.Load(); got != 1 {
		t.Fatalf("expected speech-start callback once, got %d", got)
	}
	if got := endCalls.Load(); got != 1 {
		t.Fatalf("expected speech-end callback once, got %d", got)
	}
}

func TestOnSpeechEndedFlushesAccumulatedTranscript(t *testing.T) {
	client := NewTranscriptionClient("test-key")
	client.unendedSegment = true
	client.accumulatedTranscript = "hello world"

	var finals []string
	endCalls := 0
	callbacks, _ := newCallbackConfig(speechtotext.TranscriptionOptions{
		TranscriptionCallback: func(transcript string) { finals = append(finals, transcript) },
		SpeechEndedCallback:   func() { endCalls++ },
	})

	client.onSpeechEnded(callbacks)

	if len(finals) != 1 || finals[0] != "hello world" {
		t.Fatalf("unexpected finalized transcript: %v", finals)
	}
	if endCalls != 1 {
		t.Fatalf("expected speech-end callback once, got %d", endCalls)
	}
	if client.unendedSegment {
		t.Fatalf("segment must be marked ended")
	}
	if client.accumulatedTranscript != "" {
		t.Fatalf("accumulated transcript must reset, got %q", client.accumulatedTranscript)
	}

	// A second flush without new speech must stay silent.
	client.onSpeechEnded(callbacks)
	if len(finals) != 1 {
		t.Fatalf("empty flush must not finalize, got %v", finals)
	}
}
