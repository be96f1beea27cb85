package orchestration

import (
	"context"
	"fmt"
	"sync"

	"github.com/auravoice/aura-core/core/audio"
	events "github.com/auravoice/aura-core/core/events"
	"github.com/auravoice/aura-core/core/speechtotext"
)

type speechToText struct {
	// client stores the configured transcription implementation.
	client Transcriber

	emitEvent eventEmitter

	// startOnce opens the streaming session lazily, on the first relayed
	// frame.
	startOnce sync.Once
	startErr  error
}

func newSpeechToText(client Transcriber) *speechToText {
	return &speechToText{
		client:    client,
		emitEvent: noopEventEmitter,
	}
}

func (s *speechToText) set(client Transcriber) {
	if s != nil {
		s.client = client
	}
}

func (s *speechToText) setEventEmitter(emitEvent eventEmitter) {
	if s != nil {
		if emitEvent != nil {
			s.emitEvent = emitEvent
		} else {
			s.emitEvent = noopEventEmitter
		}
	}
}

func (s *speechToText) isConfigured() bool {
	return s != nil && s.client != nil
}

// start opens the streaming transcription session. It is safe to call on
// every frame; only the first call dials out.
func (s *speechToText) start(ctx context.Context, encodingInfo audio.EncodingInfo, onTranscript func(transcript string)) error {
	if !s.isConfigured() {
		return nil
	}

	s.startOnce.Do(func() {
		sttOptions := []speechtotext.TranscriptionOption{
			speechtotext.WithSpeechStartedCallback(s.invokeSpeechStarted),
			speechtotext.WithSpeechEndedCallback(s.invokeSpeechEnded),
			speechtotext.WithPartialTranscriptionCallback(s.invokePartialTranscription),
			speechtotext.WithTranscriptionCallback(onTranscript),
			speechtotext.WithEncodingInfo(encodingInfo),
		}

		if err := s.client.Transcribe(ctx, sttOptions...); err != nil {
			s.startErr = fmt.Errorf("failed to start transcribing: %w", err)
		}
	})

	return s.startErr
}

func (s *speechToText) SendAudio(audio []byte) error {
	if !s.isConfigured() {
		return nil
	}

	return s.client.SendAudio(audio)
}

func (s *speechToText) Close(ctx context.Context) error {
	if !s.isConfigured() {
		return nil
	}

	switch c := s.client.(type) {
	case interface{ Close(context.Context) error }:
		if err := c.Close(ctx); err != nil {
			return fmt.Errorf("failed to close transcription client: %w", err)
		}
	case interface{ Close(context.Context) }:
		c.Close(ctx)
	case interface{ Close() error }:
		if err := c.Close(); err != nil {
			return fmt.Errorf("failed to close transcription client: %w", err)
		}
	case interface{ Close() }:
		c.Close()
	}

	return nil
}

func (s *speechToText) invokeSpeechStarted() {
	s.emitEvent(events.NewUserSpeechStarted())
}

func (s *speechToText) invokeSpeechEnded() {
	s.emitEvent(events.NewUserSpeechEnded())
}

func (s *speechToText) invokePartialTranscription(transcript string) {
	s.emitEvent(events.NewUserTranscriptInterimUpdated(transcript))
}
