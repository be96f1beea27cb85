package orchestration

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/auravoice/aura-core/core/audio"
	"github.com/auravoice/aura-core/core/texttospeech"
)

// textToSpeech wraps the synthesis client behind one persistent streaming
// context per session. Turns attach their own audio sink before sending
// text, so arriving audio always lands in the turn that asked for it.
type textToSpeech struct {
	// client stores the configured synthesis implementation.
	client Synthesizer

	encodingInfo audio.EncodingInfo

	// initOnce opens the persistent stream once, on the first speaking turn.
	initOnce sync.Once
	// initErr stores the one-time initialization result.
	initErr error

	// connected reports whether the stream was opened.
	connected atomic.Bool
	// closeStarted makes Close idempotent under concurrent shutdown paths.
	closeStarted atomic.Bool

	mu sync.Mutex
	// sink is the current turn's audio destination. Audio that arrives with
	// no sink attached is dropped.
	sink *audioBuffer
	// onSinkError reports synthesis failures to the current turn.
	onSinkError func(error)
}

func newTextToSpeech(client Synthesizer) *textToSpeech {
	return &textToSpeech{
		client:       client,
		encodingInfo: audio.GetSynthesisEncodingInfo(),
	}
}

func (t *textToSpeech) set(client Synthesizer) {
	if t != nil {
		t.client = client
	}
}

func (t *textToSpeech) isConfigured() bool {
	return t != nil && t.client != nil
}

// init opens the persistent synthesis stream. Safe to call every turn; only
// the first call dials out.
func (t *textToSpeech) init(ctx context.Context) error {
	if !t.isConfigured() {
		return nil
	}

	t.initOnce.Do(func() {
		if t.closeStarted.Load() {
			return
		}

		err := t.client.OpenStream(ctx,
			texttospeech.WithSpeechAudioCallback(t.routeAudio),
			texttospeech.WithSpeechEndedCallback(t.routeSpeechEnded),
			texttospeech.WithErrorCallback(t.routeError),
			texttospeech.WithEncodingInfo(t.encodingInfo),
		)
		if err != nil {
			t.initErr = fmt.Errorf("failed to open synthesis stream: %w", err)
			return
		}
		t.connected.Store(true)
	})

	return t.initErr
}

// attach points arriving audio at the given turn's buffer.
func (t *textToSpeech) attach(sink *audioBuffer, onError func(error)) {
	if t == nil {
		return
	}

	t.mu.Lock()
	t.sink = sink
	t.onSinkError = onError
	t.mu.Unlock()
}

func (t *textToSpeech) detach() {
	if t == nil {
		return
	}

	t.mu.Lock()
	t.sink = nil
	t.onSinkError = nil
	t.mu.Unlock()
}

func (t *textToSpeech) SendText(text string) error {
	if !t.isConfigured() || !t.connected.Load() {
		return nil
	}

	if err := t.client.SendText(text); err != nil {
		return fmt.Errorf("failed to send text to synthesis: %w", err)
	}
	return nil
}

// EndTurn marks the end of the current turn's text. The stream stays open
// for the next turn.
func (t *textToSpeech) EndTurn() error {
	if !t.isConfigured() || !t.connected.Load() {
		return nil
	}

	if err := t.client.EndTurn(); err != nil {
		return fmt.Errorf("failed to end synthesis turn: %w", err)
	}
	return nil
}

func (t *textToSpeech) Close(ctx context.Context) error {
	if t == nil || t.client == nil {
		return nil
	}

	if !t.closeStarted.CompareAndSwap(false, true) {
		return nil
	}

	if !t.connected.Load() {
		return nil
	}
	t.connected.Store(false)

	switch c := t.client.(type) {
	case interface{ Close(context.Context) error }:
		if err := c.Close(ctx); err != nil {
			return fmt.Errorf("failed to close synthesis client: %w", err)
		}
	case interface{ Close(context.Context) }:
		c.Close(ctx)
	case interface{ CloseStream(context.Context) error }:
		if err := c.CloseStream(ctx); err != nil {
			return fmt.Errorf("failed to close synthesis stream: %w", err)
		}
	case interface{ Close() error }:
		if err := c.Close(); err != nil {
			return fmt.Errorf("failed to close synthesis client: %w", err)
		}
	}

	return nil
}

func (t *textToSpeech) routeAudio(audio []byte) {
	t.mu.Lock()
	sink := t.sink
	t.mu.Unlock()

	if sink != nil {
		sink.AddChunk(audio)
	}
}

func (t *textToSpeech) routeSpeechEnded() {
	t.mu.Lock()
	sink := t.sink
	t.mu.Unlock()

	if sink != nil {
		sink.Done()
	}
}

func (t *textToSpeech) routeError(err error) {
	t.mu.Lock()
	sink := t.sink
	onSinkError := t.onSinkError
	t.mu.Unlock()

	if onSinkError != nil {
		onSinkError(err)
	}
	if sink != nil {
		// The provider will not report a turn end after an error, so the
		// turn finishes with whatever audio already arrived.
		sink.Done()
	}
}
