package orchestration

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/auravoice/aura-core/core/events"
	"github.com/auravoice/aura-core/core/llms"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// activeTurn is the unit of work for one finalized user utterance. Three
// workers cooperate on it: generation streams response text, the response
// text worker relays sentence units to synthesis, and the speech worker
// forwards synthesized audio. The buffers between them decouple the stages
// so synthesis can start before generation finishes.
type activeTurn struct {
	prompt  llms.Turn
	history []llms.Turn

	// sessionContext outlives the turn. The persistent synthesis stream is
	// opened on it so a turn's deadline cannot tear the stream down.
	sessionContext context.Context

	// content is the full assistant reply, set once generation (or the
	// fallback) resolves. Empty when the turn failed without a reply.
	content string

	textBuffer  *textBuffer
	audioBuffer *audioBuffer
	segmenter   *sentenceSegmenter

	llm *llm
	tts *textToSpeech

	emitEvent  eventEmitter
	onSpeaking func()

	generationTimeout time.Duration

	failureOnce sync.Once
	failure     *CapabilityError
}

func newActiveTurn(prompt llms.Turn, history []llms.Turn, o *Orchestrator) *activeTurn {
	return &activeTurn{
		prompt:            prompt,
		history:           history,
		sessionContext:    o.baseContext,
		textBuffer:        newTextBuffer(),
		audioBuffer:       newAudioBuffer(),
		segmenter:         newSentenceSegmenter(),
		llm:               &o.llm,
		tts:               &o.textToSpeech,
		emitEvent:         o.emitEvent,
		onSpeaking:        func() { o.setState(StateSpeaking) },
		generationTimeout: o.generationTimeout,
	}
}

// recordFailure notes the turn's first failure and reports it. Later
// failures in the same turn are kept out of the event stream so one broken
// collaborator doesn't cascade into a burst of error events.
func (t *activeTurn) recordFailure(failure *CapabilityError) {
	if failure == nil {
		return
	}

	t.failureOnce.Do(func() {
		t.failure = failure
		t.emitEvent(events.NewSessionFailure(
			string(failure.Category), string(failure.Capability), failure.Err.Error()))
	})
}

// generateResponse streams the assistant reply, emitting response segments
// as they arrive and feeding sentence units to the response text worker.
// The full reply event goes out before the audio gate opens, so no speech
// chunk can overtake it.
func (t *activeTurn) generateResponse(ctx context.Context) error {
	defer t.textBuffer.Complete()

	ctx, cancel := context.WithTimeout(ctx, t.generationTimeout)
	defer cancel()

	content, err := t.llm.generate(ctx, t.history, t.prompt, func(fragment string) {
		t.emitEvent(events.NewAssistantResponseSegment(fragment))
		for _, unit := range t.segmenter.Write(fragment) {
			t.textBuffer.AddUnit(unit)
		}
	})
	if err == nil && strings.TrimSpace(content) == "" {
		err = newCapabilityError(ErrorCategoryCollaborator, CapabilityGeneration,
			fmt.Errorf("generation returned an empty response"))
	}
	if err != nil {
		capabilityErr := asCapabilityError(err, CapabilityGeneration)
		t.recordFailure(capabilityErr)

		if !t.tts.isConfigured() {
			return capabilityErr
		}

		t.content = fallbackReply
		t.emitEvent(events.NewAssistantResponseFinal(fallbackReply))
		t.textBuffer.AddUnit(fallbackReply)
		t.audioBuffer.Release()
		t.onSpeaking()
		return nil
	}

	t.textBuffer.AddUnit(t.segmenter.Flush())

	t.content = content
	t.emitEvent(events.NewAssistantResponseFinal(content))
	t.audioBuffer.Release()
	if t.tts.isConfigured() {
		t.onSpeaking()
	}

	return nil
}

// processResponseText relays finished sentence units to the synthesis
// stream and closes the turn's synthesis context once the last unit is in.
func (t *activeTurn) processResponseText(ctx context.Context) error {
	defer close(withContextCancelHook(ctx, t.textBuffer.Clear))

	if !t.tts.isConfigured() {
		return nil
	}

	_, span := tracer.Start(ctx, "relay response to synthesis")
	defer span.End()

	if err := t.tts.init(t.sessionContext); err != nil {
		capabilityErr := asCapabilityError(err, CapabilitySynthesis)
		t.recordFailure(capabilityErr)
		span.RecordError(capabilityErr)
		span.SetStatus(codes.Error, capabilityErr.Error())
		return capabilityErr
	}

	t.tts.attach(t.audioBuffer, func(err error) {
		t.recordFailure(asCapabilityError(err, CapabilitySynthesis))
	})

	unitsSent := 0
	for unit := range t.textBuffer.Units {
		if err := t.tts.SendText(unit); err != nil {
			capabilityErr := asCapabilityError(err, CapabilitySynthesis)
			t.recordFailure(capabilityErr)
			span.RecordError(capabilityErr)
			span.SetStatus(codes.Error, capabilityErr.Error())
			return capabilityErr
		}
		unitsSent++
	}
	span.SetAttributes(attribute.Int("assistant_turn.units_sent", unitsSent))

	if unitsSent == 0 {
		// Nothing went to synthesis, so no turn end will come back.
		t.audioBuffer.Release()
		t.audioBuffer.Done()
		return nil
	}

	if err := t.tts.EndTurn(); err != nil {
		capabilityErr := asCapabilityError(err, CapabilitySynthesis)
		t.recordFailure(capabilityErr)
		span.RecordError(capabilityErr)
		span.SetStatus(codes.Error, capabilityErr.Error())
		return capabilityErr
	}

	return nil
}

// processSpeech forwards synthesized audio chunks in arrival order. It
// holds one chunk back so the last one can be flagged final.
func (t *activeTurn) processSpeech(ctx context.Context) error {
	defer close(withContextCancelHook(ctx, t.audioBuffer.Clear))

	if !t.tts.isConfigured() {
		return nil
	}

	_, span := tracer.Start(ctx, "forward speech")
	defer span.End()

	index := 0
	var held []byte
	for chunk := range t.audioBuffer.Chunks {
		if held != nil {
			t.emitEvent(events.NewAssistantSpeechChunk(index, held, false))
			index++
		}
		held = chunk
	}
	if held != nil && t.audioBuffer.Completed() {
		t.emitEvent(events.NewAssistantSpeechChunk(index, held, true))
		index++
	}
	span.SetAttributes(attribute.Int("assistant_turn.audio_chunks", index))

	return nil
}
