package orchestration

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/auravoice/aura-core/core/audio"
	"github.com/auravoice/aura-core/core/events"
	"github.com/auravoice/aura-core/core/llms"
	"github.com/auravoice/aura-core/core/tools"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// State is the session lifecycle state.
type State string

const (
	StateAwaitingKeys State = "awaiting_keys"
	StateIdle         State = "idle"
	StateListening    State = "listening"
	StateFinalizing   State = "finalizing"
	StateThinking     State = "thinking"
	StateSpeaking     State = "speaking"
)

// DefaultInstructions is the persona system instruction used when none is
// configured.
const DefaultInstructions = "You are Aura, a warm and concise voice assistant. " +
	"You are having a spoken conversation: reply in short, natural sentences that sound good read aloud. " +
	"Never use markdown, lists, or emoji. " +
	"When a tool result is provided, ground your answer in it and mention only the essentials."

// fallbackReply is spoken when generation fails but synthesis still works.
const fallbackReply = "I'm having trouble connecting right now. Please try again later."

const (
	defaultGenerationTimeout = 30 * time.Second
	defaultToolTimeout       = 10 * time.Second
	defaultTurnTimeout       = 2 * time.Minute
	defaultQueueCapacity     = 8
)

type queuedTurn struct {
	transcript string
	queuedAt   time.Time
}

// Orchestrator runs one session's turn pipeline: it relays audio frames to
// transcription, turns finalized transcripts into generation and synthesis
// work, and reports everything through events. End-of-turns that arrive
// while a turn is still processing queue up and run in order; a prior turn's
// audio always completes first.
type Orchestrator struct {
	stateMu sync.RWMutex
	state   State

	capabilities CapabilityBundle
	history      *Turns

	// speechToText is the transcription facade used to normalize optional
	// client wiring.
	speechToText speechToText
	// textToSpeech is the synthesis facade holding the session's one
	// persistent synthesis stream.
	textToSpeech textToSpeech
	// llm is the generation facade.
	llm   llm
	tools *tools.Registry

	inputEncoding audio.EncodingInfo

	emitEvent          eventEmitter
	orchestrateOptions OrchestrateOptions
	baseContext        context.Context

	generationTimeout time.Duration
	toolTimeout       time.Duration
	turnTimeout       time.Duration

	queueCapacity int
	queue         chan queuedTurn

	closeOnce sync.Once
	closeCh   chan struct{}
	done      chan struct{}
	started   atomic.Bool
}

func NewOrchestrator(opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		state:             StateAwaitingKeys,
		capabilities:      NewCapabilityBundle(nil),
		history:           NewTurns(),
		llm:               newLLM(),
		inputEncoding:     audio.GetDefaultEncodingInfo(),
		emitEvent:         noopEventEmitter,
		baseContext:       context.Background(),
		generationTimeout: defaultGenerationTimeout,
		toolTimeout:       defaultToolTimeout,
		turnTimeout:       defaultTurnTimeout,
		queueCapacity:     defaultQueueCapacity,
		closeCh:           make(chan struct{}),
		done:              make(chan struct{}),
	}
	o.speechToText = *newSpeechToText(nil)
	o.textToSpeech = *newTextToSpeech(nil)

	for _, opt := range opts {
		opt(o)
	}

	o.queue = make(chan queuedTurn, o.queueCapacity)

	return o
}

// Orchestrate starts the session loop.
//
// ctx is the base context for all collaborator and tool calls; cancelling it
// closes the orchestrator.
//
// Contract: call Orchestrate exactly once, before relaying any audio or
// prompts. Repeated calls are rejected.
func (o *Orchestrator) Orchestrate(ctx context.Context, opts ...OrchestrateOption) {
	if o.isClosed() {
		log.Println("Warning: orchestrator already closed, skipping Orchestrate")
		return
	}
	if !o.started.CompareAndSwap(false, true) {
		log.Println("Warning: orchestrator already started, skipping Orchestrate")
		return
	}

	o.orchestrateOptions = OrchestrateOptions{}
	for _, opt := range opts {
		opt(&o.orchestrateOptions)
	}

	o.baseContext = ctx
	o.emitEvent = newCallbackEventEmitter(o.orchestrateOptions)
	o.speechToText.setEventEmitter(o.emitEvent)

	o.setState(StateIdle)

	go func() {
		defer close(o.done)

		for {
			select {
			case <-o.closeCh:
				return
			case queued := <-o.queue:
				if o.isClosed() {
					return
				}
				o.processTurn(queued)
			}
		}
	}()

	go func() {
		<-ctx.Done()
		o.Close()
	}()
}

func (o *Orchestrator) Close() {
	o.closeOnce.Do(func() {
		close(o.closeCh)

		if err := o.speechToText.Close(o.baseContext); err != nil {
			recordedErr := fmt.Errorf("failed to close transcription client: %w", err)
			span := trace.SpanFromContext(o.baseContext)
			span.RecordError(recordedErr)
			span.SetStatus(codes.Error, recordedErr.Error())
		}

		if err := o.textToSpeech.Close(o.baseContext); err != nil {
			recordedErr := fmt.Errorf("failed to close synthesis client: %w", err)
			span := trace.SpanFromContext(o.baseContext)
			span.RecordError(recordedErr)
			span.SetStatus(codes.Error, recordedErr.Error())
		}

		if o.started.Load() {
			<-o.done
		}
	})
}

// SendAudio relays one captured frame to the transcription collaborator.
// The first frame opens the streaming transcription session.
func (o *Orchestrator) SendAudio(frame []byte) error {
	if o.isClosed() {
		return ErrSessionClosed
	}

	if err := o.speechToText.start(o.baseContext, o.inputEncoding, o.handleTranscript); err != nil {
		return err
	}
	o.setStateIf(StateIdle, StateListening)

	return o.speechToText.SendAudio(frame)
}

// SendPrompt submits a text utterance directly, bypassing transcription.
func (o *Orchestrator) SendPrompt(prompt string) {
	o.handleTranscript(prompt)
}

func (o *Orchestrator) State() State {
	o.stateMu.RLock()
	defer o.stateMu.RUnlock()

	return o.state
}

// History returns a copy of the session's finalized turns.
func (o *Orchestrator) History() []llms.Turn {
	return o.history.Snapshot()
}

func (o *Orchestrator) handleTranscript(transcript string) {
	trimmed := strings.TrimSpace(transcript)
	if trimmed == "" {
		o.setStateIf(StateListening, StateIdle)
		return
	}

	o.emitEvent(events.NewUserTranscriptFinal(trimmed))

	if !o.enqueueTurn(trimmed) {
		log.Println("Warning: turn queue full, dropping end of turn")
	}
}

func (o *Orchestrator) enqueueTurn(transcript string) bool {
	select {
	case <-o.closeCh:
		return false
	case o.queue <- queuedTurn{transcript: transcript, queuedAt: time.Now()}:
		return true
	default:
		return false
	}
}

func (o *Orchestrator) processTurn(queued queuedTurn) {
	turnCtx, turnCancel := context.WithTimeout(o.baseContext, o.turnTimeout)
	defer turnCancel()

	go func() {
		select {
		case <-o.closeCh:
			turnCancel()
		case <-turnCtx.Done():
		}
	}()

	ctx, span := tracer.Start(turnCtx, "process turn")
	defer span.End()

	queuedTime := time.Since(queued.queuedAt).Seconds()
	span.SetAttributes(attribute.Float64("turn.queued_time", queuedTime))

	o.setState(StateFinalizing)

	prompt := llms.Turn{
		ID:        uuid.NewString(),
		Role:      llms.TurnRoleUser,
		Content:   queued.transcript,
		CreatedAt: time.Now(),
	}
	if name, result, ok := o.runToolPhase(ctx, queued.transcript); ok {
		prompt.ToolName = name
		prompt.ToolResult = result
	}

	history := o.history.Snapshot()
	o.history.Push(prompt)

	o.setState(StateThinking)

	turn := newActiveTurn(prompt, history, o)
	if err := o.runTurnWorkers(ctx, turn); err != nil {
		turn.recordFailure(asCapabilityError(err, CapabilityGeneration))
		err = fmt.Errorf("failed to process turn: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	if turn.content != "" {
		o.history.Push(llms.Turn{
			ID:        uuid.NewString(),
			Role:      llms.TurnRoleAssistant,
			Content:   turn.content,
			CreatedAt: time.Now(),
		})
	}

	o.setState(StateIdle)
}

func (o *Orchestrator) runTurnWorkers(ctx context.Context, turn *activeTurn) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var workerErr error
	workerErrMu := sync.Mutex{}
	addWorkerErr := func(err error) {
		if err == nil {
			return
		}
		workerErrMu.Lock()
		workerErr = errors.Join(workerErr, err)
		workerErrMu.Unlock()
	}

	run := func(name string, capability Capability, f func(context.Context) error) {
		defer func() {
			if recovered := recover(); recovered != nil {
				addWorkerErr(newCapabilityError(ErrorCategoryCollaborator, capability,
					fmt.Errorf("%s worker panicked: %v", name, recovered)))
				cancel()
			}
		}()

		if err := f(ctx); err != nil {
			addWorkerErr(fmt.Errorf("%s worker failed: %w", name, err))
			cancel()
		}
	}

	wg := &sync.WaitGroup{}
	wg.Add(3)
	go func() {
		defer wg.Done()
		run("generation", CapabilityGeneration, turn.generateResponse)
	}()
	go func() {
		defer wg.Done()
		run("response text", CapabilitySynthesis, turn.processResponseText)
	}()
	go func() {
		defer wg.Done()
		run("speech", CapabilitySynthesis, turn.processSpeech)
	}()

	wg.Wait()

	o.textToSpeech.detach()

	return workerErr
}

func (o *Orchestrator) runToolPhase(ctx context.Context, transcript string) (name, result string, ok bool) {
	if o.tools == nil {
		return "", "", false
	}

	tool, query, matched := o.tools.Select(transcript)
	if !matched {
		return "", "", false
	}

	capability := Capability(tool.Name())
	if !o.capabilities.Has(capability) {
		o.emitEvent(events.NewSessionFailure(
			string(ErrorCategoryConfiguration), string(capability), ErrNotConfigured.Error()))
		return "", "", false
	}

	ctx, cancel := context.WithTimeout(ctx, o.toolTimeout)
	defer cancel()

	ctx, span := tracer.Start(ctx, "run tool",
		trace.WithAttributes(attribute.String("tool.name", tool.Name())))
	defer span.End()

	o.emitEvent(events.NewToolCallStarted(tool.Name(), query))

	result, err := tool.Execute(ctx, query)
	if err != nil {
		err = fmt.Errorf("tool %s failed: %w", tool.Name(), err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		o.emitEvent(events.NewToolCallFailed(tool.Name(), err.Error()))
		o.emitEvent(events.NewSessionFailure(
			string(ErrorCategoryCollaborator), string(capability), err.Error()))
		return "", "", false
	}

	o.emitEvent(events.NewToolCallCompleted(tool.Name(), result))

	return tool.Name(), result, true
}

func (o *Orchestrator) setState(state State) {
	o.stateMu.Lock()
	if o.state == state {
		o.stateMu.Unlock()
		return
	}
	o.state = state
	o.stateMu.Unlock()

	o.emitEvent(events.NewSessionStateChanged(string(state)))
}

func (o *Orchestrator) setStateIf(from, to State) {
	o.stateMu.Lock()
	if o.state != from {
		o.stateMu.Unlock()
		return
	}
	o.state = to
	o.stateMu.Unlock()

	o.emitEvent(events.NewSessionStateChanged(string(to)))
}

func (o *Orchestrator) isClosed() bool {
	select {
	case <-o.closeCh:
		return true
	default:
		return false
	}
}
