package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/auravoice/aura-core/config"
	orchestration "github.com/auravoice/aura-core/core"
	"github.com/auravoice/aura-core/core/llms"
	"github.com/auravoice/aura-core/protocol"
)

const (
	handshakeTimeout  = 10 * time.Second
	writeTimeout      = 5 * time.Second
	pingInterval      = 20 * time.Second
	archiveTimeout    = 5 * time.Second
	outboundQueueSize = 64
)

// liveSession owns one WebSocket connection for its whole lifetime: the
// config handshake, the inbound frame relay and the outbound event stream.
// All writes to the connection go through writeLoop, so event order on the
// wire matches emission order.
type liveSession struct {
	id            string
	cfg           config.Config
	logger        *slog.Logger
	conn          *websocket.Conn
	store         *SessionStore
	archive       *Archive
	metrics       *sessionMetrics
	collaborators Collaborators

	outbound  chan any
	closed    chan struct{}
	closeOnce sync.Once
}

func newLiveSession(
	id string,
	cfg config.Config,
	logger *slog.Logger,
	conn *websocket.Conn,
	store *SessionStore,
	archive *Archive,
	metrics *sessionMetrics,
	collaborators Collaborators,
) *liveSession {
	return &liveSession{
		id:            id,
		cfg:           cfg,
		logger:        logger,
		conn:          conn,
		store:         store,
		archive:       archive,
		metrics:       metrics,
		collaborators: collaborators,
		outbound:      make(chan any, outboundQueueSize),
		closed:        make(chan struct{}),
	}
}

func (s *liveSession) run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	ctx, span := tracer.Start(ctx, "session",
		trace.WithAttributes(attribute.String("session.id", s.id)))
	defer span.End()

	s.metrics.sessionStarted(ctx)
	s.logger.Info("session started")

	writerDone := make(chan struct{})
	go s.writeLoop(writerDone)

	defer func() {
		s.shutdown()
		<-writerDone
		_ = s.conn.Close()
		s.metrics.sessionEnded(context.Background())
		s.logger.Info("session ended")
	}()

	go func() {
		select {
		case <-ctx.Done():
			s.shutdown()
			_ = s.conn.Close()
		case <-s.closed:
		}
	}()

	configMsg, ok := s.awaitHandshake()
	if !ok {
		return
	}

	bundle := orchestration.NewCapabilityBundle(
		mergeCredentials(s.cfg.Credentials.AsMap(), configMsg.Credentials))
	s.logger.Info("session configured",
		slog.Any("client_capabilities", configMsg.RedactedForLog()))

	attachment, history := s.store.Attach(s.id, func() {
		s.logger.Info("session superseded by a newer connection")
		s.shutdown()
		_ = s.conn.Close()
	})

	if len(history) == 0 {
		archived, err := s.loadArchivedTurns(ctx)
		if err != nil {
			s.logger.Warn("failed to load archived turns", slog.String("error", err.Error()))
		} else {
			history = archived
		}
	}
	if len(history) > 0 {
		s.logger.Info("resuming session", slog.Int("turns", len(history)))
	}

	orch, err := s.buildOrchestrator(bundle, history)
	if err != nil {
		var capabilityErr *orchestration.CapabilityError
		if errors.As(err, &capabilityErr) {
			s.send(protocol.NewErrorEvent(
				protocol.Category(capabilityErr.Category),
				string(capabilityErr.Capability),
				capabilityErr.Err.Error()))
		} else {
			s.send(protocol.NewErrorEvent(protocol.CategoryConfiguration, "", err.Error()))
		}
		s.logger.Error("failed to build session orchestrator", slog.String("error", err.Error()))
		attachment.Detach(history)
		return
	}

	defer func() {
		orch.Close()
		finalHistory := orch.History()
		attachment.Detach(finalHistory)
		if err := s.archiveTurns(finalHistory); err != nil {
			s.logger.Warn("failed to archive session turns", slog.String("error", err.Error()))
		}
	}()

	orch.Orchestrate(ctx, s.callbacks(ctx)...)

	s.readLoop(ctx, orch, bundle.Has(orchestration.CapabilityTranscription))
}

func (s *liveSession) shutdown() {
	s.closeOnce.Do(func() { close(s.closed) })
}

func (s *liveSession) isClosed() bool {
	select {
	case <-s.closed:
		return true
	default:
		return false
	}
}

// awaitHandshake reads until a valid config message arrives. Audio frames and
// malformed control messages each draw a protocol violation event and are
// dropped; the handshake keeps waiting.
func (s *liveSession) awaitHandshake() (protocol.Config, bool) {
	_ = s.conn.SetReadDeadline(time.Now().Add(handshakeTimeout))
	defer func() { _ = s.conn.SetReadDeadline(time.Time{}) }()

	for {
		messageType, data, err := s.conn.ReadMessage()
		if err != nil {
			if !s.isClosed() {
				s.logger.Warn("session closed before config handshake", slog.String("error", err.Error()))
			}
			return protocol.Config{}, false
		}

		if messageType == websocket.BinaryMessage {
			s.send(protocol.NewErrorEvent(protocol.CategoryProtocolViolation, "",
				"audio frame received before config handshake"))
			continue
		}

		configMsg, err := protocol.DecodeConfig(data)
		if err != nil {
			s.send(protocol.NewErrorEvent(protocol.CategoryProtocolViolation, "",
				fmt.Sprintf("invalid config message: %v", err)))
			continue
		}

		return configMsg, true
	}
}

// readLoop relays binary frames into the orchestrator until the connection
// or the session closes. A persistent transcription failure is reported once,
// not once per frame.
func (s *liveSession) readLoop(ctx context.Context, orch *orchestration.Orchestrator, transcriptionConfigured bool) {
	transcriptionFailureReported := false

	for {
		messageType, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) && !s.isClosed() {
				s.logger.Warn("session read failed", slog.String("error", err.Error()))
			}
			return
		}

		switch messageType {
		case websocket.BinaryMessage:
			s.metrics.frameRelayed(ctx)

			if !transcriptionConfigured {
				if !transcriptionFailureReported {
					transcriptionFailureReported = true
					s.send(protocol.NewErrorEvent(protocol.CategoryConfiguration,
						string(orchestration.CapabilityTranscription),
						orchestration.ErrNotConfigured.Error()))
				}
				continue
			}

			switch err := orch.SendAudio(data); {
			case err == nil:
			case errors.Is(err, orchestration.ErrSessionClosed):
				return
			default:
				if !transcriptionFailureReported {
					transcriptionFailureReported = true
					s.metrics.collaboratorError(ctx)
					s.send(protocol.NewErrorEvent(protocol.CategoryCollaboratorFailure,
						string(orchestration.CapabilityTranscription), err.Error()))
				}
			}

		case websocket.TextMessage:
			s.send(protocol.NewErrorEvent(protocol.CategoryProtocolViolation, "",
				"unexpected control message after handshake"))
		}
	}
}

// send queues an outbound event, blocking while the writer catches up. A
// closed session discards the event instead of blocking forever.
func (s *liveSession) send(message any) {
	select {
	case <-s.closed:
	case s.outbound <- message:
	}
}

// writeLoop is the sole writer on the connection. After shutdown it drains
// the events a finished turn already queued, then sends a close frame.
func (s *liveSession) writeLoop(done chan<- struct{}) {
	defer close(done)

	pingTicker := time.NewTicker(pingInterval)
	defer pingTicker.Stop()

	for {
		select {
		case <-s.closed:
			for {
				select {
				case message := <-s.outbound:
					if err := s.writeMessage(message); err != nil {
						return
					}
				default:
					_ = s.conn.WriteControl(websocket.CloseMessage,
						websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
						time.Now().Add(writeTimeout))
					return
				}
			}
		case <-pingTicker.C:
			if err := s.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout)); err != nil {
				s.shutdown()
				return
			}
		case message := <-s.outbound:
			if err := s.writeMessage(message); err != nil {
				s.shutdown()
				return
			}
		}
	}
}

func (s *liveSession) writeMessage(message any) error {
	_ = s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := s.conn.WriteJSON(message); err != nil {
		if !s.isClosed() {
			s.logger.Warn("failed to write session event", slog.String("error", err.Error()))
		}
		return err
	}
	return nil
}

func (s *liveSession) callbacks(ctx context.Context) []orchestration.OrchestrateOption {
	return []orchestration.OrchestrateOption{
		orchestration.WithStateChangedCallback(func(state orchestration.State) {
			s.logger.Debug("session state changed", slog.String("state", string(state)))
		}),
		orchestration.WithTranscriptionCallback(func(transcript string) {
			s.send(protocol.NewTranscript(transcript))
		}),
		orchestration.WithResponseEndCallback(func(text string) {
			s.metrics.turnCompleted(ctx)
			s.send(protocol.NewAIResponse(text))
		}),
		orchestration.WithAudioChunkCallback(func(index int, audio []byte, final bool) {
			s.metrics.chunkEmitted(ctx)
			s.send(protocol.NewAudioChunk(index, audio, final))
		}),
		orchestration.WithToolCallCallback(func(name, query string) {
			s.logger.Info("tool call started", slog.String("tool", name))
		}),
		orchestration.WithFailureCallback(func(category orchestration.ErrorCategory, capability orchestration.Capability, message string) {
			if category == orchestration.ErrorCategoryCollaborator {
				s.metrics.collaboratorError(ctx)
			}
			s.send(protocol.NewErrorEvent(protocol.Category(category), string(capability), message))
		}),
	}
}

// buildOrchestrator assembles the session orchestrator from the capability
// bundle. Collaborators without a credential are left unset so the
// orchestrator reports them as unconfigured when first needed.
func (s *liveSession) buildOrchestrator(bundle orchestration.CapabilityBundle, history []llms.Turn) (*orchestration.Orchestrator, error) {
	opts := []orchestration.OrchestratorOption{
		orchestration.WithCapabilities(bundle),
		orchestration.WithTools(buildToolRegistry(s.cfg, bundle)),
		orchestration.WithGenerationTimeout(s.cfg.Session.GenerationTimeout()),
		orchestration.WithToolTimeout(s.cfg.Session.ToolTimeout()),
		orchestration.WithTurnTimeout(s.cfg.Session.TurnTimeout()),
		orchestration.WithTurnQueueCapacity(s.cfg.Session.QueueCapacity),
	}
	if len(history) > 0 {
		opts = append(opts, orchestration.WithHistory(history...))
	}

	if bundle.Has(orchestration.CapabilityTranscription) {
		transcriber, err := s.collaborators.newTranscriber(
			s.cfg.Transcription.Vendor, bundle.Credential(orchestration.CapabilityTranscription))
		if err != nil {
			return nil, &orchestration.CapabilityError{
				Category:   orchestration.ErrorCategoryConfiguration,
				Capability: orchestration.CapabilityTranscription,
				Err:        err,
			}
		}
		opts = append(opts, orchestration.WithTranscriptionClient(transcriber))
	}

	if bundle.Has(orchestration.CapabilityGeneration) {
		opts = append(opts, orchestration.WithGenerationClient(s.collaborators.newGenerator(
			s.cfg.Generation.Model, bundle.Credential(orchestration.CapabilityGeneration))))
	}

	if bundle.Has(orchestration.CapabilitySynthesis) {
		synthesizer, err := s.collaborators.newSynthesizer(
			s.cfg.Synthesis, bundle.Credential(orchestration.CapabilitySynthesis))
		if err != nil {
			return nil, &orchestration.CapabilityError{
				Category:   orchestration.ErrorCategoryConfiguration,
				Capability: orchestration.CapabilitySynthesis,
				Err:        err,
			}
		}
		opts = append(opts, orchestration.WithSynthesisClient(synthesizer))
	}

	return orchestration.NewOrchestrator(opts...), nil
}

func (s *liveSession) loadArchivedTurns(ctx context.Context) ([]llms.Turn, error) {
	archiveCtx, cancel := context.WithTimeout(ctx, archiveTimeout)
	defer cancel()

	return s.archive.LoadTurns(archiveCtx, s.id)
}

func (s *liveSession) archiveTurns(turns []llms.Turn) error {
	archiveCtx, cancel := context.WithTimeout(context.Background(), archiveTimeout)
	defer cancel()

	return s.archive.SaveTurns(archiveCtx, s.id, turns)
}

// mergeCredentials overlays the client's handshake credentials on the
// server's fallbacks. The client wins per capability; empty client values
// leave the fallback in place.
func mergeCredentials(fallback, client map[string]string) map[string]string {
	merged := make(map[string]string, len(fallback)+len(client))
	for name, credential := range fallback {
		merged[name] = credential
	}
	for name, credential := range client {
		if credential == "" {
			continue
		}
		merged[name] = credential
	}
	return merged
}
