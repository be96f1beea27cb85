package server

import (
	"context"

	"go.opentelemetry.io/otel/metric"
)

// sessionMetrics counts the server's session activity. All methods are safe
// on a nil receiver so sessions can run without metrics wired.
type sessionMetrics struct {
	activeSessions     metric.Int64UpDownCounter
	relayedFrames      metric.Int64Counter
	completedTurns     metric.Int64Counter
	emittedChunks      metric.Int64Counter
	collaboratorErrors metric.Int64Counter
}

func newSessionMetrics() (*sessionMetrics, error) {
	activeSessions, err := meter.Int64UpDownCounter("aura.sessions.active",
		metric.WithDescription("Live voice sessions"))
	if err != nil {
		return nil, err
	}
	relayedFrames, err := meter.Int64Counter("aura.frames.relayed",
		metric.WithDescription("Inbound audio frames relayed to transcription"))
	if err != nil {
		return nil, err
	}
	completedTurns, err := meter.Int64Counter("aura.turns.completed",
		metric.WithDescription("Turns that produced an assistant response"))
	if err != nil {
		return nil, err
	}
	emittedChunks, err := meter.Int64Counter("aura.chunks.emitted",
		metric.WithDescription("Synthesized audio chunks sent to clients"))
	if err != nil {
		return nil, err
	}
	collaboratorErrors, err := meter.Int64Counter("aura.collaborator.errors",
		metric.WithDescription("Collaborator failures reported to clients"))
	if err != nil {
		return nil, err
	}

	return &sessionMetrics{
		activeSessions:     activeSessions,
		relayedFrames:      relayedFrames,
		completedTurns:     completedTurns,
		emittedChunks:      emittedChunks,
		collaboratorErrors: collaboratorErrors,
	}, nil
}

func (m *sessionMetrics) sessionStarted(ctx context.Context) {
	if m == nil {
		return
	}
	m.activeSessions.Add(ctx, 1)
}

func (m *sessionMetrics) sessionEnded(ctx context.Context) {
	if m == nil {
		return
	}
	m.activeSessions.Add(ctx, -1)
}

func (m *sessionMetrics) frameRelayed(ctx context.Context) {
	if m == nil {
		return
	}
	m.relayedFrames.Add(ctx, 1)
}

func (m *sessionMetrics) turnCompleted(ctx context.Context) {
	if m == nil {
		return
	}
	m.completedTurns.Add(ctx, 1)
}

func (m *sessionMetrics) chunkEmitted(ctx context.Context) {
	if m == nil {
		return
	}
	m.emittedChunks.Add(ctx, 1)
}

func (m *sessionMetrics) collaboratorError(ctx context.Context) {
	if m == nil {
		return
	}
	m.collaboratorErrors.Add(ctx, 1)
}
