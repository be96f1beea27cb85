// Package client implements the terminal side of a voice session: it dials
// the server, streams microphone frames up, and schedules synthesized reply
// audio onto a local playback device.
package client

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/auravoice/aura-core/protocol"
)

const (
	dialTimeout  = 10 * time.Second
	writeTimeout = 5 * time.Second
)

// Config describes one session.
type Config struct {
	// ServerURL is the server base URL. ws and wss are accepted directly;
	// http and https are rewritten to their websocket counterparts.
	ServerURL string

	// SessionID resumes a prior session when set. Empty lets the server
	// assign a fresh id.
	SessionID string

	// Credentials maps capability names to credentials for the handshake.
	// Values are secrets; never log them.
	Credentials map[string]string

	// RecordingPath appends all played reply audio to a WAV file when set.
	RecordingPath string
}

// Handlers receives session events. Every callback is optional. Callbacks
// run on the session's internal goroutines and must not block.
type Handlers struct {
	// OnTranscript receives each finalized user utterance.
	OnTranscript func(text string)

	// OnResponse receives the full assistant reply, once per turn.
	OnResponse func(text string)

	// OnAudio reports each reply chunk as it is queued for playback; final
	// marks the turn's last one.
	OnAudio func(index int, final bool)

	// OnInputLevel reports the peak level of each captured frame in [0, 1].
	OnInputLevel func(level float64)

	// OnError receives recoverable failures: error events from the server
	// and local resource failures, which never cross the wire.
	OnError func(category protocol.Category, capability, message string)

	// OnClosed fires exactly once when the session ends. err is nil on a
	// clean close.
	OnClosed func(err error)
}

// Session is one live voice session.
type Session struct {
	cfg      Config
	conn     *websocket.Conn
	device   Device
	player   *player
	recorder *Recorder
	handlers Handlers

	writeMu   sync.Mutex
	closeOnce sync.Once
	closed    chan struct{}
	readDone  chan struct{}
}

// Dial connects to the server, performs the config handshake and starts the
// capture and playback devices. The returned session runs until Close, a
// read failure, or ctx cancellation of a device stream.
func Dial(ctx context.Context, cfg Config, device Device, handlers Handlers) (*Session, error) {
	endpoint, err := sessionEndpoint(cfg)
	if err != nil {
		return nil, err
	}

	dialCtx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()

	conn, _, err := websocket.DefaultDialer.DialContext(dialCtx, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", endpoint, err)
	}

	s := &Session{
		cfg:      cfg,
		conn:     conn,
		device:   device,
		handlers: handlers,
		closed:   make(chan struct{}),
		readDone: make(chan struct{}),
	}

	// The config message must precede any audio frame, so it goes out
	// before capture starts.
	if err := s.writeJSON(protocol.NewConfig(cfg.Credentials)); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to send config handshake: %w", err)
	}

	if cfg.RecordingPath != "" {
		s.recorder, err = NewRecorder(cfg.RecordingPath, device.PlaybackEncodingInfo())
		if err != nil {
			conn.Close()
			return nil, err
		}
	}

	if err := device.StartPlayback(ctx); err != nil {
		if s.recorder != nil {
			s.recorder.Close()
		}
		conn.Close()
		return nil, fmt.Errorf("failed to start playback device: %w", err)
	}
	s.player = newPlayer(device, s.recorder, s.reportResource)

	go s.readLoop()

	if err := device.StartCapture(ctx, s.relayFrame); err != nil {
		// Manual teardown: claiming the once first keeps finish from
		// firing OnClosed for a session that never started.
		s.closeOnce.Do(func() { close(s.closed) })
		s.player.stop()
		device.StopPlayback()
		if s.recorder != nil {
			s.recorder.Close()
		}
		conn.Close()
		<-s.readDone
		return nil, fmt.Errorf("failed to start capture device: %w", err)
	}

	return s, nil
}

// Close ends the session cleanly. The server retains the session's history
// for its retention window, so a later Dial with the same session id
// resumes the conversation.
func (s *Session) Close() error {
	s.writeMu.Lock()
	s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	s.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	s.writeMu.Unlock()

	s.finish(nil)
	<-s.readDone
	return nil
}

func (s *Session) isClosed() bool {
	select {
	case <-s.closed:
		return true
	default:
		return false
	}
}

// finish tears the session down exactly once: capture first so no frame
// chases a dead connection, then the player, then the devices and sinks.
func (s *Session) finish(err error) {
	s.closeOnce.Do(func() {
		close(s.closed)

		if stopErr := s.device.StopCapture(); stopErr != nil {
			log.Println("Failed to stop capture device", stopErr)
		}
		s.player.stop()
		if stopErr := s.device.StopPlayback(); stopErr != nil {
			log.Println("Failed to stop playback device", stopErr)
		}
		if s.recorder != nil {
			if closeErr := s.recorder.Close(); closeErr != nil {
				log.Println("Failed to close recording", closeErr)
			}
		}
		s.conn.Close()

		if s.handlers.OnClosed != nil {
			s.handlers.OnClosed(err)
		}
	})
}

func (s *Session) readLoop() {
	defer close(s.readDone)

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			s.finish(closeError(err))
			return
		}

		event, err := protocol.DecodeServerEvent(data)
		if err != nil {
			log.Println("Dropping undecodable server event", err)
			continue
		}
		s.dispatch(event)
	}
}

func (s *Session) dispatch(event any) {
	switch event := event.(type) {
	case protocol.Transcript:
		if s.handlers.OnTranscript != nil {
			s.handlers.OnTranscript(event.Text)
		}
	case protocol.AIResponse:
		if s.handlers.OnResponse != nil {
			s.handlers.OnResponse(event.Text)
		}
	case protocol.AudioChunk:
		s.player.enqueue(event.Audio)
		if s.handlers.OnAudio != nil {
			s.handlers.OnAudio(event.Index, event.Final)
		}
	case protocol.ErrorEvent:
		if s.handlers.OnError != nil {
			s.handlers.OnError(event.Category, event.Capability, event.Message)
		}
	}
}

// reportResource surfaces a local device failure. Resource failures stay on
// the client; nothing is sent to the server.
func (s *Session) reportResource(err error) {
	if s.handlers.OnError != nil {
		s.handlers.OnError(protocol.CategoryResource, "", err.Error())
	}
}

func (s *Session) writeJSON(message any) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return s.conn.WriteJSON(message)
}

// closeError maps expected close codes to nil so OnClosed can distinguish a
// clean shutdown from a broken one.
func closeError(err error) error {
	if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		return nil
	}
	return err
}

func sessionEndpoint(cfg Config) (string, error) {
	base := strings.TrimSpace(cfg.ServerURL)
	if base == "" {
		return "", fmt.Errorf("server url is required")
	}

	parsed, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid server url %q: %w", base, err)
	}
	switch parsed.Scheme {
	case "ws", "wss":
	case "http":
		parsed.Scheme = "ws"
	case "https":
		parsed.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported server url scheme %q", parsed.Scheme)
	}

	parsed.Path = strings.TrimSuffix(parsed.Path, "/") + "/ws/voice"
	if cfg.SessionID != "" {
		query := parsed.Query()
		query.Set("session_id", cfg.SessionID)
		parsed.RawQuery = query.Encode()
	}
	return parsed.String(), nil
}
