package assemblyai

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/auravoice/aura-core/core/audio"
	"github.com/auravoice/aura-core/core/speechtotext"
	"github.com/gorilla/websocket"
)

const (
	messageTypeBegin       = "Begin"
	messageTypeTurn        = "Turn"
	messageTypeTermination = "Termination"

	messageTypeTerminate     = "Terminate"
	messageTypeForceEndpoint = "ForceEndpoint"
)

func (s *TranscriptionClient) Transcribe(ctx context.Context, opts ...speechtotext.TranscriptionOption) error {
	options := &speechtotext.TranscriptionOptions{EncodingInfo: audio.GetDefaultEncodingInfo()}
	for _, opt := range opts {
		opt(options)
	}

	encoding, err := convertEncoding(options.EncodingInfo)
	if err != nil {
		return fmt.Errorf("invalid encoding: %w", err)
	}

	callbacks, wsConfig := newCallbackConfig(*options)

	conn, err := s.connectWebsocket(connectionOptions{
		sampleRate: encoding.SampleRate,
		encoding:   encoding.Format.Name(),

		formatTurns: wsConfig.shouldFormatTurns,
	})
	if err != nil {
		return fmt.Errorf("failed to open websocket: %w", err)
	}

	s.conn = conn
	go s.readAndProcessMessages(ctx, conn, callbacks, wsConfig, options.EncodingInfo)

	return nil
}

type connectionOptions struct {
	sampleRate int
	encoding   string

	formatTurns bool
}

func (s *TranscriptionClient) connectWebsocket(options connectionOptions) (*websocket.Conn, error) {
	apiKey := s.apiKey
	if apiKey == "" {
		apiKey, _ = os.LookupEnv("ASSEMBLYAI_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("assemblyai api key not found")
	}

	streamURL, _ := url.Parse("wss://streaming.assemblyai.com/v3/ws")
	queryParams := streamURL.Query()
	queryParams.Set("sample_rate", strconv.Itoa(options.sampleRate))
	queryParams.Set("encoding", options.encoding)
	if options.formatTurns {
		queryParams.Set("format_turns", "true")
	}

	streamURL.RawQuery = queryParams.Encode()
	conn, _, err := websocket.DefaultDialer.Dial(streamURL.String(),
		http.Header{"Authorization": {apiKey}})
	if err != nil {
		return nil, fmt.Errorf("failed to open socket connection to assemblyai: %w", err)
	}

	return conn, err
}

type transcriptionCallbacks struct {
	partialTranscriptionCallback func(transcript string)
	transcriptionCallback        func(transcript string)
	startSpeechCallback          func()
	endSpeechCallback            func()
}

type websocketConfig struct {
	shouldFormatTurns bool
}

func newCallbackConfig(options speechtotext.TranscriptionOptions) (transcriptionCallbacks, websocketConfig) {
	callbacks := transcriptionCallbacks{
		partialTranscriptionCallback: func(string) {},
		transcriptionCallback:        func(string) {},
		startSpeechCallback:          func() {},
		endSpeechCallback:            func() {},
	}
	wsConfig := websocketConfig{}

	if options.PartialTranscriptionCallback != nil {
		callbacks.partialTranscriptionCallback = options.PartialTranscriptionCallback
	}
	if options.TranscriptionCallback != nil {
		callbacks.transcriptionCallback = options.TranscriptionCallback
		wsConfig.shouldFormatTurns = true
	}
	if options.SpeechStartedCallback != nil {
		callbacks.startSpeechCallback = options.SpeechStartedCallback
	}
	if options.SpeechEndedCallback != nil {
		callbacks.endSpeechCallback = options.SpeechEndedCallback
	}

	return callbacks, wsConfig
}

func (s *TranscriptionClient) SendAudio(audio []byte) error {
	s.connMu.Lock()
	defer s.connMu.Unlock()

	s.lastMsgTs = time.Now()
	if err := s.conn.WriteMessage(websocket.BinaryMessage, audio); err != nil {
		return fmt.Errorf("failed to write to assemblyai client: %w", err)
	}
	return nil
}

func (s *TranscriptionClient) sendSilence(audio []byte) error {
	s.connMu.Lock()
	defer s.connMu.Unlock()

	if s.conn == nil {
		return nil
	}
	if err := s.conn.WriteMessage(websocket.BinaryMessage, audio); err != nil {
		return fmt.Errorf("failed to write to assemblyai client: %w", err)
	}
	return nil
}

// StopStream forces the current turn to end without terminating the session,
// flushing whatever transcript has accumulated.
func (s *TranscriptionClient) StopStream() error {
	s.connMu.Lock()
	defer s.connMu.Unlock()

	if s.conn != nil {
		if err := s.conn.WriteJSON(struct {
			Type string `json:"type"`
		}{Type: messageTypeForceEndpoint}); err != nil {
			return fmt.Errorf("failed to force endpoint through websocket: %w", err)
		}
	}
	return nil
}

// Close requests session termination. The provider answers with a
// Termination message and closes the websocket from its side, which unwinds
// the read loop.
func (s *TranscriptionClient) Close() error {
	s.connMu.Lock()
	defer s.connMu.Unlock()

	if s.conn == nil {
		return nil
	}
	if err := s.conn.WriteJSON(struct {
		Type string `json:"type"`
	}{Type: messageTypeTerminate}); err != nil {
		return fmt.Errorf("failed to request session termination: %w", err)
	}
	return nil
}

func (s *TranscriptionClient) readAndProcessMessages(ctx context.Context, conn *websocket.Conn, callbacks transcriptionCallbacks, wsConfig websocketConfig, encodingInfo audio.EncodingInfo) {
	silenceCtx, silenceCancel := context.WithCancel(ctx)
	defer silenceCancel()

	go s.generateSilence(silenceCtx, encodingInfo)

	for {
		msgType, msg, err := conn.ReadMessage()
		if err != nil {
			if err.Error() != "websocket: close 1000 (normal)" {
				log.Println("Failed to read assemblyai websocket message", "error", err)
			}

			s.connMu.Lock()
			s.conn = nil
			s.connMu.Unlock()
			conn.Close()
			return
		}
		if msgType != websocket.BinaryMessage {
			s.processMessage(ctx, msg, callbacks, wsConfig)
		}
	}
}

func (s *TranscriptionClient) processMessage(_ context.Context, msg []byte, callbacks transcriptionCallbacks, wsConfig websocketConfig) {
	var parsedMsg struct {
		Type string `json:"type"`
	}
	err := json.Unmarshal(msg, &parsedMsg)
	if err != nil {
		log.Println("Failed to unmarshal assemblyai message", "error", err)
		return
	}

	switch parsedMsg.Type {
	case messageTypeBegin:
		var beginMsg struct {
			ID        string  `json:"id"`
			ExpiresAt float64 `json:"expires_at"`
		}
		if err := json.Unmarshal(msg, &beginMsg); err != nil {
			log.Println("Failed to unmarshal assemblyai message", err)
			return
		}
		log.Println("Assemblyai streaming session began", "id", beginMsg.ID)

	case messageTypeTurn:
		var turnMsg turnMessage
		if err := json.Unmarshal(msg, &turnMsg); err != nil {
			log.Println("Failed to unmarshal assemblyai message", err)
			return
		}
		s.processTurn(turnMsg, callbacks, wsConfig)

	case messageTypeTermination:
		var terminationMsg struct {
			AudioDurationSeconds   float64 `json:"audio_duration_seconds"`
			SessionDurationSeconds float64 `json:"session_duration_seconds"`
		}
		if err := json.Unmarshal(msg, &terminationMsg); err != nil {
			log.Println("Failed to unmarshal assemblyai message", err)
			return
		}
		log.Println("Assemblyai streaming session terminated after",
			terminationMsg.AudioDurationSeconds, "seconds of audio")
	}
}

type turnMessage struct {
	TurnOrder           int     `json:"turn_order"`
	Transcript          string  `json:"transcript"`
	EndOfTurn           bool    `json:"end_of_turn"`
	TurnIsFormatted     bool    `json:"turn_is_formatted"`
	EndOfTurnConfidence float64 `json:"end_of_turn_confidence"`
}

func (s *TranscriptionClient) processTurn(turn turnMessage, callbacks transcriptionCallbacks, wsConfig websocketConfig) {
	transcript := strings.TrimSpace(turn.Transcript)

	if !turn.EndOfTurn {
		if len(transcript) == 0 {
			return
		}
		if !s.unendedTurn {
			s.unendedTurn = true
			callbacks.startSpeechCallback()
		}
		callbacks.partialTranscriptionCallback(transcript)
		return
	}

	// With formatting on, the end-of-turn transcript arrives twice: raw
	// first, formatted shortly after. Speech has ended at the first one; the
	// transcript is only final at the formatted one.
	if s.unendedTurn {
		s.unendedTurn = false
		callbacks.endSpeechCallback()
	}
	if wsConfig.shouldFormatTurns && !turn.TurnIsFormatted {
		return
	}
	if len(transcript) > 0 {
		callbacks.transcriptionCallback(transcript)
	}
}

func (s *TranscriptionClient) generateSilence(ctx context.Context, encoding audio.EncodingInfo) {
	// The session idles out without audio, and there is no keep-alive
	// message, so silence fills the gaps between real frames.
	const durationMs = 50
	ticker := time.NewTicker(durationMs * time.Millisecond)
	defer ticker.Stop()

	chunk := audio.Silence(durationMs, encoding)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if time.Since(s.lastMsgTs).Milliseconds() <= durationMs {
				continue
			}
			if err := s.sendSilence(chunk); err != nil {
				log.Println("Sending silence audio error", err)
			}
		}
	}
}
