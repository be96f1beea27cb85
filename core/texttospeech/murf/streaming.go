package murf

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"os"
	"strconv"

	"github.com/auravoice/aura-core/core/audio"
	"github.com/auravoice/aura-core/core/texttospeech"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// OpenStream opens the persistent streaming connection and establishes the
// voice configuration and the shared synthesis context. It must be called
// once before any SendText.
func (c *TextToSpeechClient) OpenStream(ctx context.Context, opts ...texttospeech.TextToSpeechOption) error {
	options := texttospeech.TextToSpeechOptions{
		SpeechAudioCallback: func([]byte) {},
		SpeechEndedCallback: func() {},
		ErrorCallback:       func(error) {},
		EncodingInfo:        audio.GetSynthesisEncodingInfo(),
	}
	for _, opt := range opts {
		opt(&options)
	}
	c.options = options

	conn, err := c.connectWebsocket(options.EncodingInfo)
	if err != nil {
		return fmt.Errorf("failed to open websocket: %w", err)
	}

	c.mu.Lock()
	c.wsConn = conn
	c.contextID = uuid.NewString()
	c.mu.Unlock()

	if err := c.sendWebsocketMessage(voiceConfigMessage{
		VoiceConfig: voiceConfig{
			VoiceID: string(c.voice),
			Style:   c.style,
		},
	}); err != nil {
		return fmt.Errorf("failed to send voice config: %w", err)
	}

	go c.readAndProcessMessages(ctx, conn, options)

	return nil
}

func (c *TextToSpeechClient) connectWebsocket(encodingInfo audio.EncodingInfo) (*websocket.Conn, error) {
	apiKey := c.apiKey
	if apiKey == "" {
		apiKey, _ = os.LookupEnv("MURF_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("murf api key not found")
	}

	urlValues := url.Values{}
	urlValues.Set("api-key", apiKey)
	urlValues.Set("sample_rate", strconv.Itoa(encodingInfo.SampleRate))
	urlValues.Set("channel_type", "MONO")
	urlValues.Set("format", "WAV")

	conn, _, err := websocket.DefaultDialer.Dial(
		(&url.URL{
			Scheme: "wss",
			Host:   "api.murf.ai", Path: "/v1/speech/stream-input",
			RawQuery: urlValues.Encode(),
		}).String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open socket connection to murf: %w", err)
	}

	return conn, nil
}

// SendText queues a text unit for synthesis on the shared context. Audio for
// successive units arrives in send order.
func (c *TextToSpeechClient) SendText(text string) error {
	if text == "" {
		return nil
	}

	if err := c.sendWebsocketMessage(textMessage{
		Text:      text,
		ContextID: c.contextID,
	}); err != nil {
		return fmt.Errorf("failed to send text to murf through websocket: %w", err)
	}
	return nil
}

// EndTurn marks the current turn's text complete. The provider flushes the
// remaining audio for the turn and tags its last payload final; the context
// stays usable for the next turn.
func (c *TextToSpeechClient) EndTurn() error {
	if err := c.sendWebsocketMessage(textMessage{
		Text:      "",
		ContextID: c.contextID,
		End:       true,
	}); err != nil {
		return fmt.Errorf("failed to end turn through websocket: %w", err)
	}
	return nil
}

// ClearContext asks the provider to drop whatever synthesis is still queued
// on the shared context.
func (c *TextToSpeechClient) ClearContext() error {
	if err := c.sendWebsocketMessage(clearContextMessage{
		ContextID: c.contextID,
		Clear:     true,
	}); err != nil {
		return fmt.Errorf("failed to clear context through websocket: %w", err)
	}
	return nil
}

// CloseStream closes the streaming connection. Audio still being generated
// is abandoned.
func (c *TextToSpeechClient) CloseStream(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.wsConn == nil {
		return nil
	}

	if err := c.wsConn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")); err != nil {
		log.Printf("Failed to send close message to murf websocket: %v", err)
	}

	err := c.wsConn.Close()
	c.wsConn = nil
	if err != nil {
		return fmt.Errorf("failed to close websocket: %w", err)
	}

	return nil
}

func (c *TextToSpeechClient) readAndProcessMessages(_ context.Context, conn *websocket.Conn, options texttospeech.TextToSpeechOptions) {
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if err.Error() != "websocket: close 1000 (normal)" {
				log.Printf("Websocket read error: %v", err)
				options.ErrorCallback(fmt.Errorf("synthesis stream read failed: %w", err))
			}

			c.mu.Lock()
			c.wsConn = nil
			c.mu.Unlock()
			conn.Close()
			return
		}

		var parsedMsg struct {
			Audio        string `json:"audio"`
			Final        bool   `json:"final"`
			ErrorMessage string `json:"errorMessage"`
		}
		if err := json.Unmarshal(msg, &parsedMsg); err != nil {
			log.Printf("Failed to unmarshal murf message: %v", err)
			continue
		}

		if parsedMsg.ErrorMessage != "" {
			options.ErrorCallback(fmt.Errorf("murf reported: %s", parsedMsg.ErrorMessage))
			continue
		}

		if parsedMsg.Audio != "" {
			audioBytes, err := base64.StdEncoding.DecodeString(parsedMsg.Audio)
			if err != nil {
				log.Printf("Failed to decode murf audio payload: %v", err)
				continue
			}
			if len(audioBytes) > 0 {
				options.SpeechAudioCallback(audioBytes)
			}
		}

		if parsedMsg.Final {
			options.SpeechEndedCallback()
		}
	}
}

type voiceConfigMessage struct {
	VoiceConfig voiceConfig `json:"voice_config"`
}

type voiceConfig struct {
	VoiceID string `json:"voiceId"`
	Style   string `json:"style,omitempty"`
}

type textMessage struct {
	Text      string `json:"text"`
	ContextID string `json:"context_id,omitempty"`
	End       bool   `json:"end,omitempty"`
}

type clearContextMessage struct {
	ContextID string `json:"context_id"`
	Clear     bool   `json:"clear"`
}

func (c *TextToSpeechClient) sendWebsocketMessage(msg any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.wsConn == nil {
		return fmt.Errorf("websocket connection closed")
	}

	if err := c.wsConn.WriteJSON(msg); err != nil {
		return fmt.Errorf("failed to write to websocket: %w", err)
	}
	return nil
}
