package deepgram

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"strconv"

	"github.com/auravoice/aura-core/core/audio"
	"github.com/auravoice/aura-core/core/texttospeech"
	"github.com/gorilla/websocket"
)

// OpenStream opens the persistent streaming connection. It must be called
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
	c.mu.Unlock()

	go c.readAndProcessMessages(ctx, conn, options)

	return nil
}

func (c *TextToSpeechClient) connectWebsocket(encodingInfo audio.EncodingInfo) (*websocket.Conn, error) {
	apiKey := c.apiKey
	if apiKey == "" {
		apiKey, _ = os.LookupEnv("DEEPGRAM_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("deepgram api key not found")
	}

	urlValues := url.Values{}
	urlValues.Set("encoding", encodingInfo.Format.Name())
	urlValues.Set("sample_rate", strconv.Itoa(encodingInfo.SampleRate))
	urlValues.Set("model", string(c.voice))
	urlValues.Set("container", "none")

	conn, _, err := websocket.DefaultDialer.Dial(
		(&url.URL{
			Scheme: "wss",
			Host:   "api.deepgram.com", Path: "/v1/speak",
			RawQuery: urlValues.Encode(),
		}).String(),
		http.Header{"Authorization": {"token " + apiKey}})
	if err != nil {
		return nil, fmt.Errorf("failed to open socket connection to deepgram: %w", err)
	}

	return conn, nil
}

// SendText queues a text unit for synthesis. Audio for successive units
// arrives in send order.
func (c *TextToSpeechClient) SendText(text string) error {
	if text == "" {
		return nil
	}

	if err := c.sendWebsocketMessage(speakMessage{Type: "Speak", Text: text}); err != nil {
		return fmt.Errorf("failed to send text to deepgram through websocket: %w", err)
	}
	return nil
}

// EndTurn flushes the synthesis buffer. The provider reports Flushed once
// all audio queued before the flush has been emitted, which marks the end of
// the turn's speech.
func (c *TextToSpeechClient) EndTurn() error {
	if err := c.sendWebsocketMessage(controlMessage{Type: "Flush"}); err != nil {
		return fmt.Errorf("failed to flush deepgram buffer through websocket: %w", err)
	}
	return nil
}

// ClearContext drops whatever synthesis is still queued.
func (c *TextToSpeechClient) ClearContext() error {
	if err := c.sendWebsocketMessage(controlMessage{Type: "Clear"}); err != nil {
		return fmt.Errorf("failed to clear deepgram buffer through websocket: %w", err)
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

	if err := c.wsConn.WriteJSON(controlMessage{Type: "Close"}); err != nil {
		log.Printf("Failed to send close message to deepgram websocket: %v", err)
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
		msgType, msg, err := conn.ReadMessage()
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

		switch msgType {
		case websocket.BinaryMessage:
			if len(msg) > 0 {
				options.SpeechAudioCallback(msg)
			}
		case websocket.TextMessage:
			var parsedMsg struct {
				Type string `json:"type"`
			}
			if err := json.Unmarshal(msg, &parsedMsg); err != nil {
				log.Printf("Failed to unmarshal deepgram message: %v", err)
				continue
			}

			switch parsedMsg.Type {
			case "Flushed":
				options.SpeechEndedCallback()
			case "Warning":
				var warningMsg struct {
					Description string `json:"description"`
				}
				if err := json.Unmarshal(msg, &warningMsg); err == nil && warningMsg.Description != "" {
					log.Printf("Deepgram warning: %s", warningMsg.Description)
				}
			}
		}
	}
}

type speakMessage struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type controlMessage struct {
	Type string `json:"type"`
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
