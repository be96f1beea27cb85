package deepgram

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/auravoice/aura-core/core/texttospeech"
	"github.com/gorilla/websocket"
)

// TextToSpeechClient streams text to Deepgram's speak endpoint. It is the
// drop-in alternative to the murf client for deployments keyed to Deepgram;
// flushes stand in for per-turn context boundaries.
type TextToSpeechClient struct {
	apiKey string

	voice deepgramVoice

	wsConn *websocket.Conn
	mu     sync.Mutex

	options texttospeech.TextToSpeechOptions
}

type ClientOption func(*TextToSpeechClient)

func WithVoice(voice deepgramVoice) ClientOption {
	return func(c *TextToSpeechClient) { c.voice = voice }
}

// NewTextToSpeechClient creates a client authenticated with apiKey. When
// apiKey is empty the DEEPGRAM_API_KEY environment variable is consulted at
// connect time.
func NewTextToSpeechClient(apiKey string, opts ...ClientOption) (*TextToSpeechClient, error) {
	client := &TextToSpeechClient{
		apiKey: apiKey,
		voice:  defaultVoice,
	}

	for _, opt := range opts {
		opt(client)
	}

	if !slices.Contains(GetAvailableVoices(), client.voice) {
		return nil, fmt.Errorf("invalid voice")
	}

	return client, nil
}

func (c *TextToSpeechClient) Close(ctx context.Context) {
	_ = c.CloseStream(ctx)
}

func (c *TextToSpeechClient) SetVoice(voice deepgramVoice) error {
	if !slices.Contains(GetAvailableVoices(), voice) {
		return fmt.Errorf("invalid voice")
	}

	c.voice = voice
	return nil
}
