package murf

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/auravoice/aura-core/core/texttospeech"
	"github.com/gorilla/websocket"
)

// TextToSpeechClient streams text to Murf's stream-input endpoint over one
// persistent websocket and hands synthesized audio back through callbacks.
// All turns of a session share a single provider-side context, which avoids
// the provider's concurrent-context limits.
type TextToSpeechClient struct {
	apiKey string

	voice murfVoice
	style string

	wsConn *websocket.Conn
	mu     sync.Mutex

	contextID string

	options texttospeech.TextToSpeechOptions
}

type ClientOption func(*TextToSpeechClient)

func WithVoice(voice murfVoice) ClientOption {
	return func(c *TextToSpeechClient) { c.voice = voice }
}

func WithStyle(style string) ClientOption {
	return func(c *TextToSpeechClient) { c.style = style }
}

// NewTextToSpeechClient creates a client authenticated with apiKey. When
// apiKey is empty the MURF_API_KEY environment variable is consulted at
// connect time.
func NewTextToSpeechClient(apiKey string, opts ...ClientOption) (*TextToSpeechClient, error) {
	client := &TextToSpeechClient{
		apiKey: apiKey,
		voice:  defaultVoice,
		style:  defaultStyle,
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

func (c *TextToSpeechClient) SetVoice(voice murfVoice) error {
	if !slices.Contains(GetAvailableVoices(), voice) {
		return fmt.Errorf("invalid voice")
	}

	c.voice = voice
	return nil
}
