package deepgram

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// TranscriptionClient streams session audio to Deepgram's realtime listen
// endpoint. It is the drop-in alternative to the assemblyai client for
// deployments keyed to Deepgram.
type TranscriptionClient struct {
	apiKey string

	conn   *websocket.Conn
	connMu sync.Mutex

	lastMsgTs time.Time

	unendedSegment        bool
	accumulatedTranscript string
}

// NewTranscriptionClient creates a client authenticated with apiKey. When
// apiKey is empty the DEEPGRAM_API_KEY environment variable is consulted at
// connect time.
func NewTranscriptionClient(apiKey string) *TranscriptionClient {
	return &TranscriptionClient{apiKey: apiKey}
}
