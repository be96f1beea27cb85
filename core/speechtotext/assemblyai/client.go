package assemblyai

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// TranscriptionClient streams raw session audio to AssemblyAI's v3 realtime
// endpoint and surfaces turn transcripts through the transcription
// callbacks. A single client holds a single streaming session.
type TranscriptionClient struct {
	apiKey string

	conn   *websocket.Conn
	connMu sync.Mutex

	lastMsgTs time.Time

	unendedTurn bool
}

// NewTranscriptionClient creates a client authenticated with apiKey. When
// apiKey is empty the ASSEMBLYAI_API_KEY environment variable is consulted
// at connect time.
func NewTranscriptionClient(apiKey string) *TranscriptionClient {
	return &TranscriptionClient{apiKey: apiKey}
}
