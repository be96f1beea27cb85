package client

import (
	"context"
	"encoding/binary"
	"log"
	"time"

	"github.com/gorilla/websocket"

	"github.com/auravoice/aura-core/core/audio"
)

// Device is the local audio backend a session captures from and plays
// through. Both core/audio/miniaudio and core/audio/portaudio satisfy it.
type Device interface {
	StartCapture(ctx context.Context, onFrame func(frame []byte)) error
	StopCapture() error
	StartPlayback(ctx context.Context) error
	StopPlayback() error
	SendAudio(audio []byte) error
	PlaybackEncodingInfo() audio.EncodingInfo
}

// relayFrame runs on the device's capture callback and forwards one s16le
// frame to the server. Frames race the close handshake, so failures after
// close are dropped without noise.
func (s *Session) relayFrame(frame []byte) {
	if s.handlers.OnInputLevel != nil {
		s.handlers.OnInputLevel(peakLevel(frame))
	}

	if s.isClosed() {
		return
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := s.conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
		if !s.isClosed() {
			log.Println("Failed to relay audio frame", err)
		}
	}
}

// peakLevel reports the loudest sample of an s16le frame, normalized to
// [0, 1].
func peakLevel(frame []byte) float64 {
	peak := 0
	for i := 0; i+1 < len(frame); i += 2 {
		sample := int(int16(binary.LittleEndian.Uint16(frame[i:])))
		if sample < 0 {
			sample = -sample
		}
		if sample > peak {
			peak = sample
		}
	}
	return float64(peak) / 32768
}
