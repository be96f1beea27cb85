package client

import (
	"encoding/binary"
	"fmt"
	"os"
	"sync"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/auravoice/aura-core/core/audio"
)

// Recorder appends played reply audio to a WAV file.
type Recorder struct {
	mu      sync.Mutex
	file    *os.File
	encoder *wav.Encoder
	format  *goaudio.Format
}

// NewRecorder creates path and writes a WAV header matching the playback
// encoding. The caller owns Close; the header is only finalized there.
func NewRecorder(path string, encoding audio.EncodingInfo) (*Recorder, error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create recording file: %w", err)
	}

	return &Recorder{
		file:    file,
		encoder: wav.NewEncoder(file, encoding.SampleRate, 16, 1, 1),
		format:  &goaudio.Format{NumChannels: 1, SampleRate: encoding.SampleRate},
	}, nil
}

// Write appends one s16le chunk.
func (r *Recorder) Write(pcm []byte) error {
	if len(pcm)%2 != 0 {
		return fmt.Errorf("pcm chunk not sample aligned")
	}

	samples := make([]int, len(pcm)/2)
	for i := range samples {
		samples[i] = int(int16(binary.LittleEndian.Uint16(pcm[i*2:])))
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.encoder == nil {
		return nil
	}
	if err := r.encoder.Write(&goaudio.IntBuffer{Format: r.format, Data: samples}); err != nil {
		return fmt.Errorf("failed to append to recording: %w", err)
	}
	return nil
}

// Close finalizes the WAV header and closes the file. Writes after Close are
// dropped.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.encoder == nil {
		return nil
	}
	encoder := r.encoder
	r.encoder = nil

	if err := encoder.Close(); err != nil {
		r.file.Close()
		return fmt.Errorf("failed to finalize recording: %w", err)
	}
	if err := r.file.Close(); err != nil {
		return fmt.Errorf("failed to close recording file: %w", err)
	}
	return nil
}
