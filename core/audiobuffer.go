package orchestration

import (
	"sync"
)

// audioBuffer orders one turn's synthesized audio chunks and holds them back
// until the turn's response text has gone out, so chunks never overtake the
// response on the wire even though synthesis overlaps generation.
type audioBuffer struct {
	mu             sync.Mutex
	chunks         [][]byte
	chunksConsumed int
	released       bool
	done           bool
	cleared        bool
	updateSignal   chan struct{}
}

func newAudioBuffer() *audioBuffer {
	b := &audioBuffer{
		updateSignal: make(chan struct{}, 1),
	}
	return b
}

func (b *audioBuffer) AddChunk(audio []byte) {
	if len(audio) == 0 {
		return
	}

	b.mu.Lock()
	b.chunks = append(b.chunks, audio)
	b.mu.Unlock()
	b.signalUpdate()
}

// Release opens the gate: queued and future chunks become consumable.
func (b *audioBuffer) Release() {
	b.mu.Lock()
	b.released = true
	b.mu.Unlock()
	b.signalUpdate()
}

// Done marks that synthesis finished and no further chunks will arrive.
func (b *audioBuffer) Done() {
	b.mu.Lock()
	b.done = true
	b.mu.Unlock()
	b.signalUpdate()
}

// Chunks yields chunks in arrival order once the buffer is released,
// blocking for more until the buffer is drained after Done, or cleared.
func (b *audioBuffer) Chunks(yield func([]byte) bool) {
	for {
		b.mu.Lock()
		if b.cleared {
			b.mu.Unlock()
			return
		}

		if b.released && b.chunksConsumed < len(b.chunks) {
			chunk := b.chunks[b.chunksConsumed]
			b.chunksConsumed++
			b.mu.Unlock()
			if !yield(chunk) {
				return
			}
			continue
		}

		if b.released && b.done {
			b.mu.Unlock()
			return
		}

		b.mu.Unlock()
		<-b.updateSignal
	}
}

// Completed reports whether the buffer ran to completion rather than being
// cleared mid-turn.
func (b *audioBuffer) Completed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.done && !b.cleared
}

func (b *audioBuffer) Clear() {
	b.mu.Lock()
	b.cleared = true
	b.mu.Unlock()
	b.signalUpdate()
}

func (b *audioBuffer) signalUpdate() {
	select {
	case b.updateSignal <- struct{}{}:
	default:
	}
}
