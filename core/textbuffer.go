package orchestration

import (
	"sync"
)

// TODO: Optimize memory at some point, it is not a great idea to just append
// to a slice when we already consumed a part of it. But it needs to be synced
// properly, probably a ring buffer makes sense.

// textBuffer queues completed response units between generation and
// synthesis for one turn.
type textBuffer struct {
	mu            sync.Mutex
	units         []string
	unitsConsumed int
	complete      bool
	updateSignal  chan struct{}
	cleared       bool
}

func newTextBuffer() *textBuffer {
	b := &textBuffer{
		updateSignal: make(chan struct{}, 1),
	}
	return b
}

func (b *textBuffer) AddUnit(unit string) {
	if unit == "" {
		return
	}

	b.mu.Lock()
	b.units = append(b.units, unit)
	b.mu.Unlock()
	b.signalUpdate()
}

// Complete marks that no further units will be added.
func (b *textBuffer) Complete() {
	b.mu.Lock()
	b.complete = true
	b.mu.Unlock()
	b.signalUpdate()
}

// Units yields queued units in order, blocking for more until the buffer is
// completed or cleared.
func (b *textBuffer) Units(yield func(string) bool) {
	for {
		b.mu.Lock()
		if b.cleared {
			b.mu.Unlock()
			return
		}

		if b.unitsConsumed < len(b.units) {
			unit := b.units[b.unitsConsumed]
			b.unitsConsumed++
			b.mu.Unlock()
			if !yield(unit) {
				return
			}
			continue
		}

		if b.complete {
			b.mu.Unlock()
			return
		}

		b.mu.Unlock()
		<-b.updateSignal
	}
}

func (b *textBuffer) Clear() {
	b.mu.Lock()
	b.cleared = true
	b.mu.Unlock()
	b.signalUpdate()
}

func (b *textBuffer) signalUpdate() {
	select {
	case b.updateSignal <- struct{}{}:
	default:
	}
}
