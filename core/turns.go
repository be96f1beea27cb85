package orchestration

import (
	"slices"
	"sync"

	"github.com/auravoice/aura-core/core/llms"
	"github.com/jinzhu/copier"
)

// Turns holds a session's finalized conversation history in order.
type Turns struct {
	mu    sync.RWMutex
	turns []llms.Turn
}

// NewTurns creates a history preloaded with the given turns, for resumed
// sessions.
func NewTurns(turns ...llms.Turn) *Turns {
	t := &Turns{}
	t.turns = append(t.turns, turns...)
	return t
}

// Push appends a finalized turn.
func (t *Turns) Push(turn llms.Turn) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.turns = append(t.turns, turn)
}

func (t *Turns) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return len(t.turns)
}

// Snapshot returns a copy of the stored turns from earliest to latest.
func (t *Turns) Snapshot() []llms.Turn {
	t.mu.RLock()
	defer t.mu.RUnlock()

	turns := make([]llms.Turn, 0, len(t.turns))
	copier.Copy(&turns, t.turns)
	return turns
}

// Values is an iterator that goes over all the stored turns starting from the
// earliest towards the latest.
func (t *Turns) Values(yield func(llms.Turn) bool) {
	for _, turn := range t.Snapshot() {
		if !yield(turn) {
			return
		}
	}
}

// RValues is an iterator that goes over all the stored turns starting from
// the latest towards the earliest.
func (t *Turns) RValues(yield func(llms.Turn) bool) {
	for _, turn := range slices.Backward(t.Snapshot()) {
		if !yield(turn) {
			return
		}
	}
}
