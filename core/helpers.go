package orchestration

import (
	"context"
)

// withContextCancelHook runs onContextDone if ctx ends before the returned
// channel is closed. Workers use it to unblock their buffer iterators when
// a turn is cancelled.
func withContextCancelHook(ctx context.Context, onContextDone func()) chan struct{} {
	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			onContextDone()
		case <-done:
		}
	}()
	return done
}
