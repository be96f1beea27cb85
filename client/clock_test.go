package client

import (
	"testing"
	"time"
)

func TestScheduleStartsFirstChunkAfterPreRoll(t *testing.T) {
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := NewPlaybackClock(150 * time.Millisecond)
	clock.now = func() time.Time { return base }

	start := clock.Schedule(500 * time.Millisecond)

	if want := base.Add(150 * time.Millisecond); !start.Equal(want) {
		t.Fatalf("expected first chunk at %v, got %v", want, start)
	}
}

func TestScheduleLinesUpBackToBackChunks(t *testing.T) {
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := NewPlaybackClock(150 * time.Millisecond)
	clock.now = func() time.Time { return base }

	durations := []time.Duration{
		300 * time.Millisecond,
		450 * time.Millisecond,
		120 * time.Millisecond,
	}

	starts := make([]time.Time, len(durations))
	for i, duration := range durations {
		starts[i] = clock.Schedule(duration)
	}

	for i := 1; i < len(starts); i++ {
		want := starts[i-1].Add(durations[i-1])
		if !starts[i].Equal(want) {
			t.Fatalf("expected chunk %d to start at %v when chunk %d ends, got %v",
				i, want, i-1, starts[i])
		}
	}
}

func TestScheduleSnapsForwardAfterAGap(t *testing.T) {
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	current := base

	clock := NewPlaybackClock(150 * time.Millisecond)
	clock.now = func() time.Time { return current }

	first := clock.Schedule(100 * time.Millisecond)

	// The reply went quiet long enough for the clock to fall behind. The
	// next chunk must not be scheduled into the past.
	current = base.Add(2 * time.Second)
	second := clock.Schedule(100 * time.Millisecond)

	if want := current.Add(150 * time.Millisecond); !second.Equal(want) {
		t.Fatalf("expected chunk after gap at %v, got %v", want, second)
	}
	if second.Before(first) {
		t.Fatalf("expected clock to never move backward, got %v after %v", second, first)
	}
}

func TestScheduleKeepsAClockStillInTheFuture(t *testing.T) {
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	current := base

	clock := NewPlaybackClock(150 * time.Millisecond)
	clock.now = func() time.Time { return current }

	first := clock.Schedule(2 * time.Second)

	// The second chunk arrives while the first is still playing; it must
	// queue behind it rather than re-anchor to the wall clock.
	current = base.Add(500 * time.Millisecond)
	second := clock.Schedule(time.Second)

	if want := first.Add(2 * time.Second); !second.Equal(want) {
		t.Fatalf("expected queued chunk at %v, got %v", want, second)
	}
}
