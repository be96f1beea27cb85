package client

import (
	"sync"
	"time"
)

// DefaultPreRoll is the headroom the first chunk of a reply gets before its
// playback slot, so decoding and device hand-off finish ahead of it.
const DefaultPreRoll = 150 * time.Millisecond

// PlaybackClock tracks where the playback timeline ends. Scheduling a chunk
// claims the current clock value as the chunk's start and advances the clock
// by exactly the chunk's duration, so consecutive chunks of one reply line
// up with no gap and no overlap. The clock never moves backward.
type PlaybackClock struct {
	mu      sync.Mutex
	next    time.Time
	preRoll time.Duration
	now     func() time.Time
}

// NewPlaybackClock creates a clock with the given pre-roll. Non-positive
// values fall back to DefaultPreRoll.
func NewPlaybackClock(preRoll time.Duration) *PlaybackClock {
	if preRoll <= 0 {
		preRoll = DefaultPreRoll
	}
	return &PlaybackClock{preRoll: preRoll, now: time.Now}
}

// Schedule claims a start time for a chunk of the given duration. A clock
// still in the future is kept; one that has fallen behind the wall clock,
// including the zero clock before the first chunk, snaps forward to now
// plus the pre-roll.
func (c *PlaybackClock) Schedule(duration time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if c.next.Before(now) {
		c.next = now.Add(c.preRoll)
	}

	start := c.next
	c.next = c.next.Add(duration)
	return start
}
