package client

import (
	"log"
	"sync"
	"time"

	"github.com/auravoice/aura-core/core/audio"
)

const (
	playbackQueueSize = 32

	// Chunks reach the device slightly ahead of their scheduled slot so the
	// feed callback never starves between consecutive chunks.
	playbackFeedLead = 50 * time.Millisecond
)

// player schedules synthesized reply chunks onto the playback device. A
// single goroutine owns the device hand-off, so chunks play in arrival
// order; enqueueing from the read loop never touches the device.
type player struct {
	device   Device
	encoding audio.EncodingInfo
	clock    *PlaybackClock
	recorder *Recorder
	onError  func(err error)

	chunks chan []byte
	done   chan struct{}
	closed chan struct{}

	closeOnce sync.Once

	failureReported bool
}

func newPlayer(device Device, recorder *Recorder, onError func(err error)) *player {
	p := &player{
		device:   device,
		encoding: device.PlaybackEncodingInfo(),
		clock:    NewPlaybackClock(DefaultPreRoll),
		recorder: recorder,
		onError:  onError,
		chunks:   make(chan []byte, playbackQueueSize),
		done:     make(chan struct{}),
		closed:   make(chan struct{}),
	}
	go p.run()
	return p
}

// enqueue hands one undecoded chunk payload to the scheduling goroutine.
func (p *player) enqueue(data []byte) {
	select {
	case <-p.closed:
	case p.chunks <- data:
	}
}

// stop ends scheduling and waits for the goroutine to unwind. Chunks still
// queued are discarded.
func (p *player) stop() {
	p.closeOnce.Do(func() { close(p.closed) })
	<-p.done
}

func (p *player) run() {
	defer close(p.done)

	for {
		select {
		case <-p.closed:
			return
		case data := <-p.chunks:
			p.play(data)
		}
	}
}

func (p *player) play(data []byte) {
	pcm := audio.StripWAVHeader(data)
	if len(pcm) == 0 {
		return
	}

	start := p.clock.Schedule(p.encoding.Duration(len(pcm)))
	if wait := time.Until(start.Add(-playbackFeedLead)); wait > 0 {
		timer := time.NewTimer(wait)
		select {
		case <-p.closed:
			timer.Stop()
			return
		case <-timer.C:
		}
	}

	if err := p.device.SendAudio(pcm); err != nil {
		if !p.failureReported {
			p.failureReported = true
			p.onError(err)
		}
		return
	}

	if p.recorder != nil {
		if err := p.recorder.Write(pcm); err != nil {
			log.Println("Failed to append to recording", err)
		}
	}
}
