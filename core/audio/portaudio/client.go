package portaudio

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/auravoice/aura-core/core/audio"
	"github.com/gordonklaus/portaudio"
)

const defaultBufferSize = 512

// Client is the PortAudio device backend. It runs two half-duplex streams
// because capture and playback use different sample rates.
type Client struct {
	bufferSize int

	captureStream  *portaudio.Stream
	playbackStream *portaudio.Stream

	in  []int16
	out []int16

	audioMu       sync.Mutex
	leftoverAudio []byte

	stopCapture chan struct{}
	captureDone chan struct{}
}

func NewClient() (*Client, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize PortAudio: %w", err)
	}

	c := &Client{
		bufferSize: defaultBufferSize,
		in:         make([]int16, defaultBufferSize),
		out:        make([]int16, defaultBufferSize),
	}

	var err error
	c.captureStream, err = portaudio.OpenDefaultStream(
		1, 0, float64(audio.DefaultSampleRate), c.bufferSize, c.in)
	if err != nil {
		portaudio.Terminate()
		return nil, fmt.Errorf("failed to open capture stream: %w", err)
	}

	c.playbackStream, err = portaudio.OpenDefaultStream(
		0, 1, float64(audio.DefaultSynthesisRate), c.bufferSize, c.out)
	if err != nil {
		c.captureStream.Close()
		portaudio.Terminate()
		return nil, fmt.Errorf("failed to open playback stream: %w", err)
	}

	return c, nil
}

// StartCapture reads the default input device until ctx ends or StopCapture
// is called, handing each buffer to onFrame as little-endian 16-bit PCM.
func (c *Client) StartCapture(ctx context.Context, onFrame func(frame []byte)) error {
	if c.captureStream == nil {
		return fmt.Errorf("capture stream not initialized")
	}
	if c.stopCapture != nil {
		return nil
	}

	if err := c.captureStream.Start(); err != nil {
		return fmt.Errorf("failed to start capture stream: %w", err)
	}

	c.stopCapture = make(chan struct{})
	c.captureDone = make(chan struct{})

	go func() {
		defer close(c.captureDone)
		for {
			select {
			case <-ctx.Done():
				return
			case <-c.stopCapture:
				return
			default:
				if err := c.captureStream.Read(); err != nil {
					continue
				}

				frame := bytes.Buffer{}
				binary.Write(&frame, binary.LittleEndian, c.in)
				onFrame(frame.Bytes())
			}
		}
	}()

	return nil
}

func (c *Client) StopCapture() error {
	if c.stopCapture == nil {
		return nil
	}

	close(c.stopCapture)
	<-c.captureDone
	c.stopCapture = nil

	if err := c.captureStream.Stop(); err != nil {
		return fmt.Errorf("failed to stop capture stream: %w", err)
	}
	return nil
}

func (c *Client) StartPlayback(_ context.Context) error {
	if c.playbackStream == nil {
		return fmt.Errorf("playback stream not initialized")
	}

	if err := c.playbackStream.Start(); err != nil {
		return fmt.Errorf("failed to start playback stream: %w", err)
	}
	return nil
}

func (c *Client) StopPlayback() error {
	if c.playbackStream == nil {
		return fmt.Errorf("playback stream not initialized")
	}

	c.ClearBuffer()
	if err := c.playbackStream.Stop(); err != nil {
		return fmt.Errorf("failed to stop playback stream: %w", err)
	}
	return nil
}

// SendAudio writes synthesized audio to the output device in bufferSize
// chunks, carrying any remainder over to the next call.
func (c *Client) SendAudio(data []byte) error {
	if c.playbackStream == nil {
		return fmt.Errorf("playback stream not initialized")
	}

	c.audioMu.Lock()
	data = append(c.leftoverAudio, data...)
	c.leftoverAudio = nil
	c.audioMu.Unlock()

	chunkSize := c.bufferSize * 2
	for len(data) >= chunkSize {
		binary.Read(bytes.NewReader(data[:chunkSize]), binary.LittleEndian, c.out)
		if err := c.playbackStream.Write(); err != nil {
			return fmt.Errorf("failed to write to playback stream: %w", err)
		}
		data = data[chunkSize:]
	}

	c.audioMu.Lock()
	c.leftoverAudio = append(c.leftoverAudio, data...)
	c.audioMu.Unlock()

	return nil
}

func (c *Client) ClearBuffer() {
	c.audioMu.Lock()
	defer c.audioMu.Unlock()
	c.leftoverAudio = nil
}

// AwaitMark flushes the remaining partial buffer, padded with silence, and
// returns once it has been written to the device.
func (c *Client) AwaitMark() error {
	c.audioMu.Lock()
	data := c.leftoverAudio
	c.leftoverAudio = nil
	c.audioMu.Unlock()

	if len(data) == 0 {
		return nil
	}

	chunkSize := c.bufferSize * 2
	padded := make([]byte, chunkSize)
	copy(padded, data)

	binary.Read(bytes.NewReader(padded), binary.LittleEndian, c.out)
	if err := c.playbackStream.Write(); err != nil {
		return fmt.Errorf("failed to write to playback stream: %w", err)
	}
	return nil
}

func (c *Client) Close() {
	_ = c.StopCapture()
	if c.captureStream != nil {
		c.captureStream.Close()
	}
	if c.playbackStream != nil {
		c.playbackStream.Close()
	}
	portaudio.Terminate()
}

func (c *Client) CaptureEncodingInfo() audio.EncodingInfo {
	return audio.GetDefaultEncodingInfo()
}

func (c *Client) PlaybackEncodingInfo() audio.EncodingInfo {
	return audio.GetSynthesisEncodingInfo()
}
