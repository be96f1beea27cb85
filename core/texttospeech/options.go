package texttospeech

import "github.com/auravoice/aura-core/core/audio"

type TextToSpeechOptions struct {
	// SpeechAudioCallback is called for every audio payload the synthesis
	// stream produces, in generation order. Payloads are raw provider bytes;
	// the first payload of a turn may carry a container header that the
	// receiving end strips.
	SpeechAudioCallback func(audio []byte)
	// SpeechEndedCallback is called when the synthesis stream reports the
	// current turn's speech fully generated. It fires once per turn; the
	// stream stays open for the next turn.
	SpeechEndedCallback func()
	// ErrorCallback is called when the synthesis stream fails, which usually
	// means the stream is no longer usable.
	ErrorCallback func(error)

	EncodingInfo audio.EncodingInfo
}

type TextToSpeechOption func(*TextToSpeechOptions)

func WithSpeechAudioCallback(callback func([]byte)) TextToSpeechOption {
	return func(o *TextToSpeechOptions) {
		o.SpeechAudioCallback = callback
	}
}

func WithSpeechEndedCallback(callback func()) TextToSpeechOption {
	return func(o *TextToSpeechOptions) {
		o.SpeechEndedCallback = callback
	}
}

func WithErrorCallback(callback func(error)) TextToSpeechOption {
	return func(o *TextToSpeechOptions) { o.ErrorCallback = callback }
}

func WithEncodingInfo(encodingInfo audio.EncodingInfo) TextToSpeechOption {
	return func(o *TextToSpeechOptions) {
		if encodingInfo.IsZero() {
			return
		}

		o.EncodingInfo = encodingInfo
	}
}

// SpeechStreamer is a persistent synthesis stream. Text units sent between
// turn boundaries are synthesized in order on one provider-side context;
// EndTurn closes the current turn's generation without tearing the stream
// down, so successive turns reuse the same context.
type SpeechStreamer interface {
	// SendText queues a text unit for synthesis. Audio for successive units
	// arrives in send order.
	//
	// SendText errors if the stream has not been opened or has been closed.
	SendText(text string) error
	// EndTurn marks the current turn's text complete. The provider flushes
	// the remaining audio and tags the turn's last payload as final.
	//
	// EndTurn errors if the stream has not been opened or has been closed.
	EndTurn() error
}
