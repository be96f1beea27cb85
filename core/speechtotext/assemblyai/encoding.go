package assemblyai

import (
	"fmt"

	"github.com/auravoice/aura-core/core/audio"
)

type encodingInfo struct {
	SampleRate int
	Format     encodingFormat
}

type encodingFormat string

func (e encodingFormat) Name() string { return string(e) }

const (
	encodingPCMS16LE encodingFormat = "pcm_s16le"
	encodingPCMMulaw encodingFormat = "pcm_mulaw"
)

func convertEncoding(encoding audio.EncodingInfo) (*encodingInfo, error) {
	assemblyaiEncoding := encodingInfo{}
	if encoding.SampleRate < 8000 || encoding.SampleRate > 48000 {
		return nil, fmt.Errorf("unsupported sample rate")
	}
	assemblyaiEncoding.SampleRate = encoding.SampleRate

	switch encoding.Format {
	case audio.EncodingLinear16:
		assemblyaiEncoding.Format = encodingPCMS16LE
	case audio.EncodingMulaw:
		assemblyaiEncoding.Format = encodingPCMMulaw
	default:
		return nil, fmt.Errorf("unsupported encoding")
	}

	return &assemblyaiEncoding, nil
}
