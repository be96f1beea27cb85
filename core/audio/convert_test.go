package audio

import (
	"encoding/binary"
	"math"
	"testing"
)

func TestEncodePCM16SaturatesOutOfRangeSamples(t *testing.T) {
	data := EncodePCM16([]float32{2.5, -3.0})

	if got := int16(binary.LittleEndian.Uint16(data[0:])); got != math.MaxInt16 {
		t.Fatalf("expected positive overflow to clamp to %d, got %d", math.MaxInt16, got)
	}
	if got := int16(binary.LittleEndian.Uint16(data[2:])); got != math.MinInt16 {
		t.Fatalf("expected negative overflow to clamp to %d, got %d", math.MinInt16, got)
	}
}

func TestEncodeDecodeRoundTripWithinOneQuantizationStep(t *testing.T) {
	samples := []float32{0, 0.25, -0.25, 0.5, -0.5, 0.9999, -0.9999, 1, -1}

	decoded := DecodePCM16(EncodePCM16(samples))
	if len(decoded) != len(samples) {
		t.Fatalf("expected %d samples, got %d", len(samples), len(decoded))
	}

	step := 1.0 / 32767.0
	for i, want := range samples {
		if diff := math.Abs(float64(decoded[i]) - float64(want)); diff > step {
			t.Fatalf("sample %d: expected %v within %v, got %v (diff %v)", i, want, step, decoded[i], diff)
		}
	}
}

func TestStripWAVHeader(t *testing.T) {
	header := make([]byte, 44)
	copy(header[0:], "RIFF")
	copy(header[8:], "WAVE")
	pcm := []byte{0x01, 0x02, 0x03, 0x04}

	stripped := StripWAVHeader(append(header, pcm...))
	if len(stripped) != len(pcm) {
		t.Fatalf("expected %d bytes after strip, got %d", len(pcm), len(stripped))
	}
	for i := range pcm {
		if stripped[i] != pcm[i] {
			t.Fatalf("byte %d: expected %#x, got %#x", i, pcm[i], stripped[i])
		}
	}
}

func TestStripWAVHeaderLeavesRawPCMAlone(t *testing.T) {
	pcm := make([]byte, 128)
	for i := range pcm {
		pcm[i] = byte(i)
	}

	stripped := StripWAVHeader(pcm)
	if len(stripped) != len(pcm) {
		t.Fatalf("expected payload without magic to pass through, got %d of %d bytes", len(stripped), len(pcm))
	}
}

func TestDurationFromByteCount(t *testing.T) {
	encodingInfo := GetDefaultEncodingInfo()

	// 16kHz, 2 bytes per sample: 32000 bytes is one second.
	if got := encodingInfo.Duration(32000); got.Seconds() != 1 {
		t.Fatalf("expected 1s, got %v", got)
	}
	if got := encodingInfo.Duration(1600); got.Milliseconds() != 50 {
		t.Fatalf("expected 50ms, got %v", got)
	}
}
