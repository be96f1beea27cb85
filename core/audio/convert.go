package audio

import "encoding/binary"

const wavHeaderSize = 44

// EncodePCM16 converts normalized float samples into little-endian signed
// 16-bit PCM. Samples are clamped to [-1, 1] before scaling so out-of-range
// input saturates instead of wrapping.
func EncodePCM16(samples []float32) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		if s > 1 {
			s = 1
		} else if s < -1 {
			s = -1
		}

		var v int16
		if s < 0 {
			v = int16(s * 32768)
		} else {
			v = int16(s * 32767)
		}
		binary.LittleEndian.PutUint16(out[i*2:], uint16(v))
	}
	return out
}

// DecodePCM16 converts little-endian signed 16-bit PCM back into normalized
// float samples. A trailing odd byte is ignored.
func DecodePCM16(data []byte) []float32 {
	out := make([]float32, len(data)/2)
	for i := range out {
		v := int16(binary.LittleEndian.Uint16(data[i*2:]))
		if v < 0 {
			out[i] = float32(v) / 32768
		} else {
			out[i] = float32(v) / 32767
		}
	}
	return out
}

// StripWAVHeader drops the canonical 44-byte RIFF/WAVE header when the
// payload carries one. Synthesis providers prefix the first payload of each
// generation with it; the samples that follow are raw PCM.
func StripWAVHeader(data []byte) []byte {
	if len(data) < wavHeaderSize {
		return data
	}
	if string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return data
	}
	return data[wavHeaderSize:]
}

// Silence returns a buffer of silent audio covering ms milliseconds at the
// passed encoding.
func Silence(ms int, encodingInfo EncodingInfo) []byte {
	n := encodingInfo.BytesPerSecond() * ms / 1000
	if n <= 0 {
		return nil
	}
	buf := make([]byte, n)
	if v := encodingInfo.SilenceValue(); v != 0 {
		for i := range buf {
			buf[i] = v
		}
	}
	return buf
}
