package audio

import (
	"encoding/base64"
	"encoding/binary"
	"fmt"

	"github.com/snappy-loop/muse/internal/models"
)

// TTS output is raw PCM at a fixed rate (audio/L16;rate=24000).
const (
	SampleRate = 24000
	Channels   = 1
)

// SampleBuffer holds decoded mono PCM samples normalized to [-1, 1].
// Immutable after construction.
type SampleBuffer struct {
	SampleRate int
	Channels   int
	Samples    []float64
}

// Duration returns the playback length in seconds.
func (b *SampleBuffer) Duration() float64 {
	return float64(len(b.Samples)) / float64(b.SampleRate)
}

// Decode decodes a base64-encoded little-endian signed 16-bit PCM stream
// into a SampleBuffer. Sample i corresponds to bytes 2i and 2i+1; each
// sample is normalized by 32768. Empty input or an odd byte length cannot
// form whole samples and fails.
func Decode(encoded string) (*SampleBuffer, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("base64 decode: %v: %w", err, models.ErrDecode)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("empty payload: %w", models.ErrDecode)
	}
	if len(raw)%2 != 0 {
		return nil, fmt.Errorf("odd byte length %d: %w", len(raw), models.ErrDecode)
	}

	samples := make([]float64, len(raw)/2)
	for i := range samples {
		v := int16(binary.LittleEndian.Uint16(raw[2*i:]))
		samples[i] = float64(v) / 32768.0
	}

	return &SampleBuffer{
		SampleRate: SampleRate,
		Channels:   Channels,
		Samples:    samples,
	}, nil
}
