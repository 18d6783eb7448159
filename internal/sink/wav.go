package sink

import (
	"fmt"
	"io"
	"math"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/cbegin/lfogen/internal/engine"
	"github.com/cbegin/lfogen/internal/resolve"
)

const wavBitDepth = 16

// WAV records sample payloads in memory for export as a mono WAV file. The
// file's sample rate is the generator's tick rate.
type WAV struct {
	sampleRate int
	samples    []float64
}

func NewWAV(sampleRate int) *WAV {
	return &WAV{sampleRate: sampleRate}
}

func (r *WAV) Emit(m engine.Message) {
	if v, ok := resolve.Number(m.Payload()); ok {
		r.samples = append(r.samples, v)
	}
}

func (r *WAV) Len() int { return len(r.samples) }

// WriteTo encodes everything recorded so far.
func (r *WAV) WriteTo(w io.WriteSeeker) error {
	return EncodeWAV(w, r.samples, r.sampleRate)
}

// EncodeWAV writes samples as 16-bit mono PCM. Signals that exceed [-1, 1]
// are scaled down by their peak so the shape survives.
func EncodeWAV(w io.WriteSeeker, samples []float64, sampleRate int) error {
	if sampleRate <= 0 {
		return fmt.Errorf("wav: sample rate must be positive, got %d", sampleRate)
	}
	peak := 1.0
	for _, s := range samples {
		if a := math.Abs(s); a > peak {
			peak = a
		}
	}
	maxInt := float64(int(1)<<(wavBitDepth-1) - 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: sampleRate},
		SourceBitDepth: wavBitDepth,
		Data:           make([]int, len(samples)),
	}
	for i, s := range samples {
		buf.Data[i] = int(math.Round(s / peak * maxInt))
	}

	enc := wav.NewEncoder(w, sampleRate, wavBitDepth, 1, 1)
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("wav: encode: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("wav: close: %w", err)
	}
	return nil
}
