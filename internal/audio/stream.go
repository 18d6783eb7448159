// Package audio makes an LFO audible: a Monitor turns the latest sample
// value into the pitch of a tone, and Player streams that tone through the
// ebiten audio context.
package audio

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"sync"
	"sync/atomic"

	ebitaudio "github.com/hajimehoshi/ebiten/v2/audio"

	"github.com/cbegin/lfogen/internal/engine"
	"github.com/cbegin/lfogen/internal/resolve"
)

// SampleSource fills interleaved stereo float32 frames.
type SampleSource interface {
	Process(dst []float32)
}

// Monitor is a sine tone whose pitch follows the most recent LFO sample:
// base * 2^(depth * value). It is both an engine sink (called on the engine's
// loop) and a SampleSource (called on the audio thread).
type Monitor struct {
	sampleRate float64
	base       float64
	depth      float64
	gain       float64

	value atomic.Uint64 // float64 bits
	phase float64       // audio thread only
}

// NewMonitor returns a monitor at base Hz that moves depth octaves per unit
// of LFO output.
func NewMonitor(sampleRate int, base, depth float64) *Monitor {
	return &Monitor{
		sampleRate: float64(sampleRate),
		base:       base,
		depth:      depth,
		gain:       0.2,
	}
}

func (m *Monitor) Emit(msg engine.Message) {
	if v, ok := resolve.Number(msg.Payload()); ok {
		m.Set(v)
	}
}

// Set stores the value controlling the pitch.
func (m *Monitor) Set(v float64) {
	m.value.Store(math.Float64bits(v))
}

func (m *Monitor) Value() float64 {
	return math.Float64frombits(m.value.Load())
}

// Frequency returns the current tone frequency in Hz.
func (m *Monitor) Frequency() float64 {
	return m.base * math.Exp2(m.depth*m.Value())
}

func (m *Monitor) Process(dst []float32) {
	inc := m.Frequency() / m.sampleRate
	for i := 0; i+1 < len(dst); i += 2 {
		s := float32(m.gain * math.Sin(2*math.Pi*m.phase))
		dst[i], dst[i+1] = s, s
		m.phase += inc
		m.phase -= math.Floor(m.phase)
	}
}

// StreamReader adapts a SampleSource to the little-endian float32 byte
// stream ebiten expects.
type StreamReader struct {
	mu     sync.Mutex
	source SampleSource
	buf    []float32
}

func NewStreamReader(source SampleSource) *StreamReader {
	return &StreamReader{source: source}
}

func (r *StreamReader) Read(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	frames := len(p) / 8
	if frames == 0 {
		return 0, nil
	}
	need := frames * 2
	if cap(r.buf) < need {
		r.buf = make([]float32, need)
	}
	r.buf = r.buf[:need]
	r.source.Process(r.buf)
	for i, v := range r.buf {
		binary.LittleEndian.PutUint32(p[i*4:], math.Float32bits(v))
	}
	return frames * 8, nil
}

func (r *StreamReader) Close() error { return nil }

type Player struct {
	player *ebitaudio.Player
	reader io.ReadCloser
}

var (
	audioContextOnce sync.Once
	audioContext     *ebitaudio.Context
	audioSampleRate  int
)

func sharedAudioContext(sampleRate int) (*ebitaudio.Context, error) {
	audioContextOnce.Do(func() {
		audioSampleRate = sampleRate
		audioContext = ebitaudio.NewContext(sampleRate)
	})
	if audioSampleRate != sampleRate {
		return nil, fmt.Errorf("audio context already initialized at %d Hz (requested %d Hz)", audioSampleRate, sampleRate)
	}
	return audioContext, nil
}

// NewPlayer opens an output stream for source. Call Play to start it.
func NewPlayer(sampleRate int, source SampleSource) (*Player, error) {
	ctx, err := sharedAudioContext(sampleRate)
	if err != nil {
		return nil, err
	}
	reader := NewStreamReader(source)
	pl, err := ctx.NewPlayerF32(reader)
	if err != nil {
		return nil, err
	}
	return &Player{player: pl, reader: reader}, nil
}

func (p *Player) Play() { p.player.Play() }

func (p *Player) Stop() error {
	p.player.Pause()
	if err := p.player.Close(); err != nil {
		return err
	}
	return p.reader.Close()
}
