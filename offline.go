package lfogen

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/cbegin/lfogen/internal/engine"
	"github.com/cbegin/lfogen/internal/eventloop"
	"github.com/cbegin/lfogen/internal/sink"
)

// Cue is a control message delivered At a point in simulated time, measured
// from the start of rendering.
type Cue struct {
	At  time.Duration
	Msg Message
}

// RenderSamples starts a generator on simulated time and returns the samples
// emitted during its first n tick intervals. Cues are applied in time order; a cue due on the same
// instant as a tick is applied first.
func RenderSamples(cfg Config, n int, cues ...Cue) ([]float64, error) {
	sched := eventloop.NewManual(time.Unix(0, 0))
	out := make([]float64, 0, n)
	e, err := engine.New(cfg, sched, SinkFunc(func(m Message) {
		if v, ok := m.Payload().(float64); ok {
			out = append(out, v)
		}
	}))
	if err != nil {
		return nil, err
	}
	defer e.Close()

	cues = append([]Cue(nil), cues...)
	sort.SliceStable(cues, func(i, j int) bool { return cues[i].At < cues[j].At })

	e.Start(nil)
	end := time.Duration(n) * e.Snapshot().Interval
	var now time.Duration
	for _, c := range cues {
		if c.At > end {
			break
		}
		if c.At > now {
			// Stop just short of the cue so a tick on the same instant sees it.
			sched.Advance(c.At - now - 1)
			now = c.At - 1
		}
		e.Handle(c.Msg)
	}
	sched.Advance(end - now)
	return out, nil
}

// TickRate returns the number of samples per second cfg produces, rounded,
// which is the natural sample rate for a WAV capture.
func TickRate(cfg Config) (int, error) {
	e, err := engine.New(cfg, eventloop.NewManual(time.Unix(0, 0)), SinkFunc(func(Message) {}))
	if err != nil {
		return 0, err
	}
	iv := e.Snapshot().Interval
	rate := int((time.Second + iv/2) / iv)
	if rate < 1 {
		rate = 1
	}
	return rate, nil
}

// WriteWAV encodes samples as 16-bit mono PCM.
func WriteWAV(w io.WriteSeeker, samples []float64, sampleRate int) error {
	if err := sink.EncodeWAV(w, samples, sampleRate); err != nil {
		return fmt.Errorf("write wav: %w", err)
	}
	return nil
}
