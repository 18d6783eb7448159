// Package engine implements the LFO state machine: it owns the generator's
// parameters, applies control messages to them, and while running emits one
// scaled oscillator sample per tick.
//
// An Engine is not safe for concurrent use. All calls, including the tick
// callbacks it registers, must happen on its Scheduler's control flow.
package engine

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	log "github.com/golang/glog"

	"github.com/cbegin/lfogen/internal/clock"
	"github.com/cbegin/lfogen/internal/config"
	"github.com/cbegin/lfogen/internal/eventloop"
	"github.com/cbegin/lfogen/internal/osc"
	"github.com/cbegin/lfogen/internal/resolve"
	"github.com/cbegin/lfogen/internal/scale"
)

var ErrInvalidInterval = errors.New("sampling interval must be a positive integer")

const (
	defaultWaveform  = "sine"
	defaultFrequency = 1.0
	defaultInterval  = 20

	cmdStart = "start"
	cmdStop  = "stop"
)

type Option func(*Engine)

// WithRegistry replaces the built-in oscillator registry.
func WithRegistry(r osc.Registry) Option {
	return func(e *Engine) {
		e.registry = r
	}
}

// WithIntervalUnit sets the unit of the samplingrate parameter. The default
// is one millisecond.
func WithIntervalUnit(unit time.Duration) Option {
	return func(e *Engine) {
		e.unit = unit
	}
}

type Engine struct {
	name     string
	cfg      config.Config
	sched    eventloop.Scheduler
	sink     Sink
	registry osc.Registry
	unit     time.Duration

	waveform  osc.Waveform
	oscFn     osc.Func
	hasWave   bool
	frequency float64
	interval  time.Duration
	scale     *scale.Model

	// set only while running
	cancel   func()
	watch    *clock.Stopwatch
	envelope Message

	closed bool
}

// New builds an idle engine from static parameters. It fails only when a
// parameter cannot be resolved to a usable value at all.
func New(cfg config.Config, sched eventloop.Scheduler, sink Sink, opts ...Option) (*Engine, error) {
	e := &Engine{
		name:     cfg.Name,
		cfg:      cfg,
		sched:    sched,
		sink:     sink,
		registry: osc.Default(),
		unit:     time.Millisecond,
	}
	for _, opt := range opts {
		opt(e)
	}

	var err error
	if e.frequency, err = resolve.FirstNumeric(cfg.Frequency, defaultFrequency); err != nil {
		return nil, fmt.Errorf("frequency: %w", err)
	}

	steps, err := resolve.FirstNumeric(cfg.SamplingRate, defaultInterval)
	if err != nil {
		return nil, fmt.Errorf("samplingrate: %w", err)
	}
	if e.unit <= 0 {
		return nil, fmt.Errorf("%w: non-positive unit %v", ErrInvalidInterval, e.unit)
	}
	if steps <= 0 || steps != math.Trunc(steps) || math.IsInf(steps, 0) ||
		steps >= float64(math.MaxInt64/int64(e.unit)) {
		return nil, fmt.Errorf("%w: got %v", ErrInvalidInterval, steps)
	}
	e.interval = time.Duration(steps) * e.unit
	if e.interval <= 0 {
		return nil, fmt.Errorf("%w: got %v", ErrInvalidInterval, steps)
	}

	mode, err := scale.ParseMode(cfg.Range)
	if err != nil {
		log.Warningf("lfo %q: %v, using %v", e.name, err, mode)
	}
	e.scale, err = scale.NewModel(mode, scale.Defaults{
		Offset:    cfg.Offset,
		Amplitude: cfg.Amplitude,
		Min:       cfg.Min,
		Max:       cfg.Max,
	})
	if err != nil {
		return nil, fmt.Errorf("range: %w", err)
	}

	wave := cfg.Waveform
	if wave == "" {
		wave = defaultWaveform
	}
	if err := e.SetWaveform(wave); err != nil {
		// Left without an oscillator; ticks warn and skip until a valid
		// waveform arrives.
		log.Warningf("lfo %q: %v", e.name, err)
	}
	return e, nil
}

// Handle applies one control message. A numeric payload without a topic is a
// frequency update. A "start" or "stop" payload toggles sampling whatever the
// topic says. Unknown topics are ignored.
func (e *Engine) Handle(msg Message) {
	payload := msg.Payload()
	if cmd, ok := payload.(string); ok && (cmd == cmdStart || cmd == cmdStop) {
		if cmd == cmdStart {
			e.Start(msg)
		} else {
			e.Stop()
		}
		return
	}

	topic, ok := msg.Topic()
	if !ok {
		if !resolve.IsNumeric(payload) {
			return
		}
		topic = "frequency"
	}
	switch t := strings.ToLower(strings.TrimSpace(topic)); t {
	case "frequency":
		f, err := resolve.Resolve(payload, e.frequency)
		if err != nil {
			log.Warningf("lfo %q: frequency: %v", e.name, err)
			return
		}
		e.frequency = f
	case "waveform":
		if err := e.SetWaveform(payload); err != nil {
			log.Warningf("lfo %q: %v", e.name, err)
		}
	case "offset", "amplitude", "min", "max":
		if err := e.scale.Set(scale.Field(t), payload); err != nil {
			log.Warningf("lfo %q: %v", e.name, err)
		}
	default:
		log.V(2).Infof("lfo %q: ignoring topic %q", e.name, topic)
	}
}

// SetWaveform selects a waveform by name. On failure the previous waveform
// stays active.
func (e *Engine) SetWaveform(name any) error {
	s, ok := name.(string)
	if !ok {
		return fmt.Errorf("%w: %v", osc.ErrUnknownWaveform, name)
	}
	w, err := osc.ParseWaveform(s)
	if err != nil {
		return err
	}
	fn, ok := e.registry.Lookup(w)
	if !ok {
		return fmt.Errorf("no oscillator function defined for %v", w)
	}
	e.waveform, e.oscFn, e.hasWave = w, fn, true
	return nil
}

// Start begins sampling. Every emitted sample is a copy of envelope with its
// payload replaced. Starting a running or closed engine does nothing.
func (e *Engine) Start(envelope Message) {
	if e.cancel != nil || e.closed {
		return
	}
	if envelope == nil {
		envelope = Message{}
	}
	e.envelope = envelope.Clone()
	e.watch = clock.Start(e.sched)
	e.cancel = e.sched.Every(e.interval, e.tick)
	log.V(1).Infof("lfo %q: started, sampling every %v", e.name, e.interval)
}

// Stop cancels sampling. No tick fires after Stop returns. Stopping an idle
// engine does nothing.
func (e *Engine) Stop() {
	if e.cancel == nil {
		return
	}
	e.cancel()
	e.cancel = nil
	e.watch = nil
	e.envelope = nil
	log.V(1).Infof("lfo %q: stopped", e.name)
}

// Close stops sampling for good. Later start requests are ignored.
func (e *Engine) Close() {
	e.Stop()
	e.closed = true
}

func (e *Engine) Running() bool {
	return e.cancel != nil
}

func (e *Engine) tick() {
	if e.oscFn == nil {
		log.Warningf("lfo %q: no oscillator", e.name)
		return
	}
	v := e.scale.Apply(e.oscFn(e.watch.Seconds(), e.frequency))
	out := e.envelope.Clone()
	out[PayloadKey] = v
	e.sink.Emit(out)
}

// Snapshot is a read-only view of an engine's state.
type Snapshot struct {
	Name               string
	Waveform           string
	Frequency          float64
	Interval           time.Duration
	Range              scale.Mode
	Scale              scale.Range
	Offset             float64
	Amplitude          float64
	Min                float64
	Max                float64
	CanonicalOffset    float64
	CanonicalAmplitude float64
	Running            bool
	Elapsed            time.Duration
	Declared           []string
}

func (e *Engine) Snapshot() Snapshot {
	s := Snapshot{
		Name:      e.name,
		Frequency: e.frequency,
		Interval:  e.interval,
		Range:     e.scale.Mode(),
		Scale:     e.scale.Range(),
		Running:   e.Running(),
		Declared:  e.cfg.DeclaredKeys(),
	}
	if e.hasWave {
		s.Waveform = e.waveform.String()
	}
	s.Offset, s.Amplitude, s.Min, s.Max = e.scale.Fields()
	s.CanonicalOffset, s.CanonicalAmplitude = e.scale.Canonical()
	if e.watch != nil {
		s.Elapsed = e.watch.Elapsed()
	}
	return s
}
