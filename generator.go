// Package lfogen is a low-frequency oscillator that emits a stream of scaled
// waveform samples and can be reconfigured while it runs.
package lfogen

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/cbegin/lfogen/internal/config"
	"github.com/cbegin/lfogen/internal/engine"
	"github.com/cbegin/lfogen/internal/eventloop"
	"github.com/cbegin/lfogen/internal/resolve"
)

type (
	Config   = config.Config
	Message  = engine.Message
	Sink     = engine.Sink
	SinkFunc = engine.SinkFunc
	Snapshot = engine.Snapshot
)

const (
	PayloadKey = engine.PayloadKey
	TopicKey   = engine.TopicKey
)

// DefaultConfig returns a config where every parameter takes its built-in
// default: sine at 1, sampled every 20ms, offset 0, amplitude 1.
func DefaultConfig() Config { return config.Default() }

// LoadConfig reads static parameters from a TOML file.
func LoadConfig(path string) (Config, error) { return config.Load(path) }

type GeneratorOption func(*generatorConfig)

type generatorConfig struct {
	unit      time.Duration
	sampleTap func(float64)
}

func defaultGeneratorConfig() generatorConfig {
	return generatorConfig{unit: time.Millisecond}
}

// WithIntervalUnit sets the unit of the samplingrate parameter (default 1ms).
func WithIntervalUnit(unit time.Duration) GeneratorOption {
	return func(cfg *generatorConfig) {
		cfg.unit = unit
	}
}

// WithSampleTap installs a callback invoked with each sample value before it
// reaches the sink. It runs on the generator's loop; keep it brief.
func WithSampleTap(tap func(float64)) GeneratorOption {
	return func(cfg *generatorConfig) {
		cfg.sampleTap = tap
	}
}

// Generator owns one engine and the event loop it runs on. Its methods are
// safe for concurrent use: every call is queued onto the loop.
type Generator struct {
	loop      *eventloop.Loop
	engine    *engine.Engine
	cancel    context.CancelFunc
	closeOnce sync.Once
}

// NewGenerator builds an idle generator. Samples go to sink, which may be nil
// when only a sample tap is wanted.
func NewGenerator(cfg Config, sink Sink, opts ...GeneratorOption) (*Generator, error) {
	gc := defaultGeneratorConfig()
	for _, opt := range opts {
		opt(&gc)
	}
	if gc.unit <= 0 {
		return nil, errors.New("interval unit must be positive")
	}
	out := sink
	if out == nil {
		out = SinkFunc(func(Message) {})
	}
	if tap := gc.sampleTap; tap != nil {
		next := out
		out = SinkFunc(func(m Message) {
			if v, ok := resolve.Number(m.Payload()); ok {
				tap(v)
			}
			next.Emit(m)
		})
	}

	loop := eventloop.New()
	e, err := engine.New(cfg, loop, out, engine.WithIntervalUnit(gc.unit))
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithCancel(context.Background())
	go loop.Run(ctx)
	return &Generator{loop: loop, engine: e, cancel: cancel}, nil
}

// Send queues a control message. The message is copied, so the caller may
// reuse it.
func (g *Generator) Send(msg Message) error {
	m := msg.Clone()
	return g.loop.Post(func() { g.engine.Handle(m) })
}

// Start is shorthand for sending a "start" payload.
func (g *Generator) Start() error {
	return g.Send(Message{PayloadKey: "start"})
}

// Stop is shorthand for sending a "stop" payload.
func (g *Generator) Stop() error {
	return g.Send(Message{PayloadKey: "stop"})
}

// Snapshot returns the engine state once every previously sent message has
// been applied.
func (g *Generator) Snapshot(ctx context.Context) (Snapshot, error) {
	var s Snapshot
	err := g.loop.Call(ctx, func() { s = g.engine.Snapshot() })
	return s, err
}

// Close stops sampling, releases the timer and shuts the loop down. No sample
// is emitted after Close returns. It is safe to call more than once.
func (g *Generator) Close() error {
	var err error
	g.closeOnce.Do(func() {
		if cerr := g.loop.Call(context.Background(), g.engine.Close); cerr != nil && !errors.Is(cerr, eventloop.ErrClosed) {
			err = cerr
		}
		g.loop.Close()
		<-g.loop.Done()
		g.cancel()
	})
	return err
}
