// Package osc is the oscillator registry: a closed set of waveform shapes,
// each a pure function of elapsed time and frequency.
package osc

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

var ErrUnknownWaveform = errors.New("not a valid waveform")

// Waveform identifies one of the built-in shapes.
type Waveform int

const (
	Sine Waveform = iota
	Saw
	SawInverted
	Triangle
	Square
	Signal
)

var waveNames = [...]string{
	Sine:        "sine",
	Saw:         "saw",
	SawInverted: "saw_i",
	Triangle:    "triangle",
	Square:      "square",
	Signal:      "sig",
}

// Waveforms lists every valid waveform in declaration order.
func Waveforms() []Waveform {
	return []Waveform{Sine, Saw, SawInverted, Triangle, Square, Signal}
}

func (w Waveform) String() string {
	if w < 0 || int(w) >= len(waveNames) {
		return fmt.Sprintf("Waveform(%d)", int(w))
	}
	return waveNames[w]
}

// ParseWaveform maps a waveform name to its Waveform. Matching is exact on
// the short names; "saw_inverted" and "raw" are accepted as long forms.
func ParseWaveform(name string) (Waveform, error) {
	switch name {
	case "saw_inverted":
		return SawInverted, nil
	case "raw":
		return Signal, nil
	}
	for i, n := range waveNames {
		if n == name {
			return Waveform(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q (expected %s)", ErrUnknownWaveform, name, strings.Join(waveNames[:], "|"))
}

// Func returns the waveform value at t seconds for the given frequency.
// Values are conventionally in [-1, 1], except Signal.
type Func func(t, freq float64) float64

// Registry is a capability table from waveform to function.
type Registry map[Waveform]Func

// Default returns a registry holding every built-in waveform.
func Default() Registry {
	return Registry{
		Sine:        sine,
		Saw:         saw,
		SawInverted: sawInverted,
		Triangle:    triangle,
		Square:      square,
		Signal:      signal,
	}
}

// Lookup returns the function registered for w.
func (r Registry) Lookup(w Waveform) (Func, bool) {
	fn, ok := r[w]
	return fn, ok && fn != nil
}

// phase returns the position within the current cycle, in [0, 1).
func phase(t, freq float64) float64 {
	p := t * freq
	return p - math.Floor(p)
}

func sine(t, freq float64) float64 {
	return math.Sin(2 * math.Pi * freq * t)
}

// saw ramps up from -1 to 1.
func saw(t, freq float64) float64 {
	return 2*phase(t, freq) - 1
}

// sawInverted ramps down from 1 to -1.
func sawInverted(t, freq float64) float64 {
	return 1 - 2*phase(t, freq)
}

func triangle(t, freq float64) float64 {
	p := phase(t, freq)
	if p < 0.5 {
		return 4*p - 1
	}
	return 3 - 4*p
}

func square(t, freq float64) float64 {
	if phase(t, freq) < 0.5 {
		return 1
	}
	return -1
}

// signal passes the frequency control through unchanged, so the output is a
// scaled copy of the last frequency value.
func signal(_, freq float64) float64 {
	return freq
}
