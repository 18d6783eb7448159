// Package scale maps raw oscillator output onto the user's output range.
//
// The range can be described two ways, as an offset and amplitude or as a
// min and max. Both reduce to the same affine pair (offset_, amplitude_)
// applied to every sample.
package scale

import (
	"errors"
	"fmt"
	"strings"

	"github.com/cbegin/lfogen/internal/resolve"
)

var ErrUnknownMode = errors.New("unknown range mode")

// Mode selects which side of the range parameters is authoritative.
type Mode int

const (
	OffsetAmplitude Mode = iota
	MinMax
)

func (m Mode) String() string {
	if m == MinMax {
		return "minmax"
	}
	return "offsetamplitude"
}

// ParseMode accepts "offsetamplitude" or "minmax", case-insensitively. A blank
// name means OffsetAmplitude.
func ParseMode(name string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "offsetamplitude":
		return OffsetAmplitude, nil
	case "minmax":
		return MinMax, nil
	default:
		return OffsetAmplitude, fmt.Errorf("%w: %q", ErrUnknownMode, name)
	}
}

// Range is one parameterization of the output transform.
type Range interface {
	Mode() Mode
	// Canonical returns the affine pair applied as offset + amplitude*x.
	Canonical() (offset, amplitude float64)
}

type OffsetAmplitudeRange struct {
	Offset    float64
	Amplitude float64
}

func (OffsetAmplitudeRange) Mode() Mode { return OffsetAmplitude }

func (r OffsetAmplitudeRange) Canonical() (float64, float64) {
	return r.Offset, r.Amplitude
}

// MinMaxRange places the waveform between Min and Max. Min > Max is legal and
// yields a negative amplitude.
type MinMaxRange struct {
	Min float64
	Max float64
}

func (MinMaxRange) Mode() Mode { return MinMax }

func (r MinMaxRange) Canonical() (float64, float64) {
	offset := (r.Min + r.Max) / 2
	return offset, r.Max - offset
}

// Field names one of the four raw range parameters.
type Field string

const (
	FieldOffset    Field = "offset"
	FieldAmplitude Field = "amplitude"
	FieldMin       Field = "min"
	FieldMax       Field = "max"
)

// Mode returns the range mode that writing f switches to.
func (f Field) Mode() Mode {
	if f == FieldMin || f == FieldMax {
		return MinMax
	}
	return OffsetAmplitude
}

// Defaults holds the statically configured values. Any of them may be absent
// (nil), blank or non-numeric, in which case the built-in default applies.
type Defaults struct {
	Offset    any
	Amplitude any
	Min       any
	Max       any
}

const (
	builtinOffset    = 0.0
	builtinAmplitude = 1.0
	builtinMin       = -1.0
	builtinMax       = 1.0
)

// Model holds the four raw range fields, which side is authoritative, and the
// canonical pair derived from it. The canonical pair is recomputed on every
// change so it is always current when a sample is scaled.
type Model struct {
	mode     Mode
	defaults Defaults

	offset    float64
	amplitude float64
	min       float64
	max       float64

	canonOffset    float64
	canonAmplitude float64
}

// NewModel seeds the raw fields from defaults and computes the canonical pair.
func NewModel(mode Mode, defaults Defaults) (*Model, error) {
	m := &Model{mode: mode, defaults: defaults}
	var err error
	if m.offset, err = resolve.FirstNumeric(defaults.Offset, builtinOffset); err != nil {
		return nil, fmt.Errorf("offset: %w", err)
	}
	if m.amplitude, err = resolve.FirstNumeric(defaults.Amplitude, builtinAmplitude); err != nil {
		return nil, fmt.Errorf("amplitude: %w", err)
	}
	if m.min, err = resolve.FirstNumeric(defaults.Min, builtinMin); err != nil {
		return nil, fmt.Errorf("min: %w", err)
	}
	if m.max, err = resolve.FirstNumeric(defaults.Max, builtinMax); err != nil {
		return nil, fmt.Errorf("max: %w", err)
	}
	if err := m.Recompute(); err != nil {
		return nil, err
	}
	return m, nil
}

// Set writes candidate into field, falling back to the field's current value
// when candidate is blank or not numeric. Writing a field switches the mode
// to that field's side and recomputes the canonical pair.
func (m *Model) Set(field Field, candidate any) error {
	var dst *float64
	switch field {
	case FieldOffset:
		dst = &m.offset
	case FieldAmplitude:
		dst = &m.amplitude
	case FieldMin:
		dst = &m.min
	case FieldMax:
		dst = &m.max
	default:
		return fmt.Errorf("unknown range field %q", field)
	}
	v, err := resolve.Resolve(candidate, *dst)
	if err != nil {
		return fmt.Errorf("%s: %w", field, err)
	}
	*dst = v
	m.mode = field.Mode()
	return m.Recompute()
}

// Recompute derives the canonical pair from the authoritative side. Each raw
// field resolves through current value, static default, built-in default.
func (m *Model) Recompute() error {
	var r Range
	switch m.mode {
	case MinMax:
		lo, err := resolve.FirstNumeric(m.min, m.defaults.Min, builtinMin)
		if err != nil {
			return fmt.Errorf("min: %w", err)
		}
		hi, err := resolve.FirstNumeric(m.max, m.defaults.Max, builtinMax)
		if err != nil {
			return fmt.Errorf("max: %w", err)
		}
		m.min, m.max = lo, hi
		r = MinMaxRange{Min: lo, Max: hi}
	default:
		off, err := resolve.FirstNumeric(m.offset, m.defaults.Offset, builtinOffset)
		if err != nil {
			return fmt.Errorf("offset: %w", err)
		}
		amp, err := resolve.FirstNumeric(m.amplitude, m.defaults.Amplitude, builtinAmplitude)
		if err != nil {
			return fmt.Errorf("amplitude: %w", err)
		}
		r = OffsetAmplitudeRange{Offset: off, Amplitude: amp}
	}
	m.canonOffset, m.canonAmplitude = r.Canonical()
	return nil
}

// Apply scales a raw oscillator value.
func (m *Model) Apply(x float64) float64 {
	return m.canonOffset + m.canonAmplitude*x
}

func (m *Model) Mode() Mode { return m.mode }

// Canonical returns the current (offset_, amplitude_) pair.
func (m *Model) Canonical() (offset, amplitude float64) {
	return m.canonOffset, m.canonAmplitude
}

// Range returns the authoritative parameterization.
func (m *Model) Range() Range {
	if m.mode == MinMax {
		return MinMaxRange{Min: m.min, Max: m.max}
	}
	return OffsetAmplitudeRange{Offset: m.offset, Amplitude: m.amplitude}
}

// Fields returns the raw values of all four fields, including the ones on the
// side that is currently not authoritative.
func (m *Model) Fields() (offset, amplitude, min, max float64) {
	return m.offset, m.amplitude, m.min, m.max
}
