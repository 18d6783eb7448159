// Package clock provides the stopwatch the engine reads elapsed time from.
package clock

import "time"

// Source supplies the current time.
type Source interface {
	Now() time.Time
}

// System reads the wall clock. time.Now carries a monotonic reading, so
// differences between two System readings are monotonic.
type System struct{}

func (System) Now() time.Time { return time.Now() }

// Stopwatch measures time elapsed since it was started.
type Stopwatch struct {
	src   Source
	start time.Time
}

// Start returns a stopwatch reading zero at the current time of src.
func Start(src Source) *Stopwatch {
	return &Stopwatch{src: src, start: src.Now()}
}

func (s *Stopwatch) Elapsed() time.Duration {
	return s.src.Now().Sub(s.start)
}

// Seconds returns the elapsed time in fractional seconds.
func (s *Stopwatch) Seconds() float64 {
	return s.Elapsed().Seconds()
}
