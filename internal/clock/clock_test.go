package clock

import (
	"testing"
	"time"
)

type fixedSource struct{ now time.Time }

func (f *fixedSource) Now() time.Time { return f.now }

func TestStopwatchStartsAtZero(t *testing.T) {
	src := &fixedSource{now: time.Unix(100, 0)}
	sw := Start(src)
	if got := sw.Elapsed(); got != 0 {
		t.Fatalf("elapsed at start = %v, want 0", got)
	}
	src.now = src.now.Add(1500 * time.Millisecond)
	if got := sw.Seconds(); got != 1.5 {
		t.Fatalf("seconds = %v, want 1.5", got)
	}
}

func TestSystemIsMonotonic(t *testing.T) {
	sw := Start(System{})
	a := sw.Elapsed()
	b := sw.Elapsed()
	if a < 0 || b < a {
		t.Fatalf("elapsed went backwards: %v then %v", a, b)
	}
}
