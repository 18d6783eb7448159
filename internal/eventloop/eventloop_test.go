package eventloop

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestManualFiresInOrder(t *testing.T) {
	m := NewManual(time.Unix(0, 0))
	var got []string
	m.Every(20*time.Millisecond, func() { got = append(got, "a") })
	m.Every(30*time.Millisecond, func() { got = append(got, "b") })

	if n := m.Advance(60 * time.Millisecond); n != 5 {
		t.Fatalf("fired %d callbacks, want 5", n)
	}
	want := []string{"a", "b", "a", "a", "b"}
	if len(got) != len(want) {
		t.Fatalf("order = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
	if !m.Now().Equal(time.Unix(0, 0).Add(60 * time.Millisecond)) {
		t.Fatalf("now = %v, want start+60ms", m.Now())
	}
}

func TestManualCancelInsideCallback(t *testing.T) {
	m := NewManual(time.Unix(0, 0))
	count := 0
	var cancel func()
	cancel = m.Every(10*time.Millisecond, func() {
		count++
		if count == 2 {
			cancel()
		}
	})
	m.Advance(100 * time.Millisecond)
	if count != 2 {
		t.Fatalf("count = %d, want 2", count)
	}
	if m.Active() != 0 {
		t.Fatalf("active timers = %d, want 0", m.Active())
	}
}

func TestManualNowDuringCallback(t *testing.T) {
	start := time.Unix(0, 0)
	m := NewManual(start)
	var seen []time.Duration
	m.Every(25*time.Millisecond, func() { seen = append(seen, m.Now().Sub(start)) })
	m.Advance(75 * time.Millisecond)
	want := []time.Duration{25 * time.Millisecond, 50 * time.Millisecond, 75 * time.Millisecond}
	if len(seen) != len(want) {
		t.Fatalf("seen = %v, want %v", seen, want)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Fatalf("seen = %v, want %v", seen, want)
		}
	}
}

func TestLoopRunsTimerOnLoop(t *testing.T) {
	l := New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go l.Run(ctx)

	var ticks atomic.Int32
	var stop func()
	if err := l.Call(ctx, func() {
		stop = l.Every(time.Millisecond, func() { ticks.Add(1) })
	}); err != nil {
		t.Fatalf("call: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for ticks.Load() < 3 {
		if time.Now().After(deadline) {
			t.Fatalf("only %d ticks before deadline", ticks.Load())
		}
		time.Sleep(time.Millisecond)
	}

	if err := l.Call(ctx, stop); err != nil {
		t.Fatalf("call: %v", err)
	}
	after := ticks.Load()
	time.Sleep(20 * time.Millisecond)
	// Flush anything already queued; cancelled ticks must not run.
	if err := l.Call(ctx, func() {}); err != nil {
		t.Fatalf("call: %v", err)
	}
	if got := ticks.Load(); got != after {
		t.Fatalf("ticks after cancel = %d, want %d", got, after)
	}
}

func TestLoopClose(t *testing.T) {
	l := New()
	go l.Run(context.Background())
	l.Close()
	<-l.Done()
	if err := l.Post(func() {}); !errors.Is(err, ErrClosed) {
		t.Fatalf("post after close: err = %v, want ErrClosed", err)
	}
}
