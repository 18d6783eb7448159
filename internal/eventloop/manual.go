package eventloop

import "time"

// Manual is a Scheduler driven by simulated time. Nothing happens until
// Advance is called, and callbacks run synchronously inside Advance.
type Manual struct {
	now    time.Time
	nextID uint64
	timers []*manualTimer
}

type manualTimer struct {
	id        uint64
	every     time.Duration
	next      time.Time
	fn        func()
	cancelled bool
}

func NewManual(start time.Time) *Manual {
	return &Manual{now: start}
}

func (m *Manual) Now() time.Time { return m.now }

func (m *Manual) Every(d time.Duration, fn func()) func() {
	if d <= 0 {
		panic("eventloop: non-positive interval")
	}
	m.nextID++
	t := &manualTimer{id: m.nextID, every: d, next: m.now.Add(d), fn: fn}
	m.timers = append(m.timers, t)
	return func() { t.cancelled = true }
}

// Advance moves simulated time forward by d, firing every callback that
// falls due in order. It returns the number of callbacks fired.
func (m *Manual) Advance(d time.Duration) int {
	target := m.now.Add(d)
	fired := 0
	for {
		t := m.due(target)
		if t == nil {
			break
		}
		m.now = t.next
		t.next = t.next.Add(t.every)
		t.fn()
		fired++
	}
	m.now = target
	return fired
}

// Active returns the number of registered, uncancelled timers.
func (m *Manual) Active() int {
	n := 0
	for _, t := range m.timers {
		if !t.cancelled {
			n++
		}
	}
	return n
}

// due returns the earliest live timer due at or before target. Ties go to
// the timer registered first.
func (m *Manual) due(target time.Time) *manualTimer {
	live := m.timers[:0]
	for _, t := range m.timers {
		if !t.cancelled {
			live = append(live, t)
		}
	}
	m.timers = live

	var best *manualTimer
	for _, t := range m.timers {
		if t.next.After(target) {
			continue
		}
		if best == nil || t.next.Before(best.next) {
			best = t
		}
	}
	return best
}
