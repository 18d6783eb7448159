// Package eventloop runs callbacks one at a time on a single control flow.
//
// The engine never locks its state. Instead every control message and every
// timer tick is funnelled through a Scheduler, which guarantees callbacks
// never overlap.
package eventloop

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/cbegin/lfogen/internal/clock"
)

// ErrClosed is returned when work is posted to a loop that has stopped.
var ErrClosed = errors.New("event loop closed")

// Scheduler registers recurring callbacks. Every must be called from the
// scheduler's own control flow, and fn is always invoked on it.
type Scheduler interface {
	clock.Source
	// Every invokes fn every d until cancel is called. After cancel returns
	// fn is never invoked again, even for ticks that were already due.
	Every(d time.Duration, fn func()) (cancel func())
}

// Loop is a Scheduler backed by a goroutine draining a queue of funcs.
// Tickers run on their own goroutines but only ever post into the queue.
type Loop struct {
	queue   chan func()
	quit    chan struct{}
	stopped chan struct{}
	once    sync.Once

	// owned by the Run goroutine
	nextID uint64
	timers map[uint64]*loopTimer
}

type loopTimer struct {
	fn     func()
	ticker *time.Ticker
	stop   chan struct{}
}

func New() *Loop {
	return &Loop{
		queue:   make(chan func(), 64),
		quit:    make(chan struct{}),
		stopped: make(chan struct{}),
		timers:  make(map[uint64]*loopTimer),
	}
}

// Run drains the queue until ctx is done or Close is called. All registered
// timers are cancelled before Run returns.
func (l *Loop) Run(ctx context.Context) error {
	defer close(l.stopped)
	defer l.cancelAll()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.quit:
			return nil
		case fn := <-l.queue:
			fn()
		}
	}
}

// Close makes Run return. Queued work that has not started is dropped.
func (l *Loop) Close() {
	l.once.Do(func() { close(l.quit) })
}

// Done is closed once Run has returned.
func (l *Loop) Done() <-chan struct{} {
	return l.stopped
}

// Post queues fn. It returns ErrClosed if the loop has stopped.
func (l *Loop) Post(fn func()) error {
	select {
	case <-l.quit:
		return ErrClosed
	case <-l.stopped:
		return ErrClosed
	default:
	}
	select {
	case l.queue <- fn:
		return nil
	case <-l.quit:
		return ErrClosed
	case <-l.stopped:
		return ErrClosed
	}
}

// Call runs fn on the loop and waits for it to finish.
func (l *Loop) Call(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	if err := l.Post(func() {
		defer close(done)
		fn()
	}); err != nil {
		return err
	}
	select {
	case <-done:
		return nil
	case <-l.stopped:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (l *Loop) Now() time.Time { return time.Now() }

func (l *Loop) Every(d time.Duration, fn func()) func() {
	l.nextID++
	id := l.nextID
	t := &loopTimer{fn: fn, ticker: time.NewTicker(d), stop: make(chan struct{})}
	l.timers[id] = t
	go l.forward(id, t)
	return func() { l.cancel(id) }
}

func (l *Loop) forward(id uint64, t *loopTimer) {
	for {
		select {
		case <-t.stop:
			return
		case <-t.ticker.C:
			err := l.Post(func() {
				// A tick posted before cancel may still be queued.
				if cur, ok := l.timers[id]; ok && cur == t {
					cur.fn()
				}
			})
			if err != nil {
				return
			}
		}
	}
}

func (l *Loop) cancel(id uint64) {
	t, ok := l.timers[id]
	if !ok {
		return
	}
	delete(l.timers, id)
	t.ticker.Stop()
	close(t.stop)
}

func (l *Loop) cancelAll() {
	for id := range l.timers {
		l.cancel(id)
	}
}
