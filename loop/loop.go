// Package loop provides the single threaded scheduler each side of a
// synchronized pair runs on.
//
// Work posted to a Loop, and callbacks scheduled with AfterFunc, run one at
// a time on the goroutine driving Run or RunPending. Timers only post their
// callback; they never run it themselves.
package loop

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

// ErrClosed is returned by Run once the loop has been closed.
var ErrClosed = errors.New("loop: closed")

// Loop is a FIFO task queue drained by a single goroutine.
type Loop struct {
	mu     sync.Mutex
	queue  []func()
	closed bool

	wake   chan struct{}
	timers atomic.Int64
	ran    atomic.Uint64
}

// New returns an idle loop.
func New() *Loop {
	return &Loop{wake: make(chan struct{}, 1)}
}

// Post queues fn to run after everything queued before it. Posting to a
// closed loop is a no-op.
func (l *Loop) Post(fn func()) {
	if fn == nil {
		return
	}
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.queue = append(l.queue, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// AfterFunc posts fn once d has elapsed. A non-positive d posts at once, so
// fn still runs after the current unit of work.
func (l *Loop) AfterFunc(d time.Duration, fn func()) {
	if d <= 0 {
		l.Post(fn)
		return
	}
	l.timers.Add(1)
	time.AfterFunc(d, func() {
		l.timers.Add(-1)
		l.Post(fn)
	})
}

// RunPending runs queued tasks, including tasks they post, until the queue
// is empty. It reports how many tasks ran.
func (l *Loop) RunPending() int {
	n := 0
	for {
		l.mu.Lock()
		batch := l.queue
		l.queue = nil
		l.mu.Unlock()
		if len(batch) == 0 {
			return n
		}
		for _, fn := range batch {
			fn()
			n++
			l.ran.Add(1)
		}
	}
}

// Run drives the loop until ctx is done or the loop is closed.
func (l *Loop) Run(ctx context.Context) error {
	for {
		l.RunPending()
		if l.Closed() {
			return ErrClosed
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.wake:
		}
	}
}

// Len reports the number of queued tasks.
func (l *Loop) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.queue)
}

// Timers reports the number of AfterFunc timers that have not fired yet.
func (l *Loop) Timers() int { return int(l.timers.Load()) }

// Ran reports how many tasks the loop has executed.
func (l *Loop) Ran() uint64 { return l.ran.Load() }

// Close drops queued work and stops Run. Pending timers fire into the void.
func (l *Loop) Close() {
	l.mu.Lock()
	l.closed = true
	l.queue = nil
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Closed reports whether Close was called.
func (l *Loop) Closed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closed
}
