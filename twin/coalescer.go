package twin

import (
	"time"

	"github.com/hupe1980/twinmesh/event"
)

// Coalescer batches inbound events of one object. The first Push after a
// drain schedules the next drain; later pushes join that batch.
type Coalescer struct {
	sched   Scheduler
	delay   time.Duration
	deliver func(batch []event.Event)

	pending   []event.Event
	scheduled bool
	cycles    int
}

// NewCoalescer returns a coalescer handing each drained batch to deliver.
func NewCoalescer(sched Scheduler, delay time.Duration, deliver func(batch []event.Event)) *Coalescer {
	return &Coalescer{sched: sched, delay: delay, deliver: deliver}
}

// Push queues ev. It reports whether this call scheduled a drain.
func (c *Coalescer) Push(ev event.Event) bool {
	c.pending = append(c.pending, ev)
	if c.scheduled {
		return false
	}
	c.scheduled = true
	c.sched.AfterFunc(c.delay, c.drain)
	return true
}

func (c *Coalescer) drain() {
	batch := c.pending
	c.pending = nil
	c.scheduled = false
	if len(batch) == 0 {
		return
	}
	c.cycles++
	c.deliver(batch)
}

// Pending reports the number of queued events.
func (c *Coalescer) Pending() int { return len(c.pending) }

// Cycles reports the number of drains that delivered events.
func (c *Coalescer) Cycles() int { return c.cycles }
