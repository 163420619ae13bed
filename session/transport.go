package session

import (
	"errors"
	"sync"
)

// ErrTransportClosed is returned by transports that no longer accept lines.
var ErrTransportClosed = errors.New("session: transport closed")

// Transport carries command lines to the remote runtime in order.
type Transport interface {
	Send(line string) error
}

// FuncTransport adapts a function to Transport.
type FuncTransport func(line string) error

// Send calls f.
func (f FuncTransport) Send(line string) error { return f(line) }

// QueueTransport buffers lines until drained. It is safe for concurrent use.
type QueueTransport struct {
	mu     sync.Mutex
	lines  []string
	closed bool
}

// NewQueueTransport returns an empty queue.
func NewQueueTransport() *QueueTransport { return &QueueTransport{} }

// Send appends line.
func (q *QueueTransport) Send(line string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return ErrTransportClosed
	}
	q.lines = append(q.lines, line)
	return nil
}

// Drain returns and removes all buffered lines in send order.
func (q *QueueTransport) Drain() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.lines
	q.lines = nil
	return out
}

// Len reports the number of buffered lines.
func (q *QueueTransport) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.lines)
}

// Close makes later sends fail and drops buffered lines.
func (q *QueueTransport) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	q.lines = nil
}

var (
	_ Transport = (*QueueTransport)(nil)
	_ Transport = FuncTransport(nil)
)
