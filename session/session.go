package session

import (
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/hupe1980/twinmesh/class"
	"github.com/hupe1980/twinmesh/logging"
	"github.com/hupe1980/twinmesh/wire"
)

// Options configures a Session.
type Options struct {
	// ID overrides the generated session id.
	ID     string
	Logger logging.Logger
}

// Session is an ordered command channel to one remote runtime.
type Session struct {
	id        string
	transport Transport
	logger    logging.Logger

	mu      sync.Mutex
	classes map[string]struct{}
	sent    int
	closed  bool
}

// New returns an open session writing to t.
func New(t Transport, optFns ...func(o *Options)) *Session {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.ID == "" {
		opts.ID = uuid.NewString()
	}
	return &Session{
		id:        opts.ID,
		transport: t,
		logger:    logging.ForSession(opts.Logger, opts.ID),
		classes:   make(map[string]struct{}),
	}
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// Execute hands line to the transport. Once the session is closed the line
// is dropped. Transport errors are logged, never retried.
func (s *Session) Execute(line string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.executeLocked(line)
}

// executeLocked reports whether line reached the transport.
func (s *Session) executeLocked(line string) bool {
	if s.closed {
		s.logger.Debug("Dropping command on closed session", "bytes", len(line))
		return false
	}
	if err := s.transport.Send(line); err != nil {
		s.logger.Warn("Transport rejected command", "error", err)
		return false
	}
	s.sent++
	return true
}

// RegisterClass sends a DEFINE command for desc and each of its ancestors
// not yet delivered on this session, bases first. A class counts as
// delivered only once its DEFINE reached the transport, and a failed base
// stops the walk so no subclass is defined ahead of it.
func (s *Session) RegisterClass(desc *class.Descriptor) {
	if desc == nil {
		return
	}
	lineage := desc.Lineage()
	slices.Reverse(lineage)

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range lineage {
		if _, ok := s.classes[d.Name()]; ok {
			continue
		}
		text, err := d.Payload().Encode()
		if err != nil {
			s.logger.Error("Failed to encode class payload", "class", d.Name(), "error", err)
			return
		}
		line, err := wire.Define(d.Name(), text).Encode()
		if err != nil {
			s.logger.Error("Failed to encode DEFINE", "class", d.Name(), "error", err)
			return
		}
		if !s.executeLocked(line) {
			return
		}
		s.classes[d.Name()] = struct{}{}
	}
}

// Registered reports whether the payload of class name was sent.
func (s *Session) Registered(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.classes[name]
	return ok
}

// Classes returns the sorted names of delivered classes.
func (s *Session) Classes() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.classes))
	for name := range s.classes {
		out = append(out, name)
	}
	slices.Sort(out)
	return out
}

// Sent reports how many commands reached the transport.
func (s *Session) Sent() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sent
}

// Close stops the session. Later commands are dropped.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

// Closed reports whether Close was called.
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
