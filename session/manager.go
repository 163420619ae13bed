package session

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/hupe1980/twinmesh/logging"
)

// ErrNotFound is returned for unknown session ids.
var ErrNotFound = errors.New("session: not found")

// Manager keeps the sessions of a process. The first session created becomes
// the default until another is selected. It is safe for concurrent access.
type Manager struct {
	mu        sync.RWMutex
	sessions  map[string]*Session
	defaultID string
	logger    logging.Logger
}

// NewManager returns an empty manager.
func NewManager(logger logging.Logger) *Manager {
	return &Manager{sessions: make(map[string]*Session), logger: logging.OrNoOp(logger)}
}

// Create opens a session over t and registers it.
func (m *Manager) Create(t Transport, optFns ...func(o *Options)) *Session {
	optFns = append([]func(o *Options){func(o *Options) { o.Logger = m.logger }}, optFns...)
	s := New(t, optFns...)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.id] = s
	if m.defaultID == "" {
		m.defaultID = s.id
	}
	m.logger.Info("Session opened", "session_id", s.id)
	return s
}

// Get returns the session with id.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return s, nil
}

// Default returns the default session, or nil when none is open.
func (m *Manager) Default() *Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sessions[m.defaultID]
}

// SetDefault selects the default session.
func (m *Manager) SetDefault(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	m.defaultID = id
	return nil
}

// IDs returns the sorted ids of open sessions.
func (m *Manager) IDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Close closes and forgets the session with id. Closing the default session
// leaves no default.
func (m *Manager) Close(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	s.Close()
	delete(m.sessions, id)
	if m.defaultID == id {
		m.defaultID = ""
	}
	m.logger.Info("Session closed", "session_id", id)
	return nil
}

// CloseAll closes every session.
func (m *Manager) CloseAll() {
	for _, id := range m.IDs() {
		_ = m.Close(id)
	}
}
