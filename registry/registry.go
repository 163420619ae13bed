// Package registry implements the per-side instance registry: a lookup from
// instance id to live instance that never extends an instance's lifetime.
//
// Entries hold weak pointers. Once application code drops its last strong
// reference the garbage collector may reclaim the instance; Lookup then
// reports nil and a cleanup prunes the stale entry.
package registry

import (
	"errors"
	"fmt"
	"runtime"
	"sort"
	"sync"
	"weak"
)

// ErrDuplicateID is returned when registering an id that still has a live owner.
var ErrDuplicateID = errors.New("registry: duplicate id")

// Registry maps ids to weakly held *T values. It is safe for concurrent use;
// cleanups run on the runtime's cleanup goroutine.
type Registry[T any] struct {
	mu      sync.RWMutex
	entries map[string]weak.Pointer[T]
}

// New returns an empty registry.
func New[T any]() *Registry[T] {
	return &Registry[T]{entries: make(map[string]weak.Pointer[T])}
}

type cleanupKey[T any] struct {
	id string
	wp weak.Pointer[T]
}

// Register records v under id without keeping v alive.
func (r *Registry[T]) Register(id string, v *T) error {
	if v == nil {
		return fmt.Errorf("registry: nil value for %q", id)
	}
	wp := weak.Make(v)

	r.mu.Lock()
	if prev, ok := r.entries[id]; ok && prev.Value() != nil {
		r.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrDuplicateID, id)
	}
	r.entries[id] = wp
	r.mu.Unlock()

	runtime.AddCleanup(v, r.prune, cleanupKey[T]{id: id, wp: wp})
	return nil
}

// Lookup returns the live value for id, or nil when absent or reclaimed.
func (r *Registry[T]) Lookup(id string) *T {
	r.mu.RLock()
	wp, ok := r.entries[id]
	r.mu.RUnlock()
	if !ok {
		return nil
	}
	return wp.Value()
}

// Remove forgets id regardless of liveness.
func (r *Registry[T]) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, id)
}

// IDs returns the sorted ids that currently have a live owner.
func (r *Registry[T]) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.entries))
	for id, wp := range r.entries {
		if wp.Value() != nil {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// Len reports the number of entries, including ones awaiting cleanup.
func (r *Registry[T]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

func (r *Registry[T]) prune(key cleanupKey[T]) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.entries[key.id]; ok && cur == key.wp {
		delete(r.entries, key.id)
	}
}
