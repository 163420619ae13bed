// Package event provides the event value exchanged between synchronized
// instances and a small ordered publish/subscribe table.
package event

import (
	"sort"
)

// Keys used in the data of property change events.
const (
	KeyOldValue = "old_value"
	KeyNewValue = "new_value"
)

// Event is one emission on a synchronized instance. It should be treated as
// immutable once emitted.
type Event struct {
	Type   string         `json:"type"`
	Source string         `json:"source"`
	Data   map[string]any `json:"data,omitempty"`
	// Remote marks events that originated on the other side. Such events
	// are never forwarded back.
	Remote bool `json:"-"`
}

// NewChange builds the event emitted when a property value changes.
func NewChange(source, name string, oldValue, newValue any, remote bool) Event {
	return Event{
		Type:   name,
		Source: source,
		Data:   map[string]any{KeyOldValue: oldValue, KeyNewValue: newValue},
		Remote: remote,
	}
}

// Get returns a data field, or nil when absent.
func (e Event) Get(key string) any {
	if e.Data == nil {
		return nil
	}
	return e.Data[key]
}

// Func handles one event.
type Func func(ev Event)

type entry struct {
	id uint64
	fn Func
}

// Table keeps handlers per event type in registration order. It is not
// safe for concurrent use; each side drives its table from one thread.
type Table struct {
	next     uint64
	handlers map[string][]entry
}

// NewTable returns an empty handler table.
func NewTable() *Table {
	return &Table{handlers: make(map[string][]entry)}
}

// Add registers fn for typ and returns a function removing it again.
// Calling the remover more than once is a no-op; it reports whether this
// call removed the handler.
func (t *Table) Add(typ string, fn Func) func() bool {
	t.next++
	id := t.next
	t.handlers[typ] = append(t.handlers[typ], entry{id: id, fn: fn})
	return func() bool { return t.remove(typ, id) }
}

func (t *Table) remove(typ string, id uint64) bool {
	list := t.handlers[typ]
	for i, e := range list {
		if e.id != id {
			continue
		}
		list = append(list[:i:i], list[i+1:]...)
		if len(list) == 0 {
			delete(t.handlers, typ)
		} else {
			t.handlers[typ] = list
		}
		return true
	}
	return false
}

// Count reports the number of handlers registered for typ.
func (t *Table) Count(typ string) int { return len(t.handlers[typ]) }

// Types returns the sorted event types with at least one handler.
func (t *Table) Types() []string {
	out := make([]string, 0, len(t.handlers))
	for typ, list := range t.handlers {
		if len(list) > 0 {
			out = append(out, typ)
		}
	}
	sort.Strings(out)
	return out
}

// Dispatch runs the handlers for ev.Type synchronously in registration
// order. Handlers added or removed during dispatch take effect on the next
// dispatch.
func (t *Table) Dispatch(ev Event) int {
	list := t.handlers[ev.Type]
	if len(list) == 0 {
		return 0
	}
	snapshot := make([]entry, len(list))
	copy(snapshot, list)
	for _, e := range snapshot {
		e.fn(ev)
	}
	return len(snapshot)
}
