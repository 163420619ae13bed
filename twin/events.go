package twin

import (
	"fmt"
	"time"

	"github.com/hupe1980/twinmesh/event"
	"github.com/hupe1980/twinmesh/logging"
	"github.com/hupe1980/twinmesh/wire"
)

// Emit runs the local handlers of typ in registration order and forwards
// the event when the other side has a handler for it. Emitting an event
// declared on the other side fails with ErrWrongSide.
func (o *Object) Emit(typ string, data map[string]any) error {
	if e, ok := o.side.Emitter(typ); ok && e.Proxy {
		return fmt.Errorf("%w: %s.%s is emitted by the %s side", ErrWrongSide, o.id, typ, e.Owner)
	}
	return o.emit(event.Event{Type: typ, Source: o.id, Data: data})
}

func (o *Object) emit(ev event.Event) error {
	o.handlers.Dispatch(ev)
	if ev.Remote || !o.Interested(ev.Type) {
		return nil
	}
	text, err := o.rt.codec.Encode(ev.Data)
	if err != nil {
		return fmt.Errorf("%s.%s: %w", o.id, ev.Type, err)
	}
	return o.send(wire.Event(o.id, ev.Type, text))
}

// Connect registers fn for typ and returns a function disconnecting it.
// Whenever the set of types with handlers changes, the new set is announced
// to the other side with REG_EVENTS.
func (o *Object) Connect(typ string, fn event.Func) (disconnect func()) {
	first := o.handlers.Count(typ) == 0
	remove := o.handlers.Add(typ, fn)
	if first {
		o.announce()
	}
	return func() {
		if remove() && o.handlers.Count(typ) == 0 {
			o.announce()
		}
	}
}

// Interested reports whether the other side announced a handler for typ.
func (o *Object) Interested(typ string) bool {
	_, ok := o.interest[typ]
	return ok
}

// Interest returns the sorted event types the other side listens for.
func (o *Object) Interest() []string { return sortedSet(o.interest) }

// HandlerTypes returns the sorted event types with a local handler.
func (o *Object) HandlerTypes() []string { return o.handlers.Types() }

func (o *Object) setInterest(types []string) {
	o.interest = make(map[string]struct{}, len(types))
	for _, t := range types {
		o.interest[t] = struct{}{}
	}
}

func (o *Object) announce() {
	text, err := o.rt.codec.Encode(o.handlers.Types())
	if err == nil {
		err = o.send(wire.RegEvents(o.id, text))
	}
	if err != nil {
		logging.ForInstance(o.rt.logger, o.id).Error("Failed to announce event types", "error", err)
	}
}

// connectDeclared attaches the class's declared handlers. It does not
// announce; construction sends the interest set itself.
func (o *Object) connectDeclared() {
	for _, h := range o.side.Handlers() {
		for _, typ := range h.Types {
			o.handlers.Add(typ, func(ev event.Event) {
				if h.Fn != nil {
					h.Fn(o, ev)
				}
			})
		}
	}
}

// receive queues an event that arrived from the other side.
func (o *Object) receive(typ, text string) error {
	v, err := o.rt.codec.Decode(text)
	if err != nil {
		return fmt.Errorf("%s.%s: %w", o.id, typ, err)
	}
	var data map[string]any
	switch x := v.(type) {
	case nil:
	case map[string]any:
		data = x
	default:
		data = map[string]any{"value": x}
	}
	o.inbox.Push(event.Event{Type: typ, Source: o.id, Data: data, Remote: true})
	return nil
}

// deliver emits one drained batch. Every event is marked remote, so none is
// forwarded back.
func (o *Object) deliver(batch []event.Event) {
	start := time.Now()
	for _, ev := range batch {
		ev.Remote = true
		if err := o.emit(ev); err != nil {
			logging.ForInstance(o.rt.logger, o.id).Error("Failed to deliver remote event", "type", ev.Type, "error", err)
		}
	}
	o.rt.logDrain(o.id, len(batch), time.Since(start))
}
