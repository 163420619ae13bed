package twin

import (
	"fmt"
	"reflect"
	"sort"

	"github.com/hupe1980/twinmesh/class"
	"github.com/hupe1980/twinmesh/event"
	"github.com/hupe1980/twinmesh/serialize"
	"github.com/hupe1980/twinmesh/wire"
)

// Object is one half of a synchronized entity. It is not safe for
// concurrent use.
type Object struct {
	rt   *Runtime
	id   string
	desc *class.Descriptor
	side *class.SideDescriptor
	out  Sender

	values   map[string]any
	attrs    map[string]any
	handlers *event.Table
	// interest holds the event types the other side has handlers for.
	interest map[string]struct{}
	inbox    *Coalescer
}

var (
	_ class.Instance     = (*Object)(nil)
	_ serialize.Taggable = (*Object)(nil)
)

func newObject(rt *Runtime, id string, desc *class.Descriptor, out Sender) *Object {
	o := &Object{
		rt:       rt,
		id:       id,
		desc:     desc,
		side:     desc.Side(rt.side),
		out:      out,
		values:   make(map[string]any),
		attrs:    make(map[string]any),
		handlers: event.NewTable(),
		interest: make(map[string]struct{}),
	}
	o.inbox = NewCoalescer(rt.scheduler, rt.delay, o.deliver)
	return o
}

// ID returns the instance id shared by both halves.
func (o *Object) ID() string { return o.id }

// Side reports which half this is.
func (o *Object) Side() class.Side { return o.rt.side }

// Class returns the class descriptor.
func (o *Object) Class() *class.Descriptor { return o.desc }

// Get returns the current value of a declared property. On a proxy the value
// may lag behind the owner until its next SETPROP is handled.
func (o *Object) Get(name string) (any, bool) {
	if _, ok := o.side.Property(name); !ok {
		return nil, false
	}
	return o.values[name], true
}

// Values returns a copy of all property values.
func (o *Object) Values() map[string]any {
	out := make(map[string]any, len(o.values))
	for k, v := range o.values {
		out[k] = v
	}
	return out
}

// Set normalizes and stores an authoritative property, then pushes it to the
// other side. Proxies refuse with ErrProxyProperty.
func (o *Object) Set(name string, value any) error {
	p, ok := o.side.Property(name)
	if !ok {
		return unknownProperty(o.desc, o.side, name)
	}
	if p.Proxy {
		return fmt.Errorf("%w: %s.%s is owned by the %s side", ErrProxyProperty, o.id, name, p.Owner)
	}
	return o.setLocal(p, value)
}

func (o *Object) setLocal(p *class.Property, value any) error {
	v, err := p.Normalize(value)
	if err != nil {
		return fmt.Errorf("%s.%s: %w", o.id, p.Name, err)
	}
	text, err := o.rt.codec.Encode(v)
	if err != nil {
		return fmt.Errorf("%s.%s: %w", o.id, p.Name, err)
	}
	old, had := o.values[p.Name]
	o.values[p.Name] = v
	if err := o.send(wire.SetProp(o.id, p.Name, text)); err != nil {
		return err
	}
	o.changed(p.Name, old, had, v, false)
	return nil
}

// applyRemote stores a value received through SETPROP. Proxies take it as
// is; an authoritative property is normalized. Nothing is sent back.
func (o *Object) applyRemote(name, text string) error {
	p, ok := o.side.Property(name)
	if !ok {
		return unknownProperty(o.desc, o.side, name)
	}
	v, err := o.rt.codec.Decode(text)
	if err != nil {
		return fmt.Errorf("%s.%s: %w", o.id, name, err)
	}
	if !p.Proxy {
		if v, err = p.Normalize(v); err != nil {
			return fmt.Errorf("%s.%s: %w", o.id, name, err)
		}
	}
	old, had := o.values[name]
	o.values[name] = v
	o.changed(name, old, had, v, true)
	return nil
}

// changed delivers a property change event to local handlers only.
func (o *Object) changed(name string, old any, had bool, v any, remote bool) {
	if had && reflect.DeepEqual(old, v) {
		return
	}
	o.handlers.Dispatch(event.NewChange(o.id, name, old, v, remote))
}

// SetAttr stores a plain attribute. Assigning another *Object additionally
// pushes the reference with SETATTR, since attributes bypass the property
// path. Names of declared properties are routed through Set.
func (o *Object) SetAttr(name string, value any) error {
	if _, ok := o.side.Property(name); ok {
		return o.Set(name, value)
	}
	o.attrs[name] = value
	ref, ok := value.(*Object)
	if !ok || ref == nil {
		return nil
	}
	text, err := o.rt.codec.Encode(ref)
	if err != nil {
		return err
	}
	return o.send(wire.SetAttr(o.id, name, text))
}

func (o *Object) applyAttr(name, text string) error {
	v, err := o.rt.codec.Decode(text)
	if err != nil {
		return fmt.Errorf("%s.%s: %w", o.id, name, err)
	}
	o.attrs[name] = v
	return nil
}

// Attr returns a plain attribute.
func (o *Object) Attr(name string) (any, bool) {
	v, ok := o.attrs[name]
	return v, ok
}

// TypeTag implements serialize.Taggable.
func (o *Object) TypeTag() string { return TypeTag }

// TagPayload implements serialize.Taggable. Only the id crosses the wire;
// an Encode hook may add fields.
func (o *Object) TagPayload() map[string]any {
	rec := map[string]any{}
	if enc := o.side.Hooks().Encode; enc != nil {
		for k, v := range enc(o) {
			rec[k] = v
		}
	}
	rec["id"] = o.id
	return rec
}

func (o *Object) initValues(values map[string]any) error {
	for _, name := range o.side.PropertyNames() {
		p, _ := o.side.Property(name)
		if p.Proxy {
			o.values[name] = p.Default
			continue
		}
		v, ok := values[name]
		if !ok {
			v = p.Default
		}
		if err := o.setLocal(p, v); err != nil {
			return err
		}
	}
	return nil
}

func (o *Object) runInit() error {
	if fn := o.side.Hooks().Init; fn != nil {
		if err := fn(o); err != nil {
			return fmt.Errorf("%s: init: %w", o.id, err)
		}
	}
	return nil
}

func (o *Object) send(cmd wire.Command) error {
	line, err := cmd.Encode()
	if err != nil {
		return err
	}
	o.out.Execute(line)
	o.rt.logCommand("out", cmd, len(line))
	return nil
}

func unknownProperty(desc *class.Descriptor, side *class.SideDescriptor, name string) error {
	if s := side.Suggest(name); s != "" {
		return fmt.Errorf("%w: %s.%s, did you mean %q", ErrUnknownProperty, desc.Name(), name, s)
	}
	return fmt.Errorf("%w: %s.%s", ErrUnknownProperty, desc.Name(), name)
}

func sortedSet(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
