package twin

import (
	"fmt"

	"github.com/hupe1980/twinmesh/class"
	"github.com/hupe1980/twinmesh/wire"
)

// Handle applies one command received from the other side.
func (rt *Runtime) Handle(line string) error {
	cmd, err := wire.Parse(line)
	if err != nil {
		return err
	}
	rt.logCommand("in", cmd, len(line))

	switch cmd.Verb {
	case wire.VerbDefine:
		return rt.define(cmd)
	case wire.VerbInstantiate:
		return rt.instantiate(cmd)
	}

	o := rt.objects.Lookup(cmd.Target)
	if o == nil {
		return fmt.Errorf("%w: %s %s", ErrUnknownInstance, cmd.Verb, cmd.Target)
	}
	switch cmd.Verb {
	case wire.VerbSetProp:
		return o.applyRemote(cmd.Name(), cmd.Payload())
	case wire.VerbEvent:
		return o.receive(cmd.Name(), cmd.Payload())
	case wire.VerbSetAttr:
		return o.applyAttr(cmd.Name(), cmd.Payload())
	case wire.VerbRegEvents:
		types, err := rt.decodeTypes(cmd.Payload())
		if err != nil {
			return fmt.Errorf("%s: %w", cmd.Target, err)
		}
		o.setInterest(types)
		return nil
	}
	return fmt.Errorf("%w: unhandled verb %s", wire.ErrMalformedCommand, cmd.Verb)
}

// define records a delivered class payload. Bases must arrive first.
func (rt *Runtime) define(cmd wire.Command) error {
	if rt.side != class.Remote {
		return fmt.Errorf("%w: DEFINE is handled by the remote side", ErrWrongSide)
	}
	p, err := class.ParsePayload(cmd.Payload())
	if err != nil {
		return err
	}
	if p.Class != cmd.Target {
		return fmt.Errorf("%w: DEFINE %s carries payload of %s", wire.ErrMalformedCommand, cmd.Target, p.Class)
	}
	desc, err := rt.catalog.Resolve(p.Class)
	if err != nil {
		return err
	}
	for _, base := range desc.Bases() {
		if !rt.Defined(base.Name()) {
			return fmt.Errorf("%w: %s needs base %s", ErrUndefinedClass, p.Class, base.Name())
		}
	}
	rt.defined[p.Class] = p
	rt.logger.Debug("Defined class", "class", p.Class, "bytes", len(p.Source)+len(p.Style))
	return nil
}

// instantiate creates the remote twin of a host object.
func (rt *Runtime) instantiate(cmd wire.Command) error {
	if rt.side != class.Remote {
		return fmt.Errorf("%w: INSTANTIATE is handled by the remote side", ErrWrongSide)
	}
	id := cmd.Target
	name := ClassOf(id)
	if !rt.Defined(name) {
		return fmt.Errorf("%w: %s", ErrUndefinedClass, name)
	}
	desc, err := rt.catalog.Resolve(name)
	if err != nil {
		return err
	}
	interest, err := rt.decodeTypes(cmd.Payload())
	if err != nil {
		return fmt.Errorf("%s: %w", id, err)
	}

	o := newObject(rt, id, desc, rt.out)
	if err := rt.objects.Register(id, o); err != nil {
		return err
	}
	rt.live[id] = o
	o.setInterest(interest)
	o.connectDeclared()
	if len(o.handlers.Types()) > 0 {
		o.announce()
	}
	if err := o.initValues(nil); err != nil {
		rt.Dispose(id)
		return err
	}
	if err := o.runInit(); err != nil {
		rt.Dispose(id)
		return err
	}
	rt.logger.Debug("Instantiated twin", "id", id, "class", name)
	return nil
}

func (rt *Runtime) decodeTypes(text string) ([]string, error) {
	v, err := rt.codec.Decode(text)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, nil
	}
	list, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: expected a list of event types, got %T", wire.ErrMalformedCommand, v)
	}
	out := make([]string, 0, len(list))
	for _, item := range list {
		s, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("%w: event type %v is not a string", wire.ErrMalformedCommand, item)
		}
		out = append(out, s)
	}
	return out, nil
}
