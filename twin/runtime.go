package twin

import (
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/hupe1980/twinmesh/class"
	"github.com/hupe1980/twinmesh/logging"
	"github.com/hupe1980/twinmesh/loop"
	"github.com/hupe1980/twinmesh/registry"
	"github.com/hupe1980/twinmesh/serialize"
	"github.com/hupe1980/twinmesh/wire"
)

// TypeTag is the serializer tag of an entity reference.
const TypeTag = "Twin-Object"

// nextID numbers instances across every runtime of the process.
var nextID atomic.Uint64

// Sender accepts encoded commands for the other side. Execute is fire and
// forget.
type Sender interface {
	Execute(command string)
}

// Session is the host side channel to one remote runtime.
type Session interface {
	Sender
	// RegisterClass makes sure the class payload reached the remote runtime
	// before any instance of it is created there. Idempotent per session.
	RegisterClass(desc *class.Descriptor)
}

type discard struct{}

func (discard) Execute(string) {}

// Scheduler runs deferred callbacks on the runtime's thread.
type Scheduler interface {
	AfterFunc(d time.Duration, fn func())
}

// Options configures a Runtime.
type Options struct {
	// Catalog resolves class names received over the wire. Defaults to
	// class.Default.
	Catalog *class.Catalog
	// DefaultSession is consulted by New when no session is given.
	DefaultSession func() Session
	// Scheduler runs inbound event drains. Defaults to a new loop.Loop the
	// caller drives through Runtime.Scheduler.
	Scheduler Scheduler
	// CoalesceDelay is the delay of the deferred drain.
	CoalesceDelay time.Duration
	// Serializer provides the revivers the runtime starts with. It is
	// cloned. Defaults to serialize.Default.
	Serializer *serialize.Serializer
	Logger     logging.Logger
}

// Runtime is one side of a synchronized pair.
type Runtime struct {
	side           class.Side
	catalog        *class.Catalog
	objects        *registry.Registry[Object]
	codec          *serialize.Serializer
	scheduler      Scheduler
	delay          time.Duration
	defaultSession func() Session
	logger         logging.Logger

	// remote only
	out     Sender
	defined map[string]class.Payload
	live    map[string]*Object
}

// NewHostRuntime returns the runtime constructing objects with New.
func NewHostRuntime(optFns ...func(o *Options)) *Runtime {
	return newRuntime(class.Host, nil, optFns)
}

// NewRemoteRuntime returns the runtime creating twins from INSTANTIATE
// commands. Commands for the host are written to out.
func NewRemoteRuntime(out Sender, optFns ...func(o *Options)) *Runtime {
	return newRuntime(class.Remote, out, optFns)
}

func newRuntime(side class.Side, out Sender, optFns []func(o *Options)) *Runtime {
	opts := Options{
		Catalog:    class.Default,
		Serializer: serialize.Default,
		Logger:     logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Scheduler == nil {
		opts.Scheduler = loop.New()
	}
	if opts.Serializer == nil {
		opts.Serializer = serialize.Default
	}
	if out == nil {
		out = discard{}
	}

	rt := &Runtime{
		side:           side,
		catalog:        opts.Catalog,
		objects:        registry.New[Object](),
		codec:          opts.Serializer.Clone(),
		scheduler:      opts.Scheduler,
		delay:          opts.CoalesceDelay,
		defaultSession: opts.DefaultSession,
		logger:         logging.OrNoOp(opts.Logger),
		out:            out,
		defined:        make(map[string]class.Payload),
		live:           make(map[string]*Object),
	}
	if rt.catalog == nil {
		rt.catalog = class.Default
	}
	rt.codec.AddReviver(TypeTag, rt.revive)
	return rt
}

// revive resolves an entity reference against this side's registry. An id
// without a live owner yields nil.
func (rt *Runtime) revive(rec map[string]any) (any, error) {
	id, _ := rec["id"].(string)
	if id == "" {
		return nil, fmt.Errorf("entity reference without id")
	}
	if o := rt.objects.Lookup(id); o != nil {
		return o, nil
	}
	return nil, nil
}

// Side reports which side the runtime runs.
func (rt *Runtime) Side() class.Side { return rt.side }

// Catalog returns the catalog used to resolve class names.
func (rt *Runtime) Catalog() *class.Catalog { return rt.catalog }

// Codec returns the runtime's serializer. Entity references decode against
// this runtime's objects.
func (rt *Runtime) Codec() *serialize.Serializer { return rt.codec }

// Scheduler returns the scheduler running inbound event drains.
func (rt *Runtime) Scheduler() Scheduler { return rt.scheduler }

// Lookup returns the live object registered under id, or nil.
func (rt *Runtime) Lookup(id string) *Object { return rt.objects.Lookup(id) }

// IDs returns the sorted ids of live objects.
func (rt *Runtime) IDs() []string { return rt.objects.IDs() }

// Defined reports whether the payload of class name was delivered.
func (rt *Runtime) Defined(name string) bool {
	_, ok := rt.defined[name]
	return ok
}

// Definition returns the delivered payload of class name.
func (rt *Runtime) Definition(name string) (class.Payload, bool) {
	p, ok := rt.defined[name]
	return p, ok
}

// Dispose releases a remote twin. The runtime stops keeping it alive and
// forgets its id.
func (rt *Runtime) Dispose(id string) bool {
	_, ok := rt.live[id]
	delete(rt.live, id)
	rt.objects.Remove(id)
	return ok
}

// ClassOf returns the class name part of an instance id.
func ClassOf(id string) string {
	return strings.TrimRight(id, "0123456789")
}

// NewOptions configures a single construction.
type NewOptions struct {
	// Session carries the object's commands. Defaults to the runtime's
	// default session.
	Session Session
	// Values are initial property values applied through Set.
	Values map[string]any
}

// WithSession selects the session of a new object.
func WithSession(s Session) func(o *NewOptions) {
	return func(o *NewOptions) { o.Session = s }
}

// WithValues sets initial property values of a new object.
func WithValues(values map[string]any) func(o *NewOptions) {
	return func(o *NewOptions) { o.Values = values }
}

// New constructs a host object of class desc. The remote twin is requested
// with one INSTANTIATE command, followed by one SETPROP per authoritative
// property.
func (rt *Runtime) New(desc *class.Descriptor, optFns ...func(o *NewOptions)) (*Object, error) {
	if rt.side != class.Host {
		return nil, fmt.Errorf("%w: objects are constructed on the host", ErrWrongSide)
	}
	if desc == nil {
		return nil, class.ErrUnknownClass
	}
	var opts NewOptions
	for _, fn := range optFns {
		fn(&opts)
	}

	side := desc.Host()
	for name := range opts.Values {
		p, ok := side.Property(name)
		if !ok {
			return nil, unknownProperty(desc, side, name)
		}
		if p.Proxy {
			return nil, fmt.Errorf("%w: %s.%s is owned by the %s side", ErrProxyProperty, desc.Name(), name, p.Owner)
		}
		if _, err := p.Normalize(opts.Values[name]); err != nil {
			return nil, fmt.Errorf("%s.%s: %w", desc.Name(), name, err)
		}
	}

	sess := opts.Session
	if sess == nil && rt.defaultSession != nil {
		sess = rt.defaultSession()
	}
	if sess == nil {
		return nil, ErrNoSession
	}

	id := desc.Name() + strconv.FormatUint(nextID.Add(1), 10)
	o := newObject(rt, id, desc, sess)
	if err := rt.objects.Register(id, o); err != nil {
		return nil, err
	}

	sess.RegisterClass(desc)
	o.connectDeclared()
	// Declared remote interest holds until the twin's REG_EVENTS arrives.
	o.setInterest(desc.Remote().Interests())

	interest, err := rt.codec.Encode(o.handlers.Types())
	if err != nil {
		rt.objects.Remove(id)
		return nil, err
	}
	if err := o.send(wire.Instantiate(id, interest)); err != nil {
		rt.objects.Remove(id)
		return nil, err
	}
	if err := o.initValues(opts.Values); err != nil {
		return nil, err
	}
	if err := o.runInit(); err != nil {
		return nil, err
	}
	rt.logger.Debug("Constructed object", "id", id, "class", desc.Name())
	return o, nil
}

// commandLogger is implemented by loggers with a dedicated command record,
// such as *logging.TwinLogger.
type commandLogger interface {
	LogCommand(direction, verb, target string, size int)
	LogDrain(instance string, events int, dur time.Duration)
}

func (rt *Runtime) logCommand(direction string, cmd wire.Command, size int) {
	if cl, ok := rt.logger.(commandLogger); ok {
		cl.LogCommand(direction, string(cmd.Verb), cmd.Target, size)
		return
	}
	rt.logger.Debug("Command", "direction", direction, "verb", string(cmd.Verb), "target", cmd.Target, "bytes", size)
}

func (rt *Runtime) logDrain(id string, n int, dur time.Duration) {
	if cl, ok := rt.logger.(commandLogger); ok {
		cl.LogDrain(id, n, dur)
		return
	}
	rt.logger.Debug("Drained remote events", "target", id, "events", n, "duration", dur)
}
