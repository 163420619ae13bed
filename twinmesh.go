// Package twinmesh provides a façade over the synchronization engine: one
// host runtime, the sessions it talks through, and the class catalog. Most
// applications interact with this package by:
//  1. Creating a Mesh via New() (or NewFromConfig)
//  2. Declaring classes, in Go or from TOML manifests
//  3. Opening a session per connected remote runtime (Connect)
//  4. Constructing objects (New) and feeding inbound lines to Handle
//
// Loopback runs a remote runtime in process, which is what tests, the
// twinctl simulator and the examples use.
package twinmesh

import (
	"fmt"
	"io"
	"time"

	"github.com/hupe1980/twinmesh/class"
	"github.com/hupe1980/twinmesh/config"
	"github.com/hupe1980/twinmesh/logging"
	"github.com/hupe1980/twinmesh/loop"
	"github.com/hupe1980/twinmesh/serialize"
	"github.com/hupe1980/twinmesh/session"
	"github.com/hupe1980/twinmesh/twin"
)

// Options configures a Mesh.
type Options struct {
	// Catalog holds the declared classes. Defaults to class.Default.
	Catalog *class.Catalog
	// CoalesceDelay delays the drain of inbound remote events.
	CoalesceDelay time.Duration
	// Serializer provides shared revivers. Defaults to serialize.Default.
	Serializer *serialize.Serializer
	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger
}

// Mesh is the host side of a process.
type Mesh struct {
	opts     Options
	loop     *loop.Loop
	host     *twin.Runtime
	sessions *session.Manager
}

// New creates a Mesh with optional overrides.
func New(optFns ...func(o *Options)) *Mesh {
	opts := Options{
		Catalog:    class.Default,
		Serializer: serialize.Default,
		Logger:     logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	opts.Logger = logging.OrNoOp(opts.Logger)

	m := &Mesh{
		opts:     opts,
		loop:     loop.New(),
		sessions: session.NewManager(opts.Logger),
	}
	m.host = twin.NewHostRuntime(func(o *twin.Options) {
		o.Catalog = opts.Catalog
		o.Scheduler = m.loop
		o.CoalesceDelay = opts.CoalesceDelay
		o.Serializer = opts.Serializer
		o.Logger = opts.Logger
		o.DefaultSession = m.defaultSession
	})
	return m
}

// NewFromConfig creates a Mesh from loaded settings, logging to out, and
// declares every configured manifest in a fresh catalog.
func NewFromConfig(cfg config.Config, out io.Writer, bind class.HandlerBinder) (*Mesh, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger := cfg.Logger(out)
	m := New(func(o *Options) {
		o.Catalog = class.NewCatalog(func(co *class.CatalogOptions) { co.Logger = logger })
		o.CoalesceDelay = cfg.Events.CoalesceDelay
		o.Logger = logger
	})
	for _, path := range cfg.Classes.Manifests {
		if _, err := m.LoadManifest(path, bind); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Mesh) defaultSession() twin.Session {
	s := m.sessions.Default()
	if s == nil {
		return nil
	}
	return s
}

// Host returns the host runtime.
func (m *Mesh) Host() *twin.Runtime { return m.host }

// Catalog returns the class catalog.
func (m *Mesh) Catalog() *class.Catalog { return m.opts.Catalog }

// Sessions returns the session manager.
func (m *Mesh) Sessions() *session.Manager { return m.sessions }

// Loop returns the loop running host side deferred work.
func (m *Mesh) Loop() *loop.Loop { return m.loop }

// Declare declares a class in the mesh catalog.
func (m *Mesh) Declare(decl class.Declaration) (*class.Descriptor, error) {
	return m.opts.Catalog.Declare(decl)
}

// LoadManifest declares the classes of a TOML manifest file.
func (m *Mesh) LoadManifest(path string, bind class.HandlerBinder) ([]*class.Descriptor, error) {
	mf, err := class.LoadManifest(path)
	if err != nil {
		return nil, err
	}
	return mf.Declare(m.opts.Catalog, bind)
}

// Connect opens a session writing to t. The first session becomes the
// default one.
func (m *Mesh) Connect(t session.Transport, optFns ...func(o *session.Options)) *session.Session {
	return m.sessions.Create(t, optFns...)
}

// New constructs a host object of the named class on the default session.
func (m *Mesh) New(className string, values map[string]any) (*twin.Object, error) {
	desc, err := m.opts.Catalog.Resolve(className)
	if err != nil {
		return nil, err
	}
	return m.host.New(desc, twin.WithValues(values))
}

// Handle applies a command line received from a remote runtime.
func (m *Mesh) Handle(line string) error { return m.host.Handle(line) }

// Close closes every session and stops the loop.
func (m *Mesh) Close() {
	m.sessions.CloseAll()
	m.loop.Close()
}

// Direction tags a traced command line.
type Direction string

const (
	// Down is host to remote.
	Down Direction = "down"
	// Up is remote to host.
	Up Direction = "up"
)

// LoopbackOptions configures a Loopback.
type LoopbackOptions struct {
	// Trace receives every line crossing the loopback.
	Trace func(dir Direction, line string)
	// SessionID overrides the generated session id.
	SessionID string
}

// Loopback is an in-process remote runtime connected to the mesh through
// its own session.
type Loopback struct {
	mesh    *Mesh
	session *session.Session
	remote  *twin.Runtime
	loop    *loop.Loop
	down    *session.QueueTransport
	up      *session.QueueTransport
	trace   func(dir Direction, line string)
}

// Loopback opens a session backed by an in-process remote runtime.
func (m *Mesh) Loopback(optFns ...func(o *LoopbackOptions)) *Loopback {
	var opts LoopbackOptions
	for _, fn := range optFns {
		fn(&opts)
	}
	lb := &Loopback{
		mesh:  m,
		loop:  loop.New(),
		down:  session.NewQueueTransport(),
		up:    session.NewQueueTransport(),
		trace: opts.Trace,
	}
	lb.session = m.Connect(lb.down, func(o *session.Options) { o.ID = opts.SessionID })
	uplink := session.New(lb.up, func(o *session.Options) { o.Logger = m.opts.Logger })
	lb.remote = twin.NewRemoteRuntime(uplink, func(o *twin.Options) {
		o.Catalog = m.opts.Catalog
		o.Scheduler = lb.loop
		o.CoalesceDelay = m.opts.CoalesceDelay
		o.Serializer = m.opts.Serializer
		o.Logger = m.opts.Logger
	})
	return lb
}

// Session returns the host side session of the loopback.
func (lb *Loopback) Session() *session.Session { return lb.session }

// Remote returns the in-process remote runtime.
func (lb *Loopback) Remote() *twin.Runtime { return lb.remote }

// Twin returns the remote twin of a host object, or nil.
func (lb *Loopback) Twin(o *twin.Object) *twin.Object { return lb.remote.Lookup(o.ID()) }

// Flush delivers queued lines in both directions and runs pending deferred
// work on both loops until everything is quiet. Timers with a positive
// coalesce delay are not waited for.
func (lb *Loopback) Flush() error {
	for {
		down := lb.down.Drain()
		up := lb.up.Drain()
		if len(down) == 0 && len(up) == 0 && lb.loop.Len() == 0 && lb.mesh.loop.Len() == 0 {
			return nil
		}
		for _, line := range down {
			lb.traceLine(Down, line)
			if err := lb.remote.Handle(line); err != nil {
				return fmt.Errorf("remote: %w", err)
			}
		}
		for _, line := range up {
			lb.traceLine(Up, line)
			if err := lb.mesh.host.Handle(line); err != nil {
				return fmt.Errorf("host: %w", err)
			}
		}
		lb.loop.RunPending()
		lb.mesh.loop.RunPending()
	}
}

func (lb *Loopback) traceLine(dir Direction, line string) {
	if lb.trace != nil {
		lb.trace(dir, line)
	}
}
