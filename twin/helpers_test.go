package twin

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hupe1980/twinmesh/class"
	"github.com/hupe1980/twinmesh/internal/testutil"
	"github.com/hupe1980/twinmesh/session"
)

// pair wires a host and a remote runtime in process. Host commands travel
// through a real session, remote commands through a recorder.
type pair struct {
	t           *testing.T
	catalog     *class.Catalog
	classes     map[string]*class.Descriptor
	host        *Runtime
	remote      *Runtime
	hostSched   *testutil.ManualScheduler
	remoteSched *testutil.ManualScheduler
	sess        *session.Session
	toRemote    *session.QueueTransport
	toHost      *testutil.Recorder
}

func newPair(t *testing.T, decls ...class.Declaration) *pair {
	t.Helper()
	p := &pair{
		t:           t,
		catalog:     class.NewCatalog(),
		classes:     map[string]*class.Descriptor{},
		hostSched:   &testutil.ManualScheduler{},
		remoteSched: &testutil.ManualScheduler{},
		toRemote:    session.NewQueueTransport(),
		toHost:      &testutil.Recorder{},
	}
	for _, d := range decls {
		desc, err := p.catalog.Declare(d)
		require.NoError(t, err)
		p.classes[desc.Name()] = desc
	}
	p.sess = session.New(p.toRemote)
	p.host = NewHostRuntime(func(o *Options) {
		o.Catalog = p.catalog
		o.Scheduler = p.hostSched
		o.DefaultSession = func() Session { return p.sess }
	})
	p.remote = NewRemoteRuntime(p.toHost, func(o *Options) {
		o.Catalog = p.catalog
		o.Scheduler = p.remoteSched
	})
	return p
}

func (p *pair) new(name string, optFns ...func(o *NewOptions)) *Object {
	p.t.Helper()
	o, err := p.host.New(p.classes[name], optFns...)
	require.NoError(p.t, err)
	return o
}

// flush exchanges commands until both directions are quiet.
func (p *pair) flush() {
	p.t.Helper()
	for range 10 {
		down := p.toRemote.Drain()
		up := p.toHost.Take()
		if len(down) == 0 && len(up) == 0 {
			return
		}
		require.NoError(p.t, testutil.Pump(down, p.remote.Handle))
		require.NoError(p.t, testutil.Pump(up, p.host.Handle))
	}
	p.t.Fatal("commands kept flowing")
}

func (p *pair) twin(o *Object) *Object {
	p.t.Helper()
	tw := p.remote.Lookup(o.ID())
	require.NotNil(p.t, tw, "no twin for %s", o.ID())
	return tw
}

func counterDecl(onCount class.HandlerFunc) class.Declaration {
	return testutil.NewDeclarationBuilder("Counter").
		HostProperty("count", 0, class.Int).
		RemoteProperty("label", "n/a", class.String).
		HostEmitter("reset").
		RemoteHandler("on_count", onCount, "count").
		Build()
}
