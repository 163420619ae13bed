package twin

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/twinmesh/class"
	"github.com/hupe1980/twinmesh/event"
	"github.com/hupe1980/twinmesh/internal/testutil"
	"github.com/hupe1980/twinmesh/wire"
)

func TestEmit_NoForwardWithoutInterest(t *testing.T) {
	p := newPair(t, counterDecl(nil))
	o := p.new("Counter")
	p.flush()
	tw := p.twin(o)

	require.NoError(t, o.Emit("reset", nil))
	assert.Zero(t, p.toRemote.Len())

	var got []event.Event
	disconnect := tw.Connect("reset", func(ev event.Event) { got = append(got, ev) })
	assert.Equal(t, []wire.Command{wire.RegEvents(o.ID(), `["count","reset"]`)}, p.toHost.Commands())
	p.flush()
	assert.Equal(t, []string{"count", "reset"}, o.Interest())

	require.NoError(t, o.Emit("reset", map[string]any{"to": 0}))
	lines := p.toRemote.Drain()
	require.Len(t, lines, 1)
	assert.Equal(t, `EVENT `+o.ID()+` reset {"to":0}`, lines[0])

	disconnect()
	disconnect()
	p.flush()
	assert.Equal(t, []string{"count"}, o.Interest())

	require.NoError(t, o.Emit("reset", nil))
	assert.Zero(t, p.toRemote.Len())
	assert.Empty(t, got)
}

func TestEmit_DeclaredRemoteInterestBeforeAnnounce(t *testing.T) {
	var pings []any
	decl := testutil.NewDeclarationBuilder("Pinger").
		HostEmitter("ping").
		HostHooks(class.Hooks{Init: func(self class.Instance) error {
			return self.Emit("ping", map[string]any{"n": 0})
		}}).
		RemoteHandler("on_ping", func(_ class.Instance, ev event.Event) { pings = append(pings, ev.Get("n")) }, "ping").
		Build()
	p := newPair(t, decl)
	o := p.new("Pinger")
	assert.Equal(t, []string{"ping"}, o.Interest())

	require.NoError(t, o.Emit("ping", map[string]any{"n": 1}))
	lines := p.toRemote.Drain()
	var events []string
	for _, line := range lines {
		cmd, err := wire.Parse(line)
		require.NoError(t, err)
		if cmd.Verb == wire.VerbEvent {
			events = append(events, line)
		}
	}
	assert.Equal(t, []string{
		`EVENT ` + o.ID() + ` ping {"n":0}`,
		`EVENT ` + o.ID() + ` ping {"n":1}`,
	}, events)

	require.NoError(t, testutil.Pump(lines, p.remote.Handle))
	p.flush()
	assert.Equal(t, 1, p.remoteSched.Fire())
	assert.Equal(t, []any{0, 1}, pings)
}

func TestEmit_LocalHandlersInOrder(t *testing.T) {
	p := newPair(t, counterDecl(nil))
	o := p.new("Counter")

	var order []string
	o.Connect("reset", func(event.Event) { order = append(order, "first") })
	o.Connect("reset", func(event.Event) { order = append(order, "second") })
	require.NoError(t, o.Emit("reset", nil))
	assert.Equal(t, []string{"first", "second"}, order)
	assert.Equal(t, []string{"reset"}, o.HandlerTypes())
}

func TestEmit_ProxyEmitterIsWrongSide(t *testing.T) {
	p := newPair(t, counterDecl(nil))
	o := p.new("Counter")
	p.flush()

	err := p.twin(o).Emit("reset", nil)
	assert.ErrorIs(t, err, ErrWrongSide)
	assert.Empty(t, p.toHost.Lines())
}

func TestInbound_BurstDrainsOnce(t *testing.T) {
	p := newPair(t, counterDecl(nil))
	o := p.new("Counter")
	o.Connect("ping", func(event.Event) {})
	p.flush()
	tw := p.twin(o)
	assert.Equal(t, []string{"ping"}, tw.Interest())

	var got []event.Event
	tw.Connect("ping", func(ev event.Event) { got = append(got, ev) })
	p.flush()

	for n := 1; n <= 3; n++ {
		require.NoError(t, o.Emit("ping", map[string]any{"n": n}))
	}
	lines := p.toRemote.Drain()
	require.Len(t, lines, 3)
	for _, line := range lines {
		require.NoError(t, p.remote.Handle(line))
	}

	assert.Empty(t, got, "events must not be delivered on arrival")
	assert.Equal(t, 1, p.remoteSched.Len())
	assert.Equal(t, 3, tw.inbox.Pending())

	assert.Equal(t, 1, p.remoteSched.Fire())
	require.Len(t, got, 3)
	for i, ev := range got {
		assert.Equal(t, i+1, ev.Get("n"))
		assert.True(t, ev.Remote)
		assert.Equal(t, o.ID(), ev.Source)
	}
	assert.Equal(t, 1, tw.inbox.Cycles())
	assert.Empty(t, p.toHost.Commands(wire.VerbEvent), "remote events are never forwarded back")

	require.NoError(t, o.Emit("ping", map[string]any{"n": 4}))
	require.NoError(t, testutil.Pump(p.toRemote.Drain(), p.remote.Handle))
	assert.Equal(t, 1, p.remoteSched.Fire())
	assert.Len(t, got, 4)
	assert.Equal(t, 2, tw.inbox.Cycles())
}

func TestInbound_NonRecordPayload(t *testing.T) {
	p := newPair(t, counterDecl(nil))
	o := p.new("Counter")
	p.flush()
	tw := p.twin(o)

	var got []event.Event
	tw.Connect("value", func(ev event.Event) { got = append(got, ev) })
	tw.Connect("empty", func(ev event.Event) { got = append(got, ev) })
	require.NoError(t, p.remote.Handle(`EVENT `+o.ID()+` value [1, 2]`))
	require.NoError(t, p.remote.Handle(`EVENT `+o.ID()+` empty null`))
	p.remoteSched.Fire()

	require.Len(t, got, 2)
	assert.Equal(t, []any{1, 2}, got[0].Get("value"))
	assert.Nil(t, got[1].Data)
	assert.Error(t, p.remote.Handle(`EVENT `+o.ID()+` value {broken`))
}

func TestCoalescer(t *testing.T) {
	sched := &testutil.ManualScheduler{}
	var batches [][]event.Event
	c := NewCoalescer(sched, 5*time.Millisecond, func(b []event.Event) { batches = append(batches, b) })

	assert.True(t, c.Push(event.Event{Type: "a"}))
	assert.False(t, c.Push(event.Event{Type: "b"}))
	assert.Equal(t, 2, c.Pending())
	assert.Equal(t, 1, sched.Len())
	assert.Equal(t, []time.Duration{5 * time.Millisecond}, sched.Delays())

	sched.Fire()
	require.Len(t, batches, 1)
	assert.Equal(t, "a", batches[0][0].Type)
	assert.Equal(t, "b", batches[0][1].Type)
	assert.Zero(t, c.Pending())

	assert.True(t, c.Push(event.Event{Type: "c"}))
	sched.Fire()
	assert.Len(t, batches, 2)
	assert.Equal(t, 2, c.Cycles())
}
