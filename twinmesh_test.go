package twinmesh

import (
	"bytes"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/twinmesh/class"
	"github.com/hupe1980/twinmesh/config"
	"github.com/hupe1980/twinmesh/event"
	"github.com/hupe1980/twinmesh/twin"
)

func newCounterMesh(t *testing.T) *Mesh {
	t.Helper()
	m := New(func(o *Options) { o.Catalog = class.NewCatalog() })
	_, err := m.Declare(class.Declaration{
		Name: "Counter",
		Host: class.Members{
			Properties: []class.PropertyDecl{{Name: "count", Default: 0, Normalize: class.Int}},
			Emitters:   []class.EmitterDecl{{Name: "reset"}},
		},
		Remote: class.Members{
			Properties: []class.PropertyDecl{{Name: "label", Default: "", Normalize: class.String}},
			Emitters:   []class.EmitterDecl{{Name: "clicked"}},
		},
	})
	require.NoError(t, err)
	return m
}

func TestMesh_NoSession(t *testing.T) {
	m := newCounterMesh(t)
	_, err := m.New("Counter", nil)
	assert.ErrorIs(t, err, twin.ErrNoSession)

	_, err = m.New("Missing", nil)
	assert.ErrorIs(t, err, class.ErrUnknownClass)
}

func TestMesh_LoopbackRoundTrip(t *testing.T) {
	m := newCounterMesh(t)
	defer m.Close()

	var trace []string
	lb := m.Loopback(func(o *LoopbackOptions) {
		o.SessionID = "lb"
		o.Trace = func(dir Direction, line string) { trace = append(trace, string(dir)+" "+line) }
	})
	assert.Same(t, lb.Session(), m.Sessions().Default())

	o, err := m.New("Counter", map[string]any{"count": 2})
	require.NoError(t, err)
	require.NoError(t, lb.Flush())

	tw := lb.Twin(o)
	require.NotNil(t, tw)
	v, _ := tw.Get("count")
	assert.Equal(t, 2, v)
	require.NotEmpty(t, trace)
	assert.Contains(t, trace[0], "down DEFINE Counter ")

	var clicks []event.Event
	o.Connect("clicked", func(ev event.Event) { clicks = append(clicks, ev) })
	require.NoError(t, lb.Flush())

	require.NoError(t, tw.Emit("clicked", map[string]any{"x": 1}))
	require.NoError(t, tw.Emit("clicked", map[string]any{"x": 2}))
	require.NoError(t, lb.Flush())

	require.Len(t, clicks, 2)
	assert.True(t, clicks[0].Remote)
	assert.Equal(t, 2, clicks[1].Get("x"))

	require.NoError(t, tw.Set("label", "hello"))
	require.NoError(t, lb.Flush())
	label, _ := o.Get("label")
	assert.Equal(t, "hello", label)
	runtime.KeepAlive(o)
}

func TestNewFromConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "classes.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[[class]]
name = "Slider"

[[class.host.property]]
name = "value"
type = "float"
default = 0.5
`), 0o600))

	cfg := config.DefaultConfig()
	cfg.Classes.Manifests = []string{path}

	var buf bytes.Buffer
	m, err := NewFromConfig(cfg, &buf, nil)
	require.NoError(t, err)
	lb := m.Loopback()

	o, err := m.New("Slider", nil)
	require.NoError(t, err)
	require.NoError(t, lb.Flush())
	v, _ := lb.Twin(o).Get("value")
	assert.Equal(t, 0.5, v)

	cfg.Log.Level = "shout"
	_, err = NewFromConfig(cfg, &buf, nil)
	assert.Error(t, err)
}
