package twin

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/twinmesh/class"
	"github.com/hupe1980/twinmesh/internal/testutil"
	"github.com/hupe1980/twinmesh/logging"
)

func TestClassOf(t *testing.T) {
	assert.Equal(t, "Counter", ClassOf("Counter12"))
	assert.Equal(t, "My_Widget", ClassOf("My_Widget3"))
	assert.Equal(t, "", ClassOf("42"))
}

func TestRuntime_LogsCommands(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewLogger(&logging.LoggerConfig{Level: logging.LogLevelDebug, Format: "json", Output: &buf}).WithComponent("host")

	c := class.NewCatalog()
	desc, err := c.Declare(counterDecl(nil))
	require.NoError(t, err)
	rec := &testutil.Recorder{}
	rt := NewHostRuntime(func(o *Options) {
		o.Catalog = c
		o.Logger = logger
		o.Scheduler = &testutil.ManualScheduler{}
	})

	o, err := rt.New(desc, WithSession(rec))
	require.NoError(t, err)
	assert.Equal(t, class.Host, o.Side())
	assert.Same(t, desc, o.Class())

	out := buf.String()
	assert.Contains(t, out, `"verb":"INSTANTIATE"`)
	assert.Contains(t, out, `"direction":"out"`)
	assert.Contains(t, out, `"component":"host"`)
}

func TestRuntime_Accessors(t *testing.T) {
	rt := NewRemoteRuntime(nil)
	assert.Equal(t, class.Remote, rt.Side())
	assert.Same(t, class.Default, rt.Catalog())
	assert.NotNil(t, rt.Scheduler())
	assert.Empty(t, rt.IDs())
	assert.False(t, rt.Defined("Counter"))

	_, ok := rt.Codec().Reviver(TypeTag)
	assert.True(t, ok)
}
