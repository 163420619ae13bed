package commands

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const manifest = `
[[class]]
name = "Counter"

[[class.host.property]]
name = "count"
type = "int"
default = 0

[[class.remote.handler]]
name = "on_count"
types = ["count"]
`

func run(t *testing.T, args ...string) string {
	t.Helper()
	t.Chdir(t.TempDir())
	t.Setenv("TWINMESH_CONFIG", "")
	require.NoError(t, os.WriteFile("classes.toml", []byte(manifest), 0o600))

	var out bytes.Buffer
	root := NewRootCmd()
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(args)
	require.NoError(t, root.Execute())
	return out.String()
}

func TestDescribe(t *testing.T) {
	out := run(t, "describe", "classes.toml")
	assert.Contains(t, out, "class Counter")
	assert.Contains(t, out, "  remote:")
	assert.Contains(t, out, "listens  count")
	assert.Regexp(t, `property count\s+proxy`, out)
}

func TestSimulate(t *testing.T) {
	out := run(t, "simulate", "classes.toml", "Counter", "--set", "count=5")
	assert.Contains(t, out, "-> DEFINE Counter ")
	assert.Regexp(t, `-> INSTANTIATE Counter\d+ \[\]`, out)
	assert.Regexp(t, `<- REG_EVENTS Counter\d+ \["count"\]`, out)
	assert.Regexp(t, `-> SETPROP Counter\d+ count 5`, out)
	assert.Contains(t, out, "map[count:5]")
}

func TestSplitAssignment(t *testing.T) {
	name, v, err := splitAssignment(`data={"a":1}`)
	require.NoError(t, err)
	assert.Equal(t, "data", name)
	assert.Equal(t, map[string]any{"a": 1}, v)

	_, v, err = splitAssignment("label=plain text")
	require.NoError(t, err)
	assert.Equal(t, "plain text", v)

	_, _, err = splitAssignment("=1")
	assert.Error(t, err)
	_, _, err = splitAssignment("novalue")
	assert.Error(t, err)
}
