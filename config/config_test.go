package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/twinmesh/logging"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "twinmesh.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("TWINMESH_CONFIG", "")

	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Log, c.Log)
	assert.Zero(t, c.Events.CoalesceDelay)
	assert.Empty(t, c.Classes.Manifests)
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := writeFile(t, `
[log]
level = "warn"
format = "json"

[events]
coalesce_delay = "15ms"

[classes]
manifests = ["a.toml", "b.toml"]
`)
	t.Setenv("TWINMESH_LOG_BACKEND", "zerolog")

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "warn", c.Log.Level)
	assert.Equal(t, "json", c.Log.Format)
	assert.Equal(t, "zerolog", c.Log.Backend)
	assert.Equal(t, 15*time.Millisecond, c.Events.CoalesceDelay)
	assert.Equal(t, []string{"a.toml", "b.toml"}, c.Classes.Manifests)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)

	_, err = Load(writeFile(t, "[log]\nlevel = \"loud\"\n"))
	assert.ErrorContains(t, err, "unknown log level")

	_, err = Load(writeFile(t, "[log]\nbackend = \"logrus\"\n"))
	assert.ErrorContains(t, err, "unknown log backend")
}

func TestConfig_Logger(t *testing.T) {
	var buf bytes.Buffer
	c := DefaultConfig()
	c.Log.Format = "json"
	l := c.Logger(&buf)
	_, ok := l.(*logging.TwinLogger)
	require.True(t, ok)
	l.Info("hello", "k", "v")
	assert.Contains(t, buf.String(), `"k":"v"`)

	buf.Reset()
	c.Log.Backend = "zerolog"
	c.Logger(&buf).Warn("careful")
	assert.Contains(t, buf.String(), "careful")
}
