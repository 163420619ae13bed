package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ Logger = (*SlogAdapter)(nil)
	_ Logger = (*ZerologAdapter)(nil)
	_ Logger = (*TwinLogger)(nil)
	_ Logger = NoOpLogger{}
	_ Logger = fieldLogger{}
)

func TestParseLevel(t *testing.T) {
	lvl, ok := ParseLevel(" Warning ")
	assert.True(t, ok)
	assert.Equal(t, LogLevelWarn, lvl)

	lvl, ok = ParseLevel("")
	assert.False(t, ok)
	assert.Equal(t, LogLevelInfo, lvl)

	lvl, ok = ParseLevel("trace")
	assert.True(t, ok)
	assert.Equal(t, LogLevelDebug, lvl)
}

func TestTwinLogger_ContextAttrs(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&LoggerConfig{Level: LogLevelDebug, Format: "json", Output: &buf})
	l.WithComponent("host").WithSession("s-1").WithInstance("Counter1").Info("hello", "prop", "count")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "hello", entry["msg"])
	assert.Equal(t, "host", entry["component"])
	assert.Equal(t, "s-1", entry["session_id"])
	assert.Equal(t, "Counter1", entry["instance_id"])
	assert.Equal(t, "count", entry["prop"])
}

func TestTwinLogger_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&LoggerConfig{Level: LogLevelWarn, Format: "text", Output: &buf})
	l.Info("dropped")
	l.LogCommand("out", "SETPROP", "Counter1", 10)
	assert.Zero(t, buf.Len())
	l.Warn("kept")
	assert.Contains(t, buf.String(), "kept")
}

func TestTwinLogger_CloneIsolation(t *testing.T) {
	base := NewSlogLogger(LogLevelInfo, "json", false)
	child := base.WithContext("k", "v")
	assert.Empty(t, base.context)
	assert.Equal(t, "v", child.context["k"])
}

func TestZerologAdapter_Fields(t *testing.T) {
	var buf bytes.Buffer
	l := NewZerologAdapter(zerolog.New(&buf))
	l.Warn("proxy skipped", "class", "Widget", "dangling")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "Widget", entry["class"])
	assert.Equal(t, "dangling", entry["extra"])
}

func TestOrNoOp(t *testing.T) {
	assert.IsType(t, NoOpLogger{}, OrNoOp(nil))
	l := NewDefaultSlogLogger()
	assert.Same(t, l, OrNoOp(l))
}

func TestForSessionAndInstance(t *testing.T) {
	var buf bytes.Buffer
	tl := NewLogger(&LoggerConfig{Level: LogLevelDebug, Format: "json", Output: &buf})
	ForInstance(ForSession(tl, "s-1"), "Counter1").Warn("dropped")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "s-1", entry["session_id"])
	assert.Equal(t, "Counter1", entry["instance_id"])
	assert.Empty(t, tl.sessionID, "the base logger is not modified")

	buf.Reset()
	zl := NewZerologAdapter(zerolog.New(&buf))
	ForInstance(ForSession(zl, "s-2"), "Gauge3").Info("sent", "bytes", 12)
	entry = nil
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "s-2", entry["session_id"])
	assert.Equal(t, "Gauge3", entry["instance_id"])
	assert.Equal(t, float64(12), entry["bytes"])

	assert.NotPanics(t, func() { ForSession(nil, "s-3").Debug("quiet") })
}
