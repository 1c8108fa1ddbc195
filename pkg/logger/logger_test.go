package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBufferLogger(level Level) (*Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return New(Options{Output: &buf, Level: level}), &buf
}

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestInfoEmitsFlatJSON(t *testing.T) {
	log, buf := newBufferLogger(LevelDebug)

	log.Info("task stored", TaskID("t-1"), Int("count", 3))

	entry := decodeLine(t, buf)
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "task stored", entry["msg"])
	assert.Equal(t, "t-1", entry["task_id"])
	assert.Equal(t, float64(3), entry["count"])
	assert.NotEmpty(t, entry["ts"])
}

func TestLevelThresholdSuppresses(t *testing.T) {
	log, buf := newBufferLogger(LevelWarn)

	log.Debug("hidden")
	log.Info("hidden too")
	assert.Zero(t, buf.Len())

	log.Error("visible", Err(errors.New("boom")))
	entry := decodeLine(t, buf)
	assert.Equal(t, "boom", entry["error"])
}

func TestWithCarriesFields(t *testing.T) {
	log, buf := newBufferLogger(LevelInfo)
	child := log.With(Component("repository"), UserID("alice"))

	child.Info("saved")

	entry := decodeLine(t, buf)
	assert.Equal(t, "repository", entry["component"])
	assert.Equal(t, "alice", entry["user_id"])

	// Parent stays clean.
	buf.Reset()
	log.Info("plain")
	entry = decodeLine(t, buf)
	assert.NotContains(t, entry, "component")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, LevelWarn, ParseLevel(" warning "))
	assert.Equal(t, LevelError, ParseLevel("error"))
	assert.Equal(t, LevelInfo, ParseLevel("bogus"))
}

func TestDurationAndLatencyFormat(t *testing.T) {
	log, buf := newBufferLogger(LevelInfo)
	log.Info("done", Latency(1500*time.Millisecond))
	entry := decodeLine(t, buf)
	assert.Equal(t, "1.5s", entry["latency"])
}
