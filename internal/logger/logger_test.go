package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_TextLevels(t *testing.T) {
	var buf bytes.Buffer

	log := New("warn", "text", &buf)
	log.Info("hidden")
	log.Warn("shown", "dataset", "fda")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
	assert.Contains(t, out, "dataset=fda")
}

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer

	New("info", "json", &buf).With("dataset", "gras").Info("processed", "records", 3)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "processed", entry["msg"])
	assert.Equal(t, "gras", entry["dataset"])
	assert.InDelta(t, 3, entry["records"], 0)
}

func TestSetLevel_AppliesToChildren(t *testing.T) {
	var buf bytes.Buffer

	parent := New("error", "text", &buf)
	child := parent.With("dataset", "cdc")

	child.Debug("before")
	parent.SetLevel("debug")
	child.Debug("after")

	assert.NotContains(t, buf.String(), "before")
	assert.Contains(t, buf.String(), "after")
}
