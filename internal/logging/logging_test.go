package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"trace":   LevelTrace,
		"DEBUG":   LevelDebug,
		"":        LevelInfo,
		"warning": LevelWarn,
		"error":   LevelError,
	}
	for in, want := range cases {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseLevel("loud")
	assert.Error(t, err)
}

func TestFactory_JSONWithComponentAndCustomLevel(t *testing.T) {
	var buf bytes.Buffer
	f := NewFactory(&buf, LevelTrace, "json")
	f.Logger("dispatcher").Log(context.Background(), LevelTrace, "hello", "k", "v")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "TRACE", entry["level"])
	assert.Equal(t, "dispatcher", entry["component"])
	assert.Equal(t, "v", entry["k"])
}

func TestFactory_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	f := NewFactory(&buf, LevelWarn, "text")
	f.Logger("x").Info("dropped")
	assert.Empty(t, buf.String())

	f.Logger("x").Warn("kept")
	assert.Contains(t, buf.String(), "level=WARN")
	assert.Contains(t, buf.String(), "component=x")
}
