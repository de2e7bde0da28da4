package logger

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log, err := New("warn", &buf)
	require.NoError(t, err)

	log.Debug("hidden")
	log.Warn("shown", zap.String("op", "client.search_documents"))
	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
	assert.Contains(t, out, "client.search_documents")
}

func TestParseLevel(t *testing.T) {
	lvl, err := ParseLevel("")
	require.NoError(t, err)
	assert.Equal(t, zapcore.WarnLevel, lvl)

	lvl, err = ParseLevel("DEBUG")
	require.NoError(t, err)
	assert.Equal(t, zapcore.DebugLevel, lvl)

	_, err = ParseLevel("loud")
	assert.Error(t, err)
}

func TestJSONLogger(t *testing.T) {
	var buf bytes.Buffer
	log, err := NewJSON("info", &buf)
	require.NoError(t, err)
	log.Info("listening", zap.String("addr", ":0"))
	assert.Contains(t, buf.String(), `"addr":":0"`)
}
