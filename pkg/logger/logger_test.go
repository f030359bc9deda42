package logger

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLevelFilters(t *testing.T) {
	var buf bytes.Buffer
	log, err := NewWithWriter("warn", &buf)
	require.NoError(t, err)

	log.Info("quiet")
	log.Warn("loud", zap.Int("rate", 100))
	require.NoError(t, log.Sync())

	out := buf.String()
	assert.NotContains(t, out, "quiet")
	assert.Contains(t, out, "loud")
	assert.Contains(t, out, "WARN")
	assert.Contains(t, out, `{"rate": 100}`)
}

func TestBadLevel(t *testing.T) {
	_, err := NewWithWriter("chatty", &bytes.Buffer{})
	assert.Error(t, err)
}
