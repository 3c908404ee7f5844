package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNewWritesJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.log")
	logger, err := New("debug", path)
	require.NoError(t, err)

	logger.Named("explorer").Debug("cycle started")
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"cycle started"`)
	assert.Contains(t, string(data), `"logger":"explorer"`)
	assert.True(t, logger.Core().Enabled(zapcore.DebugLevel))
}

func TestNewLevels(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.log")

	logger, err := New("warn", path)
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, logger.Core().Enabled(zapcore.WarnLevel))

	logger, err = New("chatty", path)
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zapcore.InfoLevel))
	assert.False(t, logger.Core().Enabled(zapcore.DebugLevel))
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "invalid log level")
}

func TestNewBadPath(t *testing.T) {
	_, err := New("info", filepath.Join(t.TempDir(), "missing", "dir", "x.log"))
	assert.Error(t, err)
}
