package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/amalg/go-sokoban/internal/config"
)

func TestQuietWithoutFileIsNop(t *testing.T) {
	log, err := New(config.LoggingConfig{Level: "debug"}, true)
	require.NoError(t, err)
	assert.False(t, log.Core().Enabled(zapcore.ErrorLevel))
}

func TestLevelApplied(t *testing.T) {
	log, err := New(config.LoggingConfig{Level: "warn", Format: "console"}, false)
	require.NoError(t, err)
	assert.False(t, log.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, log.Core().Enabled(zapcore.WarnLevel))
}

func TestUnknownLevelFallsBackToInfo(t *testing.T) {
	log, err := New(config.LoggingConfig{Level: "chatty"}, false)
	require.NoError(t, err)
	assert.False(t, log.Core().Enabled(zapcore.DebugLevel))
	assert.True(t, log.Core().Enabled(zapcore.InfoLevel))
}

func TestJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sokoban.log")
	log, err := New(config.LoggingConfig{Level: "info", Format: "json", File: path}, true)
	require.NoError(t, err)

	log.Info("level solved")
	require.NoError(t, log.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"level solved"`)
}
