package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"reel-quizzer/internal/config"
)

func TestGet_BeforeInitialize(t *testing.T) {
	require.NotNil(t, Get())
	Get().Info("discarded")
}

func TestNew_Levels(t *testing.T) {
	l, err := New(config.LoggerConfig{Env: "production", Level: "debug"})
	require.NoError(t, err)
	assert.True(t, l.Core().Enabled(zapcore.DebugLevel))
	assert.True(t, l.Core().Enabled(zapcore.ErrorLevel))

	l, err = New(config.LoggerConfig{Env: "development"})
	require.NoError(t, err)
	assert.False(t, l.Core().Enabled(zapcore.DebugLevel))
	assert.True(t, l.Core().Enabled(zapcore.InfoLevel))

	l, err = New(config.LoggerConfig{Level: "error"})
	require.NoError(t, err)
	assert.False(t, l.Core().Enabled(zapcore.WarnLevel))
	assert.True(t, l.Core().Enabled(zapcore.ErrorLevel))
}

func TestInitialize_InvalidLevel(t *testing.T) {
	before := Get()
	err := Initialize(config.LoggerConfig{Level: "loud"})
	assert.Error(t, err)
	assert.Same(t, before, Get())
}
