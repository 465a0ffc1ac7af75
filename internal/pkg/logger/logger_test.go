package logger

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewLogger_Development(t *testing.T) {
	logger := NewLogger("development")
	require.NotNil(t, logger)

	logger.Info("test message")
}

func TestNewLogger_Production(t *testing.T) {
	logger := NewLogger("production")
	require.NotNil(t, logger)

	logger.Info("test message")
}

func TestNewLogger_WithLogLevel(t *testing.T) {
	os.Setenv("LOG_LEVEL", "warn")
	defer os.Unsetenv("LOG_LEVEL")

	logger := NewLogger("development")
	require.NotNil(t, logger)
}

func TestNewLogger_WithInvalidLogLevel(t *testing.T) {
	os.Setenv("LOG_LEVEL", "loudest")
	defer os.Unsetenv("LOG_LEVEL")

	// 無効なレベルでも既定値で動作する
	logger := NewLogger("development")
	require.NotNil(t, logger)
}

func TestGetSet(t *testing.T) {
	originalLogger := Get()
	defer Set(originalLogger)

	newLogger := zap.NewNop()
	Set(newLogger)

	assert.Equal(t, newLogger, Get())
}
