package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewInvalidLevel(t *testing.T) {
	_, err := New(Config{Level: "verbose", OutputPaths: []string{"stdout"}})
	assert.Error(t, err)
}

func TestNewParsesLevels(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error"} {
		logger, err := New(Config{Level: level, OutputPaths: []string{"stdout"}})
		require.NoError(t, err, level)
		assert.NotNil(t, logger)
	}
}

func TestNewDefault(t *testing.T) {
	logger := NewDefault()
	require.NotNil(t, logger)
	assert.NotPanics(t, func() { logger.Info("ready") })
}

func TestChildLoggersKeepWrapperType(t *testing.T) {
	l := NewNop()
	assert.IsType(t, &Logger{}, l.With(zap.String("key", "value")))
	assert.IsType(t, &Logger{}, l.Named("child"))
}
