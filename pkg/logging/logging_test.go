package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	logger, zapLogger, err := New(Options{AppName: "fern", Level: "debug"})
	require.NoError(t, err)
	require.NotNil(t, logger)
	assert.True(t, zapLogger.Core().Enabled(-1))

	logger.WithField("test", true).Debug("logger works")
}

func TestNewInvalidLevel(t *testing.T) {
	_, _, err := New(Options{Level: "loud"})
	assert.Error(t, err)
}

func TestNoop(t *testing.T) {
	assert.NotPanics(t, func() {
		Noop().WithFields(map[string]any{"a": 1}).Info("dropped")
	})
}
