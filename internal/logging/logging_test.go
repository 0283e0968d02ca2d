package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNew_Modes(t *testing.T) {
	for _, mode := range []string{ModeDevelopment, ModeProduction, "prod", "unknown"} {
		logger, err := New(mode, false)
		require.NoError(t, err, mode)
		assert.NotNil(t, logger)
	}
}

func TestNew_VerboseEnablesDebug(t *testing.T) {
	logger, err := New(ModeDevelopment, true)
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zap.DebugLevel))

	quiet, err := New(ModeDevelopment, false)
	require.NoError(t, err)
	assert.False(t, quiet.Core().Enabled(zap.DebugLevel))
}

func TestOrNop(t *testing.T) {
	assert.NotNil(t, OrNop(nil))
	l := zap.NewExample()
	assert.Same(t, l, OrNop(l))
}
