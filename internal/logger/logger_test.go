package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/naka-gawa/copilot-velocity/internal/config"
)

func TestNew(t *testing.T) {
	testCases := []struct {
		name          string
		cfg           config.LogConfig
		verbose       bool
		expectedLevel zapcore.Level
	}{
		{name: "console warn", cfg: config.LogConfig{Level: "warn", Format: "console"}, expectedLevel: zapcore.WarnLevel},
		{name: "json info", cfg: config.LogConfig{Level: "info", Format: "json"}, expectedLevel: zapcore.InfoLevel},
		{name: "verbose overrides level", cfg: config.LogConfig{Level: "error", Format: "json"}, verbose: true, expectedLevel: zapcore.DebugLevel},
		{name: "unparseable level falls back to warn", cfg: config.LogConfig{Level: "loud", Format: "console"}, expectedLevel: zapcore.WarnLevel},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			log, err := New(tc.cfg, tc.verbose)
			require.NoError(t, err)
			require.NotNil(t, log)
			assert.Equal(t, tc.expectedLevel, log.Level())
		})
	}
}
