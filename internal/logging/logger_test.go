package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"docrag/config"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.LoggingConfig
		level   zapcore.Level
		wantErr bool
	}{
		{name: "defaults", cfg: config.LoggingConfig{}, level: zapcore.InfoLevel},
		{name: "debug console", cfg: config.LoggingConfig{Level: "debug", Format: "console"}, level: zapcore.DebugLevel},
		{name: "warn json", cfg: config.LoggingConfig{Level: "warn", Format: "json"}, level: zapcore.WarnLevel},
		{name: "bad level", cfg: config.LoggingConfig{Level: "loud"}, wantErr: true},
		{name: "bad format", cfg: config.LoggingConfig{Format: "xml"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := New(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, logger.Core().Enabled(tt.level))
			if tt.level > zapcore.DebugLevel {
				assert.False(t, logger.Core().Enabled(tt.level-1))
			}
		})
	}
}
