package logging

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name      string
		cfg       Config
		wantLevel zapcore.Level
		wantErr   bool
	}{
		{name: "production", cfg: DefaultConfig(), wantLevel: zapcore.InfoLevel},
		{name: "development", cfg: DevelopmentConfig(), wantLevel: zapcore.DebugLevel},
		{name: "warn level", cfg: Config{Level: "warn"}, wantLevel: zapcore.WarnLevel},
		{name: "bad level", cfg: Config{Level: "loud"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := New(tt.cfg)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, logger.Core().Enabled(tt.wantLevel))
			assert.False(t, logger.Core().Enabled(tt.wantLevel-1))
		})
	}
}

func TestFromLevelFallsBack(t *testing.T) {
	logger := FromLevel("gitbook", "nonsense", false)
	require.NotNil(t, logger)
	assert.True(t, logger.Core().Enabled(zapcore.InfoLevel))
	assert.False(t, logger.Core().Enabled(zapcore.DebugLevel))

	logger = FromLevel("gitbook", "error", false)
	assert.False(t, logger.Core().Enabled(zapcore.WarnLevel))

	logger = FromLevel("gitbook", "", true)
	assert.True(t, logger.Core().Enabled(zapcore.DebugLevel))
}

func TestServiceField(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.log")
	cfg := DefaultConfig()
	cfg.Service = "gitbook"
	cfg.OutputPaths = []string{path}

	logger, err := New(cfg)
	require.NoError(t, err)
	logger.Named("probe").Info("probed image size", zap.Duration("took", 1500*time.Microsecond))
	require.NoError(t, logger.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var entry map[string]any
	require.NoError(t, json.Unmarshal(data, &entry))
	assert.Equal(t, "gitbook", entry["service"])
	assert.Equal(t, "probe", entry["logger"])
	assert.Equal(t, "probed image size", entry["message"])
	assert.Equal(t, 1.5, entry["took"])
}

func TestNewNop(t *testing.T) {
	logger := NewNop()
	assert.False(t, logger.Core().Enabled(zapcore.ErrorLevel))
}
