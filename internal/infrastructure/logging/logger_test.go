package logging

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNewLevels(t *testing.T) {
	tests := []struct {
		level string
		want  zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"info", zapcore.InfoLevel},
		{"WARN", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			logger, err := New(Config{Level: tt.level})
			require.NoError(t, err)
			assert.True(t, logger.Core().Enabled(tt.want))
			if tt.want > zapcore.DebugLevel {
				assert.False(t, logger.Core().Enabled(tt.want-1))
			}
		})
	}
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, err := New(Config{Level: "chatty"})
	assert.ErrorContains(t, err, `unknown log level "chatty"`)
}

func TestFromConfigFallsBackToInfo(t *testing.T) {
	logger := FromConfig(Config{Level: "chatty"})
	require.NotNil(t, logger)
	assert.Equal(t, "info", logger.Level())

	logger = FromConfig(Config{Level: "debug", File: filepath.Join(t.TempDir(), "missing", "x.log")})
	assert.Equal(t, "info", logger.Level())
}

func TestSetLevel(t *testing.T) {
	logger, err := New(Config{Level: "info"})
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zapcore.DebugLevel))

	require.NoError(t, logger.SetLevel("debug"))
	assert.True(t, logger.Core().Enabled(zapcore.DebugLevel))
	assert.Equal(t, "debug", logger.Level())

	assert.Error(t, logger.SetLevel("loud"))
	assert.Equal(t, "debug", logger.Level())
}

func TestFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "menuterm.log")
	logger, err := New(Config{Level: "info", File: path})
	require.NoError(t, err)

	logger.Info("Started shell", zap.String("session_id", "abc"))
	logger.Debug("hidden")
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(data)
	assert.Contains(t, out, `"message":"Started shell"`)
	assert.Contains(t, out, `"session_id":"abc"`)
	assert.NotContains(t, out, "hidden")
}

func TestLevelHandler(t *testing.T) {
	logger, err := New(Config{Level: "info"})
	require.NoError(t, err)
	h := logger.LevelHandler()

	req := httptest.NewRequest(http.MethodPut, "/", strings.NewReader(`{"level":"error"}`))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "error", logger.Level())

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.JSONEq(t, `{"level":"error"}`, w.Body.String())
}

func TestNopLevel(t *testing.T) {
	logger := NewNop()
	assert.False(t, logger.Core().Enabled(zapcore.ErrorLevel))
	assert.NoError(t, logger.SetLevel("debug"))
}
