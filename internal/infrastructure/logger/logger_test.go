package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestConfigPresets(t *testing.T) {
	t.Run("default is console on stdout", func(t *testing.T) {
		cfg := DefaultConfig()
		assert.Equal(t, "info", cfg.Level)
		assert.Equal(t, "console", cfg.Format)
		assert.Equal(t, "stdout", cfg.Output)
		assert.NotEmpty(t, cfg.TimeFormat)
	})

	t.Run("production is json on stdout", func(t *testing.T) {
		cfg := ProductionConfig()
		assert.Equal(t, "info", cfg.Level)
		assert.Equal(t, "json", cfg.Format)
		assert.Equal(t, "stdout", cfg.Output)
	})
}

func TestNew(t *testing.T) {
	cases := []*Config{
		DefaultConfig(),
		ProductionConfig(),
		{Level: "debug", Format: "console", Output: "stderr", TimeFormat: "2006-01-02T15:04:05Z07:00"},
		{Level: "error", Format: "json", Output: "stdout", TimeFormat: "2006-01-02T15:04:05Z07:00"},
	}

	for _, cfg := range cases {
		t.Run(cfg.Format+"/"+cfg.Level, func(t *testing.T) {
			log, err := New(cfg)
			require.NoError(t, err)
			require.NotNil(t, log)
			log.Info("startup check")
		})
	}
}

func TestNew_WritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bva.log")

	log, err := New(&Config{
		Level:      "info",
		Format:     "json",
		Output:     path,
		TimeFormat: "2006-01-02T15:04:05Z07:00",
	})
	require.NoError(t, err)

	log.Info("Product sync started", zap.String("shop_id", "shop-1"))
	require.NoError(t, Sync(log))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Product sync started")
	assert.Contains(t, string(data), "shop-1")
}

func TestNew_LevelFiltersOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bva.log")

	log, err := New(&Config{
		Level:      "warn",
		Format:     "json",
		Output:     path,
		TimeFormat: "2006-01-02T15:04:05Z07:00",
	})
	require.NoError(t, err)

	log.Info("hidden below the configured level")
	log.Warn("visible at the configured level")
	require.NoError(t, Sync(log))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "hidden below")
	assert.Contains(t, string(data), "visible at")
}

func TestZapLevel(t *testing.T) {
	cases := []struct {
		in   string
		want zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"DEBUG", zapcore.DebugLevel},
		{"info", zapcore.InfoLevel},
		{"warn", zapcore.WarnLevel},
		{"warning", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"fatal", zapcore.FatalLevel},
		{"verbose", zapcore.InfoLevel},
		{"", zapcore.InfoLevel},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, zapLevel(tc.in), "level %q", tc.in)
	}
}

func TestOpenSink(t *testing.T) {
	t.Run("standard streams", func(t *testing.T) {
		for _, out := range []string{"stdout", "stderr", "STDOUT"} {
			assert.NotNil(t, openSink(out))
		}
	})

	t.Run("unopenable path falls back without failing", func(t *testing.T) {
		sink := openSink(filepath.Join(t.TempDir(), "missing", "nested", "bva.log"))
		assert.NotNil(t, sink)
	})
}

func TestBuildEncoder(t *testing.T) {
	console := buildEncoder(&Config{Format: "console", TimeFormat: "2006-01-02"})
	jsonEnc := buildEncoder(&Config{Format: "json", TimeFormat: "2006-01-02"})

	assert.NotNil(t, console)
	assert.NotNil(t, jsonEnc)

	// The two encoders must produce different output shapes.
	entry := zapcore.Entry{Level: zapcore.InfoLevel, Message: "ping"}
	jsonBuf, err := jsonEnc.EncodeEntry(entry, nil)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(jsonBuf.String(), "{"))

	consoleBuf, err := console.EncodeEntry(entry, nil)
	require.NoError(t, err)
	assert.False(t, strings.HasPrefix(consoleBuf.String(), "{"))
}
