package logger

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
)

// TestInit tests logger initialization
// TestInit 测试日志初始化
func TestInit(t *testing.T) {
	Init(LoggingConfig{Enabled: false, Level: "info"})

	log := Get(nil)
	require.NotNil(t, log)
	assert.True(t, log.Desugar().Core().Enabled(zapcore.InfoLevel))
	assert.False(t, log.Desugar().Core().Enabled(zapcore.DebugLevel))

	// Sync may return error on stderr, which is expected
	_ = Sync()
}

func TestNew_Levels(t *testing.T) {
	tests := []struct {
		level string
		want  zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"WARN", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"", zapcore.InfoLevel},
		{"verbose", zapcore.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			assert.Equal(t, tt.want, parseLevel(tt.level))
			l := New(LoggingConfig{Level: tt.level})
			assert.True(t, l.Desugar().Core().Enabled(tt.want))
		})
	}
}

// TestNew_FileRotation writes through lumberjack into a temp dir.
// TestNew_FileRotation 通过 lumberjack 写入临时目录。
func TestNew_FileRotation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "netxlog.log")
	l := New(LoggingConfig{Enabled: true, Level: "info", Path: path, MaxSize: 1})

	l.Infof("hello %s", "file")
	_ = l.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello file")
}

// TestWithContext tests adding logger to context
// TestWithContext 测试将 logger 添加到 context
func TestWithContext(t *testing.T) {
	log := zaptest.NewLogger(t).Sugar()

	ctx := WithContext(context.Background(), log)
	assert.Same(t, log, Get(ctx))
	assert.NotNil(t, Get(context.Background()))
	assert.NotNil(t, Named(ctx, "collector"))
}
