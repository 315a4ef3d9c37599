package logger

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

type contextKey string

const LoggerKey = contextKey("logger")

var (
	mu           sync.RWMutex
	globalLogger *zap.SugaredLogger
)

// Init initializes the global logger based on configuration.
// Diagnostics go to stderr so stdout stays free for the event stream.
// Init 根据配置初始化全局日志记录器。诊断日志写入 stderr，stdout 留给事件流。
func Init(cfg LoggingConfig) {
	l := New(cfg)

	mu.Lock()
	globalLogger = l
	mu.Unlock()

	l.Debugf("[LOG] Logging initialized (Level: %s, Path: %s)", parseLevel(cfg.Level), cfg.Path)
}

// New builds a logger from cfg without touching the global one.
// New 根据配置构建 Logger，不修改全局 Logger。
func New(cfg LoggingConfig) *zap.SugaredLogger {
	writeSyncer := zapcore.AddSync(os.Stderr)

	var warn string
	if cfg.Enabled && cfg.Path != "" {
		dir := filepath.Dir(cfg.Path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			// 如果无法创建目录，则继续输出到 stderr
			warn = err.Error()
		} else {
			rotator := &lumberjack.Logger{
				Filename:   cfg.Path,
				MaxSize:    cfg.MaxSize,
				MaxBackups: cfg.MaxBackups,
				MaxAge:     cfg.MaxAge,
				Compress:   cfg.Compress,
			}
			writeSyncer = zapcore.AddSync(rotator)
		}
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoder := zapcore.NewConsoleEncoder(encoderConfig)

	core := zapcore.NewCore(encoder, writeSyncer, parseLevel(cfg.Level))
	l := zap.New(core, zap.AddCaller()).Sugar()
	if warn != "" {
		l.Warnf("⚠️  Failed to create log directory, logging to stderr: %s", warn)
	}
	return l
}

func parseLevel(s string) zapcore.Level {
	level, err := zapcore.ParseLevel(strings.ToLower(strings.TrimSpace(s)))
	if err != nil {
		return zapcore.InfoLevel
	}
	return level
}

// Sync flushes any buffered log entries.
// Sync 刷新所有缓存的日志条目。
func Sync() error {
	mu.RLock()
	defer mu.RUnlock()
	if globalLogger != nil {
		return globalLogger.Sync()
	}
	return nil
}

// Get returns the logger from context or global logger
// Get 从 Context 或全局日志记录器返回 Logger。
func Get(ctx context.Context) *zap.SugaredLogger {
	if ctx != nil {
		if logger, ok := ctx.Value(LoggerKey).(*zap.SugaredLogger); ok {
			return logger
		}
	}
	mu.RLock()
	l := globalLogger
	mu.RUnlock()
	if l == nil {
		return New(LoggingConfig{Level: "info"})
	}
	return l
}

// Named returns the context logger scoped to a component.
// Named 返回按组件命名的 Logger。
func Named(ctx context.Context, component string) *zap.SugaredLogger {
	return Get(ctx).Named(component)
}

// WithContext adds logger to context
// WithContext 将 Logger 添加到 Context。
func WithContext(ctx context.Context, logger *zap.SugaredLogger) context.Context {
	return context.WithValue(ctx, LoggerKey, logger)
}
