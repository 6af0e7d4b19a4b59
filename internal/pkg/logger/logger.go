package logger

import (
	"context"
	"log/slog"
	"os"
	"strings"

	slogzap "github.com/samber/slog-zap/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	globalLogger *slog.Logger
	zapLogger    *zap.Logger
)

// ParseLevel maps a config level string onto slog levels. Unknown values mean INFO.
func ParseLevel(levelStr string) (slog.Level, bool) {
	switch strings.ToUpper(strings.TrimSpace(levelStr)) {
	case "DEBUG":
		return slog.LevelDebug, true
	case "INFO", "":
		return slog.LevelInfo, true
	case "WARN", "WARNING":
		return slog.LevelWarn, true
	case "ERROR":
		return slog.LevelError, true
	default:
		return slog.LevelInfo, false
	}
}

// Init builds the process zap logger and installs it as the slog default through slog-zap.
// The returned zap logger is what infrastructure clients name and log with directly.
func Init(levelStr string, development bool) (*zap.Logger, error) {
	level, known := ParseLevel(levelStr)

	zapCfg := zap.NewProductionConfig()
	if development {
		zapCfg = zap.NewDevelopmentConfig()
	}
	zapCfg.Level = zap.NewAtomicLevelAt(toZapLevel(level))

	zl, err := zapCfg.Build()
	if err != nil {
		return nil, err
	}

	handler := slogzap.Option{Level: level, Logger: zl}.NewZapHandler()
	zapLogger = zl
	globalLogger = slog.New(handler)
	slog.SetDefault(globalLogger)

	if !known {
		globalLogger.Warn("Invalid log level string, defaulting to INFO", "input", levelStr)
	}
	return zl, nil
}

// Zap returns the process zap logger, or a no-op logger before Init.
func Zap() *zap.Logger {
	if zapLogger == nil {
		return zap.NewNop()
	}
	return zapLogger
}

// Sync flushes buffered zap output.
func Sync() {
	if zapLogger != nil {
		_ = zapLogger.Sync()
	}
}

func toZapLevel(level slog.Level) zapcore.Level {
	switch {
	case level <= slog.LevelDebug:
		return zapcore.DebugLevel
	case level <= slog.LevelInfo:
		return zapcore.InfoLevel
	case level <= slog.LevelWarn:
		return zapcore.WarnLevel
	default:
		return zapcore.ErrorLevel
	}
}

func ensureInitialized() {
	if globalLogger == nil {
		globalLogger = slog.Default()
	}
}

// Debug logs a message at DebugLevel.
func Debug(msg string, args ...any) {
	ensureInitialized()
	if globalLogger.Enabled(context.Background(), slog.LevelDebug) {
		globalLogger.Debug(msg, args...)
	}
}

// Info logs a message at InfoLevel.
func Info(msg string, args ...any) {
	ensureInitialized()
	globalLogger.Info(msg, args...)
}

// Warn logs a message at WarnLevel.
func Warn(msg string, args ...any) {
	ensureInitialized()
	globalLogger.Warn(msg, args...)
}

// Error logs a message at ErrorLevel.
func Error(msg string, args ...any) {
	ensureInitialized()
	globalLogger.Error(msg, args...)
}

// Fatal logs a message at ErrorLevel then exits.
func Fatal(msg string, args ...any) {
	ensureInitialized()
	globalLogger.Error(msg, args...)
	Sync()
	os.Exit(1)
}
