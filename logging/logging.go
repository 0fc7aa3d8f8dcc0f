// Package logging - Structured logging shared by every navassist component.
//
// The package wraps zap's SugaredLogger so components can log with printf-style
// helpers (Infof, Warnf, ...) and key/value pairs (Infow, ...) without depending on
// the zap configuration details.
package logging

import (
	"strings"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
)

// Logger is the logger handed to every component.
type Logger = *zap.SugaredLogger

// Format selects the encoder used for log lines.
type Format string

const (
	// FormatConsole writes human readable, colored lines.
	FormatConsole Format = "console"
	// FormatJSON writes one JSON object per line.
	FormatJSON Format = "json"
)

var (
	globalMu     sync.RWMutex
	globalLogger = zap.NewNop().Sugar()
)

// ReplaceGlobal replaces the global logger.
func ReplaceGlobal(logger Logger) {
	globalMu.Lock()
	globalLogger = logger
	globalMu.Unlock()
}

// Global returns the global logger.
func Global() Logger {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalLogger
}

// NewConfig returns the zap configuration used by New.
//
// Arguments:
//   - level: One of debug, info, warn, error. Unknown values fall back to info.
//   - format: The encoder format.
//
// Returns:
//   - zap.Config: The logger configuration.
func NewConfig(level string, format Format) zap.Config {
	encoder := zapcore.EncoderConfig{
		TimeKey:        "ts",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalColorLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
	encoding := string(FormatConsole)
	if format == FormatJSON {
		encoding = string(FormatJSON)
		encoder.EncodeLevel = zapcore.LowercaseLevelEncoder
		encoder.EncodeDuration = zapcore.MillisDurationEncoder
	}

	return zap.Config{
		Level:             zap.NewAtomicLevelAt(ParseLevel(level)),
		Encoding:          encoding,
		EncoderConfig:     encoder,
		DisableStacktrace: true,
		OutputPaths:       []string{"stdout"},
		ErrorOutputPaths:  []string{"stderr"},
	}
}

// ParseLevel converts a textual level to a zapcore.Level.
func ParseLevel(level string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zap.DebugLevel
	case "warn", "warning":
		return zap.WarnLevel
	case "error":
		return zap.ErrorLevel
	default:
		return zap.InfoLevel
	}
}

// New builds a named logger.
//
// Arguments:
//   - name: The root logger name.
//   - level: The minimum level to emit.
//   - format: The encoder format.
//
// Returns:
//   - Logger: The configured logger.
//   - error: An error if zap fails to build the logger.
func New(name, level string, format Format) (Logger, error) {
	l, err := NewConfig(level, format).Build()
	if err != nil {
		return nil, errors.Wrap(err, "build logger")
	}
	return l.Sugar().Named(name), nil
}

// NewTestLogger returns a logger writing through the test's log output.
func NewTestLogger(tb testing.TB) Logger {
	return zaptest.NewLogger(tb).Sugar()
}
