// Package logger holds the process-wide zap logger.
package logger

import (
	"io"
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu     sync.RWMutex
	global *zap.SugaredLogger
)

// Init builds the process logger writing to w (stderr if nil). Warnings and
// errors are always shown; debug enables everything.
func Init(w io.Writer, debug bool) *zap.SugaredLogger {
	if w == nil {
		w = os.Stderr
	}
	level := zapcore.WarnLevel
	if debug {
		level = zapcore.DebugLevel
	}

	enc := zapcore.NewConsoleEncoder(zapcore.EncoderConfig{
		LevelKey:         "level",
		MessageKey:       "msg",
		EncodeLevel:      paddedLevel,
		ConsoleSeparator: " ",
	})
	core := zapcore.NewCore(enc, zapcore.AddSync(w), level)
	l := zap.New(core).Sugar()

	mu.Lock()
	global = l
	mu.Unlock()
	return l
}

// Logger returns the process logger, or a no-op logger before Init.
func Logger() *zap.SugaredLogger {
	mu.RLock()
	defer mu.RUnlock()
	if global == nil {
		return zap.NewNop().Sugar()
	}
	return global
}

// Sync flushes buffered log entries.
func Sync() {
	_ = Logger().Sync()
}

// paddedLevel renders "ERROR   ", "WARNING " and so on.
func paddedLevel(l zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	name := l.CapitalString()
	if l == zapcore.WarnLevel {
		name = "WARNING"
	}
	for len(name) < 8 {
		name += " "
	}
	enc.AppendString(name)
}
