package logger

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"market-collector/src/models"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	baseOnce sync.Once
	base     *zap.Logger
	level    = zap.NewAtomicLevelAt(zapcore.InfoLevel)
)

// -----------------------------------------------------------------------------

// Logger provides structured logging functionality
type Logger struct {
	name  string
	sugar *zap.SugaredLogger
}

// -----------------------------------------------------------------------------

func root() *zap.Logger {
	baseOnce.Do(func() {
		encCfg := zap.NewProductionEncoderConfig()
		encCfg.TimeKey = "ts"
		encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.Lock(os.Stdout), level)
		base = zap.New(core)
	})
	return base
}

// -----------------------------------------------------------------------------

// NewLogger creates a new Logger instance. config may be a *models.MConfig or a
// level string; when given, it sets the process-wide level.
func NewLogger(config interface{}, name string) *Logger {
	switch c := config.(type) {
	case *models.MConfig:
		if c != nil {
			SetLevel(c.LogLevel)
		}
	case string:
		SetLevel(c)
	}
	return &Logger{
		name:  name,
		sugar: root().Named(name).Sugar(),
	}
}

// -----------------------------------------------------------------------------

// NewNopLogger returns a logger that discards everything. Used by tests.
func NewNopLogger() *Logger {
	return &Logger{name: "nop", sugar: zap.NewNop().Sugar()}
}

// -----------------------------------------------------------------------------

// SetLevel changes the level of every logger. Unknown values are ignored.
func SetLevel(lvl string) {
	switch strings.ToUpper(strings.TrimSpace(lvl)) {
	case "DEBUG":
		level.SetLevel(zapcore.DebugLevel)
	case "INFO":
		level.SetLevel(zapcore.InfoLevel)
	case "WARNING", "WARN":
		level.SetLevel(zapcore.WarnLevel)
	case "ERROR":
		level.SetLevel(zapcore.ErrorLevel)
	case "CRITICAL":
		level.SetLevel(zapcore.FatalLevel)
	}
}

// -----------------------------------------------------------------------------

// Named derives a child logger.
func (l *Logger) Named(name string) *Logger {
	return &Logger{name: l.name + "." + name, sugar: l.sugar.Named(name)}
}

// -----------------------------------------------------------------------------

// With attaches structured key/value context.
func (l *Logger) With(kv ...interface{}) *Logger {
	return &Logger{name: l.name, sugar: l.sugar.With(kv...)}
}

// -----------------------------------------------------------------------------

// Debug logs debugging messages
func (l *Logger) Debug(format string, args ...interface{}) {
	l.sugar.Debugf(format, args...)
}

// -----------------------------------------------------------------------------

// Warning logs recoverable problems
func (l *Logger) Warning(format string, args ...interface{}) {
	l.sugar.Warnf(format, args...)
}

// -----------------------------------------------------------------------------

// Info logs informational messages
func (l *Logger) Info(format string, args ...interface{}) {
	l.sugar.Infof(format, args...)
}

// -----------------------------------------------------------------------------

// Error logs error messages
func (l *Logger) Error(format string, args ...interface{}) {
	l.sugar.Errorf(format, args...)
}

// -----------------------------------------------------------------------------

// Critical logs critical errors and exits the application
func (l *Logger) Critical(format string, args ...interface{}) {
	l.sugar.Fatalf(format, args...)
}

// -----------------------------------------------------------------------------

// Sync flushes buffered entries.
func Sync() {
	if base != nil {
		_ = base.Sync()
	}
}

// -----------------------------------------------------------------------------

// Errorf logs and returns a formatted error.
func (l *Logger) Errorf(format string, args ...interface{}) error {
	err := fmt.Errorf(format, args...)
	l.sugar.Error(err.Error())
	return err
}
