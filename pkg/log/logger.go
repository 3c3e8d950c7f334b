package log

import (
	"fmt"

	"go.uber.org/zap"
)

// Logger is a minimal interface compatible with stdlib loggers.
type Logger interface {
	Printf(format string, v ...interface{})
}

// NoopLogger discards all log messages.
type NoopLogger struct{}

func (NoopLogger) Printf(string, ...interface{}) {}

// Infof writes an informational line to logger. A nil logger is ignored.
func Infof(logger Logger, format string, args ...interface{}) {
	if logger == nil {
		return
	}
	logger.Printf(format, args...)
}

// Warnf writes a warning line to logger. Loggers that understand levels
// (see NewZap) route it to the warn level.
func Warnf(logger Logger, format string, args ...interface{}) {
	if logger == nil {
		return
	}
	if lw, ok := logger.(levelWriter); ok {
		lw.Warnf(format, args...)
		return
	}
	logger.Printf("WARN "+format, args...)
}

type levelWriter interface {
	Warnf(format string, args ...interface{})
}

// ZapLogger adapts a *zap.Logger to Logger.
type ZapLogger struct {
	l *zap.SugaredLogger
}

// NewZap wraps l. A nil l yields a no-op zap logger.
func NewZap(l *zap.Logger) *ZapLogger {
	if l == nil {
		l = zap.NewNop()
	}
	return &ZapLogger{l: l.Sugar()}
}

func (z *ZapLogger) Printf(format string, v ...interface{}) {
	z.l.Info(fmt.Sprintf(format, v...))
}

func (z *ZapLogger) Warnf(format string, v ...interface{}) {
	z.l.Warn(fmt.Sprintf(format, v...))
}
