package log

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is a wrapper around zap.SugaredLogger
type Logger struct {
	*zap.SugaredLogger
}

// NewLogger creates a new Logger writing to the given paths (stderr when none are given)
func NewLogger(development, debug bool, outputPaths ...string) (*Logger, error) {
	var config zap.Config
	if development {
		config = zap.NewDevelopmentConfig()
	} else {
		config = zap.NewProductionConfig()
	}
	if debug {
		config.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	} else {
		config.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}

	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if len(outputPaths) > 0 {
		config.OutputPaths = outputPaths
		config.ErrorOutputPaths = outputPaths
	}

	zapLogger, err := config.Build()
	if err != nil {
		return nil, err
	}

	return &Logger{zapLogger.Sugar()}, nil
}

// Wrap adapts an existing zap logger, used by tests with zaptest/observer cores
func Wrap(l *zap.Logger) *Logger {
	return &Logger{l.Sugar()}
}

// NewNop returns a Logger that discards everything
func NewNop() *Logger {
	return Wrap(zap.NewNop())
}

// Printf logs at info level. It makes Logger a core.Logger.
func (l *Logger) Printf(format string, args ...interface{}) {
	l.Infof(format, args...)
}

// Named returns a child logger with the given name segment
func (l *Logger) Named(name string) *Logger {
	return &Logger{l.SugaredLogger.Named(name)}
}

// Sync flushes any buffered log entries
func (l *Logger) Sync() error {
	return l.SugaredLogger.Sync()
}
