package telemetry

import (
	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is what the rest of freetime logs through. By default it is a no-op; callers that
// want output hand in a zap backed logger (or their own implementation).
type Logger interface {
	Info(msg string, keysAndValues ...any)
	Debug(msg string, keysAndValues ...any)
	Error(msg string, err error, keysAndValues ...any)
}

type NOPLogger struct {
}

func (n NOPLogger) Info(msg string, keysAndValues ...any) {
}
func (n NOPLogger) Debug(msg string, keysAndValues ...any) {
}
func (n NOPLogger) Error(msg string, err error, keysAndValues ...any) {
}

type zapLogger struct {
	sugar *zap.SugaredLogger
}

// NewZapLogger builds a production style JSON logger at the given level
// ("debug", "info", "warn", "error").
func NewZapLogger(level string) (Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, errors.Wrapf(err, "bad log level %q", level)
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	l, err := cfg.Build()
	if err != nil {
		return nil, errors.Wrap(err, "can not build logger")
	}
	return FromZap(l), nil
}

// FromZap wraps an existing zap logger.
func FromZap(l *zap.Logger) Logger {
	return &zapLogger{sugar: l.Sugar()}
}

func (z *zapLogger) Info(msg string, keysAndValues ...any) {
	z.sugar.Infow(msg, keysAndValues...)
}

func (z *zapLogger) Debug(msg string, keysAndValues ...any) {
	z.sugar.Debugw(msg, keysAndValues...)
}

func (z *zapLogger) Error(msg string, err error, keysAndValues ...any) {
	z.sugar.Errorw(msg, append(keysAndValues, "error", err)...)
}
