package logger

import (
	"context"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// global receives generation diagnostics when ctx carries no logger.
	//nolint:gochecknoglobals // Every service logs through it.
	global *zap.SugaredLogger
	// defaultLevel is driven by --log-level; debug shows every failed mirror probe.
	//nolint:gochecknoglobals // Shared so --log-level can be changed after init.
	defaultLevel = zap.NewAtomicLevelAt(zap.InfoLevel)
)

func init() { //nolint:gochecknoinits // Diagnostics must work before the CLI parses flags.
	SetLogger(New(defaultLevel))
}

// New returns the console logger the CLI prints probe results and written manifests with.
// A nil level follows --log-level.
func New(level zapcore.LevelEnabler, options ...zap.Option) *zap.SugaredLogger {
	return NewWithWriter(level, os.Stdout, options...)
}

// NewWithWriter is New writing to w.
func NewWithWriter(level zapcore.LevelEnabler, w io.Writer, options ...zap.Option) *zap.SugaredLogger {
	if level == nil {
		level = defaultLevel
	}

	//nolint:exhaustruct // Time and name keys are left to their defaults.
	encoder := zapcore.NewConsoleEncoder(zapcore.EncoderConfig{
		MessageKey:       "message",
		LevelKey:         "level",
		CallerKey:        "caller",
		StacktraceKey:    "stacktrace",
		LineEnding:       zapcore.DefaultLineEnding,
		EncodeLevel:      zapcore.CapitalColorLevelEncoder,
		EncodeTime:       zapcore.ISO8601TimeEncoder,
		EncodeDuration:   zapcore.StringDurationEncoder,
		EncodeCaller:     zapcore.ShortCallerEncoder,
		ConsoleSeparator: ", ",
	})

	core := zapcore.NewCore(
		encoder,
		zapcore.AddSync(w),
		level,
	)

	return zap.New(core, options...).Sugar()
}

// ParseLogLevel converts a --log-level value to a zap level.
// Unknown values report false and InfoLevel.
func ParseLogLevel(s string) (zapcore.Level, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "debug":
		return zapcore.DebugLevel, true
	case "info":
		return zapcore.InfoLevel, true
	case "warn", "warning":
		return zapcore.WarnLevel, true
	case "error":
		return zapcore.ErrorLevel, true
	default:
		return zapcore.InfoLevel, false
	}
}

// Logger returns the logger used outside a run context.
func Logger() *zap.SugaredLogger {
	return global
}

// SetLogger replaces the fallback logger. Call it before any run starts.
func SetLogger(l *zap.SugaredLogger) {
	global = l
}

// SetLevel applies --log-level to every logger built on the shared level.
func SetLevel(level zapcore.Level) {
	//nolint:errcheck // Stdout sync errors are not actionable.
	defer global.Sync()

	defaultLevel.SetLevel(level)
}

// DebugKV reports detail such as a single failed mirror probe.
func DebugKV(ctx context.Context, message string, kvs ...any) {
	FromContext(ctx).Debugw(message, kvs...)
}

// Info prints free-form operator text, like the publishing hints after a run.
func Info(ctx context.Context, args ...any) {
	FromContext(ctx).Info(args...)
}

// InfoKV records a completed step: a located artifact or a written manifest.
func InfoKV(ctx context.Context, message string, kvs ...any) {
	FromContext(ctx).Infow(message, kvs...)
}

// WarnKV flags a result the operator should check, such as an unverified fallback URL.
func WarnKV(ctx context.Context, message string, kvs ...any) {
	FromContext(ctx).Warnw(message, kvs...)
}

// ErrorKV reports the error that ended a run.
func ErrorKV(ctx context.Context, message string, kvs ...any) {
	FromContext(ctx).Errorw(message, kvs...)
}
