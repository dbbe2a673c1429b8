package logger

import (
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
	// With returns a child Logger that adds keysAndValues to every entry.
	With(keysAndValues ...any) Logger
}

// zapLogger wraps a *zap.SugaredLogger and implements Logger.
// Sensitive values are masked before they reach zap.
type zapLogger struct {
	sugar *zap.SugaredLogger
}

// Ensure zapLogger satisfies Logger.
var _ Logger = (*zapLogger)(nil)

// Debug logs at DebugLevel. keysAndValues are alternating key/value pairs.
func (l *zapLogger) Debug(msg string, keysAndValues ...any) {
	l.sugar.Debugw(msg, Redact(keysAndValues)...)
}

// Info logs at InfoLevel.
func (l *zapLogger) Info(msg string, keysAndValues ...any) {
	l.sugar.Infow(msg, Redact(keysAndValues)...)
}

// Warn logs at WarnLevel.
func (l *zapLogger) Warn(msg string, keysAndValues ...any) {
	l.sugar.Warnw(msg, Redact(keysAndValues)...)
}

// Error logs at ErrorLevel.
func (l *zapLogger) Error(msg string, keysAndValues ...any) {
	l.sugar.Errorw(msg, Redact(keysAndValues)...)
}

func (l *zapLogger) With(keysAndValues ...any) Logger {
	return &zapLogger{sugar: l.sugar.With(Redact(keysAndValues)...)}
}

// Options controls where New writes.
type Options struct {
	// Level is a zap level name ("debug", "info", ...). Empty means info.
	Level string
	// FilePath, when set, receives every entry in append mode.
	FilePath string
	// Console receives every entry with colored levels. Defaults to os.Stderr.
	Console io.Writer
}

// ----------------------------------------------------------------------------
// globalSugar holds the SugaredLogger built by the last Init/New call.
var (
	globalSugar *zap.SugaredLogger
	globalFile  *os.File
)

// Init creates a console-only logger. It is used before the backup directory,
// and therefore the log file, is known.
func Init() (Logger, error) {
	return New(Options{})
}

// New builds a logger that writes to the console and, when FilePath is set,
// appends the same entries to that file.
func New(opts Options) (Logger, error) {
	level := zapcore.InfoLevel
	if opts.Level != "" {
		parsed, err := zapcore.ParseLevel(opts.Level)
		if err != nil {
			return nil, fmt.Errorf("parse log level %q: %w", opts.Level, err)
		}
		level = parsed
	}

	console := opts.Console
	if console == nil {
		console = os.Stderr
	}

	consoleCfg := zap.NewDevelopmentEncoderConfig()
	consoleCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	consoleCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder

	cores := []zapcore.Core{
		zapcore.NewCore(
			zapcore.NewConsoleEncoder(consoleCfg),
			zapcore.Lock(zapcore.AddSync(console)),
			level,
		),
	}

	var file *os.File
	if opts.FilePath != "" {
		f, err := os.OpenFile(opts.FilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file %q: %w", opts.FilePath, err)
		}
		file = f

		// Plain levels in the file: no ANSI escapes.
		fileCfg := zap.NewDevelopmentEncoderConfig()
		fileCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		fileCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		cores = append(cores, zapcore.NewCore(
			zapcore.NewConsoleEncoder(fileCfg),
			zapcore.Lock(f),
			level,
		))
	}

	zapLog := zap.New(
		zapcore.NewTee(cores...),
		zap.AddCaller(),      // include file:line
		zap.AddCallerSkip(1), // skip the zapLogger wrapper frame
	)

	Cleanup()
	globalSugar = zapLog.Sugar()
	globalFile = file

	return &zapLogger{sugar: globalSugar}, nil
}

// NewFromCore wraps an existing zapcore.Core. Tests use it with zaptest/observer.
func NewFromCore(core zapcore.Core) Logger {
	return &zapLogger{sugar: zap.New(core).Sugar()}
}

// Cleanup flushes buffered entries and closes the log file. Call at program exit.
func Cleanup() {
	if globalSugar != nil {
		_ = globalSugar.Sync()
	}
	if globalFile != nil {
		_ = globalFile.Close()
		globalFile = nil
	}
}

// Global returns the Logger created by the last Init/New call, or a no-op
// logger when none was built yet.
func Global() Logger {
	if globalSugar == nil {
		return &zapLogger{sugar: zap.NewNop().Sugar()}
	}
	return &zapLogger{sugar: globalSugar}
}
