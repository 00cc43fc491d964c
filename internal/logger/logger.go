package logger

import (
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options controls where a Logger writes and how verbose it is.
type Options struct {
	FilePath string // empty means no file sink
	Level    string // debug, info, warn, error
	Console  bool   // also write to stderr
}

// Logger is a printf-style facade over a zap SugaredLogger
type Logger struct {
	filePath string
	sugar    *zap.SugaredLogger
	level    zap.AtomicLevel
	closeFn  func()
	mu       sync.Mutex
}

// NewWithOptions builds a logger from explicit options
func NewWithOptions(opts Options) (*Logger, error) {
	level := zap.NewAtomicLevel()
	if err := level.UnmarshalText([]byte(normalizeLevel(opts.Level))); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", opts.Level, err)
	}

	var paths []string
	if opts.FilePath != "" {
		paths = append(paths, opts.FilePath)
	}
	if opts.Console || len(paths) == 0 {
		paths = append(paths, "stderr")
	}

	sink, closeFn, err := zap.Open(paths...)
	if err != nil {
		return nil, fmt.Errorf("failed to open log sink: %w", err)
	}

	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig()), sink, level)
	return &Logger{
		filePath: opts.FilePath,
		sugar:    zap.New(core).Sugar(),
		level:    level,
		closeFn:  closeFn,
	}, nil
}

// Discard returns a logger that drops everything
func Discard() *Logger {
	return &Logger{
		sugar: zap.NewNop().Sugar(),
		level: zap.NewAtomicLevelAt(zapcore.FatalLevel),
	}
}

func encoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:          "time",
		LevelKey:         "level",
		MessageKey:       "msg",
		LineEnding:       zapcore.DefaultLineEnding,
		EncodeTime:       zapcore.TimeEncoderOfLayout("[2006-01-02 15:04:05]"),
		EncodeLevel:      zapcore.CapitalLevelEncoder,
		EncodeDuration:   zapcore.StringDurationEncoder,
		ConsoleSeparator: " ",
	}
}

func normalizeLevel(level string) string {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "", "info", "success":
		return "info"
	case "warning", "warn":
		return "warn"
	default:
		return strings.ToLower(strings.TrimSpace(level))
	}
}

// SetLevel changes verbosity at runtime
func (l *Logger) SetLevel(level string) error {
	return l.level.UnmarshalText([]byte(normalizeLevel(level)))
}

// FilePath returns the file sink path, empty when logging to stderr only
func (l *Logger) FilePath() string {
	return l.filePath
}

// Close flushes and releases the sinks
func (l *Logger) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()

	_ = l.sugar.Sync()
	if l.closeFn != nil {
		l.closeFn()
		l.closeFn = nil
	}
}

// Info logs an informational message
func (l *Logger) Info(message string, args ...interface{}) {
	l.sugar.Infof(message, args...)
}

// Warning logs a warning message
func (l *Logger) Warning(message string, args ...interface{}) {
	l.sugar.Warnf(message, args...)
}

// Error logs an error message
func (l *Logger) Error(message string, args ...interface{}) {
	l.sugar.Errorf(message, args...)
}

// Success logs a success message
func (l *Logger) Success(message string, args ...interface{}) {
	l.sugar.With("status", "success").Infof(message, args...)
}

// Debug logs a debug message
func (l *Logger) Debug(message string, args ...interface{}) {
	l.sugar.Debugf(message, args...)
}

// Global logger instance for convenience
var defaultLogger atomic.Pointer[Logger]

func init() {
	l, _ := NewWithOptions(Options{Console: true, Level: "info"})
	defaultLogger.Store(l)
}

// Default returns the process-wide logger
func Default() *Logger {
	return defaultLogger.Load()
}

// SetDefault replaces the process-wide logger
func SetDefault(l *Logger) {
	if l != nil {
		defaultLogger.Store(l)
	}
}

// Info logs an informational message using the default logger
func Info(message string, args ...interface{}) {
	Default().Info(message, args...)
}

// Warning logs a warning message using the default logger
func Warning(message string, args ...interface{}) {
	Default().Warning(message, args...)
}

// Error logs an error message using the default logger
func Error(message string, args ...interface{}) {
	Default().Error(message, args...)
}

// Success logs a success message using the default logger
func Success(message string, args ...interface{}) {
	Default().Success(message, args...)
}

// Debug logs a debug message using the default logger
func Debug(message string, args ...interface{}) {
	Default().Debug(message, args...)
}
