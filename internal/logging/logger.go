// Package logging provides the leveled printf-style logger used across
// vidconv, backed by zap. Console output goes to stdout (errors to
// stderr) with optional colored levels; a JSON file sink records
// everything when a log file is configured.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/backmassage/vidconv/internal/config"
	"github.com/backmassage/vidconv/internal/term"
)

// Options configures a Logger.
type Options struct {
	Verbose bool   // Enables Debug on the console.
	Color   bool   // Colored level names on the console.
	File    string // Optional JSON log file, appended to.

	// Console writers; nil means os.Stdout and os.Stderr.
	Stdout io.Writer
	Stderr io.Writer
}

// Logger provides leveled, optionally colored logging with optional file sink.
type Logger struct {
	z     *zap.Logger
	sugar *zap.SugaredLogger
	file  *os.File
}

// New builds a Logger from opts. Call Close when done if File was set.
func New(opts Options) (*Logger, error) {
	stdout, stderr := opts.Stdout, opts.Stderr
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}

	floor := zapcore.InfoLevel
	if opts.Verbose {
		floor = zapcore.DebugLevel
	}
	low := zap.LevelEnablerFunc(func(lvl zapcore.Level) bool { return lvl >= floor && lvl < zapcore.ErrorLevel })
	high := zap.LevelEnablerFunc(func(lvl zapcore.Level) bool { return lvl >= zapcore.ErrorLevel })

	console := zapcore.NewConsoleEncoder(consoleEncoderConfig(opts.Color))
	cores := []zapcore.Core{
		zapcore.NewCore(console, zapcore.AddSync(stdout), low),
		zapcore.NewCore(console.Clone(), zapcore.AddSync(stderr), high),
	}

	l := &Logger{}
	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err != nil {
			return nil, fmt.Errorf("ensure log directory: %w", err)
		}
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file %s: %w", opts.File, err)
		}
		l.file = f
		jsonEnc := zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
		cores = append(cores, zapcore.NewCore(jsonEnc, zapcore.AddSync(f), zapcore.DebugLevel))
	}

	l.z = zap.New(zapcore.NewTee(cores...))
	l.sugar = l.z.Sugar()
	return l, nil
}

// NewLogger resolves colors from cfg and builds the process logger.
func NewLogger(cfg *config.Config) (*Logger, error) {
	color := term.Configure(cfg.ColorMode)
	return New(Options{Verbose: cfg.Verbose, Color: color, File: cfg.LogFile})
}

// Nop returns a Logger that discards everything.
func Nop() *Logger {
	z := zap.NewNop()
	return &Logger{z: z, sugar: z.Sugar()}
}

// FromZap wraps an existing zap logger, e.g. an observer core in tests.
func FromZap(z *zap.Logger) *Logger {
	return &Logger{z: z, sugar: z.Sugar()}
}

func consoleEncoderConfig(color bool) zapcore.EncoderConfig {
	level := zapcore.CapitalLevelEncoder
	if color {
		level = zapcore.CapitalColorLevelEncoder
	}
	return zapcore.EncoderConfig{
		TimeKey:          "ts",
		LevelKey:         "level",
		MessageKey:       "msg",
		EncodeTime:       zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05"),
		EncodeLevel:      level,
		EncodeDuration:   zapcore.StringDurationEncoder,
		ConsoleSeparator: " ",
	}
}

// With returns a child logger that adds fields to every entry. The file
// sink stays owned by the parent.
func (l *Logger) With(fields ...zap.Field) *Logger {
	z := l.z.With(fields...)
	return &Logger{z: z, sugar: z.Sugar()}
}

// Zap exposes the underlying zap logger.
func (l *Logger) Zap() *zap.Logger { return l.z }

// Close flushes buffered entries and closes the log file if one was opened.
func (l *Logger) Close() error {
	_ = l.z.Sync()
	if l.file != nil {
		err := l.file.Close()
		l.file = nil
		return err
	}
	return nil
}

// Info logs at INFO level.
func (l *Logger) Info(format string, args ...interface{}) {
	l.sugar.Infof(format, args...)
}

// Success logs at INFO level, tagged success=true.
func (l *Logger) Success(format string, args ...interface{}) {
	l.z.Info(fmt.Sprintf(format, args...), zap.Bool("success", true))
}

// Warn logs at WARN level.
func (l *Logger) Warn(format string, args ...interface{}) {
	l.sugar.Warnf(format, args...)
}

// Error logs at ERROR level, to stderr.
func (l *Logger) Error(format string, args ...interface{}) {
	l.sugar.Errorf(format, args...)
}

// Debug logs at DEBUG level; the console shows it only when verbose.
func (l *Logger) Debug(format string, args ...interface{}) {
	l.sugar.Debugf(format, args...)
}
