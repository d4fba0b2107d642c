// Package logger wraps zap for the client and simulation packages.
//
// Until Init is called every logger is a no-op, so simulation packages can
// log unconditionally and stay silent in tests. The level is shared by all
// loggers and can be changed at runtime with SetLevel.
package logger

import (
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	// Log is the process logger.
	Log = zap.NewNop()
	// Sugar is Log in printf style.
	Sugar = Log.Sugar()

	level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
)

// Options selects where log entries go.
type Options struct {
	Level string
	// Console writes colored lines to stdout.
	Console bool
	// File, when set, receives JSON lines rotated by size.
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// Rotation fills the file rotation limits used by the client.
func (o Options) Rotation() Options {
	if o.MaxSizeMB == 0 {
		o.MaxSizeMB = 20
	}
	if o.MaxBackups == 0 {
		o.MaxBackups = 3
	}
	if o.MaxAgeDays == 0 {
		o.MaxAgeDays = 7
	}
	return o
}

// Init logs to the console and, if logFile is set, to a rotating file.
func Init(lvl, logFile string) error {
	return Setup(Options{Level: lvl, Console: true, File: logFile}.Rotation())
}

// Setup replaces the process logger.
func Setup(opts Options) error {
	SetLevel(opts.Level)

	var cores []zapcore.Core
	if opts.Console {
		enc := consoleEncoder()
		cores = append(cores, zapcore.NewCore(enc, zapcore.Lock(os.Stdout), level))
	}
	if opts.File != "" {
		cores = append(cores, zapcore.NewCore(jsonEncoder(), zapcore.AddSync(rotating(opts)), level))
	}

	Log = zap.New(zapcore.NewTee(cores...), zap.AddCaller())
	Sugar = Log.Sugar()
	return nil
}

// SetLevel changes the level of every logger. Unknown names mean info.
func SetLevel(name string) {
	lvl, err := zapcore.ParseLevel(name)
	if err != nil {
		lvl = zapcore.InfoLevel
	}
	level.SetLevel(lvl)
}

// Level returns the current level name.
func Level() string {
	return level.Level().String()
}

func rotating(opts Options) io.Writer {
	return &lumberjack.Logger{
		Filename:   opts.File,
		MaxSize:    opts.MaxSizeMB,
		MaxBackups: opts.MaxBackups,
		MaxAge:     opts.MaxAgeDays,
		LocalTime:  true,
	}
}

func consoleEncoder() zapcore.Encoder {
	cfg := zap.NewDevelopmentEncoderConfig()
	cfg.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000")
	cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	cfg.ConsoleSeparator = " "
	return zapcore.NewConsoleEncoder(cfg)
}

func jsonEncoder() zapcore.Encoder {
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "time"
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncodeLevel = zapcore.CapitalLevelEncoder
	return zapcore.NewJSONEncoder(cfg)
}

// Named returns a child logger tagged with a component name.
func Named(component string) *zap.Logger {
	return Log.Named(component)
}

// Sync flushes buffered entries.
func Sync() {
	_ = Log.Sync()
}

// Debug logs at debug level.
func Debug(msg string, fields ...zap.Field) { Log.Debug(msg, fields...) }

// Info logs at info level.
func Info(msg string, fields ...zap.Field) { Log.Info(msg, fields...) }

// Warn logs at warn level.
func Warn(msg string, fields ...zap.Field) { Log.Warn(msg, fields...) }

// Error logs at error level.
func Error(msg string, fields ...zap.Field) { Log.Error(msg, fields...) }
