package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"reel-quizzer/internal/config"
)

var log = zap.NewNop()

// New builds a logger from configuration. Entries below error level go to
// stdout and errors go to stderr, so batch failures stand out in a terminal.
func New(loggerCfg config.LoggerConfig) (*zap.Logger, error) {
	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.SecondsDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	minLevel := zapcore.InfoLevel
	if loggerCfg.Level != "" {
		parsed, err := zapcore.ParseLevel(loggerCfg.Level)
		if err != nil {
			return nil, err
		}
		minLevel = parsed
	}

	var encoder zapcore.Encoder
	if loggerCfg.Env == "production" {
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	} else {
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	}

	below := zap.LevelEnablerFunc(func(l zapcore.Level) bool {
		return l >= minLevel && l < zapcore.ErrorLevel
	})
	atOrAbove := zap.LevelEnablerFunc(func(l zapcore.Level) bool {
		return l >= minLevel && l >= zapcore.ErrorLevel
	})

	core := zapcore.NewTee(
		zapcore.NewCore(encoder, zapcore.Lock(os.Stdout), below),
		zapcore.NewCore(encoder, zapcore.Lock(os.Stderr), atOrAbove),
	)
	return zap.New(core, zap.AddCaller()), nil
}

// Initialize sets up the global logger with the given configuration
func Initialize(loggerCfg config.LoggerConfig) error {
	l, err := New(loggerCfg)
	if err != nil {
		return err
	}
	log = l
	return nil
}

// Get returns the global logger instance. It is a no-op logger until Initialize succeeds.
func Get() *zap.Logger {
	return log
}

// Sync flushes any buffered log entries
func Sync() error {
	return log.Sync()
}
