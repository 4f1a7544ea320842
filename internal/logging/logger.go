// Package logging builds the zap logger shared by the server and the CLI.
package logging

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	maxSizeMB  = 100
	maxBackups = 5
	maxAgeDays = 30
)

// NewLogger logs to stderr, human readable at debug level when dev is set
// and JSON at info level otherwise. A non-empty file adds a rotating JSON
// log alongside the console.
func NewLogger(dev bool, file string) *zap.Logger {
	var console zapcore.WriteSyncer = zapcore.Lock(os.Stderr)
	var rotating zapcore.WriteSyncer
	if file != "" {
		rotating = zapcore.AddSync(&lumberjack.Logger{
			Filename:   file,
			MaxSize:    maxSizeMB,
			MaxBackups: maxBackups,
			MaxAge:     maxAgeDays,
			Compress:   true,
		})
	}
	return NewLoggerWithWriters(dev, console, rotating)
}

func NewLoggerWithWriters(dev bool, console, file zapcore.WriteSyncer) *zap.Logger {
	level := zapcore.InfoLevel
	consoleEncoder := zapcore.NewJSONEncoder(encoderConfig())
	if dev {
		level = zapcore.DebugLevel
		cfg := encoderConfig()
		cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		cfg.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000")
		consoleEncoder = zapcore.NewConsoleEncoder(cfg)
	}

	cores := []zapcore.Core{zapcore.NewCore(consoleEncoder, console, level)}
	if file != nil {
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig()), file, level))
	}

	return zap.New(zapcore.NewTee(cores...), zap.AddCaller())
}

func encoderConfig() zapcore.EncoderConfig {
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "timestamp"
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	return cfg
}
