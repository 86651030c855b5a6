// Package logging builds the zap logger used across riskcore.
package logging

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config controls logger construction. Zero values produce a JSON
// logger at info level writing to stderr.
type Config struct {
	Level  string // debug, info, warn, error
	Format string // json or console
	File   string // when set, logs also rotate through this file
}

// New builds a logger from cfg. The returned function flushes buffered
// entries and should be deferred by the caller.
func New(cfg Config) (*zap.Logger, func(), error) {
	level, err := parseLevel(cfg.Level)
	if err != nil {
		return nil, nil, err
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "ts"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var encoder zapcore.Encoder
	switch cfg.Format {
	case "console":
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encCfg)
	case "json", "":
		encoder = zapcore.NewJSONEncoder(encCfg)
	default:
		return nil, nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}

	sink := zapcore.Lock(os.Stderr)
	core := zapcore.NewCore(encoder, sink, level)

	if cfg.File != "" {
		rotating := zapcore.AddSync(&lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    100, // megabytes
			MaxBackups: 5,
			MaxAge:     30, // days
			Compress:   true,
		})
		core = zapcore.NewTee(core, zapcore.NewCore(encoder, rotating, level))
	}

	logger := zap.New(core, zap.AddCaller())
	flush := func() { _ = logger.Sync() }
	return logger, flush, nil
}

func parseLevel(s string) (zapcore.Level, error) {
	switch s {
	case "debug":
		return zapcore.DebugLevel, nil
	case "info", "":
		return zapcore.InfoLevel, nil
	case "warn":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	}
	return zapcore.InvalidLevel, fmt.Errorf("unknown log level %q", s)
}
