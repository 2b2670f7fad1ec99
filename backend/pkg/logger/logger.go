// Package logger owns the process-wide zap logger. Init once at startup
// with the environment name from config; Get anywhere after.
package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"linkrelay/backend/pkg/config"
)

var Logger *zap.Logger

// Init builds the global logger for the given environment: JSON at info
// level in production, colored console at debug level otherwise.
func Init(env string) error {
	built, err := build(env).Build()
	if err != nil {
		return err
	}
	Logger = built
	return nil
}

func build(env string) zap.Config {
	var cfg zap.Config
	if env == config.EnvProduction {
		cfg = zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return cfg
}

// Sync flushes any buffered log entries
func Sync() {
	if Logger != nil {
		_ = Logger.Sync()
	}
}

// Get returns the global logger, or a development fallback when Init has
// not run. Tests rely on the fallback.
func Get() *zap.Logger {
	if Logger == nil {
		logger, _ := zap.NewDevelopment()
		return logger
	}
	return Logger
}
