package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Log is the package-level logger used across the harness. It starts out
// as a no-op so packages can log during init() before Initialize runs.
var Log *zap.Logger = zap.NewNop()

// Initialize sets up Log at the given level ("debug", "info", "warn", "error").
// An empty level defaults to "info".
func Initialize(level string) error {
	if level == "" {
		level = "info"
	}
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return err
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.Encoding = "console"
	cfg.EncoderConfig = zap.NewDevelopmentEncoderConfig()

	zl, err := cfg.Build()
	if err != nil {
		return err
	}
	Log = zl
	return nil
}
