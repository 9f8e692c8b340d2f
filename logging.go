package main

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// newLogger builds a JSON file logger from the log section of cfg. Logging
// never goes to the terminal, which is owned by the UI; without a usable
// file the logger is a no-op.
func newLogger(cfg Config) *zap.Logger {
	if cfg.Log.File == "" {
		return zap.NewNop()
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Log.File), 0o755); err != nil {
		return zap.NewNop()
	}

	level, err := zap.ParseAtomicLevel(cfg.Log.Level)
	if err != nil {
		level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}

	zcfg := zap.NewProductionConfig()
	zcfg.Level = level
	zcfg.OutputPaths = []string{cfg.Log.File}
	zcfg.ErrorOutputPaths = []string{cfg.Log.File}

	logger, err := zcfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}
