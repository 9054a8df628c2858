// Package logging builds the service logger: ectologger backed by zap.
package logging

import (
	"fmt"

	"github.com/Gobusters/ectologger"
	"github.com/Gobusters/ectologger/zapadapter"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options controls the zap backend
type Options struct {
	AppName string
	Level   string
	Pretty  bool
}

// New returns a logger writing JSON (or console output when Pretty is set) at Level.
// The zap logger is returned too so callers can Sync it on shutdown.
func New(opts Options) (ectologger.Logger, *zap.Logger, error) {
	level, err := zapcore.ParseLevel(opts.Level)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid log level %q: %w", opts.Level, err)
	}

	zapCfg := zap.NewProductionConfig()
	if opts.Pretty {
		zapCfg = zap.NewDevelopmentConfig()
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	zapLogger, err := zapCfg.Build()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build zap logger: %w", err)
	}
	if opts.AppName != "" {
		zapLogger = zapLogger.With(zap.String("app", opts.AppName))
	}

	return zapadapter.NewZapEctoLogger(zapLogger, nil), zapLogger, nil
}

// Noop returns a logger that drops everything.
func Noop() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}
