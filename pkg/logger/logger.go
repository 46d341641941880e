package logger

import (
	"context"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogConfig holds logger configuration
type LogConfig struct {
	Level       string
	Environment string
	ServiceName string
}

type contextKey string

const loggerKey contextKey = "logger"

// New builds a zap logger. Production emits JSON with ISO8601 timestamps;
// everything else gets the colored development encoder.
func New(config *LogConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(config.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	fields := zap.Fields(
		zap.String("service", config.ServiceName),
		zap.String("environment", config.Environment),
	)

	if config.Environment == "production" {
		prodConfig := zap.NewProductionConfig()
		prodConfig.Level = zap.NewAtomicLevelAt(level)
		prodConfig.EncoderConfig.TimeKey = "timestamp"
		prodConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		return prodConfig.Build(fields)
	}

	devConfig := zap.NewDevelopmentConfig()
	devConfig.Level = zap.NewAtomicLevelAt(level)
	devConfig.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	return devConfig.Build(fields)
}

// InitLogger builds the logger and installs it as the zap global
func InitLogger(config *LogConfig) (*zap.Logger, error) {
	log, err := New(config)
	if err != nil {
		return nil, err
	}
	zap.ReplaceGlobals(log)
	return log, nil
}

// FromContext returns the request-scoped logger, or the global one
func FromContext(ctx context.Context) *zap.Logger {
	if log, ok := ctx.Value(loggerKey).(*zap.Logger); ok {
		return log
	}
	return zap.L()
}

// WithContext attaches a logger to ctx
func WithContext(ctx context.Context, log *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, log)
}
