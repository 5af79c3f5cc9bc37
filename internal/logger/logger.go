// Package logger builds the esmapd zap logger and carries request-scoped
// loggers through contexts.
package logger

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Service is the service field of every daemon log entry.
const Service = "esmapd"

// New builds the daemon logger for env: JSON in prod, console output in
// local, dev and docker. An empty level keeps the environment default.
// Every entry carries the service name and, when set, the index served.
func New(env, level, index string, opts ...zap.Option) (*zap.Logger, error) {
	var cfg zap.Config
	switch env {
	case "prod":
		cfg = zap.NewProductionConfig()
	case "local", "dev", "docker":
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	default:
		return nil, fmt.Errorf("logger: unknown environment %q", env)
	}

	if level != "" {
		lvl, err := zapcore.ParseLevel(level)
		if err != nil {
			return nil, fmt.Errorf("logger: level %q: %w", level, err)
		}
		cfg.Level = zap.NewAtomicLevelAt(lvl)
	}

	l, err := cfg.Build(append([]zap.Option{zap.AddStacktrace(zapcore.ErrorLevel)}, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("logger: build: %w", err)
	}
	fields := []zap.Field{zap.String("service", Service)}
	if index != "" {
		fields = append(fields, Index(index))
	}
	return l.With(fields...), nil
}
