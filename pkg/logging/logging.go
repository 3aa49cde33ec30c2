// Package logging builds the process-wide zap logger and provides
// sanitization helpers for values that may carry credentials.
package logging

import (
	"fmt"

	"go.uber.org/zap"
)

// New creates the root logger for the given environment.
// "local" and "dev" get a human-readable development logger at debug level;
// everything else gets the production JSON logger.
func New(env string) (*zap.Logger, error) {
	var (
		logger *zap.Logger
		err    error
	)

	switch env {
	case "local", "dev":
		cfg := zap.NewDevelopmentConfig()
		logger, err = cfg.Build()
	default:
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}

	return logger, nil
}
