// Package observability wires structured logging, metrics, and tracing for
// the gateway. Components take these as constructor dependencies rather than
// reaching for package-level globals, except for the zap global logger which
// is replaced once at boot so that packages outside the dependency graph
// (e.g. database/sql drivers) can still log through zap.L(), and the global
// OpenTelemetry tracer provider installed by InitTracing.
package observability

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// InitLogger builds a zap logger whose verbosity and encoding are driven by
// the ENV and LOG_LEVEL environment variables, and installs it as the global
// logger via zap.ReplaceGlobals.
func InitLogger() (*zap.Logger, error) {
	env := strings.ToLower(os.Getenv("ENV"))

	var cfg zap.Config
	if env == "production" || env == "prod" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	if lvl := os.Getenv("LOG_LEVEL"); lvl != "" {
		parsed, err := zapcore.ParseLevel(lvl)
		if err != nil {
			return nil, fmt.Errorf("parse LOG_LEVEL %q: %w", lvl, err)
		}
		cfg.Level = zap.NewAtomicLevelAt(parsed)
	}

	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}

	zap.ReplaceGlobals(logger)
	return logger, nil
}

// SamplingRate reports what fraction of high-volume debug-level events (per
// request trace logs) should actually be emitted, to keep log volume bounded
// under load. 1.0 means "always log".
func SamplingRate() float64 {
	raw := os.Getenv("LOG_SAMPLE_RATE")
	if raw == "" {
		return 1.0
	}
	var rate float64
	if _, err := fmt.Sscanf(raw, "%f", &rate); err != nil || rate < 0 || rate > 1 {
		return 1.0
	}
	return rate
}
