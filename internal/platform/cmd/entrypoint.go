// Package cmd holds the startup plumbing shared by intake commands: config
// loading from env and flags, and a run loop wrapped in tracing setup.
package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/MichaelAguilera/intake/internal/platform/config"
	"github.com/MichaelAguilera/intake/internal/platform/otel"
)

// telemetryFlushTimeout bounds how long exporters may take to drain on exit.
const telemetryFlushTimeout = 5 * time.Second

// ServiceIntake names the intake web service in telemetry and logs.
const ServiceIntake = "intake"

// ParseConfig fills cfg from its env tags and defaults.
func ParseConfig[T any](cfg *T) error {
	if cfg == nil {
		return errors.New("config target is required")
	}
	return config.ParseEnv(cfg)
}

// ParseArgs parses args into fs. Flags registered with env-derived defaults
// override the environment only when given.
func ParseArgs(fs *flag.FlagSet, args []string) error {
	if fs == nil {
		return errors.New("flag parser is required")
	}
	if args == nil {
		args = []string{}
	}
	return fs.Parse(args)
}

// RunWithTelemetry starts tracing for service, runs run, and flushes spans
// once run returns. The flush survives ctx cancellation. A nil logger falls
// back to the standard logger.
func RunWithTelemetry(ctx context.Context, service string, logger *log.Logger, run func(context.Context) error) error {
	service = strings.TrimSpace(service)
	switch {
	case service == "":
		return errors.New("service name is required")
	case run == nil:
		return errors.New("run function is required")
	}
	if logger == nil {
		logger = log.Default()
	}

	shutdown, err := otel.Setup(ctx, service)
	if err != nil {
		return fmt.Errorf("%s telemetry: %w", service, err)
	}
	defer flushTelemetry(ctx, service, logger, shutdown)
	return run(ctx)
}

func flushTelemetry(ctx context.Context, service string, logger *log.Logger, shutdown func(context.Context) error) {
	flushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), telemetryFlushTimeout)
	defer cancel()
	if err := shutdown(flushCtx); err != nil {
		logger.Printf("%s telemetry flush: %v", service, err)
	}
}
