// Package telemetry wires OpenTelemetry metrics for kanstart.
//
// Telemetry is disabled by default. When disabled a no-op meter provider is
// returned and recording costs nothing. When enabled with Stdout set, metrics
// are printed periodically to the supplied writer.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// instrumentationScope names the meter used for onboarding counters.
const instrumentationScope = "github.com/evanschultz/kanstart/internal/onboarding"

// defaultInterval is used when an enabled config leaves the interval unset.
const defaultInterval = 10 * time.Second

// Config controls which meter provider Init builds.
type Config struct {
	Enabled     bool
	Stdout      bool
	Interval    time.Duration
	ServiceName string
	Version     string
	// Readers are attached in addition to the stdout reader.
	Readers []sdkmetric.Reader
}

// Provider owns a meter provider and its shutdown hook.
type Provider struct {
	meters   metric.MeterProvider
	shutdown func(context.Context) error
}

// Init builds a meter provider for cfg.
func Init(ctx context.Context, cfg Config, out io.Writer) (*Provider, error) {
	if !cfg.Enabled {
		return &Provider{
			meters:   metricnoop.NewMeterProvider(),
			shutdown: func(context.Context) error { return nil },
		}, nil
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = "kanstart"
	}
	if cfg.Interval <= 0 {
		cfg.Interval = defaultInterval
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String(cfg.ServiceName),
			semconv.ServiceVersionKey.String(cfg.Version),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("telemetry: resource: %w", err)
	}

	opts := []sdkmetric.Option{sdkmetric.WithResource(res)}
	if cfg.Stdout {
		if out == nil {
			out = io.Discard
		}
		exp, err := stdoutmetric.New(stdoutmetric.WithWriter(out))
		if err != nil {
			return nil, fmt.Errorf("telemetry: stdout exporter: %w", err)
		}
		opts = append(opts, sdkmetric.WithReader(
			sdkmetric.NewPeriodicReader(exp, sdkmetric.WithInterval(cfg.Interval)),
		))
	}
	for _, r := range cfg.Readers {
		if r != nil {
			opts = append(opts, sdkmetric.WithReader(r))
		}
	}

	mp := sdkmetric.NewMeterProvider(opts...)
	return &Provider{meters: mp, shutdown: mp.Shutdown}, nil
}

// MeterProvider returns the configured provider.
func (p *Provider) MeterProvider() metric.MeterProvider {
	return p.meters
}

// Meter returns the onboarding meter.
func (p *Provider) Meter() metric.Meter {
	return p.meters.Meter(instrumentationScope)
}

// Shutdown flushes and stops exporters.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p == nil || p.shutdown == nil {
		return nil
	}
	if err := p.shutdown(ctx); err != nil && !errors.Is(err, sdkmetric.ErrReaderShutdown) {
		return fmt.Errorf("telemetry: shutdown: %w", err)
	}
	return nil
}
