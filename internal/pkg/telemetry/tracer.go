// Package telemetry wires slog and the OpenTelemetry SDK for the process.
//
//	shutdown, err := telemetry.Setup(ctx, telemetry.Config{
//		ServiceName: "marketplace-api",
//		Endpoint:    "otel-collector:4317",
//	})
//	if err != nil { ... }
//	defer shutdown(context.Background())
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// ShutdownFunc flushes buffered telemetry and closes the exporter connection.
type ShutdownFunc func(ctx context.Context) error

const (
	ExporterOTLP   = "otlp"
	ExporterStdout = "stdout"
)

type Config struct {
	ServiceName string
	// Exporter is ExporterOTLP (default) or ExporterStdout. It applies to
	// spans and metrics alike.
	Exporter string
	// Endpoint is the collector's OTLP gRPC address. A http:// or https://
	// prefix is accepted and dropped.
	Endpoint    string
	Environment string
	// SampleRatio below 1 samples by trace id. Zero means sample everything.
	SampleRatio float64
	// MetricInterval is the push period of the metric reader. Defaults to 30s.
	MetricInterval time.Duration
	// Output receives stdout exports. Defaults to os.Stdout.
	Output io.Writer
}

// Setup installs the global TracerProvider, MeterProvider and W3C
// propagators. Both providers share one collector connection.
func Setup(ctx context.Context, cfg Config) (ShutdownFunc, error) {
	switch cfg.Exporter {
	case "", ExporterOTLP, ExporterStdout:
	default:
		return nil, fmt.Errorf("telemetry: unknown exporter %q", cfg.Exporter)
	}
	if cfg.Output == nil {
		cfg.Output = os.Stdout
	}

	res, err := newResource(cfg)
	if err != nil {
		return nil, err
	}

	var conn *grpc.ClientConn
	if cfg.Exporter != ExporterStdout {
		endpoint := stripScheme(cfg.Endpoint)
		if endpoint == "" {
			endpoint = "localhost:4317"
		}
		conn, err = grpc.NewClient(endpoint, grpc.WithTransportCredentials(insecure.NewCredentials()))
		if err != nil {
			return nil, fmt.Errorf("telemetry: dial collector at %s: %w", endpoint, err)
		}
	}
	closeConn := func() error {
		if conn == nil {
			return nil
		}
		return conn.Close()
	}

	tp, err := newTracerProvider(ctx, cfg, conn, res)
	if err != nil {
		_ = closeConn()
		return nil, err
	}
	mp, err := newMeterProvider(ctx, cfg, conn, res)
	if err != nil {
		_ = tp.Shutdown(ctx)
		_ = closeConn()
		return nil, err
	}

	otel.SetTracerProvider(tp)
	otel.SetMeterProvider(mp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return func(ctx context.Context) error {
		var errs []error
		if err := tp.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("telemetry: shut down TracerProvider: %w", err))
		}
		if err := mp.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("telemetry: shut down MeterProvider: %w", err))
		}
		if err := closeConn(); err != nil {
			errs = append(errs, err)
		}
		return errors.Join(errs...)
	}, nil
}

func newTracerProvider(ctx context.Context, cfg Config, conn *grpc.ClientConn, res *resource.Resource) (*sdktrace.TracerProvider, error) {
	var (
		exporter sdktrace.SpanExporter
		err      error
	)
	if conn == nil {
		exporter, err = stdouttrace.New(stdouttrace.WithWriter(cfg.Output))
	} else {
		exporter, err = otlptracegrpc.New(ctx, otlptracegrpc.WithGRPCConn(conn))
	}
	if err != nil {
		return nil, fmt.Errorf("telemetry: create trace exporter: %w", err)
	}

	return sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter, sdktrace.WithBatchTimeout(5*time.Second)),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler(cfg.SampleRatio)),
	), nil
}

func newResource(cfg Config) (*resource.Resource, error) {
	env := cfg.Environment
	if env == "" {
		env = "local"
	}
	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			"",
			semconv.ServiceName(cfg.ServiceName),
			semconv.DeploymentEnvironment(env),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("telemetry: build resource: %w", err)
	}
	return res, nil
}

func sampler(ratio float64) sdktrace.Sampler {
	if ratio <= 0 || ratio >= 1 {
		return sdktrace.AlwaysSample()
	}
	return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))
}

func stripScheme(endpoint string) string {
	for _, prefix := range []string{"http://", "https://"} {
		if rest, ok := strings.CutPrefix(endpoint, prefix); ok {
			return rest
		}
	}
	return endpoint
}
