// Package telemetry installs the OpenTelemetry tracer provider used by the
// otelhttp server wrapper.
package telemetry

import (
	"context"
	"log"
	"net/url"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"github.com/iliyamo/ev-service-portal/internal/config"
)

// Shutdown flushes pending spans.
type Shutdown func(context.Context) error

func noop(context.Context) error { return nil }

// collector turns an endpoint setting into the host:port the gRPC exporter
// dials.  Values written as URLs lose their scheme and path; an http
// scheme implies a plaintext connection.
func collector(raw string) (hostPort string, plaintext bool) {
	raw = strings.TrimSpace(raw)
	if !strings.Contains(raw, "://") {
		return raw, false
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "", false
	}
	return u.Host, u.Scheme == "http"
}

// Setup exports portal spans to the configured collector and returns the
// provider's shutdown.  Tracing stays off, with a no-op shutdown, when no
// endpoint is set or the exporter cannot be built.
func Setup(serviceName string, cfg config.TelemetryConfig) Shutdown {
	endpoint, plaintext := collector(cfg.Endpoint)
	if endpoint == "" {
		return noop
	}

	opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(endpoint)}
	if plaintext || cfg.Insecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}
	exporter, err := otlptracegrpc.New(context.Background(), opts...)
	if err != nil {
		log.Printf("telemetry: exporter: %v", err)
		return noop
	}

	res, err := resource.New(context.Background(),
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
			semconv.DeploymentEnvironment(cfg.Environment),
		),
		resource.WithHost(),
	)
	if err != nil {
		log.Printf("telemetry: resource: %v", err)
	}

	provider := trace.NewTracerProvider(
		trace.WithBatcher(exporter),
		trace.WithResource(res),
		trace.WithSampler(trace.ParentBased(trace.TraceIDRatioBased(cfg.SampleRatio))),
	)
	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{},
	))
	log.Printf("telemetry: exporting traces to %s (sample %.2f)", endpoint, cfg.SampleRatio)
	return provider.Shutdown
}
