package config

import (
    "os"
    "strconv"
)

// TelemetryConfig selects where traces go.  An empty Endpoint disables
// tracing.
type TelemetryConfig struct {
    Endpoint    string  // OTLP/gRPC collector, host:port or a URL
    Insecure    bool    // plaintext gRPC
    SampleRatio float64 // fraction of root spans kept
    Environment string  // deployment.environment resource attribute
}

// LoadTelemetryConfig reads the standard OTEL_* variables.  The traces
// specific endpoint wins over the generic one.
func LoadTelemetryConfig() TelemetryConfig {
    ratio, err := strconv.ParseFloat(os.Getenv("OTEL_TRACES_SAMPLER_ARG"), 64)
    if err != nil || ratio < 0 || ratio > 1 {
        ratio = 1
    }
    return TelemetryConfig{
        Endpoint:    envStr("OTEL_EXPORTER_OTLP_TRACES_ENDPOINT", os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")),
        Insecure:    envBool("OTEL_EXPORTER_OTLP_INSECURE", false),
        SampleRatio: ratio,
        Environment: envStr("APP_ENV", "development"),
    }
}
