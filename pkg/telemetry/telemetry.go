// Package telemetry bootstraps OpenTelemetry tracing from the standard
// OTEL_* environment variables.
//
//	OTEL_ENABLED                 enable tracing (default false)
//	OTEL_SERVICE_NAME            service name (default tx-grouper)
//	OTEL_SERVICE_VERSION         overrides the version set by SetVersion
//	OTEL_EXPORTER_OTLP_ENDPOINT  collector endpoint
//	OTEL_EXPORTER_OTLP_PROTOCOL  grpc (default) or http/protobuf
//	OTEL_EXPORTER_OTLP_HEADERS   key=value pairs, comma separated
//	OTEL_EXPORTER_OTLP_INSECURE  plaintext connection
//	OTEL_TRACES_SAMPLER          sampler name (default always_on)
//	OTEL_TRACES_SAMPLER_ARG      sampler ratio
//	OTEL_RESOURCE_ATTRIBUTES     extra resource attributes
package telemetry

import (
	"context"
	"os"
	"strings"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// DefaultServiceName is reported when OTEL_SERVICE_NAME is unset.
const DefaultServiceName = "tx-grouper"

var (
	globalConfig *Config
	configOnce   sync.Once

	versionMu sync.Mutex
	version   = "unknown"
)

// Config holds OpenTelemetry settings.
type Config struct {
	Enabled        bool
	ServiceName    string
	ServiceVersion string
	Endpoint       string
	Protocol       string // grpc or http/protobuf
	Headers        map[string]string
	Insecure       bool
	Sampler        string
	SamplerArg     string
	ResourceAttrs  map[string]string
}

// ShutdownFunc flushes and stops the tracer provider.
type ShutdownFunc func(ctx context.Context) error

func noopShutdown(context.Context) error { return nil }

// SetVersion records the build version used as service.version. It must be
// called before the first Init, Enabled or GetConfig call to take effect.
func SetVersion(v string) {
	versionMu.Lock()
	version = v
	versionMu.Unlock()
}

// LoadFromEnv reads the configuration from the environment.
func LoadFromEnv() *Config {
	versionMu.Lock()
	v := version
	versionMu.Unlock()

	return &Config{
		Enabled:        envBool("OTEL_ENABLED"),
		ServiceName:    envOr("OTEL_SERVICE_NAME", DefaultServiceName),
		ServiceVersion: envOr("OTEL_SERVICE_VERSION", v),
		Endpoint:       os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		Protocol:       envOr("OTEL_EXPORTER_OTLP_PROTOCOL", "grpc"),
		Headers:        parsePairs(os.Getenv("OTEL_EXPORTER_OTLP_HEADERS")),
		Insecure:       envBool("OTEL_EXPORTER_OTLP_INSECURE"),
		Sampler:        os.Getenv("OTEL_TRACES_SAMPLER"),
		SamplerArg:     os.Getenv("OTEL_TRACES_SAMPLER_ARG"),
		ResourceAttrs:  parsePairs(os.Getenv("OTEL_RESOURCE_ATTRIBUTES")),
	}
}

// Init installs the global tracer provider when tracing is enabled. When it
// is disabled the global no-op provider stays in place.
func Init(ctx context.Context) (ShutdownFunc, error) {
	return InitWithConfig(ctx, loadConfig())
}

// InitWithConfig is Init with an explicit configuration.
func InitWithConfig(ctx context.Context, cfg *Config) (ShutdownFunc, error) {
	if !cfg.Enabled {
		return noopShutdown, nil
	}

	res, err := buildResource(cfg)
	if err != nil {
		return noopShutdown, err
	}

	exporter, err := createExporter(ctx, cfg)
	if err != nil {
		return noopShutdown, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithBatcher(exporter),
		sdktrace.WithSampler(createSampler(cfg)),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return tp.Shutdown, nil
}

// Enabled reports whether tracing is enabled.
func Enabled() bool {
	return loadConfig().Enabled
}

// GetConfig returns the cached environment configuration.
func GetConfig() *Config {
	return loadConfig()
}

func loadConfig() *Config {
	configOnce.Do(func() {
		globalConfig = LoadFromEnv()
	})
	return globalConfig
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envBool(key string) bool {
	return strings.EqualFold(strings.TrimSpace(os.Getenv(key)), "true")
}

// parsePairs parses "k1=v1,k2=v2". Values may contain '='.
func parsePairs(s string) map[string]string {
	result := make(map[string]string)
	for _, pair := range strings.Split(s, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(pair), "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			continue
		}
		result[k] = strings.TrimSpace(v)
	}
	return result
}
