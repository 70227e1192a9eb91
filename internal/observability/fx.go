package observability

import (
	"github.com/smallbiznis/invoicedesk/internal/observability/logger"
	"github.com/smallbiznis/invoicedesk/internal/observability/metrics"
	"github.com/smallbiznis/invoicedesk/internal/observability/tracing"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/fx"
)

var Module = fx.Module("observability",
	fx.Provide(
		NewConfig,
		Config.loggerConfig,
		Config.tracingConfig,
		Config.metricsConfig,
		logger.New,
		tracing.NewProvider,
		metrics.NewProvider,
		metrics.New,
		metrics.DefaultRegisterer,
		metrics.NewHTTPMetrics,
	),
	// Nothing else depends on the tracer provider; requesting it installs the global tracer.
	fx.Invoke(func(*sdktrace.TracerProvider) {}),
)

func (c Config) loggerConfig() logger.Config {
	return logger.Config{
		ServiceName:         c.Service.Name,
		Environment:         c.Service.Environment,
		Version:             c.Service.Version,
		Level:               c.Log.Level,
		Format:              c.Log.Format,
		IncludeCaller:       true,
		IncludeStackOnError: c.Verbose(),
	}
}

func (c Config) tracingConfig() tracing.Config {
	return tracing.Config{
		Enabled:          c.Export.Enabled,
		ServiceName:      c.Service.Name,
		ServiceVersion:   c.Service.Version,
		Environment:      c.Service.Environment,
		ExporterEndpoint: c.Export.Endpoint,
		ExporterProtocol: c.Export.Protocol,
		SamplingRatio:    c.Export.SampleRatio,
	}
}

func (c Config) metricsConfig() metrics.Config {
	return metrics.Config{
		Enabled:          c.Export.Enabled,
		ExporterEndpoint: c.Export.Endpoint,
		ExporterProtocol: c.Export.Protocol,
		ServiceName:      c.Service.Name,
		Environment:      c.Service.Environment,
	}
}
