package observability

import (
	"testing"

	"github.com/smallbiznis/invoicedesk/internal/config"
	"github.com/stretchr/testify/assert"
)

func TestNewConfigDefaults(t *testing.T) {
	cfg := NewConfig(config.Config{
		Environment: " production ",
		Telemetry:   config.TelemetryConfig{SampleRatio: 7, Protocol: " HTTP/Protobuf "},
	})

	assert.Equal(t, "invoicedesk", cfg.Service.Name)
	assert.Equal(t, "production", cfg.Service.Environment)
	assert.Equal(t, LogSettings{Level: "info", Format: "json"}, cfg.Log)
	assert.False(t, cfg.Export.Enabled)
	assert.Equal(t, "http/protobuf", cfg.Export.Protocol)
	assert.Equal(t, 0.1, cfg.Export.SampleRatio)
	assert.False(t, cfg.Verbose())
}

func TestNewConfigFeedsProviders(t *testing.T) {
	cfg := NewConfig(config.Config{
		AppName:     "billing",
		AppVersion:  "1.4.0",
		Environment: "staging",
		Telemetry: config.TelemetryConfig{
			LogLevel:    "DEBUG",
			Export:      true,
			Endpoint:    "otel:4317",
			SampleRatio: 0.5,
		},
	})

	tc := cfg.tracingConfig()
	assert.True(t, tc.Enabled)
	assert.Equal(t, "billing", tc.ServiceName)
	assert.Equal(t, "grpc", tc.ExporterProtocol)
	assert.Equal(t, "otel:4317", tc.ExporterEndpoint)
	assert.Equal(t, 0.5, tc.SamplingRatio)

	assert.Equal(t, "otel:4317", cfg.metricsConfig().ExporterEndpoint)

	lc := cfg.loggerConfig()
	assert.Equal(t, "debug", lc.Level)
	assert.Equal(t, "1.4.0", lc.Version)
	assert.True(t, lc.IncludeStackOnError)
}

func TestVerbose(t *testing.T) {
	assert.True(t, Config{Service: Resource{Environment: "development"}}.Verbose())
	assert.True(t, Config{Service: Resource{Environment: "production"}, Log: LogSettings{Level: "debug"}}.Verbose())
	assert.False(t, Config{Service: Resource{Environment: "production"}}.Verbose())
}
