package observability

import (
	"strings"

	"github.com/smallbiznis/invoicedesk/internal/config"
)

const (
	defaultServiceName = "invoicedesk"
	defaultSampleRatio = 0.1
)

// Config is the normalized telemetry setup shared by the logger, tracer and meter.
type Config struct {
	Service Resource
	Log     LogSettings
	Export  ExportSettings
}

// Resource identifies this process in logs, spans and metrics.
type Resource struct {
	Name        string
	Environment string
	Version     string
}

type LogSettings struct {
	Level  string
	Format string
}

// ExportSettings configures OTLP export. Nothing is exported unless Enabled is set.
type ExportSettings struct {
	Enabled     bool
	Endpoint    string
	Protocol    string
	SampleRatio float64
}

// NewConfig derives the telemetry setup from the application config.
func NewConfig(cfg config.Config) Config {
	name := strings.TrimSpace(cfg.AppName)
	if name == "" {
		name = defaultServiceName
	}
	t := cfg.Telemetry

	ratio := t.SampleRatio
	if ratio < 0 || ratio > 1 {
		ratio = defaultSampleRatio
	}
	protocol := lower(t.Protocol)
	if protocol == "" {
		protocol = "grpc"
	}
	format := lower(t.LogFormat)
	if format == "" {
		format = "json"
	}
	level := lower(t.LogLevel)
	if level == "" {
		level = "info"
	}

	return Config{
		Service: Resource{
			Name:        name,
			Environment: strings.TrimSpace(cfg.Environment),
			Version:     strings.TrimSpace(cfg.AppVersion),
		},
		Log: LogSettings{Level: level, Format: format},
		Export: ExportSettings{
			Enabled:     t.Export,
			Endpoint:    strings.TrimSpace(t.Endpoint),
			Protocol:    protocol,
			SampleRatio: ratio,
		},
	}
}

// Verbose is true for debug logging and for non-production environments.
func (c Config) Verbose() bool {
	if lower(c.Log.Level) == "debug" {
		return true
	}
	switch lower(c.Service.Environment) {
	case "dev", "development", "local", "test":
		return true
	}
	return false
}

func lower(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
