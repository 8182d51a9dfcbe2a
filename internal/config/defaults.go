package config

import (
	"fmt"
	"strings"
)

// Defaults applied by WithDefaults.
const (
	DefaultAddr                  = ":8000"
	DefaultDevice                = "auto"
	DefaultLogLevel              = "info"
	DefaultLogFormat             = "console"
	DefaultMaxUploadMB           = 25
	DefaultRequestTimeoutSeconds = 300
	DefaultGateMaxWaitSeconds    = 120
	DefaultHealthProbeSchedule   = "@every 30s"
	DefaultWorkerURL             = "http://127.0.0.1:8001"
	DefaultWorkerStartupSeconds  = 120
	DefaultONNXModelsDir         = "~/.u2net"
)

// Backend names accepted in Backends.
const (
	BackendWorker = "worker"
	BackendONNX   = "onnx"
)

// WithDefaults returns a copy with unspecified fields filled in.
func (c Config) WithDefaults() Config {
	if c.Addr == "" {
		c.Addr = DefaultAddr
	}
	if c.Device == "" {
		c.Device = DefaultDevice
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.LogFormat == "" {
		c.LogFormat = DefaultLogFormat
	}
	if c.MaxUploadMB <= 0 {
		c.MaxUploadMB = DefaultMaxUploadMB
	}
	if c.RequestTimeoutSeconds <= 0 {
		c.RequestTimeoutSeconds = DefaultRequestTimeoutSeconds
	}
	if c.GateMaxWaitSeconds == 0 {
		c.GateMaxWaitSeconds = DefaultGateMaxWaitSeconds
	}
	if c.HealthProbeSchedule == "" {
		c.HealthProbeSchedule = DefaultHealthProbeSchedule
	}
	if c.Worker.URL == "" && c.Worker.Command == "" {
		c.Worker.URL = DefaultWorkerURL
	}
	if c.Worker.StartupTimeoutSeconds <= 0 {
		c.Worker.StartupTimeoutSeconds = DefaultWorkerStartupSeconds
	}
	if c.ONNX.ModelsDir == "" {
		c.ONNX.ModelsDir = DefaultONNXModelsDir
	}
	if len(c.CORS.Origins) == 0 {
		c.CORS.Origins = []string{"*"}
	}
	if len(c.CORS.Methods) == 0 {
		c.CORS.Methods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS", "HEAD"}
	}
	if len(c.CORS.Headers) == 0 {
		c.CORS.Headers = []string{"*"}
	}
	return c
}

// Validate checks enumerated fields and ranges.
func (c Config) Validate() error {
	switch strings.ToLower(c.Device) {
	case "", "auto", "cuda", "cpu":
	default:
		return fmt.Errorf("device: unknown mode %q (want auto, cuda or cpu)", c.Device)
	}
	switch strings.ToLower(c.LogFormat) {
	case "", "console", "json":
	default:
		return fmt.Errorf("log_format: unknown format %q (want console or json)", c.LogFormat)
	}
	if c.Worker.PortStart > 0 && c.Worker.PortEnd < c.Worker.PortStart {
		return fmt.Errorf("worker: port_end %d is below port_start %d", c.Worker.PortEnd, c.Worker.PortStart)
	}
	for k, v := range c.Backends {
		switch v {
		case BackendWorker, BackendONNX:
		default:
			return fmt.Errorf("backends.%s: unknown backend %q (want worker or onnx)", k, v)
		}
	}
	return nil
}
