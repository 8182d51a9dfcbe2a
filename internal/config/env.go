package config

import (
	"fmt"
	"strconv"
	"strings"
)

// EnvPrefix is prepended to every environment override.
const EnvPrefix = "REMBGD_"

// ApplyEnv overrides fields from REMBGD_* variables found through lookup
// (normally os.LookupEnv). List values are comma separated.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(EnvPrefix + key); ok {
			*dst = strings.TrimSpace(v)
		}
	}
	list := func(key string, dst *[]string) {
		if v, ok := lookup(EnvPrefix + key); ok {
			*dst = SplitCSV(v)
		}
	}
	var errs []string
	num := func(key string, dst *int) {
		if v, ok := lookup(EnvPrefix + key); ok {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				errs = append(errs, fmt.Sprintf("%s%s: %v", EnvPrefix, key, err))
				return
			}
			*dst = n
		}
	}
	flag := func(key string, dst *bool) {
		if v, ok := lookup(EnvPrefix + key); ok {
			b, err := strconv.ParseBool(strings.TrimSpace(v))
			if err != nil {
				errs = append(errs, fmt.Sprintf("%s%s: %v", EnvPrefix, key, err))
				return
			}
			*dst = b
		}
	}

	str("ADDR", &c.Addr)
	str("DEVICE", &c.Device)
	flag("EAGER", &c.Eager)
	str("LOG_LEVEL", &c.LogLevel)
	str("LOG_FORMAT", &c.LogFormat)
	num("MAX_UPLOAD_MB", &c.MaxUploadMB)
	num("REQUEST_TIMEOUT_SECONDS", &c.RequestTimeoutSeconds)
	num("GATE_MAX_WAIT_SECONDS", &c.GateMaxWaitSeconds)
	str("HEALTH_PROBE_SCHEDULE", &c.HealthProbeSchedule)
	str("WORKER_URL", &c.Worker.URL)
	str("WORKER_COMMAND", &c.Worker.Command)
	list("WORKER_ARGS", &c.Worker.Args)
	str("WORKER_HOST", &c.Worker.Host)
	num("WORKER_PORT_START", &c.Worker.PortStart)
	num("WORKER_PORT_END", &c.Worker.PortEnd)
	num("WORKER_STARTUP_TIMEOUT_SECONDS", &c.Worker.StartupTimeoutSeconds)
	str("ONNX_LIBRARY_PATH", &c.ONNX.LibraryPath)
	str("ONNX_MODELS_DIR", &c.ONNX.ModelsDir)
	num("ONNX_INTRA_OP_THREADS", &c.ONNX.IntraOpThreads)
	list("CORS_ORIGINS", &c.CORS.Origins)
	list("CORS_METHODS", &c.CORS.Methods)
	list("CORS_HEADERS", &c.CORS.Headers)

	if v, ok := lookup(EnvPrefix + "BACKENDS"); ok {
		m, err := ParseBackends(v)
		if err != nil {
			errs = append(errs, fmt.Sprintf("%sBACKENDS: %v", EnvPrefix, err))
		} else {
			c.Backends = m
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("env: %s", strings.Join(errs, "; "))
	}
	return nil
}

// SplitCSV splits a comma-separated list, trimming spaces and dropping empties.
func SplitCSV(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ParseBackends parses "rembg=onnx,bria=worker" into a routing map.
func ParseBackends(s string) (map[string]string, error) {
	out := map[string]string{}
	for _, kv := range SplitCSV(s) {
		k, v, ok := strings.Cut(kv, "=")
		k, v = strings.TrimSpace(k), strings.TrimSpace(v)
		if !ok || k == "" || v == "" {
			return nil, fmt.Errorf("invalid backend route %q (want key=backend)", kv)
		}
		out[k] = v
	}
	return out, nil
}
