package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Config holds runtime parameters for the service.
// Zero values mean "unspecified" and are replaced by WithDefaults.
type Config struct {
	Addr   string `json:"addr" yaml:"addr" toml:"addr"`
	Device string `json:"device" yaml:"device" toml:"device"`
	Eager  bool   `json:"eager" yaml:"eager" toml:"eager"`

	LogLevel  string `json:"log_level" yaml:"log_level" toml:"log_level"`
	LogFormat string `json:"log_format" yaml:"log_format" toml:"log_format"`

	MaxUploadMB           int    `json:"max_upload_mb" yaml:"max_upload_mb" toml:"max_upload_mb"`
	RequestTimeoutSeconds int    `json:"request_timeout_seconds" yaml:"request_timeout_seconds" toml:"request_timeout_seconds"`
	GateMaxWaitSeconds    int    `json:"gate_max_wait_seconds" yaml:"gate_max_wait_seconds" toml:"gate_max_wait_seconds"`
	HealthProbeSchedule   string `json:"health_probe_schedule" yaml:"health_probe_schedule" toml:"health_probe_schedule"`

	Worker WorkerConfig `json:"worker" yaml:"worker" toml:"worker"`
	ONNX   ONNXConfig   `json:"onnx" yaml:"onnx" toml:"onnx"`
	// Backends routes an algorithm id or family to "worker" or "onnx".
	Backends map[string]string `json:"backends" yaml:"backends" toml:"backends"`
	CORS     CORSConfig        `json:"cors" yaml:"cors" toml:"cors"`
}

// WorkerConfig locates the model worker. Command spawns one; otherwise URL
// must point at a running worker.
type WorkerConfig struct {
	URL                   string   `json:"url" yaml:"url" toml:"url"`
	Command               string   `json:"command" yaml:"command" toml:"command"`
	Args                  []string `json:"args" yaml:"args" toml:"args"`
	Host                  string   `json:"host" yaml:"host" toml:"host"`
	PortStart             int      `json:"port_start" yaml:"port_start" toml:"port_start"`
	PortEnd               int      `json:"port_end" yaml:"port_end" toml:"port_end"`
	StartupTimeoutSeconds int      `json:"startup_timeout_seconds" yaml:"startup_timeout_seconds" toml:"startup_timeout_seconds"`
}

// ONNXConfig configures in-process rembg sessions.
type ONNXConfig struct {
	LibraryPath    string `json:"library_path" yaml:"library_path" toml:"library_path"`
	ModelsDir      string `json:"models_dir" yaml:"models_dir" toml:"models_dir"`
	IntraOpThreads int    `json:"intra_op_threads" yaml:"intra_op_threads" toml:"intra_op_threads"`
}

// CORSConfig lists allowed origins, methods and headers.
type CORSConfig struct {
	Origins []string `json:"origins" yaml:"origins" toml:"origins"`
	Methods []string `json:"methods" yaml:"methods" toml:"methods"`
	Headers []string `json:"headers" yaml:"headers" toml:"headers"`
}

// Load reads a configuration file based on its extension.
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".json":
		if err := json.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".toml":
		if err := toml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	return cfg, nil
}
