package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTempFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return p
}

func TestLoadYAML(t *testing.T) {
	d := t.TempDir()
	p := writeTempFile(t, d, "cfg.yaml", `
addr: :9999
device: cuda
eager: true
gate_max_wait_seconds: 15
worker:
  command: rembg-worker
  args: ["--models", "/weights"]
  port_start: 31000
  port_end: 31010
onnx:
  models_dir: ~/.u2net
backends:
  rembg: onnx
cors:
  origins: ["https://example.com"]
`)
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != ":9999" || cfg.Device != "cuda" || !cfg.Eager || cfg.GateMaxWaitSeconds != 15 {
		t.Fatalf("unexpected cfg: %+v", cfg)
	}
	if cfg.Worker.Command != "rembg-worker" || len(cfg.Worker.Args) != 2 || cfg.Worker.PortEnd != 31010 {
		t.Fatalf("unexpected worker cfg: %+v", cfg.Worker)
	}
	if cfg.ONNX.ModelsDir != "~/.u2net" || cfg.Backends["rembg"] != "onnx" || cfg.CORS.Origins[0] != "https://example.com" {
		t.Fatalf("unexpected cfg: %+v", cfg)
	}
}

func TestLoadJSON(t *testing.T) {
	d := t.TempDir()
	p := writeTempFile(t, d, "cfg.json", `{"addr":":7070","device":"cpu","max_upload_mb":5,"worker":{"url":"http://w:9000"}}`)
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != ":7070" || cfg.Device != "cpu" || cfg.MaxUploadMB != 5 || cfg.Worker.URL != "http://w:9000" {
		t.Fatalf("unexpected cfg: %+v", cfg)
	}
}

func TestLoadTOML(t *testing.T) {
	d := t.TempDir()
	p := writeTempFile(t, d, "cfg.toml", "addr=\":8081\"\nlog_format=\"json\"\n[onnx]\nintra_op_threads=4\n[backends]\nbria=\"worker\"\n")
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != ":8081" || cfg.LogFormat != "json" || cfg.ONNX.IntraOpThreads != 4 || cfg.Backends["bria"] != "worker" {
		t.Fatalf("unexpected cfg: %+v", cfg)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(""); err == nil {
		t.Fatalf("expected error on empty path")
	}
	d := t.TempDir()
	p := writeTempFile(t, d, "cfg.txt", "not supported")
	if _, err := Load(p); err == nil {
		t.Fatalf("expected unsupported extension error")
	}
}
