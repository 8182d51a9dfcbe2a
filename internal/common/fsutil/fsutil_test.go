package fsutil

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestExpandHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	if runtime.GOOS == "windows" {
		t.Setenv("USERPROFILE", home)
	}
	if got, err := ExpandHome("/tmp"); err != nil || got != "/tmp" {
		t.Fatalf("got %q err=%v", got, err)
	}
	if got, err := ExpandHome(""); err != nil || got != "" {
		t.Fatalf("got %q err=%v", got, err)
	}
	p, err := ExpandHome("~")
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if p != home {
		t.Fatalf("expected %q, got %q", home, p)
	}
	exp, err := ExpandHome("~/models/rembg")
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if exp != filepath.Join(home, "models/rembg") {
		t.Fatalf("unexpected expanded path: %q", exp)
	}
}

func TestFileAndDirExists(t *testing.T) {
	dir := t.TempDir()
	f := filepath.Join(dir, "u2net.onnx")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if !FileExists(f) {
		t.Fatalf("FileExists(%q) = false", f)
	}
	if FileExists(dir) {
		t.Fatalf("FileExists on a directory should be false")
	}
	if !DirExists(dir) || DirExists(f) {
		t.Fatalf("DirExists mismatch")
	}
	if FileExists(filepath.Join(dir, "missing")) {
		t.Fatalf("missing file reported as existing")
	}
}

func TestResolveExecutable(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("exec bits differ on windows")
	}
	dir := t.TempDir()
	bin := filepath.Join(dir, "rembg-worker")
	if err := os.WriteFile(bin, []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := ResolveExecutable(bin)
	if err != nil || got != bin {
		t.Fatalf("path lookup: got %q err=%v", got, err)
	}

	t.Setenv("PATH", dir)
	got, err = ResolveExecutable("rembg-worker")
	if err != nil || got != bin {
		t.Fatalf("PATH lookup: got %q err=%v", got, err)
	}

	if _, err := ResolveExecutable(""); !errors.Is(err, ErrNotExecutable) {
		t.Fatalf("empty name: want ErrNotExecutable, got %v", err)
	}
	if _, err := ResolveExecutable(filepath.Join(dir, "nope")); !errors.Is(err, ErrNotExecutable) {
		t.Fatalf("missing path: want ErrNotExecutable, got %v", err)
	}
	if _, err := ResolveExecutable("definitely-not-on-path"); !errors.Is(err, ErrNotExecutable) {
		t.Fatalf("missing name: want ErrNotExecutable, got %v", err)
	}
}
