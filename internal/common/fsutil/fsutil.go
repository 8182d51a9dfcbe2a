// Package fsutil holds small path helpers shared by config loading, worker
// spawning and model file discovery.
package fsutil

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// ExpandHome expands a leading '~' to the user's home directory.
func ExpandHome(path string) (string, error) {
	if path == "" || path[0] != '~' {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("home dir: %w", err)
	}
	if path == "~" {
		return home, nil
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~/")), nil
}

// FileExists reports whether path names an existing regular file.
func FileExists(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.Mode().IsRegular()
}

// DirExists reports whether path names an existing directory.
func DirExists(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.IsDir()
}

// ErrNotExecutable is returned by ResolveExecutable when nothing runnable is found.
var ErrNotExecutable = errors.New("executable not found")

// ResolveExecutable turns a command name or path into an absolute path to a
// runnable file. Bare names are looked up on PATH; anything containing a
// separator (or a leading '~') is taken as a path.
func ResolveExecutable(name string) (string, error) {
	if name == "" {
		return "", ErrNotExecutable
	}
	p, err := ExpandHome(name)
	if err != nil {
		return "", err
	}
	if !strings.ContainsRune(p, os.PathSeparator) && !strings.ContainsRune(p, '/') {
		found, err := exec.LookPath(p)
		if err != nil {
			return "", fmt.Errorf("%w: %s", ErrNotExecutable, name)
		}
		return found, nil
	}
	if !FileExists(p) {
		return "", fmt.Errorf("%w: %s", ErrNotExecutable, name)
	}
	if abs, err := filepath.Abs(p); err == nil {
		p = abs
	}
	return p, nil
}
