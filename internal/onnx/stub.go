//go:build !onnx

package onnx

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"rembgd/internal/manager"
)

// Available reports whether this build can run ONNX sessions.
const Available = false

// ErrUnavailable is returned when the binary was built without the onnx tag.
var ErrUnavailable = errors.New("onnx: built without onnx support (rebuild with -tags=onnx)")

// NewFactory returns a factory that always fails with ErrUnavailable.
func NewFactory(_ Config, _ *zerolog.Logger) manager.ProviderFactory {
	return func(context.Context, manager.Recipe) (manager.Provider, error) {
		return nil, ErrUnavailable
	}
}

// Shutdown is a no-op without onnx support.
func Shutdown() error { return nil }
