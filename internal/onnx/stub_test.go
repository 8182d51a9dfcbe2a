//go:build !onnx

package onnx

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rembgd/internal/manager"
)

func TestStubFactoryUnavailable(t *testing.T) {
	require.False(t, Available)
	_, err := NewFactory(Config{}, nil)(context.Background(), manager.Recipe{Algorithm: "rembg-u2net", Session: "u2net"})
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.NoError(t, Shutdown())
}
