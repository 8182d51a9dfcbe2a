package worker

import (
	"context"
	"image"
	"time"

	"rembgd/internal/manager"
)

// unloadTimeout bounds the unload call made from Close.
const unloadTimeout = 10 * time.Second

// provider is one model loaded in the worker.
type provider struct {
	c  *Client
	id string
}

var (
	_ manager.Provider = (*provider)(nil)
	_ manager.Placer   = (*provider)(nil)
)

// NewFactory returns a ProviderFactory that loads models into the worker
// reached through c.
func NewFactory(c *Client) manager.ProviderFactory {
	return func(ctx context.Context, r manager.Recipe) (manager.Provider, error) {
		if err := c.Load(ctx, r); err != nil {
			return nil, err
		}
		return &provider{c: c, id: r.Algorithm}, nil
	}
}

func (p *provider) Infer(ctx context.Context, img image.Image) (image.Image, error) {
	return p.c.Infer(ctx, p.id, img)
}

// Place maps the manager's device states onto the worker's torch devices.
func (p *provider) Place(ctx context.Context, d manager.Device) error {
	dev := "cpu"
	if d == manager.DeviceAccelerator {
		dev = "cuda"
	}
	return p.c.SetDevice(ctx, p.id, dev)
}

func (p *provider) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), unloadTimeout)
	defer cancel()
	return p.c.Unload(ctx, p.id)
}
