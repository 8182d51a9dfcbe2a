package manager

import (
	"context"
	"image"
	"sync"
	"sync/atomic"
	"time"

	"rembgd/internal/catalog"
)

// State represents lifecycle state of the manager.
type State string

const (
	StateReady   State = "ready"
	StateLoading State = "loading"
	StateError   State = "error"
)

// Device is where a provider's weights currently live.
type Device string

const (
	DeviceHost        Device = "host"
	DeviceAccelerator Device = "accelerator"
)

// Provider is an opaque segment-and-matte capability. Infer returns either a
// matted RGBA image or a single-channel mask the size of the input.
type Provider interface {
	Infer(ctx context.Context, img image.Image) (image.Image, error)
	Close() error
}

// Placer is implemented by providers whose weights can move between host
// memory and the accelerator.
type Placer interface {
	Place(ctx context.Context, d Device) error
}

// ProviderFactory builds the provider for one algorithm. It is called at most
// once per algorithm for as long as it keeps succeeding.
type ProviderFactory func(ctx context.Context, r Recipe) (Provider, error)

// Entry is one initialized algorithm owned by the registry.
type Entry struct {
	ID            string
	Spec          catalog.Spec
	Provider      Provider
	InitializedAt time.Time

	// placement state; transitions happen only while the gate is held
	mu           sync.Mutex
	device       Device
	placementErr error

	lastUsed atomic.Int64
	uses     atomic.Uint64
}

func newEntry(spec catalog.Spec, p Provider) *Entry {
	e := &Entry{
		ID:            spec.ID,
		Spec:          spec,
		Provider:      p,
		InitializedAt: time.Now(),
		device:        DeviceHost,
	}
	e.lastUsed.Store(e.InitializedAt.Unix())
	return e
}

// Device reports where the entry's weights currently live.
func (e *Entry) Device() Device {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.device
}

// PlacementErr returns the last failed move back to host, if unresolved.
func (e *Entry) PlacementErr() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.placementErr
}

// Uses is the number of inference calls served.
func (e *Entry) Uses() uint64 { return e.uses.Load() }

// LastUsed is the time of the last inference call.
func (e *Entry) LastUsed() time.Time { return time.Unix(e.lastUsed.Load(), 0) }

func (e *Entry) touch() {
	e.uses.Add(1)
	e.lastUsed.Store(time.Now().Unix())
}
