package manager

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// testCtx returns a context with a short timeout, canceled on test cleanup.
func testCtx(t *testing.T) context.Context {
	t.Helper()
	c, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return c
}

// pngBytes encodes a w x h opaque test image.
func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(40 + x), G: uint8(80 + y), B: 120, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return buf.Bytes()
}

// onDevice tracks how many providers are inside Infer while placed on the
// accelerator, and the maximum ever observed.
type onDevice struct {
	cur atomic.Int32
	max atomic.Int32
}

func (o *onDevice) enter() {
	n := o.cur.Add(1)
	for {
		m := o.max.Load()
		if n <= m || o.max.CompareAndSwap(m, n) {
			return
		}
	}
}

func (o *onDevice) leave() { o.cur.Add(-1) }

// fakeProvider is an in-memory Provider and Placer.
type fakeProvider struct {
	mu         sync.Mutex
	device     Device
	placements []Device
	// hostFailures makes the next N moves to host fail
	hostFailures int
	accelFail    bool
	// panicAccel panics on moves to the accelerator; hostPanics panics on
	// the next N moves to host
	panicAccel bool
	hostPanics int

	infer  func(ctx context.Context, img image.Image) (image.Image, error)
	shared *onDevice
	closed atomic.Bool
}

func (p *fakeProvider) Infer(ctx context.Context, img image.Image) (image.Image, error) {
	p.mu.Lock()
	onAccel := p.device == DeviceAccelerator
	p.mu.Unlock()
	if onAccel && p.shared != nil {
		p.shared.enter()
		defer p.shared.leave()
	}
	if p.infer != nil {
		return p.infer(ctx, img)
	}
	return fullMask(img.Bounds(), 255), nil
}

func (p *fakeProvider) Place(ctx context.Context, d Device) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.placements = append(p.placements, d)
	if d == DeviceAccelerator && p.panicAccel {
		panic("cuda driver crashed")
	}
	if d == DeviceHost && p.hostPanics > 0 {
		p.hostPanics--
		panic("cuda driver crashed")
	}
	if d == DeviceHost && p.hostFailures > 0 {
		p.hostFailures--
		return errors.New("cuda: device busy")
	}
	if d == DeviceAccelerator && p.accelFail {
		return errors.New("cuda: out of memory")
	}
	p.device = d
	return nil
}

func (p *fakeProvider) Close() error {
	p.closed.Store(true)
	return nil
}

func (p *fakeProvider) Device() Device {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.device
}

func (p *fakeProvider) Placements() []Device {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Device(nil), p.placements...)
}

// hostOnlyProvider does not implement Placer.
type hostOnlyProvider struct {
	infer func(ctx context.Context, img image.Image) (image.Image, error)
}

func (p hostOnlyProvider) Infer(ctx context.Context, img image.Image) (image.Image, error) {
	if p.infer != nil {
		return p.infer(ctx, img)
	}
	return fullMask(img.Bounds(), 255), nil
}

func (hostOnlyProvider) Close() error { return nil }

// fakeFactory counts constructions per algorithm and hands out providers
// built by newProvider.
type fakeFactory struct {
	mu        sync.Mutex
	calls     map[string]int
	providers map[string]Provider
	recipes   map[string]Recipe
	// failures makes the first N constructions of every id fail
	failures    int
	delay       time.Duration
	newProvider func(r Recipe) Provider
}

func newFakeFactory(newProvider func(r Recipe) Provider) *fakeFactory {
	if newProvider == nil {
		newProvider = func(Recipe) Provider { return &fakeProvider{} }
	}
	return &fakeFactory{
		calls:       map[string]int{},
		providers:   map[string]Provider{},
		recipes:     map[string]Recipe{},
		newProvider: newProvider,
	}
}

func (f *fakeFactory) Build(ctx context.Context, r Recipe) (Provider, error) {
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[r.Algorithm]++
	f.recipes[r.Algorithm] = r
	if f.calls[r.Algorithm] <= f.failures {
		return nil, errors.New("weights not downloaded")
	}
	p := f.newProvider(r)
	f.providers[r.Algorithm] = p
	return p, nil
}

func (f *fakeFactory) Calls(id string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[id]
}

func (f *fakeFactory) TotalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

func (f *fakeFactory) Provider(id string) Provider {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.providers[id]
}

func fullMask(b image.Rectangle, v uint8) *image.Gray {
	m := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for i := range m.Pix {
		m.Pix[i] = v
	}
	return m
}
