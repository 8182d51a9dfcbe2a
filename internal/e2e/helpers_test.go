package e2e

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"rembgd/internal/httpapi"
	"rembgd/internal/manager"
)

// placedProvider is a Provider and Placer whose Infer can be held open by the
// test. It returns an opaque mask.
type placedProvider struct {
	mu         sync.Mutex
	device     manager.Device
	placements []manager.Device

	started chan struct{}
	release chan struct{}
}

func newPlacedProvider(hold bool) *placedProvider {
	p := &placedProvider{device: manager.DeviceHost, started: make(chan struct{}, 8)}
	if hold {
		p.release = make(chan struct{})
	}
	return p
}

func (p *placedProvider) Infer(ctx context.Context, img image.Image) (image.Image, error) {
	p.started <- struct{}{}
	if p.release != nil {
		select {
		case <-p.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	m := image.NewGray(img.Bounds())
	for i := range m.Pix {
		m.Pix[i] = 255
	}
	return m, nil
}

func (p *placedProvider) Place(_ context.Context, d manager.Device) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.device = d
	p.placements = append(p.placements, d)
	return nil
}

func (p *placedProvider) Close() error { return nil }

func (p *placedProvider) history() []manager.Device {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]manager.Device(nil), p.placements...)
}

// newServerWithProviders starts the HTTP stack over a manager whose factory
// hands out the given providers by algorithm id.
func newServerWithProviders(t *testing.T, cfg manager.ManagerConfig, providers map[string]manager.Provider) (*httptest.Server, *manager.Manager) {
	t.Helper()
	cfg.Factory = func(_ context.Context, r manager.Recipe) (manager.Provider, error) {
		if p, ok := providers[r.Algorithm]; ok {
			return p, nil
		}
		return newPlacedProvider(false), nil
	}
	mgr := manager.NewWithConfig(cfg)
	srv := httptest.NewServer(httpapi.NewMux(mgr))
	t.Cleanup(srv.Close)
	t.Cleanup(func() { _ = mgr.Close() })
	return srv, mgr
}

func testPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 6, 4))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = 30, 90, 150, 255
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return buf.Bytes()
}

func httpGet(t *testing.T, url string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, url, nil)
	if err != nil {
		t.Fatalf("new req: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do req: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	return resp, body
}

// postRemove uploads img with the given form fields. It is safe to call from
// other goroutines: failures are returned, not reported.
func postRemove(url string, img []byte, fields map[string]string) (int, []byte, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("image", "in.png")
	if err != nil {
		return 0, nil, err
	}
	if _, err := fw.Write(img); err != nil {
		return 0, nil, err
	}
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			return 0, nil, err
		}
	}
	if err := mw.Close(); err != nil {
		return 0, nil, err
	}
	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, url+"/api/remove-bg", &body)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	return resp.StatusCode, out, err
}

// opaqueAt reports whether the decoded PNG is fully opaque at (x, y).
func opaqueAt(t *testing.T, b []byte, x, y int) bool {
	t.Helper()
	img, err := png.Decode(bytes.NewReader(b))
	if err != nil {
		t.Fatalf("decode output: %v", err)
	}
	_, _, _, a := color.NRGBAModel.Convert(img.At(x, y)).RGBA()
	return a == 0xffff
}
