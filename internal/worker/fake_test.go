package worker

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"rembgd/internal/manager"
)

// fakeWorker is an in-process worker used by client and provider tests.
type fakeWorker struct {
	mu      sync.Mutex
	loaded  map[string]manager.Recipe
	devices []string // "<id>:<device>" in call order
	jobIDs  []string
	unloads []string
	// mask selects a mask response instead of a matted RGBA image
	mask      bool
	failLoad  bool
	failInfer bool
}

func newFakeWorker(t *testing.T) (*fakeWorker, *httptest.Server) {
	t.Helper()
	fw := &fakeWorker{loaded: map[string]manager.Recipe{}}
	srv := httptest.NewServer(fw)
	t.Cleanup(srv.Close)
	return fw, srv
}

func (fw *fakeWorker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/healthz" {
		w.WriteHeader(http.StatusOK)
		return
	}
	parts := strings.Split(strings.TrimPrefix(r.URL.Path, "/v1/models/"), "/")
	if len(parts) != 2 || r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	id, op := parts[0], parts[1]
	fw.mu.Lock()
	defer fw.mu.Unlock()
	switch op {
	case "load":
		if fw.failLoad {
			http.Error(w, "weights missing", http.StatusInternalServerError)
			return
		}
		var rec manager.Recipe
		if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		fw.loaded[id] = rec
		_, _ = w.Write([]byte(`{"device":"cpu"}`))
	case "device":
		var body struct{ Device string }
		_ = json.NewDecoder(r.Body).Decode(&body)
		fw.devices = append(fw.devices, id+":"+body.Device)
		w.WriteHeader(http.StatusOK)
	case "unload":
		fw.unloads = append(fw.unloads, id)
		delete(fw.loaded, id)
		w.WriteHeader(http.StatusOK)
	case "infer":
		fw.jobIDs = append(fw.jobIDs, r.Header.Get(HeaderJobID))
		if fw.failInfer {
			http.Error(w, "cuda out of memory", http.StatusInternalServerError)
			return
		}
		img, err := png.Decode(r.Body)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		var out image.Image
		if fw.mask {
			out = halfMask(img.Bounds())
			w.Header().Set(HeaderOutput, OutputMask)
		} else {
			out = halfMatte(img)
		}
		var buf bytes.Buffer
		_ = png.Encode(&buf, out)
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(buf.Bytes())
	default:
		http.NotFound(w, r)
	}
}

// set mutates the fake's behaviour under its lock.
func (fw *fakeWorker) set(f func(*fakeWorker)) {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	f(fw)
}

func (fw *fakeWorker) deviceCalls() []string {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	return append([]string(nil), fw.devices...)
}

// halfMask keeps the left half.
func halfMask(b image.Rectangle) *image.Gray {
	m := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx()/2; x++ {
			m.SetGray(x, y, color.Gray{Y: 255})
		}
	}
	return m
}

func halfMatte(src image.Image) *image.NRGBA {
	b := src.Bounds()
	out := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			c := color.NRGBAModel.Convert(src.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA)
			if x >= b.Dx()/2 {
				c.A = 0
			}
			out.SetNRGBA(x, y, c)
		}
	}
	return out
}

func solid(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	return img
}

func pngOf(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return buf.Bytes()
}
