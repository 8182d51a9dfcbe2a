package e2e

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"rembgd/internal/manager"
	"rembgd/pkg/types"
)

type result struct {
	status int
	body   []byte
	err    error
}

func TestE2E_AcceleratorBackpressure429(t *testing.T) {
	holder := newPlacedProvider(true)
	waiter := newPlacedProvider(false)
	hostOnly := newPlacedProvider(false)
	srv, _ := newServerWithProviders(t, manager.ManagerConfig{
		Accelerator: true,
		GateMaxWait: 50 * time.Millisecond,
	}, map[string]manager.Provider{
		"inspyrenet":      holder,
		"carvekit-tracer": waiter,
		"bria":            hostOnly,
	})
	img := testPNG(t)

	first := make(chan result, 1)
	go func() {
		s, b, err := postRemove(srv.URL, img, map[string]string{"algorithm": "inspyrenet"})
		first <- result{s, b, err}
	}()
	select {
	case <-holder.started:
	case <-time.After(5 * time.Second):
		t.Fatal("first request never reached inference")
	}

	// The gate is held: a second accelerated request gives up after GateMaxWait.
	s, body, err := postRemove(srv.URL, img, map[string]string{"algorithm": "carvekit-tracer"})
	if err != nil {
		t.Fatalf("second request: %v", err)
	}
	if s != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d body=%s", s, body)
	}
	var er types.ErrorResponse
	if err := json.Unmarshal(body, &er); err != nil || er.Error == "" {
		t.Fatalf("expected JSON error body, got %s (%v)", body, err)
	}

	// Host-only algorithms never contend for the gate.
	s, body, err = postRemove(srv.URL, img, map[string]string{"algorithm": "bria"})
	if err != nil || s != http.StatusOK {
		t.Fatalf("host-only request while gate held: status=%d err=%v body=%s", s, err, body)
	}

	close(holder.release)
	r := <-first
	if r.err != nil || r.status != http.StatusOK {
		t.Fatalf("first request: status=%d err=%v body=%s", r.status, r.err, r.body)
	}
	if !opaqueAt(t, r.body, 2, 2) {
		t.Fatal("expected opaque output for a full mask")
	}

	if got := holder.history(); len(got) != 2 || got[0] != manager.DeviceAccelerator || got[1] != manager.DeviceHost {
		t.Fatalf("expected accelerator then host placement, got %v", got)
	}
	if got := hostOnly.history(); len(got) != 0 {
		t.Fatalf("host-only provider should never be placed, got %v", got)
	}

	resp, _ := httpGet(t, srv.URL+"/metrics")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("/metrics status=%d", resp.StatusCode)
	}
}

func TestE2E_Ready_Remove_Status(t *testing.T) {
	srv, _ := newServerWithProviders(t, manager.ManagerConfig{Accelerator: true}, nil)

	resp, body := httpGet(t, srv.URL+"/readyz")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("lazy manager should be ready, got %d body=%s", resp.StatusCode, body)
	}

	resp, body = httpGet(t, srv.URL+"/api/algorithms")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("/api/algorithms status=%d", resp.StatusCode)
	}
	var algs types.AlgorithmsResponse
	if err := json.Unmarshal(body, &algs); err != nil {
		t.Fatalf("/api/algorithms json: %v body=%s", err, body)
	}
	if len(algs.Algorithms) == 0 || algs.Default == "" {
		t.Fatalf("unexpected algorithms response: %+v", algs)
	}

	for _, alg := range []string{"inspyrenet", "rembg-isnet", "inspyrenet"} {
		s, out, err := postRemove(srv.URL, testPNG(t), map[string]string{"algorithm": alg})
		if err != nil || s != http.StatusOK {
			t.Fatalf("%s: status=%d err=%v body=%s", alg, s, err, out)
		}
	}

	resp, body = httpGet(t, srv.URL+"/status")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("/status status=%d", resp.StatusCode)
	}
	var st types.StatusResponse
	if err := json.Unmarshal(body, &st); err != nil {
		t.Fatalf("/status json: %v body=%s", err, body)
	}
	if len(st.Entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(st.Entries))
	}
	for _, e := range st.Entries {
		if e.Device != string(manager.DeviceHost) {
			t.Fatalf("%s left on %s", e.Algorithm, e.Device)
		}
		if e.Algorithm == "inspyrenet" && e.Uses != 2 {
			t.Fatalf("expected 2 uses for inspyrenet, got %d", e.Uses)
		}
	}
	if st.Gate.Inflight != 0 || st.Gate.Resident != "" {
		t.Fatalf("gate should be idle, got %+v", st.Gate)
	}
	if st.InitsTotal != 2 {
		t.Fatalf("expected 2 inits, got %d", st.InitsTotal)
	}
}
