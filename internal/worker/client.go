// Package worker talks to an external model worker process over HTTP and
// exposes each loaded model as a manager.Provider. The worker may be spawned
// by rembgd (see Process) or run independently and reached by URL.
package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/image/draw"

	"rembgd/internal/imageproc"
	"rembgd/internal/manager"
)

// Protocol headers.
const (
	HeaderJobID  = "X-Job-ID"
	HeaderOutput = "X-Output"
	OutputMask   = "mask"
)

// maxResponseBytes caps an inference response body.
const maxResponseBytes = 256 << 20

// Client is an HTTP client for the worker protocol.
type Client struct {
	baseURL string
	http    *http.Client
	log     zerolog.Logger
}

// NewClient returns a client for the worker at baseURL. The http.Client has
// no global timeout; every call is bounded by its context.
func NewClient(baseURL string, logger *zerolog.Logger) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 0},
		log:     zerolog.Nop(),
	}
	if logger != nil {
		c.log = logger.With().Str("component", "worker").Str("url", c.baseURL).Logger()
	}
	return c
}

// BaseURL returns the worker root URL.
func (c *Client) BaseURL() string { return c.baseURL }

// httpError is a non-2xx worker response.
type httpError struct {
	status int
	body   string
}

func (e *httpError) Error() string {
	return fmt.Sprintf("worker http error: %d %s: %s", e.status, http.StatusText(e.status), e.body)
}

// Healthy returns nil when the worker answers GET /healthz with 2xx.
func (c *Client) Healthy(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/healthz", nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return checkStatus(resp)
}

// Load asks the worker to build the model described by r on the host.
func (c *Client) Load(ctx context.Context, r manager.Recipe) error {
	return c.postJSON(ctx, modelPath(r.Algorithm, "load"), r)
}

// SetDevice moves a loaded model's weights to device ("cuda" or "cpu").
func (c *Client) SetDevice(ctx context.Context, id, device string) error {
	return c.postJSON(ctx, modelPath(id, "device"), map[string]string{"device": device})
}

// Unload releases a loaded model.
func (c *Client) Unload(ctx context.Context, id string) error {
	return c.postJSON(ctx, modelPath(id, "unload"), struct{}{})
}

// Infer sends img as PNG and returns the worker's output. Mask responses
// are returned as *image.Gray.
func (c *Client) Infer(ctx context.Context, id string, img image.Image) (image.Image, error) {
	var body bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.BestSpeed}
	if err := enc.Encode(&body, img); err != nil {
		return nil, fmt.Errorf("encode request image: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+modelPath(id, "infer"), &body)
	if err != nil {
		return nil, err
	}
	jobID := uuid.NewString()
	req.Header.Set("Content-Type", imageproc.ContentTypePNG)
	req.Header.Set(HeaderJobID, jobID)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, err
	}
	defer resp.Body.Close()
	if err := checkStatus(resp); err != nil {
		return nil, err
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read worker response: %w", err)
	}
	out, err := imageproc.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("worker response: %w", err)
	}
	mask := strings.EqualFold(resp.Header.Get(HeaderOutput), OutputMask)
	c.log.Debug().
		Str("algorithm", id).
		Str("job_id", jobID).
		Bool("mask", mask).
		Dur("elapsed", time.Since(start)).
		Msg("worker infer done")
	if mask && !imageproc.IsMask(out) {
		out = toGray(out)
	}
	return out, nil
}

func (c *Client) postJSON(ctx context.Context, path string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}
	defer resp.Body.Close()
	if err := checkStatus(resp); err != nil {
		return err
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	return nil
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return &httpError{status: resp.StatusCode, body: strings.TrimSpace(string(b))}
}

func modelPath(id, op string) string {
	return "/v1/models/" + url.PathEscape(id) + "/" + op
}

func toGray(img image.Image) *image.Gray {
	b := img.Bounds()
	g := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(g, g.Bounds(), img, b.Min, draw.Src)
	return g
}
