package manager

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"time"

	"rembgd/internal/catalog"
	"rembgd/internal/imageproc"
	"rembgd/pkg/types"
)

// DefaultBackground is used for opaque output when no colour is given.
const DefaultBackground = "#ffffff"

// RemoveBackground runs one background-removal request end to end: validate,
// decode, resolve the provider, infer (under the accelerator gate when the
// algorithm is accelerated), post-process and encode.
func (m *Manager) RemoveBackground(ctx context.Context, req types.RemoveRequest) (types.RemoveResult, error) {
	start := time.Now()
	id := req.Algorithm
	if id == "" {
		id = catalog.DefaultID
	}
	log := m.log.With().Str("algorithm", id).Logger()
	if req.RequestID != "" {
		log = log.With().Str("request_id", req.RequestID).Logger()
	}

	res, err := m.removeBackground(ctx, id, req)
	elapsed := time.Since(start)
	if err != nil {
		ev := log.Error()
		if IsValidation(err) || IsTooBusy(err) {
			ev = log.Warn()
		}
		ev.Err(err).Dur("elapsed", elapsed).Msg("background removal failed")
		return types.RemoveResult{}, err
	}
	log.Info().
		Dur("elapsed", elapsed).
		Bool("transparent", req.Transparent).
		Int("bytes", len(res.Body)).
		Msg("background removed")
	return res, nil
}

func (m *Manager) removeBackground(ctx context.Context, id string, req types.RemoveRequest) (types.RemoveResult, error) {
	if _, ok := catalog.Lookup(id); !ok {
		return types.RemoveResult{}, ErrUnknownAlgorithm(id)
	}
	var bg color.NRGBA
	if !req.Transparent {
		hex := req.Background
		if hex == "" {
			hex = DefaultBackground
		}
		c, err := imageproc.ParseHexColor(hex)
		if err != nil {
			return types.RemoveResult{}, ErrValidation(err.Error())
		}
		bg = c
	}
	src, err := imageproc.Decode(req.Image)
	if err != nil {
		return types.RemoveResult{}, ErrValidation(err.Error())
	}
	rgb := imageproc.ToRGB(src)

	e, err := m.Resolve(ctx, id)
	if err != nil {
		return types.RemoveResult{}, err
	}
	out, err := m.infer(ctx, e, rgb)
	if err != nil {
		return types.RemoveResult{}, err
	}

	var matted image.Image = out
	if imageproc.IsMask(out) {
		matted = imageproc.ApplyMask(rgb, out)
	}
	if !req.Transparent {
		matted = imageproc.Flatten(matted, bg)
	}
	body, ct, err := imageproc.Encode(matted, req.Transparent)
	if err != nil {
		return types.RemoveResult{}, ErrEncoding(err)
	}
	return types.RemoveResult{Body: body, ContentType: ct}, nil
}

// infer calls the provider, bracketing the call with the gate and weight
// placement when the algorithm is accelerated and the process has an
// accelerator. Host-only calls never touch the gate.
func (m *Manager) infer(ctx context.Context, e *Entry, img image.Image) (out image.Image, err error) {
	e.touch()
	placer, canPlace := e.Provider.(Placer)
	if !m.accelerator || !e.Spec.Accelerated || !canPlace {
		return m.call(ctx, e, img)
	}

	release, err := m.gate.Acquire(ctx)
	if err != nil {
		if IsTooBusy(err) {
			return nil, tooBusyError{id: e.ID}
		}
		return nil, err
	}
	defer release()
	defer func() {
		if rerr := m.toHost(e); rerr != nil && err == nil {
			// The output is valid; the stranded placement is retried by the
			// next accelerated call.
			m.log.Warn().Str("algorithm", e.ID).Msg("returning result with weights still on accelerator")
		}
	}()

	if err := m.toAccelerator(ctx, e, placer); err != nil {
		return nil, err
	}
	return m.call(ctx, e, img)
}

// call invokes the provider, converting a panic into an inference error.
func (m *Manager) call(ctx context.Context, e *Entry, img image.Image) (out image.Image, err error) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			out, err = nil, ErrInference(e.ID, fmt.Errorf("provider panic: %v", r))
		}
		inferenceDuration.WithLabelValues(e.ID, resultLabel(err)).Observe(time.Since(start).Seconds())
	}()
	out, err = e.Provider.Infer(ctx, img)
	if err != nil {
		return nil, ErrInference(e.ID, err)
	}
	if out == nil {
		return nil, ErrInference(e.ID, errors.New("provider returned no image"))
	}
	return out, nil
}
