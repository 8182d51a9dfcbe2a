// Package onnx runs the rembg segmentation models in-process with ONNX
// Runtime. Sessions need the onnxruntime shared library and are only
// compiled with the onnx build tag; pre- and post-processing are pure Go
// and always available.
package onnx

import (
	"fmt"
	"image"
	"path/filepath"

	"github.com/disintegration/imaging"
)

// Config locates the runtime library and model files.
type Config struct {
	// LibraryPath is the onnxruntime shared library (empty uses the platform default).
	LibraryPath string
	// ModelsDir holds <session>.onnx files.
	ModelsDir string
	// IntraOpThreads caps per-session threads; zero lets the runtime decide.
	IntraOpThreads int
}

// ModelSpec is the fixed input geometry and normalization of one rembg session.
type ModelSpec struct {
	Session string
	Size    int
	Mean    [3]float32
	Std     [3]float32
}

var (
	imagenetMean = [3]float32{0.485, 0.456, 0.406}
	imagenetStd  = [3]float32{0.229, 0.224, 0.225}
	unitStd      = [3]float32{1, 1, 1}
)

var specs = map[string]ModelSpec{
	"u2net":             {Session: "u2net", Size: 320, Mean: imagenetMean, Std: imagenetStd},
	"u2net_human_seg":   {Session: "u2net_human_seg", Size: 320, Mean: imagenetMean, Std: imagenetStd},
	"isnet-general-use": {Session: "isnet-general-use", Size: 1024, Mean: [3]float32{0.5, 0.5, 0.5}, Std: unitStd},
	"isnet-anime":       {Session: "isnet-anime", Size: 1024, Mean: imagenetMean, Std: unitStd},
}

// SpecFor returns the spec of a rembg session name.
func SpecFor(session string) (ModelSpec, bool) {
	s, ok := specs[session]
	return s, ok
}

// ModelPath is where the session's weights are expected.
func (c Config) ModelPath(session string) string {
	return filepath.Join(c.ModelsDir, session+".onnx")
}

// Preprocess resizes img to the model square and returns it as a normalized
// NCHW float tensor. Pixels are scaled by the image maximum before mean/std
// normalization.
func Preprocess(img image.Image, spec ModelSpec) []float32 {
	n := spec.Size
	resized := imaging.Resize(img, n, n, imaging.Lanczos)
	maxv := uint8(0)
	for i := 0; i < len(resized.Pix); i += 4 {
		for c := 0; c < 3; c++ {
			if v := resized.Pix[i+c]; v > maxv {
				maxv = v
			}
		}
	}
	scale := float32(maxv)
	if scale == 0 {
		scale = 1
	}
	plane := n * n
	out := make([]float32, 3*plane)
	for y := 0; y < n; y++ {
		for x := 0; x < n; x++ {
			p := y*resized.Stride + x*4
			for c := 0; c < 3; c++ {
				v := float32(resized.Pix[p+c]) / scale
				out[c*plane+y*n+x] = (v - spec.Mean[c]) / spec.Std[c]
			}
		}
	}
	return out
}

// MaskFromOutput min-max normalizes the first size*size values of a model
// output into a grayscale mask and scales it to w x h.
func MaskFromOutput(pred []float32, size, w, h int) (*image.Gray, error) {
	plane := size * size
	if size <= 0 || len(pred) < plane {
		return nil, fmt.Errorf("model output has %d values, want at least %d", len(pred), plane)
	}
	lo, hi := pred[0], pred[0]
	for _, v := range pred[:plane] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	small := image.NewGray(image.Rect(0, 0, size, size))
	if span := hi - lo; span > 0 {
		for i, v := range pred[:plane] {
			small.Pix[i] = uint8((v-lo)/span*255 + 0.5)
		}
	}
	if w == size && h == size {
		return small, nil
	}
	scaled := imaging.Resize(small, w, h, imaging.Lanczos)
	mask := image.NewGray(image.Rect(0, 0, w, h))
	for i := range mask.Pix {
		mask.Pix[i] = scaled.Pix[i*4]
	}
	return mask, nil
}
