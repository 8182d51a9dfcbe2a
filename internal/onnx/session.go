//go:build onnx

package onnx

import (
	"context"
	"fmt"
	"image"
	"sync"

	"github.com/rs/zerolog"
	ort "github.com/yalue/onnxruntime_go"

	"rembgd/internal/common/fsutil"
	"rembgd/internal/manager"
)

// Available reports whether this build can run ONNX sessions.
const Available = true

var (
	runtimeOnce sync.Once
	runtimeErr  error
)

func initRuntime(libPath string) error {
	runtimeOnce.Do(func() {
		if libPath != "" {
			p, err := fsutil.ExpandHome(libPath)
			if err != nil {
				runtimeErr = err
				return
			}
			ort.SetSharedLibraryPath(p)
		}
		runtimeErr = ort.InitializeEnvironment()
	})
	return runtimeErr
}

// Shutdown releases the runtime environment. Call once at process exit.
func Shutdown() error {
	if !ort.IsInitialized() {
		return nil
	}
	return ort.DestroyEnvironment()
}

// session is one loaded rembg model. ONNX Runtime sessions are safe for
// concurrent Run calls, but the input/output buffers are not, so calls are
// serialized per session.
type session struct {
	mu     sync.Mutex
	spec   ModelSpec
	inner  *ort.DynamicAdvancedSession
	input  string
	output string
}

var _ manager.Provider = (*session)(nil)

// NewFactory returns a ProviderFactory for rembg recipes.
func NewFactory(cfg Config, logger *zerolog.Logger) manager.ProviderFactory {
	log := zerolog.Nop()
	if logger != nil {
		log = logger.With().Str("component", "onnx").Logger()
	}
	return func(ctx context.Context, r manager.Recipe) (manager.Provider, error) {
		spec, ok := SpecFor(r.Session)
		if !ok {
			return nil, fmt.Errorf("onnx: no model spec for session %q", r.Session)
		}
		if err := initRuntime(cfg.LibraryPath); err != nil {
			return nil, fmt.Errorf("onnx runtime: %w", err)
		}
		dir, err := fsutil.ExpandHome(cfg.ModelsDir)
		if err != nil {
			return nil, err
		}
		if !fsutil.DirExists(dir) {
			return nil, fmt.Errorf("onnx: models dir not found: %s", dir)
		}
		path := Config{ModelsDir: dir}.ModelPath(spec.Session)
		if !fsutil.FileExists(path) {
			return nil, fmt.Errorf("onnx: model file not found: %s", path)
		}
		inputs, outputs, err := ort.GetInputOutputInfo(path)
		if err != nil {
			return nil, fmt.Errorf("onnx: inspect %s: %w", path, err)
		}
		if len(inputs) == 0 || len(outputs) == 0 {
			return nil, fmt.Errorf("onnx: %s has no inputs or outputs", path)
		}

		opts, err := ort.NewSessionOptions()
		if err != nil {
			return nil, fmt.Errorf("onnx: session options: %w", err)
		}
		defer opts.Destroy()
		if cfg.IntraOpThreads > 0 {
			if err := opts.SetIntraOpNumThreads(cfg.IntraOpThreads); err != nil {
				return nil, fmt.Errorf("onnx: threads: %w", err)
			}
		}
		inner, err := ort.NewDynamicAdvancedSession(path, []string{inputs[0].Name}, []string{outputs[0].Name}, opts)
		if err != nil {
			return nil, fmt.Errorf("onnx: create session: %w", err)
		}
		log.Info().Str("session", spec.Session).Str("path", path).Int("size", spec.Size).Msg("onnx session ready")
		return &session{spec: spec, inner: inner, input: inputs[0].Name, output: outputs[0].Name}, nil
	}
}

// Infer returns a grayscale mask the size of img.
func (s *session) Infer(ctx context.Context, img image.Image) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	n := int64(s.spec.Size)
	data := Preprocess(img, s.spec)

	s.mu.Lock()
	defer s.mu.Unlock()
	in, err := ort.NewTensor(ort.NewShape(1, 3, n, n), data)
	if err != nil {
		return nil, fmt.Errorf("input tensor: %w", err)
	}
	defer in.Destroy()
	out, err := ort.NewEmptyTensor[float32](ort.NewShape(1, 1, n, n))
	if err != nil {
		return nil, fmt.Errorf("output tensor: %w", err)
	}
	defer out.Destroy()
	if err := s.inner.Run([]ort.Value{in}, []ort.Value{out}); err != nil {
		return nil, fmt.Errorf("run %s: %w", s.spec.Session, err)
	}
	b := img.Bounds()
	return MaskFromOutput(out.GetData(), s.spec.Size, b.Dx(), b.Dy())
}

func (s *session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inner == nil {
		return nil
	}
	err := s.inner.Destroy()
	s.inner = nil
	return err
}
