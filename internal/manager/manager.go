package manager

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// Manager owns the model registry, the accelerator gate and the placement of
// provider weights. One Manager serves the whole process.
type Manager struct {
	mu    sync.RWMutex
	state State
	err   string

	factory         ProviderFactory
	log             zerolog.Logger
	publisher       EventPublisher
	accelerator     bool
	eager           bool
	restoreTimeout  time.Duration
	warmParallelism int

	entries *xsync.MapOf[string, *Entry]
	inits   singleflight.Group
	gate    *DeviceGate
	// entry whose weights are on the accelerator, if any
	resident atomic.Pointer[Entry]

	initsTotal        atomic.Uint64
	initFailuresTotal atomic.Uint64
	startTime         time.Time

	// lifeMu orders the closed flag against entries being stored
	lifeMu sync.Mutex
	closed atomic.Bool
}

// New constructs a lazy Manager with package defaults.
func New(factory ProviderFactory, accelerator bool) *Manager {
	return NewWithConfig(ManagerConfig{Factory: factory, Accelerator: accelerator})
}

var errClosed = errors.New("manager closed")

func unconfiguredFactory(context.Context, Recipe) (Provider, error) {
	return nil, errors.New("no provider factory configured")
}

// Ready reports whether the manager accepts work. Lazy managers are ready at
// once; eager managers become ready when Warm returns.
func (m *Manager) Ready() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state == StateReady
}

// Accelerator reports whether the process runs in accelerator mode.
func (m *Manager) Accelerator() bool { return m.accelerator }

// DeviceMode is the compute mode reported by /health: cuda or cpu.
func (m *Manager) DeviceMode() string {
	if m.accelerator {
		return "cuda"
	}
	return "cpu"
}

// Gate exposes the accelerator gate for observation.
func (m *Manager) Gate() *DeviceGate { return m.gate }

func (m *Manager) setErr(err error) {
	m.mu.Lock()
	m.err = err.Error()
	m.mu.Unlock()
}

// Close moves any accelerator-resident weights home and closes every provider.
// The restore runs under the gate, waiting at most the restore timeout for an
// in-flight accelerated call to finish.
func (m *Manager) Close() error {
	m.lifeMu.Lock()
	if m.closed.Load() {
		m.lifeMu.Unlock()
		return nil
	}
	m.closed.Store(true)
	m.lifeMu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), m.restoreTimeout)
	release, gerr := m.gate.Acquire(ctx)
	cancel()
	if gerr != nil {
		m.log.Warn().Err(gerr).Msg("accelerator busy at shutdown, skipping restore to host")
	} else {
		defer release()
	}

	var errs []error
	m.entries.Range(func(id string, e *Entry) bool {
		if gerr == nil {
			if err := m.toHost(e); err != nil {
				errs = append(errs, err)
			}
		}
		if err := e.Provider.Close(); err != nil {
			errs = append(errs, err)
		}
		m.entries.Delete(id)
		m.publisher.Publish(Event{Name: "model_closed", ModelID: id})
		return true
	})
	m.log.Info().Int("errors", len(errs)).Msg("manager closed")
	return errors.Join(errs...)
}
