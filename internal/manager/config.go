package manager

import (
	"time"

	"github.com/puzpuzpuz/xsync/v3"
	"github.com/rs/zerolog"
)

// Defaults applied when corresponding ManagerConfig fields are unset.
const (
	defaultGateMaxWait     = 2 * time.Minute
	defaultRestoreTimeout  = time.Minute
	defaultWarmParallelism = 2
)

// ManagerConfig encapsulates all tunables for Manager construction.
type ManagerConfig struct {
	// Factory builds providers on first use. Required.
	Factory ProviderFactory
	// Logger receives manager logs; nil disables logging.
	Logger *zerolog.Logger
	// Publisher receives lifecycle events; nil drops them.
	Publisher EventPublisher
	// Accelerator is true when a GPU is present and accelerated algorithms
	// should be placed on it for inference.
	Accelerator bool
	// Eager builds every algorithm in Warm instead of on first request.
	Eager bool
	// GateMaxWait bounds the wait for the accelerator gate. Negative disables the limit.
	GateMaxWait time.Duration
	// RestoreTimeout bounds one move of weights back to host memory.
	RestoreTimeout time.Duration
	// WarmParallelism caps concurrent constructions during Warm.
	WarmParallelism int
}

// NewWithConfig constructs a Manager from ManagerConfig.
func NewWithConfig(cfg ManagerConfig) *Manager {
	m := &Manager{
		state:       StateReady,
		factory:     cfg.Factory,
		publisher:   cfg.Publisher,
		accelerator: cfg.Accelerator,
		eager:       cfg.Eager,
		entries:     xsync.NewMapOf[string, *Entry](),
		startTime:   time.Now(),
	}
	if cfg.Logger != nil {
		m.log = cfg.Logger.With().Str("component", "manager").Logger()
	} else {
		m.log = zerolog.Nop()
	}
	if m.publisher == nil {
		m.publisher = noopPublisher{}
	}
	if m.factory == nil {
		m.factory = unconfiguredFactory
	}
	if m.eager {
		m.state = StateLoading
	}

	maxWait := cfg.GateMaxWait
	switch {
	case maxWait == 0:
		maxWait = defaultGateMaxWait
	case maxWait < 0:
		maxWait = 0
	}
	m.gate = NewDeviceGate(maxWait)

	if cfg.RestoreTimeout <= 0 {
		m.restoreTimeout = defaultRestoreTimeout
	} else {
		m.restoreTimeout = cfg.RestoreTimeout
	}
	if cfg.WarmParallelism <= 0 {
		m.warmParallelism = defaultWarmParallelism
	} else {
		m.warmParallelism = cfg.WarmParallelism
	}
	return m
}
