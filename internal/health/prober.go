// Package health runs periodic dependency probes (such as the model worker's
// /healthz) on a cron schedule and keeps the latest result of each.
package health

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"rembgd/pkg/types"
)

// DefaultSchedule probes every 30 seconds.
const DefaultSchedule = "@every 30s"

const probeTimeout = 5 * time.Second

var dependencyUp = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: "rembgd",
		Subsystem: "health",
		Name:      "dependency_up",
		Help:      "1 when the last probe of a dependency succeeded",
	},
	[]string{"dependency"},
)

func init() {
	prometheus.MustRegister(dependencyUp)
}

// Check probes one dependency. It must honour ctx.
type Check func(ctx context.Context) error

type result struct {
	err       error
	checkedAt time.Time
	probed    bool
}

// Prober owns a cron scheduler that runs every registered check.
type Prober struct {
	mu      sync.RWMutex
	checks  map[string]Check
	results map[string]result

	cron     *cron.Cron
	schedule string
	log      zerolog.Logger
}

// NewProber returns a prober for schedule (cron spec or @every descriptor).
// An empty schedule uses DefaultSchedule.
func NewProber(schedule string, logger *zerolog.Logger) *Prober {
	if schedule == "" {
		schedule = DefaultSchedule
	}
	p := &Prober{
		checks:   map[string]Check{},
		results:  map[string]result{},
		cron:     cron.New(),
		schedule: schedule,
		log:      zerolog.Nop(),
	}
	if logger != nil {
		p.log = logger.With().Str("component", "health").Logger()
	}
	return p
}

// Add registers a named check. Call before Start.
func (p *Prober) Add(name string, c Check) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.checks[name] = c
}

// Start validates the schedule, runs every check once, and schedules the rest.
func (p *Prober) Start(ctx context.Context) error {
	if _, err := p.cron.AddFunc(p.schedule, func() { p.RunOnce(context.Background()) }); err != nil {
		return err
	}
	p.RunOnce(ctx)
	p.cron.Start()
	p.log.Info().Str("schedule", p.schedule).Int("checks", len(p.names())).Msg("health prober started")
	return nil
}

// Stop halts the scheduler and waits for a running probe to finish.
func (p *Prober) Stop() {
	<-p.cron.Stop().Done()
}

// RunOnce runs every check now and records the results.
func (p *Prober) RunOnce(ctx context.Context) {
	for _, name := range p.names() {
		p.mu.RLock()
		check := p.checks[name]
		prev := p.results[name]
		p.mu.RUnlock()

		cctx, cancel := context.WithTimeout(ctx, probeTimeout)
		err := check(cctx)
		cancel()

		p.mu.Lock()
		p.results[name] = result{err: err, checkedAt: time.Now(), probed: true}
		p.mu.Unlock()

		if err != nil {
			dependencyUp.WithLabelValues(name).Set(0)
			if prev.err == nil {
				p.log.Warn().Err(err).Str("dependency", name).Msg("dependency unhealthy")
			}
			continue
		}
		dependencyUp.WithLabelValues(name).Set(1)
		if prev.err != nil {
			p.log.Info().Str("dependency", name).Msg("dependency recovered")
		}
	}
}

// Healthy reports whether every check has run and last succeeded.
func (p *Prober) Healthy() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	for name := range p.checks {
		r := p.results[name]
		if !r.probed || r.err != nil {
			return false
		}
	}
	return true
}

// Status returns the last result of each check, sorted by name.
func (p *Prober) Status() []types.DependencyStatus {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]types.DependencyStatus, 0, len(p.checks))
	for name := range p.checks {
		r := p.results[name]
		st := types.DependencyStatus{Name: name, Healthy: r.probed && r.err == nil}
		if r.probed {
			st.CheckedAt = r.checkedAt.Unix()
		}
		if r.err != nil {
			st.Error = r.err.Error()
		}
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (p *Prober) names() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]string, 0, len(p.checks))
	for n := range p.checks {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
