package manager

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"rembgd/internal/catalog"
)

// Warm builds every catalog algorithm when the manager is eager and then
// marks it ready. Lazy managers return at once. Construction failures are
// logged and left retryable; they never fail Warm.
func (m *Manager) Warm(ctx context.Context) error {
	if !m.eager {
		return nil
	}
	start := time.Now()
	m.log.Info().Int("parallelism", m.warmParallelism).Msg("eager warmup start")
	m.publisher.Publish(Event{Name: "warmup_start"})

	var g errgroup.Group
	g.SetLimit(m.warmParallelism)
	for _, id := range catalog.IDs() {
		id := id
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			if _, err := m.Resolve(ctx, id); err != nil {
				m.log.Warn().Err(err).Str("algorithm", id).Msg("eager init failed; will retry on first request")
			}
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		m.mu.Lock()
		m.state = StateError
		m.err = err.Error()
		m.mu.Unlock()
		return err
	}

	m.mu.Lock()
	m.state = StateReady
	m.mu.Unlock()
	loaded := len(m.Loaded())
	m.log.Info().Int("loaded", loaded).Dur("elapsed", time.Since(start)).Msg("eager warmup done")
	m.publisher.Publish(Event{Name: "warmup_done", Fields: map[string]any{"loaded": loaded}})
	return nil
}
