package manager

import (
	"context"
	"fmt"
	"time"

	"rembgd/internal/catalog"
)

// Resolve returns the entry for id, building its provider on first use.
// Concurrent first calls share one construction; a failed construction is
// not cached and the next call retries.
func (m *Manager) Resolve(ctx context.Context, id string) (*Entry, error) {
	spec, ok := catalog.Lookup(id)
	if !ok {
		return nil, ErrUnknownAlgorithm(id)
	}
	if e, ok := m.entries.Load(id); ok {
		return e, nil
	}
	if m.closed.Load() {
		return nil, ErrModelUnavailable(id, errClosed)
	}
	// One caller's cancellation must not abort a construction others share.
	buildCtx := context.WithoutCancel(ctx)
	v, err, _ := m.inits.Do(id, func() (any, error) {
		if e, ok := m.entries.Load(id); ok {
			return e, nil
		}
		return m.build(buildCtx, spec)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Entry), nil
}

// Loaded returns the ids of initialized entries in catalog order.
func (m *Manager) Loaded() []string {
	var out []string
	for _, id := range catalog.IDs() {
		if _, ok := m.entries.Load(id); ok {
			out = append(out, id)
		}
	}
	return out
}

// Lookup returns an already-built entry without constructing one.
func (m *Manager) Lookup(id string) (*Entry, bool) {
	return m.entries.Load(id)
}

func (m *Manager) build(ctx context.Context, spec catalog.Spec) (e *Entry, err error) {
	start := time.Now()
	recipe := RecipeFor(spec, m.accelerator)
	log := m.log.With().Str("algorithm", spec.ID).Str("device", recipe.Device).Logger()
	log.Info().Msg("model init start")
	m.publisher.Publish(Event{Name: "model_init_start", ModelID: spec.ID, Fields: map[string]any{"device": recipe.Device}})

	defer func() {
		if r := recover(); r != nil {
			e, err = nil, fmt.Errorf("provider factory panic: %v", r)
		}
		if err != nil {
			err = ErrModelUnavailable(spec.ID, err)
			m.initFailuresTotal.Add(1)
			modelInitsTotal.WithLabelValues(spec.ID, "error").Inc()
			m.setErr(err)
			log.Error().Err(err).Dur("elapsed", time.Since(start)).Msg("model init failed")
			m.publisher.Publish(Event{Name: "model_init_error", ModelID: spec.ID, Fields: map[string]any{"error": err.Error()}})
		}
	}()

	p, err := m.factory(ctx, recipe)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("factory returned no provider")
	}
	e = newEntry(spec, p)
	m.lifeMu.Lock()
	if m.closed.Load() {
		m.lifeMu.Unlock()
		if cerr := p.Close(); cerr != nil {
			log.Warn().Err(cerr).Msg("close provider built during shutdown")
		}
		return nil, errClosed
	}
	m.entries.Store(spec.ID, e)
	m.lifeMu.Unlock()
	m.initsTotal.Add(1)
	modelInitsTotal.WithLabelValues(spec.ID, "ok").Inc()
	_, placer := p.(Placer)
	log.Info().Dur("elapsed", time.Since(start)).Bool("placer", placer).Msg("model init ready")
	m.publisher.Publish(Event{Name: "model_init_ready", ModelID: spec.ID, Fields: map[string]any{"dur_ms": int(time.Since(start) / time.Millisecond)}})
	return e, nil
}
