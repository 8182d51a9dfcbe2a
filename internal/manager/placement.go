package manager

import (
	"context"
	"fmt"
)

// Placement is an explicit two-state machine per entry:
//
//	host --toAccelerator--> accelerator --toHost--> host
//
// Both transitions run only while the caller holds the gate, so at most one
// entry is ever resident on the accelerator.

// toAccelerator moves e's weights onto the accelerator. Any other entry left
// resident by a failed restore is moved home first. The entry is recorded as
// accelerator-resident before the move is attempted so a partial move is
// still undone by toHost.
func (m *Manager) toAccelerator(ctx context.Context, e *Entry, p Placer) error {
	if prev := m.resident.Load(); prev != nil && prev != e {
		if err := m.toHost(prev); err != nil {
			return ErrInference(e.ID, fmt.Errorf("accelerator still held by %s: %w", prev.ID, err))
		}
	}

	e.mu.Lock()
	already := e.device == DeviceAccelerator
	e.device = DeviceAccelerator
	e.mu.Unlock()
	m.resident.Store(e)
	if already {
		return nil
	}

	err := place(ctx, p, DeviceAccelerator)
	deviceTransitionsTotal.WithLabelValues("to_accelerator", resultLabel(err)).Inc()
	if err != nil {
		m.log.Warn().Err(err).Str("algorithm", e.ID).Msg("move to accelerator failed")
		return ErrInference(e.ID, fmt.Errorf("move to accelerator: %w", err))
	}
	m.publisher.Publish(Event{Name: "device_to_accelerator", ModelID: e.ID})
	return nil
}

// toHost moves e's weights back to host memory. It uses its own context so a
// cancelled request still restores placement. On failure the entry stays
// marked accelerator-resident with the error recorded, and the next
// accelerated call retries.
func (m *Manager) toHost(e *Entry) error {
	e.mu.Lock()
	if e.device == DeviceHost {
		e.mu.Unlock()
		return nil
	}
	e.mu.Unlock()

	p, ok := e.Provider.(Placer)
	if !ok {
		e.mu.Lock()
		e.device = DeviceHost
		e.mu.Unlock()
		m.resident.CompareAndSwap(e, nil)
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), m.restoreTimeout)
	defer cancel()
	err := place(ctx, p, DeviceHost)
	deviceTransitionsTotal.WithLabelValues("to_host", resultLabel(err)).Inc()

	e.mu.Lock()
	if err != nil {
		e.placementErr = err
		e.mu.Unlock()
		restoreFailuresTotal.WithLabelValues(e.ID).Inc()
		m.setErr(err)
		m.log.Error().Err(err).Str("algorithm", e.ID).Msg("restore to host failed")
		m.publisher.Publish(Event{Name: "device_restore_error", ModelID: e.ID, Fields: map[string]any{"error": err.Error()}})
		return err
	}
	e.device = DeviceHost
	e.placementErr = nil
	e.mu.Unlock()
	m.resident.CompareAndSwap(e, nil)
	m.publisher.Publish(Event{Name: "device_to_host", ModelID: e.ID})
	return nil
}

// place calls p.Place, converting a panic into an error.
func place(ctx context.Context, p Placer, d Device) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("placer panic: %v", r)
		}
	}()
	return p.Place(ctx, d)
}
