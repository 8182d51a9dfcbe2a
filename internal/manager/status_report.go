package manager

import (
	"time"

	"rembgd/internal/catalog"
	"rembgd/pkg/types"
)

// Health builds the /health payload. The algorithm list is always the full
// catalog, independent of what has been initialized.
func (m *Manager) Health() types.HealthResponse {
	loaded := m.Loaded()
	if loaded == nil {
		loaded = []string{}
	}
	return types.HealthResponse{
		Status:              "healthy",
		Device:              m.DeviceMode(),
		AvailableAlgorithms: catalog.IDs(),
		LoadedModels:        loaded,
	}
}

// Status builds a detailed status response for /status.
func (m *Manager) Status() types.StatusResponse {
	m.mu.RLock()
	state, lastErr := m.state, m.err
	m.mu.RUnlock()

	policy := "lazy"
	if m.eager {
		policy = "eager"
	}
	resp := types.StatusResponse{
		State:             string(state),
		Device:            m.DeviceMode(),
		Policy:            policy,
		Entries:           []types.EntryStatus{},
		InitsTotal:        m.initsTotal.Load(),
		InitFailuresTotal: m.initFailuresTotal.Load(),
		LastError:         lastErr,
		UptimeSeconds:     int64(time.Since(m.startTime).Seconds()),
		ServerTimeUnix:    time.Now().Unix(),
		Gate: types.GateStatus{
			Inflight: m.gate.Inflight(),
			Waiting:  m.gate.Waiting(),
		},
	}
	if r := m.resident.Load(); r != nil {
		resp.Gate.Resident = r.ID
	}
	for _, id := range catalog.IDs() {
		e, ok := m.entries.Load(id)
		if !ok {
			continue
		}
		st := types.EntryStatus{
			Algorithm:     e.ID,
			Device:        string(e.Device()),
			Accelerated:   e.Spec.Accelerated,
			InitializedAt: e.InitializedAt.Unix(),
			LastUsed:      e.LastUsed().Unix(),
			Uses:          e.Uses(),
		}
		if err := e.PlacementErr(); err != nil {
			st.PlacementError = err.Error()
		}
		resp.Entries = append(resp.Entries, st)
	}
	return resp
}
