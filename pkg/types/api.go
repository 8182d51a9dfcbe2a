package types

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	// Overall process status.
	// example: healthy
	Status string `json:"status" example:"healthy"`
	// Active compute mode: cuda when an accelerator is in use, cpu otherwise.
	// example: cuda
	Device string `json:"device" example:"cuda"`
	// Full fixed list of supported algorithm identifiers.
	AvailableAlgorithms []string `json:"available_algorithms"`
	// Algorithms whose provider has been initialized so far.
	LoadedModels []string `json:"loaded_models"`
}

// AlgorithmsResponse wraps the catalog returned by GET /api/algorithms.
type AlgorithmsResponse struct {
	// Default algorithm used when a request omits one.
	// example: carvekit-tracer
	Default string `json:"default" example:"carvekit-tracer"`
	// Supported algorithms.
	Algorithms []Algorithm `json:"algorithms"`
}

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: unknown algorithm: not-a-real-algo
	Error string `json:"error" example:"unknown algorithm: not-a-real-algo"`
	// HTTP status code.
	// example: 400
	Code int `json:"code" example:"400"`
}

// EntryStatus summarizes one initialized model entry for /status.
type EntryStatus struct {
	// Algorithm identifier served by this entry.
	// example: inspyrenet
	Algorithm string `json:"algorithm" example:"inspyrenet"`
	// Where the provider weights currently live: host or accelerator.
	// example: host
	Device string `json:"device" example:"host"`
	// Whether the algorithm contends for the accelerator gate.
	// example: true
	Accelerated bool `json:"accelerated" example:"true"`
	// Initialization time (unix seconds).
	// example: 1700000000
	InitializedAt int64 `json:"initialized_unix" example:"1700000000"`
	// Last time this entry served a request (unix seconds).
	// example: 1700000100
	LastUsed int64 `json:"last_used_unix" example:"1700000100"`
	// Number of inference calls served.
	// example: 12
	Uses uint64 `json:"uses" example:"12"`
	// Last failed attempt to move the weights back to host memory, if any.
	PlacementError string `json:"placement_error,omitempty"`
}

// GateStatus reports accelerator gate occupancy.
type GateStatus struct {
	// Holders of the gate (0 or 1).
	// example: 1
	Inflight int `json:"inflight" example:"1"`
	// Requests waiting for the gate.
	// example: 3
	Waiting int `json:"waiting" example:"3"`
	// Algorithm currently resident on the accelerator, if any.
	// example: carvekit-tracer
	Resident string `json:"resident,omitempty" example:"carvekit-tracer"`
}

// StatusResponse is returned by GET /status.
type StatusResponse struct {
	// Overall manager state (loading, ready, error).
	// example: ready
	State string `json:"state" example:"ready"`
	// Active compute mode: cuda or cpu.
	// example: cpu
	Device string `json:"device" example:"cpu"`
	// Initialization policy: lazy or eager.
	// example: lazy
	Policy string `json:"policy" example:"lazy"`
	// Initialized entries.
	Entries []EntryStatus `json:"entries"`
	// Accelerator gate occupancy.
	Gate GateStatus `json:"gate"`
	// External dependency probes (model worker).
	Dependencies []DependencyStatus `json:"dependencies,omitempty"`
	// Total successful provider initializations.
	// example: 4
	InitsTotal uint64 `json:"inits_total" example:"4"`
	// Total failed provider initializations.
	// example: 1
	InitFailuresTotal uint64 `json:"init_failures_total" example:"1"`
	// Last error observed by the manager (if any).
	LastError string `json:"last_error,omitempty"`
	// Uptime of the server in seconds.
	// example: 3600
	UptimeSeconds int64 `json:"uptime_seconds" example:"3600"`
	// Server time in unix seconds.
	// example: 1700000000
	ServerTimeUnix int64 `json:"server_time_unix" example:"1700000000"`
}

// DependencyStatus is the last probe result of an external dependency.
type DependencyStatus struct {
	// Dependency name.
	// example: worker
	Name string `json:"name" example:"worker"`
	// Whether the last probe succeeded.
	// example: true
	Healthy bool `json:"healthy" example:"true"`
	// Time of the last probe (unix seconds); zero before the first probe.
	// example: 1700000000
	CheckedAt int64 `json:"checked_unix" example:"1700000000"`
	// Last probe error, if any.
	Error string `json:"error,omitempty"`
}
