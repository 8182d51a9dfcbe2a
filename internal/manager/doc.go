// Package manager owns model lifecycle and accelerator serialization for
// background removal. It is structured into small files by concern:
//
//   - manager.go: core Manager type, constructor, Close, simple getters.
//   - config.go: ManagerConfig and package defaults; NewWithConfig applies defaults.
//   - types.go: Provider/Placer capability interfaces, Device, Entry.
//   - recipes.go: per-family provider init recipes.
//   - factory.go: routing of algorithms to provider backends.
//   - errors.go: typed errors (IsValidation, IsModelUnavailable, IsInference,
//     IsEncoding, IsTooBusy), each carrying an HTTP status code.
//   - registry.go: Resolve builds each provider at most once per algorithm.
//   - gate.go: DeviceGate, the single-holder accelerator gate.
//   - placement.go: host/accelerator state machine for provider weights.
//   - remove.go: RemoveBackground, the request orchestrator.
//   - warmup.go: eager initialization policy.
//   - status_report.go: Health/Status reporting.
//   - sanity.go: accelerator detection.
//   - events.go, eventpub_memory.go: lifecycle events.
//
// Providers are opaque: they take an RGB image and return either a matted
// RGBA image or a grayscale mask. Providers that also implement Placer are
// moved to the accelerator for exactly one inference call at a time and are
// always moved back to host memory afterwards.
package manager
