package types

// Algorithm describes one selectable background-removal algorithm.
type Algorithm struct {
	// Stable identifier accepted by /api/remove-bg.
	// example: carvekit-tracer
	ID string `json:"id" example:"carvekit-tracer"`
	// Model family the algorithm belongs to.
	// example: carvekit
	Family string `json:"family" example:"carvekit"`
	// Variant within the family.
	// example: tracer
	Variant string `json:"variant" example:"tracer"`
	// Whether the algorithm runs on the shared accelerator when one is present.
	// example: true
	Accelerated bool `json:"accelerated" example:"true"`
}

// RemoveRequest is one background-removal call as seen by the manager.
type RemoveRequest struct {
	// Raw uploaded image bytes (any decodable format).
	Image []byte `json:"-"`
	// Algorithm identifier; empty selects the default.
	Algorithm string `json:"algorithm"`
	// Keep the alpha channel (PNG) instead of flattening onto Background (JPEG).
	Transparent bool `json:"is_transparent"`
	// Background colour as #RRGGBB, used when Transparent is false.
	Background string `json:"background_color"`
	// Request id for log correlation (optional).
	RequestID string `json:"-"`
}

// RemoveResult is the encoded output image.
type RemoveResult struct {
	Body        []byte
	ContentType string
}
