package manager

import "rembgd/internal/catalog"

// Recipe carries the initialization parameters for one algorithm's provider.
type Recipe struct {
	Algorithm string         `json:"algorithm"`
	Family    catalog.Family `json:"family"`
	Variant   string         `json:"variant"`
	// Device the weights are loaded on. Providers always start on the host;
	// "cuda" only means the accelerator is available for later placement.
	Device    string `json:"device"`
	BatchSize int    `json:"batch_size,omitempty"`
	// Matting refinement stage (carvekit only).
	MattingModule     string `json:"matting_module,omitempty"`
	MattingTensorSize int    `json:"matting_tensor_size,omitempty"`
	TrimapGenerator   bool   `json:"trimap_generator,omitempty"`
	// Session name (rembg only).
	Session string `json:"session,omitempty"`
	// ReturnsMask is set for families whose provider yields a mask.
	ReturnsMask bool `json:"returns_mask,omitempty"`
}

const (
	carvekitBatchSize         = 1
	carvekitMattingTensorSize = 2048
)

// RecipeFor builds the init recipe for spec. accelerator selects the device
// string handed to the provider.
func RecipeFor(spec catalog.Spec, accelerator bool) Recipe {
	r := Recipe{
		Algorithm: spec.ID,
		Family:    spec.Family,
		Variant:   spec.Variant,
		Device:    "cpu",
	}
	if accelerator && spec.Accelerated {
		r.Device = "cuda"
	}
	switch spec.Family {
	case catalog.FamilyCarveKit:
		r.BatchSize = carvekitBatchSize
		r.MattingModule = "fba"
		r.MattingTensorSize = carvekitMattingTensorSize
		r.TrimapGenerator = true
	case catalog.FamilyRembg:
		r.Session = spec.Variant
	case catalog.FamilyBRIA:
		r.ReturnsMask = true
	}
	return r
}
