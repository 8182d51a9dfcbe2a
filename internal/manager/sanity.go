package manager

import (
	"fmt"
	"os"
	"strings"

	"rembgd/internal/common/fsutil"
)

// Device selection modes accepted by DetectDevice.
const (
	DeviceModeAuto = "auto"
	DeviceModeCUDA = "cuda"
	DeviceModeCPU  = "cpu"
)

// SanityReport describes how the compute mode was chosen.
type SanityReport struct {
	Mode        string `json:"mode"`
	Accelerator bool   `json:"accelerator"`
	NvidiaSMI   string `json:"nvidia_smi,omitempty"`
	Error       string `json:"error,omitempty"`
}

// DetectDevice resolves a configured device mode to accelerator or host.
// auto enables the accelerator when nvidia-smi is on PATH and
// CUDA_VISIBLE_DEVICES does not hide every device. It does not mutate state
// and is safe to call at any time.
func DetectDevice(mode string) (SanityReport, error) {
	mode = strings.ToLower(strings.TrimSpace(mode))
	if mode == "" {
		mode = DeviceModeAuto
	}
	r := SanityReport{Mode: mode}
	switch mode {
	case DeviceModeCPU:
		return r, nil
	case DeviceModeCUDA:
		r.Accelerator = true
		return r, nil
	case DeviceModeAuto:
	default:
		return r, fmt.Errorf("unknown device mode %q (want auto, cuda or cpu)", mode)
	}

	if v, ok := os.LookupEnv("CUDA_VISIBLE_DEVICES"); ok {
		v = strings.TrimSpace(v)
		if v == "" || v == "-1" {
			r.Error = "CUDA_VISIBLE_DEVICES hides all devices"
			return r, nil
		}
	}
	bin, err := fsutil.ResolveExecutable("nvidia-smi")
	if err != nil {
		r.Error = err.Error()
		return r, nil
	}
	r.NvidiaSMI = bin
	r.Accelerator = true
	return r, nil
}
