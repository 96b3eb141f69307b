// Package calib holds the linear transform that converts raw ADC samples
// into blood-alcohol estimates. The transform is loaded once at startup and
// immutable afterwards; without a calibration file a built-in default
// mapping is used.
package calib

import (
	"encoding/json"
	"fmt"
	"os"
)

// MaxRaw is the top of the sensor's ADC range (10-bit converter).
const MaxRaw = 1023

// defaultFullScale is the estimate produced by a full-scale raw sample
// under the default mapping (0..1023 -> 0.0..0.5).
const defaultFullScale = 0.5

// Calibration is a linear raw-to-estimate transform.
type Calibration struct {
	Scale  float64 `json:"scale"`
	Offset float64 `json:"offset"`
}

// Default returns the built-in mapping used when no calibration file is
// supplied.
func Default() Calibration {
	return Calibration{Scale: defaultFullScale / float64(MaxRaw)}
}

// Load reads a calibration file. A missing file is not an error: the default
// mapping is returned. A file that exists but cannot be parsed, or that
// carries a non-positive scale, returns the default mapping together with an
// error so the caller can warn and continue.
func Load(path string) (Calibration, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return Default(), fmt.Errorf("read calibration file: %w", err)
	}

	var c Calibration
	if err := json.Unmarshal(data, &c); err != nil {
		return Default(), fmt.Errorf("parse calibration file: %w", err)
	}
	if c.Scale <= 0 {
		return Default(), fmt.Errorf("calibration scale must be positive, got %v", c.Scale)
	}
	return c, nil
}

// Apply converts a raw ADC sample to a calibrated estimate.
func (c Calibration) Apply(raw int) float64 {
	return float64(raw)*c.Scale + c.Offset
}
