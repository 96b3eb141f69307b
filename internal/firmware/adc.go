package firmware

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sweeney/bac-monitor/internal/calib"
)

// FileADC reads the raw sample from a sysfs attribute, the interface the
// kernel IIO subsystem exposes for I2C converters like the ADS1115
// (e.g. /sys/bus/iio/devices/iio:device0/in_voltage0_raw).
type FileADC struct {
	Path string
}

// Read parses the current raw value from the attribute file.
func (a *FileADC) Read() (int, error) {
	data, err := os.ReadFile(a.Path)
	if err != nil {
		return 0, fmt.Errorf("read adc attribute: %w", err)
	}
	v, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("parse adc attribute %q: %w", a.Path, err)
	}
	return v, nil
}

// SimADC synthesizes a triangle wave for bench runs without a sensor:
// the raw value climbs from Floor to Peak and back over one Period.
type SimADC struct {
	Floor  int
	Peak   int
	Period time.Duration

	// Now is injectable for tests; nil means time.Now.
	Now func() time.Time

	start time.Time
}

// Read returns the current point on the wave.
func (a *SimADC) Read() (int, error) {
	now := time.Now
	if a.Now != nil {
		now = a.Now
	}
	if a.start.IsZero() {
		a.start = now()
	}
	period := a.Period
	if period <= 0 {
		period = time.Minute
	}
	peak := a.Peak
	if peak <= 0 {
		peak = calib.MaxRaw
	}

	phase := float64(now().Sub(a.start)%period) / float64(period)
	// Triangle: 0 -> 1 over the first half, 1 -> 0 over the second.
	frac := 2 * phase
	if frac > 1 {
		frac = 2 - frac
	}
	return a.Floor + int(frac*float64(peak-a.Floor)), nil
}
