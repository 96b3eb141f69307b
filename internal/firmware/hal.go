// Package firmware implements the on-device sampling/actuation loop: read
// the alcohol sensor on a fixed period, stream calibrated estimates over the
// serial line, latch rising-edge threshold crossings, and drive the local
// LED and display. The hardware sits behind small interfaces so the loop
// runs identically against real peripherals, simulation, or test fakes.
package firmware

// ADC reads the raw analog sensor value, in the converter's native range
// (0..1023 for the 10-bit parts this targets).
type ADC interface {
	Read() (int, error)
}

// LED drives the warning actuator.
type LED interface {
	Set(on bool) error
}

// Display is the local readout: either the current estimate or, while the
// LED window is active, a countdown to window expiry.
type Display interface {
	ShowEstimate(estimate float64)
	ShowCountdown(seconds int)
}

// NopLED is used when no actuator is wired.
type NopLED struct{}

func (NopLED) Set(bool) error { return nil }

// NopDisplay is used when no display is wired.
type NopDisplay struct{}

func (NopDisplay) ShowEstimate(float64) {}
func (NopDisplay) ShowCountdown(int)    {}
