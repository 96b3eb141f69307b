//go:build !linux

package firmware

import "errors"

// DefaultLEDPin is the BCM pin the warning LED is wired to.
const DefaultLEDPin = 17

// GPIOLED is not available on non-Linux platforms.
type GPIOLED struct{}

// NewGPIOLED returns an error on non-Linux platforms.
func NewGPIOLED(string, int) (*GPIOLED, error) {
	return nil, errors.New("gpio led: not supported on this platform (requires Linux)")
}

// Set is not implemented on non-Linux platforms.
func (l *GPIOLED) Set(bool) error {
	return errors.New("gpio led: not supported")
}

// Close is not implemented on non-Linux platforms.
func (l *GPIOLED) Close() error {
	return nil
}
