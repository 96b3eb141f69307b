//go:build linux

package firmware

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// DefaultLEDPin is the BCM pin the warning LED is wired to.
const DefaultLEDPin = 17

// GPIOLED drives the warning LED through the Linux GPIO character device.
type GPIOLED struct {
	chip *gpiocdev.Chip
	line *gpiocdev.Line
}

// NewGPIOLED requests the pin as an output, initially off.
func NewGPIOLED(chipName string, pin int) (*GPIOLED, error) {
	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip %s: %w", chipName, err)
	}

	line, err := chip.RequestLine(pin, gpiocdev.AsOutput(0))
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request LED pin %d: %w", pin, err)
	}

	return &GPIOLED{chip: chip, line: line}, nil
}

// Set drives the LED pin.
func (l *GPIOLED) Set(on bool) error {
	v := 0
	if on {
		v = 1
	}
	if err := l.line.SetValue(v); err != nil {
		return fmt.Errorf("set LED pin: %w", err)
	}
	return nil
}

// Close turns the LED off and releases GPIO resources.
func (l *GPIOLED) Close() error {
	var errs []error

	if l.line != nil {
		if err := l.line.SetValue(0); err != nil {
			errs = append(errs, fmt.Errorf("clear LED pin: %w", err))
		}
		if err := l.line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close LED pin: %w", err))
		}
	}
	if l.chip != nil {
		if err := l.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
