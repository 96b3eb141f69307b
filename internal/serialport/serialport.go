// Package serialport opens and enumerates serial devices for the listener.
// The connection is a single-owner resource: one reader for the lifetime of
// a listener run, and a disconnect is terminal (reconnection is an external
// restart, never an in-process retry, so a sensor fault cannot be masked by
// silent reconnection).
package serialport

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"go.bug.st/serial"
	"go.bug.st/serial/enumerator"
)

// DefaultBaud matches the device firmware's serial configuration.
const DefaultBaud = 9600

// Open opens the named port for reading at the given baud rate.
func Open(name string, baud int) (io.ReadCloser, error) {
	if baud <= 0 {
		baud = DefaultBaud
	}
	port, err := serial.Open(name, &serial.Mode{BaudRate: baud})
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", name, err)
	}
	return port, nil
}

// Detect scans the available ports for a plausible sampling device,
// preferring anything that identifies as an Arduino and falling back to the
// first port found.
func Detect() (string, error) {
	ports, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return "", fmt.Errorf("enumerate serial ports: %w", err)
	}
	if len(ports) == 0 {
		return "", errors.New("no serial ports found")
	}
	for _, p := range ports {
		if looksLikeDevice(p.Name, p.Product) {
			return p.Name, nil
		}
	}
	return ports[0].Name, nil
}

// List describes the available ports, for the operator when detection picks
// the wrong one.
func List() ([]string, error) {
	ports, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, fmt.Errorf("enumerate serial ports: %w", err)
	}
	out := make([]string, 0, len(ports))
	for _, p := range ports {
		desc := p.Product
		if desc == "" {
			desc = "(no description)"
		}
		out = append(out, fmt.Sprintf("%s - %s", p.Name, desc))
	}
	return out, nil
}

func looksLikeDevice(name, product string) bool {
	return strings.Contains(strings.ToLower(name), "arduino") ||
		strings.Contains(strings.ToLower(product), "arduino")
}
