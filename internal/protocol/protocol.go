// Package protocol implements the line-oriented serial protocol spoken by
// the sampling device. The protocol is ASCII, newline-terminated, and
// deliberately loose: the device interleaves human-readable diagnostics with
// machine-parsable records, so anything that is not a recognized record is
// skipped without error.
package protocol

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Recognized line shapes.
const (
	// ReadingPrefix tags a calibrated estimate, e.g. "BAC:0.082".
	ReadingPrefix = "BAC:"

	// StartLine is emitted once per on-device rising-edge threshold crossing.
	StartLine = "START"

	// StopLine is an explicit stop command from the device.
	StopLine = "STOP"
)

// EventType discriminates parsed protocol events.
type EventType int

const (
	// EventReading carries a calibrated estimate.
	EventReading EventType = iota

	// EventStart is the device-side edge marker.
	EventStart

	// EventStop is the device-side stop command.
	EventStop
)

// Event is a single decoded protocol record.
type Event struct {
	Type     EventType
	Estimate float64 // set for EventReading only
}

// FormatReading renders an estimate as a protocol line (without the trailing
// newline), using the fixed 3-digit precision of the wire format.
func FormatReading(estimate float64) string {
	return fmt.Sprintf("%s%.3f", ReadingPrefix, estimate)
}

// ParseLine decodes one line. It tolerates surrounding whitespace. The second
// return value is false for anything that is not a protocol record, including
// a tagged line whose number fails to parse.
func ParseLine(line string) (Event, bool) {
	s := strings.TrimSpace(line)
	switch {
	case s == StartLine:
		return Event{Type: EventStart}, true
	case s == StopLine:
		return Event{Type: EventStop}, true
	case strings.HasPrefix(s, ReadingPrefix):
		v, err := strconv.ParseFloat(strings.TrimSpace(strings.TrimPrefix(s, ReadingPrefix)), 64)
		if err != nil {
			return Event{}, false
		}
		return Event{Type: EventReading, Estimate: v}, true
	}
	return Event{}, false
}

// NormalizeEstimate maps percentage-style readings into the canonical 0..1
// range: a value in (1, 100] is taken to be a percent (8.2 means 0.082).
// Values above 100 are implausible either way and pass through unchanged.
func NormalizeEstimate(v float64) float64 {
	if v > 1 && v <= 100 {
		return v / 100
	}
	return v
}

// Stream decodes protocol events from a byte stream. It buffers partial
// lines across read boundaries, so a record split over multiple reads parses
// identically to a single-chunk delivery. The stream holds no other state:
// reconnecting the underlying reader just resumes producing events.
type Stream struct {
	sc      *bufio.Scanner
	skipped int
}

// NewStream wraps r in a protocol decoder.
func NewStream(r io.Reader) *Stream {
	return &Stream{sc: bufio.NewScanner(r)}
}

// Next blocks until the next protocol event is available. It returns io.EOF
// once the underlying stream ends, or the read error that terminated it.
// Non-protocol lines are consumed and counted but never returned.
func (s *Stream) Next() (Event, error) {
	for s.sc.Scan() {
		ev, ok := ParseLine(s.sc.Text())
		if !ok {
			s.skipped++
			continue
		}
		return ev, nil
	}
	if err := s.sc.Err(); err != nil {
		return Event{}, err
	}
	return Event{}, io.EOF
}

// Skipped reports how many non-protocol lines have been discarded so far.
func (s *Stream) Skipped() int {
	return s.skipped
}
