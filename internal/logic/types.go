// Package logic contains pure decision logic for the BAC listener.
// This package has NO external dependencies (no serial I/O, process control,
// or clocks). Debounce is counted in samples rather than wall time: the
// device emits one reading per fixed sampling period, so N consecutive
// readings bound detection latency to N periods.
package logic

// Decision is an action the listener should take on the subordinate server.
type Decision string

const (
	DecisionStart Decision = "START_SERVER"
	DecisionStop  Decision = "STOP_SERVER"
)

// Phase is the engine's current decision state.
type Phase string

const (
	PhaseIdle    Phase = "IDLE"
	PhaseStarted Phase = "STARTED"
)

// Config holds the debounce/hysteresis parameters.
type Config struct {
	// StartThreshold is the estimate at or above which a reading qualifies
	// toward a start decision.
	StartThreshold float64

	// ConsecutiveStart is the number of consecutive qualifying readings
	// required to emit a start decision. Clamped to >= 1.
	ConsecutiveStart int

	// ConsecutiveStop is the number of consecutive below-threshold readings
	// required to emit a stop decision when AutoStop is set. Clamped to >= 1.
	ConsecutiveStop int

	// AutoStop enables the stop-decision path. When false the engine never
	// emits a stop decision from readings, however long the estimate stays
	// below the threshold.
	AutoStop bool
}

// State is a snapshot of the engine for status consumers.
// Invariant: at most one of Above and Below is nonzero.
type State struct {
	Phase Phase
	Above int
	Below int

	// Running totals since startup.
	Readings int
	Starts   int
	Stops    int
}
