// Package status provides a thread-safe status tracker for the BAC listener.
// It is read by the HTTP status server and serialized into MQTT system
// events, while the listener loop updates it on every parsed event.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/bac-monitor/internal/logic"
)

// Config contains listener configuration for display.
type Config struct {
	Port             string
	Baud             int
	Threshold        float64
	ConsecutiveStart int
	ConsecutiveStop  int
	AutoStop         bool
	NoAutoStart      bool
	ServerCmd        string
	Broker           string
	HTTPAddr         string
}

// Snapshot is a point-in-time view of listener state. It is a value type,
// safe to use after the lock is released.
type Snapshot struct {
	Engine        logic.State
	LastEstimate  float64
	HaveReading   bool
	ServerRunning bool
	MQTTConnected bool
	SkippedLines  int
	StartTime     time.Time
	Now           time.Time
	Config        Config
}

// Uptime returns the duration since the listener started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable listener state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Config:    cfg,
		},
	}
}

// Update sets the engine state and last estimate. Called from the listener
// loop on every protocol event.
func (t *Tracker) Update(engine logic.State, estimate float64, haveReading bool) {
	t.mu.Lock()
	t.snap.Engine = engine
	if haveReading {
		t.snap.LastEstimate = estimate
		t.snap.HaveReading = true
	}
	t.mu.Unlock()
}

// SetServerRunning sets the supervisor's process state.
func (t *Tracker) SetServerRunning(running bool) {
	t.mu.Lock()
	t.snap.ServerRunning = running
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// SetSkippedLines records how many non-protocol lines have been discarded.
func (t *Tracker) SetSkippedLines(n int) {
	t.mu.Lock()
	t.snap.SkippedLines = n
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the listener state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
