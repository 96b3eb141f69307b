// Package mqtt publishes listener events to a broker, with abstraction for
// testing. Publishing is an observability side channel: failures are
// reported but never interrupt the sampling/decision loop.
package mqtt

import (
	"encoding/json"
	"time"

	"github.com/sweeney/bac-monitor/internal/logic"
)

// Topic is the MQTT topic for decision events.
const Topic = "bac/monitor/events"

// TopicSystem is the MQTT topic for listener lifecycle events.
const TopicSystem = "bac/monitor/system"

// Publisher publishes events to MQTT.
type Publisher interface {
	// Publish sends a decision event to the broker.
	Publish(event DecisionEvent) error

	// PublishSystem sends a listener lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// DecisionEvent records a start or stop decision and the evidence behind it.
type DecisionEvent struct {
	Timestamp time.Time
	Decision  logic.Decision
	Estimate  float64
	Phase     logic.Phase
}

// SystemEvent represents a listener lifecycle event (startup, shutdown).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN"
	Reason     string // e.g., "SIGTERM", "SIGINT" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// Payload is the MQTT message structure for decision events.
type Payload struct {
	BAC DecisionPayload `json:"bac"`
}

// DecisionPayload contains the decision event details.
type DecisionPayload struct {
	Timestamp string  `json:"timestamp"`
	Decision  string  `json:"decision"`
	Estimate  float64 `json:"estimate"`
	Phase     string  `json:"phase"`
}

// FormatPayload creates the JSON payload for a decision event.
func FormatPayload(event DecisionEvent) ([]byte, error) {
	payload := Payload{
		BAC: DecisionPayload{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Decision:  string(event.Decision),
			Estimate:  event.Estimate,
			Phase:     string(event.Phase),
		},
	}
	return json.Marshal(payload)
}

// SystemPayload is the MQTT message structure for simple system events that
// don't carry a full status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full status
// snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	}
	return json.Marshal(payload)
}
