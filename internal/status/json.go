package status

import (
	"encoding/json"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string      `json:"event,omitempty"`
	Reason        string      `json:"reason,omitempty"`
	Phase         string      `json:"phase"`
	LastEstimate  *float64    `json:"last_estimate,omitempty"`
	ServerRunning bool        `json:"server_running"`
	UptimeSeconds int64       `json:"uptime_seconds"`
	StartTime     string      `json:"start_time"`
	Timestamp     string      `json:"timestamp"`
	MQTT          *MQTTStatus `json:"mqtt,omitempty"`
	Counters      CountersJSON `json:"counters"`
	Config        ConfigJSON  `json:"config"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// CountersJSON is the JSON representation of the debounce counters and
// running totals.
type CountersJSON struct {
	ConsecutiveAbove int `json:"consecutive_above"`
	ConsecutiveBelow int `json:"consecutive_below"`
	Readings         int `json:"readings"`
	Starts           int `json:"starts"`
	Stops            int `json:"stops"`
	SkippedLines     int `json:"skipped_lines"`
}

// ConfigJSON is the JSON representation of listener config.
type ConfigJSON struct {
	Port             string  `json:"port"`
	Baud             int     `json:"baud"`
	Threshold        float64 `json:"bac_threshold"`
	ConsecutiveStart int     `json:"consecutive_start"`
	ConsecutiveStop  int     `json:"consecutive_stop"`
	AutoStop         bool    `json:"auto_stop"`
	NoAutoStart      bool    `json:"no_auto_start"`
	ServerCmd        string  `json:"server_cmd,omitempty"`
	Broker           string  `json:"broker,omitempty"`
	HTTPAddr         string  `json:"http_addr,omitempty"`
}

func buildInner(snap Snapshot) StatusInner {
	phase := string(snap.Engine.Phase)
	if phase == "" {
		phase = "UNKNOWN"
	}

	inner := StatusInner{
		Phase:         phase,
		ServerRunning: snap.ServerRunning,
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		Counters: CountersJSON{
			ConsecutiveAbove: snap.Engine.Above,
			ConsecutiveBelow: snap.Engine.Below,
			Readings:         snap.Engine.Readings,
			Starts:           snap.Engine.Starts,
			Stops:            snap.Engine.Stops,
			SkippedLines:     snap.SkippedLines,
		},
		Config: ConfigJSON{
			Port:             snap.Config.Port,
			Baud:             snap.Config.Baud,
			Threshold:        snap.Config.Threshold,
			ConsecutiveStart: snap.Config.ConsecutiveStart,
			ConsecutiveStop:  snap.Config.ConsecutiveStop,
			AutoStop:         snap.Config.AutoStop,
			NoAutoStart:      snap.Config.NoAutoStart,
			ServerCmd:        snap.Config.ServerCmd,
			Broker:           snap.Config.Broker,
			HTTPAddr:         snap.Config.HTTPAddr,
		},
	}

	if snap.HaveReading {
		est := snap.LastEstimate
		inner.LastEstimate = &est
	}
	if snap.Config.Broker != "" {
		inner.MQTT = &MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker}
	}
	return inner
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: buildInner(snap)}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
