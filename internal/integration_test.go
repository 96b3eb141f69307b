package internal

import (
	"bytes"
	"io"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/sweeney/bac-monitor/internal/firmware"
	"github.com/sweeney/bac-monitor/internal/logic"
	"github.com/sweeney/bac-monitor/internal/mqtt"
	"github.com/sweeney/bac-monitor/internal/protocol"
	"github.com/sweeney/bac-monitor/internal/server"
)

// TestIntegrationFullFlow runs the complete pipeline on fakes: the device
// sampling loop writes its serial output into a buffer, and the listener side
// parses it, feeds the decision engine, and drives the process supervisor.
func TestIntegrationFullFlow(t *testing.T) {
	// Raw ADC samples, one per second. With the default calibration
	// (raw * 0.5 / 1023), 200 maps to ~0.098 and 50 to ~0.024 against the
	// 0.08 threshold.
	samples := []int{50, 50, 200, 200, 200, 200, 50}

	var wire bytes.Buffer
	sampler := firmware.New(&firmware.FakeADC{Samples: samples}, &firmware.FakeLED{}, &firmware.FakeDisplay{}, &wire, firmware.Config{})

	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	for i := range samples {
		if err := sampler.Tick(start.Add(time.Duration(i) * time.Second)); err != nil {
			t.Fatalf("tick %d: %v", i, err)
		}
	}

	launcher := &server.FakeLauncher{}
	sup := server.New(launcher, zap.NewNop().Sugar())
	publisher := mqtt.NewFakePublisher()
	engine := logic.NewEngine(logic.Config{
		StartThreshold:   0.08,
		ConsecutiveStart: 3,
		ConsecutiveStop:  3,
	})

	stream := protocol.NewStream(&wire)
	var starts, readings int
	for {
		event, err := stream.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("stream: %v", err)
		}

		var decision logic.Decision
		var decided bool
		switch event.Type {
		case protocol.EventReading:
			readings++
			decision, decided = engine.ProcessReading(protocol.NormalizeEstimate(event.Estimate))
		case protocol.EventStart:
			starts++
			decision, decided = engine.DeviceStart()
		case protocol.EventStop:
			decision, decided = engine.DeviceStop()
		}

		if !decided {
			continue
		}
		if decision == logic.DecisionStart {
			if err := sup.Start(); err != nil {
				t.Fatalf("server start: %v", err)
			}
		} else {
			if err := sup.Stop(); err != nil {
				t.Fatalf("server stop: %v", err)
			}
		}
		if err := publisher.Publish(mqtt.DecisionEvent{
			Timestamp: start,
			Decision:  decision,
			Estimate:  event.Estimate,
			Phase:     engine.Snapshot().Phase,
		}); err != nil {
			t.Fatalf("publish: %v", err)
		}
	}

	if readings != len(samples) {
		t.Errorf("readings: got %d, want %d", readings, len(samples))
	}
	// One edge marker for the single contiguous high run.
	if starts != 1 {
		t.Errorf("device start lines: got %d, want 1", starts)
	}
	// The device edge fires before the debounce count completes, and the
	// latched engine plus idempotent supervisor keep it to one launch.
	if launcher.Launches != 1 {
		t.Fatalf("launches: got %d, want 1", launcher.Launches)
	}
	if got := len(publisher.Events); got != 1 {
		t.Fatalf("decision events: got %d, want 1", got)
	}
	if publisher.Events[0].Decision != logic.DecisionStart {
		t.Errorf("decision: got %s", publisher.Events[0].Decision)
	}
	if !sup.Running() {
		t.Error("server should still be running at end of transcript")
	}
	// The diagnostic lines interleaved with the protocol were skipped, one
	// per tick.
	if got := stream.Skipped(); got != len(samples) {
		t.Errorf("skipped lines: got %d, want %d", got, len(samples))
	}
}

// TestIntegrationLowReadingsNeverStart feeds a transcript that stays below
// the threshold end to end.
func TestIntegrationLowReadingsNeverStart(t *testing.T) {
	var wire bytes.Buffer
	sampler := firmware.New(&firmware.FakeADC{Samples: []int{50, 40, 60}}, nil, nil, &wire, firmware.Config{})

	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		if err := sampler.Tick(start.Add(time.Duration(i) * time.Second)); err != nil {
			t.Fatalf("tick %d: %v", i, err)
		}
	}

	launcher := &server.FakeLauncher{}
	sup := server.New(launcher, zap.NewNop().Sugar())
	engine := logic.NewEngine(logic.Config{StartThreshold: 0.08, ConsecutiveStart: 3, ConsecutiveStop: 3})

	stream := protocol.NewStream(&wire)
	for {
		event, err := stream.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("stream: %v", err)
		}
		if event.Type != protocol.EventReading {
			t.Fatalf("unexpected event type %v below threshold", event.Type)
		}
		if _, decided := engine.ProcessReading(event.Estimate); decided {
			t.Fatal("engine decided on below-threshold readings")
		}
	}

	if launcher.Launches != 0 {
		t.Errorf("launches: got %d, want 0", launcher.Launches)
	}
	if sup.Running() {
		t.Error("server reported running without a launch")
	}
}
