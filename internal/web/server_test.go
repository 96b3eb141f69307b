package web

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sweeney/bac-monitor/internal/logic"
	"github.com/sweeney/bac-monitor/internal/status"
)

func newTestServer(t *testing.T) (*httptest.Server, *status.Tracker) {
	t.Helper()
	tracker := status.NewTracker(time.Now(), status.Config{
		Port:      "/dev/ttyACM0",
		Baud:      9600,
		Threshold: 0.08,
	})
	s := New(":0", tracker)
	ts := httptest.NewServer(s.httpServer.Handler)
	t.Cleanup(ts.Close)
	return ts, tracker
}

func get(t *testing.T, url string) (int, string) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(body)
}

func TestIndexPage(t *testing.T) {
	ts, tracker := newTestServer(t)
	tracker.Update(logic.State{Phase: logic.PhaseStarted, Above: 3, Readings: 7, Starts: 1}, 0.095, true)
	tracker.SetServerRunning(true)

	code, body := get(t, ts.URL+"/")
	if code != http.StatusOK {
		t.Fatalf("status: got %d", code)
	}
	for _, want := range []string{"0.095", "STARTED", "RUNNING", "/dev/ttyACM0"} {
		if !strings.Contains(body, want) {
			t.Errorf("index page missing %q", want)
		}
	}
}

func TestIndexPageBeforeFirstReading(t *testing.T) {
	ts, _ := newTestServer(t)
	code, body := get(t, ts.URL+"/")
	if code != http.StatusOK {
		t.Fatalf("status: got %d", code)
	}
	if !strings.Contains(body, "—") {
		t.Error("expected placeholder estimate before first reading")
	}
}

func TestJSONEndpoint(t *testing.T) {
	ts, tracker := newTestServer(t)
	tracker.Update(logic.State{Phase: logic.PhaseIdle, Below: 1, Readings: 2}, 0.024, true)

	code, body := get(t, ts.URL+"/index.json")
	if code != http.StatusOK {
		t.Fatalf("status: got %d", code)
	}

	var parsed status.StatusJSON
	if err := json.Unmarshal([]byte(body), &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if parsed.Status.Phase != "IDLE" {
		t.Errorf("phase: got %s", parsed.Status.Phase)
	}
	if parsed.Status.Counters.Readings != 2 {
		t.Errorf("readings: got %d", parsed.Status.Counters.Readings)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	ts, _ := newTestServer(t)
	code, body := get(t, ts.URL+"/metrics")
	if code != http.StatusOK {
		t.Fatalf("status: got %d", code)
	}
	if !strings.Contains(body, "go_goroutines") {
		t.Error("expected standard process metrics in output")
	}
}

func TestUnknownPathIs404(t *testing.T) {
	ts, _ := newTestServer(t)
	code, _ := get(t, ts.URL+"/nope")
	if code != http.StatusNotFound {
		t.Errorf("status: got %d, want 404", code)
	}
}
