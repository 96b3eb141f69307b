package server

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"
)

func TestStartIsIdempotent(t *testing.T) {
	launcher := &FakeLauncher{}
	s := New(launcher, nil)

	if err := s.Start(); err != nil {
		t.Fatalf("first start: %v", err)
	}
	if err := s.Start(); err != nil {
		t.Fatalf("second start: %v", err)
	}

	if launcher.Launches != 1 {
		t.Errorf("launches: got %d, want 1 (start must be idempotent)", launcher.Launches)
	}
	if !s.Running() {
		t.Error("supervisor should report running")
	}
}

func TestStopIsIdempotent(t *testing.T) {
	launcher := &FakeLauncher{}
	s := New(launcher, nil)

	// Stop before any start is a no-op that does not error.
	if err := s.Stop(); err != nil {
		t.Fatalf("stop while stopped: %v", err)
	}

	if err := s.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := s.Stop(); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if err := s.Stop(); err != nil {
		t.Fatalf("second stop: %v", err)
	}

	if !launcher.Handles[0].Terminated {
		t.Error("handle should have been terminated")
	}
	if s.Running() {
		t.Error("supervisor should report stopped")
	}
}

func TestLaunchFailureIsRetryable(t *testing.T) {
	launcher := &FakeLauncher{LaunchError: errors.New("exec format error")}
	s := New(launcher, nil)

	if err := s.Start(); err == nil {
		t.Fatal("expected launch error")
	}
	if s.Running() {
		t.Error("failed launch must leave supervisor stopped")
	}

	// A later decision retries successfully.
	launcher.LaunchError = nil
	if err := s.Start(); err != nil {
		t.Fatalf("retry start: %v", err)
	}
	if !s.Running() {
		t.Error("supervisor should report running after retry")
	}
}

func TestTerminationFailureClearsHandle(t *testing.T) {
	launcher := &FakeLauncher{}
	s := New(launcher, nil)

	if err := s.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	launcher.Handles[0].TerminateError = errors.New("operation not permitted")

	if err := s.Stop(); err == nil {
		t.Fatal("expected termination error to be reported")
	}
	if s.Running() {
		t.Error("handle must be cleared even when termination fails")
	}

	// The cleared handle must not block a future start.
	if err := s.Start(); err != nil {
		t.Fatalf("start after failed stop: %v", err)
	}
	if launcher.Launches != 2 {
		t.Errorf("launches: got %d, want 2", launcher.Launches)
	}
}

func TestExternalDeathAllowsRelaunch(t *testing.T) {
	launcher := &FakeLauncher{}
	s := New(launcher, nil)

	if err := s.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	launcher.Handles[0].Die()

	if s.Running() {
		t.Error("Running should observe external death")
	}
	if err := s.Start(); err != nil {
		t.Fatalf("relaunch: %v", err)
	}
	if launcher.Launches != 2 {
		t.Errorf("launches: got %d, want 2", launcher.Launches)
	}
}

func TestStartObservesDeadHandle(t *testing.T) {
	launcher := &FakeLauncher{}
	s := New(launcher, nil)

	if err := s.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	launcher.Handles[0].Die()

	// Start (not Running) is the first to notice the death.
	if err := s.Start(); err != nil {
		t.Fatalf("start over dead handle: %v", err)
	}
	if launcher.Launches != 2 {
		t.Errorf("launches: got %d, want 2", launcher.Launches)
	}
}

func TestExecLauncherRequiresCommand(t *testing.T) {
	l := &ExecLauncher{}
	if _, err := l.Launch(); err == nil {
		t.Error("expected error for empty command")
	}
}

func TestExecLauncherLaunchFailure(t *testing.T) {
	l := &ExecLauncher{Command: []string{"/nonexistent/definitely-not-a-binary"}}
	if _, err := l.Launch(); err == nil {
		t.Error("expected error for unlaunchable command")
	}
}

func TestExecLauncherRunsProcess(t *testing.T) {
	pidFile := filepath.Join(t.TempDir(), "server.pid")
	l := &ExecLauncher{Command: []string{"sleep", "10"}, PIDFile: pidFile}

	h, err := l.Launch()
	if err != nil {
		t.Skipf("cannot launch sleep: %v", err)
	}
	defer h.Terminate()

	if h.PID() <= 0 {
		t.Errorf("pid: got %d, want > 0", h.PID())
	}
	if !h.Alive() {
		t.Error("freshly launched process should be alive")
	}

	data, err := os.ReadFile(pidFile)
	if err != nil {
		t.Fatalf("pid file: %v", err)
	}
	if pid, _ := strconv.Atoi(string(data)); pid != h.PID() {
		t.Errorf("pid file content: got %q, want %d", data, h.PID())
	}
}

func TestExecLauncherTerminateAndReap(t *testing.T) {
	pidFile := filepath.Join(t.TempDir(), "server.pid")
	l := &ExecLauncher{Command: []string{"sleep", "10"}, PIDFile: pidFile}

	h, err := l.Launch()
	if err != nil {
		t.Skipf("cannot launch sleep: %v", err)
	}
	if err := h.Terminate(); err != nil {
		t.Fatalf("terminate: %v", err)
	}

	// The reaper observes the exit shortly after the signal lands.
	deadline := time.Now().Add(2 * time.Second)
	for h.Alive() && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if h.Alive() {
		t.Error("process should be observed dead after terminate")
	}
	if _, err := os.Stat(pidFile); !os.IsNotExist(err) {
		t.Errorf("pid file should be removed, stat err=%v", err)
	}
}
