// Package server owns the lifecycle of the subordinate server process.
// Start and stop are idempotent: the debounce engine and the device edge
// marker can both signal a start, and neither path needs deduplication as
// long as a second start (or stop) is a side-effect-free no-op.
package server

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Handle is a reference to a launched process.
type Handle interface {
	// PID returns the operating-system process id.
	PID() int

	// Alive reports whether the process is still running.
	Alive() bool

	// Terminate requests the process to exit.
	Terminate() error
}

// Launcher starts the subordinate process. How the process is located and
// configured is the launcher's concern, not the supervisor's.
type Launcher interface {
	Launch() (Handle, error)
}

// Supervisor tracks at most one running subordinate process instance.
// All state is guarded by a mutex so a future control surface (manual
// override, HTTP trigger) cannot corrupt the handle.
type Supervisor struct {
	mu       sync.Mutex
	launcher Launcher
	handle   Handle
	running  bool
	log      *zap.SugaredLogger
}

// New creates a Supervisor in the stopped state.
func New(launcher Launcher, log *zap.SugaredLogger) *Supervisor {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Supervisor{launcher: launcher, log: log}
}

// Start launches the subordinate process if it is not already running.
// A process that died behind our back is detected via the handle and
// relaunched. On launch failure nothing is stored, so a later decision can
// retry.
func (s *Supervisor) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		if s.handle != nil && s.handle.Alive() {
			return nil
		}
		s.log.Warnf("server process died externally (pid=%d), relaunching", s.pidLocked())
		s.handle = nil
		s.running = false
	}

	h, err := s.launcher.Launch()
	if err != nil {
		return fmt.Errorf("launch server: %w", err)
	}
	s.handle = h
	s.running = true
	s.log.Infof("server started (pid=%d)", h.PID())
	return nil
}

// Stop terminates the subordinate process if one is running. The handle is
// cleared even when termination fails: a stale handle must never block a
// future start.
func (s *Supervisor) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}

	err := s.handle.Terminate()
	pid := s.pidLocked()
	s.handle = nil
	s.running = false
	if err != nil {
		return fmt.Errorf("terminate server (pid=%d): %w", pid, err)
	}
	s.log.Infof("server stopped (pid=%d)", pid)
	return nil
}

// Running reports whether a subordinate process is currently held and alive.
// A process observed to have exited clears the handle as a side effect.
func (s *Supervisor) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running && s.handle != nil && !s.handle.Alive() {
		s.log.Warnf("server process exited (pid=%d)", s.pidLocked())
		s.handle = nil
		s.running = false
	}
	return s.running
}

func (s *Supervisor) pidLocked() int {
	if s.handle == nil {
		return 0
	}
	return s.handle.PID()
}
