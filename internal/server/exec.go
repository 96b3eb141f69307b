package server

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"sync"
	"syscall"
)

// ExecLauncher launches the subordinate process from a command line.
// The child is started detached from the listener's stdio and is reaped in
// the background, so listener shutdown never takes the server down with it.
type ExecLauncher struct {
	// Command is the argv of the subordinate process. Must be non-empty.
	Command []string

	// Dir is the working directory for the child; empty means inherit.
	Dir string

	// PIDFile, if set, receives the child's pid on launch and is removed
	// once the process exits or is terminated.
	PIDFile string
}

// Launch starts the configured command.
func (l *ExecLauncher) Launch() (Handle, error) {
	if len(l.Command) == 0 {
		return nil, errors.New("no server command configured")
	}

	cmd := exec.Command(l.Command[0], l.Command[1:]...)
	cmd.Dir = l.Dir
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %q: %w", l.Command[0], err)
	}

	h := &execHandle{cmd: cmd, pidFile: l.PIDFile}
	if l.PIDFile != "" {
		// Best effort: a failed pid file write must not fail the launch.
		_ = os.WriteFile(l.PIDFile, []byte(strconv.Itoa(cmd.Process.Pid)), 0o644)
	}
	go h.reap()
	return h, nil
}

type execHandle struct {
	cmd     *exec.Cmd
	pidFile string

	mu     sync.Mutex
	exited bool
}

// reap waits for the child so it never lingers as a zombie, and records the
// exit so Alive observes external termination.
func (h *execHandle) reap() {
	_ = h.cmd.Wait()
	h.mu.Lock()
	h.exited = true
	h.mu.Unlock()
	h.removePIDFile()
}

func (h *execHandle) PID() int {
	return h.cmd.Process.Pid
}

func (h *execHandle) Alive() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return !h.exited
}

// Terminate asks the child to exit gracefully, falling back to a hard kill
// if the signal cannot be delivered.
func (h *execHandle) Terminate() error {
	if err := h.cmd.Process.Signal(syscall.SIGTERM); err != nil {
		if kerr := h.cmd.Process.Kill(); kerr != nil {
			return fmt.Errorf("signal failed (%v), kill failed: %w", err, kerr)
		}
	}
	h.removePIDFile()
	return nil
}

func (h *execHandle) removePIDFile() {
	if h.pidFile != "" {
		_ = os.Remove(h.pidFile)
	}
}
