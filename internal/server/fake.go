package server

// FakeLauncher is a test double that hands out FakeHandles.
type FakeLauncher struct {
	// LaunchError, if set, will be returned by Launch.
	LaunchError error

	// Launches counts Launch calls that succeeded.
	Launches int

	// Handles contains every handle created, in order.
	Handles []*FakeHandle

	nextPID int
}

// Launch returns a new live FakeHandle, or LaunchError if set.
func (f *FakeLauncher) Launch() (Handle, error) {
	if f.LaunchError != nil {
		return nil, f.LaunchError
	}
	f.nextPID++
	h := &FakeHandle{pid: 1000 + f.nextPID, alive: true}
	f.Launches++
	f.Handles = append(f.Handles, h)
	return h, nil
}

// FakeHandle is a scriptable process handle.
type FakeHandle struct {
	// TerminateError, if set, will be returned by Terminate.
	TerminateError error

	// Terminated tracks whether Terminate was called.
	Terminated bool

	pid   int
	alive bool
}

// PID returns the fake process id.
func (h *FakeHandle) PID() int { return h.pid }

// Alive reports the scripted liveness.
func (h *FakeHandle) Alive() bool { return h.alive }

// Terminate records the call and marks the process dead unless an error is
// scripted.
func (h *FakeHandle) Terminate() error {
	h.Terminated = true
	if h.TerminateError != nil {
		return h.TerminateError
	}
	h.alive = false
	return nil
}

// Die simulates external termination of the process.
func (h *FakeHandle) Die() { h.alive = false }
