package firmware

import "errors"

// FakeADC is a test double that returns scripted raw samples.
// If samples are exhausted, the last sample is returned repeatedly.
type FakeADC struct {
	// Samples contains scripted raw values to return, one per Read call.
	Samples []int

	// ReadError, if set, will be returned by Read.
	ReadError error

	index int
}

// Read returns the next scripted sample.
func (f *FakeADC) Read() (int, error) {
	if f.ReadError != nil {
		return 0, f.ReadError
	}
	if len(f.Samples) == 0 {
		return 0, errors.New("no samples configured")
	}
	s := f.Samples[f.index]
	if f.index < len(f.Samples)-1 {
		f.index++
	}
	return s, nil
}

// FakeLED records every state transition for assertions.
type FakeLED struct {
	// Transitions contains each distinct state the LED was set to, in order.
	Transitions []bool

	// SetError, if set, will be returned by Set.
	SetError error

	// On is the current state.
	On bool
}

// Set records the transition.
func (f *FakeLED) Set(on bool) error {
	if f.SetError != nil {
		return f.SetError
	}
	f.Transitions = append(f.Transitions, on)
	f.On = on
	return nil
}

// FakeDisplay records what was shown, in call order.
type FakeDisplay struct {
	// Estimates contains every estimate shown.
	Estimates []float64

	// Countdowns contains every countdown digit shown.
	Countdowns []int
}

func (f *FakeDisplay) ShowEstimate(estimate float64) {
	f.Estimates = append(f.Estimates, estimate)
}

func (f *FakeDisplay) ShowCountdown(seconds int) {
	f.Countdowns = append(f.Countdowns, seconds)
}
