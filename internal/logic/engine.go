package logic

// Engine turns a stream of noisy instantaneous readings into stable start
// and stop decisions, requiring a configured number of consecutive
// qualifying readings before acting in either direction.
type Engine struct {
	cfg   Config
	above int
	below int
	phase Phase

	// byDebounce records whether the current Started phase was reached via
	// the counted path. Auto-stop applies only then: a start the device
	// commanded outright is never unwound by drifting-low readings.
	byDebounce bool

	readings int
	starts   int
	stops    int
}

// NewEngine creates an engine in the Idle phase. Consecutive counts below 1
// are clamped to 1.
func NewEngine(cfg Config) *Engine {
	if cfg.ConsecutiveStart < 1 {
		cfg.ConsecutiveStart = 1
	}
	if cfg.ConsecutiveStop < 1 {
		cfg.ConsecutiveStop = 1
	}
	return &Engine{cfg: cfg, phase: PhaseIdle}
}

// ProcessReading feeds one estimate into the debounce counters. It returns a
// decision and true exactly when a counter reaches its configured length:
// further qualifying readings past the count do not re-emit.
func (e *Engine) ProcessReading(estimate float64) (Decision, bool) {
	e.readings++

	if estimate >= e.cfg.StartThreshold {
		e.above++
		e.below = 0
		if e.phase == PhaseIdle && e.above == e.cfg.ConsecutiveStart {
			e.phase = PhaseStarted
			e.byDebounce = true
			e.starts++
			return DecisionStart, true
		}
		return "", false
	}

	e.below++
	e.above = 0
	if e.phase == PhaseStarted && e.byDebounce && e.cfg.AutoStop && e.below == e.cfg.ConsecutiveStop {
		e.phase = PhaseIdle
		e.byDebounce = false
		e.stops++
		return DecisionStop, true
	}
	return "", false
}

// DeviceStart handles the device-side edge marker. The device has already
// latched a sustained crossing on its end, so this is an immediate start
// decision that bypasses the counters. The supervisor's idempotent start is
// the safety net against the two trigger paths racing. Both counters are
// cleared, and auto-stop does not apply to this start: only an explicit
// stop (device STOP, or an external restart) unwinds it.
func (e *Engine) DeviceStart() (Decision, bool) {
	e.phase = PhaseStarted
	e.byDebounce = false
	e.above = 0
	e.below = 0
	e.starts++
	return DecisionStart, true
}

// DeviceStop handles an explicit stop command from the device. It fires
// regardless of AutoStop and clears both counters along with the latch.
func (e *Engine) DeviceStop() (Decision, bool) {
	e.phase = PhaseIdle
	e.byDebounce = false
	e.above = 0
	e.below = 0
	e.stops++
	return DecisionStop, true
}

// Snapshot returns the current engine state for status consumers.
func (e *Engine) Snapshot() State {
	return State{
		Phase:    e.phase,
		Above:    e.above,
		Below:    e.below,
		Readings: e.readings,
		Starts:   e.starts,
		Stops:    e.stops,
	}
}

// StartThreshold exposes the configured threshold for logging and status.
func (e *Engine) StartThreshold() float64 {
	return e.cfg.StartThreshold
}
