package firmware

import (
	"context"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/sweeney/bac-monitor/internal/calib"
	"github.com/sweeney/bac-monitor/internal/protocol"
)

// Defaults for the sampling loop.
const (
	DefaultSamplePeriod = time.Second
	DefaultThreshold    = 0.08
	DefaultLEDWindow    = 10 * time.Second

	// blinkPeriod is one full on/off cycle of the armed LED (1 Hz, 50% duty).
	blinkPeriod = time.Second

	// maxCountdownDigits caps the displayed countdown: the readout is a
	// single digit. The real remaining window is not affected.
	maxCountdown = 9
)

// Config tunes a Sampler. Zero values select the defaults above; a zero
// Calibration is replaced with the built-in default mapping.
type Config struct {
	Calibration calib.Calibration
	Threshold   float64
	LEDWindow   time.Duration
}

// Sampler performs one sensing/actuation cycle per tick and writes the
// serial protocol to out. It owns the edge latch: exactly one START line per
// maximal contiguous run of at-or-above-threshold estimates.
type Sampler struct {
	adc  ADC
	led  LED
	disp Display
	out  io.Writer
	cfg  Config

	wasAbove bool
	ledOffAt time.Time
	ledOn    bool
}

// New creates a Sampler. adc and out are required; led and disp may be nil,
// in which case the no-op implementations are used.
func New(adc ADC, led LED, disp Display, out io.Writer, cfg Config) *Sampler {
	if led == nil {
		led = NopLED{}
	}
	if disp == nil {
		disp = NopDisplay{}
	}
	if cfg.Calibration == (calib.Calibration{}) {
		cfg.Calibration = calib.Default()
	}
	if cfg.Threshold == 0 {
		cfg.Threshold = DefaultThreshold
	}
	if cfg.LEDWindow == 0 {
		cfg.LEDWindow = DefaultLEDWindow
	}
	return &Sampler{adc: adc, led: led, disp: disp, out: out, cfg: cfg}
}

// Tick runs one sampling cycle at the given wall-clock time: sample, emit
// protocol and diagnostic lines, update the edge latch, drive LED and
// display. Returns the sensor read error, if any; every other failure mode
// is fail-open.
func (s *Sampler) Tick(now time.Time) error {
	raw, err := s.adc.Read()
	if err != nil {
		// Fail-open: report on the diagnostic channel and keep sampling.
		fmt.Fprintf(s.out, "sensor read error: %v\n", err)
		return fmt.Errorf("adc read: %w", err)
	}

	estimate := s.cfg.Calibration.Apply(raw)
	if estimate < 0 {
		estimate = 0
	}

	fmt.Fprintln(s.out, protocol.FormatReading(estimate))
	fmt.Fprintf(s.out, "Estimated BAC: %.3f (raw=%d)\n", estimate, raw)

	if estimate >= s.cfg.Threshold {
		if !s.wasAbove {
			fmt.Fprintln(s.out, protocol.StartLine)
			s.wasAbove = true
			s.ledOffAt = now.Add(s.cfg.LEDWindow)
		}
	} else {
		// Clearing the latch is independent of the LED window: the next
		// crossing re-fires START even while the LED is still blinking.
		s.wasAbove = false
	}

	if now.Before(s.ledOffAt) {
		remaining := s.ledOffAt.Sub(now)
		s.setLED(blinkPhaseOn(s.cfg.LEDWindow - remaining))
		s.disp.ShowCountdown(countdownDigit(remaining))
	} else {
		s.setLED(false)
		s.disp.ShowEstimate(estimate)
	}
	return nil
}

// Run drives Tick on the given tick channel until the context is cancelled.
// The LED is forced off on exit.
func (s *Sampler) Run(ctx context.Context, tick <-chan time.Time, now func() time.Time) error {
	for {
		select {
		case <-ctx.Done():
			s.setLED(false)
			return ctx.Err()
		case <-tick:
			// Read errors are already reported on the diagnostic channel;
			// the loop never stops for them.
			_ = s.Tick(now())
		}
	}
}

// blinkPhaseOn computes the LED state from elapsed time within the armed
// window, not from tick count, so the visual pattern is stable under
// sampling jitter: on during the first half of each blink period.
func blinkPhaseOn(elapsed time.Duration) bool {
	if elapsed < 0 {
		elapsed = 0
	}
	return elapsed%blinkPeriod < blinkPeriod/2
}

// countdownDigit converts remaining window time to the displayed digit,
// rounding up so the display never shows 0 while the window is active.
func countdownDigit(remaining time.Duration) int {
	d := int(math.Ceil(remaining.Seconds()))
	if d > maxCountdown {
		d = maxCountdown
	}
	if d < 1 {
		d = 1
	}
	return d
}

func (s *Sampler) setLED(on bool) {
	if on == s.ledOn {
		return
	}
	// Fail-open firmware: a dead LED never interrupts sampling.
	if err := s.led.Set(on); err == nil {
		s.ledOn = on
	}
}
