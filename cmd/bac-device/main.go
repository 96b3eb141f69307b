// Command bac-device runs the sensor-side sampling loop: it reads the
// alcohol sensor once per period, drives the warning LED and display, and
// writes the serial protocol to stdout.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/sweeney/bac-monitor/internal/calib"
	"github.com/sweeney/bac-monitor/internal/firmware"
)

func main() {
	period := flag.Duration("period", firmware.DefaultSamplePeriod, "sampling period")
	threshold := flag.Float64("bac-threshold", firmware.DefaultThreshold, "estimate at or above which the alarm arms")
	ledWindow := flag.Duration("led-window", firmware.DefaultLEDWindow, "how long the LED blinks after a crossing")
	ledPin := flag.Int("led-pin", firmware.DefaultLEDPin, "BCM pin number for the warning LED")
	gpioChip := flag.String("gpio-chip", "gpiochip0", "GPIO character device name (empty to disable the LED)")
	adcPath := flag.String("adc", "/sys/bus/iio/devices/iio:device0/in_voltage0_raw", "sysfs attribute with the raw sensor value")
	calibFile := flag.String("calibration-file", "", "JSON calibration file (scale/offset)")
	sim := flag.Bool("sim", false, "synthesize sensor readings instead of reading hardware")

	flag.Parse()

	log := newLogger()
	defer log.Sync()

	if err := run(*period, *threshold, *ledWindow, *ledPin, *gpioChip, *adcPath, *calibFile, *sim, log); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func newLogger() *zap.SugaredLogger {
	cfg := zap.NewDevelopmentConfig()
	cfg.DisableStacktrace = true
	cfg.DisableCaller = true
	logger, err := cfg.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	return logger.Sugar()
}

func run(period time.Duration, threshold float64, ledWindow time.Duration, ledPin int, gpioChip, adcPath, calibFile string, sim bool, log *zap.SugaredLogger) error {
	calibration := calib.Default()
	if calibFile != "" {
		loaded, err := calib.Load(calibFile)
		if err != nil {
			log.Warnw("calibration file rejected, using defaults", "file", calibFile, "error", err)
		}
		calibration = loaded
	}

	var adc firmware.ADC
	if sim {
		adc = &firmware.SimADC{Floor: 40, Peak: 400, Period: time.Minute}
		log.Infow("using simulated sensor")
	} else {
		adc = &firmware.FileADC{Path: adcPath}
	}

	var led firmware.LED
	if gpioChip != "" {
		gpioLED, err := firmware.NewGPIOLED(gpioChip, ledPin)
		if err != nil {
			log.Warnw("led unavailable, continuing without it", "chip", gpioChip, "pin", ledPin, "error", err)
		} else {
			defer gpioLED.Close()
			led = gpioLED
		}
	}

	sampler := firmware.New(adc, led, nil, os.Stdout, firmware.Config{
		Calibration: calibration,
		Threshold:   threshold,
		LEDWindow:   ledWindow,
	})

	log.Infow("device loop started",
		"period", period, "threshold", threshold, "led_window", ledWindow, "sim", sim)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ticker := time.NewTicker(period)
	defer ticker.Stop()

	if err := sampler.Run(ctx, ticker.C, time.Now); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Infow("device loop stopped")
	return nil
}
