// Command bac-listener reads BAC estimates from a serial device and starts
// or stops a subordinate server process based on sustained readings.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/sweeney/bac-monitor/internal/logic"
	"github.com/sweeney/bac-monitor/internal/metrics"
	"github.com/sweeney/bac-monitor/internal/mqtt"
	"github.com/sweeney/bac-monitor/internal/protocol"
	"github.com/sweeney/bac-monitor/internal/serialport"
	"github.com/sweeney/bac-monitor/internal/server"
	"github.com/sweeney/bac-monitor/internal/status"
	"github.com/sweeney/bac-monitor/internal/web"
)

func main() {
	port := flag.String("port", "", "serial port device (auto-detect when empty)")
	baud := flag.Int("baud", serialport.DefaultBaud, "serial baud rate")
	threshold := flag.Float64("bac-threshold", 0.08, "BAC estimate at or above which a reading counts as high")
	consecutive := flag.Int("consecutive", 3, "consecutive high readings required to start the server")
	consecutiveStop := flag.Int("consecutive-stop", 3, "consecutive low readings required to stop the server")
	autoStop := flag.Bool("auto-stop", false, "stop the server after sustained low readings")
	noAutoStart := flag.Bool("no-auto-start", false, "log decisions without launching or stopping anything")
	serverCmd := flag.String("server-cmd", "", "command line used to launch the subordinate server")
	pidFile := flag.String("pid-file", "", "file that receives the launched server's pid")
	logFile := flag.String("log-file", "", "append logs to this file in addition to stderr")
	broker := flag.String("broker", "", "MQTT broker address (empty to disable)")
	httpAddr := flag.String("http", ":8080", "HTTP status address (empty to disable)")
	debug := flag.Bool("debug", false, "enable debug logging")

	flag.Parse()

	log, err := newLogger(*logFile, *debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	opts := options{
		Port:            *port,
		Baud:            *baud,
		Threshold:       *threshold,
		Consecutive:     *consecutive,
		ConsecutiveStop: *consecutiveStop,
		AutoStop:        *autoStop,
		NoAutoStart:     *noAutoStart,
		ServerCmd:       *serverCmd,
		PIDFile:         *pidFile,
		Broker:          *broker,
		HTTPAddr:        *httpAddr,
	}
	if err := run(opts, log); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

// options collects the parsed command line.
type options struct {
	Port            string
	Baud            int
	Threshold       float64
	Consecutive     int
	ConsecutiveStop int
	AutoStop        bool
	NoAutoStart     bool
	ServerCmd       string
	PIDFile         string
	Broker          string
	HTTPAddr        string
}

func newLogger(logFile string, debug bool) (*zap.SugaredLogger, error) {
	level := zap.InfoLevel
	if debug {
		level = zap.DebugLevel
	}

	cfg := zap.NewDevelopmentConfig()
	cfg.DisableStacktrace = true
	cfg.DisableCaller = level > zap.DebugLevel
	cfg.Level.SetLevel(level)
	if logFile != "" {
		cfg.OutputPaths = append(cfg.OutputPaths, logFile)
		cfg.ErrorOutputPaths = append(cfg.ErrorOutputPaths, logFile)
	}

	logger, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return logger.Sugar(), nil
}

func run(opts options, log *zap.SugaredLogger) error {
	if opts.ServerCmd == "" && !opts.NoAutoStart {
		return errors.New("--server-cmd is required unless --no-auto-start is set")
	}

	// Resolve the serial port
	portName := opts.Port
	if portName == "" {
		detected, err := serialport.Detect()
		if err != nil {
			if names, lerr := serialport.List(); lerr == nil && len(names) > 0 {
				log.Infow("available serial ports", "ports", names)
			}
			return fmt.Errorf("detect serial port: %w", err)
		}
		portName = detected
		log.Infow("auto-detected serial port", "port", portName)
	}

	port, err := serialport.Open(portName, opts.Baud)
	if err != nil {
		return err
	}
	defer port.Close()

	// MQTT is optional; a nil-safe fake stands in when no broker is given.
	var publisher mqtt.Publisher
	var mqttStatus mqtt.ConnectionStatus
	if opts.Broker != "" {
		real, err := mqtt.NewRealPublisher(opts.Broker, log)
		if err != nil {
			return fmt.Errorf("mqtt: %w", err)
		}
		defer real.Close()
		publisher = real
		mqttStatus = real
	} else {
		fake := mqtt.NewFakePublisher()
		publisher = fake
		mqttStatus = fake
	}

	tracker := status.NewTracker(time.Now(), status.Config{
		Port:             portName,
		Baud:             opts.Baud,
		Threshold:        opts.Threshold,
		ConsecutiveStart: opts.Consecutive,
		ConsecutiveStop:  opts.ConsecutiveStop,
		AutoStop:         opts.AutoStop,
		NoAutoStart:      opts.NoAutoStart,
		ServerCmd:        opts.ServerCmd,
		Broker:           opts.Broker,
		HTTPAddr:         opts.HTTPAddr,
	})

	snap := tracker.Snapshot()
	startup := mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      "STARTUP",
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
	}
	if err := publisher.PublishSystem(startup); err != nil {
		log.Warnw("startup event publish failed", "error", err)
	}

	if opts.HTTPAddr != "" {
		srv := web.New(opts.HTTPAddr, tracker)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Errorw("http server error", "error", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Infow("http status server listening", "addr", opts.HTTPAddr)
	}

	var launcher server.Launcher
	if opts.ServerCmd != "" {
		launcher = &server.ExecLauncher{
			Command: strings.Fields(opts.ServerCmd),
			PIDFile: opts.PIDFile,
		}
	}
	sup := server.New(launcher, log)

	engine := logic.NewEngine(logic.Config{
		StartThreshold:   opts.Threshold,
		ConsecutiveStart: opts.Consecutive,
		ConsecutiveStop:  opts.ConsecutiveStop,
		AutoStop:         opts.AutoStop,
	})

	log.Infow("listener started",
		"port", portName, "baud", opts.Baud,
		"threshold", opts.Threshold,
		"consecutive", opts.Consecutive, "consecutive_stop", opts.ConsecutiveStop,
		"auto_stop", opts.AutoStop, "no_auto_start", opts.NoAutoStart)

	// The serial read blocks, so shutdown works by closing the port out from
	// under the stream. The state tells runLoop the resulting read error is a
	// clean exit rather than a device disconnect.
	shutdown := newShutdownState()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		s := <-sigCh
		log.Infow("received signal, shutting down", "signal", s)
		if s == syscall.SIGTERM {
			shutdown.request("SIGTERM")
		} else {
			shutdown.request("SIGINT")
		}
		port.Close()
	}()

	loopErr := runLoop(protocol.NewStream(port), engine, sup, publisher, mqttStatus, tracker, opts.NoAutoStart, time.Now, shutdown, log)

	if mqttStatus != nil {
		tracker.SetMQTTConnected(mqttStatus.IsConnected())
	}
	reason := shutdown.reasonString()
	snap = tracker.Snapshot()
	shutdownEvent := mqtt.SystemEvent{
		Timestamp:  time.Now(),
		Event:      "SHUTDOWN",
		Reason:     reason,
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "SHUTDOWN", reason),
	}
	if err := publisher.PublishSystem(shutdownEvent); err != nil {
		log.Warnw("shutdown event publish failed", "error", err)
	}

	return loopErr
}

// shutdownState records that a shutdown was requested and why. The reason is
// stored before the flag is raised, so any reader that has observed the flag
// sees the final reason. Safe for concurrent use.
type shutdownState struct {
	requested atomic.Bool
	reason    atomic.Value
}

func newShutdownState() *shutdownState {
	s := &shutdownState{}
	s.reason.Store("DISCONNECT")
	return s
}

func (s *shutdownState) request(reason string) {
	s.reason.Store(reason)
	s.requested.Store(true)
}

func (s *shutdownState) isRequested() bool {
	return s.requested.Load()
}

func (s *shutdownState) reasonString() string {
	return s.reason.Load().(string)
}

// runLoop consumes the serial stream until it ends, feeding readings through
// the decision engine and acting on its decisions. It returns nil on clean
// shutdown and an error when the device stream fails.
func runLoop(stream *protocol.Stream, engine *logic.Engine, sup *server.Supervisor, publisher mqtt.Publisher, mqttStatus mqtt.ConnectionStatus, tracker *status.Tracker, noAutoStart bool, now func() time.Time, shutdown *shutdownState, log *zap.SugaredLogger) error {
	var lastEstimate float64
	haveReading := false

	for {
		event, err := stream.Next()
		if err != nil {
			if shutdown != nil && shutdown.isRequested() {
				return nil
			}
			if errors.Is(err, io.EOF) {
				return errors.New("serial stream closed: device disconnected")
			}
			return fmt.Errorf("serial read: %w", err)
		}

		var (
			decision logic.Decision
			decided  bool
			trigger  string
		)

		switch event.Type {
		case protocol.EventReading:
			estimate := protocol.NormalizeEstimate(event.Estimate)
			lastEstimate = estimate
			haveReading = true
			metrics.Readings.Inc()
			metrics.Estimate.Set(estimate)
			log.Debugw("reading", "estimate", estimate)

			decision, decided = engine.ProcessReading(estimate)
			trigger = metrics.TriggerDebounce

		case protocol.EventStart:
			log.Infow("device requested start")
			decision, decided = engine.DeviceStart()
			trigger = metrics.TriggerDevice

		case protocol.EventStop:
			log.Infow("device requested stop")
			decision, decided = engine.DeviceStop()
			trigger = metrics.TriggerDevice
		}

		if decided {
			state := engine.Snapshot()
			log.Infow("decision", "decision", decision, "estimate", lastEstimate, "phase", state.Phase, "trigger", trigger)

			switch decision {
			case logic.DecisionStart:
				metrics.StartDecisions.WithLabelValues(trigger).Inc()
			case logic.DecisionStop:
				metrics.StopDecisions.WithLabelValues(trigger).Inc()
			}

			// An explicit device STOP is an operator command, not an
			// automatic decision; it bypasses the no-auto-start gate.
			deviceStop := decision == logic.DecisionStop && trigger == metrics.TriggerDevice
			if noAutoStart && !deviceStop {
				log.Infow("auto-start disabled, not acting", "decision", decision)
			} else {
				switch decision {
				case logic.DecisionStart:
					if err := sup.Start(); err != nil {
						metrics.LaunchFailures.Inc()
						log.Errorw("server start failed", "error", err)
					}
				case logic.DecisionStop:
					if err := sup.Stop(); err != nil {
						log.Errorw("server stop failed", "error", err)
					}
				}
			}

			decisionEvent := mqtt.DecisionEvent{
				Timestamp: now(),
				Decision:  decision,
				Estimate:  lastEstimate,
				Phase:     state.Phase,
			}
			if err := publisher.Publish(decisionEvent); err != nil {
				log.Warnw("decision publish failed", "error", err)
			}
		}

		running := sup.Running()
		if running {
			metrics.ServerRunning.Set(1)
		} else {
			metrics.ServerRunning.Set(0)
		}
		metrics.SkippedLines.Set(float64(stream.Skipped()))

		if tracker != nil {
			tracker.Update(engine.Snapshot(), lastEstimate, haveReading)
			tracker.SetServerRunning(running)
			tracker.SetSkippedLines(stream.Skipped())
			if mqttStatus != nil {
				tracker.SetMQTTConnected(mqttStatus.IsConnected())
			}
		}
	}
}
