/**
 * Monitoring loop for the WellMonitor agent
 *
 * Drives the sense-classify-act cycle on a fixed schedule:
 * capture the display, extract and analyze the text, record the reading,
 * and power-cycle the pump when an unsafe state is confirmed. Telemetry
 * flushes and remote configuration refreshes run as separate scheduled
 * tasks so a slow upload can never delay a capture.
 */

package monitor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/davebirr/WellMonitor-sub000/internal/actuator"
	"github.com/davebirr/WellMonitor-sub000/internal/analyzer"
	"github.com/davebirr/WellMonitor-sub000/internal/capture"
	"github.com/davebirr/WellMonitor-sub000/internal/confighub"
	"github.com/davebirr/WellMonitor-sub000/internal/logging"
	"github.com/robfig/cron/v3"
)

// Camera captures one frame of the pump display.
type Camera interface {
	Capture(ctx context.Context) (*capture.CapturedImage, error)
}

// ImageProcessor turns one frame into a pump reading.
type ImageProcessor interface {
	ProcessImage(ctx context.Context, image []byte) *analyzer.PumpReading
}

// Recorder accepts readings and relay actions for asynchronous persistence.
type Recorder interface {
	Record(reading *analyzer.PumpReading)
	RecordAction(action, reason string, success bool, detail string)
}

// ConfigFetcher loads the latest remote configuration document.
type ConfigFetcher interface {
	FetchLatest(ctx context.Context) (map[string]interface{}, error)
}

// TelemetryFlusher uploads pending readings.
type TelemetryFlusher interface {
	Flush(ctx context.Context) (int, error)
}

// Options wires the loop's collaborators and schedule. Recorder, Fetcher,
// and Telemetry may be nil when the corresponding backend is not configured.
type Options struct {
	Hub       *confighub.Hub
	Camera    Camera
	Processor ImageProcessor
	Recorder  Recorder
	Relay     actuator.Relay
	Fetcher   ConfigFetcher
	Telemetry TelemetryFlusher

	MonitorInterval       time.Duration
	TelemetryInterval     time.Duration
	ConfigRefreshInterval time.Duration
}

// Loop schedules and runs the monitoring cycle.
type Loop struct {
	opts   Options
	cron   *cron.Cron
	ctx    context.Context
	cancel context.CancelFunc
	logger *logging.Logger

	mu         sync.Mutex
	lastStatus analyzer.PumpStatus
}

// NewLoop creates the monitoring loop. Jobs that are still running when their
// next tick arrives are skipped rather than stacked.
func NewLoop(opts Options) (*Loop, error) {
	if opts.Hub == nil || opts.Camera == nil || opts.Processor == nil || opts.Relay == nil {
		return nil, fmt.Errorf("hub, camera, processor, and relay are required")
	}
	if opts.MonitorInterval <= 0 {
		return nil, fmt.Errorf("monitor interval must be positive")
	}

	return &Loop{
		opts: opts,
		cron: cron.New(cron.WithChain(
			cron.SkipIfStillRunning(cron.DiscardLogger),
		)),
		logger:     logging.NewLogger("Monitor"),
		lastStatus: analyzer.StatusUnknown,
	}, nil
}

// Start runs one cycle immediately, then begins the schedule. Returns after
// scheduling; the cycles run on the cron's goroutines until Stop.
func (l *Loop) Start(ctx context.Context) error {
	l.ctx, l.cancel = context.WithCancel(ctx)

	l.cron.Schedule(cron.Every(l.opts.MonitorInterval), cron.FuncJob(l.runCycle))
	if l.opts.Telemetry != nil && l.opts.TelemetryInterval > 0 {
		l.cron.Schedule(cron.Every(l.opts.TelemetryInterval), cron.FuncJob(l.runTelemetry))
	}
	if l.opts.Fetcher != nil && l.opts.ConfigRefreshInterval > 0 {
		l.cron.Schedule(cron.Every(l.opts.ConfigRefreshInterval), cron.FuncJob(l.runConfigRefresh))
	}

	l.logger.Info("Monitoring loop starting",
		"monitorInterval", l.opts.MonitorInterval,
		"telemetryInterval", l.opts.TelemetryInterval,
		"configRefreshInterval", l.opts.ConfigRefreshInterval)

	// First reading at startup; the schedule takes over afterwards.
	l.runConfigRefresh()
	l.runCycle()
	l.cron.Start()
	return nil
}

// Stop halts the schedule and waits for in-flight jobs to finish.
func (l *Loop) Stop() {
	l.logger.Info("Monitoring loop stopping")
	if l.cancel != nil {
		l.cancel()
	}
	<-l.cron.Stop().Done()
}

// RunCycle executes one monitoring cycle on demand. Used by the scheduler
// and by operator tooling that wants an immediate reading.
func (l *Loop) RunCycle(ctx context.Context) *analyzer.PumpReading {
	image, err := l.opts.Camera.Capture(ctx)
	if err != nil {
		// No image means nothing downstream can run; the next tick retries.
		l.logger.Error("Capture failed, cycle abandoned", "error", err)
		return nil
	}

	reading := l.opts.Processor.ProcessImage(ctx, image.Data)
	reading.Metadata["captureBackend"] = image.Backend
	reading.Metadata["captureDuration"] = image.Duration.Milliseconds()

	l.logTransition(reading)
	if l.opts.Recorder != nil {
		l.opts.Recorder.Record(reading)
	}

	if reading.IsValid && reading.Status.Unsafe() {
		l.respond(ctx, reading)
	}
	return reading
}

func (l *Loop) runCycle() {
	ctx, cancel := context.WithTimeout(l.ctx, l.opts.MonitorInterval)
	defer cancel()
	l.RunCycle(ctx)
}

// respond power-cycles the pump in reaction to an unsafe reading.
func (l *Loop) respond(ctx context.Context, reading *analyzer.PumpReading) {
	reason := fmt.Sprintf("pump status %s (confidence %.2f)", reading.Status, reading.Confidence)
	l.logger.Warn("Unsafe pump state detected, power cycling", "status", reading.Status, "confidence", reading.Confidence)

	err := l.opts.Relay.PowerCycle(ctx)
	detail := ""
	if err != nil {
		detail = err.Error()
		l.logger.Warn("Power cycle not performed", "error", err)
	}
	if l.opts.Recorder != nil {
		l.opts.Recorder.RecordAction("power_cycle", reason, err == nil, detail)
	}
}

func (l *Loop) logTransition(reading *analyzer.PumpReading) {
	l.mu.Lock()
	previous := l.lastStatus
	if reading.IsValid {
		l.lastStatus = reading.Status
	}
	l.mu.Unlock()

	if reading.IsValid && reading.Status != previous {
		l.logger.Info("Pump status changed",
			"from", previous, "to", reading.Status,
			"confidence", reading.Confidence, "text", reading.RawText)
	} else {
		l.logger.Debug("Cycle complete",
			"status", reading.Status, "valid", reading.IsValid,
			"confidence", reading.Confidence)
	}
}

func (l *Loop) runTelemetry() {
	ctx, cancel := context.WithTimeout(l.ctx, 2*time.Minute)
	defer cancel()

	count, err := l.opts.Telemetry.Flush(ctx)
	if err != nil {
		l.logger.Warn("Telemetry flush failed", "synced", count, "error", err)
		return
	}
	if count > 0 {
		l.logger.Info("Telemetry flush complete", "synced", count)
	}
}

func (l *Loop) runConfigRefresh() {
	if l.opts.Fetcher == nil {
		return
	}

	ctx, cancel := context.WithTimeout(l.ctx, 30*time.Second)
	defer cancel()

	doc, err := l.opts.Fetcher.FetchLatest(ctx)
	if err != nil {
		l.logger.Warn("Config refresh failed, keeping current settings", "error", err)
		return
	}
	if doc != nil {
		l.opts.Hub.Apply(doc)
	}
}
