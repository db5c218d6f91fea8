package monitor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/davebirr/WellMonitor-sub000/internal/actuator"
	"github.com/davebirr/WellMonitor-sub000/internal/analyzer"
	"github.com/davebirr/WellMonitor-sub000/internal/capture"
	"github.com/davebirr/WellMonitor-sub000/internal/confighub"
)

type fakeCamera struct {
	image *capture.CapturedImage
	err   error
	calls int
}

func (c *fakeCamera) Capture(ctx context.Context) (*capture.CapturedImage, error) {
	c.calls++
	return c.image, c.err
}

type fakeProcessor struct {
	reading *analyzer.PumpReading
}

func (p *fakeProcessor) ProcessImage(ctx context.Context, image []byte) *analyzer.PumpReading {
	return p.reading
}

type fakeRecorder struct {
	mu       sync.Mutex
	readings []*analyzer.PumpReading
	actions  []string
}

func (r *fakeRecorder) Record(reading *analyzer.PumpReading) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.readings = append(r.readings, reading)
}

func (r *fakeRecorder) RecordAction(action, reason string, success bool, detail string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.actions = append(r.actions, action)
}

func newReading(status analyzer.PumpStatus, valid bool) *analyzer.PumpReading {
	return &analyzer.PumpReading{
		Status:    status,
		IsValid:   valid,
		Timestamp: time.Now().UTC(),
		Metadata:  map[string]interface{}{},
	}
}

func newTestLoop(t *testing.T, camera Camera, processor ImageProcessor, recorder Recorder, relay actuator.Relay) *Loop {
	t.Helper()
	loop, err := NewLoop(Options{
		Hub:             confighub.NewHub(),
		Camera:          camera,
		Processor:       processor,
		Recorder:        recorder,
		Relay:           relay,
		MonitorInterval: 30 * time.Second,
	})
	if err != nil {
		t.Fatalf("NewLoop: %v", err)
	}
	return loop
}

func TestRunCycleRecordsReading(t *testing.T) {
	camera := &fakeCamera{image: &capture.CapturedImage{Data: []byte("img"), Backend: "rpicam-still"}}
	recorder := &fakeRecorder{}
	relay := actuator.NewMemoryRelay()
	loop := newTestLoop(t, camera, &fakeProcessor{reading: newReading(analyzer.StatusNormal, true)}, recorder, relay)

	reading := loop.RunCycle(context.Background())
	if reading == nil {
		t.Fatal("expected a reading")
	}
	if len(recorder.readings) != 1 {
		t.Fatalf("recorded %d readings, want 1", len(recorder.readings))
	}
	if relay.Cycles() != 0 {
		t.Errorf("normal reading triggered %d power cycles", relay.Cycles())
	}
	if reading.Metadata["captureBackend"] != "rpicam-still" {
		t.Errorf("captureBackend metadata = %v", reading.Metadata["captureBackend"])
	}
}

func TestRunCycleUnsafeStatusPowerCycles(t *testing.T) {
	camera := &fakeCamera{image: &capture.CapturedImage{Data: []byte("img")}}
	recorder := &fakeRecorder{}
	relay := actuator.NewMemoryRelay()
	loop := newTestLoop(t, camera, &fakeProcessor{reading: newReading(analyzer.StatusDry, true)}, recorder, relay)

	loop.RunCycle(context.Background())

	if relay.Cycles() != 1 {
		t.Errorf("dry reading should power cycle once, got %d", relay.Cycles())
	}
	if len(recorder.actions) != 1 || recorder.actions[0] != "power_cycle" {
		t.Errorf("recorded actions = %v, want one power_cycle", recorder.actions)
	}
}

func TestRunCycleInvalidUnsafeReadingDoesNotActuate(t *testing.T) {
	camera := &fakeCamera{image: &capture.CapturedImage{Data: []byte("img")}}
	relay := actuator.NewMemoryRelay()
	// A low-confidence Dry that failed validation must never cut power.
	loop := newTestLoop(t, camera, &fakeProcessor{reading: newReading(analyzer.StatusDry, false)}, &fakeRecorder{}, relay)

	loop.RunCycle(context.Background())

	if relay.Cycles() != 0 {
		t.Errorf("invalid reading triggered %d power cycles", relay.Cycles())
	}
}

func TestRunCycleCaptureFailureAbandonsCycle(t *testing.T) {
	camera := &fakeCamera{err: errors.New("no camera attached")}
	recorder := &fakeRecorder{}
	relay := actuator.NewMemoryRelay()
	loop := newTestLoop(t, camera, &fakeProcessor{reading: newReading(analyzer.StatusNormal, true)}, recorder, relay)

	if reading := loop.RunCycle(context.Background()); reading != nil {
		t.Errorf("capture failure should abandon the cycle, got %+v", reading)
	}
	if len(recorder.readings) != 0 {
		t.Errorf("abandoned cycle recorded %d readings", len(recorder.readings))
	}
	if relay.Cycles() != 0 {
		t.Errorf("abandoned cycle ran %d power cycles", relay.Cycles())
	}
}

func TestRunCycleRateLimitedPowerCycleRecordsFailure(t *testing.T) {
	camera := &fakeCamera{image: &capture.CapturedImage{Data: []byte("img")}}
	recorder := &fakeRecorder{}
	relay := actuator.NewMemoryRelay()
	loop := newTestLoop(t, camera, &fakeProcessor{reading: newReading(analyzer.StatusDry, true)}, recorder, relay)

	loop.RunCycle(context.Background())
	loop.RunCycle(context.Background())

	if relay.Cycles() != 1 {
		t.Errorf("second cycle within the rate limit window ran, total %d", relay.Cycles())
	}
	// Both attempts are recorded; the second one as unsuccessful.
	if len(recorder.actions) != 2 {
		t.Errorf("recorded %d actions, want 2", len(recorder.actions))
	}
}

func TestNewLoopRejectsMissingCollaborators(t *testing.T) {
	_, err := NewLoop(Options{MonitorInterval: time.Second})
	if err == nil {
		t.Error("expected error for missing collaborators")
	}

	_, err = NewLoop(Options{
		Hub:       confighub.NewHub(),
		Camera:    &fakeCamera{},
		Processor: &fakeProcessor{},
		Relay:     actuator.NewMemoryRelay(),
	})
	if err == nil {
		t.Error("expected error for missing interval")
	}
}
