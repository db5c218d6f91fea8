/**
 * Capture Orchestrator for the WellMonitor agent
 *
 * Invokes the still-capture CLI to photograph the pump's LED display. A
 * primary backend is tried first; on failure one retry runs against the
 * secondary backend with identical arguments. Every attempt writes to a
 * private temporary file that is removed on all exit paths.
 */

package capture

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/davebirr/WellMonitor-sub000/internal/confighub"
	"github.com/davebirr/WellMonitor-sub000/internal/errors"
	"github.com/davebirr/WellMonitor-sub000/internal/logging"
	"github.com/google/uuid"
)

// Size heuristics for post-capture validation. Failures are logged, never
// fatal: downstream OCR is the final judge of image quality.
const (
	minPlausibleSize = 5 * 1024
	maxPlausibleSize = 8 * 1024 * 1024
)

var jpegMagic = []byte{0xFF, 0xD8, 0xFF}

// CapturedImage is the raw result of one capture attempt. Ephemeral, owned by
// the caller; never cached.
type CapturedImage struct {
	Data     []byte
	Duration time.Duration
	Backend  string
}

// SnapshotSource yields the configuration in effect at capture time.
type SnapshotSource interface {
	Current() confighub.ConfigSnapshot
}

// Orchestrator runs the capture fallback chain.
type Orchestrator struct {
	config   SnapshotSource
	primary  string
	fallback string
	tempDir  string
	logger   *logging.Logger
}

// NewOrchestrator creates a capture orchestrator. primary and fallback are the
// backend command names; fallback may be empty to disable the retry.
func NewOrchestrator(config SnapshotSource, primary, fallback, tempDir string) *Orchestrator {
	return &Orchestrator{
		config:   config,
		primary:  primary,
		fallback: fallback,
		tempDir:  tempDir,
		logger:   logging.NewLogger("Capture"),
	}
}

// Capture photographs the display once. Settings are read from the current
// snapshot exactly once, so both backend attempts run with identical
// arguments even if a config swap lands mid-capture.
func (o *Orchestrator) Capture(ctx context.Context) (*CapturedImage, error) {
	snapshot := o.config.Current()
	settings := snapshot.Capture

	image, err := o.attempt(ctx, o.primary, settings)
	if err != nil {
		if o.fallback == "" {
			return nil, err
		}
		o.logger.Warn("Primary backend failed, retrying with fallback",
			"primary", o.primary, "fallback", o.fallback, "error", err)
		image, err = o.attempt(ctx, o.fallback, settings)
		if err != nil {
			return nil, err
		}
	}

	o.validate(image)
	o.debugSave(image, snapshot.Debug)

	return image, nil
}

// attempt runs one backend once. The temporary output file is removed on
// every path out of this function.
func (o *Orchestrator) attempt(ctx context.Context, backend string, settings confighub.CaptureSettings) (*CapturedImage, error) {
	if err := os.MkdirAll(o.tempDir, 0o755); err != nil {
		return nil, errors.NewCaptureFailedError(backend, fmt.Errorf("temp dir: %w", err))
	}

	outputPath := filepath.Join(o.tempDir, fmt.Sprintf("capture-%s.jpg", uuid.New().String()))
	defer os.Remove(outputPath)

	args := BuildArgs(settings, outputPath)
	o.logger.Debug("Invoking capture backend", "backend", backend, "args", fmt.Sprint(args))

	// Hard per-attempt timeout, distinct from the tool's own --timeout: the
	// subprocess is killed on expiry.
	attemptCtx, cancel := context.WithTimeout(ctx, settings.CaptureTimeout)
	defer cancel()

	start := time.Now()
	cmd := exec.CommandContext(attemptCtx, backend, args...)
	output, err := cmd.CombinedOutput()
	duration := time.Since(start)

	if attemptCtx.Err() == context.DeadlineExceeded {
		return nil, errors.NewCaptureTimeoutError(backend, settings.CaptureTimeout, err)
	}
	if err != nil {
		return nil, errors.NewCaptureFailedError(backend,
			fmt.Errorf("exit error: %w (output: %s)", err, truncate(output, 200)))
	}

	data, err := os.ReadFile(outputPath)
	if err != nil {
		return nil, errors.NewCaptureFailedError(backend, fmt.Errorf("output file missing: %w", err))
	}
	if len(data) == 0 {
		return nil, errors.NewCaptureFailedError(backend, fmt.Errorf("output file empty"))
	}

	o.logger.Info("Capture complete", "backend", backend, "bytes", len(data), "duration", duration)

	return &CapturedImage{
		Data:     data,
		Duration: duration,
		Backend:  backend,
	}, nil
}

// validate applies lightweight post-capture checks. A suspicious image is
// still returned to the caller; OCR decides whether it is usable.
func (o *Orchestrator) validate(image *CapturedImage) {
	if len(image.Data) < minPlausibleSize {
		o.logger.Warn("Capture suspiciously small, likely blank or failed exposure",
			"bytes", len(image.Data))
	}
	if len(image.Data) > maxPlausibleSize {
		o.logger.Info("Capture unusually large", "bytes", len(image.Data))
	}
	if !bytes.HasPrefix(image.Data, jpegMagic) {
		o.logger.Warn("Capture is not a valid JPEG (magic byte check failed)",
			"backend", image.Backend)
	}
}

// debugSave writes a timestamped copy of the capture when enabled. A missing
// path while saving is enabled is a configuration warning, not an error.
func (o *Orchestrator) debugSave(image *CapturedImage, debug confighub.DebugSettings) {
	if !debug.SaveImages {
		return
	}
	if debug.ImagePath == "" {
		o.logger.Warn("Debug image save enabled but no path configured, skipping")
		return
	}
	if err := os.MkdirAll(debug.ImagePath, 0o755); err != nil {
		o.logger.Warn("Failed to create debug image directory", "path", debug.ImagePath, "error", err)
		return
	}
	name := fmt.Sprintf("pump-%s.jpg", time.Now().Format("20060102-150405.000"))
	target := filepath.Join(debug.ImagePath, name)
	if err := os.WriteFile(target, image.Data, 0o644); err != nil {
		o.logger.Warn("Failed to save debug image", "path", target, "error", err)
		return
	}
	o.logger.Debug("Saved debug image", "path", target)
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
