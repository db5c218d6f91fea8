package capture

import (
	"strconv"

	"github.com/davebirr/WellMonitor-sub000/internal/confighub"
)

/**
 * Still-capture CLI argument construction
 *
 * Both backends (rpicam-still and the legacy libcamera-still) accept the same
 * flag set, so one builder serves the whole fallback chain. Flags for
 * non-neutral adjustments are emitted only when they differ from the tool's
 * own defaults: forcing manual-exposure flags on a sensor that does not
 * support them makes the tool exit non-zero.
 */

const (
	neutralBrightness = 50
	neutralContrast   = 0
	neutralSaturation = 0
)

// BuildArgs translates CaptureSettings into the argument list for one capture
// attempt writing to outputPath.
func BuildArgs(s confighub.CaptureSettings, outputPath string) []string {
	args := []string{
		"--output", outputPath,
		"--width", strconv.Itoa(s.Width),
		"--height", strconv.Itoa(s.Height),
		"--quality", strconv.Itoa(s.Quality),
		"--timeout", strconv.FormatInt(s.WarmupTime.Milliseconds(), 10),
		"--encoding", "jpg",
		"--immediate",
		"--nopreview",
	}

	if s.Rotation != 0 {
		args = append(args, "--rotation", strconv.Itoa(s.Rotation))
	}
	if s.Brightness != neutralBrightness {
		args = append(args, "--brightness", strconv.Itoa(s.Brightness))
	}
	if s.Contrast != neutralContrast {
		args = append(args, "--contrast", strconv.Itoa(s.Contrast))
	}
	if s.Saturation != neutralSaturation {
		args = append(args, "--saturation", strconv.Itoa(s.Saturation))
	}

	// Gain and shutter only above baseline; zero means leave the tool on auto.
	if s.Gain > 0 {
		args = append(args, "--gain", strconv.FormatFloat(s.Gain, 'f', -1, 64))
	}
	if s.ShutterMicros > 0 {
		args = append(args, "--shutter", strconv.Itoa(s.ShutterMicros))
	}

	args = append(args, "--exposure", resolveExposureMode(s))

	if s.AutoWhiteBalance {
		args = append(args, "--awb", "auto")
	}

	return args
}

// resolveExposureMode applies the exposure-mode policy: an explicitly
// configured mode wins; a manual shutter speed needs a mode that will not
// override it; disabled auto-exposure gets a safe fixed mode; everything else
// stays on auto.
func resolveExposureMode(s confighub.CaptureSettings) string {
	if s.ExposureMode != "" {
		return s.ExposureMode
	}
	if s.ShutterMicros > 0 {
		return "off"
	}
	if !s.AutoExposure {
		return "normal"
	}
	return "auto"
}

// ParseArgs recovers a flag->value map from a built argument list. Bare flags
// (no value) map to "". Used by diagnostics and the round-trip tests.
func ParseArgs(args []string) map[string]string {
	parsed := make(map[string]string)
	for i := 0; i < len(args); i++ {
		if len(args[i]) < 2 || args[i][:2] != "--" {
			continue
		}
		flag := args[i][2:]
		if i+1 < len(args) && (len(args[i+1]) < 2 || args[i+1][:2] != "--") {
			parsed[flag] = args[i+1]
			i++
		} else {
			parsed[flag] = ""
		}
	}
	return parsed
}
