package confighub

import (
	"fmt"
	"time"
)

/**
 * Fail-soft per-field validation
 *
 * Every field of a candidate snapshot is checked against its documented safe
 * range. An out-of-range field is replaced by the built-in default for that
 * field rather than rejecting the whole snapshot: one malformed remote
 * setting must never stall the monitoring loop. Each substitution produces a
 * warning the Hub logs before installing the snapshot.
 */

// Validate clamps out-of-range fields to their defaults and reports one
// warning per substituted field.
func Validate(c ConfigSnapshot) (ConfigSnapshot, []string) {
	var warnings []string
	def := Defaults()

	warn := func(field string, got, used interface{}) {
		warnings = append(warnings, fmt.Sprintf("%s out of range (got %v), using %v", field, got, used))
	}

	// Capture settings
	if c.Capture.Width < 320 || c.Capture.Width > 4096 {
		warn("capture.width", c.Capture.Width, def.Capture.Width)
		c.Capture.Width = def.Capture.Width
	}
	if c.Capture.Height < 240 || c.Capture.Height > 2160 {
		warn("capture.height", c.Capture.Height, def.Capture.Height)
		c.Capture.Height = def.Capture.Height
	}
	if c.Capture.Quality < 1 || c.Capture.Quality > 100 {
		warn("capture.quality", c.Capture.Quality, def.Capture.Quality)
		c.Capture.Quality = def.Capture.Quality
	}
	switch c.Capture.Rotation {
	case 0, 90, 180, 270:
	default:
		warn("capture.rotation", c.Capture.Rotation, def.Capture.Rotation)
		c.Capture.Rotation = def.Capture.Rotation
	}
	if c.Capture.Brightness < 0 || c.Capture.Brightness > 100 {
		warn("capture.brightness", c.Capture.Brightness, def.Capture.Brightness)
		c.Capture.Brightness = def.Capture.Brightness
	}
	if c.Capture.Contrast < -100 || c.Capture.Contrast > 100 {
		warn("capture.contrast", c.Capture.Contrast, def.Capture.Contrast)
		c.Capture.Contrast = def.Capture.Contrast
	}
	if c.Capture.Saturation < -100 || c.Capture.Saturation > 100 {
		warn("capture.saturation", c.Capture.Saturation, def.Capture.Saturation)
		c.Capture.Saturation = def.Capture.Saturation
	}
	if c.Capture.Gain < 0 || c.Capture.Gain > 16 {
		warn("capture.gain", c.Capture.Gain, def.Capture.Gain)
		c.Capture.Gain = def.Capture.Gain
	}
	if c.Capture.ShutterMicros < 0 || c.Capture.ShutterMicros > 6000000 {
		warn("capture.shutter", c.Capture.ShutterMicros, def.Capture.ShutterMicros)
		c.Capture.ShutterMicros = def.Capture.ShutterMicros
	}
	if c.Capture.WarmupTime < 0 || c.Capture.WarmupTime > 10*time.Second {
		warn("capture.warmup", c.Capture.WarmupTime, def.Capture.WarmupTime)
		c.Capture.WarmupTime = def.Capture.WarmupTime
	}
	if c.Capture.CaptureTimeout < time.Second || c.Capture.CaptureTimeout > 300*time.Second {
		warn("capture.timeout", c.Capture.CaptureTimeout, def.Capture.CaptureTimeout)
		c.Capture.CaptureTimeout = def.Capture.CaptureTimeout
	}

	// OCR settings
	switch c.Ocr.Provider {
	case "", "tesseract", "cloud", "noop":
	default:
		warn("ocr.provider", c.Ocr.Provider, def.Ocr.Provider)
		c.Ocr.Provider = def.Ocr.Provider
	}
	if c.Ocr.MinimumConfidence < 0 || c.Ocr.MinimumConfidence > 1 {
		warn("ocr.minimumConfidence", c.Ocr.MinimumConfidence, def.Ocr.MinimumConfidence)
		c.Ocr.MinimumConfidence = def.Ocr.MinimumConfidence
	}
	if c.Ocr.MaxRetries < 0 || c.Ocr.MaxRetries > 10 {
		warn("ocr.maxRetries", c.Ocr.MaxRetries, def.Ocr.MaxRetries)
		c.Ocr.MaxRetries = def.Ocr.MaxRetries
	}
	if c.Ocr.Timeout < time.Second || c.Ocr.Timeout > 120*time.Second {
		warn("ocr.timeout", c.Ocr.Timeout, def.Ocr.Timeout)
		c.Ocr.Timeout = def.Ocr.Timeout
	}
	if c.Ocr.Preprocess.Contrast <= 0 || c.Ocr.Preprocess.Contrast > 10 {
		warn("ocr.preprocess.contrast", c.Ocr.Preprocess.Contrast, def.Ocr.Preprocess.Contrast)
		c.Ocr.Preprocess.Contrast = def.Ocr.Preprocess.Contrast
	}
	if c.Ocr.Preprocess.Brightness < -255 || c.Ocr.Preprocess.Brightness > 255 {
		warn("ocr.preprocess.brightness", c.Ocr.Preprocess.Brightness, def.Ocr.Preprocess.Brightness)
		c.Ocr.Preprocess.Brightness = def.Ocr.Preprocess.Brightness
	}
	if c.Ocr.Preprocess.Scale < 0.1 || c.Ocr.Preprocess.Scale > 8.0 {
		warn("ocr.preprocess.scale", c.Ocr.Preprocess.Scale, def.Ocr.Preprocess.Scale)
		c.Ocr.Preprocess.Scale = def.Ocr.Preprocess.Scale
	}
	if c.Ocr.Preprocess.Threshold < 0 || c.Ocr.Preprocess.Threshold > 255 {
		warn("ocr.preprocess.threshold", c.Ocr.Preprocess.Threshold, def.Ocr.Preprocess.Threshold)
		c.Ocr.Preprocess.Threshold = def.Ocr.Preprocess.Threshold
	}

	// Analyzer thresholds: each must sit in [0, 100] amps, and the set must be
	// internally ordered. A disordered set is replaced wholesale since partial
	// repair would silently change classification bands.
	inRange := func(v float64) bool { return v >= 0 && v <= 100 }
	t := c.Analyzer
	if !inRange(t.OffCurrent) || !inRange(t.IdleCurrent) || !inRange(t.NormalMin) ||
		!inRange(t.NormalMax) || !inRange(t.HighCurrent) || !inRange(t.MaxValidCurrent) ||
		t.OffCurrent > t.IdleCurrent || t.IdleCurrent > t.NormalMin ||
		t.NormalMin > t.NormalMax || t.NormalMax > t.HighCurrent ||
		t.HighCurrent > t.MaxValidCurrent {
		warn("analyzer.thresholds", fmt.Sprintf("off=%.2f idle=%.2f normal=[%.2f,%.2f] high=%.2f max=%.2f",
			t.OffCurrent, t.IdleCurrent, t.NormalMin, t.NormalMax, t.HighCurrent, t.MaxValidCurrent),
			"defaults")
		c.Analyzer.OffCurrent = def.Analyzer.OffCurrent
		c.Analyzer.IdleCurrent = def.Analyzer.IdleCurrent
		c.Analyzer.NormalMin = def.Analyzer.NormalMin
		c.Analyzer.NormalMax = def.Analyzer.NormalMax
		c.Analyzer.HighCurrent = def.Analyzer.HighCurrent
		c.Analyzer.MaxValidCurrent = def.Analyzer.MaxValidCurrent
	}
	if len(c.Analyzer.DryKeywords) == 0 {
		warn("analyzer.dryKeywords", "empty", def.Analyzer.DryKeywords)
		c.Analyzer.DryKeywords = append([]string(nil), def.Analyzer.DryKeywords...)
	}
	if len(c.Analyzer.RapidCycleKeywords) == 0 {
		warn("analyzer.rapidCycleKeywords", "empty", def.Analyzer.RapidCycleKeywords)
		c.Analyzer.RapidCycleKeywords = append([]string(nil), def.Analyzer.RapidCycleKeywords...)
	}

	// Debug settings: save enabled without a path is a warning but stays
	// enabled; the capture orchestrator skips the save and logs it.
	if c.Debug.SaveImages && c.Debug.ImagePath == "" {
		warnings = append(warnings, "debug.saveImages enabled without debug.imagePath, saves will be skipped")
	}

	return c, warnings
}
