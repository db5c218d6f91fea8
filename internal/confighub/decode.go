package confighub

import (
	"time"

	"github.com/spf13/cast"
)

/**
 * Remote document decoding
 *
 * The configuration service delivers a JSON document in one of two shapes: the
 * current nested form with a "camera" object, or the legacy flat form with one
 * key per setting ("cameraWidth", "cameraHeight", ...). Both are normalized
 * here, once, into a ConfigSnapshot candidate; nothing downstream ever sees
 * the raw shapes. The nested form wins when both are present.
 *
 * Missing keys inherit the current snapshot's value, so a partial document
 * updates only the fields it names.
 */

// Decode merges a raw configuration document over a base snapshot. The result
// is a candidate only; callers pass it through Validate (the Hub does this on
// Replace).
func Decode(base ConfigSnapshot, doc map[string]interface{}) ConfigSnapshot {
	c := base

	// Nested camera object takes precedence over legacy flat keys.
	if camera, ok := doc["camera"].(map[string]interface{}); ok {
		decodeCamera(&c.Capture, camera)
	} else {
		decodeLegacyCamera(&c.Capture, doc)
	}

	if ocr, ok := doc["ocr"].(map[string]interface{}); ok {
		decodeOcr(&c.Ocr, ocr)
	}
	if analyzer, ok := doc["analyzer"].(map[string]interface{}); ok {
		decodeAnalyzer(&c.Analyzer, analyzer)
	}
	if debug, ok := doc["debug"].(map[string]interface{}); ok {
		if v, ok := debug["saveImages"]; ok {
			c.Debug.SaveImages = cast.ToBool(v)
		}
		if v, ok := debug["imagePath"]; ok {
			c.Debug.ImagePath = cast.ToString(v)
		}
	}

	return c
}

func decodeCamera(s *CaptureSettings, m map[string]interface{}) {
	setInt(m, "width", &s.Width)
	setInt(m, "height", &s.Height)
	setInt(m, "quality", &s.Quality)
	setInt(m, "rotation", &s.Rotation)
	setInt(m, "brightness", &s.Brightness)
	setInt(m, "contrast", &s.Contrast)
	setInt(m, "saturation", &s.Saturation)
	setFloat(m, "gain", &s.Gain)
	setInt(m, "shutterSpeedMicroseconds", &s.ShutterMicros)
	setString(m, "exposureMode", &s.ExposureMode)
	setBool(m, "autoExposure", &s.AutoExposure)
	setBool(m, "autoWhiteBalance", &s.AutoWhiteBalance)
	setMillis(m, "warmupTimeMs", &s.WarmupTime)
	setMillis(m, "timeoutMs", &s.CaptureTimeout)
}

func decodeLegacyCamera(s *CaptureSettings, m map[string]interface{}) {
	setInt(m, "cameraWidth", &s.Width)
	setInt(m, "cameraHeight", &s.Height)
	setInt(m, "cameraQuality", &s.Quality)
	setInt(m, "cameraRotation", &s.Rotation)
	setInt(m, "cameraBrightness", &s.Brightness)
	setInt(m, "cameraContrast", &s.Contrast)
	setInt(m, "cameraSaturation", &s.Saturation)
	setFloat(m, "cameraGain", &s.Gain)
	setInt(m, "cameraShutterSpeedMicroseconds", &s.ShutterMicros)
	setString(m, "cameraExposureMode", &s.ExposureMode)
	setBool(m, "cameraAutoExposure", &s.AutoExposure)
	setBool(m, "cameraAutoWhiteBalance", &s.AutoWhiteBalance)
	setMillis(m, "cameraWarmupTimeMs", &s.WarmupTime)
	setMillis(m, "cameraTimeoutMs", &s.CaptureTimeout)
}

func decodeOcr(s *OcrSettings, m map[string]interface{}) {
	setString(m, "provider", &s.Provider)
	setFloat(m, "minimumConfidence", &s.MinimumConfidence)
	setInt(m, "maxRetries", &s.MaxRetries)
	setMillis(m, "timeoutMs", &s.Timeout)
	if pp, ok := m["preprocess"].(map[string]interface{}); ok {
		setBool(pp, "enabled", &s.Preprocess.Enabled)
		setBool(pp, "grayscale", &s.Preprocess.Grayscale)
		setFloat(pp, "contrast", &s.Preprocess.Contrast)
		setFloat(pp, "brightness", &s.Preprocess.Brightness)
		setFloat(pp, "scale", &s.Preprocess.Scale)
		setInt(pp, "threshold", &s.Preprocess.Threshold)
	}
}

func decodeAnalyzer(s *AnalyzerThresholds, m map[string]interface{}) {
	setFloat(m, "offCurrentThreshold", &s.OffCurrent)
	setFloat(m, "idleCurrentThreshold", &s.IdleCurrent)
	setFloat(m, "normalCurrentMin", &s.NormalMin)
	setFloat(m, "normalCurrentMax", &s.NormalMax)
	setFloat(m, "highCurrentThreshold", &s.HighCurrent)
	setFloat(m, "maxValidCurrent", &s.MaxValidCurrent)
	setBool(m, "caseSensitive", &s.CaseSensitive)
	if v, ok := m["dryKeywords"]; ok {
		if kws, err := cast.ToStringSliceE(v); err == nil {
			s.DryKeywords = kws
		}
	}
	if v, ok := m["rapidCycleKeywords"]; ok {
		if kws, err := cast.ToStringSliceE(v); err == nil {
			s.RapidCycleKeywords = kws
		}
	}
}

// Coercion helpers. A key that is present but uncoercible is ignored; the
// field keeps its base value and range validation covers the rest.

func setInt(m map[string]interface{}, key string, dst *int) {
	if v, ok := m[key]; ok {
		if n, err := cast.ToIntE(v); err == nil {
			*dst = n
		}
	}
}

func setFloat(m map[string]interface{}, key string, dst *float64) {
	if v, ok := m[key]; ok {
		if f, err := cast.ToFloat64E(v); err == nil {
			*dst = f
		}
	}
}

func setString(m map[string]interface{}, key string, dst *string) {
	if v, ok := m[key]; ok {
		if s, err := cast.ToStringE(v); err == nil {
			*dst = s
		}
	}
}

func setBool(m map[string]interface{}, key string, dst *bool) {
	if v, ok := m[key]; ok {
		if b, err := cast.ToBoolE(v); err == nil {
			*dst = b
		}
	}
}

func setMillis(m map[string]interface{}, key string, dst *time.Duration) {
	if v, ok := m[key]; ok {
		if n, err := cast.ToInt64E(v); err == nil {
			*dst = time.Duration(n) * time.Millisecond
		}
	}
}
