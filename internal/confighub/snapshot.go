/**
 * Runtime configuration snapshot for the WellMonitor agent
 *
 * A ConfigSnapshot bundles every runtime-tunable setting: camera capture
 * parameters, OCR pipeline behavior, analyzer thresholds, and debug switches.
 * Snapshots are immutable; the Hub swaps the whole bundle atomically so no
 * reader ever observes a half-updated mix of old and new fields.
 */

package confighub

import (
	"time"
)

// CaptureSettings holds still-capture tool parameters. Read once per capture.
type CaptureSettings struct {
	Width      int
	Height     int
	Quality    int
	Rotation   int // degrees: 0, 90, 180, 270
	Brightness int // 0-100, 50 is neutral
	Contrast   int // -100..100, 0 is neutral
	Saturation int // -100..100, 0 is neutral

	Gain          float64 // analog gain, 0 leaves the tool on auto
	ShutterMicros int     // manual shutter speed in microseconds, 0 = auto

	ExposureMode     string // explicit mode; empty resolves via policy
	AutoExposure     bool
	AutoWhiteBalance bool

	WarmupTime     time.Duration
	CaptureTimeout time.Duration
}

// PreprocessSettings controls image conditioning before OCR.
type PreprocessSettings struct {
	Enabled    bool
	Grayscale  bool
	Contrast   float64 // multiplier, 1.0 is neutral
	Brightness float64 // additive shift in [-255, 255]
	Scale      float64 // resize factor, 1.0 is neutral
	Threshold  int     // binary threshold 1-255, 0 disables
}

// OcrSettings holds OCR pipeline tunables.
type OcrSettings struct {
	Provider          string // "tesseract", "cloud", "noop", or "" for any available
	MinimumConfidence float64
	MaxRetries        int
	Timeout           time.Duration
	Preprocess        PreprocessSettings
}

// AnalyzerThresholds holds current-draw cutoffs and status keyword lists.
type AnalyzerThresholds struct {
	OffCurrent      float64 // below this the pump is off
	IdleCurrent     float64 // below this the pump is idling
	NormalMin       float64
	NormalMax       float64
	HighCurrent     float64 // above this the reading is flagged, not classified
	MaxValidCurrent float64 // numeric candidates above this are rejected outright

	DryKeywords        []string
	RapidCycleKeywords []string
	CaseSensitive      bool
}

// DebugSettings holds diagnostic switches.
type DebugSettings struct {
	SaveImages bool
	ImagePath  string
}

// ConfigSnapshot is one immutable, validated bundle of all tunables.
type ConfigSnapshot struct {
	Capture  CaptureSettings
	Ocr      OcrSettings
	Analyzer AnalyzerThresholds
	Debug    DebugSettings
}

// Defaults returns the built-in snapshot the agent runs on before any remote
// configuration has arrived. Every field is within its documented safe range.
func Defaults() ConfigSnapshot {
	return ConfigSnapshot{
		Capture: CaptureSettings{
			Width:            1920,
			Height:           1080,
			Quality:          85,
			Rotation:         0,
			Brightness:       50,
			Contrast:         0,
			Saturation:       0,
			Gain:             0,
			ShutterMicros:    0,
			ExposureMode:     "",
			AutoExposure:     true,
			AutoWhiteBalance: true,
			WarmupTime:       2 * time.Second,
			CaptureTimeout:   30 * time.Second,
		},
		Ocr: OcrSettings{
			Provider:          "tesseract",
			MinimumConfidence: 0.7,
			MaxRetries:        3,
			Timeout:           30 * time.Second,
			Preprocess: PreprocessSettings{
				Enabled:    true,
				Grayscale:  true,
				Contrast:   1.5,
				Brightness: 10,
				Scale:      2.0,
				Threshold:  0,
			},
		},
		Analyzer: AnalyzerThresholds{
			OffCurrent:         0.1,
			IdleCurrent:        2.0,
			NormalMin:          3.0,
			NormalMax:          8.0,
			HighCurrent:        12.0,
			MaxValidCurrent:    25.0,
			DryKeywords:        []string{"dry", "dry run", "no water"},
			RapidCycleKeywords: []string{"rcyc", "rapid", "cycle"},
			CaseSensitive:      false,
		},
		Debug: DebugSettings{
			SaveImages: false,
			ImagePath:  "",
		},
	}
}

// Equal reports whether two snapshots carry identical settings. Used by the
// Hub to suppress change notifications for no-op replacements.
func (s ConfigSnapshot) Equal(other ConfigSnapshot) bool {
	if s.Capture != other.Capture {
		return false
	}
	if s.Ocr != other.Ocr {
		return false
	}
	if s.Debug != other.Debug {
		return false
	}
	a, b := s.Analyzer, other.Analyzer
	if a.OffCurrent != b.OffCurrent || a.IdleCurrent != b.IdleCurrent ||
		a.NormalMin != b.NormalMin || a.NormalMax != b.NormalMax ||
		a.HighCurrent != b.HighCurrent || a.MaxValidCurrent != b.MaxValidCurrent ||
		a.CaseSensitive != b.CaseSensitive {
		return false
	}
	return equalStrings(a.DryKeywords, b.DryKeywords) &&
		equalStrings(a.RapidCycleKeywords, b.RapidCycleKeywords)
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
