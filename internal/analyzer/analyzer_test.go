package analyzer

import (
	"testing"

	"github.com/davebirr/WellMonitor-sub000/internal/confighub"
)

type staticConfig struct {
	snapshot confighub.ConfigSnapshot
}

func (c *staticConfig) Current() confighub.ConfigSnapshot {
	return c.snapshot
}

func defaultAnalyzer() *Analyzer {
	return NewAnalyzer(&staticConfig{snapshot: confighub.Defaults()})
}

// Default thresholds: off=0.1, idle=2.0, normal=[3.0,8.0], high=12.0, max=25.0.
func TestAnalyzeThresholdBands(t *testing.T) {
	a := defaultAnalyzer()

	tests := []struct {
		name      string
		text      string
		want      PumpStatus
		wantValid bool
		wantAmps  bool
	}{
		{"zero reading", "0.00", StatusOff, true, true},
		{"below off threshold", "0.05", StatusOff, true, true},
		{"off boundary falls to idle band", "0.1", StatusIdle, true, true},
		{"idle range", "1.2", StatusIdle, true, true},
		{"between idle and normal", "2.5", StatusUnknown, false, true},
		{"normal lower boundary", "3.0", StatusNormal, true, true},
		{"normal range", "5.2", StatusNormal, true, true},
		{"normal upper boundary", "8.0", StatusNormal, true, true},
		{"between normal and high", "9.5", StatusUnknown, false, true},
		{"above high threshold", "13.8", StatusUnknown, false, true},
		{"above max valid rejected", "30.0", StatusUnknown, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reading := a.Analyze(tt.text, 0.9)
			if reading.Status != tt.want {
				t.Errorf("Analyze(%q) status = %s, want %s", tt.text, reading.Status, tt.want)
			}
			if reading.IsValid != tt.wantValid {
				t.Errorf("Analyze(%q) valid = %v, want %v", tt.text, reading.IsValid, tt.wantValid)
			}
			if (reading.CurrentAmps != nil) != tt.wantAmps {
				t.Errorf("Analyze(%q) amps present = %v, want %v", tt.text, reading.CurrentAmps != nil, tt.wantAmps)
			}
		})
	}
}

func TestAnalyzeOverHighThresholdFlagged(t *testing.T) {
	a := defaultAnalyzer()
	reading := a.Analyze("13.8", 0.9)
	if reading.Metadata["flagged"] != "over_high_threshold" {
		t.Errorf("expected over_high_threshold flag, got %v", reading.Metadata["flagged"])
	}
}

func TestAnalyzeKeywords(t *testing.T) {
	a := defaultAnalyzer()

	tests := []struct {
		name string
		text string
		want PumpStatus
	}{
		{"dry exact", "Dry", StatusDry},
		{"dry phrase case insensitive", "DRY RUN", StatusDry},
		{"dry one substitution away", "Drv", StatusDry},
		{"no water substring", "no water detected", StatusDry},
		{"rapid cycle code", "rCYC", StatusRapidCycle},
		{"rapid word", "rapid", StatusRapidCycle},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reading := a.Analyze(tt.text, 0.9)
			if reading.Status != tt.want {
				t.Errorf("Analyze(%q) status = %s, want %s", tt.text, reading.Status, tt.want)
			}
			if !reading.IsValid {
				t.Errorf("Analyze(%q) expected valid keyword reading", tt.text)
			}
			if reading.Confidence != 0.9 {
				t.Errorf("Analyze(%q) confidence = %v, want 0.9", tt.text, reading.Confidence)
			}
			if reading.Metadata["matchedKeyword"] == nil {
				t.Errorf("Analyze(%q) missing matchedKeyword metadata", tt.text)
			}
		})
	}
}

func TestAnalyzeKeywordsCaseSensitive(t *testing.T) {
	snapshot := confighub.Defaults()
	snapshot.Analyzer.CaseSensitive = true
	a := NewAnalyzer(&staticConfig{snapshot: snapshot})

	if reading := a.Analyze("DRY", 0.9); reading.Status != StatusUnknown {
		t.Errorf("case-sensitive DRY should not match lowercase keyword, got %s", reading.Status)
	}
	if reading := a.Analyze("dry", 0.9); reading.Status != StatusDry {
		t.Errorf("case-sensitive dry should match, got %s", reading.Status)
	}
}

func TestAnalyzeEmptyText(t *testing.T) {
	a := defaultAnalyzer()
	for _, text := range []string{"", "   ", "\t\n"} {
		reading := a.Analyze(text, 0.0)
		if reading.Status != StatusUnknown || reading.IsValid {
			t.Errorf("Analyze(%q) = %s/valid=%v, want Unknown/invalid", text, reading.Status, reading.IsValid)
		}
		if reading.Confidence != 0 {
			t.Errorf("Analyze(%q) confidence = %v, want 0", text, reading.Confidence)
		}
	}
}

func TestAnalyzeCarriesOcrConfidence(t *testing.T) {
	a := defaultAnalyzer()
	reading := a.Analyze("5.2", 0.42)
	if got := reading.Metadata["ocrConfidence"]; got != 0.42 {
		t.Errorf("ocrConfidence metadata = %v, want 0.42", got)
	}
}

func TestExtractCurrentCascade(t *testing.T) {
	tests := []struct {
		name string
		text string
		want float64
		ok   bool
	}{
		{"two decimals preferred over integer", "12 4.56", 4.56, true},
		{"one decimal", "4.7 A", 4.7, true},
		{"trailing dot", "4.", 4, true},
		{"bare integer", "7", 7, true},
		{"no number", "pump ok", 0, false},
		{"above max valid", "99.99", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _, ok := extractCurrent(tt.text, 25.0)
			if ok != tt.ok {
				t.Fatalf("extractCurrent(%q) ok = %v, want %v", tt.text, ok, tt.ok)
			}
			if ok && got != tt.want {
				t.Errorf("extractCurrent(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestExtractCurrentCleanDecimalBoost(t *testing.T) {
	_, clean, _ := extractCurrent("5.2", 25.0)
	_, noisy, _ := extractCurrent("A 5.2 B", 25.0)
	if clean <= noisy {
		t.Errorf("clean decimal confidence %v should exceed noisy %v", clean, noisy)
	}
	if clean != 1.0 {
		t.Errorf("clean decimal confidence = %v, want capped at 1.0", clean)
	}
}

func TestEditDistance(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"dry", "dry", 0},
		{"drv", "dry", 1},
		{"dny", "dry", 1},
		{"rcyc", "rcy(", 1},
		{"", "dry", 3},
		{"5.2", "dry", 3},
	}
	for _, tt := range tests {
		if got := editDistance(tt.a, tt.b); got != tt.want {
			t.Errorf("editDistance(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestUnsafeStatuses(t *testing.T) {
	unsafe := map[PumpStatus]bool{
		StatusDry:        true,
		StatusRapidCycle: true,
		StatusOff:        false,
		StatusIdle:       false,
		StatusNormal:     false,
		StatusUnknown:    false,
	}
	for status, want := range unsafe {
		if status.Unsafe() != want {
			t.Errorf("%s.Unsafe() = %v, want %v", status, status.Unsafe(), want)
		}
	}
}
