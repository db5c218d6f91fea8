/**
 * Pump Status Analyzer for the WellMonitor agent
 *
 * Classifies cleaned OCR text into a typed pump state. Keyword states (Dry,
 * RapidCycle) are checked first with fuzzy matching that absorbs OCR
 * character substitution noise; otherwise a numeric current reading is
 * extracted and mapped onto the configured threshold bands. Every call reads
 * the thresholds from the current config snapshot; nothing is cached across
 * analyses.
 */

package analyzer

import (
	"strings"
	"time"

	"github.com/davebirr/WellMonitor-sub000/internal/confighub"
	"github.com/davebirr/WellMonitor-sub000/internal/logging"
)

// Keyword states are read directly off the display, so their confidence is a
// fixed high constant rather than a derived score.
const keywordConfidence = 0.9

// Maximum edit distance for a fuzzy keyword hit.
const maxKeywordDistance = 2

// SnapshotSource yields the configuration in effect at analysis time.
type SnapshotSource interface {
	Current() confighub.ConfigSnapshot
}

// Analyzer turns OCR text into PumpReadings.
type Analyzer struct {
	config SnapshotSource
	logger *logging.Logger
}

// NewAnalyzer creates an analyzer bound to a config source.
func NewAnalyzer(config SnapshotSource) *Analyzer {
	return &Analyzer{
		config: config,
		logger: logging.NewLogger("Analyzer"),
	}
}

// Analyze classifies one OCR extraction. ocrConfidence is the extraction
// confidence reported by the provider; it is carried into the reading's
// metadata, while the reading confidence reflects classification certainty.
func (a *Analyzer) Analyze(text string, ocrConfidence float64) *PumpReading {
	thresholds := a.config.Current().Analyzer

	reading := &PumpReading{
		Status:    StatusUnknown,
		RawText:   text,
		Timestamp: time.Now().UTC(),
		Metadata: map[string]interface{}{
			"ocrConfidence": ocrConfidence,
		},
	}

	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		a.logger.Debug("Empty text, reading unknown")
		return reading
	}

	// 1. Dry keyword: exact substring or edit distance <= 2.
	if keyword, ok := matchKeyword(trimmed, thresholds.DryKeywords, thresholds.CaseSensitive); ok {
		reading.Status = StatusDry
		reading.Confidence = keywordConfidence
		reading.IsValid = true
		reading.Metadata["matchedKeyword"] = keyword
		a.logger.Info("Dry state detected", "text", trimmed, "keyword", keyword)
		return reading
	}

	// 2. Rapid-cycle keyword under the same rule.
	if keyword, ok := matchKeyword(trimmed, thresholds.RapidCycleKeywords, thresholds.CaseSensitive); ok {
		reading.Status = StatusRapidCycle
		reading.Confidence = keywordConfidence
		reading.IsValid = true
		reading.Metadata["matchedKeyword"] = keyword
		a.logger.Info("Rapid-cycle state detected", "text", trimmed, "keyword", keyword)
		return reading
	}

	// 3. Numeric extraction via the pattern cascade.
	value, confidence, ok := extractCurrent(trimmed, thresholds.MaxValidCurrent)
	if !ok {
		a.logger.Debug("No keyword and no parseable number", "text", trimmed)
		return reading
	}

	// 4. Threshold bands: boundary values resolve to the lower band per the
	// strict "< threshold" comparisons.
	reading.CurrentAmps = &value
	reading.Confidence = confidence
	switch {
	case value < thresholds.OffCurrent:
		reading.Status = StatusOff
		reading.IsValid = true
	case value < thresholds.IdleCurrent:
		reading.Status = StatusIdle
		reading.IsValid = true
	case value >= thresholds.NormalMin && value <= thresholds.NormalMax:
		reading.Status = StatusNormal
		reading.IsValid = true
	case value > thresholds.HighCurrent:
		// Over-current is flagged for investigation rather than guessed at.
		reading.Status = StatusUnknown
		reading.Metadata["flagged"] = "over_high_threshold"
		a.logger.Warn("Current above high threshold", "amps", value, "threshold", thresholds.HighCurrent)
	default:
		// Between bands (idle..normalMin or normalMax..high): unclassifiable.
		reading.Status = StatusUnknown
	}

	a.logger.Debug("Numeric reading classified",
		"amps", value, "status", reading.Status, "confidence", confidence)
	return reading
}

// matchKeyword reports the first configured keyword found in text, either as
// an exact substring or within edit distance 2 of any word in the text.
func matchKeyword(text string, keywords []string, caseSensitive bool) (string, bool) {
	subject := text
	if !caseSensitive {
		subject = strings.ToLower(subject)
	}
	words := strings.Fields(subject)

	for _, keyword := range keywords {
		k := keyword
		if !caseSensitive {
			k = strings.ToLower(k)
		}
		if k == "" {
			continue
		}
		if strings.Contains(subject, k) {
			return keyword, true
		}
		for _, word := range words {
			if editDistance(word, k) <= maxKeywordDistance {
				return keyword, true
			}
		}
	}
	return "", false
}

// editDistance computes the Levenshtein distance with a two-row table.
func editDistance(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min3(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}
