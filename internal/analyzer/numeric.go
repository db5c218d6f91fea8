package analyzer

import (
	"regexp"
	"strconv"
	"strings"
)

/**
 * Numeric extraction from noisy OCR text
 *
 * The display alternates between status words and a current-draw number, so
 * the scan runs a descending-specificity pattern cascade: a two-decimal
 * number is the most trustworthy shape the display produces, a bare integer
 * the least. The first candidate within the valid range wins; later
 * candidates are not reconsidered even if the string contains several
 * numbers.
 */

var numericPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\d+\.\d{2}`), // two-decimal reading, e.g. "4.73"
	regexp.MustCompile(`\d+\.\d`),    // one-decimal reading, e.g. "4.7"
	regexp.MustCompile(`\d+\.`),      // trailing-dot integer, e.g. "4."
	regexp.MustCompile(`\d+`),        // bare integer, e.g. "4"
}

var cleanDecimal = regexp.MustCompile(`^\d+(\.\d+)?$`)

// extractCurrent scans text for a current-draw value within
// [0, maxValid] amps. Returns the value, a confidence derived from how much
// of the input the match consumed, and whether any candidate was accepted.
func extractCurrent(text string, maxValid float64) (float64, float64, bool) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return 0, 0, false
	}

	for _, pattern := range numericPatterns {
		match := pattern.FindString(trimmed)
		if match == "" {
			continue
		}

		value, err := strconv.ParseFloat(strings.TrimSuffix(match, "."), 64)
		if err != nil {
			continue
		}
		if value < 0 || value > maxValid {
			continue
		}

		confidence := float64(len(match)) / float64(len(trimmed))
		if cleanDecimal.MatchString(trimmed) {
			// The whole string is one clean decimal: nothing else competed
			// for the match.
			confidence += 0.2
		}
		if confidence > 1.0 {
			confidence = 1.0
		}

		return value, confidence, true
	}

	return 0, 0, false
}
