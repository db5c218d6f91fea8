package ocr

import (
	"strings"
)

/**
 * OCR text cleanup
 *
 * Seven-segment digits confuse the engine into letters: 0 reads as O, 1 as l
 * or I, 5 as S, 8 as B. The substitutions are applied only to tokens that
 * already contain a digit; status words like "Dry" must survive cleanup
 * intact for the keyword matcher.
 */

var confusionPairs = strings.NewReplacer(
	"O", "0",
	"o", "0",
	"l", "1",
	"I", "1",
	"|", "1",
	"S", "5",
	"s", "5",
	"B", "8",
	"Z", "2",
	"g", "9",
)

// CleanText canonicalizes common OCR confusions and collapses whitespace.
// The result is what the analyzer parses.
func CleanText(raw string) string {
	fields := strings.Fields(raw)
	cleaned := make([]string, 0, len(fields))
	for _, token := range fields {
		if containsDigit(token) {
			cleaned = append(cleaned, confusionPairs.Replace(token))
		} else {
			cleaned = append(cleaned, token)
		}
	}
	return strings.Join(cleaned, " ")
}

func containsDigit(s string) bool {
	for _, r := range s {
		if r >= '0' && r <= '9' {
			return true
		}
	}
	return false
}
