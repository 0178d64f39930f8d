package heuristics

import (
	"strings"
	"unicode"
)

// Scoring thresholds. The issue diagnostics in ScoreQuality are derived from
// these same constants so that issue set and score band stay in lock-step.
const (
	minUsefulLength  = 500
	bonusLength      = 1000
	minWordCount     = 50
	lowAlphaRatio    = 0.5
	garbageAlphaRatio = 0.3
)

// QualityReport captures the outcome of scoring extracted text.
type QualityReport struct {
	Score  int      `json:"score"`
	Issues []string `json:"issues"`
}

// ScoreQuality rates extracted text on a deterministic additive scale.
// Same input always yields the same report; the score is never negative.
// Provenance of the text plays no part in the score.
func ScoreQuality(text string, lex Lexicon) QualityReport {
	score := 0
	var issues []string

	runes := []rune(text)
	length := len(runes)

	if length > minUsefulLength {
		score += 2
	} else {
		issues = append(issues, "text too short")
	}
	if length > bonusLength {
		score++
	}

	if len(strings.Fields(text)) > minWordCount {
		score += 2
	} else {
		issues = append(issues, "too few words")
	}

	if strings.ContainsFunc(text, unicode.IsDigit) {
		score += 2
	} else {
		issues = append(issues, "no digits found")
	}

	if lex.containsKeyword(text) {
		score += 3
	} else {
		issues = append(issues, "no financial keywords found")
	}

	if hasExtendedLatin(text) {
		score++
	}

	ratio := alphaRatio(runes)
	if ratio < lowAlphaRatio {
		score -= 2
		issues = append(issues, "high proportion of non-alphabetic characters")
	}
	if ratio < garbageAlphaRatio {
		score -= 4
		issues = append(issues, "mostly non-alphabetic content")
	}

	if score < 0 {
		score = 0
	}
	return QualityReport{Score: score, Issues: issues}
}

// alphaRatio returns the share of letters among all runes. Empty text
// counts as fully non-alphabetic.
func alphaRatio(runes []rune) float64 {
	if len(runes) == 0 {
		return 0
	}
	letters := 0
	for _, r := range runes {
		if unicode.IsLetter(r) {
			letters++
		}
	}
	return float64(letters) / float64(len(runes))
}

// hasExtendedLatin reports whether text contains letters beyond ASCII
// (å, ä, ö and friends) — a signal the decoder preserved the original
// character set instead of mangling it.
func hasExtendedLatin(text string) bool {
	for _, r := range text {
		if r > 0x7F && unicode.IsLetter(r) {
			return true
		}
	}
	return false
}
