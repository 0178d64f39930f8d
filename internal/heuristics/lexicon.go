package heuristics

import "strings"

// Lexicon holds locale-specific vocabulary used by the quality scorer.
// The defaults target Swedish and English financial reports; callers
// processing other locales can supply their own keyword set.
type Lexicon struct {
	// Keywords are lowercase domain terms whose presence indicates the
	// text is genuine financial-report content rather than decoder noise.
	Keywords []string
}

// DefaultLexicon returns the built-in Swedish/English financial vocabulary.
func DefaultLexicon() Lexicon {
	return Lexicon{
		Keywords: []string{
			"revenue", "omsättning", "intäkter",
			"ebitda", "rörelseresultat", "resultat",
			"quarter", "kvartal", "delårsrapport",
			"growth", "tillväxt",
			"profit", "vinst", "earnings",
			"guidance", "prognos",
			"dividend", "utdelning",
			"margin", "marginal",
		},
	}
}

// containsKeyword reports whether any lexicon keyword occurs in text.
// Matching is case-insensitive.
func (l Lexicon) containsKeyword(text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range l.Keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
