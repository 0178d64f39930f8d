// Package facts pulls structured financial figures out of extracted report
// text. A language model does the heavy lifting; a regex scanner stands in
// when the model's answer cannot be parsed.
package facts

// Unknown is the sentinel for a fact the source text did not yield. Callers
// can rely on every string field holding either a real value or this.
const Unknown = "unknown"

// FinancialFacts is the structured result of analysing one document.
type FinancialFacts struct {
	CompanyName      string   `json:"company_name"`
	Period           string   `json:"period"`
	Revenue          string   `json:"revenue"`
	EBITDA           string   `json:"ebitda"`
	GrowthPercentage string   `json:"growth_percentage"`
	KeyHighlights    []string `json:"key_highlights"`
	Concerns         []string `json:"concerns"`
	CEOQuote         string   `json:"ceo_quote"`
	ForwardGuidance  string   `json:"forward_guidance"`
}

// Source names which path produced a FinancialFacts value.
type Source string

const (
	SourceModel    Source = "model"
	SourceFallback Source = "regex-fallback"
)

// backfill replaces empty string fields with the Unknown sentinel and nil
// slices with empty ones, so downstream templates never branch on absence.
func backfill(f *FinancialFacts) {
	for _, field := range []*string{
		&f.CompanyName, &f.Period, &f.Revenue, &f.EBITDA,
		&f.GrowthPercentage, &f.CEOQuote, &f.ForwardGuidance,
	} {
		if *field == "" {
			*field = Unknown
		}
	}
	if f.KeyHighlights == nil {
		f.KeyHighlights = []string{}
	}
	if f.Concerns == nil {
		f.Concerns = []string{}
	}
}

// KnownCount reports how many of the scalar fields carry real values. Used
// for logging and for deciding how much a narrative can lean on the facts.
func (f FinancialFacts) KnownCount() int {
	n := 0
	for _, v := range []string{
		f.CompanyName, f.Period, f.Revenue, f.EBITDA,
		f.GrowthPercentage, f.CEOQuote, f.ForwardGuidance,
	} {
		if v != "" && v != Unknown {
			n++
		}
	}
	return n
}
