package facts

import (
	"context"
	"regexp"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Regex fallback for when the model's answer cannot be parsed. Each field
// gets its own pattern; the leftmost match in the document wins. Patterns
// cover both English and Swedish report vocabulary since the corpus mixes
// the two freely.
var (
	companyPattern = regexp.MustCompile(
		`\b([A-ZÅÄÖ][\w&.-]*(?:\s+[A-ZÅÄÖ][\w&.-]*){0,3}\s+(?:AB|ASA|Oyj|A/S|Ltd|PLC|plc|Inc|Corp|GmbH))\b`)

	periodPattern = regexp.MustCompile(
		`(?i)\b(Q[1-4]\s*20\d{2}|H[12]\s*20\d{2}` +
			`|(?:first|second|third|fourth)\s+quarter(?:\s+of)?\s+20\d{2}` +
			`|(?:första|andra|tredje|fjärde)\s+kvartalet\s+20\d{2}` +
			`|full\s+year\s+20\d{2}|helåret\s+20\d{2})\b`)

	revenuePattern = regexp.MustCompile(
		`(?i)(?:revenue|net\s+sales|omsättning\w*|nettoomsättning\w*)` +
			`[^0-9%]{0,40}?(\d[\d\s.,]*\d|\d)\s*(MSEK|TSEK|SEK|MEUR|EUR|MUSD|USD|mkr|mnkr)?`)

	ebitdaPattern = regexp.MustCompile(
		`(?i)EBITDA[^0-9%\-]{0,40}?(-?\d[\d\s.,]*\d|-?\d)\s*(MSEK|TSEK|SEK|MEUR|EUR|MUSD|USD|mkr|mnkr)?`)

	growthPattern = regexp.MustCompile(
		`(?i)(?:growth|tillväxt\w*|ökning|ökade\s+med|increase[d]?\s*(?:of|by)?|up)` +
			`\D{0,20}?(-?\d+(?:[.,]\d+)?)\s*(?:%|procent|percent)`)

	quotePattern = regexp.MustCompile(`["\x{201C}]([^"\x{201C}\x{201D}]{20,240})["\x{201D}]`)
)

// fallbackFacts scans the document with the field patterns. Fields run
// concurrently since each scans the full text independently; absent fields
// come back empty and are backfilled by the caller.
func fallbackFacts(ctx context.Context, text string) FinancialFacts {
	var (
		mu sync.Mutex
		f  FinancialFacts
	)
	set := func(dst *string, v string) {
		mu.Lock()
		*dst = v
		mu.Unlock()
	}

	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(4)

	g.Go(func() error {
		if m := companyPattern.FindStringSubmatch(text); m != nil {
			set(&f.CompanyName, strings.TrimSpace(m[1]))
		}
		return nil
	})
	g.Go(func() error {
		if m := periodPattern.FindStringSubmatch(text); m != nil {
			set(&f.Period, strings.TrimSpace(m[1]))
		}
		return nil
	})
	g.Go(func() error {
		if m := revenuePattern.FindStringSubmatch(text); m != nil {
			set(&f.Revenue, joinAmount(m[1], m[2]))
		}
		return nil
	})
	g.Go(func() error {
		if m := ebitdaPattern.FindStringSubmatch(text); m != nil {
			set(&f.EBITDA, joinAmount(m[1], m[2]))
		}
		return nil
	})
	g.Go(func() error {
		if m := growthPattern.FindStringSubmatch(text); m != nil {
			set(&f.GrowthPercentage, m[1]+"%")
		}
		return nil
	})
	g.Go(func() error {
		if m := quotePattern.FindStringSubmatch(text); m != nil {
			set(&f.CEOQuote, strings.TrimSpace(m[1]))
		}
		return nil
	})

	g.Wait()
	return f
}

func joinAmount(number, unit string) string {
	number = strings.TrimSpace(number)
	if unit == "" {
		return number
	}
	return number + " " + unit
}
