package narrative

import (
	"fmt"
	"strings"

	"github.com/reportreel/reportreel/internal/facts"
)

// Template fallback. Each variant interpolates the known facts with its own
// framing; facts carrying the sentinel are simply left out of the script.

func templateScripts(f facts.FinancialFacts) []ScriptVariant {
	return []ScriptVariant{
		executiveTemplate(f),
		investorTemplate(f),
		socialTemplate(f),
	}
}

// known filters out the sentinel so templates never print it.
func known(v string) (string, bool) {
	return v, v != "" && v != facts.Unknown
}

func subject(f facts.FinancialFacts) string {
	if name, ok := known(f.CompanyName); ok {
		return name
	}
	return "The company"
}

func titleFor(f facts.FinancialFacts, suffix string) string {
	title := subject(f)
	if period, ok := known(f.Period); ok {
		title += " " + period
	}
	return title + ": " + suffix
}

func keyPoints(f facts.FinancialFacts) []string {
	points := []string{}
	if rev, ok := known(f.Revenue); ok {
		points = append(points, "Revenue "+rev)
	}
	if ebitda, ok := known(f.EBITDA); ok {
		points = append(points, "EBITDA "+ebitda)
	}
	if growth, ok := known(f.GrowthPercentage); ok {
		points = append(points, "Growth "+growth)
	}
	if len(f.KeyHighlights) > 0 {
		points = append(points, f.KeyHighlights[0])
	}
	return points
}

func executiveTemplate(f facts.FinancialFacts) ScriptVariant {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s presents its results", subject(f))
	if period, ok := known(f.Period); ok {
		fmt.Fprintf(&sb, " for %s", period)
	}
	sb.WriteString(". ")
	if rev, ok := known(f.Revenue); ok {
		fmt.Fprintf(&sb, "Revenue came in at %s. ", rev)
	}
	if ebitda, ok := known(f.EBITDA); ok {
		fmt.Fprintf(&sb, "EBITDA was %s. ", ebitda)
	}
	if growth, ok := known(f.GrowthPercentage); ok {
		fmt.Fprintf(&sb, "This represents growth of %s. ", growth)
	}
	if len(f.KeyHighlights) > 0 {
		fmt.Fprintf(&sb, "A key development this period: %s. ", f.KeyHighlights[0])
	}
	if guidance, ok := known(f.ForwardGuidance); ok {
		fmt.Fprintf(&sb, "Looking ahead: %s.", guidance)
	} else {
		sb.WriteString("We remain focused on disciplined execution.")
	}

	return ScriptVariant{
		Variant:          VariantExecutive,
		Title:            titleFor(f, "Results Presentation"),
		DurationEstimate: "90s",
		ToneLabel:        "authoritative",
		KeyPoints:        keyPoints(f),
		Body:             sb.String(),
	}
}

func investorTemplate(f facts.FinancialFacts) ScriptVariant {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Let's look at the numbers for %s", subject(f))
	if period, ok := known(f.Period); ok {
		fmt.Fprintf(&sb, " in %s", period)
	}
	sb.WriteString(". ")
	if rev, ok := known(f.Revenue); ok {
		fmt.Fprintf(&sb, "Top line: %s. ", rev)
	}
	if growth, ok := known(f.GrowthPercentage); ok {
		fmt.Fprintf(&sb, "That is %s growth against the comparable period. ", growth)
	}
	if ebitda, ok := known(f.EBITDA); ok {
		fmt.Fprintf(&sb, "On profitability, EBITDA landed at %s. ", ebitda)
	}
	if len(f.Concerns) > 0 {
		fmt.Fprintf(&sb, "Worth watching: %s. ", f.Concerns[0])
	}
	if guidance, ok := known(f.ForwardGuidance); ok {
		fmt.Fprintf(&sb, "Management's guidance: %s.", guidance)
	} else {
		sb.WriteString("No explicit guidance was given for the coming period.")
	}

	return ScriptVariant{
		Variant:          VariantInvestor,
		Title:            titleFor(f, "Investor Breakdown"),
		DurationEstimate: "120s",
		ToneLabel:        "analytical",
		KeyPoints:        keyPoints(f),
		Body:             sb.String(),
	}
}

func socialTemplate(f facts.FinancialFacts) ScriptVariant {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Big news from %s!", subject(f))
	if period, ok := known(f.Period); ok {
		fmt.Fprintf(&sb, " The %s numbers are in.", period)
	}
	sb.WriteString(" ")
	if rev, ok := known(f.Revenue); ok {
		fmt.Fprintf(&sb, "Revenue hit %s", rev)
		if growth, ok := known(f.GrowthPercentage); ok {
			fmt.Fprintf(&sb, ", up %s", growth)
		}
		sb.WriteString("! ")
	} else if growth, ok := known(f.GrowthPercentage); ok {
		fmt.Fprintf(&sb, "Growth of %s! ", growth)
	}
	if len(f.KeyHighlights) > 0 {
		fmt.Fprintf(&sb, "Highlight of the period: %s. ", f.KeyHighlights[0])
	}
	if quote, ok := known(f.CEOQuote); ok {
		fmt.Fprintf(&sb, "In the CEO's words: \"%s\" ", quote)
	}
	sb.WriteString("Follow along for the full story.")

	return ScriptVariant{
		Variant:          VariantSocial,
		Title:            titleFor(f, "Quick Take"),
		DurationEstimate: "45s",
		ToneLabel:        "celebratory",
		KeyPoints:        keyPoints(f),
		Body:             sb.String(),
	}
}
