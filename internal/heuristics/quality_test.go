package heuristics

import (
	"strings"
	"testing"
)

// financialText builds a realistic report paragraph long enough to clear the
// length and word-count thresholds.
func financialText() string {
	para := "Under det tredje kvartalet ökade omsättningen till 142 MSEK, en tillväxt om 12 procent jämfört med föregående år. " +
		"EBITDA uppgick till 28 MSEK och rörelsemarginalen stärktes. Styrelsen ser fortsatt god efterfrågan under resten av året. "
	return strings.Repeat(para, 5)
}

func TestScoreQuality_GoodReport(t *testing.T) {
	report := ScoreQuality(financialText(), DefaultLexicon())

	// length>500 (+2), length>1000 (+1), words>50 (+2), digits (+2),
	// keywords (+3), extended latin (+1) = 11, no penalties.
	if report.Score != 11 {
		t.Errorf("Score = %d, want 11", report.Score)
	}
	if len(report.Issues) != 0 {
		t.Errorf("Issues = %v, want none", report.Issues)
	}
}

func TestScoreQuality_Deterministic(t *testing.T) {
	text := financialText()
	first := ScoreQuality(text, DefaultLexicon())
	for range 5 {
		again := ScoreQuality(text, DefaultLexicon())
		if again.Score != first.Score {
			t.Fatalf("Score changed between runs: %d then %d", first.Score, again.Score)
		}
		if len(again.Issues) != len(first.Issues) {
			t.Fatalf("Issues changed between runs: %v then %v", first.Issues, again.Issues)
		}
	}
}

func TestScoreQuality_BlankLinePlusNoise(t *testing.T) {
	// The spec scenario: a single blank line and a few junk bytes must score
	// at or below 1 with a non-empty issue list.
	report := ScoreQuality("\n\x01\x02!!#", DefaultLexicon())
	if report.Score > 1 {
		t.Errorf("Score = %d, want <= 1", report.Score)
	}
	if len(report.Issues) == 0 {
		t.Error("Issues is empty, want diagnostics for junk input")
	}
}

func TestScoreQuality_NeverNegative(t *testing.T) {
	inputs := []string{
		"",
		"!!!???###",
		strings.Repeat("0123456789 ", 100),
		"\x00\x01\x02",
	}
	for _, in := range inputs {
		if report := ScoreQuality(in, DefaultLexicon()); report.Score < 0 {
			t.Errorf("ScoreQuality(%q).Score = %d, want >= 0", in, report.Score)
		}
	}
}

func TestScoreQuality_IssuesMatchScoreBand(t *testing.T) {
	// Each missing bonus must surface as exactly one diagnostic; a clean
	// report has none. This keeps issues and score in lock-step.
	cases := []struct {
		name      string
		text      string
		wantIssue string
	}{
		{"short", "Revenue 100 MSEK", "text too short"},
		{"no digits", strings.Repeat("revenue growth quarter strong demand across all segments ", 30), "no digits found"},
		{"no keywords", strings.Repeat("the weather in the mountains was pleasant on day 3 of the trip ", 30), "no financial keywords found"},
	}
	for _, tc := range cases {
		report := ScoreQuality(tc.text, DefaultLexicon())
		found := false
		for _, issue := range report.Issues {
			if issue == tc.wantIssue {
				found = true
			}
		}
		if !found {
			t.Errorf("%s: issues %v missing %q", tc.name, report.Issues, tc.wantIssue)
		}
	}
}

func TestScoreQuality_AlphaRatioPenaltiesCumulative(t *testing.T) {
	// Mostly symbols: both penalties apply and both diagnostics appear.
	junk := strings.Repeat("=#%&/()1 ", 200)
	report := ScoreQuality(junk, DefaultLexicon())

	var high, mostly bool
	for _, issue := range report.Issues {
		switch issue {
		case "high proportion of non-alphabetic characters":
			high = true
		case "mostly non-alphabetic content":
			mostly = true
		}
	}
	if !high || !mostly {
		t.Errorf("issues %v, want both alpha-ratio diagnostics", report.Issues)
	}
	// length>500 (+2), length>1000 (+1), words>50 (+2), digits (+2) = 7,
	// minus 2 minus 4 = 1.
	if report.Score != 1 {
		t.Errorf("Score = %d, want 1", report.Score)
	}
}

func TestScoreQuality_CustomLexicon(t *testing.T) {
	text := strings.Repeat("umsatz und ergebnis stiegen im quartal 3 deutlich an ", 30)
	def := ScoreQuality(text, Lexicon{Keywords: []string{"zzzz"}})
	custom := ScoreQuality(text, Lexicon{Keywords: []string{"umsatz"}})
	if custom.Score != def.Score+3 {
		t.Errorf("custom lexicon score = %d, default-miss score = %d, want +3 delta", custom.Score, def.Score)
	}
}
