// Package narrative turns structured financial facts into short video
// scripts in three fixed tones. The model path asks for all three in one
// call; a template path guarantees output when the model cannot deliver.
package narrative

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/reportreel/reportreel/internal/facts"
	"github.com/reportreel/reportreel/internal/llm"
)

// Variant tags one of the three fixed script tones.
type Variant string

const (
	VariantExecutive Variant = "executive"
	VariantInvestor  Variant = "investor"
	VariantSocial    Variant = "social"
)

// AllVariants lists the tones in presentation order. Every successful
// generation returns exactly these, in this order.
var AllVariants = []Variant{VariantExecutive, VariantInvestor, VariantSocial}

// ScriptVariant is one generated script. A regeneration replaces the full
// set of three, never a single variant.
type ScriptVariant struct {
	Variant          Variant  `json:"variant"`
	Title            string   `json:"title"`
	DurationEstimate string   `json:"duration_estimate"`
	ToneLabel        string   `json:"tone_label"`
	KeyPoints        []string `json:"key_points"`
	Body             string   `json:"body"`
}

// Source names which path produced a script set.
type Source string

const (
	SourceModel    Source = "model"
	SourceTemplate Source = "template"
)

const systemPrompt = `You are a scriptwriter for short report-summary videos. You are given structured financial facts.
Write three script variants and respond with ONLY a JSON array of three objects, one per variant, with keys:
  variant ("executive", "investor" or "social"), title, duration_estimate (e.g. "60s"),
  tone_label, key_points (array of short strings), body.
The executive variant is authoritative, the investor variant analytical, the social variant celebratory.
Never mention facts whose value is "unknown".`

// Generator produces the three-variant script set for a document.
type Generator struct {
	chatter llm.Chatter
	logger  *slog.Logger
}

func NewGenerator(chatter llm.Chatter) *Generator {
	return &Generator{chatter: chatter, logger: slog.Default()}
}

// Generate returns exactly three scripts tagged executive, investor and
// social, in that order. The model is asked first; if the call fails or the
// answer does not validate, the template path takes over. Generation itself
// never fails — the pipeline must not halt for lack of narrative.
func (g *Generator) Generate(ctx context.Context, f facts.FinancialFacts) ([]ScriptVariant, Source) {
	resp, err := g.chatter.Complete(ctx, systemPrompt, buildFactsPrompt(f))
	if err != nil {
		g.logger.Warn("narrative model call failed, using templates", "error", err)
		return templateScripts(f), SourceTemplate
	}

	scripts, err := parseScripts(resp)
	if err != nil {
		g.logger.Warn("narrative answer unparseable, using templates", "error", err)
		return templateScripts(f), SourceTemplate
	}
	return scripts, SourceModel
}

func buildFactsPrompt(f facts.FinancialFacts) string {
	b, _ := json.Marshal(f)
	return "Financial facts:\n" + string(b) + "\nWrite the three scripts as a JSON array."
}

// parseScripts extracts and validates the model's script array. Validation
// is all-or-nothing: each of the three variant tags must appear exactly once
// with a non-empty body, otherwise the whole answer is rejected.
func parseScripts(resp string) ([]ScriptVariant, error) {
	s := strings.TrimSpace(resp)

	if idx := strings.Index(s, "```"); idx != -1 {
		s = s[idx+3:]
		if strings.HasPrefix(s, "json") {
			s = s[4:]
		}
		if end := strings.Index(s, "```"); end != -1 {
			s = s[:end]
		}
	}

	start := strings.Index(s, "[")
	end := strings.LastIndex(s, "]")
	if start == -1 || end <= start {
		return nil, fmt.Errorf("no JSON array in response")
	}

	var raw []ScriptVariant
	if err := json.Unmarshal([]byte(s[start:end+1]), &raw); err != nil {
		return nil, fmt.Errorf("unmarshal scripts: %w", err)
	}

	byVariant := make(map[Variant]ScriptVariant, len(raw))
	for _, sv := range raw {
		if _, dup := byVariant[sv.Variant]; dup {
			return nil, fmt.Errorf("duplicate variant %q", sv.Variant)
		}
		byVariant[sv.Variant] = sv
	}

	ordered := make([]ScriptVariant, 0, len(AllVariants))
	for _, v := range AllVariants {
		sv, ok := byVariant[v]
		if !ok || sv.Body == "" {
			return nil, fmt.Errorf("variant %q missing or empty", v)
		}
		if sv.KeyPoints == nil {
			sv.KeyPoints = []string{}
		}
		ordered = append(ordered, sv)
	}
	return ordered, nil
}
