package facts

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/reportreel/reportreel/internal/llm"
)

// maxDocumentChars caps how much document text goes into the prompt. Reports
// front-load the numbers, so truncation rarely costs facts.
const maxDocumentChars = 12000

const systemPrompt = `You are a financial analyst. Extract structured facts from the report text you are given.
Respond with ONLY a JSON object with these keys:
  company_name, period, revenue, ebitda, growth_percentage, ceo_quote, forward_guidance (strings),
  key_highlights, concerns (arrays of short strings).
Use the string "unknown" for any value the text does not state. Do not invent figures.`

// Extractor derives FinancialFacts from document text, model first with a
// regex fallback for unparseable answers.
type Extractor struct {
	chatter llm.Chatter
	logger  *slog.Logger
}

func NewExtractor(chatter llm.Chatter) *Extractor {
	return &Extractor{chatter: chatter, logger: slog.Default()}
}

// Extract asks the model for structured facts and falls back to the regex
// scanner when the answer cannot be parsed as JSON. A failed model call is a
// real error: the caller decides whether the stage fails or is retried.
// Every returned FinancialFacts is fully backfilled.
func (e *Extractor) Extract(ctx context.Context, text string) (FinancialFacts, Source, error) {
	if len(text) > maxDocumentChars {
		text = text[:maxDocumentChars]
	}

	resp, err := e.chatter.Complete(ctx, systemPrompt, buildUserPrompt(text))
	if err != nil {
		return FinancialFacts{}, "", fmt.Errorf("fact extraction model call: %w", err)
	}

	f, parseErr := parseFacts(resp)
	if parseErr != nil {
		e.logger.Warn("model answer unparseable, using regex fallback", "error", parseErr)
		f = fallbackFacts(ctx, text)
		backfill(&f)
		return f, SourceFallback, nil
	}

	backfill(&f)
	e.logger.Debug("facts extracted", "known_fields", f.KnownCount())
	return f, SourceModel, nil
}

func buildUserPrompt(text string) string {
	var sb strings.Builder
	sb.WriteString("Report text:\n---\n")
	sb.WriteString(text)
	sb.WriteString("\n---\nExtract the facts as JSON.")
	return sb.String()
}
