package facts

import (
	"encoding/json"
	"fmt"
	"strings"
)

// parseFacts extracts a FinancialFacts object from an LLM response. Models
// routinely wrap JSON in markdown code fences or prepend conversational
// filler, so the parser:
//  1. Strips markdown code fences if present (```json ... ```)
//  2. Finds the first { and last } to extract the JSON object
//  3. Attempts json.Unmarshal on the extracted substring
func parseFacts(resp string) (FinancialFacts, error) {
	s := strings.TrimSpace(resp)

	// Strip markdown code fences.
	if idx := strings.Index(s, "```"); idx != -1 {
		s = s[idx+3:]
		if strings.HasPrefix(s, "json") {
			s = s[4:]
		}
		if end := strings.Index(s, "```"); end != -1 {
			s = s[:end]
		}
	}

	// Extract JSON object by brace position.
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start == -1 || end <= start {
		return FinancialFacts{}, fmt.Errorf("no JSON object in response")
	}

	var f FinancialFacts
	if err := json.Unmarshal([]byte(s[start:end+1]), &f); err != nil {
		return FinancialFacts{}, fmt.Errorf("unmarshal facts: %w", err)
	}
	return f, nil
}
