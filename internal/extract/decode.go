package extract

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"unicode"

	"github.com/ledongthuc/pdf"
)

// decodeDocument runs the structured-format-aware pass for a payload. PDF
// payloads go through the PDF text decoder; anything else is treated as
// plain text. Both paths strip control characters and normalise whitespace.
func decodeDocument(data []byte, contentType string) (string, error) {
	if contentType == "application/pdf" || bytes.HasPrefix(data, []byte("%PDF")) {
		return decodePDF(data)
	}
	text := cleanText(string(data))
	if text == "" {
		return "", fmt.Errorf("no text content in payload")
	}
	return text, nil
}

// decodePDF extracts the text payload from the marked content regions of a
// PDF. Malformed documents make the parser panic on occasion; that is
// converted to an ordinary error so the cascade can advance.
func decodePDF(data []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf decode panic: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("opening pdf: %w", err)
	}

	plain, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extracting pdf text: %w", err)
	}
	raw, err := io.ReadAll(plain)
	if err != nil {
		return "", fmt.Errorf("reading pdf text: %w", err)
	}

	cleaned := cleanText(string(raw))
	if cleaned == "" {
		return "", fmt.Errorf("no text content found in pdf")
	}
	return cleaned, nil
}

// cleanText drops control characters and collapses runs of whitespace into
// single spaces, preserving line breaks as spaces.
func cleanText(text string) string {
	var sb strings.Builder
	prevSpace := false
	for _, r := range text {
		switch {
		case unicode.IsSpace(r):
			if !prevSpace && sb.Len() > 0 {
				sb.WriteByte(' ')
				prevSpace = true
			}
		case unicode.IsControl(r) || r == 0xFFFD:
			// skip
		default:
			sb.WriteRune(r)
			prevSpace = false
		}
	}
	return strings.TrimSpace(sb.String())
}
