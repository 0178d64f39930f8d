package heuristics

import "strings"

// minRunLength is the shortest byte run kept as a word; shorter runs are
// treated as decoder noise and dropped.
const minRunLength = 3

// scanState tracks whether the scanner is currently inside a word run.
type scanState int

const (
	notInWord scanState = iota
	inWord
)

// ExtractReadableRuns pulls human-readable words out of a raw byte payload.
// It walks the bytes once with an inWord/notInWord state machine: wordish
// bytes (ASCII letters/digits and extended Latin-1 letters) accumulate into
// a run, and a run is flushed as a word when a separator byte ends it and
// the run is at least minRunLength bytes long. Output is deterministic for
// identical input and never contains control bytes.
func ExtractReadableRuns(data []byte) string {
	var out strings.Builder
	var word []byte
	state := notInWord

	flush := func() {
		if len(word) >= minRunLength {
			if out.Len() > 0 {
				out.WriteByte(' ')
			}
			out.Write(word)
		}
		word = word[:0]
	}

	for _, b := range data {
		switch state {
		case notInWord:
			if isWordByte(b) {
				word = append(word, b)
				state = inWord
			}
		case inWord:
			if isWordByte(b) {
				word = append(word, b)
			} else {
				flush()
				state = notInWord
			}
		}
	}
	flush()

	return out.String()
}

// isWordByte reports whether b belongs inside a word run: ASCII letters and
// digits, plus Latin-1 extended letters (À–ÿ, excluding × and ÷).
func isWordByte(b byte) bool {
	switch {
	case b >= 'a' && b <= 'z':
		return true
	case b >= 'A' && b <= 'Z':
		return true
	case b >= '0' && b <= '9':
		return true
	case b >= 0xC0 && b != 0xD7 && b != 0xF7:
		return true
	}
	return false
}
