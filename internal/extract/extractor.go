// Package extract turns stored document payloads into usable text through a
// cascade of fallback tiers. It never fails outright: when every real tier
// is exhausted a synthetic placeholder keeps the downstream stages fed.
package extract

import (
	"context"
	"log/slog"

	"github.com/reportreel/reportreel/internal/heuristics"
	"github.com/reportreel/reportreel/internal/storage"
)

// Provenance names the tier that produced an extraction result.
type Provenance string

const (
	ProvenancePrimary   Provenance = "primary"
	ProvenanceAlternate Provenance = "alternate-store"
	ProvenanceHeuristic Provenance = "heuristic-scan"
	ProvenanceSynthetic Provenance = "synthetic"
)

// Quality gate thresholds: a tier's output is accepted when it scores at
// least minQualityScore, unless it is both flagged and very short. Text
// below minUsableLength after all real tiers triggers the synthetic tier.
const (
	minQualityScore = 3
	minUsableLength = 200
)

// Extraction is the immutable outcome of one extraction pass. A re-extraction
// produces a new value; instances are never patched in place.
type Extraction struct {
	Text          string     `json:"text"`
	Length        int        `json:"length"`
	Provenance    Provenance `json:"provenance"`
	QualityScore  int        `json:"quality_score"`
	QualityIssues []string   `json:"quality_issues"`
}

// BlobGetter is the storage collaborator: fetch bytes by bucket and key,
// storage.ErrNotFound when the object is absent.
type BlobGetter interface {
	Get(bucket, key string) ([]byte, error)
}

// Extractor runs the tiered extraction cascade over a stored document.
type Extractor struct {
	blobs   BlobGetter
	lexicon heuristics.Lexicon
	logger  *slog.Logger
}

// NewExtractor creates an Extractor reading from blobs and scoring with the
// given lexicon.
func NewExtractor(blobs BlobGetter, lexicon heuristics.Lexicon) *Extractor {
	return &Extractor{
		blobs:   blobs,
		lexicon: lexicon,
		logger:  slog.Default(),
	}
}

// tier is one fallback attempt: a provenance tag plus the function that
// produces candidate text. Attempt errors advance the cascade, they are
// never returned to the caller.
type tier struct {
	provenance Provenance
	attempt    func() (string, error)
}

// Extract walks the tiers in order and returns the first result that passes
// the quality gate. If no tier passes, the best-scoring candidate is kept;
// if even that is shorter than minUsableLength the synthetic placeholder is
// substituted. The returned Extraction always has non-empty text and a valid
// provenance tag. ctx is only consulted between tiers — in-flight storage
// reads are not interrupted.
func (e *Extractor) Extract(ctx context.Context, storageKey, contentType string) Extraction {
	var rawBytes []byte // bytes from whichever bucket answered, for the heuristic tier

	tiers := []tier{
		{ProvenancePrimary, func() (string, error) {
			data, err := e.blobs.Get(storage.BucketUploads, storageKey)
			if err != nil {
				return "", err
			}
			rawBytes = data
			return decodeDocument(data, contentType)
		}},
		{ProvenanceAlternate, func() (string, error) {
			data, err := e.blobs.Get(storage.BucketArchive, storageKey)
			if err != nil {
				return "", err
			}
			rawBytes = data
			return decodeDocument(data, contentType)
		}},
		{ProvenanceHeuristic, func() (string, error) {
			return heuristics.ExtractReadableRuns(rawBytes), nil
		}},
	}

	var best Extraction
	for _, t := range tiers {
		if ctx.Err() != nil {
			break
		}

		text, err := t.attempt()
		if err != nil {
			e.logger.Warn("extraction tier failed, advancing",
				"tier", string(t.provenance), "key", storageKey, "error", err)
			continue
		}

		candidate := e.grade(text, t.provenance)
		if passesGate(candidate) {
			return candidate
		}
		e.logger.Debug("extraction tier below quality gate",
			"tier", string(t.provenance), "score", candidate.QualityScore, "length", candidate.Length)
		if candidate.QualityScore > best.QualityScore || best.Provenance == "" {
			best = candidate
		}
	}

	if best.Provenance != "" && best.Length >= minUsableLength {
		// Insufficient quality but real content: proceed with the best text
		// obtained and let callers surface the issues as a warning.
		return best
	}

	e.logger.Info("all extraction tiers exhausted, substituting placeholder", "key", storageKey)
	return e.grade(syntheticPlaceholder, ProvenanceSynthetic)
}

// grade scores text and assembles the immutable result. The score depends on
// the text alone, never on which tier produced it.
func (e *Extractor) grade(text string, p Provenance) Extraction {
	report := heuristics.ScoreQuality(text, e.lexicon)
	return Extraction{
		Text:          text,
		Length:        len(text),
		Provenance:    p,
		QualityScore:  report.Score,
		QualityIssues: report.Issues,
	}
}

func passesGate(ex Extraction) bool {
	if ex.QualityScore < minQualityScore {
		return false
	}
	if len(ex.QualityIssues) > 0 && ex.Length < minUsableLength {
		return false
	}
	return true
}
