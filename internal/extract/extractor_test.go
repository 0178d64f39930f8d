package extract

import (
	"context"
	"strings"
	"testing"

	"github.com/reportreel/reportreel/internal/heuristics"
	"github.com/reportreel/reportreel/internal/storage"
)

// mockBlobs serves canned payloads per bucket.
type mockBlobs struct {
	uploads map[string][]byte
	archive map[string][]byte
	err     error // returned for every Get when set
}

func (m *mockBlobs) Get(bucket, key string) ([]byte, error) {
	if m.err != nil {
		return nil, m.err
	}
	var b map[string][]byte
	switch bucket {
	case storage.BucketUploads:
		b = m.uploads
	case storage.BucketArchive:
		b = m.archive
	}
	if data, ok := b[key]; ok {
		return data, nil
	}
	return nil, storage.ErrNotFound
}

func reportText() string {
	para := "Delårsrapport för tredje kvartalet. Omsättningen ökade till 142 MSEK, en tillväxt om 12 procent. " +
		"EBITDA uppgick till 28 MSEK och kassaflödet var fortsatt starkt under perioden. "
	return strings.Repeat(para, 6)
}

func newTestExtractor(blobs BlobGetter) *Extractor {
	return NewExtractor(blobs, heuristics.DefaultLexicon())
}

func TestExtract_PrimaryTier(t *testing.T) {
	blobs := &mockBlobs{uploads: map[string][]byte{"doc.txt": []byte(reportText())}}
	ex := newTestExtractor(blobs).Extract(context.Background(), "doc.txt", "text/plain")

	if ex.Provenance != ProvenancePrimary {
		t.Errorf("Provenance = %q, want primary", ex.Provenance)
	}
	if ex.Text == "" || ex.Length != len(ex.Text) {
		t.Errorf("inconsistent text/length: %d vs %d", ex.Length, len(ex.Text))
	}
	if ex.QualityScore < minQualityScore {
		t.Errorf("QualityScore = %d, want >= %d", ex.QualityScore, minQualityScore)
	}
}

func TestExtract_FallsBackToArchive(t *testing.T) {
	blobs := &mockBlobs{
		uploads: map[string][]byte{},
		archive: map[string][]byte{"doc.txt": []byte(reportText())},
	}
	ex := newTestExtractor(blobs).Extract(context.Background(), "doc.txt", "text/plain")

	if ex.Provenance != ProvenanceAlternate {
		t.Errorf("Provenance = %q, want alternate-store", ex.Provenance)
	}
}

func TestExtract_HeuristicScanOverRawBytes(t *testing.T) {
	// Claims to be a PDF but isn't: the structured decode fails in both
	// buckets, leaving the byte scanner to salvage the readable runs.
	payload := append([]byte{0x01, 0x02, 0x03}, []byte(reportText())...)
	blobs := &mockBlobs{uploads: map[string][]byte{"doc.pdf": payload}}
	ex := newTestExtractor(blobs).Extract(context.Background(), "doc.pdf", "application/pdf")

	if ex.Provenance != ProvenanceHeuristic {
		t.Errorf("Provenance = %q, want heuristic-scan", ex.Provenance)
	}
	if !strings.Contains(ex.Text, "MSEK") {
		t.Errorf("scanner lost report content: %q", truncate(ex.Text, 120))
	}
}

func TestExtract_SyntheticWhenEverythingFails(t *testing.T) {
	// Blank line plus junk bytes: decode yields nothing, scanner yields
	// nothing, so the placeholder steps in.
	blobs := &mockBlobs{uploads: map[string][]byte{"doc.txt": {0x0A, 0x01, 0x02, 0x03, 0x04, 0x05}}}
	ex := newTestExtractor(blobs).Extract(context.Background(), "doc.txt", "text/plain")

	if ex.Provenance != ProvenanceSynthetic {
		t.Errorf("Provenance = %q, want synthetic", ex.Provenance)
	}
	if ex.Text == "" {
		t.Error("synthetic tier returned empty text")
	}
	if !strings.Contains(ex.Text, "PLACEHOLDER") {
		t.Error("placeholder text is not labeled as such")
	}
}

func TestExtract_NeverEmptyEvenWhenStorageUnreachable(t *testing.T) {
	blobs := &mockBlobs{err: context.DeadlineExceeded}
	ex := newTestExtractor(blobs).Extract(context.Background(), "doc.txt", "text/plain")

	if ex.Text == "" {
		t.Fatal("Extract returned empty text")
	}
	if ex.Provenance != ProvenanceSynthetic {
		t.Errorf("Provenance = %q, want synthetic", ex.Provenance)
	}
}

func TestExtract_KeepsBestLowQualityTextOverPlaceholder(t *testing.T) {
	// Real prose without digits or financial vocabulary scores below the
	// gate but is long enough to be worth keeping; issues flag the caveat.
	prose := strings.Repeat("The committee met and discussed the agenda at some length. ", 6)
	blobs := &mockBlobs{uploads: map[string][]byte{"doc.txt": []byte(prose)}}
	ex := newTestExtractor(blobs).Extract(context.Background(), "doc.txt", "text/plain")

	if ex.Provenance != ProvenancePrimary {
		t.Errorf("Provenance = %q, want primary (best real text kept)", ex.Provenance)
	}
	if len(ex.QualityIssues) == 0 {
		t.Error("QualityIssues empty, want warnings for low-quality text")
	}
}

func TestExtract_QualityIndependentOfProvenance(t *testing.T) {
	text := reportText()
	fromPrimary := newTestExtractor(&mockBlobs{uploads: map[string][]byte{"a": []byte(text)}}).
		Extract(context.Background(), "a", "text/plain")
	fromArchive := newTestExtractor(&mockBlobs{archive: map[string][]byte{"a": []byte(text)}}).
		Extract(context.Background(), "a", "text/plain")

	if fromPrimary.QualityScore != fromArchive.QualityScore {
		t.Errorf("same text scored differently by tier: %d vs %d",
			fromPrimary.QualityScore, fromArchive.QualityScore)
	}
}

func TestExtract_CancelledContextStopsBeforeTiers(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	blobs := &mockBlobs{uploads: map[string][]byte{"doc.txt": []byte(reportText())}}
	ex := newTestExtractor(blobs).Extract(ctx, "doc.txt", "text/plain")

	// No tier ran; the result must still be a valid synthetic extraction.
	if ex.Provenance != ProvenanceSynthetic || ex.Text == "" {
		t.Errorf("cancelled extract = %q provenance, want synthetic with text", ex.Provenance)
	}
}

func TestCleanText_StripsControls(t *testing.T) {
	got := cleanText("Rev\x00enue\x01  142\n\nMSEK\t ")
	want := "Revenue 142 MSEK"
	if got != want {
		t.Errorf("cleanText = %q, want %q", got, want)
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
