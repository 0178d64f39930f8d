package heuristics

import (
	"math/rand"
	"strings"
	"testing"
)

func TestExtractReadableRuns_Words(t *testing.T) {
	data := []byte("Revenue: 142 MSEK (Q3) -- up 12%")
	got := ExtractReadableRuns(data)
	// "142" survives (3 bytes); "Q3", "up" and "12" are dropped as noise.
	want := "Revenue 142 MSEK"
	if got != want {
		t.Errorf("ExtractReadableRuns = %q, want %q", got, want)
	}
}

func TestExtractReadableRuns_DropsShortRuns(t *testing.T) {
	got := ExtractReadableRuns([]byte("a bb ccc dddd"))
	want := "ccc dddd"
	if got != want {
		t.Errorf("ExtractReadableRuns = %q, want %q", got, want)
	}
}

func TestExtractReadableRuns_FlushesTrailingWord(t *testing.T) {
	got := ExtractReadableRuns([]byte("omsättning"))
	if got == "" {
		t.Error("trailing word was not flushed")
	}
}

func TestExtractReadableRuns_BinaryGarbage(t *testing.T) {
	data := []byte{0x00, 0x01, 'P', 'D', 'F', 0x7F, 0x02, 'o', 'b', 'j', 0x03}
	got := ExtractReadableRuns(data)
	want := "PDF obj"
	if got != want {
		t.Errorf("ExtractReadableRuns = %q, want %q", got, want)
	}
}

func TestExtractReadableRuns_NoControlBytesEver(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for range 100 {
		data := make([]byte, rng.Intn(512))
		rng.Read(data)
		got := ExtractReadableRuns(data)
		for i := 0; i < len(got); i++ {
			b := got[i]
			if b < 0x20 || b == 0x7F {
				t.Fatalf("output contains control byte 0x%02X at %d for input len %d", b, i, len(data))
			}
		}
	}
}

func TestExtractReadableRuns_Deterministic(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	data := make([]byte, 4096)
	rng.Read(data)

	first := ExtractReadableRuns(data)
	for range 10 {
		if again := ExtractReadableRuns(data); again != first {
			t.Fatal("output differs between identical invocations")
		}
	}
}

func TestExtractReadableRuns_Empty(t *testing.T) {
	if got := ExtractReadableRuns(nil); got != "" {
		t.Errorf("ExtractReadableRuns(nil) = %q, want empty", got)
	}
}

func TestIsWordByte_Classes(t *testing.T) {
	for b := byte('a'); b <= 'z'; b++ {
		if !isWordByte(b) {
			t.Errorf("isWordByte(%q) = false, want true", b)
		}
	}
	for _, b := range []byte{' ', '\n', '\t', '.', ',', '(', ')', 0x00, 0x7F, 0xD7, 0xF7} {
		if isWordByte(b) {
			t.Errorf("isWordByte(0x%02X) = true, want false", b)
		}
	}
	// Latin-1 letters å (0xE5), Ö (0xD6).
	for _, b := range []byte{0xE5, 0xD6, 0xC0} {
		if !isWordByte(b) {
			t.Errorf("isWordByte(0x%02X) = false, want true", b)
		}
	}
}

func TestExtractReadableRuns_SeparatorsCollapse(t *testing.T) {
	got := ExtractReadableRuns([]byte("one...two---three"))
	if strings.Contains(got, "  ") {
		t.Errorf("output %q contains doubled separators", got)
	}
	if got != "one two three" {
		t.Errorf("ExtractReadableRuns = %q, want %q", got, "one two three")
	}
}
