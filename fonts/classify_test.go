package fonts

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestClassifyKnownFamilies(t *testing.T) {
	cases := []struct {
		fontID string
		want   Style
	}{
		{"Arial-BoldMT", Style{Family: "Arial, sans-serif", Bold: true}},
		{"TimesNewRomanPS-ItalicMT", Style{Family: "'Times New Roman', Times, serif", Italic: true}},
		{"Helvetica-BoldOblique", Style{Family: "Helvetica, Arial, sans-serif", Bold: true}},
		{"Courier", Style{Family: "'Courier New', Courier, monospace"}},
		{"SymbolMT", Style{Family: "Symbol, serif"}},
		{"Verdana-Bold", Style{Family: "Verdana, Geneva, sans-serif", Bold: true}},
		{"Georgia-Italic", Style{Family: "Georgia, serif", Italic: true}},
		{"PalatinoLinotype-Roman", Style{Family: "'Palatino Linotype', Palatino, serif"}},
		{"TrebuchetMS", Style{Family: "'Trebuchet MS', sans-serif"}},
		{"ComicSansMS-BoldItalic", Style{Family: "'Comic Sans MS', cursive", Bold: true, Italic: true}},
		// Subset-prefixed identifiers still match by substring.
		{"ABCDEF+Arial-ItalicMT", Style{Family: "Arial, sans-serif", Italic: true}},
	}
	for _, tc := range cases {
		if diff := cmp.Diff(tc.want, Classify(tc.fontID)); diff != "" {
			t.Errorf("Classify(%q) mismatch (-want +got):\n%s", tc.fontID, diff)
		}
	}
}

func TestClassifyUnknownAndEmpty(t *testing.T) {
	want := Style{Family: DefaultFamily}
	if got := Classify(""); got != want {
		t.Fatalf("Classify(\"\") = %+v, want %+v", got, want)
	}
	if got := Classify("F1"); got != want {
		t.Fatalf("Classify(\"F1\") = %+v, want %+v", got, want)
	}
}

func TestClassifyOrderResolvesAmbiguity(t *testing.T) {
	// "Arial" precedes "Helvetica" in the table, so an identifier
	// containing both resolves to Arial on every call.
	got := Classify("Arial-Helvetica-Hybrid")
	if got.Family != "Arial, sans-serif" {
		t.Fatalf("ambiguous identifier resolved to %q", got.Family)
	}
}

func TestClassifyIsDeterministic(t *testing.T) {
	first := Classify("Arial-BoldMT")
	for i := 0; i < 100; i++ {
		if got := Classify("Arial-BoldMT"); got != first {
			t.Fatalf("call %d returned %+v, first call %+v", i, got, first)
		}
	}
}

func TestClassifyCaseInsensitive(t *testing.T) {
	got := Classify("ARIAL-BOLDITALIC")
	if !got.Bold || !got.Italic || got.Family != "Arial, sans-serif" {
		t.Fatalf("Classify uppercase = %+v", got)
	}
}
