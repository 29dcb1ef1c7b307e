// Package fonts maps opaque PDF font identifiers onto CSS-compatible
// font attributes using substring heuristics.
package fonts

import "strings"

// Style is the CSS-facing interpretation of a font identifier.
type Style struct {
	Family string
	Bold   bool
	Italic bool
}

// DefaultFamily is used when an identifier matches no known family.
const DefaultFamily = "Arial, sans-serif"

type familyEntry struct {
	substr string
	stack  string
}

// familyTable is consulted in order; the first matching substring wins.
// Order is significant: it resolves ambiguous identifiers the same way
// on every call.
var familyTable = []familyEntry{
	{"arial", "Arial, sans-serif"},
	{"times", "'Times New Roman', Times, serif"},
	{"helvetica", "Helvetica, Arial, sans-serif"},
	{"courier", "'Courier New', Courier, monospace"},
	{"symbol", "Symbol, serif"},
	{"verdana", "Verdana, Geneva, sans-serif"},
	{"georgia", "Georgia, serif"},
	{"palatino", "'Palatino Linotype', Palatino, serif"},
	{"trebuchet", "'Trebuchet MS', sans-serif"},
	{"comic", "'Comic Sans MS', cursive"},
}

// Classify resolves a raw font identifier, e.g. "Arial-BoldMT" or
// "ABCDEF+TimesNewRomanPS-ItalicMT", into a Style. It is a pure, total
// function: an empty or unrecognized identifier yields the default
// sans-serif family with both flags off.
func Classify(fontID string) Style {
	if fontID == "" {
		return Style{Family: DefaultFamily}
	}
	lower := strings.ToLower(fontID)
	s := Style{
		Family: DefaultFamily,
		Bold:   strings.Contains(lower, "bold"),
		Italic: strings.Contains(lower, "italic"),
	}
	for _, e := range familyTable {
		if strings.Contains(lower, e.substr) {
			s.Family = e.stack
			break
		}
	}
	return s
}
