package pdf

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestReadObjectScalars(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Object
	}{
		{"integer", "42", Number(42)},
		{"negative", "-17", Number(-17)},
		{"real", "3.25", Number(3.25)},
		{"leading dot", ".5", Number(0.5)},
		{"name", "/Type", Name("Type")},
		{"name with hex escape", "/A#20B", Name("A B")},
		{"true", "true", Bool(true)},
		{"false", "false", Bool(false)},
		{"null", "null", Null{}},
		{"keyword", "obj", Keyword("obj")},
		{"reference", "12 0 R", Ref{Num: 12, Gen: 0}},
		{"literal string", "(hello)", String("hello")},
		{"nested parens", "(a(b)c)", String("a(b)c")},
		{"escapes", `(line\nbreak\(paren\))`, String("line\nbreak(paren)")},
		{"octal escape", `(\101\102)`, String("AB")},
		{"hex string", "<48656C6C6F>", String("Hello")},
		{"odd hex string", "<48656C6C6F7>", String("Hello\x70")},
		{"comment skipped", "% noise\n7", Number(7)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewLexer([]byte(tt.input)).ReadObject()
			if err != nil {
				t.Fatalf("ReadObject(%q): %v", tt.input, err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ReadObject(%q) mismatch (-want +got):\n%s", tt.input, diff)
			}
		})
	}
}

func TestReadObjectCompound(t *testing.T) {
	lex := NewLexer([]byte("<< /Type /Page /Kids [1 0 R 2 0 R] /Count 2 >>"))
	obj, err := lex.ReadObject()
	if err != nil {
		t.Fatalf("ReadObject: %v", err)
	}
	dict, ok := obj.(Dict)
	if !ok {
		t.Fatalf("got %T, want Dict", obj)
	}
	if typ, _ := dict.name("Type"); typ != "Page" {
		t.Errorf("Type = %q, want Page", typ)
	}
	kids, ok := dict["Kids"].(Array)
	if !ok || len(kids) != 2 {
		t.Fatalf("Kids = %#v, want two refs", dict["Kids"])
	}
	if kids[0] != (Ref{Num: 1}) || kids[1] != (Ref{Num: 2}) {
		t.Errorf("Kids = %#v", kids)
	}
}

// Two bare numbers must not be swallowed as the start of a reference.
func TestNumberNotMistakenForRef(t *testing.T) {
	lex := NewLexer([]byte("100 200 300"))
	for i, want := range []Number{100, 200, 300} {
		obj, err := lex.ReadObject()
		if err != nil {
			t.Fatalf("object %d: %v", i, err)
		}
		if obj != want {
			t.Errorf("object %d = %v, want %v", i, obj, want)
		}
	}
}

func TestRefNeedsDelimitedR(t *testing.T) {
	// "12 0 Rx" is a number followed by a keyword, not a reference
	lex := NewLexer([]byte("12 0 Rx"))
	obj, err := lex.ReadObject()
	if err != nil {
		t.Fatalf("ReadObject: %v", err)
	}
	if obj != Number(12) {
		t.Errorf("got %#v, want Number(12)", obj)
	}
}
