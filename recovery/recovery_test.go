package recovery

import (
	"errors"
	"strings"
	"testing"
)

func TestStrictAlwaysFails(t *testing.T) {
	s := NewStrictStrategy()
	if got := s.OnError(errors.New("boom"), Location{}); got != ActionFail {
		t.Fatalf("strict action = %v, want ActionFail", got)
	}
}

func TestLenientAccumulates(t *testing.T) {
	s := NewLenientStrategy()
	if got := s.OnError(errors.New("bad dict"), Location{Component: "Lexer", ByteOffset: 42}); got != ActionWarn {
		t.Fatalf("lenient action = %v, want ActionWarn", got)
	}
	s.OnError(errors.New("bad xref"), Location{Component: "XRef"})
	if len(s.Errors) != 2 {
		t.Fatalf("recorded %d errors, want 2", len(s.Errors))
	}
	if !strings.Contains(s.Errors[0].Error(), "Lexer") {
		t.Fatalf("error missing component: %v", s.Errors[0])
	}
}
