package observability

import (
	"context"
	"errors"
	"testing"
)

func TestFieldConstructors(t *testing.T) {
	if f := String("step", "load"); f.Key() != "step" || f.Value() != "load" {
		t.Fatalf("String field = %q/%v", f.Key(), f.Value())
	}
	if f := Int("pages", 3); f.Value() != 3 {
		t.Fatalf("Int field = %v", f.Value())
	}
	if f := Int64("bytes", 1024); f.Value() != int64(1024) {
		t.Fatalf("Int64 field = %v", f.Value())
	}
	if f := Float("scale", 1.5); f.Value() != 1.5 {
		t.Fatalf("Float field = %v", f.Value())
	}
	err := errors.New("boom")
	if f := Error("err", err); f.Value() != err {
		t.Fatalf("Error field = %v", f.Value())
	}
}

func TestNopLoggerIsSafe(t *testing.T) {
	var l Logger = NopLogger{}
	l.Info("msg", String("k", "v"))
	l.With(Int("n", 1)).Error("msg")
}

func TestNopTracerPropagatesContext(t *testing.T) {
	ctx := context.Background()
	got, span := NopTracer().StartSpan(ctx, "convert")
	if got != ctx {
		t.Fatal("context not propagated")
	}
	span.SetTag("pages", 2)
	span.SetError(errors.New("x"))
	span.Finish()
}
