package loader

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/wudi/pdf2html/pdf/pdftest"
)

func TestLoadValidDocument(t *testing.T) {
	src, err := Load(context.Background(), pdftest.Minimal(), Options{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	defer src.Close()
	if got := src.PageCount(); got != 1 {
		t.Errorf("PageCount = %d, want 1", got)
	}
}

func TestLoadEmptyInput(t *testing.T) {
	_, err := Load(context.Background(), nil, Options{})
	if !errors.Is(err, ErrEmptyInput) {
		t.Fatalf("Load(nil) = %v, want ErrEmptyInput", err)
	}
	var le *LoadError
	if !errors.As(err, &le) {
		t.Fatalf("error type = %T, want *LoadError", err)
	}
	if le.Primary != nil || le.Retry != nil {
		t.Error("empty input should be rejected before any parse attempt")
	}
}

func TestLoadInvalidHeader(t *testing.T) {
	_, err := Load(context.Background(), []byte("GIF89a not a pdf"), Options{})
	if !errors.Is(err, ErrInvalidFile) {
		t.Fatalf("Load = %v, want ErrInvalidFile", err)
	}
}

func TestLoadRetriesWithRepair(t *testing.T) {
	damaged := pdftest.BreakXRef(pdftest.Minimal())
	src, err := Load(context.Background(), damaged, Options{})
	if err != nil {
		t.Fatalf("Load after damage: %v", err)
	}
	defer src.Close()
	if got := src.PageCount(); got != 1 {
		t.Errorf("PageCount = %d, want 1", got)
	}
}

func TestLoadBothTiersFailSurfacesOneError(t *testing.T) {
	// valid header, no parseable object structure behind it
	data := append([]byte("%PDF-1.7\n"), bytes.Repeat([]byte("\x01\x02\x03"), 64)...)
	_, err := Load(context.Background(), data, Options{})
	if err == nil {
		t.Fatal("Load succeeded on unparseable bytes")
	}
	if !errors.Is(err, ErrUnreadable) {
		t.Fatalf("Load = %v, want ErrUnreadable", err)
	}
	var le *LoadError
	if !errors.As(err, &le) {
		t.Fatalf("error type = %T, want *LoadError", err)
	}
	if le.Primary == nil || le.Retry == nil {
		t.Errorf("LoadError should record both tier failures: %+v", le)
	}
}

func TestLoadDoesNotConsumeCallerBuffer(t *testing.T) {
	original := pdftest.BreakXRef(pdftest.Minimal())
	snapshot := bytes.Clone(original)
	src, err := Load(context.Background(), original, Options{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	defer src.Close()
	if !bytes.Equal(original, snapshot) {
		t.Error("caller buffer was mutated during load")
	}
}

func TestLoadHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Load(ctx, pdftest.Minimal(), Options{}); err == nil {
		t.Error("Load succeeded with canceled context")
	}
}
