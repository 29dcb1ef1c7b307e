package convert

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/wudi/pdf2html/layout"
	"github.com/wudi/pdf2html/loader"
	"github.com/wudi/pdf2html/pdf/pdftest"
)

func threePageDoc() []byte {
	b := &pdftest.Builder{Pages: []pdftest.Page{
		{
			Content: "BT /F1 14 Tf 72 700 Td (First page) Tj ET",
			Fonts:   map[string]string{"F1": "Helvetica-Bold"},
		},
		{
			Content: "q 50 0 0 50 100 100 cm /Im0 Do Q",
			Images:  []string{"Im0"},
		},
		{
			Content: "BT /F1 10 Tf 72 650 Td (Third page) Tj ET",
			Fonts:   map[string]string{"F1": "Times-Italic"},
		},
	}}
	return b.Bytes()
}

func TestConvertEndToEnd(t *testing.T) {
	res, err := Convert(context.Background(), threePageDoc(), Options{Title: "sample.pdf"})
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}

	if res.Metadata.PageCount != 3 {
		t.Errorf("PageCount = %d, want 3", res.Metadata.PageCount)
	}
	if res.Metadata.Title != "sample.pdf" {
		t.Errorf("Title = %q, want sample.pdf", res.Metadata.Title)
	}
	if len(res.Images) != 0 {
		t.Errorf("Images = %v, want empty", res.Images)
	}
	if res.Styles != layout.BaseStyleSheet() {
		t.Error("Styles does not match the base stylesheet")
	}
	if !strings.Contains(res.HTML, "First page") || !strings.Contains(res.HTML, "Third page") {
		t.Error("page text missing from output")
	}
	if !strings.Contains(res.HTML, "1 image detected") {
		t.Error("image placeholder missing from output")
	}

	styles, err := layout.StyleContent(res.HTML)
	if err != nil {
		t.Fatalf("StyleContent: %v", err)
	}
	if styles != res.Styles {
		t.Error("inlined stylesheet differs from the returned Styles value")
	}
	refs, err := layout.ExternalRefs(res.HTML)
	if err != nil {
		t.Fatalf("ExternalRefs: %v", err)
	}
	if len(refs) != 0 {
		t.Errorf("output references external resources: %v", refs)
	}
}

func TestConvertEmptyInputFailsBeforeProgress(t *testing.T) {
	var events []Progress
	_, err := Convert(context.Background(), nil, Options{
		OnProgress: func(p Progress) { events = append(events, p) },
	})
	if err == nil {
		t.Fatal("Convert succeeded on empty input")
	}
	if !errors.Is(err, loader.ErrEmptyInput) {
		t.Errorf("error = %v, want ErrEmptyInput cause", err)
	}
	var ce *ConversionError
	if !errors.As(err, &ce) {
		t.Errorf("error type = %T, want *ConversionError", err)
	}
	if len(events) != 0 {
		t.Errorf("progress emitted before rejection: %v", events)
	}
}

func TestConvertProgressMilestones(t *testing.T) {
	var events []Progress
	_, err := Convert(context.Background(), threePageDoc(), Options{
		OnProgress: func(p Progress) { events = append(events, p) },
	})
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}

	want := []Progress{
		{Step: "Loading PDF document", Percent: 10},
		{Step: "Processing page 1 of 3", Percent: 40},
		{Step: "Processing page 2 of 3", Percent: 60},
		{Step: "Processing page 3 of 3", Percent: 80},
		{Step: "Finalizing HTML", Percent: 90},
		{Step: "Conversion complete", Percent: 100},
	}
	if diff := cmp.Diff(want, events); diff != "" {
		t.Errorf("progress sequence mismatch (-want +got):\n%s", diff)
	}
}

func TestConvertProgressMonotonic(t *testing.T) {
	pages := make([]pdftest.Page, 7)
	for i := range pages {
		pages[i] = pdftest.Page{Content: fmt.Sprintf("BT /F1 9 Tf 72 700 Td (p%d) Tj ET", i+1),
			Fonts: map[string]string{"F1": "Helvetica"}}
	}
	b := &pdftest.Builder{Pages: pages}

	var events []Progress
	_, err := Convert(context.Background(), b.Bytes(), Options{
		OnProgress: func(p Progress) { events = append(events, p) },
	})
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	last := -1
	for _, ev := range events {
		if ev.Percent < last {
			t.Fatalf("progress decreased: %v", events)
		}
		last = ev.Percent
	}
	if last != 100 {
		t.Errorf("final progress = %d, want 100", last)
	}
}

func TestConvertPageOrderPreserved(t *testing.T) {
	res, err := Convert(context.Background(), threePageDoc(), Options{})
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	ids, err := layout.PageIDs(res.HTML)
	if err != nil {
		t.Fatalf("PageIDs: %v", err)
	}
	want := []string{"pdf-page-1", "pdf-page-2", "pdf-page-3"}
	if diff := cmp.Diff(want, ids); diff != "" {
		t.Errorf("page order mismatch (-want +got):\n%s", diff)
	}
}

func TestConvertCallbackPanicIsolated(t *testing.T) {
	res, err := Convert(context.Background(), threePageDoc(), Options{
		OnProgress: func(Progress) { panic("listener bug") },
	})
	if err != nil {
		t.Fatalf("Convert failed because of a callback panic: %v", err)
	}
	if res.Metadata.PageCount != 3 {
		t.Errorf("PageCount = %d, want 3", res.Metadata.PageCount)
	}
}

func TestConvertNoCallback(t *testing.T) {
	if _, err := Convert(context.Background(), threePageDoc(), Options{}); err != nil {
		t.Fatalf("Convert without callback: %v", err)
	}
}

func TestConvertEmbeddedTitleWins(t *testing.T) {
	b := &pdftest.Builder{
		Title: "Embedded Title",
		Pages: []pdftest.Page{{Content: "BT ET"}},
	}
	res, err := Convert(context.Background(), b.Bytes(), Options{Title: "fallback.pdf"})
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if res.Metadata.Title != "Embedded Title" {
		t.Errorf("Title = %q, want embedded title", res.Metadata.Title)
	}
	if !strings.Contains(res.HTML, "<title>Embedded Title</title>") {
		t.Error("embedded title missing from HTML head")
	}
}

func TestConvertFileSizeFormatting(t *testing.T) {
	tests := []struct {
		bytes int64
		want  string
	}{
		{1024, "1.00 KB"},
		{1536, "1.50 KB"},
		{100, "0.10 KB"},
		{2621440, "2560.00 KB"},
	}
	for _, tt := range tests {
		if got := formatFileSize(tt.bytes); got != tt.want {
			t.Errorf("formatFileSize(%d) = %q, want %q", tt.bytes, got, tt.want)
		}
	}
}

func TestConvertMetadataUsesDeclaredFileSize(t *testing.T) {
	res, err := Convert(context.Background(), threePageDoc(), Options{FileSize: 2048})
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if res.Metadata.FileSize != "2.00 KB" {
		t.Errorf("FileSize = %q, want 2.00 KB", res.Metadata.FileSize)
	}
}

func TestConvertUnreadableInputWrapsLoadError(t *testing.T) {
	data := []byte("%PDF-1.4\nthis is not object structure at all")
	_, err := Convert(context.Background(), data, Options{})
	if err == nil {
		t.Fatal("Convert succeeded on unreadable input")
	}
	if !errors.Is(err, loader.ErrUnreadable) {
		t.Errorf("error = %v, want ErrUnreadable cause", err)
	}
	var le *loader.LoadError
	if !errors.As(err, &le) {
		t.Errorf("LoadError not reachable through the boundary: %v", err)
	}
}

func TestConvertRepairedDocument(t *testing.T) {
	data := pdftest.BreakXRef(threePageDoc())
	res, err := Convert(context.Background(), data, Options{})
	if err != nil {
		t.Fatalf("Convert after xref damage: %v", err)
	}
	if res.Metadata.PageCount != 3 {
		t.Errorf("PageCount = %d, want 3", res.Metadata.PageCount)
	}
	if !strings.Contains(res.HTML, "First page") {
		t.Error("repaired conversion lost page text")
	}
}
