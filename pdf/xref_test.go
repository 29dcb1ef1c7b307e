package pdf

import (
	"testing"

	"github.com/wudi/pdf2html/pdf/pdftest"
	"github.com/wudi/pdf2html/recovery"
)

func TestParseXRefClassic(t *testing.T) {
	data := pdftest.Minimal()
	table, err := parseXRef(data)
	if err != nil {
		t.Fatalf("parseXRef: %v", err)
	}
	if _, ok := table.trailer["Root"]; !ok {
		t.Error("trailer missing Root")
	}
	entry, ok := table.entries[1]
	if !ok {
		t.Fatal("object 1 missing from table")
	}
	if entry.free {
		t.Error("object 1 marked free")
	}
	if entry.offset <= 0 || entry.offset >= int64(len(data)) {
		t.Errorf("object 1 offset %d out of bounds", entry.offset)
	}
}

func TestParseXRefRejectsDamagedTrailer(t *testing.T) {
	data := pdftest.BreakXRef(pdftest.Minimal())
	if _, err := parseXRef(data); err == nil {
		t.Fatal("parseXRef succeeded on damaged startxref")
	}
}

func TestRepairXRefRecoversObjects(t *testing.T) {
	data := pdftest.BreakXRef(pdftest.Minimal())
	table, err := repairXRef(data, recovery.NewLenientStrategy())
	if err != nil {
		t.Fatalf("repairXRef: %v", err)
	}
	if _, ok := table.trailer["Root"]; !ok {
		t.Error("repair lost the Root reference")
	}
	if len(table.entries) < 4 {
		t.Errorf("repair found %d objects, want at least 4", len(table.entries))
	}
}

func TestRepairXRefGarbage(t *testing.T) {
	if _, err := repairXRef(pdftest.Garbage(), recovery.NewLenientStrategy()); err == nil {
		t.Fatal("repairXRef succeeded on garbage input")
	}
}

func TestFindStartXRef(t *testing.T) {
	off, err := findStartXRef([]byte("junk startxref\n1234\n%%EOF"))
	if err != nil {
		t.Fatalf("findStartXRef: %v", err)
	}
	if off != 1234 {
		t.Errorf("offset = %d, want 1234", off)
	}
}
