// Package pdftest builds small in-memory PDF files for tests. The
// generated files use a classic cross-reference table and uncompressed
// content streams so fixtures stay readable in test failures.
package pdftest

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
)

// Page describes one page of a generated document.
type Page struct {
	// Content is the raw content stream body.
	Content string
	// Fonts maps resource names (without slash) to BaseFont names.
	Fonts map[string]string
	// Images lists resource names for 1x1 grayscale image XObjects.
	Images []string
	// MediaBox overrides the default US Letter box when non-zero.
	MediaBox [4]float64
}

// Builder assembles a complete PDF file.
type Builder struct {
	Title string
	Pages []Page
}

// Bytes serializes the document with a correct cross-reference table.
func (b *Builder) Bytes() []byte {
	type object struct {
		num  int
		body string
	}
	var objects []object
	next := 3

	kidRefs := make([]string, len(b.Pages))
	for i, pg := range b.Pages {
		pageNum := next
		contentNum := next + 1
		next += 2
		kidRefs[i] = fmt.Sprintf("%d 0 R", pageNum)

		var resources strings.Builder
		if len(pg.Fonts) > 0 {
			resources.WriteString("/Font <<")
			for _, name := range sortedKeys(pg.Fonts) {
				fontNum := next
				next++
				objects = append(objects, object{fontNum, fmt.Sprintf(
					"<< /Type /Font /Subtype /Type1 /BaseFont /%s >>", pg.Fonts[name])})
				fmt.Fprintf(&resources, " /%s %d 0 R", name, fontNum)
			}
			resources.WriteString(" >> ")
		}
		if len(pg.Images) > 0 {
			resources.WriteString("/XObject <<")
			for _, name := range pg.Images {
				imgNum := next
				next++
				objects = append(objects, object{imgNum,
					"<< /Type /XObject /Subtype /Image /Width 1 /Height 1" +
						" /ColorSpace /DeviceGray /BitsPerComponent 8 /Length 1 >>\nstream\n\x00\nendstream"})
				fmt.Fprintf(&resources, " /%s %d 0 R", name, imgNum)
			}
			resources.WriteString(" >> ")
		}

		mediaBox := ""
		if pg.MediaBox != [4]float64{} {
			mediaBox = fmt.Sprintf(" /MediaBox [%g %g %g %g]",
				pg.MediaBox[0], pg.MediaBox[1], pg.MediaBox[2], pg.MediaBox[3])
		}
		objects = append(objects, object{pageNum, fmt.Sprintf(
			"<< /Type /Page /Parent 2 0 R /Resources << %s>> /Contents %d 0 R%s >>",
			resources.String(), contentNum, mediaBox)})
		objects = append(objects, object{contentNum, fmt.Sprintf(
			"<< /Length %d >>\nstream\n%s\nendstream", len(pg.Content), pg.Content)})
	}

	infoNum := 0
	if b.Title != "" {
		infoNum = next
		next++
		objects = append(objects, object{infoNum, fmt.Sprintf(
			"<< /Title (%s) >>", b.Title)})
	}

	objects = append(objects,
		object{1, "<< /Type /Catalog /Pages 2 0 R >>"},
		object{2, fmt.Sprintf(
			"<< /Type /Pages /Kids [%s] /Count %d /MediaBox [0 0 612 792] >>",
			strings.Join(kidRefs, " "), len(b.Pages))})
	sort.Slice(objects, func(i, j int) bool { return objects[i].num < objects[j].num })

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.7\n%\xe2\xe3\xcf\xd3\n")
	offsets := make(map[int]int)
	for _, obj := range objects {
		offsets[obj.num] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", obj.num, obj.body)
	}

	xrefStart := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", next)
	buf.WriteString("0000000000 65535 f \n")
	for num := 1; num < next; num++ {
		fmt.Fprintf(&buf, "%010d 00000 n \n", offsets[num])
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R", next)
	if infoNum != 0 {
		fmt.Fprintf(&buf, " /Info %d 0 R", infoNum)
	}
	fmt.Fprintf(&buf, " >>\nstartxref\n%d\n%%%%EOF\n", xrefStart)
	return buf.Bytes()
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Minimal returns a single-page document showing one line of text.
func Minimal() []byte {
	b := &Builder{Pages: []Page{{
		Content: "BT /F1 12 Tf 72 720 Td (Hello World) Tj ET",
		Fonts:   map[string]string{"F1": "Helvetica"},
	}}}
	return b.Bytes()
}

// BreakXRef damages the startxref keyword so table lookup fails while
// the object bodies stay intact for a repair scan.
func BreakXRef(data []byte) []byte {
	out := bytes.Clone(data)
	idx := bytes.LastIndex(out, []byte("startxref"))
	if idx >= 0 {
		copy(out[idx:], []byte("startxrof"))
	}
	return out
}

// Garbage returns bytes that no parsing strategy can make sense of.
func Garbage() []byte {
	return bytes.Repeat([]byte("\x7fnot a pdf "), 16)
}
