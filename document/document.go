// Package document defines the capability interfaces the conversion
// pipeline consumes. The parsing engine behind them is swappable; the
// pipeline never sees more of a parsed PDF than these handles expose.
package document

import (
	"context"

	"github.com/wudi/pdf2html/coords"
)

// Source is an opaque handle to a successfully parsed document. It is
// owned by the loader for the duration of one conversion and released
// with Close once every page has been processed.
type Source interface {
	// PageCount reports the number of pages, always >= 0.
	PageCount() int
	// Page returns the handle for the zero-based page index.
	Page(index int) (Page, error)
	// Title reports the document's own title, empty when absent.
	Title() string
	Close() error
}

// Page is an opaque handle to one page of a Source.
type Page interface {
	// Viewport reports the page dimensions at the given rendering
	// scale, origin top-left.
	Viewport(scale float64) Viewport
	// TextContent produces the page's text runs in extraction order.
	TextContent(ctx context.Context) ([]TextRun, error)
	// Operations produces the page's drawing-operation trace.
	Operations(ctx context.Context) ([]Operation, error)
}

// Viewport is the rendering-scale pixel size of one page.
type Viewport struct {
	Width  float64
	Height float64
}

// TextRun is one contiguous extracted string with a single affine
// transform and font identifier. Transform coefficients 0 and 3 carry
// the font-size magnitude; 4 and 5 the baseline origin in page space
// (Y increasing upward).
type TextRun struct {
	Text      string
	Transform coords.Matrix
	FontID    string
}

// Operation is one entry of a page's operator trace.
type Operation struct {
	// Operator is the raw content-stream operator name.
	Operator string
	// Image marks operators that paint an image: Do on an Image
	// XObject (directly or through a Form XObject) or an inline BI.
	Image bool
}

// CountImages returns the number of image-paint operations in a trace.
func CountImages(ops []Operation) int {
	n := 0
	for _, op := range ops {
		if op.Image {
			n++
		}
	}
	return n
}
