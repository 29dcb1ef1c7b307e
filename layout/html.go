// Package layout turns parsed page content into positioned HTML. Pages
// render to absolutely-positioned fragments that approximate the
// original visual layout; assembly wraps them into one self-contained
// document.
package layout

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/net/html"

	"github.com/wudi/pdf2html/coords"
	"github.com/wudi/pdf2html/document"
	"github.com/wudi/pdf2html/fonts"
	"github.com/wudi/pdf2html/observability"
)

// DefaultScale is the fixed rendering scale applied to page dimensions
// and run coordinates alike.
const DefaultScale = 1.5

// RenderPage produces the HTML fragment for one page. pageIndex is
// zero-based; emitted identifiers are one-based. A failure while
// enumerating the operator trace degrades to zero images; a failure
// reading text content is fatal for the conversion.
func RenderPage(ctx context.Context, pg document.Page, scale float64, pageIndex int, log observability.Logger) (string, error) {
	if log == nil {
		log = observability.NopLogger{}
	}
	if scale <= 0 {
		scale = DefaultScale
	}

	vp := pg.Viewport(scale)
	runs, err := pg.TextContent(ctx)
	if err != nil {
		return "", fmt.Errorf("page %d text content: %w", pageIndex+1, err)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, `<div id="pdf-page-%d" class="pdf-page" style="width: %.2fpx; height: %.2fpx;">`,
		pageIndex+1, vp.Width, vp.Height)
	sb.WriteByte('\n')

	rendered := 0
	for _, run := range runs {
		if strings.TrimSpace(run.Text) == "" {
			continue
		}
		if run.Transform.FontSize() <= 0 {
			continue
		}
		sb.WriteString(renderRun(run, vp.Height, scale))
		sb.WriteByte('\n')
		rendered++
	}

	if count := detectImages(ctx, pg, log, pageIndex); count > 0 {
		noun := "image"
		if count > 1 {
			noun = "images"
		}
		fmt.Fprintf(&sb, `<div class="image-placeholder">%d %s detected</div>`, count, noun)
		sb.WriteByte('\n')
	}

	sb.WriteString("</div>\n")
	log.Debug("page rendered",
		observability.Int("page", pageIndex+1),
		observability.Int("runs", rendered))
	return sb.String(), nil
}

// renderRun emits one absolutely-positioned node for a text run. The
// page-space origin flips to top-left HTML space exactly once, here.
func renderRun(run document.TextRun, viewportHeight, scale float64) string {
	origin := run.Transform.Origin()
	x := origin.X * scale
	y := coords.FlipY(viewportHeight, origin.Y*scale)
	size := run.Transform.FontSize() * scale

	style := fonts.Classify(run.FontID)
	var attrs strings.Builder
	fmt.Fprintf(&attrs, "left: %.2fpx; top: %.2fpx; font-size: %.2fpx; font-family: %s; white-space: pre;",
		x, y, size, style.Family)
	if style.Bold {
		attrs.WriteString(" font-weight: bold;")
	}
	if style.Italic {
		attrs.WriteString(" font-style: italic;")
	}
	return fmt.Sprintf(`<span class="text-run" style="%s">%s</span>`,
		attrs.String(), html.EscapeString(run.Text))
}

// detectImages counts image-paint operations in the page's trace. Any
// enumeration failure is absorbed as zero images.
func detectImages(ctx context.Context, pg document.Page, log observability.Logger, pageIndex int) int {
	ops, err := pg.Operations(ctx)
	if err != nil {
		log.Warn("image detection failed, treating page as image-free",
			observability.Int("page", pageIndex+1),
			observability.Error("err", err))
		return 0
	}
	return document.CountImages(ops)
}
