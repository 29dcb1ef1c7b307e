// Package convert runs the full PDF to HTML pipeline: load, render
// each page in order, assemble. It is the single entry point hosts
// call; everything below it reports errors upward and this boundary
// wraps them into ConversionError.
package convert

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/wudi/pdf2html/layout"
	"github.com/wudi/pdf2html/loader"
	"github.com/wudi/pdf2html/observability"
)

// Progress is one milestone notification. Percent is 0..100 and never
// decreases over a conversion.
type Progress struct {
	Step    string
	Percent int
}

// ProgressFunc receives milestone notifications. It is fire-and-forget:
// return values do not exist, panics are absorbed, and a nil callback
// changes nothing about the conversion.
type ProgressFunc func(Progress)

// Options configures one conversion.
type Options struct {
	// Title is the fallback document title, typically the file name.
	// A non-empty title embedded in the document takes precedence.
	Title string
	// FileSize is the original file size in bytes for metadata
	// formatting. Zero means "use the input buffer length".
	FileSize int64
	// Scale overrides the rendering scale. Zero means DefaultScale.
	Scale      float64
	OnProgress ProgressFunc
	Logger     observability.Logger
	Tracer     observability.Tracer
}

// Metadata describes the converted document.
type Metadata struct {
	Title     string
	PageCount int
	FileSize  string
}

// Result is the conversion output. HTML is a complete self-contained
// document; Styles duplicates the stylesheet inlined in it. Images
// stays empty: image content is detected and counted in the page
// markup, never extracted.
type Result struct {
	HTML     string
	Images   []string
	Styles   string
	Metadata Metadata
}

// ConversionError wraps any pipeline failure for the caller. The
// underlying cause stays reachable through errors.Is and errors.As.
type ConversionError struct {
	Step string
	Err  error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("conversion failed during %s: %v", e.Step, e.Err)
}

func (e *ConversionError) Unwrap() error { return e.Err }

// Convert turns raw PDF bytes into a self-contained HTML document.
// Pages are processed strictly sequentially in source order. Empty
// input fails before any progress is reported.
func Convert(ctx context.Context, data []byte, opts Options) (*Result, error) {
	log := opts.Logger
	if log == nil {
		log = observability.NopLogger{}
	}
	tracer := opts.Tracer
	if tracer == nil {
		tracer = observability.NopTracer()
	}
	scale := opts.Scale
	if scale <= 0 {
		scale = layout.DefaultScale
	}
	report := progressReporter(opts.OnProgress, log)

	ctx, span := tracer.StartSpan(ctx, "convert")
	defer span.Finish()

	if len(data) > 0 {
		report("Loading PDF document", 10)
	}
	loadStart := time.Now()
	src, err := loader.Load(ctx, data, loader.Options{Logger: log})
	if err != nil {
		span.SetError(err)
		return nil, &ConversionError{Step: "load", Err: err}
	}
	defer src.Close()
	log.Debug("load complete",
		observability.String("metric", observability.MetricLoadTime),
		observability.Float("seconds", time.Since(loadStart).Seconds()),
		observability.Int("pages", src.PageCount()))
	span.SetTag("pages", src.PageCount())

	styles := layout.BaseStyleSheet()

	n := src.PageCount()
	var body strings.Builder
	renderStart := time.Now()
	for i := 0; i < n; i++ {
		report(fmt.Sprintf("Processing page %d of %d", i+1, n), 20+60*(i+1)/n)
		pg, err := src.Page(i)
		if err != nil {
			span.SetError(err)
			return nil, &ConversionError{Step: "render", Err: err}
		}
		frag, err := layout.RenderPage(ctx, pg, scale, i, log)
		if err != nil {
			span.SetError(err)
			return nil, &ConversionError{Step: "render", Err: err}
		}
		body.WriteString(frag)
	}
	log.Debug("render complete",
		observability.String("metric", observability.MetricRenderTime),
		observability.Float("seconds", time.Since(renderStart).Seconds()))

	report("Finalizing HTML", 90)
	title := documentTitle(src.Title(), opts.Title)
	html := layout.Assemble(body.String(), styles, title)

	size := opts.FileSize
	if size == 0 {
		size = int64(len(data))
	}
	result := &Result{
		HTML:   html,
		Images: []string{},
		Styles: styles,
		Metadata: Metadata{
			Title:     title,
			PageCount: n,
			FileSize:  formatFileSize(size),
		},
	}
	log.Info("conversion complete",
		observability.String("metric", observability.MetricOutputBytes),
		observability.Int("bytes", len(html)),
		observability.Int("pages", n))
	report("Conversion complete", 100)
	return result, nil
}

// documentTitle prefers the title embedded in the document over the
// caller-supplied fallback.
func documentTitle(embedded, fallback string) string {
	if embedded = strings.TrimSpace(embedded); embedded != "" {
		return embedded
	}
	if fallback != "" {
		return fallback
	}
	return "Untitled document"
}

// formatFileSize renders a byte count as "<n>.<nn> KB".
func formatFileSize(bytes int64) string {
	return fmt.Sprintf("%.2f KB", float64(bytes)/1024)
}

// progressReporter wraps the caller's callback so a panicking or nil
// callback cannot disturb the pipeline.
func progressReporter(fn ProgressFunc, log observability.Logger) func(string, int) {
	return func(step string, percent int) {
		if fn == nil {
			return
		}
		defer func() {
			if r := recover(); r != nil {
				log.Warn("progress callback panicked",
					observability.String("step", step),
					observability.String("panic", fmt.Sprint(r)))
			}
		}()
		fn(Progress{Step: step, Percent: percent})
	}
}
