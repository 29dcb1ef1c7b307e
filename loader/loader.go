// Package loader turns raw file bytes into a document.Source. Loading
// is two-tier: a strict parse first, then one repair retry on a fresh
// copy of the input. Only when both tiers fail does the caller see an
// error, and it is always a single LoadError.
package loader

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wudi/pdf2html/document"
	"github.com/wudi/pdf2html/observability"
	"github.com/wudi/pdf2html/pdf"
)

var (
	// ErrEmptyInput rejects zero-length buffers before any parsing.
	ErrEmptyInput = errors.New("input buffer is empty")
	// ErrInvalidFile rejects buffers with no recognizable document
	// header. These are never retried.
	ErrInvalidFile = errors.New("file is not a valid PDF")
	// ErrUnreadable marks documents that failed both parse tiers.
	ErrUnreadable = errors.New("document could not be parsed")
)

// LoadError is the single terminal failure of a load. It records both
// tier errors but unwraps to one sentinel so callers can distinguish
// an invalid file from an unreadable document with errors.Is.
type LoadError struct {
	Kind    error
	Primary error
	Retry   error
}

func (e *LoadError) Error() string {
	switch {
	case e.Retry != nil:
		return fmt.Sprintf("%v (primary: %v; retry: %v)", e.Kind, e.Primary, e.Retry)
	case e.Primary != nil:
		return fmt.Sprintf("%v: %v", e.Kind, e.Primary)
	default:
		return e.Kind.Error()
	}
}

func (e *LoadError) Unwrap() error { return e.Kind }

// Options configures a load.
type Options struct {
	Logger observability.Logger
}

// Load parses data into a document source. Each parse attempt receives
// its own copy of the input, so the caller's buffer is never consumed
// and the retry always starts from pristine bytes.
func Load(ctx context.Context, data []byte, opts Options) (document.Source, error) {
	log := opts.Logger
	if log == nil {
		log = observability.NopLogger{}
	}

	if len(data) == 0 {
		return nil, &LoadError{Kind: ErrEmptyInput}
	}
	if !hasPDFHeader(data) {
		return nil, &LoadError{Kind: ErrInvalidFile}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	src, primaryErr := pdf.Open(bytes.Clone(data), pdf.Options{Logger: log})
	if primaryErr == nil {
		log.Debug("document loaded",
			observability.String("metric", observability.MetricLoadTime),
			observability.Float("seconds", time.Since(start).Seconds()))
		return src, nil
	}
	log.Warn("primary parse failed, retrying with repair",
		observability.Error("err", primaryErr))

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	src, retryErr := pdf.Open(bytes.Clone(data), pdf.Options{Repair: true, Logger: log})
	if retryErr == nil {
		log.Info("document recovered by repair parse",
			observability.String("metric", observability.MetricLoadRetries),
			observability.Int("retries", 1))
		return src, nil
	}

	return nil, &LoadError{Kind: ErrUnreadable, Primary: primaryErr, Retry: retryErr}
}

// hasPDFHeader looks for the %PDF- marker near the start of the
// buffer. Some producers prepend junk bytes, so a small window is
// scanned rather than requiring offset zero.
func hasPDFHeader(data []byte) bool {
	window := data
	if len(window) > 1024 {
		window = window[:1024]
	}
	return bytes.Contains(window, []byte("%PDF-"))
}
