// Command pdf2html converts a PDF file into a single self-contained
// HTML document.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/wudi/pdf2html/convert"
	"github.com/wudi/pdf2html/observability"
)

type options struct {
	pdfPath string
	outPath string
	title   string
	scale   float64
	quiet   bool
	verbose bool
}

func main() {
	opts, err := parseFlags()
	if err != nil {
		fmt.Fprintf(os.Stderr, "pdf2html: %v\n", err)
		os.Exit(2)
	}
	if err := run(opts); err != nil {
		fmt.Fprintf(os.Stderr, "pdf2html: %v\n", err)
		os.Exit(1)
	}
}

func parseFlags() (options, error) {
	var opts options
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: pdf2html [flags] <pdf>\n")
		flag.PrintDefaults()
	}
	out := flag.String("o", "", "Output HTML path (default: input name with .html)")
	title := flag.String("title", "", "Document title override")
	scale := flag.Float64("scale", 0, "Rendering scale (default 1.5)")
	quiet := flag.Bool("q", false, "Suppress progress output")
	verbose := flag.Bool("v", false, "Verbose logging to stderr")
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		return options{}, fmt.Errorf("missing pdf path")
	}
	opts.pdfPath = flag.Arg(0)
	opts.outPath = *out
	opts.title = *title
	opts.scale = *scale
	opts.quiet = *quiet
	opts.verbose = *verbose
	if opts.outPath == "" {
		base := strings.TrimSuffix(opts.pdfPath, filepath.Ext(opts.pdfPath))
		opts.outPath = base + ".html"
	}
	return opts, nil
}

func run(opts options) error {
	data, err := os.ReadFile(opts.pdfPath)
	if err != nil {
		return err
	}

	title := opts.title
	if title == "" {
		title = filepath.Base(opts.pdfPath)
	}

	convOpts := convert.Options{
		Title:    title,
		FileSize: int64(len(data)),
		Scale:    opts.scale,
	}
	if !opts.quiet {
		convOpts.OnProgress = func(p convert.Progress) {
			fmt.Fprintf(os.Stderr, "[%3d%%] %s\n", p.Percent, p.Step)
		}
	}
	if opts.verbose {
		convOpts.Logger = stderrLogger{}
	}

	res, err := convert.Convert(context.Background(), data, convOpts)
	if err != nil {
		return err
	}
	if err := os.WriteFile(opts.outPath, []byte(res.HTML), 0o644); err != nil {
		return err
	}
	if !opts.quiet {
		fmt.Fprintf(os.Stderr, "wrote %s (%d pages, %s)\n",
			opts.outPath, res.Metadata.PageCount, res.Metadata.FileSize)
	}
	return nil
}

// stderrLogger prints structured fields as key=value pairs.
type stderrLogger struct {
	fields []observability.Field
}

func (l stderrLogger) log(level, msg string, fields []observability.Field) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s %s", level, msg)
	for _, f := range append(l.fields, fields...) {
		fmt.Fprintf(&sb, " %s=%v", f.Key(), f.Value())
	}
	fmt.Fprintln(os.Stderr, sb.String())
}

func (l stderrLogger) Debug(msg string, fields ...observability.Field) { l.log("DEBUG", msg, fields) }
func (l stderrLogger) Info(msg string, fields ...observability.Field)  { l.log("INFO", msg, fields) }
func (l stderrLogger) Warn(msg string, fields ...observability.Field)  { l.log("WARN", msg, fields) }
func (l stderrLogger) Error(msg string, fields ...observability.Field) { l.log("ERROR", msg, fields) }

func (l stderrLogger) With(fields ...observability.Field) observability.Logger {
	return stderrLogger{fields: append(append([]observability.Field(nil), l.fields...), fields...)}
}
