package pdf

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/wudi/pdf2html/document"
	"github.com/wudi/pdf2html/observability"
	"github.com/wudi/pdf2html/recovery"
)

// Options controls how a document is opened.
type Options struct {
	// Repair skips the cross-reference table and rebuilds object
	// locations by scanning the whole buffer.
	Repair bool
	// Recovery decides whether parse problems abort or degrade.
	// Defaults to strict for normal opens and lenient for repairs.
	Recovery recovery.Strategy
	Logger   observability.Logger
}

var (
	// ErrNoPages is returned when the page tree resolves to nothing.
	ErrNoPages = errors.New("document has no pages")
)

// Open parses an in-memory PDF and exposes it through the document
// interfaces. In strict mode every page's content is verified up front,
// so a successful Open means the whole document renders.
func Open(data []byte, opts Options) (document.Source, error) {
	log := opts.Logger
	if log == nil {
		log = observability.NopLogger{}
	}
	rec := opts.Recovery
	if rec == nil {
		if opts.Repair {
			rec = recovery.NewLenientStrategy()
		} else {
			rec = recovery.NewStrictStrategy()
		}
	}

	var table *xrefTable
	var err error
	if opts.Repair {
		table, err = repairXRef(data, rec)
	} else {
		table, err = parseXRef(data)
	}
	if err != nil {
		return nil, fmt.Errorf("cross-reference: %w", err)
	}

	reader := newReader(data, table, rec, log)
	nodes, err := reader.pages()
	if err != nil {
		return nil, fmt.Errorf("page tree: %w", err)
	}
	if len(nodes) == 0 {
		return nil, ErrNoPages
	}

	src := &source{reader: reader, title: reader.title()}
	src.pages = make([]*page, len(nodes))
	for i, node := range nodes {
		src.pages[i] = &page{source: src, node: node, index: i}
	}

	if !opts.Repair {
		if err := src.verify(); err != nil {
			return nil, err
		}
	}
	log.Debug("document opened",
		observability.Int("pages", len(nodes)),
		observability.String("title", src.title))
	return src, nil
}

type source struct {
	reader *Reader
	title  string
	pages  []*page
}

func (s *source) PageCount() int { return len(s.pages) }

func (s *source) Title() string { return s.title }

func (s *source) Page(index int) (document.Page, error) {
	if index < 0 || index >= len(s.pages) {
		return nil, fmt.Errorf("page index %d out of range [0,%d)", index, len(s.pages))
	}
	return s.pages[index], nil
}

func (s *source) Close() error {
	s.pages = nil
	s.reader = nil
	return nil
}

// verify parses every page's content stream in page order so strict
// opens surface malformed content before any rendering starts.
func (s *source) verify() error {
	for _, p := range s.pages {
		if err := p.load(); err != nil {
			return fmt.Errorf("page %d: %w", p.index+1, err)
		}
	}
	return nil
}

// page implements document.Page for one node of the page tree. The
// content stream is interpreted once, on first use.
type page struct {
	source *source
	node   pageNode
	index  int

	once    sync.Once
	loadErr error
	runs    []document.TextRun
	trace   []document.Operation
}

func (p *page) Viewport(scale float64) document.Viewport {
	mb := p.node.mediaBox
	return document.Viewport{
		Width:  (mb[2] - mb[0]) * scale,
		Height: (mb[3] - mb[1]) * scale,
	}
}

func (p *page) TextContent(ctx context.Context) ([]document.TextRun, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := p.load(); err != nil {
		return nil, err
	}
	return p.runs, nil
}

func (p *page) Operations(ctx context.Context) ([]document.Operation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := p.load(); err != nil {
		return nil, err
	}
	return p.trace, nil
}

func (p *page) load() error {
	p.once.Do(func() {
		r := p.source.reader
		content, err := r.contentStreams(p.node.dict)
		if err != nil {
			p.loadErr = err
			return
		}
		res := r.loadResources(p.node.resources)
		in := newInterpreter(r, res, p.index+1)
		if err := in.run(content); err != nil {
			p.loadErr = err
			return
		}
		p.runs = in.runs
		p.trace = in.trace
	})
	return p.loadErr
}
