package pdf

import (
	"errors"
	"io"

	"github.com/wudi/pdf2html/coords"
	"github.com/wudi/pdf2html/document"
	"github.com/wudi/pdf2html/recovery"
)

// fontInfo is the per-resource font knowledge the interpreter needs:
// the BaseFont identifier handed to classifiers and an optional
// ToUnicode map for decoding show-operator bytes.
type fontInfo struct {
	baseFont string
	cmap     *toUnicodeMap
}

type xobjKind int

const (
	xobjOther xobjKind = iota
	xobjImage
	xobjForm
)

type xobjInfo struct {
	kind      xobjKind
	form      Stream
	resources Dict
	matrix    coords.Matrix
}

// pageResources resolves the font and XObject tables of one page.
type pageResources struct {
	fonts    map[Name]fontInfo
	xobjects map[Name]xobjInfo
}

func (r *Reader) loadResources(res Dict) pageResources {
	pr := pageResources{
		fonts:    make(map[Name]fontInfo),
		xobjects: make(map[Name]xobjInfo),
	}
	if res == nil {
		return pr
	}
	if fontDict, ok := r.resolveDict(res["Font"]); ok {
		for name, ref := range fontDict {
			fd, ok := r.resolveDict(ref)
			if !ok {
				continue
			}
			info := fontInfo{}
			if base, ok := fd.name("BaseFont"); ok {
				info.baseFont = string(base)
			} else {
				info.baseFont = string(name)
			}
			if stm, ok := r.resolve(fd["ToUnicode"]).(Stream); ok && len(stm.Data) > 0 {
				info.cmap = parseToUnicode(stm.Data)
			}
			pr.fonts[name] = info
		}
	}
	if xobjDict, ok := r.resolveDict(res["XObject"]); ok {
		for name, ref := range xobjDict {
			stm, ok := r.resolve(ref).(Stream)
			if !ok {
				continue
			}
			info := xobjInfo{kind: xobjOther, matrix: coords.Identity()}
			switch sub, _ := stm.Dict.name("Subtype"); sub {
			case "Image":
				info.kind = xobjImage
			case "Form":
				info.kind = xobjForm
				info.form = stm
				if sub, ok := r.resolveDict(stm.Dict["Resources"]); ok {
					info.resources = sub
				}
				if mArr, ok := r.resolve(stm.Dict["Matrix"]).(Array); ok && len(mArr) == 6 {
					for i := 0; i < 6; i++ {
						if n, ok := mArr[i].(Number); ok {
							info.matrix[i] = float64(n)
						}
					}
				}
			}
			pr.xobjects[name] = info
		}
	}
	return pr
}

// textState mirrors the PDF text object parameters the interpreter
// tracks: the text matrix pair, current font and leading.
type textState struct {
	tm      coords.Matrix
	tlm     coords.Matrix
	font    fontInfo
	hasFont bool
	size    float64
	leading float64
}

// interpreter executes a content stream far enough to reconstruct
// positioned text runs and an operator trace.
type interpreter struct {
	reader *Reader
	rec    recovery.Strategy
	page   int

	ctm    coords.Matrix
	stack  []coords.Matrix
	ts     textState
	res    pageResources
	runs   []document.TextRun
	trace  []document.Operation
	depth  int
}

func newInterpreter(r *Reader, res pageResources, page int) *interpreter {
	rec := r.rec
	if rec == nil {
		rec = recovery.NewLenientStrategy()
	}
	return &interpreter{
		reader: r,
		rec:    rec,
		page:   page,
		ctm:    coords.Identity(),
		ts:     textState{tm: coords.Identity(), tlm: coords.Identity()},
		res:    res,
	}
}

// run processes a content stream buffer, appending to runs and trace.
func (in *interpreter) run(content []byte) error {
	lex := NewLexer(content)
	var operands []Object
	for {
		start := lex.Pos()
		obj, err := lex.ReadObject()
		if err != nil {
			if errors.Is(err, io.EOF) || lex.Pos() >= len(content) {
				return nil
			}
			loc := recovery.Location{ByteOffset: int64(start), Page: in.page, Component: "Content"}
			if in.rec.OnError(err, loc) == recovery.ActionFail {
				return err
			}
			operands = operands[:0]
			continue
		}
		kw, ok := obj.(Keyword)
		if !ok {
			operands = append(operands, obj)
			continue
		}
		if kw == "BI" {
			in.inlineImage(lex)
			operands = operands[:0]
			continue
		}
		in.apply(string(kw), operands)
		operands = operands[:0]
	}
}

// inlineImage skips a BI..ID..EI block and records one image paint.
func (in *interpreter) inlineImage(lex *Lexer) {
	// consume the parameter pairs up to ID
	for {
		obj, err := lex.ReadObject()
		if err != nil {
			return
		}
		if kw, ok := obj.(Keyword); ok && kw == "ID" {
			break
		}
	}
	// binary payload runs until a whitespace-delimited EI
	data := lex.data[lex.Pos():]
	end := len(data)
	for idx := 0; idx+1 < len(data); idx++ {
		if data[idx] == 'E' && data[idx+1] == 'I' {
			before := idx == 0 || isWhitespace(data[idx-1])
			after := idx+2 >= len(data) || isWhitespace(data[idx+2]) || isDelimiter(data[idx+2])
			if before && after {
				end = idx + 2
				break
			}
		}
	}
	lex.Seek(lex.Pos() + end)
	in.trace = append(in.trace, document.Operation{Operator: "BI", Image: true})
}

func (in *interpreter) apply(op string, operands []Object) {
	switch op {
	case "q":
		in.stack = append(in.stack, in.ctm)
		in.record(op, false)
	case "Q":
		if n := len(in.stack); n > 0 {
			in.ctm = in.stack[n-1]
			in.stack = in.stack[:n-1]
		}
		in.record(op, false)
	case "cm":
		if len(operands) >= 6 {
			in.ctm = operandMatrix(operands).Multiply(in.ctm)
		}
		in.record(op, false)
	case "BT":
		in.ts.tm = coords.Identity()
		in.ts.tlm = coords.Identity()
		in.record(op, false)
	case "ET":
		in.record(op, false)
	case "TL":
		if len(operands) >= 1 {
			in.ts.leading = toFloat(operands[len(operands)-1])
		}
	case "Tf":
		if len(operands) >= 2 {
			if name, ok := operands[len(operands)-2].(Name); ok {
				in.ts.font, in.ts.hasFont = in.res.fonts[name]
				if !in.ts.hasFont {
					in.ts.font = fontInfo{baseFont: string(name)}
				}
			}
			in.ts.size = toFloat(operands[len(operands)-1])
		}
	case "Td":
		if len(operands) >= 2 {
			tx := toFloat(operands[len(operands)-2])
			ty := toFloat(operands[len(operands)-1])
			in.ts.tlm = coords.Translate(tx, ty).Multiply(in.ts.tlm)
			in.ts.tm = in.ts.tlm
		}
	case "TD":
		if len(operands) >= 2 {
			tx := toFloat(operands[len(operands)-2])
			ty := toFloat(operands[len(operands)-1])
			in.ts.leading = -ty
			in.ts.tlm = coords.Translate(tx, ty).Multiply(in.ts.tlm)
			in.ts.tm = in.ts.tlm
		}
	case "Tm":
		if len(operands) >= 6 {
			in.ts.tm = operandMatrix(operands)
			in.ts.tlm = in.ts.tm
		}
	case "T*":
		in.nextLine()
	case "Tj":
		if len(operands) >= 1 {
			in.showText(operands[len(operands)-1])
		}
		in.record(op, false)
	case "'":
		in.nextLine()
		if len(operands) >= 1 {
			in.showText(operands[len(operands)-1])
		}
		in.record(op, false)
	case "\"":
		in.nextLine()
		if len(operands) >= 3 {
			in.showText(operands[len(operands)-1])
		}
		in.record(op, false)
	case "TJ":
		if len(operands) >= 1 {
			if arr, ok := operands[len(operands)-1].(Array); ok {
				in.showArray(arr)
			}
		}
		in.record(op, false)
	case "Do":
		in.invokeXObject(operands)
	default:
		in.record(op, false)
	}
}

func (in *interpreter) record(op string, image bool) {
	in.trace = append(in.trace, document.Operation{Operator: op, Image: image})
}

func (in *interpreter) nextLine() {
	in.ts.tlm = coords.Translate(0, -in.ts.leading).Multiply(in.ts.tlm)
	in.ts.tm = in.ts.tlm
}

// showText emits one text run at the current text-space origin. The
// run transform folds the font size into the scale coefficients, so
// |transform[0]| reads back as the absolute font size.
func (in *interpreter) showText(obj Object) {
	raw, ok := obj.(String)
	if !ok {
		return
	}
	text := in.decode([]byte(raw))
	size := in.ts.size
	if size == 0 {
		size = 1
	}
	trm := coords.Scale(size, size).Multiply(in.ts.tm).Multiply(in.ctm)
	in.runs = append(in.runs, document.TextRun{
		Text:      text,
		Transform: trm,
		FontID:    in.ts.font.baseFont,
	})
	in.advance(text)
}

// showArray handles TJ arrays: strings show text, numbers kern the
// text matrix by thousandths of an em.
func (in *interpreter) showArray(arr Array) {
	for _, item := range arr {
		switch v := item.(type) {
		case String:
			in.showText(v)
		case Number:
			shift := -float64(v) / 1000.0 * in.ts.size
			in.ts.tm[4] += shift * in.ts.tm[0]
			in.ts.tm[5] += shift * in.ts.tm[1]
		}
	}
}

// advance moves the text matrix past the shown text. Without full
// glyph metrics a half-em per character keeps successive unpositioned
// shows from stacking on one spot.
func (in *interpreter) advance(text string) {
	w := float64(len([]rune(text))) * in.ts.size * 0.5
	in.ts.tm[4] += w * in.ts.tm[0]
	in.ts.tm[5] += w * in.ts.tm[1]
}

func (in *interpreter) decode(raw []byte) string {
	if in.ts.font.cmap != nil {
		return in.ts.font.cmap.decode(raw)
	}
	return decodeTextString(raw)
}

// invokeXObject records image paints and recurses into form XObjects
// so images nested in forms are still counted.
func (in *interpreter) invokeXObject(operands []Object) {
	if len(operands) == 0 {
		in.record("Do", false)
		return
	}
	name, ok := operands[len(operands)-1].(Name)
	if !ok {
		in.record("Do", false)
		return
	}
	info, ok := in.res.xobjects[name]
	if !ok {
		in.record("Do", false)
		return
	}
	switch info.kind {
	case xobjImage:
		in.record("Do", true)
	case xobjForm:
		in.record("Do", false)
		if in.depth >= 8 {
			return
		}
		saved := in.saveForForm(info)
		in.run(info.form.Data)
		in.restoreAfterForm(saved)
	default:
		in.record("Do", false)
	}
}

type formFrame struct {
	ctm coords.Matrix
	ts  textState
	res pageResources
}

func (in *interpreter) saveForForm(info xobjInfo) formFrame {
	saved := formFrame{ctm: in.ctm, ts: in.ts, res: in.res}
	in.ctm = info.matrix.Multiply(in.ctm)
	if info.resources != nil {
		in.res = in.reader.loadResources(info.resources)
	}
	in.ts = textState{tm: coords.Identity(), tlm: coords.Identity()}
	in.depth++
	return saved
}

func (in *interpreter) restoreAfterForm(saved formFrame) {
	in.depth--
	in.ctm = saved.ctm
	in.ts = saved.ts
	in.res = saved.res
}

func operandMatrix(operands []Object) coords.Matrix {
	var m coords.Matrix
	base := len(operands) - 6
	for i := 0; i < 6; i++ {
		m[i] = toFloat(operands[base+i])
	}
	return m
}

func toFloat(obj Object) float64 {
	if n, ok := obj.(Number); ok {
		return float64(n)
	}
	return 0
}
