package pdf

import (
	"bytes"
	"compress/zlib"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/wudi/pdf2html/observability"
	"github.com/wudi/pdf2html/recovery"
)

// Reader resolves indirect objects and walks the document structure on
// top of a parsed cross-reference table. The object cache is guarded so
// pages may resolve objects from concurrent goroutines.
type Reader struct {
	data []byte
	xref *xrefTable
	rec  recovery.Strategy
	log  observability.Logger

	mu    sync.Mutex
	cache map[Ref]Object
}

func newReader(data []byte, table *xrefTable, rec recovery.Strategy, log observability.Logger) *Reader {
	if rec == nil {
		rec = recovery.NewStrictStrategy()
	}
	if log == nil {
		log = observability.NopLogger{}
	}
	return &Reader{
		data:  data,
		xref:  table,
		rec:   rec,
		log:   log,
		cache: make(map[Ref]Object),
	}
}

// object loads the referenced object, consulting the cache first. The
// lock covers only cache access; loading happens outside it because
// compressed objects resolve their container stream recursively.
func (r *Reader) object(ref Ref) (Object, error) {
	r.mu.Lock()
	obj, ok := r.cache[ref]
	r.mu.Unlock()
	if ok {
		return obj, nil
	}
	entry, ok := r.xref.entries[ref.Num]
	if !ok {
		return nil, fmt.Errorf("object %d not in xref", ref.Num)
	}
	if entry.free {
		return Null{}, nil
	}

	var err error
	if entry.compressed {
		obj, err = r.objectFromStream(entry.streamNum, entry.streamIdx)
	} else {
		obj, err = r.objectAt(entry.offset, ref.Num)
	}
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	r.cache[ref] = obj
	r.mu.Unlock()
	return obj, nil
}

// resolve follows an indirect reference, returning Null on failure so
// structure walks can keep going.
func (r *Reader) resolve(obj Object) Object {
	for i := 0; i < 32; i++ {
		ref, ok := obj.(Ref)
		if !ok {
			return obj
		}
		loaded, err := r.object(ref)
		if err != nil {
			r.log.Warn("resolve failed",
				observability.Int("object", ref.Num),
				observability.Error("err", err))
			return Null{}
		}
		obj = loaded
	}
	return Null{}
}

func (r *Reader) resolveDict(obj Object) (Dict, bool) {
	d, ok := r.resolve(obj).(Dict)
	return d, ok
}

// objectAt reads "<num> <gen> obj <payload>" at a byte offset.
func (r *Reader) objectAt(offset int64, num int) (Object, error) {
	lex := NewLexer(r.data)
	if err := lex.Seek(int(offset)); err != nil {
		return nil, err
	}
	numObj, err := lex.ReadObject()
	if err != nil {
		return nil, err
	}
	if n, ok := numObj.(Number); !ok || int(n) != num {
		return nil, fmt.Errorf("object header mismatch at offset %d: want %d", offset, num)
	}
	if _, err := lex.ReadObject(); err != nil { // generation
		return nil, err
	}
	kwObj, err := lex.ReadObject()
	if err != nil {
		return nil, err
	}
	if kw, ok := kwObj.(Keyword); !ok || kw != "obj" {
		return nil, fmt.Errorf("expected obj keyword at offset %d", offset)
	}

	obj, err := lex.ReadObject()
	if err != nil {
		return nil, err
	}
	dict, ok := obj.(Dict)
	if !ok {
		return obj, nil
	}

	raw, err := readStreamPayload(lex, dict, r.lengthOf)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return dict, nil
	}
	decoded, err := decodeStream(dict, raw)
	if err != nil {
		loc := recovery.Location{ByteOffset: offset, ObjectNum: num, Component: "Filter"}
		if r.rec.OnError(err, loc) == recovery.ActionFail {
			return nil, err
		}
		decoded = raw // keep the raw payload in lenient mode
	}
	return Stream{Dict: dict, Data: decoded}, nil
}

// lengthOf resolves a /Length value that may be an indirect reference.
func (r *Reader) lengthOf(obj Object) (int, bool) {
	if n, ok := r.resolve(obj).(Number); ok {
		return int(n), true
	}
	return 0, false
}

// objectFromStream extracts an object stored inside an object stream.
func (r *Reader) objectFromStream(streamNum, index int) (Object, error) {
	container, err := r.object(Ref{Num: streamNum})
	if err != nil {
		return nil, err
	}
	stm, ok := container.(Stream)
	if !ok {
		return nil, fmt.Errorf("object stream %d is not a stream", streamNum)
	}
	n, ok := stm.Dict.intVal("N")
	if !ok {
		return nil, errors.New("object stream missing /N")
	}
	first, ok := stm.Dict.intVal("First")
	if !ok {
		return nil, errors.New("object stream missing /First")
	}
	if index < 0 || index >= n {
		return nil, fmt.Errorf("object index %d out of range [0,%d)", index, n)
	}

	header := NewLexer(stm.Data)
	offsets := make([]int, n)
	for i := 0; i < n; i++ {
		if _, err := header.ReadObject(); err != nil { // object number
			return nil, err
		}
		offObj, err := header.ReadObject()
		if err != nil {
			return nil, err
		}
		off, ok := offObj.(Number)
		if !ok {
			return nil, errors.New("object stream offset is not a number")
		}
		offsets[i] = int(off)
	}

	body := NewLexer(stm.Data)
	if err := body.Seek(first + offsets[index]); err != nil {
		return nil, err
	}
	return body.ReadObject()
}

// readStreamPayload returns the raw stream bytes following a dictionary,
// or nil when the dictionary is not followed by a stream keyword. The
// lexer must be positioned immediately after the dictionary.
func readStreamPayload(lex *Lexer, dict Dict, resolveLength func(Object) (int, bool)) ([]byte, error) {
	save := lex.Pos()
	kwObj, err := lex.ReadObject()
	if err != nil {
		lex.Seek(save)
		return nil, nil
	}
	if kw, ok := kwObj.(Keyword); !ok || kw != "stream" {
		lex.Seek(save)
		return nil, nil
	}
	skipStreamEOL(lex)

	length := -1
	if lenObj, ok := dict["Length"]; ok {
		if n, ok := lenObj.(Number); ok {
			length = int(n)
		} else if resolveLength != nil {
			if n, ok := resolveLength(lenObj); ok {
				length = n
			}
		}
	}
	start := lex.Pos()
	if length >= 0 && start+length <= len(lex.data) {
		tail := lex.data[start+length:]
		// accept the declared length only if endstream actually follows
		if idx := bytes.Index(tail, []byte("endstream")); idx >= 0 && idx <= 2 {
			lex.Seek(start + length)
			return lex.data[start : start+length], nil
		}
	}
	// fall back to scanning for the terminator
	idx := bytes.Index(lex.data[start:], []byte("endstream"))
	if idx < 0 {
		return nil, errors.New("unterminated stream")
	}
	end := start + idx
	for end > start && isWhitespace(lex.data[end-1]) {
		end--
	}
	lex.Seek(start + idx)
	return lex.data[start:end], nil
}

// skipStreamEOL consumes the single EOL after the stream keyword. Plain
// whitespace skipping would eat leading binary bytes of the payload.
func skipStreamEOL(lex *Lexer) {
	if b, ok := lex.peek(); ok && b == '\r' {
		lex.pos++
	}
	if b, ok := lex.peek(); ok && b == '\n' {
		lex.pos++
	}
}

// decodeStream applies the stream's filter chain.
func decodeStream(dict Dict, raw []byte) ([]byte, error) {
	names := filterNames(dict)
	params := filterParams(dict, len(names))
	data := raw
	for i, name := range names {
		var err error
		switch name {
		case "FlateDecode", "Fl":
			data, err = flateDecode(data)
			if err == nil {
				data, err = applyPredictor(params[i], data)
			}
		case "ASCIIHexDecode", "AHx":
			data, err = asciiHexDecode(data)
		case "ASCII85Decode", "A85":
			data, err = ascii85Decode(data)
		default:
			return nil, fmt.Errorf("unsupported filter %q", name)
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
	}
	return data, nil
}

func filterNames(dict Dict) []Name {
	switch v := dict["Filter"].(type) {
	case Name:
		return []Name{v}
	case Array:
		var names []Name
		for _, item := range v {
			if n, ok := item.(Name); ok {
				names = append(names, n)
			}
		}
		return names
	}
	return nil
}

func filterParams(dict Dict, n int) []Dict {
	params := make([]Dict, n)
	switch v := dict["DecodeParms"].(type) {
	case Dict:
		if n > 0 {
			params[0] = v
		}
	case Array:
		for i := 0; i < n && i < len(v); i++ {
			if d, ok := v[i].(Dict); ok {
				params[i] = d
			}
		}
	}
	return params
}

func flateDecode(data []byte) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	return io.ReadAll(zr)
}

// applyPredictor reverses PNG row predictors (10..15) used by xref and
// content streams. Predictor 1 or absence is a no-op; TIFF predictor 2
// is not emitted by the writers this engine targets.
func applyPredictor(parms Dict, data []byte) ([]byte, error) {
	if parms == nil {
		return data, nil
	}
	pred, ok := parms.intVal("Predictor")
	if !ok || pred <= 1 {
		return data, nil
	}
	if pred < 10 {
		return nil, fmt.Errorf("unsupported predictor %d", pred)
	}
	columns, ok := parms.intVal("Columns")
	if !ok || columns <= 0 {
		columns = 1
	}
	colors, ok := parms.intVal("Colors")
	if !ok || colors <= 0 {
		colors = 1
	}
	bpc, ok := parms.intVal("BitsPerComponent")
	if !ok || bpc <= 0 {
		bpc = 8
	}
	bpp := (colors*bpc + 7) / 8
	rowLen := (columns*colors*bpc + 7) / 8

	out := make([]byte, 0, len(data))
	prev := make([]byte, rowLen)
	for pos := 0; pos+1+rowLen <= len(data)+1 && pos < len(data); pos += 1 + rowLen {
		filter := data[pos]
		end := pos + 1 + rowLen
		if end > len(data) {
			end = len(data)
		}
		row := append([]byte(nil), data[pos+1:end]...)
		for i := range row {
			var left, up, upLeft byte
			if i >= bpp {
				left = row[i-bpp]
			}
			up = prev[i]
			if i >= bpp {
				upLeft = prev[i-bpp]
			}
			switch filter {
			case 0:
			case 1:
				row[i] += left
			case 2:
				row[i] += up
			case 3:
				row[i] += byte((int(left) + int(up)) / 2)
			case 4:
				row[i] += paeth(left, up, upLeft)
			default:
				return nil, fmt.Errorf("unknown PNG filter %d", filter)
			}
		}
		out = append(out, row...)
		copy(prev, row)
	}
	return out, nil
}

func paeth(a, b, c byte) byte {
	p := int(a) + int(b) - int(c)
	pa, pb, pc := abs(p-int(a)), abs(p-int(b)), abs(p-int(c))
	if pa <= pb && pa <= pc {
		return a
	}
	if pb <= pc {
		return b
	}
	return c
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func asciiHexDecode(data []byte) ([]byte, error) {
	var out []byte
	var hi byte
	have := false
	for _, b := range data {
		if b == '>' {
			break
		}
		if isWhitespace(b) {
			continue
		}
		v := fromHex(b)
		if have {
			out = append(out, hi<<4|v)
			have = false
		} else {
			hi = v
			have = true
		}
	}
	if have {
		out = append(out, hi<<4)
	}
	return out, nil
}

func ascii85Decode(data []byte) ([]byte, error) {
	var out []byte
	var group [5]byte
	n := 0
	for i := 0; i < len(data); i++ {
		b := data[i]
		if isWhitespace(b) {
			continue
		}
		if b == '~' {
			break
		}
		if b == 'z' && n == 0 {
			out = append(out, 0, 0, 0, 0)
			continue
		}
		if b < '!' || b > 'u' {
			return nil, fmt.Errorf("invalid ascii85 byte 0x%02x", b)
		}
		group[n] = b - '!'
		n++
		if n == 5 {
			out = appendA85Group(out, group, 5)
			n = 0
		}
	}
	if n > 0 {
		for i := n; i < 5; i++ {
			group[i] = 84
		}
		out = appendA85Group(out, group, n)
	}
	return out, nil
}

func appendA85Group(out []byte, group [5]byte, n int) []byte {
	var v uint32
	for _, c := range group {
		v = v*85 + uint32(c)
	}
	buf := [4]byte{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)}
	return append(out, buf[:n-1]...)
}

// catalog returns the document catalog dictionary.
func (r *Reader) catalog() (Dict, error) {
	root, ok := r.xref.trailer["Root"]
	if !ok {
		return nil, errors.New("trailer missing /Root")
	}
	dict, ok := r.resolveDict(root)
	if !ok {
		return nil, errors.New("catalog is not a dictionary")
	}
	return dict, nil
}

// pageNode carries a page dictionary with its inherited attributes.
type pageNode struct {
	dict      Dict
	resources Dict
	mediaBox  [4]float64
}

// pages walks the page tree in order, propagating inheritable
// attributes (/Resources, /MediaBox) down from intermediate nodes.
func (r *Reader) pages() ([]pageNode, error) {
	catalog, err := r.catalog()
	if err != nil {
		return nil, err
	}
	rootObj, ok := r.resolveDict(catalog["Pages"])
	if !ok {
		return nil, errors.New("catalog missing /Pages")
	}
	var out []pageNode
	letterBox := [4]float64{0, 0, 612, 792}
	var walk func(node Dict, inherited pageNode, depth int) error
	walk = func(node Dict, inherited pageNode, depth int) error {
		if depth > 64 {
			return errors.New("page tree too deep")
		}
		if res, ok := r.resolveDict(node["Resources"]); ok {
			inherited.resources = res
		}
		if mb, ok := r.resolve(node["MediaBox"]).(Array); ok && len(mb) == 4 {
			for i := 0; i < 4; i++ {
				if n, ok := r.resolve(mb[i]).(Number); ok {
					inherited.mediaBox[i] = float64(n)
				}
			}
		}
		typ, _ := node.name("Type")
		if typ == "Page" {
			inherited.dict = node
			out = append(out, inherited)
			return nil
		}
		kids, ok := r.resolve(node["Kids"]).(Array)
		if !ok {
			return nil
		}
		for _, kidRef := range kids {
			kid, ok := r.resolveDict(kidRef)
			if !ok {
				continue
			}
			if err := walk(kid, inherited, depth+1); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(rootObj, pageNode{mediaBox: letterBox}, 0); err != nil {
		return nil, err
	}
	return out, nil
}

// info returns the document information dictionary, nil when absent.
func (r *Reader) info() Dict {
	ref, ok := r.xref.trailer["Info"]
	if !ok {
		return nil
	}
	dict, _ := r.resolveDict(ref)
	return dict
}

// title returns the /Info /Title, decoded, empty when absent.
func (r *Reader) title() string {
	info := r.info()
	if info == nil {
		return ""
	}
	if s, ok := r.resolve(info["Title"]).(String); ok {
		return decodeTextString([]byte(s))
	}
	return ""
}

// contentStreams collects and concatenates a page's content streams.
func (r *Reader) contentStreams(page Dict) ([]byte, error) {
	var blobs [][]byte
	appendStream := func(obj Object) {
		if stm, ok := r.resolve(obj).(Stream); ok {
			blobs = append(blobs, stm.Data)
		}
	}
	switch v := r.resolve(page["Contents"]).(type) {
	case Array:
		for _, item := range v {
			appendStream(item)
		}
	case Stream:
		blobs = append(blobs, v.Data)
	}
	if len(blobs) == 0 {
		return nil, nil
	}
	// operators may span stream boundaries, so join with whitespace
	return bytes.Join(blobs, []byte("\n")), nil
}
