package pdf

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/wudi/pdf2html/recovery"
)

type xrefEntry struct {
	offset     int64
	gen        int
	free       bool
	compressed bool
	streamNum  int
	streamIdx  int
}

type xrefTable struct {
	entries map[int]xrefEntry
	trailer Dict
}

// parseXRef resolves the cross-reference structure starting from the
// trailing startxref pointer, following /Prev and /XRefStm chains.
func parseXRef(data []byte) (*xrefTable, error) {
	table := &xrefTable{entries: make(map[int]xrefEntry), trailer: make(Dict)}

	offset, err := findStartXRef(data)
	if err != nil {
		return nil, err
	}

	visited := make(map[int64]bool)
	pending := []int64{offset}
	for len(pending) > 0 {
		off := pending[0]
		pending = pending[1:]
		if off <= 0 || off >= int64(len(data)) || visited[off] {
			continue
		}
		visited[off] = true

		var trailer Dict
		if bytes.HasPrefix(bytes.TrimLeft(data[off:], "\x00\t\n\f\r "), []byte("xref")) {
			trailer, err = table.readClassicSection(data, off)
		} else {
			trailer, err = table.readStreamSection(data, off)
		}
		if err != nil {
			return nil, err
		}
		for k, v := range trailer {
			if _, exists := table.trailer[k]; !exists {
				table.trailer[k] = v
			}
		}
		if prev, ok := trailer.number("Prev"); ok {
			pending = append(pending, int64(prev))
		}
		if hybrid, ok := trailer.number("XRefStm"); ok {
			pending = append(pending, int64(hybrid))
		}
	}

	if _, ok := table.trailer["Root"]; !ok {
		return nil, errors.New("missing /Root in trailer")
	}
	return table, nil
}

// findStartXRef locates the last startxref marker within the file tail.
func findStartXRef(data []byte) (int64, error) {
	tail := data
	if len(tail) > 1024 {
		tail = tail[len(tail)-1024:]
	}
	idx := bytes.LastIndex(tail, []byte("startxref"))
	if idx == -1 {
		return 0, errors.New("startxref not found")
	}
	rest := strings.TrimSpace(string(tail[idx+len("startxref"):]))
	end := 0
	for end < len(rest) && rest[end] >= '0' && rest[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, errors.New("startxref offset missing")
	}
	off, err := strconv.ParseInt(rest[:end], 10, 64)
	if err != nil {
		return 0, err
	}
	return off, nil
}

// readClassicSection parses an "xref" table followed by its trailer.
func (t *xrefTable) readClassicSection(data []byte, offset int64) (Dict, error) {
	lex := NewLexer(data)
	if err := lex.Seek(int(offset)); err != nil {
		return nil, err
	}
	kw, err := lex.ReadObject()
	if err != nil {
		return nil, err
	}
	if k, ok := kw.(Keyword); !ok || k != "xref" {
		return nil, fmt.Errorf("expected xref keyword at offset %d", offset)
	}

	for {
		obj, err := lex.ReadObject()
		if err != nil {
			return nil, err
		}
		if k, ok := obj.(Keyword); ok && k == "trailer" {
			break
		}
		first, ok := obj.(Number)
		if !ok {
			return nil, fmt.Errorf("expected subsection start, got %T", obj)
		}
		countObj, err := lex.ReadObject()
		if err != nil {
			return nil, err
		}
		count, ok := countObj.(Number)
		if !ok {
			return nil, fmt.Errorf("expected subsection count, got %T", countObj)
		}
		for i := 0; i < int(count); i++ {
			offObj, err := lex.ReadObject()
			if err != nil {
				return nil, err
			}
			genObj, err := lex.ReadObject()
			if err != nil {
				return nil, err
			}
			typObj, err := lex.ReadObject()
			if err != nil {
				return nil, err
			}
			num := int(first) + i
			entryOff, _ := offObj.(Number)
			entryGen, _ := genObj.(Number)
			typ, _ := typObj.(Keyword)
			if _, exists := t.entries[num]; exists {
				continue // earlier sections win over /Prev ones
			}
			t.entries[num] = xrefEntry{
				offset: int64(entryOff),
				gen:    int(entryGen),
				free:   typ == "f",
			}
		}
	}

	trailerObj, err := lex.ReadObject()
	if err != nil {
		return nil, err
	}
	trailer, ok := trailerObj.(Dict)
	if !ok {
		return nil, errors.New("trailer is not a dictionary")
	}
	return trailer, nil
}

// readStreamSection parses a cross-reference stream object.
func (t *xrefTable) readStreamSection(data []byte, offset int64) (Dict, error) {
	lex := NewLexer(data)
	if err := lex.Seek(int(offset)); err != nil {
		return nil, err
	}
	// "<num> <gen> obj"
	for i := 0; i < 3; i++ {
		if _, err := lex.ReadObject(); err != nil {
			return nil, err
		}
	}
	dictObj, err := lex.ReadObject()
	if err != nil {
		return nil, err
	}
	dict, ok := dictObj.(Dict)
	if !ok {
		return nil, errors.New("xref stream object is not a dictionary")
	}
	if typ, _ := dict.name("Type"); typ != "XRef" {
		return nil, fmt.Errorf("expected /Type /XRef, got %q", typ)
	}
	raw, err := readStreamPayload(lex, dict, nil)
	if err != nil {
		return nil, err
	}
	decoded, err := decodeStream(dict, raw)
	if err != nil {
		return nil, fmt.Errorf("decode xref stream: %w", err)
	}

	wArr, ok := dict["W"].(Array)
	if !ok || len(wArr) < 3 {
		return nil, errors.New("xref stream missing /W")
	}
	var w [3]int
	for i := 0; i < 3; i++ {
		n, ok := wArr[i].(Number)
		if !ok {
			return nil, errors.New("invalid /W entry")
		}
		w[i] = int(n)
	}
	rowLen := w[0] + w[1] + w[2]
	if rowLen == 0 {
		return nil, errors.New("zero-width xref rows")
	}

	size, _ := dict.intVal("Size")
	index := []int{0, size}
	if idxArr, ok := dict["Index"].(Array); ok {
		index = index[:0]
		for _, v := range idxArr {
			if n, ok := v.(Number); ok {
				index = append(index, int(n))
			}
		}
	}

	pos := 0
	for i := 0; i+1 < len(index); i += 2 {
		start, count := index[i], index[i+1]
		for j := 0; j < count; j++ {
			if pos+rowLen > len(decoded) {
				return dict, nil // truncated stream, keep what we have
			}
			row := decoded[pos : pos+rowLen]
			pos += rowLen
			typ := int64(1)
			if w[0] > 0 {
				typ = beInt(row[:w[0]])
			}
			f2 := beInt(row[w[0] : w[0]+w[1]])
			f3 := beInt(row[w[0]+w[1]:])
			num := start + j
			if _, exists := t.entries[num]; exists {
				continue
			}
			switch typ {
			case 0:
				t.entries[num] = xrefEntry{free: true, gen: int(f3)}
			case 1:
				t.entries[num] = xrefEntry{offset: f2, gen: int(f3)}
			case 2:
				t.entries[num] = xrefEntry{compressed: true, streamNum: int(f2), streamIdx: int(f3)}
			}
		}
	}
	return dict, nil
}

func beInt(b []byte) int64 {
	var v int64
	for _, c := range b {
		v = v<<8 | int64(c)
	}
	return v
}

// repairXRef reconstructs a cross-reference table by scanning the whole
// buffer for "<num> <gen> obj" markers and trailer dictionaries. It is
// the degraded strategy behind the loader's second attempt.
func repairXRef(data []byte, rec recovery.Strategy) (*xrefTable, error) {
	if rec == nil {
		rec = recovery.NewLenientStrategy()
	}
	table := &xrefTable{entries: make(map[int]xrefEntry), trailer: make(Dict)}
	lex := NewLexer(data)

	for {
		lex.skipWhitespace()
		start := lex.Pos()
		obj, err := lex.ReadObject()
		if err != nil {
			if lex.Pos() >= len(data) {
				break
			}
			if rec.OnError(err, recovery.Location{ByteOffset: int64(start), Component: "XRefRepair"}) == recovery.ActionFail {
				return nil, err
			}
			lex.Seek(start + 1)
			continue
		}

		switch v := obj.(type) {
		case Number:
			numPos := lex.Pos()
			genObj, err := lex.ReadObject()
			if err != nil {
				continue
			}
			gen, ok := genObj.(Number)
			if !ok {
				// the second token may itself start an object header
				lex.Seek(numPos)
				continue
			}
			kwObj, err := lex.ReadObject()
			if err != nil {
				continue
			}
			if kw, ok := kwObj.(Keyword); ok && kw == "obj" {
				// later definitions override earlier ones during repair
				table.entries[int(v)] = xrefEntry{offset: int64(start), gen: int(gen)}
				skipObjectBody(lex)
			} else {
				lex.Seek(numPos)
			}
		case Keyword:
			if v == "trailer" {
				if tr, err := lex.ReadObject(); err == nil {
					if dict, ok := tr.(Dict); ok {
						for k, val := range dict {
							table.trailer[k] = val
						}
					}
				}
			}
		}
	}

	if len(table.entries) == 0 {
		return nil, errors.New("repair found no objects")
	}
	if _, ok := table.trailer["Root"]; !ok {
		if ref, ok := findCatalogRef(data, table); ok {
			table.trailer["Root"] = ref
		} else {
			return nil, errors.New("repair found no document catalog")
		}
	}
	return table, nil
}

// skipObjectBody advances past the current object's payload so the
// repair scan does not mistake stream bytes for object headers.
func skipObjectBody(lex *Lexer) {
	bodyStart := lex.Pos()
	obj, err := lex.ReadObject()
	if err != nil {
		lex.Seek(bodyStart)
		return
	}
	dict, ok := obj.(Dict)
	if !ok {
		return
	}
	save := lex.Pos()
	kw, err := lex.ReadObject()
	if err != nil {
		lex.Seek(save)
		return
	}
	if k, ok := kw.(Keyword); !ok || k != "stream" {
		lex.Seek(save)
		return
	}
	// jump over the raw payload; /Length may be indirect, so fall back
	// to scanning for endstream
	if n, ok := dict.number("Length"); ok {
		skipStreamEOL(lex)
		if lex.Pos()+int(n) <= len(lex.data) {
			lex.Seek(lex.Pos() + int(n))
			return
		}
	}
	if idx := bytes.Index(lex.data[lex.Pos():], []byte("endstream")); idx >= 0 {
		lex.Seek(lex.Pos() + idx + len("endstream"))
	}
}

// findCatalogRef scans repaired entries for a /Type /Catalog dictionary.
func findCatalogRef(data []byte, table *xrefTable) (Ref, bool) {
	for num, entry := range table.entries {
		lex := NewLexer(data)
		if lex.Seek(int(entry.offset)) != nil {
			continue
		}
		for i := 0; i < 3; i++ {
			if _, err := lex.ReadObject(); err != nil {
				break
			}
		}
		obj, err := lex.ReadObject()
		if err != nil {
			continue
		}
		if dict, ok := obj.(Dict); ok {
			if typ, _ := dict.name("Type"); typ == "Catalog" {
				return Ref{Num: num, Gen: entry.gen}, true
			}
		}
	}
	return Ref{}, false
}
