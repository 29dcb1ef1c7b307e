package pdf

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Lexer tokenizes PDF object syntax from an in-memory buffer. Working
// over the whole buffer keeps stream payload extraction a matter of
// slicing at the current position.
type Lexer struct {
	data []byte
	pos  int
}

func NewLexer(data []byte) *Lexer { return &Lexer{data: data} }

// Pos reports the current byte offset.
func (l *Lexer) Pos() int { return l.pos }

// Seek moves the cursor to an absolute offset.
func (l *Lexer) Seek(offset int) error {
	if offset < 0 || offset > len(l.data) {
		return fmt.Errorf("seek offset %d out of range", offset)
	}
	l.pos = offset
	return nil
}

func (l *Lexer) peek() (byte, bool) {
	if l.pos >= len(l.data) {
		return 0, false
	}
	return l.data[l.pos], true
}

func (l *Lexer) skipWhitespace() {
	for l.pos < len(l.data) {
		b := l.data[l.pos]
		if isWhitespace(b) {
			l.pos++
			continue
		}
		if b == '%' {
			for l.pos < len(l.data) && l.data[l.pos] != '\n' && l.data[l.pos] != '\r' {
				l.pos++
			}
			continue
		}
		break
	}
}

// ReadObject parses the next object from the buffer.
func (l *Lexer) ReadObject() (Object, error) {
	l.skipWhitespace()
	b, ok := l.peek()
	if !ok {
		return nil, io.EOF
	}
	switch {
	case b == '/':
		return l.readName()
	case b == '(':
		return l.readLiteralString()
	case b == '<':
		if l.pos+1 < len(l.data) && l.data[l.pos+1] == '<' {
			return l.readDict()
		}
		return l.readHexString()
	case b == '[':
		return l.readArray()
	case b == ']' || b == '}' || b == '{' || b == ')' || b == '>':
		l.pos++
		return Keyword(string(b)), nil
	case b == '\'' || b == '"':
		l.pos++
		return Keyword(string(b)), nil
	case isDigit(b) || b == '-' || b == '+' || b == '.':
		return l.readNumberOrRef()
	case isRegular(b):
		return l.readKeyword()
	default:
		l.pos++
		return nil, fmt.Errorf("unexpected byte 0x%02x at offset %d", b, l.pos-1)
	}
}

func (l *Lexer) readName() (Name, error) {
	l.pos++ // consume '/'
	var sb strings.Builder
	for l.pos < len(l.data) {
		b := l.data[l.pos]
		if isWhitespace(b) || isDelimiter(b) {
			break
		}
		l.pos++
		if b == '#' && l.pos+1 < len(l.data) {
			v, err := strconv.ParseUint(string(l.data[l.pos:l.pos+2]), 16, 8)
			if err == nil {
				sb.WriteByte(byte(v))
				l.pos += 2
				continue
			}
		}
		sb.WriteByte(b)
	}
	return Name(sb.String()), nil
}

func (l *Lexer) readLiteralString() (String, error) {
	l.pos++ // consume '('
	var out []byte
	depth := 1
	for {
		if l.pos >= len(l.data) {
			return nil, errors.New("unterminated string")
		}
		b := l.data[l.pos]
		l.pos++
		switch b {
		case '(':
			depth++
			out = append(out, b)
		case ')':
			depth--
			if depth == 0 {
				return String(out), nil
			}
			out = append(out, b)
		case '\\':
			if l.pos >= len(l.data) {
				return nil, errors.New("unterminated escape")
			}
			esc := l.data[l.pos]
			l.pos++
			switch esc {
			case 'n':
				out = append(out, '\n')
			case 'r':
				out = append(out, '\r')
			case 't':
				out = append(out, '\t')
			case 'b':
				out = append(out, '\b')
			case 'f':
				out = append(out, '\f')
			case '(', ')', '\\':
				out = append(out, esc)
			case '\r':
				// line continuation, swallow optional LF
				if l.pos < len(l.data) && l.data[l.pos] == '\n' {
					l.pos++
				}
			case '\n':
				// line continuation
			case '0', '1', '2', '3', '4', '5', '6', '7':
				oct := int(esc - '0')
				for i := 0; i < 2 && l.pos < len(l.data); i++ {
					d := l.data[l.pos]
					if d < '0' || d > '7' {
						break
					}
					oct = oct*8 + int(d-'0')
					l.pos++
				}
				out = append(out, byte(oct))
			default:
				out = append(out, esc)
			}
		default:
			out = append(out, b)
		}
	}
}

func (l *Lexer) readHexString() (String, error) {
	l.pos++ // consume '<'
	var hexDigits []byte
	for {
		if l.pos >= len(l.data) {
			return nil, errors.New("unterminated hex string")
		}
		b := l.data[l.pos]
		l.pos++
		if b == '>' {
			break
		}
		if isWhitespace(b) {
			continue
		}
		hexDigits = append(hexDigits, b)
	}
	if len(hexDigits)%2 == 1 {
		hexDigits = append(hexDigits, '0')
	}
	out := make([]byte, len(hexDigits)/2)
	for i := 0; i < len(out); i++ {
		hi := fromHex(hexDigits[2*i])
		lo := fromHex(hexDigits[2*i+1])
		out[i] = hi<<4 | lo
	}
	return String(out), nil
}

// readNumberOrRef disambiguates "12" from "12 0 R" by peeking at the
// following tokens without consuming them unless the full reference
// pattern is present.
func (l *Lexer) readNumberOrRef() (Object, error) {
	numStr := l.readToken()
	save := l.pos

	l.skipWhitespace()
	genStart := l.pos
	for l.pos < len(l.data) && isDigit(l.data[l.pos]) {
		l.pos++
	}
	if l.pos > genStart {
		genStr := string(l.data[genStart:l.pos])
		l.skipWhitespace()
		if l.pos < len(l.data) && l.data[l.pos] == 'R' {
			next := l.pos + 1
			if next >= len(l.data) || isWhitespace(l.data[next]) || isDelimiter(l.data[next]) {
				l.pos = next
				num, err1 := strconv.Atoi(numStr)
				gen, err2 := strconv.Atoi(genStr)
				if err1 == nil && err2 == nil {
					return Ref{Num: num, Gen: gen}, nil
				}
			}
		}
	}

	l.pos = save
	return makeNumber(numStr), nil
}

func makeNumber(s string) Number {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return Number(f)
}

func (l *Lexer) readKeyword() (Object, error) {
	tok := l.readToken()
	switch tok {
	case "true":
		return Bool(true), nil
	case "false":
		return Bool(false), nil
	case "null":
		return Null{}, nil
	}
	return Keyword(tok), nil
}

func (l *Lexer) readToken() string {
	start := l.pos
	for l.pos < len(l.data) {
		b := l.data[l.pos]
		if isWhitespace(b) || isDelimiter(b) {
			break
		}
		l.pos++
	}
	return string(l.data[start:l.pos])
}

func (l *Lexer) readArray() (Array, error) {
	l.pos++ // consume '['
	var arr Array
	for {
		l.skipWhitespace()
		b, ok := l.peek()
		if !ok {
			return nil, errors.New("unterminated array")
		}
		if b == ']' {
			l.pos++
			return arr, nil
		}
		obj, err := l.ReadObject()
		if err != nil {
			return nil, err
		}
		arr = append(arr, obj)
	}
}

func (l *Lexer) readDict() (Dict, error) {
	l.pos += 2 // consume '<<'
	dict := make(Dict)
	for {
		l.skipWhitespace()
		if l.pos+1 < len(l.data) && l.data[l.pos] == '>' && l.data[l.pos+1] == '>' {
			l.pos += 2
			return dict, nil
		}
		keyObj, err := l.ReadObject()
		if err != nil {
			return nil, err
		}
		key, ok := keyObj.(Name)
		if !ok {
			return nil, fmt.Errorf("dictionary key must be a name, got %T", keyObj)
		}
		val, err := l.ReadObject()
		if err != nil {
			return nil, err
		}
		dict[key] = val
	}
}

func isWhitespace(b byte) bool {
	return b == 0x00 || b == 0x09 || b == 0x0A || b == 0x0C || b == 0x0D || b == 0x20
}

func isDelimiter(b byte) bool {
	switch b {
	case '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return true
	}
	return false
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

func isRegular(b byte) bool { return !isWhitespace(b) && !isDelimiter(b) }

func fromHex(c byte) byte {
	switch {
	case c >= '0' && c <= '9':
		return c - '0'
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10
	}
	return 0
}
