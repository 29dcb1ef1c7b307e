// Package pdf is the native parsing engine behind the document
// capability interfaces. It reads just enough of the COS object model
// to expose pages, positioned text runs, and an operator trace.
package pdf

// Object is any value of the PDF object model.
type Object interface{}

// Name is a PDF name without its leading slash.
type Name string

// String holds the decoded bytes of a literal or hex string.
type String []byte

type Number float64

type Bool bool

type Null struct{}

type Array []Object

type Dict map[Name]Object

// Ref is an indirect object reference, "N G R" in the file.
type Ref struct {
	Num int
	Gen int
}

// Keyword is a bare token such as "obj", "stream" or a content-stream
// operator.
type Keyword string

// Stream pairs a stream dictionary with its (decoded) data.
type Stream struct {
	Dict Dict
	Data []byte
}

func (d Dict) name(key Name) (Name, bool) {
	n, ok := d[key].(Name)
	return n, ok
}

func (d Dict) number(key Name) (float64, bool) {
	n, ok := d[key].(Number)
	return float64(n), ok
}

func (d Dict) intVal(key Name) (int, bool) {
	n, ok := d[key].(Number)
	return int(n), ok
}
