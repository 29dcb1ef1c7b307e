// Package recovery defines how the parsing layers react to malformed
// document structure. The strict strategy backs the primary load
// attempt; the lenient strategy backs the repair attempt.
package recovery

type Strategy interface {
	OnError(err error, location Location) Action
}

// Location identifies where in the source document an error was seen.
type Location struct {
	ByteOffset int64
	ObjectNum  int
	Page       int
	Component  string
}

type Action int

const (
	ActionFail Action = iota
	ActionSkip
	ActionWarn
)
