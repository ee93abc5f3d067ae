package ape

import (
	"fmt"
	"strings"
)

// ErrorKind discriminates the taxonomy from spec.md §7: PARSING,
// COMPILATION, RUNTIME, USER (the host-produced kind).
type ErrorKind int

const (
	ParsingErrorKind ErrorKind = iota
	CompilationErrorKind
	RuntimeErrorKind
	UserErrorKind
)

func (k ErrorKind) String() string {
	switch k {
	case ParsingErrorKind:
		return "PARSING"
	case CompilationErrorKind:
		return "COMPILATION"
	case RuntimeErrorKind:
		return "RUNTIME"
	case UserErrorKind:
		return "USER"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

// TracebackEntry is one call-stack frame snapshot (spec.md §4.7).
type TracebackEntry struct {
	FunctionName string
	Pos          SourcePosition
}

// Error is spec.md §7's error record: kind + source position + message
// + optional traceback (runtime/recovered errors only). It implements
// Go's error interface so it can flow through ordinary `error` returns
// inside the compiler and VM before being appended to the engine's
// error list.
type Error struct {
	Kind      ErrorKind
	Pos       SourcePosition
	Message   string
	Traceback []TracebackEntry
}

func NewError(kind ErrorKind, pos SourcePosition, message string) *Error {
	return &Error{Kind: kind, Pos: pos, Message: message}
}

func NewErrorf(kind ErrorKind, pos SourcePosition, format string, args ...interface{}) *Error {
	return NewError(kind, pos, fmt.Sprintf(format, args...))
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s ERROR in %q on %s: %s", e.Kind, e.Pos.File, e.Pos.String(), e.Message)
}

// Serialize produces the multi-line, human-facing rendering described
// in spec.md §7: the offending source line + caret, a header line, and
// the traceback if present. lines may be nil if the source is no
// longer available (e.g. a REPL line already scrolled off).
func (e *Error) Serialize(lines *lineIndex) string {
	var b strings.Builder
	if lines != nil && e.Pos.Line > 0 {
		if src := lines.line(e.Pos.Line); src != nil {
			b.Write(src)
			b.WriteByte('\n')
			col := e.Pos.Column
			if col < 1 {
				col = 1
			}
			b.WriteString(strings.Repeat(" ", col-1))
			b.WriteString("^\n")
		}
	}
	fmt.Fprintf(&b, "%s ERROR in %q on %s: %s", e.Kind, e.Pos.File, e.Pos.String(), e.Message)
	for _, f := range e.Traceback {
		fmt.Fprintf(&b, "\n  at %s (%s)", f.FunctionName, f.Pos)
	}
	return b.String()
}

// ErrorList accumulates diagnostics across a parse/compile/run cycle
// the way the teacher's engine keeps lastErr/lastErrFFP but generalized
// to a full list, per spec.md §4.7 ("the engine keeps a list of errors
// accumulated during parse/compile/run").
type ErrorList struct {
	errors []*Error
}

func (el *ErrorList) Add(e *Error)    { el.errors = append(el.errors, e) }
func (el *ErrorList) HasErrors() bool { return len(el.errors) > 0 }
func (el *ErrorList) Count() int      { return len(el.errors) }
func (el *ErrorList) At(i int) *Error { return el.errors[i] }
func (el *ErrorList) All() []*Error   { return el.errors }
func (el *ErrorList) Reset()          { el.errors = nil }
