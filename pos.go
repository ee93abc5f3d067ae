package ape

import (
	"fmt"
	"sort"
)

// SourcePosition identifies one point in a source file. Line and
// Column are 1-based when surfaced to the user; File is the path the
// position was read from ("" for REPL input).
type SourcePosition struct {
	File   string
	Line   int
	Column int
}

// invalidPosition is used by errors that could not be attributed to a
// specific point in the source (spec.md §7).
var invalidPosition = SourcePosition{File: "", Line: -1, Column: -1}

func (p SourcePosition) String() string {
	if p.Line < 0 {
		return "?:?"
	}
	if p.File == "" {
		return fmt.Sprintf("%d:%d", p.Line, p.Column)
	}
	return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Column)
}

// lineIndex maps byte cursors within a file's source into 1-based
// line/column pairs. Each Lexer builds one over its source and uses it
// while scanning; diagnostics that print the offending source line
// take one too.
type lineIndex struct {
	src       []byte
	lineStart []int
}

func newLineIndex(src []byte) *lineIndex {
	starts := make([]int, 1, 64)
	starts[0] = 0
	for i, b := range src {
		if b == '\n' {
			starts = append(starts, i+1)
		}
	}
	return &lineIndex{src: src, lineStart: starts}
}

// lineColumn returns the 1-based line and column for a byte cursor.
func (li *lineIndex) lineColumn(cursor int) (line, column int) {
	if cursor < 0 {
		cursor = 0
	}
	if cursor > len(li.src) {
		cursor = len(li.src)
	}
	idx := sort.Search(len(li.lineStart), func(i int) bool {
		return li.lineStart[i] > cursor
	}) - 1
	if idx < 0 {
		idx = 0
	}
	return idx + 1, cursor - li.lineStart[idx] + 1
}

// line returns the raw bytes of the n-th (1-based) line, without the
// trailing newline. Used when rendering a source-line-and-caret error.
func (li *lineIndex) line(n int) []byte {
	if n < 1 || n > len(li.lineStart) {
		return nil
	}
	start := li.lineStart[n-1]
	end := len(li.src)
	if n < len(li.lineStart) {
		end = li.lineStart[n] - 1
	}
	if end > len(li.src) {
		end = len(li.src)
	}
	if start > end {
		return nil
	}
	return li.src[start:end]
}
