package ast

import (
	"fmt"
	"strings"
)

// Location is a source range. Line is 1-based, columns are 0-based byte
// offsets into their line. SourceLine holds the full text of Line so a
// location can be rendered without the file at hand.
type Location struct {
	Path       string `json:"path"`
	Line       int    `json:"line"`
	Column     int    `json:"column"`
	EndLine    int    `json:"end_line"`
	EndColumn  int    `json:"end_column"`
	SourceLine string `json:"source_line,omitempty"`
}

// String renders "path:line:column" with a 1-based column.
func (l Location) String() string {
	return fmt.Sprintf("%s:%d:%d", l.Path, l.Line, l.Column+1)
}

// IsZero reports whether the location is unset.
func (l Location) IsZero() bool {
	return l.Line == 0
}

// bounds clamps the range to the start line.
func (l Location) bounds() (int, int) {
	line := l.SourceLine
	start := min(max(l.Column, 0), len(line))
	end := len(line)
	if l.EndLine == l.Line && l.EndColumn >= start && l.EndColumn <= len(line) {
		end = l.EndColumn
	}
	return start, end
}

// Snippet returns the text the location covers on its first line.
func (l Location) Snippet() string {
	start, end := l.bounds()
	return l.SourceLine[start:end]
}

// Highlight renders the start line with leading and trailing whitespace
// removed and the covered range wrapped in on/off.
func (l Location) Highlight(on, off string) string {
	start, end := l.bounds()
	line := l.SourceLine
	return strings.TrimLeft(line[:start], " \t") + on + line[start:end] + off +
		strings.TrimRight(line[end:], " \t\r")
}

// Context renders the trimmed start line without highlighting.
func (l Location) Context() string {
	return l.Highlight("", "")
}

// Lines splits source into lines for building locations.
type Lines []string

// SplitLines splits src on newlines, keeping no terminators.
func SplitLines(src []byte) Lines {
	return strings.Split(string(src), "\n")
}

// At returns the 1-based line, or "" when out of range.
func (ls Lines) At(line int) string {
	if line < 1 || line > len(ls) {
		return ""
	}
	return strings.TrimSuffix(ls[line-1], "\r")
}

// Location builds a location from 0-based rows and columns.
func (ls Lines) Location(path string, startRow, startCol, endRow, endCol int) Location {
	return Location{
		Path:       path,
		Line:       startRow + 1,
		Column:     startCol,
		EndLine:    endRow + 1,
		EndColumn:  endCol,
		SourceLine: ls.At(startRow + 1),
	}
}
