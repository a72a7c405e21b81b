package parser

import (
	"bytes"
	"regexp"
	"sort"
	"strings"
)

var (
	hamlBlockOpener = regexp.MustCompile(`(^|[\s;])do(\s*\|[^|]*\|)?\s*$`)
	hamlKeywordOpen = regexp.MustCompile(`^(if|unless|case|while|until|for|begin)\b`)
	hamlKeywordCont = regexp.MustCompile(`^(else|elsif|when|in|rescue|ensure)\b`)
)

// hamlMode is how lines nested under a filter or comment are read.
type hamlMode int

const (
	hamlModeNone hamlMode = iota
	hamlModeComment
	hamlModeRuby
	hamlModeText
)

// hamlConverter rewrites a HAML document into Ruby that keeps every
// expression at its original line and column.
type hamlConverter struct {
	src   []byte
	out   []byte
	lines []int // start offset of each line

	// blocks holds the indentation of each open Ruby block.
	blocks   []int
	ends     map[int]int // line index -> count of "end"s to append
	lastCode int         // line index of the most recent code fragment

	fragEnd  int // offset just past the last emitted fragment
	fragLine int

	mode       hamlMode
	modeIndent int
}

// HAMLToRuby extracts the Ruby in a HAML document: script lines, attribute
// hashes and values, object references, interpolations and :ruby filters.
// Tags, classes, ids and plain text contribute nothing.
func HAMLToRuby(src []byte) ([]byte, error) {
	h := &hamlConverter{
		src:      src,
		out:      blank(src),
		ends:     map[int]int{},
		lastCode: -1,
		fragEnd:  -1,
		fragLine: -1,
	}
	h.lines = append(h.lines, 0)
	for i, b := range src {
		if b == '\n' {
			h.lines = append(h.lines, i+1)
		}
	}

	for li := 0; li < len(h.lines); {
		next, err := h.line(li)
		if err != nil {
			return nil, err
		}
		li = next
	}
	h.closeBlocks(-1, "")
	return h.assemble(), nil
}

func (h *hamlConverter) lineEnd(li int) int {
	if li+1 < len(h.lines) {
		return h.lines[li+1] - 1
	}
	return len(h.src)
}

func (h *hamlConverter) lineOf(offset int) int {
	return sort.Search(len(h.lines), func(i int) bool { return h.lines[i] > offset }) - 1
}

// emit copies src[from:to] into the output as code, separating it from an
// earlier fragment on the same line.
func (h *hamlConverter) emit(from, to int) {
	if to <= from {
		return
	}
	li := h.lineOf(from)
	if h.fragLine == li && from > h.fragEnd && h.fragEnd >= 0 {
		h.out[h.fragEnd] = ';'
	}
	copy(h.out[from:to], h.src[from:to])
	h.fragEnd = to
	h.fragLine = h.lineOf(to)
	h.lastCode = h.fragLine
}

// closeBlocks closes every open block at or deeper than indent. A line
// continuing the innermost block (else, when, ...) keeps it open.
func (h *hamlConverter) closeBlocks(indent int, code string) {
	for len(h.blocks) > 0 {
		top := h.blocks[len(h.blocks)-1]
		if indent >= 0 && top < indent {
			return
		}
		if top == indent && hamlKeywordCont.MatchString(code) {
			return
		}
		h.blocks = h.blocks[:len(h.blocks)-1]
		if h.lastCode >= 0 {
			h.ends[h.lastCode]++
		}
	}
}

func (h *hamlConverter) assemble() []byte {
	if len(h.ends) == 0 {
		return h.out
	}
	var b bytes.Buffer
	for li := range h.lines {
		b.Write(h.out[h.lines[li]:h.lineEnd(li)])
		for range h.ends[li] {
			b.WriteString(";end")
		}
		if li+1 < len(h.lines) {
			b.WriteByte('\n')
		}
	}
	return b.Bytes()
}

// line converts the line at li and returns the index of the next line to
// read.
func (h *hamlConverter) line(li int) (int, error) {
	start, end := h.lines[li], h.lineEnd(li)
	raw := string(h.src[start:end])
	trimmed := strings.TrimLeft(raw, " \t")
	if strings.TrimSpace(trimmed) == "" {
		return li + 1, nil
	}
	indent := len(raw) - len(trimmed)
	p := start + indent

	if h.mode != hamlModeNone {
		if indent > h.modeIndent {
			switch h.mode {
			case hamlModeRuby:
				h.emit(p, end)
			case hamlModeText:
				h.interpolations(p, end)
			}
			return li + 1, nil
		}
		h.mode = hamlModeNone
	}

	h.closeBlocks(indent, scriptCode(trimmed))

	switch {
	case strings.HasPrefix(trimmed, "-#"):
		h.mode, h.modeIndent = hamlModeComment, indent
		return li + 1, nil
	case strings.HasPrefix(trimmed, "!!!"), strings.HasPrefix(trimmed, "/"):
		return li + 1, nil
	case strings.HasPrefix(trimmed, ":"):
		h.modeIndent = indent
		if strings.TrimSpace(trimmed[1:]) == "ruby" {
			h.mode = hamlModeRuby
		} else {
			h.mode = hamlModeText
		}
		return li + 1, nil
	case strings.HasPrefix(trimmed, "\\"):
		h.interpolations(p+1, end)
		return li + 1, nil
	}

	if n := scriptMarker(trimmed); n > 0 {
		return h.script(li, indent, p+n)
	}
	if strings.HasPrefix(trimmed, "==") {
		h.interpolations(p+2, end)
		return li + 1, nil
	}
	if isElementStart(trimmed) {
		return h.element(li, indent, p)
	}
	h.interpolations(p, end)
	return li + 1, nil
}

// scriptMarker returns the length of a script marker (-, =, ~, !=, &=) at
// the start of s, or 0.
func scriptMarker(s string) int {
	switch {
	case strings.HasPrefix(s, "!=="), strings.HasPrefix(s, "&=="):
		return 0
	case strings.HasPrefix(s, "!="), strings.HasPrefix(s, "&="):
		return 2
	case strings.HasPrefix(s, "=="):
		return 0
	case strings.HasPrefix(s, "-"), strings.HasPrefix(s, "="), strings.HasPrefix(s, "~"):
		return 1
	}
	return 0
}

// scriptCode returns the Ruby of a script line, used to spot block
// continuations.
func scriptCode(s string) string {
	if n := scriptMarker(s); n > 0 {
		return strings.TrimSpace(s[n:])
	}
	return ""
}

func isElementStart(s string) bool {
	if len(s) < 2 {
		return false
	}
	switch s[0] {
	case '%', '.', '#':
		return isNameByte(s[1])
	}
	return false
}

func isNameByte(b byte) bool {
	return b == '_' || b == '-' || b == ':' ||
		(b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}

// script emits the Ruby starting at from, following trailing-comma
// continuation lines, and opens a block when the code ends in one.
func (h *hamlConverter) script(li, indent, from int) (int, error) {
	end := h.lineEnd(li)
	first := strings.TrimSpace(string(h.src[from:end]))
	h.emit(from, end)
	code := first
	next := li + 1
	for strings.HasSuffix(code, ",") && next < len(h.lines) {
		s, e := h.lines[next], h.lineEnd(next)
		h.emit(s, e)
		code = strings.TrimSpace(string(h.src[s:e]))
		next++
	}

	if hamlKeywordCont.MatchString(first) {
		return next, nil
	}
	if hamlBlockOpener.MatchString(code) || hamlKeywordOpen.MatchString(first) {
		h.blocks = append(h.blocks, indent)
	}
	return next, nil
}

// element reads a tag line: %tag.class#id, then any {hash}, (attrs) and
// [object] sections, then script or text content.
func (h *hamlConverter) element(li, indent, p int) (int, error) {
	end := h.lineEnd(li)
	for p < end && (h.src[p] == '%' || h.src[p] == '.' || h.src[p] == '#') &&
		p+1 < end && isNameByte(h.src[p+1]) {
		p++
		for p < end && isNameByte(h.src[p]) {
			p++
		}
	}

attributes:
	for p < len(h.src) {
		switch h.src[p] {
		case '{':
			closing, err := h.match(p, '{', '}')
			if err != nil {
				return 0, err
			}
			h.emit(p, closing+1)
			p = closing + 1
		case '(':
			closing, err := h.match(p, '(', ')')
			if err != nil {
				return 0, err
			}
			h.htmlAttributes(p+1, closing)
			p = closing + 1
		case '[':
			closing, err := h.match(p, '[', ']')
			if err != nil {
				return 0, err
			}
			h.emit(p+1, closing)
			p = closing + 1
		default:
			break attributes
		}
	}

	li = h.lineOf(p)
	end = h.lineEnd(li)
	for p < end && (h.src[p] == '<' || h.src[p] == '>' || h.src[p] == '/') {
		p++
	}
	rest := string(h.src[p:end])
	if n := scriptMarker(rest); n > 0 && rest[0] != '-' {
		return h.script(li, indent, p+n)
	}
	h.interpolations(p, end)
	return li + 1, nil
}

// htmlAttributes emits unquoted values and quoted-value interpolations of
// an (a=b c="d") attribute list.
func (h *hamlConverter) htmlAttributes(from, to int) {
	p := from
	for p < to {
		for p < to && h.src[p] != '=' {
			p++
		}
		if p >= to {
			return
		}
		p++
		for p < to && (h.src[p] == ' ' || h.src[p] == '\t') {
			p++
		}
		if p >= to {
			return
		}
		switch q := h.src[p]; q {
		case '"', '\'':
			closing := bytes.IndexByte(h.src[p+1:to], q)
			if closing < 0 {
				return
			}
			closing += p + 1
			if q == '"' {
				h.interpolations(p+1, closing)
			}
			p = closing + 1
		default:
			start := p
			for p < to && h.src[p] != ' ' && h.src[p] != '\t' && h.src[p] != '\n' {
				p++
			}
			h.emit(start, p)
		}
	}
}

// interpolations emits the code of each #{...} in src[from:to].
func (h *hamlConverter) interpolations(from, to int) {
	p := from
	for p+1 < to {
		if h.src[p] == '#' && h.src[p+1] == '{' && (p == from || h.src[p-1] != '\\') {
			closing, err := h.match(p+1, '{', '}')
			if err != nil {
				return
			}
			h.emit(p+2, closing)
			p = closing + 1
			continue
		}
		p++
	}
}

// match returns the offset of the delimiter closing the one at open,
// skipping quoted strings.
func (h *hamlConverter) match(open int, left, right byte) (int, error) {
	depth := 0
	for p := open; p < len(h.src); p++ {
		switch b := h.src[p]; b {
		case '"', '\'':
			for p++; p < len(h.src) && h.src[p] != b; p++ {
				if h.src[p] == '\\' {
					p++
				}
			}
		case left:
			depth++
		case right:
			depth--
			if depth == 0 {
				return p, nil
			}
		}
	}
	line, col := lineCol(h.src, open)
	return 0, &ParseError{Line: line + 1, Column: col, Msg: "unbalanced " + string(left)}
}
