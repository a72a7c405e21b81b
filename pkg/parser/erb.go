package parser

import (
	"bytes"
)

var (
	erbOpen  = []byte("<%")
	erbClose = []byte("%>")
)

// blank returns a copy of src with every byte except newlines replaced by
// a space, so code copied back in keeps its line and column.
func blank(src []byte) []byte {
	out := make([]byte, len(src))
	for i, b := range src {
		if b == '\n' {
			out[i] = '\n'
		} else {
			out[i] = ' '
		}
	}
	return out
}

// lineCol returns the 0-based line and column of offset i.
func lineCol(src []byte, i int) (int, int) {
	line := bytes.Count(src[:i], []byte{'\n'})
	col := i - (bytes.LastIndexByte(src[:i], '\n') + 1)
	return line, col
}

// ERBToRuby extracts the Ruby in an ERB template. Markup becomes
// whitespace and each tag's closing %> becomes a statement separator.
// Comment tags (<%#) and literal tags (<%%) contribute nothing.
func ERBToRuby(src []byte) ([]byte, error) {
	out := blank(src)
	i := 0
	for {
		start := bytes.Index(src[i:], erbOpen)
		if start < 0 {
			return out, nil
		}
		start += i
		code := start + len(erbOpen)
		if code < len(src) && src[code] == '%' {
			i = code + 1
			continue
		}

		comment := false
		if code < len(src) {
			switch src[code] {
			case '#':
				comment = true
				code++
			case '=':
				code++
				if code < len(src) && src[code] == '=' {
					code++
				}
			case '-', '_':
				code++
			}
		}

		end := bytes.Index(src[code:], erbClose)
		if end < 0 {
			line, col := lineCol(src, start)
			return nil, &ParseError{Line: line + 1, Column: col, Msg: "unterminated ERB tag"}
		}
		end += code

		codeEnd := end
		if codeEnd > code {
			switch src[codeEnd-1] {
			case '-', '_', '=':
				codeEnd--
			}
		}
		if !comment {
			copy(out[code:codeEnd], src[code:codeEnd])
			out[end] = ';'
		}
		i = end + len(erbClose)
	}
}
